package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	"github.com/allisson/compliance-vault/internal/metrics"
)

// useCaseWithMetrics decorates the key lifecycle UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a key lifecycle UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *useCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	u.metrics.RecordOperation(ctx, "keys", operation, status)
	u.metrics.RecordDuration(ctx, "keys", operation, time.Since(start), status)
}

// Initialize records metrics for lifecycle initialization.
func (u *useCaseWithMetrics) Initialize(ctx context.Context) error {
	start := time.Now()
	err := u.next.Initialize(ctx)
	u.record(ctx, "initialize", start, err)
	return err
}

// GetActiveKey records metrics for active key lookups.
func (u *useCaseWithMetrics) GetActiveKey(
	ctx context.Context,
	purpose keysDomain.Purpose,
) (*keysDomain.EncryptionKey, error) {
	start := time.Now()
	key, err := u.next.GetActiveKey(ctx, purpose)
	u.record(ctx, "get_active_key", start, err)
	return key, err
}

// GetKey records metrics for key lookups.
func (u *useCaseWithMetrics) GetKey(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error) {
	start := time.Now()
	key, err := u.next.GetKey(ctx, id)
	u.record(ctx, "get_key", start, err)
	return key, err
}

// ListKeys records metrics for key listings.
func (u *useCaseWithMetrics) ListKeys(ctx context.Context) ([]*keysDomain.EncryptionKey, error) {
	start := time.Now()
	keys, err := u.next.ListKeys(ctx)
	u.record(ctx, "list_keys", start, err)
	return keys, err
}

// RotateKey records metrics for rotations.
func (u *useCaseWithMetrics) RotateKey(
	ctx context.Context,
	purpose keysDomain.Purpose,
) (*keysDomain.EncryptionKey, error) {
	start := time.Now()
	key, err := u.next.RotateKey(ctx, purpose)
	u.record(ctx, "rotate_key", start, err)
	return key, err
}

// MarkCompromised records metrics for compromise handling.
func (u *useCaseWithMetrics) MarkCompromised(ctx context.Context, id uuid.UUID, reason string) error {
	start := time.Now()
	err := u.next.MarkCompromised(ctx, id, reason)
	u.record(ctx, "mark_compromised", start, err)
	return err
}

// Cleanup delegates without instrumentation.
func (u *useCaseWithMetrics) Cleanup() {
	u.next.Cleanup()
}
