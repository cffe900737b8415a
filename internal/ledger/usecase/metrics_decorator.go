package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
	"github.com/allisson/compliance-vault/internal/metrics"
)

// useCaseWithMetrics decorates the ledger UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a ledger UseCase with metrics recording.
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
	u.metrics.RecordOperation(ctx, "ledger", operation, status)
	u.metrics.RecordDuration(ctx, "ledger", operation, time.Since(start), status)
}

// Append records metrics for append operations.
func (u *useCaseWithMetrics) Append(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error) {
	start := time.Now()
	id, err := u.next.Append(ctx, input)
	u.record(ctx, "append", start, err)
	return id, err
}

// Query records metrics for query operations.
func (u *useCaseWithMetrics) Query(
	ctx context.Context,
	filter ledgerDomain.QueryFilter,
) ([]*ledgerDomain.AuditEvent, error) {
	start := time.Now()
	events, err := u.next.Query(ctx, filter)
	u.record(ctx, "query", start, err)
	return events, err
}

// VerifyRange records metrics for verification operations.
func (u *useCaseWithMetrics) VerifyRange(ctx context.Context, from, to time.Time) (int, error) {
	start := time.Now()
	count, err := u.next.VerifyRange(ctx, from, to)
	u.record(ctx, "verify_range", start, err)
	return count, err
}

// ArchiveDueSegments records metrics for archival operations.
func (u *useCaseWithMetrics) ArchiveDueSegments(ctx context.Context) (int, error) {
	start := time.Now()
	moved, err := u.next.ArchiveDueSegments(ctx)
	u.record(ctx, "archive_due_segments", start, err)
	return moved, err
}
