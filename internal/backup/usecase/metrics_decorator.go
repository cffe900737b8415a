package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	"github.com/allisson/compliance-vault/internal/metrics"
)

// useCaseWithMetrics decorates the backup UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a backup UseCase with metrics recording.
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
	u.metrics.RecordOperation(ctx, "backup", operation, status)
	u.metrics.RecordDuration(ctx, "backup", operation, time.Since(start), status)
}

// CreateBackup records metrics for backup creation.
func (u *useCaseWithMetrics) CreateBackup(
	ctx context.Context,
	dataType, sourcePath string,
) (*backupDomain.BackupMetadata, error) {
	start := time.Now()
	meta, err := u.next.CreateBackup(ctx, dataType, sourcePath)
	u.record(ctx, "create_backup", start, err)
	return meta, err
}

// VerifyBackup records metrics for verification runs.
func (u *useCaseWithMetrics) VerifyBackup(
	ctx context.Context,
	id uuid.UUID,
) (*backupDomain.VerificationResult, error) {
	start := time.Now()
	result, err := u.next.VerifyBackup(ctx, id)
	u.record(ctx, "verify_backup", start, err)
	return result, err
}

// TestRestoration records metrics for restoration self-tests.
func (u *useCaseWithMetrics) TestRestoration(ctx context.Context, id uuid.UUID, targetPath string) error {
	start := time.Now()
	err := u.next.TestRestoration(ctx, id, targetPath)
	u.record(ctx, "test_restoration", start, err)
	return err
}

// ListBackups records metrics for listings.
func (u *useCaseWithMetrics) ListBackups(ctx context.Context) ([]*backupDomain.BackupMetadata, error) {
	start := time.Now()
	metas, err := u.next.ListBackups(ctx)
	u.record(ctx, "list_backups", start, err)
	return metas, err
}

// ScheduleBackups delegates without instrumentation.
func (u *useCaseWithMetrics) ScheduleBackups(resolver SourceResolver) {
	u.next.ScheduleBackups(resolver)
}

// Cleanup delegates without instrumentation.
func (u *useCaseWithMetrics) Cleanup() {
	u.next.Cleanup()
}
