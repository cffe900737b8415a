package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	backupUseCase "github.com/allisson/compliance-vault/internal/backup/usecase"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

type ledgerStub struct {
	appendFn  func(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error)
	queryFn   func(ctx context.Context, filter ledgerDomain.QueryFilter) ([]*ledgerDomain.AuditEvent, error)
	verifyFn  func(ctx context.Context, from, to time.Time) (int, error)
	archiveFn func(ctx context.Context) (int, error)
}

func (s *ledgerStub) Append(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error) {
	return s.appendFn(ctx, input)
}

func (s *ledgerStub) Query(ctx context.Context, filter ledgerDomain.QueryFilter) ([]*ledgerDomain.AuditEvent, error) {
	return s.queryFn(ctx, filter)
}

func (s *ledgerStub) VerifyRange(ctx context.Context, from, to time.Time) (int, error) {
	return s.verifyFn(ctx, from, to)
}

func (s *ledgerStub) ArchiveDueSegments(ctx context.Context) (int, error) {
	return s.archiveFn(ctx)
}

type keysStub struct {
	listFn       func(ctx context.Context) ([]*keysDomain.EncryptionKey, error)
	rotateFn     func(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error)
	compromiseFn func(ctx context.Context, id uuid.UUID, reason string) error
}

func (s *keysStub) Initialize(ctx context.Context) error { return nil }

func (s *keysStub) GetActiveKey(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error) {
	return nil, keysDomain.ErrNoActiveKey
}

func (s *keysStub) GetKey(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error) {
	return nil, keysDomain.ErrKeyNotFound
}

func (s *keysStub) ListKeys(ctx context.Context) ([]*keysDomain.EncryptionKey, error) {
	return s.listFn(ctx)
}

func (s *keysStub) RotateKey(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error) {
	return s.rotateFn(ctx, purpose)
}

func (s *keysStub) MarkCompromised(ctx context.Context, id uuid.UUID, reason string) error {
	return s.compromiseFn(ctx, id, reason)
}

func (s *keysStub) Cleanup() {}

type backupStub struct {
	createFn  func(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error)
	verifyFn  func(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error)
	restoreFn func(ctx context.Context, id uuid.UUID, targetPath string) error
	listFn    func(ctx context.Context) ([]*backupDomain.BackupMetadata, error)
}

func (s *backupStub) CreateBackup(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error) {
	return s.createFn(ctx, dataType, sourcePath)
}

func (s *backupStub) VerifyBackup(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error) {
	return s.verifyFn(ctx, id)
}

func (s *backupStub) TestRestoration(ctx context.Context, id uuid.UUID, targetPath string) error {
	return s.restoreFn(ctx, id, targetPath)
}

func (s *backupStub) ListBackups(ctx context.Context) ([]*backupDomain.BackupMetadata, error) {
	return s.listFn(ctx)
}

func (s *backupStub) ScheduleBackups(resolver backupUseCase.SourceResolver) {}

func (s *backupStub) Cleanup() {}
