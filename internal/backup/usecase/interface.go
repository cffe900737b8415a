// Package usecase implements the backup pipeline: artifact creation
// (compress, encrypt, hash), end-to-end verification, restoration
// self-tests, and scheduled runs per data type.
package usecase

import (
	"context"

	"github.com/google/uuid"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
)

// MetadataStore persists backup metadata and lays out artifact directories.
type MetadataStore interface {
	Save(ctx context.Context, meta *backupDomain.BackupMetadata) error
	Load(ctx context.Context, id uuid.UUID) (*backupDomain.BackupMetadata, error)
	List(ctx context.Context) ([]*backupDomain.BackupMetadata, error)
	ArtifactDir(dataType string) (string, error)
}

// KeyProvider supplies encryption keys for artifact protection.
type KeyProvider interface {
	GetActiveKey(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error)
	GetKey(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error)
}

// AuditRecorder appends backup operations to the audit ledger.
type AuditRecorder interface {
	Append(ctx context.Context, input ledgerDomain.EventInput) (uuid.UUID, error)
}

// SourceResolver maps a data type to the file to back up on a scheduled run.
type SourceResolver func(dataType string) (string, error)

// UseCase defines the backup pipeline operations.
type UseCase interface {
	// CreateBackup runs the full pipeline for one source file. When the data
	// type's policy requires verification, a backup that fails it is an error.
	CreateBackup(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error)

	// VerifyBackup re-checks a persisted artifact end to end. It is
	// idempotent and safe to run on a schedule.
	VerifyBackup(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error)

	// TestRestoration restores the artifact and checks the result against
	// the recorded original size. With a non-empty targetPath the restored
	// file is installed there; otherwise it is restored to scratch space
	// and discarded.
	TestRestoration(ctx context.Context, id uuid.UUID, targetPath string) error

	// ListBackups returns every backup's metadata, newest first.
	ListBackups(ctx context.Context) ([]*backupDomain.BackupMetadata, error)

	// ScheduleBackups arms a recurring timer per configured data type.
	ScheduleBackups(resolver SourceResolver)

	// Cleanup cancels backup timers and resets the staging directory.
	Cleanup()
}
