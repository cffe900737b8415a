package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
)

func TestRunCreateBackup(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		meta := &backupDomain.BackupMetadata{
			ID:           uuid.New(),
			DataType:     "patient_records",
			ArtifactPath: "/backups/patient_records/abc.bak",
			OriginalSize: 1000,
			ArtifactSize: 400,
			Verification: backupDomain.VerificationSuccess,
			CreatedAt:    time.Now(),
		}
		useCase := &backupStub{
			createFn: func(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error) {
				require.Equal(t, "patient_records", dataType)
				require.Equal(t, "/data/records.db", sourcePath)
				return meta, nil
			},
		}

		var out bytes.Buffer
		err := RunCreateBackup(ctx, useCase, logger, &out, "patient_records", "/data/records.db")
		require.NoError(t, err)
		require.Contains(t, out.String(), meta.ID.String())
		require.Contains(t, out.String(), meta.ArtifactPath)
		require.Contains(t, out.String(), "1000 bytes")
	})

	t.Run("failure", func(t *testing.T) {
		useCase := &backupStub{
			createFn: func(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error) {
				return nil, backupDomain.ErrUnknownDataType
			},
		}

		var out bytes.Buffer
		err := RunCreateBackup(ctx, useCase, logger, &out, "nonsense", "/data/x")
		require.ErrorIs(t, err, backupDomain.ErrUnknownDataType)
	})
}

func TestRunVerifyBackup(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("passed", func(t *testing.T) {
		useCase := &backupStub{
			verifyFn: func(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error) {
				return &backupDomain.VerificationResult{
					HashValid:       true,
					SizeValid:       true,
					DecryptValid:    true,
					DecompressValid: true,
				}, nil
			},
		}

		var out bytes.Buffer
		err := RunVerifyBackup(ctx, useCase, logger, &out, uuid.New().String())
		require.NoError(t, err)
		require.Contains(t, out.String(), "Status: PASSED")
	})

	t.Run("failed", func(t *testing.T) {
		useCase := &backupStub{
			verifyFn: func(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error) {
				return &backupDomain.VerificationResult{
					HashValid:       false,
					SizeValid:       true,
					DecryptValid:    true,
					DecompressValid: true,
				}, backupDomain.ErrVerificationFailed
			},
		}

		var out bytes.Buffer
		err := RunVerifyBackup(ctx, useCase, logger, &out, uuid.New().String())
		require.ErrorIs(t, err, backupDomain.ErrVerificationFailed)
		require.Contains(t, out.String(), "Hash:       FAILED")
		require.Contains(t, out.String(), "Status: FAILED")
	})

	t.Run("invalid-id", func(t *testing.T) {
		var out bytes.Buffer
		err := RunVerifyBackup(ctx, &backupStub{}, logger, &out, "not-a-uuid")
		require.Error(t, err)
		require.Contains(t, err.Error(), "invalid id")
	})

	t.Run("unknown-backup", func(t *testing.T) {
		useCase := &backupStub{
			verifyFn: func(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error) {
				return nil, backupDomain.ErrBackupNotFound
			},
		}

		var out bytes.Buffer
		err := RunVerifyBackup(ctx, useCase, logger, &out, uuid.New().String())
		require.ErrorIs(t, err, backupDomain.ErrBackupNotFound)
	})
}

func TestRunTestRestore(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		useCase := &backupStub{
			restoreFn: func(ctx context.Context, got uuid.UUID, targetPath string) error {
				require.Equal(t, id, got)
				require.Empty(t, targetPath)
				return nil
			},
		}

		var out bytes.Buffer
		err := RunTestRestore(ctx, useCase, logger, &out, id.String(), "")
		require.NoError(t, err)
		require.Contains(t, out.String(), "Restoration test passed")
	})

	t.Run("target path is forwarded", func(t *testing.T) {
		id := uuid.New()
		useCase := &backupStub{
			restoreFn: func(ctx context.Context, got uuid.UUID, targetPath string) error {
				require.Equal(t, id, got)
				require.Equal(t, "/tmp/restored/records.db", targetPath)
				return nil
			},
		}

		var out bytes.Buffer
		err := RunTestRestore(ctx, useCase, logger, &out, id.String(), "/tmp/restored/records.db")
		require.NoError(t, err)
		require.Contains(t, out.String(), "restored to /tmp/restored/records.db")
	})

	t.Run("mismatch", func(t *testing.T) {
		useCase := &backupStub{
			restoreFn: func(ctx context.Context, id uuid.UUID, targetPath string) error {
				return backupDomain.ErrRestorationMismatch
			},
		}

		var out bytes.Buffer
		err := RunTestRestore(ctx, useCase, logger, &out, uuid.New().String(), "")
		require.ErrorIs(t, err, backupDomain.ErrRestorationMismatch)
	})
}

func TestRunListBackups(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text", func(t *testing.T) {
		meta := &backupDomain.BackupMetadata{
			ID:                uuid.New(),
			DataType:          "audit_ledger",
			Verification:      backupDomain.VerificationSuccess,
			RestorationTested: true,
			ArtifactSize:      512,
			CompressionRatio:  3.5,
			CreatedAt:         time.Now(),
		}
		useCase := &backupStub{
			listFn: func(ctx context.Context) ([]*backupDomain.BackupMetadata, error) {
				return []*backupDomain.BackupMetadata{meta}, nil
			},
		}

		var out bytes.Buffer
		err := RunListBackups(ctx, useCase, logger, &out, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), meta.ID.String())
		require.Contains(t, out.String(), "512 bytes")
		require.Contains(t, out.String(), "ratio=3.50x")
		require.Contains(t, out.String(), "Total: 1 backup(s)")
	})

	t.Run("empty", func(t *testing.T) {
		useCase := &backupStub{
			listFn: func(ctx context.Context) ([]*backupDomain.BackupMetadata, error) {
				return nil, nil
			},
		}

		var out bytes.Buffer
		err := RunListBackups(ctx, useCase, logger, &out, "text")
		require.NoError(t, err)
		require.Contains(t, out.String(), "No backups found")
	})

	t.Run("list-failure", func(t *testing.T) {
		useCase := &backupStub{
			listFn: func(ctx context.Context) ([]*backupDomain.BackupMetadata, error) {
				return nil, errors.New("boom")
			},
		}

		var out bytes.Buffer
		err := RunListBackups(ctx, useCase, logger, &out, "text")
		require.Error(t, err)
	})
}
