package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/compliance-vault/internal/alerting"
	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
	backupService "github.com/allisson/compliance-vault/internal/backup/service"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	ledgerDomain "github.com/allisson/compliance-vault/internal/ledger/domain"
	"github.com/allisson/compliance-vault/internal/scheduler"
)

// Alert kinds raised by the backup pipeline.
const (
	AlertBackupFailure       = "backup_failure"
	AlertVerificationFailure = "backup_verification_failure"
	AlertRestorationFailure  = "backup_restoration_failure"
)

// BackupUseCase runs the backup pipeline. Intermediate files live under the
// staging directory and are removed when the operation finishes, success or
// not.
type BackupUseCase struct {
	store      MetadataStore
	configs    map[string]backupDomain.BackupConfig
	keys       KeyProvider
	audit      AuditRecorder
	sched      scheduler.Scheduler
	alerts     alerting.Sink
	logger     *slog.Logger
	stagingDir string
	now        func() time.Time

	mu     sync.Mutex
	timers []scheduler.Handle
}

// NewBackupUseCase creates the pipeline. The audit recorder may be nil;
// successful backups are then not written to the ledger.
func NewBackupUseCase(
	store MetadataStore,
	configs map[string]backupDomain.BackupConfig,
	keys KeyProvider,
	audit AuditRecorder,
	sched scheduler.Scheduler,
	alerts alerting.Sink,
	logger *slog.Logger,
	stagingDir string,
) (*BackupUseCase, error) {
	if len(configs) == 0 {
		configs = backupDomain.DefaultBackupConfigs()
	}
	if err := os.MkdirAll(stagingDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &BackupUseCase{
		store:      store,
		configs:    configs,
		keys:       keys,
		audit:      audit,
		sched:      sched,
		alerts:     alerts,
		logger:     logger,
		stagingDir: stagingDir,
		now:        time.Now,
	}, nil
}

// CreateBackup runs compress, encrypt, and hash for one source file and
// persists the artifact with its metadata. With VerificationRequired set,
// the artifact is verified before the backup counts as created.
func (u *BackupUseCase) CreateBackup(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error) {
	meta, err := u.createBackup(ctx, dataType, sourcePath)
	if err != nil {
		u.alerts.Raise(AlertBackupFailure, alerting.SeverityHigh, map[string]any{
			"data_type": dataType,
			"source":    sourcePath,
			"error":     err.Error(),
		})
		return nil, err
	}

	u.recordAuditEvent(ctx, meta, "backup_created")
	u.logger.Info("backup created",
		slog.String("backup_id", meta.ID.String()),
		slog.String("data_type", dataType),
		slog.Int64("original_size", meta.OriginalSize),
		slog.Int64("artifact_size", meta.ArtifactSize),
	)
	return meta, nil
}

func (u *BackupUseCase) createBackup(ctx context.Context, dataType, sourcePath string) (*backupDomain.BackupMetadata, error) {
	cfg, ok := u.configs[dataType]
	if !ok {
		return nil, backupDomain.ErrUnknownDataType
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup id: %w", err)
	}

	sourceInfo, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source %s: %w", sourcePath, err)
	}

	scratch, err := os.MkdirTemp(u.stagingDir, "create-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	createdAt := u.now().UTC()
	meta := &backupDomain.BackupMetadata{
		ID:           id,
		DataType:     dataType,
		SourcePath:   sourcePath,
		Compressed:   cfg.Compress,
		Encrypted:    cfg.Encrypt,
		OriginalSize: sourceInfo.Size(),
		CreatedAt:    createdAt,
		Verification: backupDomain.VerificationPending,
	}

	current := sourcePath
	if cfg.Compress {
		compressed := filepath.Join(scratch, "compressed.gz")
		if err := backupService.CompressFile(current, compressed); err != nil {
			return nil, fmt.Errorf("compress stage: %w", err)
		}
		current = compressed
	}
	currentInfo, err := os.Stat(current)
	if err != nil {
		return nil, fmt.Errorf("failed to stat staged file: %w", err)
	}
	meta.CompressedSize = currentInfo.Size()
	if cfg.Compress && meta.CompressedSize > 0 {
		meta.CompressionRatio = float64(meta.OriginalSize) / float64(meta.CompressedSize)
	}

	if cfg.Encrypt {
		key, err := u.keys.GetActiveKey(ctx, keysDomain.PurposeBackups)
		if err != nil {
			return nil, fmt.Errorf("encrypt stage: %w", err)
		}
		encrypted := filepath.Join(scratch, "encrypted.bin")
		if err := backupService.EncryptFile(current, encrypted, key); err != nil {
			return nil, fmt.Errorf("encrypt stage: %w", err)
		}
		current = encrypted
		meta.KeyID = key.ID
	}

	artifactDir, err := u.store.ArtifactDir(dataType)
	if err != nil {
		return nil, err
	}
	artifactPath := filepath.Join(artifactDir,
		fmt.Sprintf("%s-%d.bak", id, createdAt.UnixMilli()))
	if current == sourcePath {
		// No pipeline stage ran; the source must stay in place.
		err = copyFile(current, artifactPath)
	} else {
		err = moveFile(current, artifactPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to install artifact: %w", err)
	}
	meta.ArtifactPath = artifactPath

	hash, size, err := backupService.HashFile(artifactPath)
	if err != nil {
		return nil, fmt.Errorf("hash stage: %w", err)
	}
	meta.ContentHash = hash
	meta.ArtifactSize = size

	if err := u.store.Save(ctx, meta); err != nil {
		return nil, err
	}

	if cfg.VerificationRequired {
		if _, err := u.VerifyBackup(ctx, meta.ID); err != nil {
			return nil, err
		}
		// Reload to pick up the verification stamp
		return u.store.Load(ctx, meta.ID)
	}
	return meta, nil
}

// VerifyBackup re-checks the persisted artifact: content hash, size,
// decryptability, and that the decompressed result matches the recorded
// original size. The verdict is stamped into the metadata either way.
func (u *BackupUseCase) VerifyBackup(ctx context.Context, id uuid.UUID) (*backupDomain.VerificationResult, error) {
	meta, err := u.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	result, verifyErr := u.verify(ctx, meta)

	verifiedAt := u.now().UTC()
	meta.VerifiedAt = &verifiedAt
	if verifyErr == nil && result.Valid() {
		meta.Verification = backupDomain.VerificationSuccess
	} else {
		meta.Verification = backupDomain.VerificationFailure
	}
	if err := u.store.Save(ctx, meta); err != nil {
		return nil, err
	}

	if verifyErr != nil {
		u.alerts.Raise(AlertVerificationFailure, alerting.SeverityHigh, map[string]any{
			"backup_id": id.String(),
			"data_type": meta.DataType,
			"error":     verifyErr.Error(),
		})
		return nil, verifyErr
	}
	if !result.Valid() {
		u.alerts.Raise(AlertVerificationFailure, alerting.SeverityHigh, map[string]any{
			"backup_id": id.String(),
			"data_type": meta.DataType,
			"result":    result,
		})
		return result, backupDomain.ErrVerificationFailed
	}

	u.recordAuditEvent(ctx, meta, "backup_verified")
	return result, nil
}

func (u *BackupUseCase) verify(ctx context.Context, meta *backupDomain.BackupMetadata) (*backupDomain.VerificationResult, error) {
	result := &backupDomain.VerificationResult{}

	hash, size, err := backupService.HashFile(meta.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash artifact: %w", err)
	}
	result.HashValid = hash == meta.ContentHash
	result.SizeValid = size == meta.ArtifactSize

	scratch, err := os.MkdirTemp(u.stagingDir, "verify-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	current := meta.ArtifactPath
	if meta.Encrypted {
		key, err := u.keys.GetKey(ctx, meta.KeyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load backup key: %w", err)
		}
		decrypted := filepath.Join(scratch, "decrypted.bin")
		if err := backupService.DecryptFile(current, decrypted, key); err != nil {
			return result, nil
		}
		current = decrypted
	}
	result.DecryptValid = true

	if meta.Compressed {
		decompressed := filepath.Join(scratch, "decompressed.bin")
		if err := backupService.DecompressFile(current, decompressed); err != nil {
			return result, nil
		}
		info, err := os.Stat(decompressed)
		if err != nil {
			return nil, fmt.Errorf("failed to stat decompressed file: %w", err)
		}
		result.DecompressValid = info.Size() == meta.OriginalSize
	} else {
		result.DecompressValid = true
	}

	return result, nil
}

// TestRestoration restores the artifact into scratch space and checks the
// restored size against the original. It stamps the restoration flag only;
// the verification verdict is owned by VerifyBackup.
func (u *BackupUseCase) TestRestoration(ctx context.Context, id uuid.UUID, targetPath string) error {
	meta, err := u.store.Load(ctx, id)
	if err != nil {
		return err
	}

	if err := u.restore(ctx, meta, targetPath); err != nil {
		u.alerts.Raise(AlertRestorationFailure, alerting.SeverityHigh, map[string]any{
			"backup_id": id.String(),
			"data_type": meta.DataType,
			"error":     err.Error(),
		})
		return err
	}

	restoredAt := u.now().UTC()
	meta.RestorationTested = true
	meta.RestorationAt = &restoredAt
	if err := u.store.Save(ctx, meta); err != nil {
		return err
	}

	u.recordAuditEvent(ctx, meta, "restoration_tested")
	return nil
}

func (u *BackupUseCase) restore(ctx context.Context, meta *backupDomain.BackupMetadata, targetPath string) error {
	scratch, err := os.MkdirTemp(u.stagingDir, "restore-*")
	if err != nil {
		return fmt.Errorf("failed to create scratch directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	current := meta.ArtifactPath
	if meta.Encrypted {
		key, err := u.keys.GetKey(ctx, meta.KeyID)
		if err != nil {
			return fmt.Errorf("failed to load backup key: %w", err)
		}
		decrypted := filepath.Join(scratch, "decrypted.bin")
		if err := backupService.DecryptFile(current, decrypted, key); err != nil {
			return err
		}
		current = decrypted
	}
	if meta.Compressed {
		decompressed := filepath.Join(scratch, "restored.bin")
		if err := backupService.DecompressFile(current, decompressed); err != nil {
			return err
		}
		current = decompressed
	}

	info, err := os.Stat(current)
	if err != nil {
		return fmt.Errorf("failed to stat restored file: %w", err)
	}
	if info.Size() != meta.OriginalSize {
		return backupDomain.ErrRestorationMismatch
	}

	if targetPath != "" {
		if err := os.MkdirAll(filepath.Dir(targetPath), 0o700); err != nil {
			return fmt.Errorf("failed to create target directory: %w", err)
		}
		// The restored file may still be the artifact itself when the
		// backup was a plain copy, so install by copy, never by rename.
		if err := copyFile(current, targetPath); err != nil {
			return fmt.Errorf("failed to install restored file: %w", err)
		}
	}
	return nil
}

// ListBackups returns every backup's metadata, newest first.
func (u *BackupUseCase) ListBackups(ctx context.Context) ([]*backupDomain.BackupMetadata, error) {
	return u.store.List(ctx)
}

// ScheduleBackups arms one recurring timer per configured data type. A
// failed run alerts and the timer is re-armed regardless, so one bad run
// never stops the cadence.
func (u *BackupUseCase) ScheduleBackups(resolver SourceResolver) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for dataType, cfg := range u.configs {
		u.scheduleRun(dataType, cfg.Frequency, resolver)
	}
}

// scheduleRun assumes mu is held.
func (u *BackupUseCase) scheduleRun(dataType string, frequency time.Duration, resolver SourceResolver) {
	handle := u.sched.ScheduleAfter(frequency, "backup-"+dataType, func() {
		u.runScheduled(dataType, resolver)

		u.mu.Lock()
		u.scheduleRun(dataType, frequency, resolver)
		u.mu.Unlock()
	})
	u.timers = append(u.timers, handle)
}

func (u *BackupUseCase) runScheduled(dataType string, resolver SourceResolver) {
	ctx := context.Background()

	source, err := resolver(dataType)
	if err != nil {
		u.alerts.Raise(AlertBackupFailure, alerting.SeverityHigh, map[string]any{
			"data_type": dataType,
			"error":     err.Error(),
		})
		return
	}

	if _, err := u.CreateBackup(ctx, dataType, source); err != nil {
		u.logger.Error("scheduled backup failed",
			slog.String("data_type", dataType),
			slog.Any("error", err),
		)
	}
}

// Cleanup cancels backup timers and resets the staging directory.
func (u *BackupUseCase) Cleanup() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for _, handle := range u.timers {
		u.sched.Cancel(handle)
	}
	u.timers = nil

	if err := os.RemoveAll(u.stagingDir); err != nil {
		u.logger.Error("failed to clear staging directory", slog.Any("error", err))
		return
	}
	if err := os.MkdirAll(u.stagingDir, 0o700); err != nil {
		u.logger.Error("failed to recreate staging directory", slog.Any("error", err))
	}
}

// recordAuditEvent writes a successful backup operation to the audit ledger.
func (u *BackupUseCase) recordAuditEvent(ctx context.Context, meta *backupDomain.BackupMetadata, actionType string) {
	if u.audit == nil {
		return
	}

	_, err := u.audit.Append(ctx, ledgerDomain.EventInput{
		Category: ledgerDomain.CategorySystemOperation,
		Actor:    ledgerDomain.Actor{ID: "backup-service", Role: "system"},
		Action: ledgerDomain.Action{
			Type:    actionType,
			Outcome: ledgerDomain.OutcomeSuccess,
			Details: map[string]any{
				"data_type":     meta.DataType,
				"artifact_size": meta.ArtifactSize,
			},
		},
		Resource: ledgerDomain.Resource{Type: "backup", ID: meta.ID.String()},
	})
	if err != nil {
		u.logger.Error("failed to record backup in audit ledger",
			slog.String("backup_id", meta.ID.String()),
			slog.Any("error", err),
		)
	}
}

// moveFile renames src to dst, falling back to copy when the rename
// crosses filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
