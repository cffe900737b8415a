package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/compliance-vault/internal/alerting"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	keysService "github.com/allisson/compliance-vault/internal/keys/service"
	"github.com/allisson/compliance-vault/internal/scheduler"
)

// Alert kinds raised by the key lifecycle.
const (
	AlertKeyRotated      = "key_rotated"
	AlertRotationFailure = "key_rotation_failure"
	AlertKeyCompromised  = "key_compromised"
	AlertBackupMismatch  = "key_backup_mismatch"
)

// LifecycleUseCase manages one active key per purpose with scheduled
// rotation. A new key is always persisted (and backed up when the policy
// requires it) before it is installed, so a crash mid-rotation leaves at
// worst two persisted actives which Initialize repairs by keeping the
// newest.
type LifecycleUseCase struct {
	store     KeyStore
	generator keysService.KeyGenerator
	configs   map[keysDomain.Purpose]keysDomain.RotationConfig
	sched     scheduler.Scheduler
	alerts    alerting.Sink
	logger    *slog.Logger
	now       func() time.Time

	mu     sync.Mutex
	active map[keysDomain.Purpose]*keysDomain.EncryptionKey
	timers map[keysDomain.Purpose]scheduler.Handle
}

// NewLifecycleUseCase creates the lifecycle. Initialize must be called
// before keys are served.
func NewLifecycleUseCase(
	store KeyStore,
	generator keysService.KeyGenerator,
	configs map[keysDomain.Purpose]keysDomain.RotationConfig,
	sched scheduler.Scheduler,
	alerts alerting.Sink,
	logger *slog.Logger,
) *LifecycleUseCase {
	if len(configs) == 0 {
		configs = keysDomain.DefaultRotationConfigs()
	}
	return &LifecycleUseCase{
		store:     store,
		generator: generator,
		configs:   configs,
		sched:     sched,
		alerts:    alerts,
		logger:    logger,
		now:       time.Now,
		active:    make(map[keysDomain.Purpose]*keysDomain.EncryptionKey),
		timers:    make(map[keysDomain.Purpose]scheduler.Handle),
	}
}

// Initialize loads all persisted keys and restores the one-active-per-purpose
// invariant. When a crash left several actives for a purpose, the newest
// CreatedAt wins and the others are demoted to rotating, since data may
// already have been encrypted under the newer key. Purposes with no active
// key get a fresh one. Rotation is scheduled at each key's remaining TTL.
func (u *LifecycleUseCase) Initialize(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	keys, err := u.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load keys: %w", err)
	}

	now := u.now().UTC()
	actives := make(map[keysDomain.Purpose][]*keysDomain.EncryptionKey)
	for _, key := range keys {
		if key.Status == keysDomain.KeyStatusActive {
			actives[key.Purpose] = append(actives[key.Purpose], key)
			continue
		}
		// Rotating keys past their grace period move to expired.
		if key.Status == keysDomain.KeyStatusRotating && key.RotatedAt != nil {
			cfg, ok := u.configs[key.Purpose]
			if ok && now.Sub(*key.RotatedAt) > cfg.GracePeriod {
				key.Status = keysDomain.KeyStatusExpired
				if err := u.store.Save(ctx, key); err != nil {
					return fmt.Errorf("failed to expire key %s: %w", key.ID, err)
				}
			}
		}
	}

	for purpose, candidates := range actives {
		winner := candidates[0]
		for _, key := range candidates[1:] {
			if key.CreatedAt.After(winner.CreatedAt) {
				winner = key
			}
		}
		for _, key := range candidates {
			if key.ID == winner.ID {
				continue
			}
			key.Status = keysDomain.KeyStatusRotating
			rotatedAt := now
			key.RotatedAt = &rotatedAt
			if err := u.store.Save(ctx, key); err != nil {
				return fmt.Errorf("failed to demote key %s: %w", key.ID, err)
			}
			u.logger.Warn("demoted duplicate active key",
				slog.String("key_id", key.ID.String()),
				slog.String("purpose", string(purpose)),
			)
		}
		u.active[purpose] = winner
	}

	for purpose, cfg := range u.configs {
		key, ok := u.active[purpose]
		if !ok {
			key, err = u.installNewKey(ctx, purpose, cfg)
			if err != nil {
				return fmt.Errorf("failed to provision key for %s: %w", purpose, err)
			}
		}
		u.scheduleRotation(purpose, key.RemainingTTL(u.now().UTC()))
	}

	return nil
}

// GetActiveKey returns the active key for the purpose.
func (u *LifecycleUseCase) GetActiveKey(_ context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	key, ok := u.active[purpose]
	if !ok {
		return nil, keysDomain.ErrNoActiveKey
	}
	return key, nil
}

// GetKey returns any persisted key by id.
func (u *LifecycleUseCase) GetKey(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error) {
	return u.store.Load(ctx, id)
}

// ListKeys returns every persisted key.
func (u *LifecycleUseCase) ListKeys(ctx context.Context) ([]*keysDomain.EncryptionKey, error) {
	return u.store.LoadAll(ctx)
}

// RotateKey replaces the active key for the purpose. On failure the old key
// stays active and in place; no retry is scheduled, the alert is the signal
// for operator intervention.
func (u *LifecycleUseCase) RotateKey(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rotateLocked(ctx, purpose)
}

// rotateLocked assumes mu is held.
func (u *LifecycleUseCase) rotateLocked(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error) {
	cfg, ok := u.configs[purpose]
	if !ok {
		return nil, keysDomain.ErrRotationConfigMissing
	}

	previous := u.active[purpose]

	replacement, err := u.installNewKey(ctx, purpose, cfg)
	if err != nil {
		u.alerts.Raise(AlertRotationFailure, alerting.SeverityHigh, map[string]any{
			"purpose": string(purpose),
			"error":   err.Error(),
		})
		return nil, err
	}

	if previous != nil {
		previous.Status = keysDomain.KeyStatusRotating
		rotatedAt := u.now().UTC()
		previous.RotatedAt = &rotatedAt
		if err := u.store.Save(ctx, previous); err != nil {
			// The replacement is already persisted and installed; the
			// duplicate-active repair in Initialize covers a crash here.
			u.logger.Error("failed to demote rotated key",
				slog.String("key_id", previous.ID.String()),
				slog.Any("error", err),
			)
		}
	}

	u.scheduleRotation(purpose, cfg.RotationPeriod)

	u.alerts.Raise(AlertKeyRotated, alerting.SeverityLow, map[string]any{
		"purpose": string(purpose),
		"key_id":  replacement.ID.String(),
	})
	u.logger.Info("rotated key",
		slog.String("purpose", string(purpose)),
		slog.String("key_id", replacement.ID.String()),
	)
	return replacement, nil
}

// installNewKey generates, backs up, persists, and installs a fresh active
// key. Assumes mu is held. The persisted order is backup first, then the
// local key file, then the in-memory install.
func (u *LifecycleUseCase) installNewKey(
	ctx context.Context,
	purpose keysDomain.Purpose,
	cfg keysDomain.RotationConfig,
) (*keysDomain.EncryptionKey, error) {
	key, err := u.generator.Generate(purpose, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	if cfg.RequireBackup {
		location, err := u.store.WriteBackup(ctx, key)
		if err != nil {
			keysDomain.ZeroKey(key)
			return nil, fmt.Errorf("failed to back up key: %w", err)
		}
		key.BackedUp = true
		key.Metadata.BackupLocation = location

		if cfg.VerifyAfterRotation {
			if err := u.verifyBackup(ctx, key); err != nil {
				keysDomain.ZeroKey(key)
				return nil, err
			}
		}
	}

	if err := u.store.Save(ctx, key); err != nil {
		keysDomain.ZeroKey(key)
		return nil, fmt.Errorf("failed to persist key: %w", err)
	}

	u.active[purpose] = key
	return key, nil
}

// verifyBackup restores the sealed backup and checks it against the
// original content hash.
func (u *LifecycleUseCase) verifyBackup(ctx context.Context, key *keysDomain.EncryptionKey) error {
	restored, err := u.store.ReadBackup(ctx, key.ID)
	if err != nil {
		return fmt.Errorf("failed to verify key backup: %w", err)
	}
	defer keysDomain.ZeroKey(restored)

	if restored.Metadata.ContentHash != key.Metadata.ContentHash {
		u.alerts.Raise(AlertBackupMismatch, alerting.SeverityCritical, map[string]any{
			"key_id": key.ID.String(),
		})
		return keysDomain.ErrDecryptionFailed
	}

	verifiedAt := u.now().UTC()
	key.Metadata.LastVerified = &verifiedAt
	return nil
}

// MarkCompromised withdraws the key from all use. When the compromised key
// was an active one, a replacement is installed immediately so the purpose
// keeps serving; a failed replacement leaves the purpose without an active
// key, which GetActiveKey surfaces as ErrNoActiveKey.
func (u *LifecycleUseCase) MarkCompromised(ctx context.Context, id uuid.UUID, reason string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	key, err := u.store.Load(ctx, id)
	if err != nil {
		return err
	}

	wasActive := false
	var purpose keysDomain.Purpose
	for p, active := range u.active {
		if active.ID == id {
			wasActive = true
			purpose = p
			break
		}
	}

	key.Status = keysDomain.KeyStatusCompromised
	if err := u.store.Save(ctx, key); err != nil {
		return fmt.Errorf("failed to persist compromised key %s: %w", id, err)
	}

	if wasActive {
		inMemory := u.active[purpose]
		delete(u.active, purpose)
		inMemory.Status = keysDomain.KeyStatusCompromised
		keysDomain.ZeroKey(inMemory)
	}

	u.alerts.Raise(AlertKeyCompromised, alerting.SeverityCritical, map[string]any{
		"key_id":  id.String(),
		"purpose": string(key.Purpose),
		"reason":  reason,
	})
	u.logger.Warn("key marked compromised",
		slog.String("key_id", id.String()),
		slog.String("reason", reason),
	)

	if wasActive {
		if _, err := u.rotateLocked(ctx, purpose); err != nil {
			return fmt.Errorf("failed to replace compromised key: %w", err)
		}
	}
	return nil
}

// Cleanup cancels rotation timers and zeroes in-memory material.
func (u *LifecycleUseCase) Cleanup() {
	u.mu.Lock()
	defer u.mu.Unlock()

	for purpose, handle := range u.timers {
		u.sched.Cancel(handle)
		delete(u.timers, purpose)
	}
	for purpose, key := range u.active {
		keysDomain.ZeroKey(key)
		delete(u.active, purpose)
	}
}

// scheduleRotation arms (or re-arms) the rotation timer for a purpose.
// Assumes mu is held.
func (u *LifecycleUseCase) scheduleRotation(purpose keysDomain.Purpose, d time.Duration) {
	if handle, ok := u.timers[purpose]; ok {
		u.sched.Cancel(handle)
	}
	if d < 0 {
		d = 0
	}
	u.timers[purpose] = u.sched.ScheduleAfter(d, "rotate-"+string(purpose), func() {
		if _, err := u.RotateKey(context.Background(), purpose); err != nil {
			u.logger.Error("scheduled rotation failed",
				slog.String("purpose", string(purpose)),
				slog.Any("error", err),
			)
		}
	})
}
