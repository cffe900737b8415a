// Package domain defines the key lifecycle domain models.
//
// Keys are purpose-scoped: at most one ACTIVE key exists per purpose at any
// time, and rotation moves the predecessor through ROTATING into EXPIRED
// while the replacement becomes ACTIVE. Key material lives only in memory
// and in the encrypted backup written by the key store; it is zeroed as soon
// as a key leaves service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// KeyStatus tracks a key through its lifecycle.
type KeyStatus string

const (
	// KeyStatusActive marks the single key per purpose used for new operations.
	KeyStatusActive KeyStatus = "active"

	// KeyStatusRotating marks a predecessor still decrypting old data while
	// its replacement is active.
	KeyStatusRotating KeyStatus = "rotating"

	// KeyStatusExpired marks a key past its grace period. It is kept for
	// decryption of historical data only.
	KeyStatusExpired KeyStatus = "expired"

	// KeyStatusCompromised marks a key withdrawn from all use after a
	// suspected exposure.
	KeyStatusCompromised KeyStatus = "compromised"

	// KeyStatusDeleted marks a key whose material has been destroyed.
	KeyStatusDeleted KeyStatus = "deleted"
)

// Purpose scopes a key to one class of data.
type Purpose string

const (
	// PurposePatientRecords covers clinical record encryption.
	PurposePatientRecords Purpose = "patient_records"

	// PurposeAuditLedger covers audit segment archival encryption.
	PurposeAuditLedger Purpose = "audit_ledger"

	// PurposeBackups covers backup artifact encryption.
	PurposeBackups Purpose = "backups"
)

// KeyMetadata carries operational bookkeeping persisted alongside a key.
type KeyMetadata struct {
	ContentHash    string     `json:"content_hash"`
	BackupLocation string     `json:"backup_location,omitempty"`
	LastVerified   *time.Time `json:"last_verified,omitempty"`
	UsageCount     uint64     `json:"usage_count"`
}

// EncryptionKey is a managed key with its lifecycle state. Material and IV
// are never serialized in plaintext outside the key store.
type EncryptionKey struct {
	ID        uuid.UUID   `json:"id"`
	Purpose   Purpose     `json:"purpose"`
	Algorithm Algorithm   `json:"algorithm"`
	Material  []byte      `json:"-"`
	IV        []byte      `json:"-"`
	Status    KeyStatus   `json:"status"`
	BackedUp  bool        `json:"backed_up"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	RotatedAt *time.Time  `json:"rotated_at,omitempty"`
	Metadata  KeyMetadata `json:"metadata"`
}

// Usable reports whether the key may serve cryptographic operations.
// Compromised and deleted keys are never usable.
func (k *EncryptionKey) Usable() bool {
	switch k.Status {
	case KeyStatusActive, KeyStatusRotating, KeyStatusExpired:
		return true
	default:
		return false
	}
}

// RemainingTTL returns the time until expiry relative to now. A negative
// value means the key is overdue for rotation.
func (k *EncryptionKey) RemainingTTL(now time.Time) time.Duration {
	return k.ExpiresAt.Sub(now)
}

// RotationConfig describes the rotation policy for one purpose.
type RotationConfig struct {
	Purpose             Purpose
	RotationPeriod      time.Duration
	Algorithm           Algorithm
	KeySize             int
	RequireBackup       bool
	VerifyAfterRotation bool
	GracePeriod         time.Duration
}

// DefaultRotationConfigs returns the rotation policies applied when no
// explicit configuration is supplied. Patient record keys rotate on the
// ninety day compliance cadence; infrastructure keys rotate yearly.
func DefaultRotationConfigs() map[Purpose]RotationConfig {
	return map[Purpose]RotationConfig{
		PurposePatientRecords: {
			Purpose:             PurposePatientRecords,
			RotationPeriod:      90 * 24 * time.Hour,
			Algorithm:           AESGCM,
			KeySize:             KeySize,
			RequireBackup:       true,
			VerifyAfterRotation: true,
			GracePeriod:         7 * 24 * time.Hour,
		},
		PurposeAuditLedger: {
			Purpose:             PurposeAuditLedger,
			RotationPeriod:      365 * 24 * time.Hour,
			Algorithm:           AESGCM,
			KeySize:             KeySize,
			RequireBackup:       true,
			VerifyAfterRotation: true,
			GracePeriod:         30 * 24 * time.Hour,
		},
		PurposeBackups: {
			Purpose:             PurposeBackups,
			RotationPeriod:      180 * 24 * time.Hour,
			Algorithm:           AESGCM,
			KeySize:             KeySize,
			RequireBackup:       true,
			VerifyAfterRotation: true,
			GracePeriod:         30 * 24 * time.Hour,
		},
	}
}
