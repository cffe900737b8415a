// Package usecase implements the key lifecycle: initialization and crash
// recovery, scheduled rotation, compromise handling, and encrypted backups.
package usecase

import (
	"context"

	"github.com/google/uuid"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
)

// KeyStore persists keys and their keeper-wrapped backups.
type KeyStore interface {
	Save(ctx context.Context, key *keysDomain.EncryptionKey) error
	Load(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error)
	LoadAll(ctx context.Context) ([]*keysDomain.EncryptionKey, error)
	Delete(ctx context.Context, id uuid.UUID) error
	WriteBackup(ctx context.Context, key *keysDomain.EncryptionKey) (string, error)
	ReadBackup(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error)
}

// UseCase defines the key lifecycle operations.
type UseCase interface {
	// Initialize loads persisted keys, repairs duplicate actives, generates
	// missing keys, and schedules rotation for each purpose.
	Initialize(ctx context.Context) error

	// GetActiveKey returns the single active key for the purpose.
	GetActiveKey(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error)

	// GetKey returns any persisted key by id, regardless of status.
	GetKey(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error)

	// ListKeys returns every persisted key.
	ListKeys(ctx context.Context) ([]*keysDomain.EncryptionKey, error)

	// RotateKey replaces the active key for the purpose. The predecessor
	// moves to rotating and stays available for decryption.
	RotateKey(ctx context.Context, purpose keysDomain.Purpose) (*keysDomain.EncryptionKey, error)

	// MarkCompromised withdraws a key from all use and, when it was active,
	// installs a replacement immediately.
	MarkCompromised(ctx context.Context, id uuid.UUID, reason string) error

	// Cleanup cancels rotation timers and zeroes in-memory key material.
	Cleanup()
}
