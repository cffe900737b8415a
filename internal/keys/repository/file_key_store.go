// Package repository persists encryption keys on the local filesystem.
//
// Each key lives in its own key-<id>.json file under the keys directory,
// written atomically with a temp file and rename so a crash never leaves a
// half-written key. Backups are wrapped by the configured KMS keeper and
// stored under backup/ so key material never leaves the host in plaintext.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/compliance-vault/internal/errors"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
)

const backupDirName = "backup"

// keyRecord is the on-disk form of an EncryptionKey. Material and IV are
// base64-encoded by encoding/json.
type keyRecord struct {
	ID        uuid.UUID              `json:"id"`
	Purpose   keysDomain.Purpose     `json:"purpose"`
	Algorithm keysDomain.Algorithm   `json:"algorithm"`
	Material  []byte                 `json:"material"`
	IV        []byte                 `json:"iv"`
	Status    keysDomain.KeyStatus   `json:"status"`
	BackedUp  bool                   `json:"backed_up"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
	RotatedAt *time.Time             `json:"rotated_at,omitempty"`
	Metadata  keysDomain.KeyMetadata `json:"metadata"`
}

func toRecord(key *keysDomain.EncryptionKey) keyRecord {
	return keyRecord{
		ID:        key.ID,
		Purpose:   key.Purpose,
		Algorithm: key.Algorithm,
		Material:  key.Material,
		IV:        key.IV,
		Status:    key.Status,
		BackedUp:  key.BackedUp,
		CreatedAt: key.CreatedAt,
		ExpiresAt: key.ExpiresAt,
		RotatedAt: key.RotatedAt,
		Metadata:  key.Metadata,
	}
}

func (r keyRecord) toKey() *keysDomain.EncryptionKey {
	return &keysDomain.EncryptionKey{
		ID:        r.ID,
		Purpose:   r.Purpose,
		Algorithm: r.Algorithm,
		Material:  r.Material,
		IV:        r.IV,
		Status:    r.Status,
		BackedUp:  r.BackedUp,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		RotatedAt: r.RotatedAt,
		Metadata:  r.Metadata,
	}
}

// FileKeyStore stores keys as individual JSON files.
type FileKeyStore struct {
	dir    string
	keeper keysDomain.Keeper
}

// NewFileKeyStore creates the keys directory (and its backup subdirectory)
// if needed. The keeper may be nil; backups then fail with ErrConfiguration.
func NewFileKeyStore(dir string, keeper keysDomain.Keeper) (*FileKeyStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, backupDirName), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keys directory: %w", err)
	}
	return &FileKeyStore{dir: dir, keeper: keeper}, nil
}

func (s *FileKeyStore) keyPath(id uuid.UUID) string {
	return filepath.Join(s.dir, fmt.Sprintf("key-%s.json", id))
}

func (s *FileKeyStore) backupPath(id uuid.UUID) string {
	return filepath.Join(s.dir, backupDirName, fmt.Sprintf("key-%s.json.backup", id))
}

// Save persists the key atomically. An existing file for the same id is
// replaced, so state transitions are a single rename.
func (s *FileKeyStore) Save(_ context.Context, key *keysDomain.EncryptionKey) error {
	data, err := json.Marshal(toRecord(key))
	if err != nil {
		return fmt.Errorf("failed to encode key %s: %w", key.ID, err)
	}

	tmp, err := os.CreateTemp(s.dir, "key-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp key file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write key %s: %w", key.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync key %s: %w", key.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close key %s: %w", key.ID, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("failed to chmod key %s: %w", key.ID, err)
	}
	if err := os.Rename(tmpName, s.keyPath(key.ID)); err != nil {
		return fmt.Errorf("failed to install key %s: %w", key.ID, err)
	}
	return nil
}

// Load reads one key by id.
func (s *FileKeyStore) Load(_ context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error) {
	data, err := os.ReadFile(s.keyPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, keysDomain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key %s: %w", id, err)
	}

	var record keyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode key %s: %w", id, err)
	}
	return record.toKey(), nil
}

// LoadAll reads every persisted key. Files that are not key files are
// skipped; an undecodable key file is an error because silently dropping a
// key could hide an active one.
func (s *FileKeyStore) LoadAll(_ context.Context) ([]*keysDomain.EncryptionKey, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read keys directory: %w", err)
	}

	var keys []*keysDomain.EncryptionKey
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "key-") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read key file %s: %w", name, err)
		}
		var record keyRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to decode key file %s: %w", name, err)
		}
		keys = append(keys, record.toKey())
	}
	return keys, nil
}

// Delete removes the key file. Deleting an absent key is not an error.
func (s *FileKeyStore) Delete(_ context.Context, id uuid.UUID) error {
	if err := os.Remove(s.keyPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete key %s: %w", id, err)
	}
	return nil
}

// WriteBackup wraps the key with the KMS keeper and writes the sealed copy
// under backup/. Returns the backup file path for the key metadata.
func (s *FileKeyStore) WriteBackup(ctx context.Context, key *keysDomain.EncryptionKey) (string, error) {
	if s.keeper == nil {
		return "", apperrors.Wrap(apperrors.ErrConfiguration, "no kms keeper configured for key backups")
	}

	data, err := json.Marshal(toRecord(key))
	if err != nil {
		return "", fmt.Errorf("failed to encode key %s: %w", key.ID, err)
	}

	sealed, err := s.keeper.Encrypt(ctx, data)
	if err != nil {
		return "", fmt.Errorf("failed to wrap key %s: %w", key.ID, err)
	}

	path := s.backupPath(key.ID)
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return "", fmt.Errorf("failed to write key backup %s: %w", key.ID, err)
	}
	return path, nil
}

// ReadBackup unwraps and decodes a sealed key backup.
func (s *FileKeyStore) ReadBackup(ctx context.Context, id uuid.UUID) (*keysDomain.EncryptionKey, error) {
	if s.keeper == nil {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "no kms keeper configured for key backups")
	}

	sealed, err := os.ReadFile(s.backupPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, keysDomain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read key backup %s: %w", id, err)
	}

	data, err := s.keeper.Decrypt(ctx, sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap key backup %s: %w", id, err)
	}

	var record keyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode key backup %s: %w", id, err)
	}
	return record.toKey(), nil
}
