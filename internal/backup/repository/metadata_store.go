// Package repository persists backup metadata on the local filesystem.
//
// Artifacts live under <root>/<data-type>/ and each backup's metadata in a
// sibling <id>.json file, so verification needs nothing but the backup root.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	backupDomain "github.com/allisson/compliance-vault/internal/backup/domain"
)

// MetadataStore stores backup metadata as individual JSON files.
type MetadataStore struct {
	root string
}

// NewMetadataStore creates the backup root directory if needed.
func NewMetadataStore(root string) (*MetadataStore, error) {
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create backup root: %w", err)
	}
	return &MetadataStore{root: root}, nil
}

// Root returns the backup root directory.
func (s *MetadataStore) Root() string {
	return s.root
}

// ArtifactDir returns (and creates) the artifact directory for a data type.
func (s *MetadataStore) ArtifactDir(dataType string) (string, error) {
	dir := filepath.Join(s.root, dataType)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return dir, nil
}

func (s *MetadataStore) metadataPath(id uuid.UUID) string {
	return filepath.Join(s.root, id.String()+".json")
}

// Save persists the metadata atomically.
func (s *MetadataStore) Save(_ context.Context, meta *backupDomain.BackupMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode backup %s: %w", meta.ID, err)
	}

	tmp, err := os.CreateTemp(s.root, "meta-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp metadata file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write backup %s: %w", meta.ID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close backup %s: %w", meta.ID, err)
	}
	if err := os.Rename(tmpName, s.metadataPath(meta.ID)); err != nil {
		return fmt.Errorf("failed to install backup %s: %w", meta.ID, err)
	}
	return nil
}

// Load reads one backup's metadata by id.
func (s *MetadataStore) Load(_ context.Context, id uuid.UUID) (*backupDomain.BackupMetadata, error) {
	data, err := os.ReadFile(s.metadataPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backupDomain.ErrBackupNotFound
		}
		return nil, fmt.Errorf("failed to read backup %s: %w", id, err)
	}

	var meta backupDomain.BackupMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode backup %s: %w", id, err)
	}
	return &meta, nil
}

// List returns every backup's metadata, newest first.
func (s *MetadataStore) List(_ context.Context) ([]*backupDomain.BackupMetadata, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup root: %w", err)
	}

	var metas []*backupDomain.BackupMetadata
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.root, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read metadata file %s: %w", name, err)
		}
		var meta backupDomain.BackupMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to decode metadata file %s: %w", name, err)
		}
		metas = append(metas, &meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].CreatedAt.After(metas[j].CreatedAt) })
	return metas, nil
}
