// Package domain defines the backup pipeline domain models.
//
// A backup artifact is produced by compressing then encrypting a source
// file. Verification re-checks the persisted artifact end to end: content
// hash, size, decryptability, and plausibility of the decompressed size.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus tracks whether an artifact has been proven restorable.
type VerificationStatus string

const (
	// VerificationPending marks an artifact not yet verified.
	VerificationPending VerificationStatus = "pending"

	// VerificationSuccess marks an artifact that passed every check.
	VerificationSuccess VerificationStatus = "success"

	// VerificationFailure marks an artifact that failed at least one check.
	VerificationFailure VerificationStatus = "failure"
)

// BackupConfig describes how one data type is backed up.
type BackupConfig struct {
	DataType             string
	Compress             bool
	Encrypt              bool
	VerificationRequired bool
	Frequency            time.Duration
}

// DefaultBackupConfigs returns the backup policies applied when no explicit
// configuration is supplied. Everything is compressed, encrypted, and
// verified; only the cadence differs.
func DefaultBackupConfigs() map[string]BackupConfig {
	return map[string]BackupConfig{
		"patient_records": {
			DataType:             "patient_records",
			Compress:             true,
			Encrypt:              true,
			VerificationRequired: true,
			Frequency:            24 * time.Hour,
		},
		"audit_ledger": {
			DataType:             "audit_ledger",
			Compress:             true,
			Encrypt:              true,
			VerificationRequired: true,
			Frequency:            24 * time.Hour,
		},
		"configuration": {
			DataType:             "configuration",
			Compress:             true,
			Encrypt:              true,
			VerificationRequired: true,
			Frequency:            7 * 24 * time.Hour,
		},
	}
}

// BackupMetadata records one produced artifact. It is persisted next to the
// artifact so verification needs nothing but the backup root.
type BackupMetadata struct {
	ID                uuid.UUID          `json:"id"`
	DataType          string             `json:"data_type"`
	SourcePath        string             `json:"source_path"`
	ArtifactPath      string             `json:"artifact_path"`
	Compressed        bool               `json:"compressed"`
	Encrypted         bool               `json:"encrypted"`
	KeyID             uuid.UUID          `json:"key_id,omitempty"`
	OriginalSize      int64              `json:"original_size"`
	CompressedSize    int64              `json:"compressed_size"`
	CompressionRatio  float64            `json:"compression_ratio,omitempty"`
	ArtifactSize      int64              `json:"artifact_size"`
	ContentHash       string             `json:"content_hash"`
	CreatedAt         time.Time          `json:"created_at"`
	Verification      VerificationStatus `json:"verification"`
	VerifiedAt        *time.Time         `json:"verified_at,omitempty"`
	RestorationTested bool               `json:"restoration_tested"`
	RestorationAt     *time.Time         `json:"restoration_at,omitempty"`
}

// VerificationResult carries the outcome of each individual check.
type VerificationResult struct {
	HashValid       bool `json:"hash_valid"`
	SizeValid       bool `json:"size_valid"`
	DecryptValid    bool `json:"decrypt_valid"`
	DecompressValid bool `json:"decompress_valid"`
}

// Valid reports whether every check passed.
func (r VerificationResult) Valid() bool {
	return r.HashValid && r.SizeValid && r.DecryptValid && r.DecompressValid
}
