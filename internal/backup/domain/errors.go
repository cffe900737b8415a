package domain

import (
	"github.com/allisson/compliance-vault/internal/errors"
)

// Backup pipeline error definitions.
var (
	// ErrUnknownDataType indicates no backup config exists for the data type.
	ErrUnknownDataType = errors.Wrap(errors.ErrConfiguration, "unknown backup data type")

	// ErrBackupNotFound indicates no backup exists with the requested id.
	ErrBackupNotFound = errors.Wrap(errors.ErrNotFound, "backup not found")

	// ErrVerificationFailed indicates the persisted artifact failed an
	// integrity check and must not be trusted for restoration.
	ErrVerificationFailed = errors.Wrap(errors.ErrIntegrity, "backup verification failed")

	// ErrRestorationMismatch indicates a restored file did not match the
	// original size recorded at backup time.
	ErrRestorationMismatch = errors.Wrap(errors.ErrIntegrity, "restoration self-test mismatch")
)
