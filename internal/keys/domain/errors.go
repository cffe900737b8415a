package domain

import (
	"github.com/allisson/compliance-vault/internal/errors"
)

// Key lifecycle error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// so callers can branch on the sentinel with errors.Is.
var (
	// ErrKeyNotFound indicates no key exists with the requested id.
	ErrKeyNotFound = errors.Wrap(errors.ErrNotFound, "key not found")

	// ErrNoActiveKey indicates a purpose has no active key installed.
	// Encryption for that purpose cannot proceed until one is generated.
	ErrNoActiveKey = errors.Wrap(errors.ErrConfiguration, "no active key for purpose")

	// ErrRotationConfigMissing indicates a purpose has no rotation policy.
	ErrRotationConfigMissing = errors.Wrap(errors.ErrConfiguration, "no rotation config for purpose")

	// ErrUnsupportedAlgorithm indicates the requested encryption algorithm
	// is not supported. Supported: AESGCM (AES-256-GCM), ChaCha20
	// (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates the key material is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrKeyNotUsable indicates the key is compromised or deleted and must
	// not serve cryptographic operations.
	ErrKeyNotUsable = errors.Wrap(errors.ErrConflict, "key not usable")

	// ErrDecryptionFailed indicates a decryption operation failed. The
	// specific cause is not disclosed to prevent information leakage.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
