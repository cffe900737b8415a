// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/compliance-vault/internal/errors"
)

var (
	// hexDigestRegex matches a lowercase hex-encoded SHA-256 digest.
	hexDigestRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// HexDigest validates that a value is a hex-encoded SHA-256 digest.
type HexDigest struct{}

// Validate checks the value is a 64-character lowercase hex string.
func (h HexDigest) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_hex_digest", "digest must be a string")
	}
	if !hexDigestRegex.MatchString(s) {
		return validation.NewError("validation_hex_digest", "digest must be a 64-character hex string")
	}
	return nil
}
