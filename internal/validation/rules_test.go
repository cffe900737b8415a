package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/compliance-vault/internal/errors"
)

func TestWrapValidationError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("non-nil error wraps as invalid input", func(t *testing.T) {
		err := WrapValidationError(apperrors.New("category: cannot be blank"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), "category: cannot be blank")
	})
}

func TestHexDigest(t *testing.T) {
	rule := HexDigest{}

	t.Run("valid digest", func(t *testing.T) {
		assert.NoError(t, rule.Validate(strings.Repeat("ab", 32)))
	})

	t.Run("wrong length", func(t *testing.T) {
		assert.Error(t, rule.Validate("abcd"))
	})

	t.Run("uppercase rejected", func(t *testing.T) {
		assert.Error(t, rule.Validate(strings.Repeat("AB", 32)))
	})

	t.Run("non-string rejected", func(t *testing.T) {
		assert.Error(t, rule.Validate(42))
	})
}
