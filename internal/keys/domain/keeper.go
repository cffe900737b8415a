package domain

import "context"

// Keeper wraps key material for storage outside the process. It is the
// subset of gocloud.dev/secrets.Keeper the key store needs, kept as an
// interface so tests can substitute a local implementation.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}
