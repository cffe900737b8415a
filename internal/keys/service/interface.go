// Package service provides the cryptographic building blocks for the key
// lifecycle: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), key material
// generation, and the KMS keeper used to wrap key backups.
package service

import (
	"context"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg keysDomain.Algorithm) (AEAD, error)
}

// KeyGenerator produces new encryption keys for a purpose.
type KeyGenerator interface {
	// Generate creates a fresh key for the purpose using its rotation config.
	Generate(purpose keysDomain.Purpose, cfg keysDomain.RotationConfig) (*keysDomain.EncryptionKey, error)
}

// KMSService opens keepers for wrapping key backups.
type KMSService interface {
	// OpenKeeper opens a keeper for the configured KMS provider.
	// Returns an error if the provider URI is invalid or connection fails.
	OpenKeeper(ctx context.Context, keyURI string) (keysDomain.Keeper, error)
}
