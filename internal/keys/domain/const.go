package domain

// Algorithm represents the cryptographic algorithm used for encryption.
//
// Both supported algorithms provide Authenticated Encryption with Associated
// Data (AEAD) with 256-bit keys. AESGCM is preferred on CPUs with AES-NI;
// ChaCha20 performs better in pure software.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

const (
	// KeySize is the required key material length in bytes (256 bits).
	KeySize = 32

	// IVSize is the length of the initialization vector generated alongside
	// the key material.
	IVSize = 16
)
