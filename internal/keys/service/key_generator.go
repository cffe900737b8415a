package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
)

// KeyGeneratorService implements KeyGenerator backed by crypto/rand.
type KeyGeneratorService struct {
	now func() time.Time
}

// NewKeyGenerator creates a new KeyGeneratorService.
func NewKeyGenerator() *KeyGeneratorService {
	return &KeyGeneratorService{now: time.Now}
}

// Generate creates a fresh active key for the purpose. Material and IV come
// from crypto/rand; the content hash is the SHA-256 of the material so a
// restored backup can be checked against the original without exposing it.
func (g *KeyGeneratorService) Generate(
	purpose keysDomain.Purpose,
	cfg keysDomain.RotationConfig,
) (*keysDomain.EncryptionKey, error) {
	switch cfg.Algorithm {
	case keysDomain.AESGCM, keysDomain.ChaCha20:
	default:
		return nil, keysDomain.ErrUnsupportedAlgorithm
	}
	if cfg.KeySize != keysDomain.KeySize {
		return nil, keysDomain.ErrInvalidKeySize
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key id: %w", err)
	}

	material := make([]byte, cfg.KeySize)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate key material: %w", err)
	}

	iv := make([]byte, keysDomain.IVSize)
	if _, err := rand.Read(iv); err != nil {
		keysDomain.Zero(material)
		return nil, fmt.Errorf("failed to generate iv: %w", err)
	}

	digest := sha256.Sum256(material)
	createdAt := g.now().UTC()

	return &keysDomain.EncryptionKey{
		ID:        id,
		Purpose:   purpose,
		Algorithm: cfg.Algorithm,
		Material:  material,
		IV:        iv,
		Status:    keysDomain.KeyStatusActive,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(cfg.RotationPeriod),
		Metadata: keysDomain.KeyMetadata{
			ContentHash: hex.EncodeToString(digest[:]),
		},
	}, nil
}
