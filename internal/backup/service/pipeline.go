// Package service implements the backup pipeline stages: streaming gzip
// compression, AES-256-CTR file encryption, and SHA-256 hashing. Every
// stage works on files, never whole buffers, so artifact size is bounded
// only by disk.
package service

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"

	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
	keysService "github.com/allisson/compliance-vault/internal/keys/service"
)

// Artifact header layout: magic, nonce length, sealed-key length, nonce,
// sealed file key, CTR IV. The file key and IV are generated fresh per
// artifact, so two artifacts under the same purpose key never share a
// keystream.
var artifactMagic = []byte("CVA1")

// wrapKeyInfo separates the key-wrapping subkey from any other use of the
// same purpose key's material.
const wrapKeyInfo = "backup-artifact-key-wrap"

// CompressFile gzips src into dst.
func CompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		gz.Close()
		return fmt.Errorf("failed to compress %s: %w", src, err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish compression of %s: %w", src, err)
	}
	return out.Sync()
}

// DecompressFile gunzips src into dst.
func DecompressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open artifact %s: %w", src, err)
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return fmt.Errorf("failed to read gzip header of %s: %w", src, err)
	}
	defer gz.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, gz); err != nil {
		return fmt.Errorf("failed to decompress %s: %w", src, err)
	}
	return out.Sync()
}

// EncryptFile encrypts src into dst. The body is AES-256-CTR under a
// random per-artifact file key and IV; the file key is sealed into the
// artifact header by the purpose key's AEAD (selected by key.Algorithm),
// keyed through an HKDF subkey so the raw material never keys a cipher
// directly. Tamper detection on the body comes from the recorded content
// hash, not the cipher; the header is authenticated by the AEAD tag.
func EncryptFile(src, dst string, key *keysDomain.EncryptionKey) error {
	aead, err := wrappingCipher(key)
	if err != nil {
		return err
	}

	fileKey := make([]byte, keysDomain.KeySize)
	if _, err := rand.Read(fileKey); err != nil {
		return fmt.Errorf("failed to generate file key: %w", err)
	}
	defer keysDomain.Zero(fileKey)

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return fmt.Errorf("failed to generate iv: %w", err)
	}

	sealed, nonce, err := aead.Encrypt(fileKey, artifactMagic)
	if err != nil {
		return fmt.Errorf("failed to seal file key: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	header := make([]byte, 0, len(artifactMagic)+2+len(nonce)+len(sealed)+len(iv))
	header = append(header, artifactMagic...)
	header = append(header, byte(len(nonce)), byte(len(sealed)))
	header = append(header, nonce...)
	header = append(header, sealed...)
	header = append(header, iv...)
	if _, err := out.Write(header); err != nil {
		return fmt.Errorf("failed to write artifact header: %w", err)
	}

	block, err := aes.NewCipher(fileKey)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	writer := &cipher.StreamWriter{S: cipher.NewCTR(block, iv), W: out}
	if _, err := io.Copy(writer, in); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", src, err)
	}
	return out.Sync()
}

// DecryptFile reverses EncryptFile: it unseals the per-artifact file key
// from the header, then streams the CTR body into dst. A wrong key or a
// tampered header fails the AEAD open before any plaintext is produced.
func DecryptFile(src, dst string, key *keysDomain.EncryptionKey) error {
	aead, err := wrappingCipher(key)
	if err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	fixed := make([]byte, len(artifactMagic)+2)
	if _, err := io.ReadFull(in, fixed); err != nil {
		return fmt.Errorf("failed to read artifact header: %w", err)
	}
	if !bytes.Equal(fixed[:len(artifactMagic)], artifactMagic) {
		return fmt.Errorf("%s is not an encrypted artifact", src)
	}
	nonce := make([]byte, fixed[len(artifactMagic)])
	sealed := make([]byte, fixed[len(artifactMagic)+1])
	iv := make([]byte, aes.BlockSize)
	for _, field := range [][]byte{nonce, sealed, iv} {
		if _, err := io.ReadFull(in, field); err != nil {
			return fmt.Errorf("failed to read artifact header: %w", err)
		}
	}

	fileKey, err := aead.Decrypt(sealed, nonce, artifactMagic)
	if err != nil {
		return fmt.Errorf("failed to unseal file key: %w", err)
	}
	defer keysDomain.Zero(fileKey)

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	block, err := aes.NewCipher(fileKey)
	if err != nil {
		return fmt.Errorf("failed to create cipher: %w", err)
	}
	reader := &cipher.StreamReader{S: cipher.NewCTR(block, iv), R: in}
	if _, err := io.Copy(out, reader); err != nil {
		return fmt.Errorf("failed to decrypt %s: %w", src, err)
	}
	return out.Sync()
}

// wrappingCipher derives the key-wrapping subkey from the purpose key's
// material and returns the AEAD its algorithm names.
func wrappingCipher(key *keysDomain.EncryptionKey) (keysService.AEAD, error) {
	if len(key.Material) != keysDomain.KeySize {
		return nil, keysDomain.ErrInvalidKeySize
	}

	wrapKey := make([]byte, keysDomain.KeySize)
	kdf := hkdf.New(sha256.New, key.Material, nil, []byte(wrapKeyInfo))
	if _, err := io.ReadFull(kdf, wrapKey); err != nil {
		return nil, fmt.Errorf("failed to derive wrapping key: %w", err)
	}
	defer keysDomain.Zero(wrapKey)

	return keysService.NewAEADManager().CreateCipher(wrapKey, key.Algorithm)
}

// HashFile returns the hex SHA-256 digest and size of a file.
func HashFile(path string) (string, int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	hash := sha256.New()
	size, err := io.Copy(hash, in)
	if err != nil {
		return "", 0, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}
