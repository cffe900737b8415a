package repository

import (
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"
	"gocloud.dev/secrets/localsecrets"

	apperrors "github.com/allisson/compliance-vault/internal/errors"
	keysDomain "github.com/allisson/compliance-vault/internal/keys/domain"
)

func newTestKeeper(t *testing.T) *secrets.Keeper {
	t.Helper()
	var secretKey [32]byte
	_, err := rand.Read(secretKey[:])
	require.NoError(t, err)
	keeper := localsecrets.NewKeeper(secretKey)
	t.Cleanup(func() { keeper.Close() })
	return keeper
}

func testKey(t *testing.T) *keysDomain.EncryptionKey {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)

	material := make([]byte, keysDomain.KeySize)
	_, err = rand.Read(material)
	require.NoError(t, err)
	iv := make([]byte, keysDomain.IVSize)
	_, err = rand.Read(iv)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	return &keysDomain.EncryptionKey{
		ID:        id,
		Purpose:   keysDomain.PurposePatientRecords,
		Algorithm: keysDomain.AESGCM,
		Material:  material,
		IV:        iv,
		Status:    keysDomain.KeyStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(90 * 24 * time.Hour),
		Metadata:  keysDomain.KeyMetadata{ContentHash: "abc123"},
	}
}

func TestFileKeyStore_SaveLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip preserves every field", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)

		key := testKey(t)
		require.NoError(t, store.Save(ctx, key))

		loaded, err := store.Load(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, key, loaded)
	})

	t.Run("key files are owner-only", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileKeyStore(dir, nil)
		require.NoError(t, err)

		key := testKey(t)
		require.NoError(t, store.Save(ctx, key))

		info, err := os.Stat(filepath.Join(dir, "key-"+key.ID.String()+".json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("save replaces the previous state", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)

		key := testKey(t)
		require.NoError(t, store.Save(ctx, key))

		key.Status = keysDomain.KeyStatusRotating
		require.NoError(t, store.Save(ctx, key))

		loaded, err := store.Load(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, keysDomain.KeyStatusRotating, loaded.Status)
	})

	t.Run("load of unknown id", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)

		_, err = store.Load(ctx, uuid.New())
		assert.ErrorIs(t, err, keysDomain.ErrKeyNotFound)
	})
}

func TestFileKeyStore_LoadAll(t *testing.T) {
	ctx := context.Background()

	t.Run("returns every persisted key and skips foreign files", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileKeyStore(dir, nil)
		require.NoError(t, err)

		k1 := testKey(t)
		k2 := testKey(t)
		require.NoError(t, store.Save(ctx, k1))
		require.NoError(t, store.Save(ctx, k2))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

		keys, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Len(t, keys, 2)
	})

	t.Run("empty directory yields no keys", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)

		keys, err := store.LoadAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("corrupt key file is an error", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileKeyStore(dir, nil)
		require.NoError(t, err)

		require.NoError(t, os.WriteFile(filepath.Join(dir, "key-broken.json"), []byte("{"), 0o600))
		_, err = store.LoadAll(ctx)
		assert.Error(t, err)
	})
}

func TestFileKeyStore_Backup(t *testing.T) {
	ctx := context.Background()

	t.Run("backup round trip through the keeper", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileKeyStore(dir, newTestKeeper(t))
		require.NoError(t, err)

		key := testKey(t)
		location, err := store.WriteBackup(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "backup", "key-"+key.ID.String()+".json.backup"), location)

		restored, err := store.ReadBackup(ctx, key.ID)
		require.NoError(t, err)
		assert.Equal(t, key, restored)
	})

	t.Run("sealed backup does not contain plaintext material", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), newTestKeeper(t))
		require.NoError(t, err)

		key := testKey(t)
		location, err := store.WriteBackup(ctx, key)
		require.NoError(t, err)

		sealed, err := os.ReadFile(location)
		require.NoError(t, err)
		assert.NotContains(t, string(sealed), key.Metadata.ContentHash)
	})

	t.Run("nil keeper fails with a configuration error", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)

		_, err = store.WriteBackup(ctx, testKey(t))
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)

		_, err = store.ReadBackup(ctx, uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})

	t.Run("missing backup", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), newTestKeeper(t))
		require.NoError(t, err)

		_, err = store.ReadBackup(ctx, uuid.New())
		assert.ErrorIs(t, err, keysDomain.ErrKeyNotFound)
	})
}

func TestFileKeyStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes the key file", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)

		key := testKey(t)
		require.NoError(t, store.Save(ctx, key))
		require.NoError(t, store.Delete(ctx, key.ID))

		_, err = store.Load(ctx, key.ID)
		assert.ErrorIs(t, err, keysDomain.ErrKeyNotFound)
	})

	t.Run("deleting an absent key is not an error", func(t *testing.T) {
		store, err := NewFileKeyStore(t.TempDir(), nil)
		require.NoError(t, err)
		assert.NoError(t, store.Delete(ctx, uuid.New()))
	})
}
