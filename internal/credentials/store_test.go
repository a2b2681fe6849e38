package credentials

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medigenius/internal/models"
)

func newTestStore(t *testing.T, secret string) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	var sealer *Sealer
	if secret != "" {
		var err error
		sealer, err = NewSealer(secret)
		require.NoError(t, err)
	}
	return NewStore(client, sealer), mr
}

func TestStore_SaveThenGet(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, "")

	assert.Equal(t, models.CredentialSet{}, store.Get(ctx, "dr@clinic.in"))

	want := models.CredentialSet{PrimaryKey: " AIza-1 ", StockPhotoKey: "unsplash"}
	require.NoError(t, store.Save(ctx, "dr@clinic.in", want))

	got := store.Get(ctx, "DR@clinic.in")
	assert.Equal(t, "AIza-1", got.PrimaryKey)
	assert.Equal(t, "unsplash", got.StockPhotoKey)
	assert.Empty(t, got.FastTextKey)
}

func TestStore_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, "")

	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{FastTextKey: "a"}))
	require.NoError(t, store.Save(ctx, "b@x.in", models.CredentialSet{FastTextKey: "b"}))

	assert.Equal(t, "a", store.Get(ctx, "a@x.in").FastTextKey)
	assert.Equal(t, "b", store.Get(ctx, "b@x.in").FastTextKey)
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, "")

	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{PrimaryKey: "k"}))
	require.NoError(t, store.Clear(ctx, "a@x.in"))
	assert.False(t, store.Get(ctx, "a@x.in").HasAny())
	assert.False(t, mr.Exists(storageKey("a@x.in")))
}

func TestStore_SaveEmptyClears(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, "")

	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{PrimaryKey: "k"}))
	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{PrimaryKey: "  "}))
	assert.False(t, mr.Exists(storageKey("a@x.in")))
}

func TestStore_MalformedIsEmpty(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, "")

	require.NoError(t, mr.Set(storageKey("a@x.in"), "{not json"))
	assert.Equal(t, models.CredentialSet{}, store.Get(ctx, "a@x.in"))
}

func TestStore_KeyDoesNotLeakOwner(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, "")

	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{PrimaryKey: "k"}))
	for _, k := range mr.Keys() {
		assert.NotContains(t, k, "a@x.in")
	}
}

func TestStore_Encrypted(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, "server-secret")

	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{VersatileTextKey: "sk-or-secret"}))

	raw, err := mr.Get(storageKey("a@x.in"))
	require.NoError(t, err)
	assert.NotContains(t, raw, "sk-or-secret")
	assert.True(t, isSealed([]byte(raw)))

	assert.Equal(t, "sk-or-secret", store.Get(ctx, "a@x.in").VersatileTextKey)
}

func TestStore_EncryptedWithWrongSecretIsEmpty(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t, "one")
	require.NoError(t, store.Save(ctx, "a@x.in", models.CredentialSet{PrimaryKey: "k"}))

	other, err := NewSealer("two")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	assert.False(t, NewStore(client, other).Get(ctx, "a@x.in").HasAny())
	assert.False(t, NewStore(client, nil).Get(ctx, "a@x.in").HasAny())
}

func TestSealer_BoundToOwner(t *testing.T) {
	s, err := NewSealer("secret")
	require.NoError(t, err)

	blob, err := s.Seal([]byte(`{"primary_key":"k"}`), "a@x.in")
	require.NoError(t, err)

	_, err = s.Open(blob, "b@x.in")
	assert.Error(t, err)

	plain, err := s.Open(blob, "a@x.in")
	require.NoError(t, err)
	assert.JSONEq(t, `{"primary_key":"k"}`, string(plain))
}

func TestNewSealer_EmptySecret(t *testing.T) {
	_, err := NewSealer(" ")
	assert.Error(t, err)
}
