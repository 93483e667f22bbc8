package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
)

type failingKV struct {
	err error
}

func (f failingKV) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Set(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Delete(context.Context, string) error        { return f.err }

func TestJSONStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := storage.NewJSONStore(memory.NewKeyValueStore())

	user := domain.User{ID: "u1", FirstName: "Ana", Email: "ana@marazul.cl"}
	require.NoError(t, store.SetJSON(ctx, "user", user))

	var got domain.User
	found, err := store.GetJSON(ctx, "user", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, user, got)
}

func TestJSONStore_MissingKey(t *testing.T) {
	store := storage.NewJSONStore(memory.NewKeyValueStore())

	var got domain.User
	found, err := store.GetJSON(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = store.GetString(context.Background(), "absent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	require.NoError(t, kv.Set(ctx, "cart", []byte("not json")))

	var items []domain.CartItem
	found, err := storage.NewJSONStore(kv).GetJSON(ctx, "cart", &items)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestJSONStore_StringsAndRemove(t *testing.T) {
	ctx := context.Background()
	store := storage.NewJSONStore(memory.NewKeyValueStore())

	require.NoError(t, store.SetString(ctx, "token", "abc"))
	require.NoError(t, store.SetString(ctx, "theme", "dark"))

	token, found, err := store.GetString(ctx, "token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc", token)

	require.NoError(t, store.Remove(ctx, "token", "theme", "never-set"))

	_, found, err = store.GetString(ctx, "token")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestJSONStore_PropagatesDriverErrors(t *testing.T) {
	boom := errors.New("disk full")
	store := storage.NewJSONStore(failingKV{err: boom})

	assert.ErrorIs(t, store.SetJSON(context.Background(), "k", 1), boom)
	assert.ErrorIs(t, store.Remove(context.Background(), "a", "b"), boom)

	var v int
	_, err := store.GetJSON(context.Background(), "k", &v)
	assert.ErrorIs(t, err, boom)
}

func TestScoped_IsolatesPrefixes(t *testing.T) {
	ctx := context.Background()
	shared := memory.NewKeyValueStore()

	alice := storage.Scoped(shared, "visitor:alice:")
	bob := storage.Scoped(shared, "visitor:bob:")

	require.NoError(t, alice.Set(ctx, "cart", []byte("[1]")))

	_, err := bob.Get(ctx, "cart")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	raw, err := shared.Get(ctx, "visitor:alice:cart")
	require.NoError(t, err)
	assert.Equal(t, "[1]", string(raw))

	assert.Same(t, shared, storage.Scoped(shared, ""))
}

func TestKeys_WithDefaults(t *testing.T) {
	keys := storage.Keys{Cart: "custom_cart"}.WithDefaults()

	assert.Equal(t, "custom_cart", keys.Cart)
	assert.Equal(t, storage.DefaultKeys().Token, keys.Token)
	assert.Equal(t, storage.DefaultKeys().Language, keys.Language)
}
