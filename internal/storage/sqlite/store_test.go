package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "marazul.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Set(ctx, "marazul_theme", []byte("dark")))
	require.NoError(t, store.Set(ctx, "marazul_theme", []byte("light")))

	value, err := store.Get(ctx, "marazul_theme")
	require.NoError(t, err)
	assert.Equal(t, "light", string(value))

	require.NoError(t, store.Delete(ctx, "marazul_theme"))
	_, err = store.Get(ctx, "marazul_theme")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	// Повторное удаление не ошибка.
	assert.NoError(t, store.Delete(ctx, "marazul_theme"))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "marazul.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "marazul_cart_v1", []byte(`[{"productId":"p1","quantity":2}]`)))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	value, err := second.Get(ctx, "marazul_cart_v1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"productId":"p1","quantity":2}]`, string(value))
	assert.Equal(t, path, second.Path())
	assert.NoError(t, second.Ping(ctx))
}

func TestStore_EmptyValue(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.Set(ctx, "empty", nil))
	value, err := store.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
