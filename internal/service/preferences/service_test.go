package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marazul/internal/storage"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
)

func TestPreferences_DefaultsAndPersistence(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	svc := New(storage.NewJSONStore(kv), storage.Keys{}, nil)

	assert.Equal(t, DefaultTheme, svc.Theme(ctx))
	assert.Equal(t, DefaultLanguage, svc.Language(ctx))

	var changes []Change
	svc.Subscribe(func(c Change) { changes = append(changes, c) })

	require.NoError(t, svc.SetTheme(ctx, " Dark "))
	require.NoError(t, svc.SetLanguage(ctx, "en"))

	assert.Equal(t, "dark", svc.Theme(ctx))
	assert.Equal(t, "en", svc.Language(ctx))

	raw, err := kv.Get(ctx, storage.DefaultKeys().Theme)
	require.NoError(t, err)
	assert.Equal(t, "dark", string(raw))
	assert.Len(t, changes, 2)
}

func TestPreferences_RejectsUnknownValues(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKeyValueStore()
	svc := New(storage.NewJSONStore(kv), storage.Keys{}, nil)

	assert.Error(t, svc.SetTheme(ctx, "neon"))
	assert.Error(t, svc.SetLanguage(ctx, "fr"))

	// Посторонние значения в хранилище заменяются значением по умолчанию.
	require.NoError(t, kv.Set(ctx, storage.DefaultKeys().Language, []byte("klingon")))
	assert.Equal(t, DefaultLanguage, svc.Language(ctx))
}
