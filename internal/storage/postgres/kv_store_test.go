package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db), mock
}

func TestKeyValueStore_Get(t *testing.T) {
	store, mock := newMockStore(t)
	kv := NewKeyValueStore(store)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM storefront_state WHERE state_key = $1`)).
		WithArgs("marazul_cart_v1").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`[]`)))

	value, err := kv.Get(context.Background(), "marazul_cart_v1")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(value))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyValueStore_GetMissing(t *testing.T) {
	store, mock := newMockStore(t)
	kv := NewKeyValueStore(store)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM storefront_state`)).
		WithArgs("absent").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := kv.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyValueStore_SetUpserts(t *testing.T) {
	store, mock := newMockStore(t)
	kv := NewKeyValueStore(store)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO storefront_state`)).
		WithArgs("marazul_theme", []byte("dark")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, kv.Set(context.Background(), "marazul_theme", []byte("dark")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKeyValueStore_DeleteError(t *testing.T) {
	store, mock := newMockStore(t)
	kv := NewKeyValueStore(store)

	boom := errors.New("connection reset")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM storefront_state WHERE state_key = $1`)).
		WithArgs("marazul_auth_token").
		WillReturnError(boom)

	err := kv.Delete(context.Background(), "marazul_auth_token")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationStatus_Mocked(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(version), 0), COUNT(*) FROM schema_migrations`)).
		WillReturnRows(sqlmock.NewRows([]string{"max", "count"}).AddRow(int64(2), 2))

	version, count, err := store.MigrationStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
