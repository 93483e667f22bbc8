package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

const opTimeout = 5 * time.Second

type kvStore struct {
	db *sql.DB
}

// NewKeyValueStore создаёт PostgreSQL-реализацию KeyValueStore поверх таблицы storefront_state.
func NewKeyValueStore(store *Store) domain.KeyValueStore {
	return &kvStore{db: store.DB()}
}

func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM storefront_state WHERE state_key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("select state: %w", err)
	}
	return value, nil
}

func (s *kvStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storefront_state (state_key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (state_key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = EXCLUDED.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert state: %w", err)
	}
	return nil
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM storefront_state WHERE state_key = $1`, key); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

var _ domain.KeyValueStore = (*kvStore)(nil)
