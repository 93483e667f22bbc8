// Package storage содержит адаптер состояния витрины поверх key/value-хранилища
// и общие имена ключей. Конкретные драйверы живут в подпакетах.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// Keys задаёт имена ключей, под которыми хранится состояние клиента.
type Keys struct {
	Token    string
	User     string
	Cart     string
	Theme    string
	Language string
}

// DefaultKeys возвращает раскладку ключей по умолчанию.
func DefaultKeys() Keys {
	return Keys{
		Token:    "marazul_auth_token",
		User:     "marazul_current_user",
		Cart:     "marazul_cart_v1",
		Theme:    "marazul_theme",
		Language: "marazul_language",
	}
}

// WithDefaults заполняет пустые имена ключей значениями по умолчанию.
func (k Keys) WithDefaults() Keys {
	def := DefaultKeys()
	if k.Token == "" {
		k.Token = def.Token
	}
	if k.User == "" {
		k.User = def.User
	}
	if k.Cart == "" {
		k.Cart = def.Cart
	}
	if k.Theme == "" {
		k.Theme = def.Theme
	}
	if k.Language == "" {
		k.Language = def.Language
	}
	return k
}

// JSONStore оборачивает KeyValueStore кодированием значений в JSON.
type JSONStore struct {
	kv domain.KeyValueStore
}

// NewJSONStore создаёт адаптер поверх драйвера хранилища.
func NewJSONStore(kv domain.KeyValueStore) *JSONStore {
	return &JSONStore{kv: kv}
}

// GetJSON декодирует значение ключа в dst. found=false, если ключа нет.
func (s *JSONStore) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON кодирует value и сохраняет под ключом.
func (s *JSONStore) SetJSON(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetString читает строковое значение как есть, без JSON.
// Так хранятся токен и предпочтения.
func (s *JSONStore) GetString(ctx context.Context, key string) (string, bool, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return string(raw), true, nil
}

// SetString сохраняет строку как есть.
func (s *JSONStore) SetString(ctx context.Context, key, value string) error {
	if err := s.kv.Set(ctx, key, []byte(value)); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove удаляет ключи. Продолжает при ошибках и возвращает их объединение.
func (s *JSONStore) Remove(ctx context.Context, keys ...string) error {
	var errs []error
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// scopedStore добавляет префикс ко всем ключам.
type scopedStore struct {
	inner  domain.KeyValueStore
	prefix string
}

// Scoped изолирует ключи одного посетителя внутри общего хранилища.
// Пустой префикс возвращает исходное хранилище.
func Scoped(kv domain.KeyValueStore, prefix string) domain.KeyValueStore {
	if prefix == "" {
		return kv
	}
	return &scopedStore{inner: kv, prefix: prefix}
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+key)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte) error {
	return s.inner.Set(ctx, s.prefix+key, value)
}

func (s *scopedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, s.prefix+key)
}

var _ domain.KeyValueStore = (*scopedStore)(nil)
