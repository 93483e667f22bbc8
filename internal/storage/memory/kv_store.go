package memory

import (
	"context"
	"sync"

	"github.com/vladislavdragonenkov/marazul/internal/domain"
)

// kvStoreInMemory хранит состояние витрины в map; живёт столько же, сколько процесс.
type kvStoreInMemory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewKeyValueStore возвращает in-memory хранилище для тестов и локальной разработки.
func NewKeyValueStore() domain.KeyValueStore {
	return &kvStoreInMemory{
		items: make(map[string][]byte),
	}
}

func (s *kvStoreInMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return cloneBytes(value), nil
}

func (s *kvStoreInMemory) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	s.items[key] = cloneBytes(value)
	return nil
}

func (s *kvStoreInMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
	return nil
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

var _ domain.KeyValueStore = (*kvStoreInMemory)(nil)
