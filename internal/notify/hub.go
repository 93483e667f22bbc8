// Package notify реализует типизированную подписку на изменения состояния
// витрины: корзины, сессии, предпочтений.
package notify

import "sync"

// Handler получает событие синхронно, в горутине того, кто публикует.
type Handler[T any] func(T)

// Hub рассылает события подписчикам в порядке подписки.
type Hub[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler[T]
	order    []uint64
}

// NewHub создаёт пустой хаб.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{handlers: make(map[uint64]Handler[T])}
}

// Subscribe регистрирует обработчик и возвращает функцию отписки.
// Повторный вызов отписки безопасен.
func (h *Hub[T]) Subscribe(fn Handler[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.handlers[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

// Publish вызывает всех текущих подписчиков. Обработчик может отписаться
// или подписать другой прямо во время рассылки: снимок берётся заранее.
func (h *Hub[T]) Publish(event T) {
	h.mu.RLock()
	snapshot := make([]Handler[T], 0, len(h.order))
	for _, id := range h.order {
		snapshot = append(snapshot, h.handlers[id])
	}
	h.mu.RUnlock()

	for _, fn := range snapshot {
		fn(event)
	}
}

// Len возвращает число подписчиков.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

func (h *Hub[T]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.handlers, id)
	for i, existing := range h.order {
		if existing == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}
