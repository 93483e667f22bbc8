package domain

import "context"

// KeyValueStore: порт постоянного хранилища состояния витрины
// (аналог localStorage браузера). Значения хранятся как непрозрачные байты.
type KeyValueStore interface {
	// Get возвращает значение ключа или ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set перезаписывает значение ключа.
	Set(ctx context.Context, key string, value []byte) error
	// Delete удаляет ключ; отсутствие ключа ошибкой не считается.
	Delete(ctx context.Context, key string) error
}

// EventPublisher публикует доменные события во внешнюю шину.
type EventPublisher interface {
	Publish(topic, key string, event any) error
}

// NoopPublisher отбрасывает события; используется, когда брокер не настроен.
type NoopPublisher struct{}

// Publish ничего не делает.
func (NoopPublisher) Publish(string, string, any) error { return nil }

var _ EventPublisher = NoopPublisher{}
