// Package preferences хранит настройки интерфейса посетителя: тему и язык.
package preferences

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/notify"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
)

// Значения по умолчанию.
const (
	DefaultTheme    = "light"
	DefaultLanguage = "es"
)

// Допустимые значения.
var (
	Themes    = []string{"light", "dark"}
	Languages = []string{"es", "en"}
)

// Change: событие изменения настройки.
type Change struct {
	Key   string
	Value string
}

// Service читает и сохраняет настройки как обычные строки.
type Service struct {
	store  *storage.JSONStore
	keys   storage.Keys
	hub    *notify.Hub[Change]
	logger *log.Entry
}

// New создаёт сервис настроек.
func New(store *storage.JSONStore, keys storage.Keys, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "preferences")
	}
	return &Service{store: store, keys: keys.WithDefaults(), hub: notify.NewHub[Change](), logger: logger}
}

// Subscribe подписывает обработчик на изменения настроек.
func (s *Service) Subscribe(fn func(Change)) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// Theme возвращает тему или значение по умолчанию.
func (s *Service) Theme(ctx context.Context) string {
	return s.get(ctx, s.keys.Theme, DefaultTheme, Themes)
}

// SetTheme сохраняет тему.
func (s *Service) SetTheme(ctx context.Context, theme string) error {
	return s.set(ctx, s.keys.Theme, theme, Themes)
}

// Language возвращает язык или значение по умолчанию.
func (s *Service) Language(ctx context.Context) string {
	return s.get(ctx, s.keys.Language, DefaultLanguage, Languages)
}

// SetLanguage сохраняет язык.
func (s *Service) SetLanguage(ctx context.Context, lang string) error {
	return s.set(ctx, s.keys.Language, lang, Languages)
}

func (s *Service) get(ctx context.Context, key, fallback string, allowed []string) string {
	value, found, err := s.store.GetString(ctx, key)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("failed to read preference")
		return fallback
	}
	if !found || !contains(allowed, value) {
		return fallback
	}
	return value
}

func (s *Service) set(ctx context.Context, key, value string, allowed []string) error {
	value = strings.ToLower(strings.TrimSpace(value))
	if !contains(allowed, value) {
		return fmt.Errorf("unsupported value %q for %s, expected one of %s", value, key, strings.Join(allowed, ", "))
	}
	if err := s.store.SetString(ctx, key, value); err != nil {
		return err
	}
	s.hub.Publish(Change{Key: key, Value: value})
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
