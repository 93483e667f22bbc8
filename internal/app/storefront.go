package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/apiclient"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
	"github.com/vladislavdragonenkov/marazul/internal/service/auth"
	"github.com/vladislavdragonenkov/marazul/internal/service/cart"
	"github.com/vladislavdragonenkov/marazul/internal/service/checkout"
	"github.com/vladislavdragonenkov/marazul/internal/service/preferences"
	"github.com/vladislavdragonenkov/marazul/internal/storage"
	"github.com/vladislavdragonenkov/marazul/internal/storage/memory"
	"github.com/vladislavdragonenkov/marazul/internal/storage/postgres"
	"github.com/vladislavdragonenkov/marazul/internal/storage/redis"
	"github.com/vladislavdragonenkov/marazul/internal/storage/sqlite"
)

// Драйверы хранилища клиентского состояния.
const (
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverRedis    = "redis"
	StorageDriverPostgres = "postgres"
)

// StorageConfig выбирает и настраивает драйвер хранилища.
type StorageConfig struct {
	Driver string
	// Path: файл базы для sqlite.
	Path string
	// DSN: строка подключения для postgres.
	DSN         string
	AutoMigrate bool
	// URL: адрес redis, например redis://localhost:6379/0.
	URL string
	TTL time.Duration
	// Scope: префикс ключей; разделяет состояние посетителей в общем хранилище.
	Scope string
}

// ClientConfig описывает клиентскую часть витрины.
type ClientConfig struct {
	API             apiclient.Config
	Storage         StorageConfig
	Keys            storage.Keys
	Currency        string
	StockClampOnAdd bool
	MergeGuestCart  bool
}

// DefaultClientConfig возвращает настройки для локального сервера с хранилищем в памяти.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		API: apiclient.DefaultConfig(),
		Storage: StorageConfig{
			Driver:      StorageDriverMemory,
			AutoMigrate: true,
		},
		Keys:            storage.DefaultKeys(),
		Currency:        domain.DefaultCurrency,
		StockClampOnAdd: true,
		MergeGuestCart:  true,
	}
}

// OpenKeyValueStore открывает драйвер по конфигурации. close освобождает ресурсы драйвера.
func OpenKeyValueStore(ctx context.Context, cfg StorageConfig, logger *log.Entry) (kv domain.KeyValueStore, closeFn func() error, err error) {
	noop := func() error { return nil }
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))

	switch driver {
	case "", StorageDriverMemory:
		kv, closeFn = memory.NewKeyValueStore(), noop
	case StorageDriverSQLite:
		if strings.TrimSpace(cfg.Path) == "" {
			return nil, nil, errors.New("sqlite storage requires a path")
		}
		store, err := sqlite.Open(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		kv, closeFn = store, store.Close
	case StorageDriverRedis:
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, nil, errors.New("redis storage requires a url")
		}
		store, err := redis.Open(ctx, cfg.URL, "", cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		kv, closeFn = store, store.Close
	case StorageDriverPostgres:
		if strings.TrimSpace(cfg.DSN) == "" {
			return nil, nil, errors.New("postgres storage requires a dsn")
		}
		store, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := store.MigrateUp(ctx, 0); err != nil {
				_ = store.Close()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		kv, closeFn = postgres.NewKeyValueStore(store), store.Close
	default:
		return nil, nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	if logger != nil {
		logger.WithFields(log.Fields{"driver": driverName(driver), "scope": cfg.Scope}).Debug("storage opened")
	}
	return storage.Scoped(kv, cfg.Scope), closeFn, nil
}

func driverName(driver string) string {
	if driver == "" {
		return StorageDriverMemory
	}
	return driver
}

// Storefront владеет хранилищем, API-клиентом и сервисами одного покупателя.
type Storefront struct {
	API         *apiclient.Client
	Cart        *cart.Service
	Auth        *auth.Service
	Checkout    *checkout.Service
	Preferences *preferences.Service

	closeStorage func() error
}

type storefrontOptions struct {
	kv         domain.KeyValueStore
	httpClient *http.Client
	metrics    *metrics.StorefrontMetrics
	logger     *log.Entry
}

// StorefrontOption настраивает NewStorefront.
type StorefrontOption func(*storefrontOptions)

// WithKeyValueStore подставляет готовое хранилище вместо драйвера из конфигурации.
func WithKeyValueStore(kv domain.KeyValueStore) StorefrontOption {
	return func(o *storefrontOptions) { o.kv = kv }
}

// WithHTTPClient задаёт HTTP-клиент для запросов к API.
func WithHTTPClient(hc *http.Client) StorefrontOption {
	return func(o *storefrontOptions) { o.httpClient = hc }
}

// WithStorefrontMetrics подключает метрики ко всем сервисам.
func WithStorefrontMetrics(m *metrics.StorefrontMetrics) StorefrontOption {
	return func(o *storefrontOptions) { o.metrics = m }
}

// WithStorefrontLogger задаёт базовый логгер.
func WithStorefrontLogger(logger *log.Entry) StorefrontOption {
	return func(o *storefrontOptions) { o.logger = logger }
}

// NewStorefront собирает клиентскую часть. Вызывающий обязан вызвать Close.
func NewStorefront(ctx context.Context, cfg ClientConfig, opts ...StorefrontOption) (*Storefront, error) {
	o := storefrontOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.WithField("component", "storefront")
	}

	kv, closeStorage := o.kv, func() error { return nil }
	if kv == nil {
		var err error
		kv, closeStorage, err = OpenKeyValueStore(ctx, cfg.Storage, o.logger)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	clientOpts := []apiclient.Option{
		apiclient.WithLogger(o.logger.WithField("layer", "api")),
		apiclient.WithMetrics(o.metrics),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, apiclient.WithHTTPClient(o.httpClient))
	}
	api, err := apiclient.New(cfg.API, clientOpts...)
	if err != nil {
		_ = closeStorage()
		return nil, err
	}

	keys := cfg.Keys.WithDefaults()
	jsonStore := storage.NewJSONStore(kv)

	cartSvc := cart.New(ctx, jsonStore,
		cart.WithKey(keys.Cart),
		cart.WithStockClampOnAdd(cfg.StockClampOnAdd),
		cart.WithLogger(o.logger.WithField("layer", "cart")),
		cart.WithMetrics(o.metrics),
	)
	authSvc := auth.New(jsonStore, api,
		auth.WithKeys(keys),
		auth.WithCart(cartSvc, api),
		auth.WithGuestCartMerge(cfg.MergeGuestCart),
		auth.WithLogger(o.logger.WithField("layer", "auth")),
		auth.WithMetrics(o.metrics),
	)
	api.SetTokenSource(authSvc.Token)
	api.SetUnauthorizedHandler(authSvc.HandleUnauthorized)

	return &Storefront{
		API:          api,
		Cart:         cartSvc,
		Auth:         authSvc,
		Checkout:     checkout.New(cartSvc, authSvc, api, cfg.Currency, o.logger.WithField("layer", "checkout")),
		Preferences:  preferences.New(jsonStore, keys, o.logger.WithField("layer", "preferences")),
		closeStorage: closeStorage,
	}, nil
}

// Close освобождает хранилище.
func (s *Storefront) Close() error {
	if s == nil || s.closeStorage == nil {
		return nil
	}
	return s.closeStorage()
}
