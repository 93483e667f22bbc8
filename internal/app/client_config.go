package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix задаёт префикс переменных окружения клиента (MARAZUL_API_BASE_URL и т.д.).
const EnvPrefix = "MARAZUL"

// Ключи конфигурации клиента.
const (
	KeyAPIBaseURL      = "api.base_url"
	KeyAPITimeout      = "api.timeout"
	KeyAPIMaxAttempts  = "api.max_attempts"
	KeyAPIRetryBackoff = "api.retry_backoff"
	KeyStorageDriver   = "storage.driver"
	KeyStoragePath     = "storage.path"
	KeyStorageDSN      = "storage.dsn"
	KeyStorageURL      = "storage.url"
	KeyStorageTTL      = "storage.ttl"
	KeyStorageScope    = "storage.scope"
	KeyAutoMigrate     = "storage.auto_migrate"
	KeyCurrency        = "currency"
	KeyStockClamp      = "cart.stock_clamp_on_add"
	KeyMergeGuestCart  = "auth.merge_guest_cart"
	KeyCartKey         = "keys.cart"
	KeyTokenKey        = "keys.token"
	KeyUserKey         = "keys.user"
)

// NewClientViper создаёт viper с умолчаниями и привязкой к окружению.
func NewClientViper() *viper.Viper {
	def := DefaultClientConfig()
	v := viper.New()

	v.SetDefault(KeyAPIBaseURL, def.API.BaseURL)
	v.SetDefault(KeyAPITimeout, def.API.Timeout)
	v.SetDefault(KeyAPIMaxAttempts, def.API.MaxAttempts)
	v.SetDefault(KeyAPIRetryBackoff, def.API.RetryBackoff)
	v.SetDefault(KeyStorageDriver, StorageDriverSQLite)
	v.SetDefault(KeyStoragePath, defaultStatePath())
	v.SetDefault(KeyStorageDSN, "")
	v.SetDefault(KeyStorageURL, "")
	v.SetDefault(KeyStorageTTL, def.Storage.TTL)
	v.SetDefault(KeyStorageScope, "")
	v.SetDefault(KeyAutoMigrate, def.Storage.AutoMigrate)
	v.SetDefault(KeyCurrency, def.Currency)
	v.SetDefault(KeyStockClamp, def.StockClampOnAdd)
	v.SetDefault(KeyMergeGuestCart, def.MergeGuestCart)
	v.SetDefault(KeyCartKey, def.Keys.Cart)
	v.SetDefault(KeyTokenKey, def.Keys.Token)
	v.SetDefault(KeyUserKey, def.Keys.User)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadClientConfigFile читает config.yaml: явный путь или каталог настроек пользователя.
// Отсутствие файла по умолчанию ошибкой не считается.
func ReadClientConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "marazul"))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// ClientConfigFromViper собирает ClientConfig из viper.
func ClientConfigFromViper(v *viper.Viper) (ClientConfig, error) {
	cfg := DefaultClientConfig()

	cfg.API.BaseURL = strings.TrimSpace(v.GetString(KeyAPIBaseURL))
	cfg.API.Timeout = v.GetDuration(KeyAPITimeout)
	cfg.API.MaxAttempts = v.GetInt(KeyAPIMaxAttempts)
	cfg.API.RetryBackoff = v.GetDuration(KeyAPIRetryBackoff)

	cfg.Storage = StorageConfig{
		Driver:      strings.ToLower(strings.TrimSpace(v.GetString(KeyStorageDriver))),
		Path:        v.GetString(KeyStoragePath),
		DSN:         strings.TrimSpace(v.GetString(KeyStorageDSN)),
		URL:         strings.TrimSpace(v.GetString(KeyStorageURL)),
		TTL:         v.GetDuration(KeyStorageTTL),
		Scope:       v.GetString(KeyStorageScope),
		AutoMigrate: v.GetBool(KeyAutoMigrate),
	}

	cfg.Currency = strings.ToUpper(strings.TrimSpace(v.GetString(KeyCurrency)))
	cfg.StockClampOnAdd = v.GetBool(KeyStockClamp)
	cfg.MergeGuestCart = v.GetBool(KeyMergeGuestCart)
	cfg.Keys.Cart = v.GetString(KeyCartKey)
	cfg.Keys.Token = v.GetString(KeyTokenKey)
	cfg.Keys.User = v.GetString(KeyUserKey)
	cfg.Keys = cfg.Keys.WithDefaults()

	if cfg.API.MaxAttempts < 1 {
		return ClientConfig{}, fmt.Errorf("%s must be >= 1", KeyAPIMaxAttempts)
	}
	if cfg.API.Timeout <= 0 {
		return ClientConfig{}, fmt.Errorf("%s must be positive", KeyAPITimeout)
	}
	switch cfg.Storage.Driver {
	case StorageDriverMemory, StorageDriverSQLite, StorageDriverRedis, StorageDriverPostgres:
	default:
		return ClientConfig{}, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
	return cfg, nil
}

func defaultStatePath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "marazul", "state.db")
	}
	return "marazul-state.db"
}
