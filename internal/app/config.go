package app

import (
	"time"

	"github.com/vladislavdragonenkov/marazul/internal/backend"
)

// Config описывает настройки запуска сервера витрины.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	JWTSecret      string
	TokenTTL       time.Duration
	LoginRateLimit int

	// KafkaBrokers: список брокеров через запятую; при пустом значении события не публикуются.
	KafkaBrokers string
	SeedDemo     bool
}

// DefaultConfig возвращает базовые адреса для HTTP API, gRPC и метрик.
func DefaultConfig() Config {
	backendCfg := backend.DefaultConfig()
	return Config{
		HTTPAddr:       ":8080",
		GRPCAddr:       ":50051",
		MetricsAddr:    ":9090",
		JWTSecret:      backendCfg.JWTSecret,
		TokenTTL:       backendCfg.TokenTTL,
		LoginRateLimit: backendCfg.LoginRate,
		SeedDemo:       true,
	}
}

func (c Config) backendConfig() backend.Config {
	cfg := backend.DefaultConfig()
	if c.JWTSecret != "" {
		cfg.JWTSecret = c.JWTSecret
	}
	if c.TokenTTL > 0 {
		cfg.TokenTTL = c.TokenTTL
	}
	if c.LoginRateLimit > 0 {
		cfg.LoginRate = c.LoginRateLimit
	}
	return cfg
}
