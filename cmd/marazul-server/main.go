package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/app"
	"github.com/vladislavdragonenkov/marazul/internal/version"
)

const (
	envHTTPAddr       = "MARAZUL_HTTP_ADDR"
	envGRPCAddr       = "MARAZUL_GRPC_ADDR"
	envMetricsAddr    = "MARAZUL_METRICS_ADDR"
	envJWTSecret      = "MARAZUL_JWT_SECRET"
	envTokenTTL       = "MARAZUL_TOKEN_TTL"
	envLoginRateLimit = "MARAZUL_LOGIN_RATE_LIMIT"
	envSeedDemo       = "MARAZUL_SEED_DEMO"
	envKafkaBrokers   = "KAFKA_BROKERS"
	envLogLevel       = "MARAZUL_LOG_LEVEL"
)

type envLookup func(string) (string, bool)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)
}

// readConfigFromEnv собирает конфигурацию из окружения. Некорректные значения
// не прерывают запуск: остаётся значение по умолчанию и добавляется предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str(envHTTPAddr, &cfg.HTTPAddr)
	str(envGRPCAddr, &cfg.GRPCAddr)
	str(envMetricsAddr, &cfg.MetricsAddr)
	str(envJWTSecret, &cfg.JWTSecret)
	str(envKafkaBrokers, &cfg.KafkaBrokers)

	if v, ok := lookup(envTokenTTL); ok {
		ttl, err := parseDuration(v, func(d time.Duration) bool { return d > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envTokenTTL, err))
		} else {
			cfg.TokenTTL = ttl
		}
	}
	if v, ok := lookup(envLoginRateLimit); ok {
		limit, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envLoginRateLimit, err))
		} else {
			cfg.LoginRateLimit = limit
		}
	}
	if v, ok := lookup(envSeedDemo); ok {
		seed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", envSeedDemo, err))
		} else {
			cfg.SeedDemo = seed
		}
	}
	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q", raw)
	}
	if !valid(v) {
		return 0, fmt.Errorf("value %d %s", v, rule)
	}
	return v, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q", raw)
	}
	if !valid(v) {
		return 0, fmt.Errorf("value %s %s", v, rule)
	}
	return v, nil
}

func main() {
	level, _ := os.LookupEnv(envLogLevel)
	setupLogger(level)
	gin.SetMode(gin.ReleaseMode)

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, w := range warnings {
		log.Warn(w)
	}
	if _, ok := os.LookupEnv(envJWTSecret); !ok {
		log.Warn("MARAZUL_JWT_SECRET не задан, используется секрет для разработки")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"version":      version.GetVersion(),
	}).Info("запускаем сервер MarAzul")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("сервер MarAzul остановлен")
}
