package main

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/marazul/internal/app"
)

func TestReadConfigFromEnv_Defaults(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(nil))

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %d", len(warnings))
	}
	if cfg != app.DefaultConfig() {
		t.Fatalf("expected default config, got %#v", cfg)
	}
}

func TestReadConfigFromEnv_ValidOverrides(t *testing.T) {
	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envHTTPAddr:       " 0.0.0.0:8081 ",
		envGRPCAddr:       "localhost:50052",
		envMetricsAddr:    "localhost:9091",
		envJWTSecret:      "prod-secret",
		envTokenTTL:       "2h",
		envLoginRateLimit: "12",
		envSeedDemo:       "off",
		envKafkaBrokers:   "kafka:9092",
	}))

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if cfg.HTTPAddr != "0.0.0.0:8081" {
		t.Fatalf("unexpected http addr: %s", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != "localhost:50052" || cfg.MetricsAddr != "localhost:9091" {
		t.Fatalf("unexpected addrs: %s %s", cfg.GRPCAddr, cfg.MetricsAddr)
	}
	if cfg.JWTSecret != "prod-secret" {
		t.Fatalf("unexpected secret: %s", cfg.JWTSecret)
	}
	if cfg.TokenTTL != 2*time.Hour {
		t.Fatalf("unexpected ttl: %s", cfg.TokenTTL)
	}
	if cfg.LoginRateLimit != 12 {
		t.Fatalf("unexpected login rate: %d", cfg.LoginRateLimit)
	}
	if cfg.SeedDemo {
		t.Fatal("expected SeedDemo=false")
	}
	if cfg.KafkaBrokers != "kafka:9092" {
		t.Fatalf("unexpected brokers: %s", cfg.KafkaBrokers)
	}
}

func TestReadConfigFromEnv_InvalidValuesFallbackToDefaults(t *testing.T) {
	defaultCfg := app.DefaultConfig()

	cfg, warnings := readConfigFromEnv(mapLookup(map[string]string{
		envTokenTTL:       "-1s",
		envLoginRateLimit: "many",
		envSeedDemo:       "maybe",
		envHTTPAddr:       "   ",
	}))

	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d", len(warnings))
	}
	if cfg != defaultCfg {
		t.Fatalf("expected defaults on invalid values, got %#v", cfg)
	}
}

func TestParseBool(t *testing.T) {
	trueValue, err := parseBool(" YES ")
	if err != nil || !trueValue {
		t.Fatalf("expected true, got %v (%v)", trueValue, err)
	}
	falseValue, err := parseBool("off")
	if err != nil || falseValue {
		t.Fatalf("expected false, got %v (%v)", falseValue, err)
	}
	if _, err := parseBool("sometimes"); err == nil {
		t.Fatal("expected error for invalid bool value")
	}
}

func TestParseInt(t *testing.T) {
	value, err := parseInt(" 12 ", func(v int) bool { return v > 0 }, "must be > 0")
	if err != nil || value != 12 {
		t.Fatalf("unexpected result: %d (%v)", value, err)
	}
	if _, err := parseInt("0", func(v int) bool { return v > 0 }, "must be > 0"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParseDuration(t *testing.T) {
	value, err := parseDuration(" 250ms ", func(v time.Duration) bool { return v >= 0 }, "must be >= 0")
	if err != nil || value != 250*time.Millisecond {
		t.Fatalf("unexpected result: %s (%v)", value, err)
	}
	if _, err := parseDuration("-1ms", func(v time.Duration) bool { return v >= 0 }, "must be >= 0"); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSetupLogger(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	setupLogger("debug")
	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
	setupLogger("nonsense")
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("expected info fallback, got %s", log.GetLevel())
	}
}

func mapLookup(values map[string]string) envLookup {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
