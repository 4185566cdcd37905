package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Radar.Asset != "btc" {
		t.Fatalf("asset = %q, want btc default", cfg.Radar.Asset)
	}
	if cfg.Radar.Window != 15*time.Minute {
		t.Fatalf("window = %v, want 15m default", cfg.Radar.Window)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d, want 8080 default", cfg.Server.Port)
	}
	if cfg.Polymarket.QuoteTTL != 500*time.Millisecond {
		t.Fatalf("quote ttl = %v, want 500ms default", cfg.Polymarket.QuoteTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: production
radar:
  asset: eth
  symbol: ETHUSDT
  window: 5m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Radar.Asset != "eth" || cfg.Radar.Symbol != "ETHUSDT" {
		t.Fatalf("radar = %+v, want eth/ETHUSDT", cfg.Radar)
	}
	if cfg.Radar.Window != 5*time.Minute {
		t.Fatalf("window = %v, want 5m", cfg.Radar.Window)
	}
}

func TestWeightsMustSumToOne(t *testing.T) {
	path := writeConfig(t, `
environment: test
signal:
  weights:
    momentum: 0.50
    divergence: 0.20
    support_resistance: 0.10
    macd: 0.15
    vwap: 0.15
    bollinger: 0.10
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected weight sum validation error")
	}
	if !strings.Contains(err.Error(), "sum to 1.0") {
		t.Fatalf("error = %v, want weight sum message", err)
	}
}

func TestWindowMustBeSupported(t *testing.T) {
	path := writeConfig(t, `
environment: test
radar:
  window: 10m
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected window validation error")
	}
	if !strings.Contains(err.Error(), "5m or 15m") {
		t.Fatalf("error = %v, want window message", err)
	}
}

func TestKafkaRequiresBrokers(t *testing.T) {
	path := writeConfig(t, `
environment: test
kafka:
  enabled: true
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected broker validation error")
	}
}

func TestInvalidLogLevelRejected(t *testing.T) {
	path := writeConfig(t, `
environment: test
logging:
  level: loud
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected log level validation error")
	}
}

func TestLoadWithEnvOverride(t *testing.T) {
	path := writeConfig(t, "environment: test\n")
	t.Setenv("RADAR_ASSET", "sol")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Radar.Asset != "sol" {
		t.Fatalf("asset = %q, want sol", cfg.Radar.Asset)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("brokers = %v, want 2", cfg.Kafka.Brokers)
	}
}
