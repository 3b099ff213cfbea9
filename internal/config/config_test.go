package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

var configKeys = []string{
	"HTTP_PORT", "DATABASE_URL", "SUBGRAPH_URL", "SUBGRAPH_RETRY_MAX", "SUBGRAPH_RETRY_BASE_DELAY",
	"REDIS_ADDR", "REDIS_HISTORY_TTL", "NATS_URL", "NATS_SUBJECT", "OWNER_ADDRESS", "PORTFOLIO_SLUG",
	"STREAMS", "CYCLE_SECS", "TICK_INTERVAL", "REFRESH_INTERVAL", "REPORT_INTERVAL", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.HTTPPort != "8080" {
		t.Errorf("HTTPPort = %q, want 8080", cfg.HTTPPort)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.SubgraphRetryMax != 5 {
		t.Errorf("SubgraphRetryMax = %d, want 5", cfg.SubgraphRetryMax)
	}
	if cfg.SubgraphRetryBaseDelay != 2*time.Second {
		t.Errorf("SubgraphRetryBaseDelay = %v, want 2s", cfg.SubgraphRetryBaseDelay)
	}
	if cfg.RedisHistoryTTL != 5*time.Minute {
		t.Errorf("RedisHistoryTTL = %v, want 5m", cfg.RedisHistoryTTL)
	}
	if cfg.NATSSubject != "dripstat.estimates" {
		t.Errorf("NATSSubject = %q, want dripstat.estimates", cfg.NATSSubject)
	}
	if cfg.PortfolioSlug != "main" {
		t.Errorf("PortfolioSlug = %q, want main", cfg.PortfolioSlug)
	}
	if cfg.CycleSecs != 604800 {
		t.Errorf("CycleSecs = %d, want 604800", cfg.CycleSecs)
	}
	if cfg.TickInterval != time.Second {
		t.Errorf("TickInterval = %v, want 1s", cfg.TickInterval)
	}
	if cfg.RefreshInterval != time.Minute {
		t.Errorf("RefreshInterval = %v, want 1m", cfg.RefreshInterval)
	}
	if cfg.ReportInterval != 24*time.Hour {
		t.Errorf("ReportInterval = %v, want 24h", cfg.ReportInterval)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUBGRAPH_URL", "https://subgraph.example.com")
	t.Setenv("DATABASE_URL", "postgres://localhost/testdb")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SUBGRAPH_RETRY_MAX", "10")
	t.Setenv("SUBGRAPH_RETRY_BASE_DELAY", "5s")
	t.Setenv("OWNER_ADDRESS", "0xABC")
	t.Setenv("CYCLE_SECS", "86400")

	cfg := Load()

	if cfg.SubgraphURL != "https://subgraph.example.com" {
		t.Errorf("SubgraphURL = %q, want override", cfg.SubgraphURL)
	}
	if cfg.DatabaseURL != "postgres://localhost/testdb" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.HTTPPort != "9090" {
		t.Errorf("HTTPPort = %q, want 9090", cfg.HTTPPort)
	}
	if cfg.SubgraphRetryMax != 10 {
		t.Errorf("SubgraphRetryMax = %d, want 10", cfg.SubgraphRetryMax)
	}
	if cfg.SubgraphRetryBaseDelay != 5*time.Second {
		t.Errorf("SubgraphRetryBaseDelay = %v, want 5s", cfg.SubgraphRetryBaseDelay)
	}
	if cfg.OwnerAddress != "0xabc" {
		t.Errorf("OwnerAddress = %q, want lowercased 0xabc", cfg.OwnerAddress)
	}
	if cfg.CycleSecs != 86400 {
		t.Errorf("CycleSecs = %d, want 86400", cfg.CycleSecs)
	}
}

func TestLoadInvalidEnvFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUBGRAPH_RETRY_MAX", "not-a-number")
	t.Setenv("SUBGRAPH_RETRY_BASE_DELAY", "invalid-duration")

	cfg := Load()

	if cfg.SubgraphRetryMax != 5 {
		t.Errorf("SubgraphRetryMax = %d, want default 5 on invalid input", cfg.SubgraphRetryMax)
	}
	if cfg.SubgraphRetryBaseDelay != 2*time.Second {
		t.Errorf("SubgraphRetryBaseDelay = %v, want default 2s on invalid input", cfg.SubgraphRetryBaseDelay)
	}
}

func TestStreamDescriptors(t *testing.T) {
	cfg := Config{Streams: "0xA:1:0xB, 0xC:2:0xA"}

	got, err := cfg.StreamDescriptors()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("descriptors = %d, want 2", len(got))
	}
	if got[0].Payer != "0xa" || got[0].AccountID != "1" || got[0].Receiver != "0xb" {
		t.Errorf("descriptor[0] = %+v", got[0])
	}

	if _, err := (Config{Streams: "broken"}).StreamDescriptors(); err == nil {
		t.Error("expected error for malformed STREAMS")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("HTTP_PORT=7070\nNATS_SUBJECT=custom.subject\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NATS_SUBJECT", "from.env")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("HTTP_PORT") })

	cfg := Load()
	if cfg.HTTPPort != "7070" {
		t.Errorf("HTTPPort = %q, want 7070 from file", cfg.HTTPPort)
	}
	if cfg.NATSSubject != "from.env" {
		t.Errorf("NATSSubject = %q, want existing env to win", cfg.NATSSubject)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("LoadDotEnv missing file = %v, want nil", err)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"loud", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := Config{LogLevel: tt.level}.NewLogger()
			if !logger.Enabled(context.Background(), tt.want) {
				t.Errorf("level %v not enabled for %q", tt.want, tt.level)
			}
			if tt.want > slog.LevelDebug && logger.Enabled(context.Background(), tt.want-1) {
				t.Errorf("level below %v enabled for %q", tt.want, tt.level)
			}
		})
	}
}
