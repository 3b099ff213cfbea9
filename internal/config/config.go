package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mtlprog/dripstat/internal/domain"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	HTTPPort               string
	DatabaseURL            string
	SubgraphURL            string
	SubgraphRetryMax       int
	SubgraphRetryBaseDelay time.Duration
	RedisAddr              string
	RedisHistoryTTL        time.Duration
	NATSURL                string
	NATSSubject            string
	OwnerAddress           string
	PortfolioSlug          string
	Streams                string
	CycleSecs              int64
	TickInterval           time.Duration
	RefreshInterval        time.Duration
	ReportInterval         time.Duration
	AdminAPIKey            string
	GoogleSheetsID         string
	GoogleCredentialsJSON  string
	LogLevel               string
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		HTTPPort:               envOrDefault("HTTP_PORT", "8080"),
		DatabaseURL:            envOrDefaultWarn("DATABASE_URL", ""),
		SubgraphURL:            envOrDefaultWarn("SUBGRAPH_URL", ""),
		SubgraphRetryMax:       envOrDefaultInt("SUBGRAPH_RETRY_MAX", 5),
		SubgraphRetryBaseDelay: envOrDefaultDuration("SUBGRAPH_RETRY_BASE_DELAY", 2*time.Second),
		RedisAddr:              envOrDefault("REDIS_ADDR", ""),
		RedisHistoryTTL:        envOrDefaultDuration("REDIS_HISTORY_TTL", 5*time.Minute),
		NATSURL:                envOrDefault("NATS_URL", ""),
		NATSSubject:            envOrDefault("NATS_SUBJECT", "dripstat.estimates"),
		OwnerAddress:           strings.ToLower(envOrDefaultWarn("OWNER_ADDRESS", "")),
		PortfolioSlug:          envOrDefault("PORTFOLIO_SLUG", "main"),
		Streams:                envOrDefault("STREAMS", ""),
		CycleSecs:              int64(envOrDefaultInt("CYCLE_SECS", 604800)),
		TickInterval:           envOrDefaultDuration("TICK_INTERVAL", time.Second),
		RefreshInterval:        envOrDefaultDuration("REFRESH_INTERVAL", time.Minute),
		ReportInterval:         envOrDefaultDuration("REPORT_INTERVAL", 24*time.Hour),
		AdminAPIKey:            envOrDefault("ADMIN_API_KEY", ""),
		GoogleSheetsID:         envOrDefault("GOOGLE_SHEETS_ID", ""),
		GoogleCredentialsJSON:  envOrDefault("GOOGLE_CREDENTIALS_JSON", ""),
		LogLevel:               envOrDefault("LOG_LEVEL", "info"),
	}
}

// StreamDescriptors parses the STREAMS list.
func (c Config) StreamDescriptors() ([]domain.StreamDescriptor, error) {
	return domain.ParseStreamDescriptors(c.Streams)
}

// NewLogger returns a text logger writing to stderr at the configured level.
func (c Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		slog.Warn("invalid log level, using info", "value", s)
		return slog.LevelInfo
	}
	return level
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
