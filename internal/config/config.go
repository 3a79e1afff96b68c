// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrJWTSecretRequired is returned when JWT_SECRET is not set.
	ErrJWTSecretRequired = errors.New("config: JWT_SECRET is required")
	// ErrInvalidConcurrency is returned when FETCH_CONCURRENCY is not positive.
	ErrInvalidConcurrency = errors.New("config: FETCH_CONCURRENCY must be positive")
	// ErrInvalidTimeout is returned when a timeout setting is not positive.
	ErrInvalidTimeout = errors.New("config: timeouts must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	Port           int      `env:"PORT, default=8080" json:"port"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS, default=*" json:"allowed_origins"`

	// Auth settings
	JWTSecret     string `env:"JWT_SECRET, required" json:"-"` // Masked in JSON
	TokenTTLHours int    `env:"TOKEN_TTL_HOURS, default=24" json:"token_ttl_hours"`

	// Fetch settings
	FetchConcurrency int   `env:"FETCH_CONCURRENCY, default=8" json:"fetch_concurrency"`
	SourceTimeoutSec int   `env:"SOURCE_TIMEOUT_SEC, default=5" json:"source_timeout_sec"`
	CycleTimeoutSec  int   `env:"CYCLE_TIMEOUT_SEC, default=10" json:"cycle_timeout_sec"`
	FetchRetries     int   `env:"FETCH_RETRIES, default=0" json:"fetch_retries"`
	MaxFeedBytes     int64 `env:"MAX_FEED_BYTES, default=10485760" json:"max_feed_bytes"`

	// Registry persistence. DATABASE_URL selects Postgres; otherwise the
	// in-memory registry is snapshotted to S3 (when configured) or DATA_DIR.
	DatabaseURL string `env:"DATABASE_URL" json:"-"` // Masked in JSON
	DataDir     string `env:"DATA_DIR, default=/tmp/jobfeed" json:"data_dir"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	S3Prefix           string `env:"S3_PREFIX, default=jobfeed" json:"s3_prefix,omitempty"`
	S3Endpoint         string `env:"S3_ENDPOINT" json:"s3_endpoint,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Optional listing cache
	RedisURL       string `env:"REDIS_URL" json:"-"` // Masked in JSON
	CacheTTLSec    int    `env:"CACHE_TTL_SEC, default=300" json:"cache_ttl_sec"`
	WarmupSchedule string `env:"WARMUP_SCHEDULE" json:"warmup_schedule,omitempty"`

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// PostgresEnabled returns true if a database URL is provided.
func (c *Config) PostgresEnabled() bool {
	return c.DatabaseURL != ""
}

// CacheEnabled returns true if a Redis URL is provided.
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// WarmupEnabled returns true if cache warm-up should be scheduled.
// Warm-up without a cache would only load the portals.
func (c *Config) WarmupEnabled() bool {
	return c.CacheEnabled() && strings.TrimSpace(c.WarmupSchedule) != ""
}

// SourceTimeout returns the per-source fetch timeout.
func (c *Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutSec) * time.Second
}

// CycleTimeout returns the fetch cycle timeout.
func (c *Config) CycleTimeout() time.Duration {
	return time.Duration(c.CycleTimeoutSec) * time.Second
}

// CacheTTL returns the listing cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// TokenTTL returns the lifetime of issued bearer tokens.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// LoadEnvFile loads variables from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables using go-envconfig.
// If ENV_FILE is set, that file is loaded first.
// It returns an error if required variables are not set.
func Load() (*Config, error) {
	if err := LoadEnvFile(os.Getenv("ENV_FILE")); err != nil {
		return nil, err
	}

	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		// Map envconfig errors to our domain errors for required fields
		if strings.Contains(err.Error(), "JWT_SECRET") {
			return nil, ErrJWTSecretRequired
		}
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and sane.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if c.FetchConcurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.SourceTimeoutSec <= 0 || c.CycleTimeoutSec <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stdout)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Port: %d, FetchConcurrency: %d, SourceTimeoutSec: %d, CycleTimeoutSec: %d, FetchRetries: %d, Postgres: %t, DataDir: %s, S3Bucket: %s, S3Region: %s, Cache: %t, CacheTTLSec: %d, WarmupSchedule: %q, LogFormat: %s, LogLevel: %s}",
		c.Port,
		c.FetchConcurrency,
		c.SourceTimeoutSec,
		c.CycleTimeoutSec,
		c.FetchRetries,
		c.PostgresEnabled(),
		c.DataDir,
		c.S3Bucket,
		c.S3Region,
		c.CacheEnabled(),
		c.CacheTTLSec,
		c.WarmupSchedule,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
