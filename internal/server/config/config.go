package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// ErrMissingPassword is returned when APP_PASSWORD is not set.
var ErrMissingPassword = errors.New("APP_PASSWORD must be set")

// Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Port        string `env:"PORT,default=8000"`
	AppPassword string `env:"APP_PASSWORD"`
	SecretKey   string `env:"SECRET_KEY"`

	TempDir               string `env:"TEMP_DIR,default=/tmp/pdf-compressor"`
	MaxUploadMB           int    `env:"MAX_UPLOAD_MB,default=50"`
	CompressTimeoutSec    int    `env:"COMPRESS_TIMEOUT_SEC,default=120"`
	SessionLifetimeDays   int    `env:"SESSION_LIFETIME_DAYS,default=90"`
	StaleAgeMinutes       int    `env:"STALE_AGE_MINUTES,default=60"`
	CleanupIntervalMinute int    `env:"CLEANUP_INTERVAL_MINUTES,default=60"`
	GhostscriptPath       string `env:"GS_BINARY,default=gs"`

	DatabaseURL      string `env:"DATABASE_URL"`
	JobRetentionDays int    `env:"JOB_RETENTION_DAYS,default=30"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=2"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=10"`
	CookieSecure   bool    `env:"COOKIE_SECURE,default=false"`

	LogFormat   string `env:"LOG_FORMAT,default=json"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"ENVIRONMENT,default=production"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnviron()
}

// FromEnviron decodes the process environment without touching .env files.
func FromEnviron() (*Config, error) {
	cfg := &Config{}
	if _, err := env.UnmarshalFromEnviron(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.AppPassword == "" {
		return ErrMissingPassword
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.CompressTimeoutSec <= 0 {
		return fmt.Errorf("COMPRESS_TIMEOUT_SEC must be positive, got %d", c.CompressTimeoutSec)
	}
	if c.SessionLifetimeDays <= 0 {
		return fmt.Errorf("SESSION_LIFETIME_DAYS must be positive, got %d", c.SessionLifetimeDays)
	}
	if c.StaleAgeMinutes <= 0 {
		return fmt.Errorf("STALE_AGE_MINUTES must be positive, got %d", c.StaleAgeMinutes)
	}
	if c.TempDir == "" {
		return errors.New("TEMP_DIR must not be empty")
	}
	return nil
}

// MaxUploadBytes is the largest accepted PDF.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}

// CompressTimeout bounds a single compressor run.
func (c *Config) CompressTimeout() time.Duration {
	return time.Duration(c.CompressTimeoutSec) * time.Second
}

// SessionLifetime is how long a login cookie stays valid.
func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.SessionLifetimeDays) * 24 * time.Hour
}

// StaleAge is the age after which a temp file is considered abandoned.
func (c *Config) StaleAge() time.Duration {
	return time.Duration(c.StaleAgeMinutes) * time.Minute
}

// CleanupInterval is the period of the background stale sweep. Zero disables it.
func (c *Config) CleanupInterval() time.Duration {
	return time.Duration(c.CleanupIntervalMinute) * time.Minute
}

// JobRetention is how long job statistics are kept.
func (c *Config) JobRetention() time.Duration {
	return time.Duration(c.JobRetentionDays) * 24 * time.Hour
}

// SigningSecret is the key material for session cookies.
func (c *Config) SigningSecret() string {
	if c.SecretKey != "" {
		return c.SecretKey
	}
	return c.AppPassword
}

// StatsEnabled reports whether job metadata is recorded. Off by default.
func (c *Config) StatsEnabled() bool {
	return c.DatabaseURL != ""
}
