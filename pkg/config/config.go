// Package config loads Solace settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process configuration.
type Config struct {
	// Application
	AppEnv    string
	LogLevel  string
	LogFormat string

	// Storage. An empty DatabaseURL means SQLite local mode; "memory" keeps
	// everything in process.
	DatabaseURL   string
	SQLitePath    string
	EncryptionKey string

	RedisURL    string
	RabbitMQURL string

	// Outbox
	OutboxPollInterval  time.Duration
	OutboxBatchSize     int
	OutboxMaxRetries    int
	OutboxRetentionDays int
	BreakerFailures     int
	BreakerOpenTimeout  time.Duration

	// Practice
	DefaultProviderID        string
	Timezone                 string
	CancellationNotice       time.Duration
	RescheduleNoticeEnforced bool
	CatalogPath              string
	BookingLockTTL           time.Duration

	// CalDAV
	CalDAVURL          string
	CalDAVUsername     string
	CalDAVPassword     string
	CalDAVCalendarPath string

	// Processes
	WorkerHealthAddr string
	MCPAddr          string
	MCPAuthToken     string
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	home := homeDir()
	cfg := &Config{
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		SQLitePath:    getEnv("SOLACE_SQLITE_PATH", filepath.Join(home, ".solace", "solace.db")),
		EncryptionKey: getEnv("SOLACE_ENCRYPTION_KEY", ""),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OutboxPollInterval:  getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second),
		OutboxBatchSize:     getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:    getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays: getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		BreakerFailures:     getIntEnv("BROKER_BREAKER_FAILURES", 5),
		BreakerOpenTimeout:  getDurationEnv("BROKER_BREAKER_TIMEOUT", 30*time.Second),

		DefaultProviderID:        getEnv("SOLACE_DEFAULT_PROVIDER_ID", "default"),
		Timezone:                 getEnv("SOLACE_TIMEZONE", "UTC"),
		CancellationNotice:       getDurationEnv("SOLACE_CANCELLATION_NOTICE", 24*time.Hour),
		RescheduleNoticeEnforced: getBoolEnv("SOLACE_RESCHEDULE_NOTICE_ENFORCED", false),
		CatalogPath:              getEnv("SOLACE_CATALOG_PATH", filepath.Join(home, ".solace", "catalog.yaml")),
		BookingLockTTL:           getDurationEnv("SOLACE_BOOKING_LOCK_TTL", 10*time.Second),

		CalDAVURL:          getEnv("CALDAV_URL", ""),
		CalDAVUsername:     getEnv("CALDAV_USERNAME", ""),
		CalDAVPassword:     getEnv("CALDAV_PASSWORD", ""),
		CalDAVCalendarPath: getEnv("CALDAV_CALENDAR_PATH", ""),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "127.0.0.1:8081"),
		MCPAddr:          getEnv("MCP_ADDR", "127.0.0.1:8082"),
		MCPAuthToken:     getEnv("MCP_AUTH_TOKEN", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the booking engine cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("SOLACE_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.CancellationNotice < 0 {
		return fmt.Errorf("SOLACE_CANCELLATION_NOTICE must not be negative, got %s", c.CancellationNotice)
	}
	if c.DefaultProviderID == "" {
		return fmt.Errorf("SOLACE_DEFAULT_PROVIDER_ID must not be empty")
	}
	return nil
}

// Location returns the practice timezone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// OutboxRetention converts the retention days setting.
func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.OutboxRetentionDays) * 24 * time.Hour
}

// IsDevelopment returns true in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsLocalMode reports whether no server database is configured.
func (c *Config) IsLocalMode() bool {
	return c.DatabaseURL == "" || c.DatabaseURL == "memory"
}

// CalDAVEnabled reports whether calendar push is configured.
func (c *Config) CalDAVEnabled() bool {
	return c.CalDAVURL != ""
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
