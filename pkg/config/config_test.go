package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"APP_ENV", "LOG_LEVEL", "LOG_FORMAT",
	"DATABASE_URL", "SOLACE_SQLITE_PATH", "SOLACE_ENCRYPTION_KEY",
	"REDIS_URL", "RABBITMQ_URL",
	"OUTBOX_POLL_INTERVAL", "OUTBOX_BATCH_SIZE", "OUTBOX_MAX_RETRIES", "OUTBOX_RETENTION_DAYS",
	"BROKER_BREAKER_FAILURES", "BROKER_BREAKER_TIMEOUT",
	"SOLACE_DEFAULT_PROVIDER_ID", "SOLACE_TIMEZONE", "SOLACE_CANCELLATION_NOTICE",
	"SOLACE_RESCHEDULE_NOTICE_ENFORCED", "SOLACE_CATALOG_PATH", "SOLACE_BOOKING_LOCK_TTL",
	"CALDAV_URL", "CALDAV_USERNAME", "CALDAV_PASSWORD", "CALDAV_CALENDAR_PATH",
	"WORKER_HEALTH_ADDR", "MCP_ADDR", "MCP_AUTH_TOKEN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range managedVars {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.DatabaseURL)
	assert.True(t, cfg.IsLocalMode())
	assert.Contains(t, cfg.SQLitePath, "solace.db")
	assert.Equal(t, "default", cfg.DefaultProviderID)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 24*time.Hour, cfg.CancellationNotice)
	assert.False(t, cfg.RescheduleNoticeEnforced)
	assert.Equal(t, 10*time.Second, cfg.BookingLockTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.OutboxRetention())
	assert.False(t, cfg.CalDAVEnabled())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://solace@localhost/solace")
	t.Setenv("SOLACE_DEFAULT_PROVIDER_ID", "dr-lee")
	t.Setenv("SOLACE_TIMEZONE", "Europe/Berlin")
	t.Setenv("SOLACE_CANCELLATION_NOTICE", "48h")
	t.Setenv("SOLACE_RESCHEDULE_NOTICE_ENFORCED", "true")
	t.Setenv("OUTBOX_BATCH_SIZE", "25")
	t.Setenv("CALDAV_URL", "https://dav.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsLocalMode())
	assert.Equal(t, "dr-lee", cfg.DefaultProviderID)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, 48*time.Hour, cfg.CancellationNotice)
	assert.True(t, cfg.RescheduleNoticeEnforced)
	assert.Equal(t, 25, cfg.OutboxBatchSize)
	assert.True(t, cfg.CalDAVEnabled())
}

func TestLoad_MemoryIsLocal(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsLocalMode())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("unknown timezone", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLACE_TIMEZONE", "Mars/Olympus")
		_, err := Load()
		assert.ErrorContains(t, err, "SOLACE_TIMEZONE")
	})

	t.Run("negative notice", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SOLACE_CANCELLATION_NOTICE", "-1h")
		_, err := Load()
		assert.ErrorContains(t, err, "SOLACE_CANCELLATION_NOTICE")
	})
}

func TestGetters(t *testing.T) {
	clearEnv(t)

	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	assert.Equal(t, 7, getIntEnv("OUTBOX_BATCH_SIZE", 7))

	t.Setenv("OUTBOX_POLL_INTERVAL", "soon")
	assert.Equal(t, time.Second, getDurationEnv("OUTBOX_POLL_INTERVAL", time.Second))

	t.Setenv("SOLACE_RESCHEDULE_NOTICE_ENFORCED", "maybe")
	assert.True(t, getBoolEnv("SOLACE_RESCHEDULE_NOTICE_ENFORCED", true))

	t.Setenv("LOG_LEVEL", "debug")
	assert.Equal(t, "debug", getEnv("LOG_LEVEL", "info"))
}
