package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadBookingConfig_Defaults(t *testing.T) {
	t.Setenv("HOLD_TTL", "")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("SWEEP_BATCH", "")

	cfg := LoadBookingConfig()
	assert.Equal(t, 10*time.Minute, cfg.HoldTTL)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 200, cfg.SweepBatch)
}

func TestLoadBookingConfig_Overrides(t *testing.T) {
	t.Setenv("HOLD_TTL", "15m")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("SWEEP_BATCH", "-3")

	cfg := LoadBookingConfig()
	assert.Equal(t, 15*time.Minute, cfg.HoldTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 200, cfg.SweepBatch, "invalid batch falls back to default")
}

func TestLoad_ReadsRequiredAndOptional(t *testing.T) {
	for k, v := range map[string]string{
		"APP_ENV": "test", "APP_PORT": "8080", "DB_USER": "root", "DB_HOST": "localhost",
		"DB_PORT": "3306", "DB_NAME": "turfbook", "JWT_SECRET": "s3cret",
		"PAYMENT_KEY_ID": "", "PAYMENT_KEY_SECRET": "", "RABBITMQ_URL": "", "AMQP_URL": "amqp://x",
		"DB_MIGRATE": "false",
	} {
		t.Setenv(k, v)
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.False(t, cfg.DBMigrate)
	assert.False(t, cfg.Payment.Configured())
	assert.Equal(t, "INR", cfg.Payment.Currency)
	assert.Equal(t, "amqp://x", cfg.Queue.URL)
}

func TestLoadRateLimitConfig_Burst(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 5, cfg.Capacity)
	assert.Equal(t, 1, cfg.RefillTokens)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.GreaterOrEqual(t, cfg.TTL, 10*time.Second)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("REDIS_TLS", "1")

	cfg := LoadRedisConfig()
	assert.Equal(t, "cache:6380", cfg.Addr)
	assert.Equal(t, 2, cfg.DB)
	assert.True(t, cfg.TLS)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.Equal(t, 30*time.Second, cfg.TTL)
	assert.Equal(t, "turfbook:cache", cfg.Prefix)
}

func TestLoadCacheConfig_OnlyReadMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "post,delete")
	t.Setenv("CACHE_TTL", "-5s")
	t.Setenv("CACHE_ENABLED", "off")
	cfg := LoadCacheConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, map[string]bool{"GET": true}, cfg.Methods)
	assert.Equal(t, 30*time.Second, cfg.TTL)
}
