package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVICE_NAME", "ENV", "LOG_LEVEL", "STOREFRONT_API_URL", "HTTP_TIMEOUT",
		"READ_RETRY_MAX", "RATE_RPS", "RATE_BURST", "SESSION_BACKEND", "SESSION_NOTIFIER",
		"SESSION_SCOPE", "REDIS_ADDR", "REDIS_DB", "REDIS_PASS", "NATS_URL",
		"PREVIEW_PORT", "REFRESH_INTERVAL", "USER_LAT", "USER_LON",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "http://localhost:8000", cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 0, cfg.ReadRetryMax)
	assert.Equal(t, 0, cfg.RateRPS)
	assert.Equal(t, BackendMemory, cfg.SessionBackend)
	assert.Equal(t, NotifierNone, cfg.SessionNotifier)
	assert.Equal(t, 9020, cfg.PreviewPort)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.InDelta(t, -25.425704, cfg.UserLat, 1e-9)
	assert.InDelta(t, -49.2733, cfg.UserLon, 1e-9)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STOREFRONT_API_URL", "http://api.feira.local:8080/")
	t.Setenv("SESSION_BACKEND", "Redis")
	t.Setenv("SESSION_NOTIFIER", "NATS")
	t.Setenv("READ_RETRY_MAX", "2")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("USER_LAT", "-15.79")

	cfg := Load()

	assert.Equal(t, "http://api.feira.local:8080", cfg.APIBaseURL, "trailing slash is trimmed")
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, NotifierNATS, cfg.SessionNotifier)
	assert.Equal(t, 2, cfg.ReadRetryMax)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.InDelta(t, -15.79, cfg.UserLat, 1e-9)
}

func TestGetEnvHelpers_InvalidFallBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_FLOAT", "1,5")
	t.Setenv("X_DUR", "forever")
	t.Setenv("X_BOOL", "maybe")

	assert.Equal(t, 7, GetEnvInt("X_INT", 7))
	assert.InDelta(t, 2.5, GetEnvFloat("X_FLOAT", 2.5), 1e-9)
	assert.Equal(t, time.Minute, GetEnvDuration("X_DUR", time.Minute))
	assert.True(t, GetEnvBool("X_BOOL", true))
}
