package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable ValidateEnv reads, restoring the originals
// when the test finishes.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "ROOM_TTL_SECONDS",
		"REDIS_ENABLED", "REDIS_ADDR", "REDIS_PASSWORD",
		"EMOJI_SERVICE_URL", "EMOJI_API_KEY", "EMOJI_DAILY_BUDGET",
		"GO_ENV", "LOG_LEVEL", "DEVELOPMENT_MODE", "ALLOWED_ORIGINS",
		"TRACING_ENABLED", "OTLP_ENDPOINT",
		"RATE_LIMIT_API_GLOBAL", "RATE_LIMIT_API_ROOMS", "RATE_LIMIT_WS_IP",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestValidateEnv_RequiresPort(t *testing.T) {
	clearEnv(t)

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT is required")
}

func TestValidateEnv_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-port")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT must be a valid port number")
}

func TestValidateEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")

	cfg, err := ValidateEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Minute, cfg.RoomTTL)
	assert.False(t, cfg.RedisEnabled)
	assert.Equal(t, 5000, cfg.EmojiDailyBudget)
	assert.Equal(t, "production", cfg.GoEnv)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.DevelopmentMode)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "1000-M", cfg.RateLimitAPIGlobal)
	assert.Equal(t, "60-M", cfg.RateLimitAPIRooms)
	assert.Equal(t, "100-M", cfg.RateLimitWsIP)
}

func TestValidateEnv_RoomTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ROOM_TTL_SECONDS", "90")

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.RoomTTL)

	t.Setenv("ROOM_TTL_SECONDS", "0")
	_, err = ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ROOM_TTL_SECONDS")
}

func TestValidateEnv_Redis(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.True(t, cfg.RedisEnabled)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)

	t.Setenv("REDIS_ADDR", "redis.internal:6380")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	cfg, err = ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", cfg.RedisAddr)
	assert.Equal(t, "hunter2", cfg.RedisPassword)

	t.Setenv("REDIS_ADDR", "no-port")
	_, err = ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_ADDR")
}

func TestValidateEnv_EmojiBudget(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("EMOJI_SERVICE_URL", "https://emoji.example/suggest")
	t.Setenv("EMOJI_DAILY_BUDGET", "250")

	cfg, err := ValidateEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://emoji.example/suggest", cfg.EmojiServiceURL)
	assert.Equal(t, 250, cfg.EmojiDailyBudget)

	t.Setenv("EMOJI_DAILY_BUDGET", "-1")
	_, err = ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EMOJI_DAILY_BUDGET")
}

func TestValidateEnv_AccumulatesErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("ROOM_TTL_SECONDS", "nope")
	t.Setenv("EMOJI_DAILY_BUDGET", "nope")

	_, err := ValidateEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT is required")
	assert.Contains(t, err.Error(), "ROOM_TTL_SECONDS")
	assert.Contains(t, err.Error(), "EMOJI_DAILY_BUDGET")
}

func TestAllowedOriginList(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOriginList())

	cfg.AllowedOrigins = "https://a.example, https://b.example ,,"
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOriginList())
}

func TestIsValidHostPort(t *testing.T) {
	assert.True(t, isValidHostPort("localhost:6379"))
	assert.True(t, isValidHostPort("10.0.0.1:1"))
	assert.False(t, isValidHostPort("localhost"))
	assert.False(t, isValidHostPort(":6379"))
	assert.False(t, isValidHostPort("host:0"))
	assert.False(t, isValidHostPort("host:port"))
}

func TestRedactSecret(t *testing.T) {
	assert.Equal(t, "", redactSecret(""))
	assert.Equal(t, "***", redactSecret("short"))
	assert.Equal(t, "abcdefgh***", redactSecret("abcdefghijkl"))
}
