package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("AGRIBOT_VARIANT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, slog.LevelInfo, cfg.Server.LogLevel)
	assert.Equal(t, "gemini", cfg.LLM.DefaultProvider)
	assert.Equal(t, "gemini-2.5-pro", cfg.LLM.DefaultModel)
	assert.Equal(t, "full", cfg.App.Variant)
	assert.Equal(t, int64(10<<20), cfg.App.MaxImageBytes)
	assert.Equal(t, 24*time.Hour, cfg.App.DiagnosisCacheTTL)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Empty(t, cfg.Database.MigrationsPath)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AGRIBOT_VARIANT", "TEXT")
	t.Setenv("LLM_BREAKER_OPEN_FOR", "1m")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://farm.example, ,https://kiosk.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, slog.LevelDebug, cfg.Server.LogLevel)
	assert.Equal(t, "text", cfg.App.Variant)
	assert.Equal(t, time.Minute, cfg.LLM.BreakerOpenFor)
	assert.Equal(t, 2.5, cfg.RateLimit.RPS)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, []string{"https://farm.example", "https://kiosk.example"}, cfg.Server.CORSOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SERVER_PORT", "eighty")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")

	t.Setenv("SERVER_PORT", "")
	t.Setenv("SPEECH_TTL", "forever")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPEECH_TTL")

	t.Setenv("SPEECH_TTL", "")
	t.Setenv("RATE_LIMIT_ENABLED", "sometimes")
	_, err = Load()
	assert.ErrorContains(t, err, "RATE_LIMIT_ENABLED")
}

func TestValidate(t *testing.T) {
	cfg := &Config{LLM: LLMConfig{DefaultProvider: "gemini"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	cfg.LLM.GeminiKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.TTS.Backend = "local"
	assert.ErrorContains(t, cfg.Validate(), "TTS_LOCAL_PIPER_MODEL")

	cfg.LLM.DefaultProvider = "mystery"
	assert.ErrorContains(t, cfg.Validate(), "unknown LLM_DEFAULT_PROVIDER")
}
