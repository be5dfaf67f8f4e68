package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"PORT", "ISS_API_URL", "ISS_REQUEST_TIMEOUT", "NABAZTAG_HOST", "NABAZTAG_PORT",
	"NABAZTAG_TIMEOUT", "WEB_DISPATCH_ENABLED", "WEB_DISPATCH_COOLDOWN",
	"WEB_REFRESH_SECONDS", "WEB_POLL_SECONDS", "API_DEFAULT_LIMIT", "DATABASE_URL", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.False(t, cfg.DispatchEnabled)
	assert.Equal(t, time.Minute, cfg.DispatchCooldown)
	assert.Equal(t, 60, cfg.RefreshSeconds)
	assert.Equal(t, "localhost", cfg.NabaztagHost)
	assert.Equal(t, 1234, cfg.NabaztagPort)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("WEB_DISPATCH_ENABLED", "true")
	t.Setenv("WEB_DISPATCH_COOLDOWN", "5m")
	t.Setenv("API_DEFAULT_LIMIT", "10")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr())
	assert.True(t, cfg.DispatchEnabled)
	assert.Equal(t, 5*time.Minute, cfg.DispatchCooldown)
	assert.Equal(t, 10, cfg.DefaultLimit)
}

func TestLoadInvalid(t *testing.T) {
	tests := map[string]string{
		"PORT":                 "-1",
		"WEB_DISPATCH_ENABLED": "maybe",
		"NABAZTAG_TIMEOUT":     "soon",
		"WEB_REFRESH_SECONDS":  "0",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
