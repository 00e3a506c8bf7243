// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `{"bot_token": "123:abc"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, DefaultStartBalance, cfg.StartBalance)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultFeedURL, cfg.FeedURL)
	assert.Equal(t, DefaultRequestTimeoutMs, cfg.RequestTimeoutMs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `{
		"bot_token": "123:abc",
		"start_balance": 25,
		"port": 9000,
		"request_timeout_ms": 5000,
		"debug_logging": true
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 25.0, cfg.StartBalance)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 5000, cfg.RequestTimeoutMs)
	assert.True(t, cfg.DebugLogging)
}

func TestLoadConfig_MissingToken(t *testing.T) {
	path := writeConfig(t, `{}`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot_token")
}

func TestLoadConfig_TokenFromEnvironment(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env:token")
	path := writeConfig(t, `{}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env:token", cfg.BotToken)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env:token")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Equal(t, "env:token", cfg.BotToken)
	assert.Equal(t, DefaultStartBalance, cfg.StartBalance)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		wantErr  string
	}{
		{"negative balance", `{"bot_token": "t", "start_balance": -1}`, "start_balance"},
		{"zero timeout", `{"bot_token": "t", "request_timeout_ms": 0}`, "request_timeout_ms"},
		{"bad port", `{"bot_token": "t", "port": 70000}`, "port"},
		{"bad feed url", `{"bot_token": "t", "feed_url": "ftp://feed"}`, "feed_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.contents))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
