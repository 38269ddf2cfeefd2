package config

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LINKCARD_PORT", "")
	t.Setenv("LINKCARD_FETCH_MODE", "")
	t.Setenv("LINKCARD_FETCH_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Fetch.Mode)
	assert.Zero(t, cfg.Fetch.Timeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 365, cfg.Store.CookieExpiryDays)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("LINKCARD_PORT", "9090")
	t.Setenv("LINKCARD_FETCH_TIMEOUT", "15s")
	t.Setenv("LINKCARD_API_KEYS", " key-a , ,key-b")
	t.Setenv("LINKCARD_AFFILIATE_TAG", "mtane0412-22")
	t.Setenv("LINKCARD_RATE_RPS", "not-a-number")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Auth.APIKeys)
	assert.Equal(t, "mtane0412-22", cfg.Affiliate.Tag)
	assert.Equal(t, 2.0, cfg.RateLimit.RequestsPerSecond, "unparseable values fall back")
	assert.Equal(t, "0.0.0.0:9090", cfg.Addr())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "unknown fetch mode",
			mutate:  func(c *Config) { c.Fetch.Mode = "curl" },
			wantErr: "fetch mode",
		},
		{
			name:    "browser mode without browser",
			mutate:  func(c *Config) { c.Fetch.Mode = "browser"; c.Browser.Enabled = false },
			wantErr: "LINKCARD_BROWSER",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Fetch.Timeout = -time.Second },
			wantErr: "timeout",
		},
		{
			name:    "socks proxy",
			mutate:  func(c *Config) { c.Fetch.Proxy = "socks5://127.0.0.1:1080" },
			wantErr: "proxy",
		},
		{
			name:    "auth without keys",
			mutate:  func(c *Config) { c.Auth.Enabled = true; c.Auth.APIKeys = nil },
			wantErr: "API keys",
		},
		{
			name:    "zero burst",
			mutate:  func(c *Config) { c.RateLimit.Burst = 0 },
			wantErr: "rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLogConfig_Handler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := LogConfig{Level: "warn", Format: "text"}.Handler(&buf)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelWarn))

	slog.New(h).Warn("blocked", "status", 503)
	assert.Contains(t, buf.String(), "msg=blocked status=503")

	buf.Reset()
	slog.New(LogConfig{Level: "debug"}.Handler(&buf)).Debug("tier", "title", 1)
	assert.Contains(t, buf.String(), `"msg":"tier"`)
}
