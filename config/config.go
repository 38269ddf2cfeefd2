package config

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/use-agent/linkcard/models"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Fetch     FetchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Affiliate AffiliateConfig
	Store     StoreConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// AllowedOrigins is sent as Access-Control-Allow-Origin. "*" allows any.
	AllowedOrigins []string // default: ["*"]
}

// BrowserConfig controls the Rod browser instance.
type BrowserConfig struct {
	// Enabled launches Chrome at startup so fetch_mode=browser is available.
	Enabled bool // default: false

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// MaxPages is the page pool capacity (max concurrent tabs).
	MaxPages int // default: 4

	// Proxy is the proxy URL Chrome is launched with.
	Proxy string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// NavigationTimeout bounds page navigation and load.
	NavigationTimeout time.Duration // default: 30s

	// BlockedResourceTypes lists resource types that are never downloaded.
	// default: ["Image", "Stylesheet", "Font", "Media"]
	BlockedResourceTypes []string
}

// FetchConfig controls the remote product page fetch.
type FetchConfig struct {
	// Mode is the default engine: "http" or "browser".
	Mode string // default: "http"

	// Timeout bounds one HTTP fetch. Zero keeps the transport defaults.
	Timeout time.Duration // default: 0

	// Proxy is an http(s) proxy for the HTTP engine.
	Proxy string
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: false

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 // default: 2

	// Burst is the maximum burst size per client.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// AffiliateConfig controls the affiliate rewrite of card links.
type AffiliateConfig struct {
	// Tag is applied when a request does not carry its own.
	Tag string
}

// StoreConfig controls the local session cookie store.
type StoreConfig struct {
	// Path is the sqlite database file. ":memory:" keeps nothing on disk.
	Path string // default: "linkcard.db"

	// CookieExpiryDays is how long a saved cookie stays valid.
	CookieExpiryDays int // default: 365
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:           envOr("LINKCARD_HOST", "0.0.0.0"),
			Port:           envIntOr("LINKCARD_PORT", 8080),
			Mode:           envOr("LINKCARD_MODE", "release"),
			AllowedOrigins: envSliceOr("LINKCARD_ALLOWED_ORIGINS", []string{"*"}),
		},
		Browser: BrowserConfig{
			Enabled:           envBoolOr("LINKCARD_BROWSER", false),
			Headless:          envBoolOr("LINKCARD_HEADLESS", true),
			MaxPages:          envIntOr("LINKCARD_MAX_PAGES", 4),
			Proxy:             os.Getenv("LINKCARD_BROWSER_PROXY"),
			NoSandbox:         envBoolOr("LINKCARD_NO_SANDBOX", false),
			BrowserBin:        os.Getenv("LINKCARD_BROWSER_BIN"),
			NavigationTimeout: envDurationOr("LINKCARD_NAV_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("LINKCARD_BLOCKED_RESOURCES", []string{
				"Image", "Stylesheet", "Font", "Media",
			}),
		},
		Fetch: FetchConfig{
			Mode:    envOr("LINKCARD_FETCH_MODE", models.FetchModeHTTP),
			Timeout: envDurationOr("LINKCARD_FETCH_TIMEOUT", 0),
			Proxy:   os.Getenv("LINKCARD_PROXY"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LINKCARD_AUTH_ENABLED", false),
			APIKeys: envSliceOr("LINKCARD_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LINKCARD_RATE_RPS", 2.0),
			Burst:             envIntOr("LINKCARD_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("LINKCARD_LOG_LEVEL", "info"),
			Format: envOr("LINKCARD_LOG_FORMAT", "json"),
		},
		Affiliate: AffiliateConfig{
			Tag: os.Getenv("LINKCARD_AFFILIATE_TAG"),
		},
		Store: StoreConfig{
			Path:             envOr("LINKCARD_STORE_PATH", "linkcard.db"),
			CookieExpiryDays: envIntOr("LINKCARD_COOKIE_EXPIRY_DAYS", 365),
		},
	}
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Server.Port)
	}
	switch c.Fetch.Mode {
	case models.FetchModeHTTP:
	case models.FetchModeBrowser:
		if !c.Browser.Enabled {
			return fmt.Errorf("config: fetch mode %q needs LINKCARD_BROWSER=true", c.Fetch.Mode)
		}
	default:
		return fmt.Errorf("config: unknown fetch mode %q", c.Fetch.Mode)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("config: fetch timeout must not be negative")
	}
	if c.Fetch.Proxy != "" {
		if u, err := url.Parse(c.Fetch.Proxy); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("config: proxy %q must be an http or https URL", c.Fetch.Proxy)
		}
	}
	if c.Browser.Enabled && c.Browser.MaxPages <= 0 {
		return fmt.Errorf("config: max pages must be positive")
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 {
		return fmt.Errorf("config: auth enabled without API keys")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("config: rate limit must be positive")
	}
	return nil
}

// Handler builds the slog handler described by the LogConfig, writing to w.
func (c LogConfig) Handler(w io.Writer) slog.Handler {
	var level slog.Level
	switch c.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// Addr returns the host:port the server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
