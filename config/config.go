// Package config loads application settings from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Search    SearchConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Log       LogConfig
	Metrics   MetricsConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"

	// TrustProxy enables gin's trusted-proxy handling so client IPs are
	// taken from X-Forwarded-For.
	TrustProxy bool // default: false

	// Workers is advisory for process managers running several instances;
	// the binary itself is single-process and only logs it.
	Workers int // default: 1
}

// BrowserConfig controls the shared headless browser.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path.
	BrowserBin string

	// MaxRequests is the number of pages served before the browser is
	// recycled. Keeps long-lived Chrome memory in check.
	MaxRequests int // default: 100

	// ProxyList is an optional list of proxy URLs assigned round-robin to
	// browser contexts.
	ProxyList []string
}

// ScraperConfig controls scraping behavior.
type ScraperConfig struct {
	// MaxConcurrency bounds concurrently executing scrapes; excess
	// requests queue in FIFO order.
	MaxConcurrency int // default: 5

	// MaxTimeout is the hard per-request ceiling. Client-supplied
	// timeouts are clamped to it.
	MaxTimeout time.Duration // default: 60s

	// DefaultTimeout applies when the client does not pass one.
	DefaultTimeout time.Duration // default: 30s

	// MaxMarkdownLength caps Markdown output in runes; 0 disables.
	MaxMarkdownLength int // default: 0
}

// SearchConfig controls the upstream SearxNG instance.
type SearchConfig struct {
	// BaseURL is the SearxNG endpoint, e.g. "http://searxng:8080".
	// Empty disables the /search route.
	BaseURL string

	// Timeout is the deadline for one upstream search query.
	Timeout time.Duration // default: 15s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// APIKeys is the list of valid API keys. Empty disables auth.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per identity.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per identity.
	Burst int // default: 10
}

// CacheConfig controls the scrape result cache.
type CacheConfig struct {
	// MaxItems is the maximum number of cached results.
	MaxItems int // default: 1000

	// TTL is how long a cached result stays fresh.
	TTL time.Duration // default: 4h
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	// Enabled mounts GET /metrics.
	Enabled bool // default: false
}

// hardMaxTimeout is the absolute ceiling on any scrape, regardless of
// configuration.
const hardMaxTimeout = 60 * time.Second

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:       envOr("FORAGE_HOST", "0.0.0.0"),
			Port:       envIntOr("FORAGE_PORT", 8080),
			Mode:       envOr("FORAGE_MODE", "release"),
			TrustProxy: envBoolOr("FORAGE_TRUST_PROXY", false),
			Workers:    envIntOr("FORAGE_WORKERS", 1),
		},
		Browser: BrowserConfig{
			Headless:    envBoolOr("FORAGE_HEADLESS", true),
			NoSandbox:   envBoolOr("FORAGE_NO_SANDBOX", false),
			BrowserBin:  os.Getenv("FORAGE_BROWSER_BIN"),
			MaxRequests: envIntOr("FORAGE_BROWSER_MAX_REQUESTS", 100),
			ProxyList:   envSliceOr("FORAGE_PROXY_LIST", nil),
		},
		Scraper: ScraperConfig{
			MaxConcurrency:    envIntOr("FORAGE_MAX_CONCURRENCY", 5),
			MaxTimeout:        envMillisOr("FORAGE_MAX_TIMEOUT_MS", hardMaxTimeout),
			DefaultTimeout:    envMillisOr("FORAGE_DEFAULT_TIMEOUT_MS", 30*time.Second),
			MaxMarkdownLength: envIntOr("FORAGE_MAX_MARKDOWN_LENGTH", 0),
		},
		Search: SearchConfig{
			BaseURL: os.Getenv("FORAGE_SEARXNG_URL"),
			Timeout: envMillisOr("FORAGE_SEARXNG_TIMEOUT_MS", 15*time.Second),
		},
		Auth: AuthConfig{
			APIKeys: envSliceOr("FORAGE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("FORAGE_RATE_RPS", 5.0),
			Burst:             envIntOr("FORAGE_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			MaxItems: envIntOr("FORAGE_CACHE_MAX_ITEMS", 1000),
			TTL:      envMillisOr("FORAGE_CACHE_TTL_MS", 4*time.Hour),
		},
		Log: LogConfig{
			Level:  envOr("FORAGE_LOG_LEVEL", "info"),
			Format: envOr("FORAGE_LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: envBoolOr("FORAGE_ENABLE_METRICS", false),
		},
	}

	if cfg.Scraper.MaxTimeout > hardMaxTimeout || cfg.Scraper.MaxTimeout <= 0 {
		cfg.Scraper.MaxTimeout = hardMaxTimeout
	}
	if cfg.Scraper.DefaultTimeout > cfg.Scraper.MaxTimeout || cfg.Scraper.DefaultTimeout <= 0 {
		cfg.Scraper.DefaultTimeout = cfg.Scraper.MaxTimeout
	}

	return cfg
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

// envMillisOr reads an integer millisecond value into a Duration.
func envMillisOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
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
