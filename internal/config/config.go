// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port    int
	BaseURL string

	// Database (libsql DSN; optionally synced to Turso, see TURSO_URL/TURSO_AUTH_TOKEN)
	DatabaseURL string

	// Authentication for the HTTP surface
	JWTSecret string
	JWTExpiry time.Duration

	// CORS
	CORSOrigins []string

	// Telemetry
	TelemetryDisabled bool

	// Object Storage (Tigris/S3-compatible) for untruncated artifact bodies
	StorageEnabled   bool
	StorageEndpoint  string // AWS_ENDPOINT_URL_S3
	StorageAccessKey string // AWS_ACCESS_KEY_ID
	StorageSecretKey string // AWS_SECRET_ACCESS_KEY
	StorageBucket    string // BUCKET_NAME / STORAGE_BUCKET
	StorageRegion    string // AWS_REGION

	// Idle shutdown (scale-to-zero)
	IdleTimeout time.Duration

	// LLM client (C8 strategy E)
	AnthropicAPIKey string
	AnthropicModel  string
	AnthropicMaxTok int

	// Registrar lookup timeouts (C4)
	RDAPTimeout  time.Duration
	WhoisTimeout time.Duration

	// Default domain policy (§6 entry point defaults)
	DefaultMaxPagesPerRun   int
	DefaultCrawlDelayMs     int
	DefaultRequestTimeoutMs int
	DefaultMaxDepth         int
	DefaultAllowSubdomains  bool
	DefaultRespectRobots    bool

	// Headless-browser fallback (C2)
	BrowserEnabled   bool
	BrowserNavTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),
		DatabaseURL: getEnv("DATABASE_URL", "file:riskintel.db?_journal=WAL&_timeout=5000"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: getEnvDuration("JWT_EXPIRY", 15*time.Minute),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"http://localhost:3000"}),

		TelemetryDisabled: getEnvBool("RISKINTEL_TELEMETRY_DISABLED", false),

		StorageEndpoint:  getEnv("AWS_ENDPOINT_URL_S3", ""),
		StorageAccessKey: getEnv("AWS_ACCESS_KEY_ID", ""),
		StorageSecretKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		StorageBucket:    getEnvWithFallback("BUCKET_NAME", "STORAGE_BUCKET", ""),
		StorageRegion:    getEnv("AWS_REGION", "auto"),

		IdleTimeout: getEnvDuration("IDLE_TIMEOUT", 0),

		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicMaxTok: getEnvInt("ANTHROPIC_MAX_TOKENS", 500),

		RDAPTimeout:  getEnvDuration("RDAP_TIMEOUT", 10*time.Second),
		WhoisTimeout: getEnvDuration("WHOIS_TIMEOUT", 15*time.Second),

		DefaultMaxPagesPerRun:   getEnvInt("DEFAULT_MAX_PAGES_PER_RUN", 50),
		DefaultCrawlDelayMs:     getEnvInt("DEFAULT_CRAWL_DELAY_MS", 1000),
		DefaultRequestTimeoutMs: getEnvInt("DEFAULT_REQUEST_TIMEOUT_MS", 8000),
		DefaultMaxDepth:         getEnvInt("DEFAULT_MAX_DEPTH", 2),
		DefaultAllowSubdomains:  getEnvBool("DEFAULT_ALLOW_SUBDOMAINS", true),
		DefaultRespectRobots:    getEnvBool("DEFAULT_RESPECT_ROBOTS", true),

		BrowserEnabled:    getEnvBool("BROWSER_ENABLED", true),
		BrowserNavTimeout: getEnvDuration("BROWSER_NAV_TIMEOUT", 60*time.Second),
	}

	cfg.StorageEnabled = cfg.StorageBucket != "" && cfg.StorageEndpoint != ""

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// HasLLM returns true if an Anthropic API key is configured, enabling C8 strategy E.
func (c *Config) HasLLM() bool {
	return c.AnthropicAPIKey != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		lower := strings.ToLower(value)
		return lower == "true" || lower == "1" || lower == "yes"
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value := os.Getenv(primary); value != "" {
		return value
	}
	if value := os.Getenv(fallback); value != "" {
		return value
	}
	return defaultValue
}
