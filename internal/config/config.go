package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	// Content
	SiteFile         string // empty: embedded site definition
	DocsDir          string // empty: embedded documents
	DocsTTL          time.Duration
	DocsSyncInterval time.Duration // 0 disables scheduled sync
	DocsWatch        bool

	// Search
	SearchEngine   string
	SearchCacheTTL time.Duration

	// HTTP
	CORSOrigins     []string
	RateLimitRPS    float64
	RateLimitBurst  int
	RateLimitWindow time.Duration

	// Redis Configuration (optional, enables shared rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Tracing (optional)
	OTLPEndpoint string
}

// LoadConfig reads the environment, after applying a .env file if present
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		SiteFile:         getEnv("SITE_FILE", ""),
		DocsDir:          getEnv("DOCS_DIR", ""),
		DocsTTL:          getEnvDuration("DOCS_TTL", 7*24*time.Hour),
		DocsSyncInterval: getEnvDuration("DOCS_SYNC_INTERVAL", time.Hour),
		DocsWatch:        getEnvBool("DOCS_WATCH", true),

		SearchEngine:   getEnv("SEARCH_ENGINE", "bleve"),
		SearchCacheTTL: getEnvDuration("SEARCH_CACHE_TTL", 0),

		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080")),
		RateLimitRPS:    getEnvFloat64("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 20),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	switch c.SearchEngine {
	case "scan", "bleve":
	default:
		return fmt.Errorf("SEARCH_ENGINE must be \"scan\" or \"bleve\", got %q", c.SearchEngine)
	}
	if c.SearchCacheTTL < 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.DocsSyncInterval < 0 {
		return fmt.Errorf("DOCS_SYNC_INTERVAL must not be negative")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// RateLimitRequests is the number of requests allowed per RateLimitWindow
// by the Redis-backed limiter
func (c *Config) RateLimitRequests() int {
	n := int(c.RateLimitRPS * c.RateLimitWindow.Seconds())
	if n < c.RateLimitBurst {
		n = c.RateLimitBurst
	}
	return n
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
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "1h") or plain seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
