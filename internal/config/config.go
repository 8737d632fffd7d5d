// Package config provides environment-driven configuration for leadbook.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL     Secret
	Port            string
	ListenHost      string
	MetricsPort     string
	CORSOrigins     []string
	LogLevel        string
	LogFormat       string
	WriteRateLimit  int
	WriteRateWindow time.Duration
	DBMaxConns      int32
	EnableWebSocket bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:     Secret(envOrDefault("DATABASE_URL", "")),
		Port:            envOrDefault("PORT", "3030"),
		ListenHost:      envOrDefault("LISTEN_HOST", "127.0.0.1"),
		MetricsPort:     envOrDefault("METRICS_PORT", "9091"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		EnableWebSocket: envOrDefault("ENABLE_WEBSOCKET", "true") == "true",
	}

	rateLimit, err := strconv.Atoi(envOrDefault("WRITE_RATE_LIMIT", "10"))
	if err != nil || rateLimit < 1 || rateLimit > 10000 {
		return nil, fmt.Errorf("WRITE_RATE_LIMIT must be an integer between 1 and 10000")
	}
	cfg.WriteRateLimit = rateLimit

	window, err := time.ParseDuration(envOrDefault("WRITE_RATE_WINDOW", "60s"))
	if err != nil || window < time.Second || window > time.Hour {
		return nil, fmt.Errorf("WRITE_RATE_WINDOW must be a duration between 1s and 1h")
	}
	cfg.WriteRateWindow = window

	maxConns, err := strconv.Atoi(envOrDefault("DB_MAX_CONNS", "21"))
	if err != nil || maxConns < 2 || maxConns > 200 {
		return nil, fmt.Errorf("DB_MAX_CONNS must be an integer between 2 and 200")
	}
	cfg.DBMaxConns = int32(maxConns)

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// MetricsAddr returns the Prometheus listener address in host:port format.
func (c *Config) MetricsAddr() string {
	return c.ListenHost + ":" + c.MetricsPort
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
