// Package config provides centralized configuration management for the application.
// It loads configuration from an optional YAML file and environment variables with
// sensible defaults, and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Validation ValidationConfig `yaml:"validation"`
	Upload     UploadConfig     `yaml:"upload"`
	Rate       RateLimitConfig  `yaml:"rate"`
	Security   SecurityConfig   `yaml:"security"`
	Database   DatabaseConfig   `yaml:"database"`
	History    HistoryConfig    `yaml:"history"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 5m)
	ReadTimeout time.Duration `yaml:"readTimeout" env:"SERVER_READ_TIMEOUT" default:"5m"`

	// WriteTimeout is the maximum duration for writing response (default: 5m)
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"SERVER_WRITE_TIMEOUT" default:"5m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idleTimeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// ValidationConfig holds the thresholds applied to every file.
type ValidationConfig struct {
	// RowLimit is the maximum number of CSV rows, header included (default: 50000)
	RowLimit int `yaml:"rowLimit" env:"VALIDATION_ROW_LIMIT" default:"50000"`

	// PreviewLines is the number of lines read for the preview (default: 4)
	PreviewLines int `yaml:"previewLines" env:"VALIDATION_PREVIEW_LINES" default:"4"`

	// ChunkSize is the number of bytes read per chunk (default: 64KiB)
	ChunkSize int `yaml:"chunkSize" env:"VALIDATION_CHUNK_SIZE" default:"65536"`

	// MaxLineBytes is the longest physical line accepted (default: 1MiB)
	MaxLineBytes int `yaml:"maxLineBytes" env:"VALIDATION_MAX_LINE_BYTES" default:"1048576"`
}

// UploadConfig holds upload handling settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 1GiB)
	MaxFileSize int64 `yaml:"maxFileSize" env:"UPLOAD_MAX_FILE_SIZE" default:"1073741824"`

	// MaxConcurrent is the maximum number of parallel validations (default: 5)
	MaxConcurrent int `yaml:"maxConcurrent" env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for a validation slot (default: 30s)
	MaxWaitTime time.Duration `yaml:"maxWaitTime" env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// Timeout is the maximum duration for a single validation (default: 2m)
	Timeout time.Duration `yaml:"timeout" env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requestsPerMinute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ValidateLimit is requests per minute for the validate endpoint (default: 20)
	ValidateLimit int `yaml:"validateLimit" env:"RATE_LIMIT_VALIDATE" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trustedProxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enableCsp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey enforces API key authentication on /api routes (default: false)
	RequireAPIKey bool `yaml:"requireApiKey" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `yaml:"apiKeys" env:"API_KEYS"`
}

// DatabaseConfig holds database connection settings.
// The database only stores validation history and is optional.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string; empty keeps history in memory
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `yaml:"maxConns" env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `yaml:"minConns" env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// HistoryConfig holds validation history settings.
type HistoryConfig struct {
	// MemorySize is the number of records kept without a database (default: 500)
	MemorySize int `yaml:"memorySize" env:"HISTORY_MEMORY_SIZE" default:"500"`

	// RetentionDays is days to keep history records (default: 30)
	RetentionDays int `yaml:"retentionDays" env:"HISTORY_RETENTION_DAYS" default:"30"`

	// CheckInterval is how often to prune old records (default: 24h)
	CheckInterval time.Duration `yaml:"checkInterval" env:"HISTORY_CHECK_INTERVAL" default:"24h"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
