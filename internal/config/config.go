// Package config provides centralized configuration management for the auction
// server and CLI. Settings come from environment variables (optionally seeded
// from a .env file) with defaults, and are validated up front so a bad value
// fails at startup instead of mid-auction.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Import   ImportConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Auction  AuctionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is 0 by default so the event stream is not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 15s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`

	// RequestTimeout is the middleware timeout for non-streaming requests.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// EventsHeartbeat is how often idle event streams get a keep-alive comment.
	EventsHeartbeat time.Duration `env:"SERVER_EVENTS_HEARTBEAT" default:"20s"`
}

// StorageConfig selects and tunes the snapshot store.
type StorageConfig struct {
	// Driver is one of: file, sqlite, postgres, memory (default: file)
	Driver string `env:"STORAGE_DRIVER" default:"file"`

	// Path is the directory for the file driver or the database file for sqlite.
	Path string `env:"STORAGE_PATH" default:"data"`

	// DatabaseURL is the PostgreSQL connection string, used by the postgres driver.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// BusyTimeout is the sqlite busy_timeout pragma.
	BusyTimeout time.Duration `env:"SQLITE_BUSY_TIMEOUT" default:"5s"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// YearPolicy is verbatim, batch or graduation (default: verbatim)
	YearPolicy string `env:"IMPORT_YEAR_POLICY" default:"verbatim"`

	// Timeout bounds a single parse.
	Timeout time.Duration `env:"IMPORT_TIMEOUT" default:"1m"`

	// MaxConcurrent is how many imports may parse at once (default: 2)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"2"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// ImportLimit is requests per minute for the import endpoints (default: 10)
	ImportLimit int `env:"RATE_LIMIT_IMPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of CIDRs allowed to set
	// X-Forwarded-For / X-Real-IP.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey gates state-changing API calls behind X-API-Key.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted operator keys.
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// AuctionConfig holds auction defaults.
type AuctionConfig struct {
	// DefaultBudget pre-fills the new team form (default: 1000)
	DefaultBudget int `env:"AUCTION_DEFAULT_BUDGET" default:"1000"`

	// ActivityLimit is how many activity entries are kept in memory.
	ActivityLimit int `env:"AUCTION_ACTIVITY_LIMIT" default:"500"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
