// Package config provides centralized configuration management for creditdesk.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"net/url"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Loader   LoaderConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Report   ReportConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 10m, covers a full load run)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"10m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 10m)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"10m"`
}

// DatabaseConfig holds database connection settings.
// Either URL or Host and Name must be set.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// Host, Port, Name, User, Password and SSLMode build the connection
	// string when URL is empty. DB_SERVER is accepted for Host.
	Host     string `env:"DB_HOST" envAlt:"DB_SERVER"`
	Port     int    `env:"DB_PORT" default:"5432"`
	Name     string `env:"DB_NAME"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASSWORD"`
	SSLMode  string `env:"DB_SSLMODE" default:"disable"`

	// AutoSchema creates missing tables at startup (default: true)
	AutoSchema bool `env:"DB_AUTO_SCHEMA" default:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// LoaderConfig holds CSV loader settings.
type LoaderConfig struct {
	// DataDir holds <entity>.csv files (default: data)
	DataDir string `env:"LOADER_DATA_DIR" default:"data"`

	// Delimiter is the field separator; "tab" or "\t" selects a tab (default: ,)
	Delimiter string `env:"LOADER_DELIMITER" default:","`

	// DayFirst reads 02/01/2006 as 2 January (default: true)
	DayFirst bool `env:"LOADER_DAY_FIRST" default:"true"`

	// OnDuplicate is update or skip (default: update)
	OnDuplicate string `env:"LOADER_ON_DUPLICATE" default:"update"`

	// Commit is file or row (default: file)
	Commit string `env:"LOADER_COMMIT" default:"file"`

	// MaxFileSize is the maximum accepted file size, e.g. 512KB (default: 100MB)
	MaxFileSize ByteSize `env:"LOADER_MAX_FILE_SIZE" default:"100MB"`

	// Timeout bounds a single run (default: 10m)
	Timeout time.Duration `env:"LOADER_TIMEOUT" default:"10m"`
}

// ByteSize is a size in bytes read from values like "100MB".
type ByteSize int64

// Bytes returns b as a plain byte count.
func (b ByteSize) Bytes() int64 { return int64(b) }

// UploadConfig holds HTTP upload settings.
type UploadConfig struct {
	// MaxConcurrent is the maximum number of parallel uploads (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for load and upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// ReportConfig names the dictionary entries the reports are keyed on.
type ReportConfig struct {
	IssuanceCategory   string `env:"REPORT_ISSUANCE_CATEGORY" default:"issuance"`
	CollectionCategory string `env:"REPORT_COLLECTION_CATEGORY" default:"collection"`
	BodyPaymentType    string `env:"REPORT_BODY_PAYMENT_TYPE" default:"body"`
	PercentPaymentType string `env:"REPORT_PERCENT_PAYMENT_TYPE" default:"percent"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns the connection string: URL when set, otherwise a postgres://
// URL built from the individual settings.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	switch {
	case c.User != "" && c.Password != "":
		u.User = url.UserPassword(c.User, c.Password)
	case c.User != "":
		u.User = url.User(c.User)
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}
