// Package config loads settings for the loader CLI and the browse server from
// environment variables, with defaults, and validates them on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Store   StoreConfig
	Load    LoadConfig
	Server  ServerConfig
	Logging LoggingConfig
}

// StoreConfig selects and tunes the relational store.
type StoreConfig struct {
	// Dialect is the SQL engine: sqlite or postgres (default: sqlite)
	Dialect string `env:"STORE_DIALECT" default:"sqlite"`

	// Suffix is appended to SQLite store paths that lack it (default: .db)
	Suffix string `env:"STORE_SUFFIX" default:".db"`

	// ForeignKeys turns on SQLite foreign-key enforcement (default: true)
	ForeignKeys bool `env:"STORE_FOREIGN_KEYS" default:"true"`
}

// LoadConfig tunes a load run.
type LoadConfig struct {
	// BatchSize is the number of rows per INSERT statement (default: 20)
	BatchSize int `env:"LOAD_BATCH_SIZE" default:"20"`

	// ScratchDir is where archives are unpacked; empty means a fresh
	// directory under the system temp dir per run
	ScratchDir string `env:"LOAD_SCRATCH_DIR" envAlt:"SCRATCH_DIR"`

	// Manifest is "named", "positional" or a YAML manifest path (default: named)
	Manifest string `env:"LOAD_MANIFEST" default:"named"`

	// MaxEntrySize caps one decompressed archive entry; accepts KiB/MiB/GiB
	// suffixes (default: 1GiB)
	MaxEntrySize int64 `env:"LOAD_MAX_ENTRY_SIZE" default:"1GiB"`
}

// ServerConfig holds settings for the read-only browse API.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// StorePath is the store the server reads; required by the server only
	StorePath string `env:"SERVER_STORE_PATH"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`

	// RateLimit is requests per minute per client IP; 0 disables (default: 100)
	RateLimit int `env:"SERVER_RATE_LIMIT" default:"100"`

	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honored
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
