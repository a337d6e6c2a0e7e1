package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Library   LibraryConfig
	Auth      AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// EngineConfig holds pipeline engine settings. RunHistorySize and
// BreakerEnabled are read by the server; ScratchBufferBytes and
// RingBufferInitialCap are loaded but not read by the engine, which uses a
// fixed 4096-byte scratch buffer and a 1024-byte initial ring capacity.
type EngineConfig struct {
	ScratchBufferBytes   int  `envconfig:"SCRATCH_BUFFER_BYTES" default:"4096"`
	RingBufferInitialCap int  `envconfig:"RING_BUFFER_INITIAL_CAP" default:"1024"`
	RunHistorySize       int  `envconfig:"RUN_HISTORY_SIZE" default:"200"`
	BreakerEnabled       bool `envconfig:"BREAKER_ENABLED" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// LibraryConfig points at the on-disk directory of reusable pipeline
// definitions (internal/library).
type LibraryConfig struct {
	Dir string `envconfig:"PIPELINE_LIBRARY_DIR" default:"./pipelines"`
}

// AuthConfig holds the bcrypt token hashes middleware.Auth checks bearer
// tokens against. Empty Tokens disables authentication entirely (suitable
// for local development).
type AuthConfig struct {
	Tokens []string `envconfig:"AUTH_TOKEN_HASHES"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Engine: EngineConfig{
			ScratchBufferBytes:   4096,
			RingBufferInitialCap: 1024,
			RunHistorySize:       200,
			BreakerEnabled:       false,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Library: LibraryConfig{
			Dir: "./pipelines",
		},
	}
}
