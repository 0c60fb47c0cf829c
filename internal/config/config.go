// Package config loads application configuration from an optional YAML
// file overlaid by SHEETBRIDGE_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// envPrefix namespaces the environment variables.
const envPrefix = "SHEETBRIDGE"

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Security SecurityConfig `yaml:"security" envconfig:"SECURITY"`
	Matching MatchingConfig `yaml:"matching" envconfig:"MATCHING"`
	Session  SessionConfig  `yaml:"session" envconfig:"SESSION"`
	Report   ReportConfig   `yaml:"report" envconfig:"REPORT"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// MaxUploadBytes caps one uploaded spreadsheet.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"min=1"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	// FilePath receives log output when Output is file or both.
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// SecurityConfig contains rate limiting configuration.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig throttles the HTTP surface.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" validate:"min=0"`
	Burst   int     `yaml:"burst" envconfig:"BURST" validate:"min=0"`
}

// MatchingConfig carries the defaults of the similarity engine.
type MatchingConfig struct {
	// DefaultThreshold is the minimum score for an auto-suggested
	// correspondence entry.
	DefaultThreshold int `yaml:"default_threshold" envconfig:"DEFAULT_THRESHOLD" validate:"min=0,max=100"`
	// CanonicalThreshold is the separate threshold the canonical attendance
	// vocabulary is aligned with.
	CanonicalThreshold int `yaml:"canonical_threshold" envconfig:"CANONICAL_THRESHOLD" validate:"min=0,max=100"`
	// CaseSensitive keeps letter case significant during label comparison.
	CaseSensitive bool `yaml:"case_sensitive" envconfig:"CASE_SENSITIVE"`
}

// SessionConfig controls session and parse-cache lifetimes.
type SessionConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl" envconfig:"IDLE_TTL" validate:"min=1s"`
	ParseCacheTTL time.Duration `yaml:"parse_cache_ttl" envconfig:"PARSE_CACHE_TTL" validate:"min=1s"`
}

// ReportConfig carries presentation defaults for the grouped report.
type ReportConfig struct {
	Title string `yaml:"title" envconfig:"TITLE" validate:"required"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  16 << 20,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/sheetbridge.log",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{Enabled: true, RPS: 50, Burst: 25},
		},
		Matching: MatchingConfig{
			DefaultThreshold:   70,
			CanonicalThreshold: 60,
		},
		Session: SessionConfig{
			IdleTTL:       30 * time.Minute,
			ParseCacheTTL: 10 * time.Minute,
		},
		Report: ReportConfig{Title: "Attendance Report"},
	}
}

// Load builds the configuration: defaults, then the optional YAML file
// (path from SHEETBRIDGE_CONFIG, falling back to config.yaml when present),
// then environment variable overrides, then validation.
func Load() (*Config, error) {
	cfg := Default()

	path := os.Getenv(envPrefix + "_CONFIG")
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks the configuration's structural constraints.
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}
