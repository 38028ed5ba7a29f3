package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server" toml:"server"`
	Files       FilesConfig       `yaml:"files" toml:"files"`
	Logging     LogConfig         `yaml:"logging" toml:"logging"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit" toml:"rate_limit"`
	Compression CompressionConfig `yaml:"compression" toml:"compression"`
	CORS        CORSConfig        `yaml:"cors" toml:"cors"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"5000" yaml:"port" toml:"port"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0" yaml:"host" toml:"host"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s" yaml:"read_timeout" toml:"-"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"5m" yaml:"write_timeout" toml:"-"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"-"`
}

// FilesConfig holds the served root and the shared secret guarding mutations.
type FilesConfig struct {
	APIKey           string `envconfig:"API_KEY" yaml:"api_key" toml:"api_key"`
	APIKeyBcrypt     string `envconfig:"API_KEY_BCRYPT" yaml:"api_key_bcrypt" toml:"api_key_bcrypt"`
	Environment      string `envconfig:"ENVIRONMENT" default:"development" yaml:"environment" toml:"environment"`
	BaseDir          string `envconfig:"BASE_DIR" default:"./files" yaml:"base_dir" toml:"base_dir"`
	SniffContent     bool   `envconfig:"SNIFF_CONTENT" default:"true" yaml:"sniff_content" toml:"sniff_content"`
	SearchMaxResults int    `envconfig:"SEARCH_MAX_RESULTS" default:"1000" yaml:"search_max_results" toml:"search_max_results"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// CompressionConfig controls gzip compression of JSON responses.
type CompressionConfig struct {
	Enabled bool `envconfig:"COMPRESSION_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// CORSConfig holds the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"*" yaml:"allow_origins" toml:"allow_origins"`
}

// Load loads configuration from environment variables. When CONFIG_FILE is
// set, values from that file are applied on top.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// LoadFile loads configuration from the environment and then overlays the
// YAML or TOML file at path.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.applyFile(path); err != nil {
		return nil, err
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
			Port:            "5000",
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Files: FilesConfig{
			Environment:      "development",
			BaseDir:          "./files",
			SniffContent:     true,
			SearchMaxResults: 1000,
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
		Compression: CompressionConfig{
			Enabled: true,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
	}
}

// Validate checks the configuration for values the server cannot start with.
// An empty API key is not an error here: mutations then fail with a
// configuration error at request time.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Files.BaseDir) == "" {
		return fmt.Errorf("BASE_DIR must not be empty")
	}
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Server.Port)
	}
	if c.Files.SearchMaxResults < 1 {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be positive, got %d", c.Files.SearchMaxResults)
	}
	if len(c.CORS.AllowOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOW_ORIGINS must name at least one origin")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond < 1 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("rate limit requires positive RATE_LIMIT_RPS and RATE_LIMIT_BURST")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return c.Server.Host + ":" + c.Server.Port
}

// applyFile decodes a YAML or TOML file over the receiver, chosen by extension.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse yaml config %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("failed to parse toml config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported config file format %q", filepath.Ext(path))
	}
	return nil
}
