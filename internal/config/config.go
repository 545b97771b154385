// Package config loads arcade settings: built-in defaults, then an optional
// YAML file, then MINDFUL_* environment variables, then validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "MINDFUL_"

	appConfigDirName = "mindful-arcade"
	dbFileName       = "arcade.db"
	configFileName   = "config.yaml"
)

// Config holds all arcade configuration.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr" env:"HTTP_ADDR" validate:"required,hostname_port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" validate:"min=0"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" validate:"gt=0"`

	DBPath string `yaml:"db_path" env:"DB_PATH" validate:"required"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" validate:"oneof=json console"`

	// APIToken guards mutating HTTP routes. Empty falls back to the keyring.
	APIToken string `yaml:"api_token" env:"API_TOKEN"`

	// Seed fixes the random source; 0 draws one from crypto/rand.
	Seed        uint64 `yaml:"seed" env:"SEED"`
	MemoryPairs int    `yaml:"memory_pairs" env:"MEMORY_PAIRS" validate:"min=1,max=8"`

	// ServerSeed and ClientSeed switch every game to a replayable HMAC
	// stream. Seed is ignored while they are set.
	ServerSeed string `yaml:"server_seed" env:"SERVER_SEED" validate:"required_with=ClientSeed"`
	ClientSeed string `yaml:"client_seed" env:"CLIENT_SEED" validate:"required_with=ServerSeed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr:        "127.0.0.1:17890",
		ShutdownTimeout: 5 * time.Second,
		RequestTimeout:  30 * time.Second,
		DBPath:          filepath.Join(AppDataDir(), dbFileName),
		LogLevel:        "info",
		LogFormat:       "json",
		MemoryPairs:     8,
	}
}

// DefaultPath is the config file looked up when none is given.
func DefaultPath() string {
	return filepath.Join(AppDataDir(), configFileName)
}

// AppDataDir returns an OS-appropriate writable directory.
func AppDataDir() string {
	if d, err := os.UserConfigDir(); err == nil && d != "" {
		return filepath.Join(d, appConfigDirName)
	}
	if h, err := os.UserHomeDir(); err == nil && h != "" {
		return filepath.Join(h, "."+appConfigDirName)
	}
	return "."
}

// Load builds the configuration. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EnsureDataDir creates the directory holding DBPath.
func (c *Config) EnsureDataDir() error {
	dir := filepath.Dir(c.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
