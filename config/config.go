// Package config loads server configuration from defaults, a TOML or YAML
// file, and TODOAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/abefas/GoTodoAPI/database"
	"github.com/abefas/GoTodoAPI/logging"
)

// Default values
const (
	DefaultAddr                   = ":8080"
	DefaultReadTimeoutSeconds     = 10
	DefaultWriteTimeoutSeconds    = 10
	DefaultShutdownTimeoutSeconds = 5
	DefaultLogLevel               = "info"
	DefaultLogFormat              = "text"
)

// EnvConfigFile names the environment variable holding a config file path.
const EnvConfigFile = "TODOAPI_CONFIG"

// projectConfigFiles are looked up in the working directory, in order.
var projectConfigFiles = []string{"todoapi.toml", "todoapi.yaml", "todoapi.yml"}

// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config file format")

// Config represents the application configuration
type Config struct {
	Server ServerConfig `toml:"server" yaml:"server"`
	Store  StoreConfig  `toml:"store" yaml:"store"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr                   string `toml:"addr" yaml:"addr"`
	TrustProxy             bool   `toml:"trust_proxy" yaml:"trust_proxy"`
	ReadTimeoutSeconds     int    `toml:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `toml:"write_timeout_seconds" yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
}

// StoreConfig selects the todo store.
type StoreConfig struct {
	Backend string `toml:"backend" yaml:"backend"`
	DSN     string `toml:"dsn" yaml:"dsn"`
	Seed    bool   `toml:"seed" yaml:"seed"`
}

// LogConfig controls logger level and output format.
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   DefaultAddr,
			ReadTimeoutSeconds:     DefaultReadTimeoutSeconds,
			WriteTimeoutSeconds:    DefaultWriteTimeoutSeconds,
			ShutdownTimeoutSeconds: DefaultShutdownTimeoutSeconds,
		},
		Store: StoreConfig{
			Backend: database.BackendMemory,
			DSN:     database.DefaultSQLiteDSN,
			Seed:    true,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Load loads configuration in priority order:
// 1. Defaults
// 2. Config file (path, else $TODOAPI_CONFIG, else todoapi.{toml,yaml,yml} in the working directory)
// 3. Environment variables
// The result is not validated, so callers can still apply flags.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		path = findProjectConfigFile()
	}
	if path != "" {
		if err := loadConfigFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can be used to start a server.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr must not be empty")
	}
	switch c.Store.Backend {
	case database.BackendMemory, database.BackendSQLite:
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", database.BackendMemory, database.BackendSQLite, c.Store.Backend)
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error, fatal", c.Log.Level)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("log.format %q is not one of text, json, logfmt", c.Log.Format)
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 || c.Server.ShutdownTimeoutSeconds < 0 {
		return errors.New("server timeouts must not be negative")
	}
	return nil
}

// StoreOptions converts the store section for database.Open.
func (c *Config) StoreOptions() database.Config {
	return database.Config{Backend: c.Store.Backend, DSN: c.Store.DSN}
}

// ReadTimeout returns the server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns how long graceful shutdown may take.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}

// loadConfigFile decodes path over cfg, choosing the decoder by extension.
func loadConfigFile(cfg *Config, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.DecodeFile(path, cfg)
		return err
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func findProjectConfigFile() string {
	for _, name := range projectConfigFiles {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// loadFromEnv overrides config from environment variables.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("TODOAPI_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TODOAPI_STORE"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("TODOAPI_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("TODOAPI_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TODOAPI_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"TODOAPI_SEED", &cfg.Store.Seed},
		{"TODOAPI_TRUST_PROXY", &cfg.Server.TrustProxy},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", b.key, v, err)
			}
			*b.dst = parsed
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TODOAPI_READ_TIMEOUT_SECONDS", &cfg.Server.ReadTimeoutSeconds},
		{"TODOAPI_WRITE_TIMEOUT_SECONDS", &cfg.Server.WriteTimeoutSeconds},
		{"TODOAPI_SHUTDOWN_TIMEOUT_SECONDS", &cfg.Server.ShutdownTimeoutSeconds},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s value %q: %w", i.key, v, err)
			}
			*i.dst = parsed
		}
	}
	return nil
}
