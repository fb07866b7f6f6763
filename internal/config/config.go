package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix      = "SEALSHEET"
	ConfigFileName = ".sealsheet.yaml"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	// PBKDF2 iteration count for new archives and one-shot encrypt/decrypt
	Iterations int    `mapstructure:"iterations"`
	Archive    string `mapstructure:"archive"`
	// Parallel sealing workers
	Workers int           `mapstructure:"workers"`
	Log     LogConfig     `mapstructure:"log"`
	Keyring KeyringConfig `mapstructure:"keyring"`

	// File the values were read from, empty when only defaults/env applied
	File string `mapstructure:"-"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// KeyringConfig for OS keyring storage.
type KeyringConfig struct {
	Service string `mapstructure:"service"`
}

// Defaults seeds v with the built-in values.
func Defaults(v *viper.Viper) {
	v.SetDefault("iterations", 10000)
	v.SetDefault("archive", ".sealsheet")
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
	v.SetDefault("keyring.service", "sealsheet")
}

// DefaultConfig returns the configuration with no file, env or flags applied.
func DefaultConfig() *Config {
	v := viper.New()
	Defaults(v)
	cfg := &Config{}
	// defaults always decode
	_ = v.Unmarshal(cfg)
	return cfg
}

// Load resolves configuration for a command run in dir. Precedence, lowest
// first: defaults, config file, SEALSHEET_* environment, changed flags.
// flags may be nil; only flags whose names match config keys are bound.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	Defaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := findConfigFile(dir); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if flags != nil {
		for _, key := range []string{"iterations", "archive", "workers"} {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file.
// The archive itself is also named .sealsheet, so lookup is by exact
// file name instead of viper's extension search.
func findConfigFile(dir string) string {
	paths := []string{filepath.Join(dir, ConfigFileName)}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "sealsheet", "config.yaml"))
	}

	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// Validate checks configuration values.
func (c *Config) Validate() error {
	if c.Iterations <= 0 {
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.Archive == "" {
		return fmt.Errorf("%w: archive name is empty", ErrInvalidConfig)
	}
	if filepath.Base(c.Archive) != c.Archive {
		return fmt.Errorf("%w: archive must be a file name, got %q", ErrInvalidConfig, c.Archive)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}
