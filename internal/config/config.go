// Package config loads parley configuration. Precedence is defaults, then
// the config file, then PARLEY_* environment variables; per-call values (a
// tool call's own timeout) are applied by the caller and beat everything
// here.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Version is the current supported config schema version.
const Version = 1

// DefaultTimeout is the per-question timeout when neither the config file
// nor the caller provides one.
const DefaultTimeout = 60 * time.Second

// Config is the parley configuration.
type Config struct {
	Version int `toml:"version"`

	Ask struct {
		TimeoutSeconds int `toml:"timeout_seconds"`
	} `toml:"ask"`

	Terminal struct {
		// Program is the preferred terminal emulator. Empty means
		// auto-detect.
		Program string `toml:"program"`
	} `toml:"terminal"`

	Log struct {
		// File is the serve-mode log destination. Empty means stderr.
		File string `toml:"file"`
	} `toml:"log"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{Version: Version}
	cfg.Ask.TimeoutSeconds = int(DefaultTimeout / time.Second)
	return cfg
}

// AskTimeout returns the default per-question timeout as a duration.
func (c *Config) AskTimeout() time.Duration {
	return time.Duration(c.Ask.TimeoutSeconds) * time.Second
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Version != Version {
		return fmt.Errorf("unsupported config version %d (expected %d)", c.Version, Version)
	}
	if c.Ask.TimeoutSeconds <= 0 {
		return fmt.Errorf("ask.timeout_seconds must be positive, got %d", c.Ask.TimeoutSeconds)
	}
	return nil
}

// Path returns the config file location: $PARLEY_CONFIG if set, otherwise
// ~/.config/parley/config.toml.
func Path() string {
	if p := os.Getenv("PARLEY_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "parley", "config.toml")
}

// Load builds the effective configuration. A missing config file is not an
// error; the defaults apply.
func Load() (*Config, error) {
	return load(Path(), os.Getenv)
}

// load is the testable core of Load.
func load(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults apply.
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}

	if err := applyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv layers PARLEY_* variables over the file values.
func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PARLEY_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PARLEY_TIMEOUT_SECONDS %q: %w", v, err)
		}
		cfg.Ask.TimeoutSeconds = n
	}
	if v := getenv("PARLEY_TERMINAL"); v != "" {
		cfg.Terminal.Program = v
	}
	if v := getenv("PARLEY_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}
