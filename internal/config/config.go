package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Interval      time.Duration `yaml:"interval"`
	IncludeSystem bool          `yaml:"include_system"`
	Hotplug       Hotplug       `yaml:"hotplug"`
	Journal       Journal       `yaml:"journal"`
	Log           Log           `yaml:"log"`
}

type Hotplug struct {
	Enabled bool          `yaml:"enabled"`
	Paths   []string      `yaml:"paths"`
	Settle  time.Duration `yaml:"settle"`
}

type Journal struct {
	// Path of the sqlite event journal; empty disables it
	Path string `yaml:"path"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// defaultConfig is used when no config file exists and fills unset fields
var defaultConfig = Config{
	Interval: time.Second,
	Hotplug: Hotplug{
		Enabled: true,
		Paths:   []string{"/dev/disk/by-id"},
		Settle:  250 * time.Millisecond,
	},
	Log: Log{
		Level:  "info",
		Format: "text",
	},
}

// Default returns a copy of the built-in configuration
func Default() *Config {
	cfg := defaultConfig
	cfg.Hotplug.Paths = slices.Clone(defaultConfig.Hotplug.Paths)
	return &cfg
}

// Load reads the config at path, or the first one found in the default
// locations when path is empty. With no file at all the defaults are used.
func Load(path string) (*Config, error) {
	if path == "" {
		candidates := []string{
			"/etc/drivescan/config.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/drivescan/config.yaml"),
			"config.yaml",
		}
		for _, c := range candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if cfg.Hotplug.Paths == nil {
		cfg.Hotplug.Paths = slices.Clone(defaultConfig.Hotplug.Paths)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultConfig.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaultConfig.Log.Format
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalid, c.Interval)
	}
	if c.Hotplug.Settle < 0 {
		return fmt.Errorf("%w: hotplug.settle must not be negative", ErrInvalid)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: log.format must be text or json, got %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// SlogLevel maps the configured level name to a slog level
func (l Log) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log.level %q", ErrInvalid, l.Level)
	}
}
