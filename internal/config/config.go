// Package config loads cavewalls settings from a TOML file overlaid by
// CAVEWALLS_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/roach88/cavewalls/internal/importtree"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "cavewalls.toml"

// Config holds all user-facing configuration for cavewalls.
type Config struct {
	Store  StoreConfig  `toml:"store"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

type StoreConfig struct {
	Path string `toml:"path" env:"CAVEWALLS_DB"`
}

type ImportConfig struct {
	// RootName names the staging root when several files are imported.
	RootName string `toml:"root_name" env:"CAVEWALLS_ROOT_NAME"`
	// TripPrefix replaces the file name in default trip names.
	TripPrefix string `toml:"trip_prefix" env:"CAVEWALLS_TRIP_PREFIX"`
	// DefaultType is the import type given to the roots when no plan is used.
	DefaultType  string `toml:"default_type" env:"CAVEWALLS_DEFAULT_TYPE"`
	MarkExisting bool   `toml:"mark_existing" env:"CAVEWALLS_MARK_EXISTING"`
}

type LogConfig struct {
	Level string `toml:"level" env:"CAVEWALLS_LOG_LEVEL"`
}

// Defaults returns a Config populated with built-in default values.
func Defaults() *Config {
	return &Config{
		Store:  StoreConfig{Path: "cavewalls.db"},
		Import: ImportConfig{RootName: "Walls Import", DefaultType: importtree.NewCave.String(), MarkExisting: true},
		Log:    LogConfig{Level: "warn"},
	}
}

// Load reads a TOML config file and applies environment overrides. If the
// file does not exist, built-in defaults are used without error.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// load takes the environment as a map so tests do not touch the process
// environment; nil means os.Environ.
func load(path string, environ map[string]string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("config environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be typed in TOML.
func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("config: store.path is empty")
	}
	if _, err := c.ImportType(); err != nil {
		return fmt.Errorf("config: import.default_type: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	return nil
}

// ImportType parses Import.DefaultType.
func (c *Config) ImportType() (importtree.ImportType, error) {
	return importtree.ParseImportType(c.Import.DefaultType)
}

// LogLevel parses Log.Level as a slog level name such as "debug" or "warn".
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn, err
	}
	return level, nil
}
