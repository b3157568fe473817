// Package config loads application settings from an optional YAML file and
// CADENCE_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/cadence/internal/calendar"
)

// RetryConfig controls backoff for transient persistence failures.
type RetryConfig struct {
	Attempts    int `yaml:"attempts"`
	BaseDelayMs int `yaml:"base_delay_ms"`
	MaxDelayMs  int `yaml:"max_delay_ms"`
}

// Config holds all application configuration.
type Config struct {
	DBPath    string      `yaml:"db_path"`
	UTCOffset string      `yaml:"utc_offset"`
	LogLevel  string      `yaml:"log_level"`
	LogJSON   bool        `yaml:"log_json"`
	Retry     RetryConfig `yaml:"retry"`
}

// Default returns a Config with sensible defaults. The database lives under
// ~/.cadence and days are bucketed in UTC.
func Default() Config {
	dbPath := "cadence.db"
	if home, err := os.UserHomeDir(); err == nil {
		dbPath = filepath.Join(home, ".cadence", "cadence.db")
	}
	return Config{
		DBPath:    dbPath,
		UTCOffset: "+00:00",
		LogLevel:  "warn",
		Retry: RetryConfig{
			Attempts:    3,
			BaseDelayMs: 100,
			MaxDelayMs:  2000,
		},
	}
}

// DefaultPath returns the config file location used when CADENCE_CONFIG is
// unset.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cadence", "config.yaml")
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is not an error), then environment overrides. An empty path
// means CADENCE_CONFIG or DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CADENCE_CONFIG")
	}
	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CADENCE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CADENCE_UTC_OFFSET"); v != "" {
		cfg.UTCOffset = v
	}
	if v := os.Getenv("CADENCE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CADENCE_LOG_JSON"); v != "" {
		cfg.LogJSON, _ = strconv.ParseBool(v)
	}
	if v := os.Getenv("CADENCE_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.Attempts = n
		}
	}
	if v := os.Getenv("CADENCE_RETRY_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retry.BaseDelayMs = n
		}
	}
	if v := os.Getenv("CADENCE_RETRY_MAX_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Retry.MaxDelayMs = n
		}
	}
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := calendar.ParseOffset(c.UTCOffset); err != nil {
		return fmt.Errorf("invalid utc_offset: %w", err)
	}
	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1")
	}
	return nil
}

// Boundary returns the day boundary for the configured offset.
func (c Config) Boundary() (*calendar.Boundary, error) {
	offset, err := calendar.ParseOffset(c.UTCOffset)
	if err != nil {
		return nil, err
	}
	return calendar.NewBoundary(offset), nil
}

func (r RetryConfig) BaseDelay() time.Duration {
	return time.Duration(r.BaseDelayMs) * time.Millisecond
}

func (r RetryConfig) MaxDelay() time.Duration {
	return time.Duration(r.MaxDelayMs) * time.Millisecond
}
