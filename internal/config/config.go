// Package config loads the optional filemirror.yaml settings file.
// Every field has a default; running without a settings file is the
// normal case. Command-line flags override file values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the effective settings for one invocation.
type Config struct {
	HTTPTimeout      time.Duration // per-request timeout for both fetches
	UserAgent        string
	LimitRate        int64 // download bandwidth cap in bytes/sec (0 = unlimited)
	MaxSize          int64 // abort downloads larger than this in bytes (0 = unlimited)
	ProgressInterval time.Duration
}

// fileConfig is the on-disk YAML shape. Durations are strings in
// time.ParseDuration syntax ("30s", "1m").
type fileConfig struct {
	HTTPTimeout      string `yaml:"http_timeout,omitempty"`
	UserAgent        string `yaml:"user_agent,omitempty"`
	LimitRate        int64  `yaml:"limit_rate,omitempty"`
	MaxSize          int64  `yaml:"max_size,omitempty"`
	ProgressInterval string `yaml:"progress_interval,omitempty"`
}

// Default returns the settings used when no file and no flags are given.
func Default() Config {
	return Config{
		HTTPTimeout:      30 * time.Second,
		UserAgent:        "filemirror",
		ProgressInterval: time.Second,
	}
}

// Load reads a settings file and overlays it onto the defaults.
// A missing file is not an error; the defaults apply unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if errs := apply(&cfg, fc); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// apply overlays file values onto cfg, collecting validation messages.
func apply(cfg *Config, fc fileConfig) []string {
	var errs []string

	if fc.HTTPTimeout != "" {
		d, err := time.ParseDuration(fc.HTTPTimeout)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("http_timeout: invalid duration '%s'", fc.HTTPTimeout))
		case d <= 0:
			errs = append(errs, "http_timeout: must be positive")
		default:
			cfg.HTTPTimeout = d
		}
	}

	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}

	if fc.LimitRate < 0 {
		errs = append(errs, "limit_rate: must not be negative")
	} else if fc.LimitRate > 0 {
		cfg.LimitRate = fc.LimitRate
	}

	if fc.MaxSize < 0 {
		errs = append(errs, "max_size: must not be negative")
	} else if fc.MaxSize > 0 {
		cfg.MaxSize = fc.MaxSize
	}

	if fc.ProgressInterval != "" {
		d, err := time.ParseDuration(fc.ProgressInterval)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("progress_interval: invalid duration '%s'", fc.ProgressInterval))
		case d <= 0:
			errs = append(errs, "progress_interval: must be positive")
		default:
			cfg.ProgressInterval = d
		}
	}

	return errs
}
