// Package config loads the optional mojifix config file and resolves the
// repair target from flags, environment and config.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// TargetEnvVar overrides the config file's target path.
const TargetEnvVar = "MOJIFIX_TARGET"

// Config is the decoded config file.
type Config struct {
	Target TargetConfig `toml:"target" yaml:"target"`
	Output OutputConfig `toml:"output" yaml:"output"`
	Log    LogConfig    `toml:"log" yaml:"log"`
}

// TargetConfig selects the file to repair.
type TargetConfig struct {
	// Path is relative to the working directory. Empty means unset.
	Path string `toml:"path" yaml:"path"`
}

// OutputConfig controls how the repaired file is persisted.
type OutputConfig struct {
	Backup bool `toml:"backup" yaml:"backup"`
	DryRun bool `toml:"dry_run" yaml:"dry_run"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	Dir   string `toml:"dir" yaml:"dir"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
	}
}

// Validate checks the values a config file may have set.
func (c *Config) Validate() error {
	if c.Target.Path != "" && strings.TrimSpace(c.Target.Path) == "" {
		return fmt.Errorf("target.path: %w", ErrEmptyTargetPath)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error (any case) to a slog.Level.
// An empty string means info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
}

// ResolveTargetPath picks the target with the precedence flag, then the
// TargetEnvVar environment variable, then the config file, then fallback.
// flagSet distinguishes an explicit empty flag from an absent one.
func ResolveTargetPath(flagValue string, flagSet bool, cfg *Config, fallback string) (string, error) {
	if flagSet {
		if strings.TrimSpace(flagValue) == "" {
			return "", fmt.Errorf("--file: %w", ErrEmptyTargetPath)
		}
		return flagValue, nil
	}
	if env, ok := os.LookupEnv(TargetEnvVar); ok && strings.TrimSpace(env) != "" {
		return env, nil
	}
	if cfg != nil && cfg.Target.Path != "" {
		return cfg.Target.Path, nil
	}
	if fallback == "" {
		return "", ErrEmptyTargetPath
	}
	return fallback, nil
}
