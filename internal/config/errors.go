package config

import (
	"errors"
	"fmt"
)

// Error definitions for the config package
var (
	// ErrInvalidLogLevel is returned for a log level other than debug, info, warn or error.
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrUnsupportedConfigFormat is returned when the config file extension is not .toml, .yaml or .yml.
	ErrUnsupportedConfigFormat = errors.New("unsupported config format")

	// ErrEmptyTargetPath is returned when a target path is given but blank.
	ErrEmptyTargetPath = errors.New("target path is empty")
)

// ConfigError reports a config file that could not be read, parsed or validated.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
