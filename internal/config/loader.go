package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/isseis/go-mojibake-fixer/internal/safefileio"
	"github.com/pelletier/go-toml/v2"
)

// Format is a config file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedConfigFormat, filepath.Ext(path))
	}
}

// Loader handles loading and validating configurations
type Loader struct {
	readFile func(string) ([]byte, error)
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{readFile: safefileio.SafeReadFile}
}

// Load reads the config file at path over the defaults and validates the
// result. An empty path returns the defaults. Every error is a *ConfigError.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	content, err := l.readFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("failed to read config: %w", err)}
	}

	if err := Parse(content, format, cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse decodes content into cfg. Keys cfg does not declare are rejected.
func Parse(content []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	case FormatYAML:
		if len(bytes.TrimSpace(content)) == 0 {
			return nil
		}
		if err := yaml.UnmarshalWithOptions(content, cfg, yaml.Strict()); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, format)
	}
	return nil
}
