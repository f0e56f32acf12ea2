package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: " warn ", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLogLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	blank := Default()
	blank.Target.Path = "   "
	assert.ErrorIs(t, blank.Validate(), ErrEmptyTargetPath)

	badLevel := Default()
	badLevel.Log.Level = "loud"
	assert.ErrorIs(t, badLevel.Validate(), ErrInvalidLogLevel)
}

func TestResolveTargetPath(t *testing.T) {
	const fallback = "src/hooks/usePointsOfInterest.ts"
	fromConfig := &Config{Target: TargetConfig{Path: "config.ts"}}

	tests := []struct {
		name      string
		flag      string
		flagSet   bool
		env       string
		setEnv    bool
		cfg       *Config
		want      string
		wantErrIs error
	}{
		{name: "fallback", cfg: Default(), want: fallback},
		{name: "nil config", want: fallback},
		{name: "config beats fallback", cfg: fromConfig, want: "config.ts"},
		{name: "env beats config", env: "env.ts", setEnv: true, cfg: fromConfig, want: "env.ts"},
		{name: "blank env ignored", env: " ", setEnv: true, cfg: fromConfig, want: "config.ts"},
		{name: "flag beats env", flag: "flag.ts", flagSet: true, env: "env.ts", setEnv: true, cfg: fromConfig, want: "flag.ts"},
		{name: "explicit empty flag", flag: "", flagSet: true, cfg: fromConfig, wantErrIs: ErrEmptyTargetPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(TargetEnvVar, tt.env)
			} else {
				t.Setenv(TargetEnvVar, "")
			}

			got, err := ResolveTargetPath(tt.flag, tt.flagSet, tt.cfg, fallback)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTargetPathWithoutFallback(t *testing.T) {
	t.Setenv(TargetEnvVar, "")
	_, err := ResolveTargetPath("", false, nil, "")
	assert.ErrorIs(t, err, ErrEmptyTargetPath)
}
