package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/isseis/go-mojibake-fixer/internal/safefileio"
	"github.com/isseis/go-mojibake-fixer/internal/terminal"
)

const (
	logFilePerm = 0o600
	logDirPerm  = 0o750

	// logSchemaVersion is bumped when the JSON log attributes change shape.
	logSchemaVersion = 1
)

// Log directory validation errors
var (
	ErrEmptyLogDirectory = errors.New("log directory is empty")
	ErrNotLogDirectory   = errors.New("log path is not a directory")
)

// Config holds everything Setup needs to build the handler chain.
type Config struct {
	Level  slog.Level
	LogDir string
	RunID  string

	// ConsoleWriter receives human-facing log lines. Defaults to os.Stderr.
	ConsoleWriter io.Writer
	Capabilities  terminal.Capabilities
}

// Logger is the configured logger plus the log file it may own.
type Logger struct {
	*slog.Logger

	// LogPath is the JSON log file, or "" when no log directory was given.
	LogPath string

	file *os.File
}

// Close flushes and closes the JSON log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	if err := l.file.Sync(); err != nil {
		_ = l.file.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	return l.file.Close()
}

// GenerateRunID generates a new UUID v4 for run identification
func GenerateRunID() string {
	return uuid.New().String()
}

// Setup builds the console handlers and, when cfg.LogDir is set, a JSON file
// handler named <hostname>_<timestamp>_<run id>.json inside it.
func Setup(cfg Config) (*Logger, error) {
	if cfg.Capabilities == nil {
		cfg.Capabilities = terminal.NewDetector(terminal.Options{})
	}
	if cfg.ConsoleWriter == nil {
		cfg.ConsoleWriter = os.Stderr
	}
	if cfg.RunID == "" {
		cfg.RunID = GenerateRunID()
	}

	var handlers []slog.Handler

	if cfg.Capabilities.IsInteractive() {
		interactive, err := NewInteractiveHandler(InteractiveHandlerOptions{
			Level:        cfg.Level,
			Writer:       cfg.ConsoleWriter,
			Capabilities: cfg.Capabilities,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create interactive handler: %w", err)
		}
		handlers = append(handlers, interactive)
	}

	text, err := NewConditionalTextHandler(ConditionalTextHandlerOptions{
		TextHandlerOptions: &slog.HandlerOptions{Level: cfg.Level},
		Writer:             cfg.ConsoleWriter,
		Capabilities:       cfg.Capabilities,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create conditional text handler: %w", err)
	}
	handlers = append(handlers, text)

	result := &Logger{}
	hostname := hostname()

	if cfg.LogDir != "" {
		if err := ValidateLogDir(cfg.LogDir); err != nil {
			return nil, fmt.Errorf("invalid log directory: %w", err)
		}

		timestamp := time.Now().UTC().Format("20060102T150405Z")
		logPath := filepath.Join(cfg.LogDir, fmt.Sprintf("%s_%s_%s.json", hostname, timestamp, cfg.RunID))
		f, err := safefileio.SafeOpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, logFilePerm)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}

		jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: cfg.Level})
		handlers = append(handlers, jsonHandler.WithAttrs([]slog.Attr{
			slog.String("hostname", hostname),
			slog.Int("pid", os.Getpid()),
			slog.Int("schema_version", logSchemaVersion),
			slog.String("run_id", cfg.RunID),
		}))
		result.LogPath = logPath
		result.file = f
	}

	result.Logger = slog.New(NewMultiHandler(handlers...))
	result.Debug("Logger initialized",
		"log_level", cfg.Level,
		"log_dir", cfg.LogDir,
		"run_id", cfg.RunID,
		"interactive_mode", cfg.Capabilities.IsInteractive(),
		"color_support", cfg.Capabilities.SupportsColor())

	return result, nil
}

// ValidateLogDir creates dir if needed and checks that it is a directory.
func ValidateLogDir(dir string) error {
	if dir == "" {
		return ErrEmptyLogDirectory
	}
	fi, err := os.Stat(dir)
	switch {
	case err == nil:
		if !fi.IsDir() {
			return fmt.Errorf("%w: %s", ErrNotLogDirectory, dir)
		}
		return nil
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, logDirPerm); err != nil {
			return fmt.Errorf("cannot create log directory %s: %w", dir, err)
		}
		return nil
	default:
		return fmt.Errorf("cannot stat log directory %s: %w", dir, err)
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "unknown"
	}
	return h
}
