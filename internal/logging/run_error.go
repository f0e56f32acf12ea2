package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// ErrorType classifies a failed run for stderr and the JSON log.
type ErrorType string

const (
	// ErrorTypeConfigParsing represents configuration parsing failures
	ErrorTypeConfigParsing ErrorType = "config_parsing_failed"
	// ErrorTypeLogSetup represents log directory or log file failures
	ErrorTypeLogSetup ErrorType = "log_setup_failed"
	// ErrorTypeInvalidArguments represents bad flags or positional arguments
	ErrorTypeInvalidArguments ErrorType = "invalid_arguments"
	ErrorTypeReadFailed       ErrorType = "read_failed"
	ErrorTypeDecodeFailed     ErrorType = "decode_failed"
	ErrorTypeWriteFailed      ErrorType = "write_failed"
	// ErrorTypeUserInterrupted represents SIGINT/SIGTERM during a run
	ErrorTypeUserInterrupted ErrorType = "user_interrupted"
	// ErrorTypeSystemError represents anything not classified above
	ErrorTypeSystemError ErrorType = "system_error"
)

// RunError is an error that ends a mojifix run.
type RunError struct {
	Type      ErrorType
	Message   string
	Component string
	RunID     string
	Err       error
}

// Error implements the error interface
func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v (component: %s, run_id: %s)", e.Type, e.Message, e.Err, e.Component, e.RunID)
	}
	return fmt.Sprintf("%s: %s (component: %s, run_id: %s)", e.Type, e.Message, e.Component, e.RunID)
}

// Unwrap implements error wrapping for errors.Unwrap
func (e *RunError) Unwrap() error {
	return e.Err
}

// HandleRunError writes a short report of e to w and logs it through logger.
// A nil logger falls back to slog.Default.
func HandleRunError(w io.Writer, logger *slog.Logger, e *RunError) {
	details := e.Message
	if e.Err != nil {
		details = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	// one write so concurrent output cannot interleave
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", e.Type)
	if e.Component != "" {
		fmt.Fprintf(&b, "  Component: %s\n", e.Component)
	}
	fmt.Fprintf(&b, "  Details: %s\n", details)
	if e.RunID != "" {
		fmt.Fprintf(&b, "  Run ID: %s\n", e.RunID)
	}
	_, _ = io.WriteString(w, b.String())

	if logger == nil {
		logger = slog.Default()
	}
	logger.Error("Run failed",
		"error_type", string(e.Type),
		"error_message", details,
		"component", e.Component,
		"run_id", e.RunID)
}
