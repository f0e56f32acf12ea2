package logging

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var errHandlerFailed = errors.New("handler failed")

// stubCapabilities implements terminal.Capabilities with fixed answers.
type stubCapabilities struct {
	interactive bool
	color       bool
}

func (c stubCapabilities) IsInteractive() bool { return c.interactive }
func (c stubCapabilities) SupportsColor() bool { return c.color }

// recordingHandler keeps every record it is given.
type recordingHandler struct {
	mu      *sync.Mutex
	enabled bool
	err     error
	records *[]slog.Record
	attrs   []slog.Attr
	group   string
}

func newRecordingHandler(enabled bool) *recordingHandler {
	return &recordingHandler{mu: &sync.Mutex{}, enabled: enabled, records: &[]slog.Record{}}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return h.enabled }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	*h.records = append(*h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.group = name
	return &clone
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(*h.records)
}
