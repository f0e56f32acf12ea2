package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/isseis/go-mojibake-fixer/internal/terminal"
	"github.com/muesli/termenv"
)

// Static errors for InteractiveHandler validation
var (
	ErrInteractiveHandlerWriterRequired       = errors.New("InteractiveHandler: Writer is required")
	ErrInteractiveHandlerCapabilitiesRequired = errors.New("InteractiveHandler: Capabilities is required")
)

// InteractiveHandler renders one short line per record for a human at a
// terminal. The level is colored when the terminal supports it.
type InteractiveHandler struct {
	capabilities terminal.Capabilities
	writer       io.Writer
	level        slog.Leveler
	styles       styles
	mu           *sync.Mutex
	attrs        []slog.Attr
	groups       []string
}

// InteractiveHandlerOptions configures the InteractiveHandler.
type InteractiveHandlerOptions struct {
	// Level is the minimum log level to handle. Nil means slog.LevelInfo.
	Level slog.Leveler

	// Writer is the output destination, normally os.Stderr.
	Writer io.Writer

	Capabilities terminal.Capabilities
}

type styles struct {
	debug lipgloss.Style
	info  lipgloss.Style
	warn  lipgloss.Style
	error lipgloss.Style
	key   lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return styles{
		debug: r.NewStyle().Foreground(lipgloss.Color("8")),
		info:  r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		error: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		key:   r.NewStyle().Faint(true),
	}
}

func (s styles) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return s.error.Render("ERROR")
	case level >= slog.LevelWarn:
		return s.warn.Render("WARN")
	case level >= slog.LevelInfo:
		return s.info.Render("INFO")
	default:
		return s.debug.Render("DEBUG")
	}
}

// NewInteractiveHandler returns an error if any required option is missing.
func NewInteractiveHandler(opts InteractiveHandlerOptions) (*InteractiveHandler, error) {
	if opts.Writer == nil {
		return nil, ErrInteractiveHandlerWriterRequired
	}
	if opts.Capabilities == nil {
		return nil, ErrInteractiveHandlerCapabilitiesRequired
	}

	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}

	return &InteractiveHandler{
		capabilities: opts.Capabilities,
		writer:       opts.Writer,
		level:        level,
		styles:       newStyles(opts.Writer, opts.Capabilities.SupportsColor()),
		mu:           &sync.Mutex{},
	}, nil
}

// Enabled reports whether the handler handles records at the given level.
func (h *InteractiveHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.capabilities.IsInteractive() && level >= h.level.Level()
}

// Handle writes the record as "LEVEL message key=value ...".
func (h *InteractiveHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.capabilities.IsInteractive() {
		return nil
	}

	var b strings.Builder
	b.WriteString(h.styles.levelLabel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	// accumulated attrs already carry their group prefix
	for _, a := range h.attrs {
		h.appendAttr(&b, "", a)
	}
	prefix := h.groupPrefix()
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *InteractiveHandler) appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, groupPrefix, ga)
		}
		return
	}

	b.WriteByte(' ')
	b.WriteString(h.styles.key.Render(prefix + a.Key + "="))
	b.WriteString(quoteIfNeeded(a.Value.String()))
}

func (h *InteractiveHandler) groupPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\r\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs returns a new handler with additional attributes.
func (h *InteractiveHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}

	prefix := h.groupPrefix()
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	for _, a := range attrs {
		newAttrs = append(newAttrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}

	clone := *h
	clone.attrs = newAttrs
	return &clone
}

// WithGroup returns a new handler with an additional group.
func (h *InteractiveHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	newGroups := make([]string, len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups[len(h.groups)] = name

	clone := *h
	clone.groups = newGroups
	return &clone
}
