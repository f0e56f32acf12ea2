package repair

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/isseis/go-mojibake-fixer/internal/safefileio"
	"github.com/oklog/ulid/v2"
)

const backupFilePerm = 0o600

// Overridable in tests.
var (
	replaceFile  = safefileio.SafeReplaceFile
	readFile     = safefileio.SafeReadFile
	writeNewFile = safefileio.SafeWriteFile
	newBackupID  = func() string {
		return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	}
)

// Writer persists repaired text as UTF-8 without a byte-order mark.
type Writer struct {
	backup bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithBackup makes the Writer copy the original bytes to
// "<path>.<ULID>.bak" before replacing the file.
func WithBackup(enabled bool) WriterOption {
	return func(w *Writer) {
		w.backup = enabled
	}
}

// NewWriter creates a Writer.
func NewWriter(opts ...WriterOption) *Writer {
	w := &Writer{}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Encode returns the bytes Write would store for text: UTF-8 with any
// leading U+FEFF removed.
func Encode(text string) []byte {
	return []byte(strings.TrimPrefix(text, "\uFEFF"))
}

// Write replaces the content of path with text. The returned string is the
// backup path, empty when backups are disabled. On error the file at path is
// unchanged.
func (w *Writer) Write(ctx context.Context, path, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	content := Encode(text)

	var backupPath string
	if w.backup {
		original, err := readFile(path)
		if err != nil {
			return "", &WriteError{Path: path, Op: "back up", Err: err}
		}
		backupPath = fmt.Sprintf("%s.%s.bak", path, newBackupID())
		if err := writeNewFile(backupPath, original, backupFilePerm); err != nil {
			return "", &WriteError{Path: backupPath, Op: "write backup", Err: err}
		}
	}

	if err := replaceFile(path, content); err != nil {
		return backupPath, &WriteError{Path: path, Op: "write", Err: err}
	}
	return backupPath, nil
}
