// Package repair implements the mojibake repair pipeline: load a UTF-8 file
// (with or without a byte-order mark), apply the fixed substitution table, and
// write the result back as UTF-8 without a byte-order mark.
package repair

import (
	"errors"
	"fmt"
)

// ErrAborted is wrapped by errors returned when a stage hook stops the pipeline.
var ErrAborted = errors.New("pipeline aborted")

// ReadError reports that the target file could not be read at all.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *ReadError) Unwrap() error {
	return e.Err
}

// DecodeError reports that neither the BOM-aware nor the plain UTF-8 decoding
// accepted the file's bytes. Nothing is written when it occurs.
type DecodeError struct {
	Path string
	// Offset is the byte offset of the first invalid UTF-8 sequence.
	Offset    int
	Primary   error
	Secondary error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("cannot decode %s: invalid UTF-8 at byte %d (%s: %v; %s: %v)",
		e.Path, e.Offset, EncodingUTF8BOM, e.Primary, EncodingUTF8, e.Secondary)
}

// Unwrap returns both decoding failures.
func (e *DecodeError) Unwrap() []error {
	return []error{e.Primary, e.Secondary}
}

// WriteError reports that the repaired text could not be persisted. The
// original file is left as it was.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying I/O error.
func (e *WriteError) Unwrap() error {
	return e.Err
}
