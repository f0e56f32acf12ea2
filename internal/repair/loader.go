package repair

import (
	"bytes"
	"context"
	"unicode/utf8"

	"github.com/isseis/go-mojibake-fixer/internal/safefileio"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SourceEncoding names the decoding that accepted a file.
type SourceEncoding string

const (
	// EncodingUTF8BOM is UTF-8 where a leading byte-order mark, if any, is stripped.
	EncodingUTF8BOM SourceEncoding = "utf-8-bom"
	// EncodingUTF8 is plain UTF-8 with no byte-order mark handling.
	EncodingUTF8 SourceEncoding = "utf-8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is the decoded content of the target file.
type Document struct {
	Path     string
	Text     string
	Encoding SourceEncoding
	// HadBOM is true when a leading byte-order mark was stripped.
	HadBOM bool
	// Size is the size of the file on disk in bytes.
	Size int
}

// Loader reads and decodes the target file.
type Loader struct {
	readFile func(string) ([]byte, error)
}

// NewLoader returns a Loader that reads through safefileio.
func NewLoader() *Loader {
	return &Loader{readFile: safefileio.SafeReadFile}
}

// Load reads path and decodes it, trying UTF-8 with an optional byte-order
// mark first and plain UTF-8 second.
func (l *Loader) Load(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := l.readFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	doc, err := Decode(raw)
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			de.Path = path
		}
		return nil, err
	}
	doc.Path = path
	return doc, nil
}

// Decode decodes raw bytes the way Load does. It is exported for callers that
// already hold the bytes.
func Decode(raw []byte) (*Document, error) {
	text, primaryErr := decodeStrict(unicode.UTF8BOM.NewDecoder(), raw)
	if primaryErr == nil {
		return &Document{
			Text:     text,
			Encoding: EncodingUTF8BOM,
			HadBOM:   bytes.HasPrefix(raw, utf8BOM),
			Size:     len(raw),
		}, nil
	}

	text, secondaryErr := decodeStrict(unicode.UTF8.NewDecoder(), raw)
	if secondaryErr == nil {
		return &Document{Text: text, Encoding: EncodingUTF8, Size: len(raw)}, nil
	}

	return nil, &DecodeError{
		Offset:    firstInvalidOffset(raw),
		Primary:   primaryErr,
		Secondary: secondaryErr,
	}
}

// decodeStrict runs dec behind encoding.UTF8Validator. The x/text UTF-8
// decoders substitute U+FFFD for bad input, and the validator turns that into
// an error instead.
func decodeStrict(dec transform.Transformer, raw []byte) (string, error) {
	out, _, err := transform.Bytes(transform.Chain(encoding.UTF8Validator, dec), raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func firstInvalidOffset(raw []byte) int {
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(raw)
}
