package repair

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Residual is a run of text left after rewriting that still reads as UTF-8
// decoded with Windows-1252.
type Residual struct {
	// Offset is the byte offset of the run within the rewritten text.
	Offset int
	// Line is the 1-based line number of the run.
	Line int
	// Garbled is the run as it appears in the text.
	Garbled string
	// Suggested is what the run decodes to when its Windows-1252 bytes are read as UTF-8.
	Suggested string
}

// residualCandidate matches a UTF-8 lead byte followed by continuation bytes,
// each seen through Windows-1252: U+00C2..U+00F4 for the lead, then U+00A0..U+00BF
// or one of the characters Windows-1252 places at 0x80..0x9F.
var residualCandidate = regexp.MustCompile(
	`[\x{00C2}-\x{00F4}]` +
		`[\x{0080}-\x{00BF}\x{0152}\x{0153}\x{0160}\x{0161}\x{0178}\x{017D}\x{017E}\x{0192}` +
		`\x{02C6}\x{02DC}\x{2013}\x{2014}\x{2018}-\x{201A}\x{201C}-\x{201E}\x{2020}-\x{2022}` +
		`\x{2026}\x{2030}\x{2039}\x{203A}\x{20AC}\x{2122}]+`)

// FindResiduals reports runs that still look like mojibake. It never modifies
// text and its findings are never applied.
func FindResiduals(text string) []Residual {
	var found []Residual
	for _, loc := range residualCandidate.FindAllStringIndex(text, -1) {
		run := text[loc[0]:loc[1]]
		suggested, ok := ungarble(run)
		if !ok {
			continue
		}
		found = append(found, Residual{
			Offset:    loc[0],
			Line:      strings.Count(text[:loc[0]], "\n") + 1,
			Garbled:   run,
			Suggested: suggested,
		})
	}
	return found
}

// ungarble maps run back to Windows-1252 bytes and accepts the result only
// when those bytes are valid UTF-8 made of multi-byte characters.
func ungarble(run string) (string, bool) {
	raw, err := charmap.Windows1252.NewEncoder().String(run)
	if err != nil || !utf8.ValidString(raw) {
		return "", false
	}
	for _, r := range raw {
		if r < utf8.RuneSelf {
			return "", false
		}
	}
	return raw, true
}
