package repair

import (
	"fmt"
	"regexp"
	"strings"
)

// EntryCount records how many replacements one table entry made.
type EntryCount struct {
	Index       int
	Pattern     string
	Replacement string
	Count       int
}

// Report summarizes one Rewrite call. Entries lists only entries that fired,
// in table order.
type Report struct {
	Entries []EntryCount
	Total   int
}

// Changed reports whether any replacement was made.
func (r Report) Changed() bool {
	return r.Total > 0
}

type compiledEntry struct {
	Substitution
	re *regexp.Regexp
}

// Rewriter applies an ordered substitution table to text. Each entry runs
// over the output of the previous one.
type Rewriter struct {
	entries []compiledEntry
}

// NewRewriter compiles table. It fails only if a Wildcard pattern does not compile.
func NewRewriter(table []Substitution) (*Rewriter, error) {
	entries := make([]compiledEntry, len(table))
	for i, s := range table {
		if s.Pattern == "" {
			return nil, fmt.Errorf("substitution %d: empty pattern", i)
		}
		re, err := s.compile()
		if err != nil {
			return nil, fmt.Errorf("substitution %d (%q): %w", i, s.Pattern, err)
		}
		entries[i] = compiledEntry{Substitution: s, re: re}
	}
	return &Rewriter{entries: entries}, nil
}

// DefaultRewriter returns a Rewriter over DefaultTable.
func DefaultRewriter() *Rewriter {
	r, err := NewRewriter(DefaultTable())
	if err != nil {
		panic(fmt.Sprintf("built-in substitution table does not compile: %v", err))
	}
	return r
}

// Rewrite returns text with every entry applied in order, and a report of
// what changed. Absent patterns are not an error.
func (rw *Rewriter) Rewrite(text string) (string, Report) {
	var report Report
	for i, e := range rw.entries {
		var n int
		text, n = e.apply(text)
		if n == 0 {
			continue
		}
		report.Entries = append(report.Entries, EntryCount{
			Index:       i,
			Pattern:     e.Pattern,
			Replacement: e.Replacement,
			Count:       n,
		})
		report.Total += n
	}
	return text, report
}

func (e compiledEntry) apply(text string) (string, int) {
	if e.re == nil {
		n := strings.Count(text, e.Pattern)
		if n == 0 {
			return text, 0
		}
		return strings.ReplaceAll(text, e.Pattern, e.Replacement), n
	}

	n := len(e.re.FindAllStringIndex(text, -1))
	if n == 0 {
		return text, 0
	}
	return e.re.ReplaceAllLiteralString(text, e.Replacement), n
}
