package repair

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternKind selects how a Substitution's pattern is matched.
type PatternKind int

const (
	// Literal patterns match their exact text.
	Literal PatternKind = iota
	// Wildcard patterns treat '.' as any single character other than a
	// newline. Every other character matches itself.
	Wildcard
)

func (k PatternKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Wildcard:
		return "wildcard"
	default:
		return fmt.Sprintf("PatternKind(%d)", int(k))
	}
}

// Substitution maps one known-corrupt fragment to the text it should read.
type Substitution struct {
	Pattern     string
	Replacement string
	Kind        PatternKind
}

// compile returns a regexp for Wildcard entries and nil for Literal ones.
func (s Substitution) compile() (*regexp.Regexp, error) {
	if s.Kind != Wildcard {
		return nil, nil
	}
	parts := strings.Split(s.Pattern, ".")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.Compile(strings.Join(parts, "."))
}

// defaultTable is applied in order. Emoji sequences come before the shorter
// fragments they share a prefix with. Both `ðŸ"` entries are kept, so the
// second one never fires.
var defaultTable = [...]Substitution{
	{Pattern: "ðŸ\"¤ DonnÃ©es envoyÃ©es", Replacement: "📤 Données envoyées", Kind: Literal},
	{Pattern: "ðŸ\"— URL de l.endpoint", Replacement: "🔗 URL de l'endpoint", Kind: Wildcard},
	{Pattern: "ðŸ\"‹ DonnÃ©es de rÃ©ponse", Replacement: "📋 Données de réponse", Kind: Literal},
	{Pattern: "â˜ï¸", Replacement: "☁️", Kind: Literal},
	{Pattern: "âš ï¸", Replacement: "⚠️", Kind: Literal},
	{Pattern: "âŒ", Replacement: "❌", Kind: Literal},
	{Pattern: "âœ…", Replacement: "✅", Kind: Literal},
	{Pattern: "ðŸ\"·", Replacement: "📷", Kind: Literal},
	{Pattern: "ðŸ\"¥", Replacement: "🔥", Kind: Literal},
	{Pattern: "ðŸ\"±", Replacement: "📱", Kind: Literal},
	{Pattern: "ðŸ\"", Replacement: "🔍", Kind: Literal},
	{Pattern: "ðŸ'¾", Replacement: "💾", Kind: Literal},
	{Pattern: "ðŸ\"", Replacement: "📍", Kind: Literal},
	{Pattern: "ðŸ—'ï¸", Replacement: "🗑️", Kind: Literal},
	{Pattern: "ðŸ—‚ï¸", Replacement: "🗂️", Kind: Literal},
	// words with a garbled é
	{Pattern: "dÃ©faut", Replacement: "défaut", Kind: Literal},
	{Pattern: "crÃ©Ã©", Replacement: "créé", Kind: Literal},
	{Pattern: "supprimÃ©", Replacement: "supprimé", Kind: Literal},
	{Pattern: "chargÃ©s", Replacement: "chargés", Kind: Literal},
	{Pattern: "chargÃ©", Replacement: "chargé", Kind: Literal},
	{Pattern: "sauvegardÃ©s", Replacement: "sauvegardés", Kind: Literal},
	{Pattern: "Ã©chec", Replacement: "échec", Kind: Literal},
	{Pattern: "rÃ©ponse", Replacement: "réponse", Kind: Literal},
	{Pattern: "RÃ©ponse", Replacement: "Réponse", Kind: Literal},
	{Pattern: "ajoutÃ©e", Replacement: "ajoutée", Kind: Literal},
	{Pattern: "expirÃ©e", Replacement: "expirée", Kind: Literal},
	{Pattern: "Ã©tat", Replacement: "état", Kind: Literal},
	{Pattern: "rÃ©seau", Replacement: "réseau", Kind: Literal},
}

// DefaultTable returns a copy of the built-in substitution table.
func DefaultTable() []Substitution {
	table := make([]Substitution, len(defaultTable))
	copy(table, defaultTable[:])
	return table
}

// Shadowed returns the indexes of entries that can never match because an
// earlier literal entry has the same pattern and consumes every occurrence.
func Shadowed(table []Substitution) []int {
	var shadowed []int
	seen := make(map[string]struct{}, len(table))
	for i, s := range table {
		if s.Kind != Literal {
			continue
		}
		if _, ok := seen[s.Pattern]; ok {
			shadowed = append(shadowed, i)
			continue
		}
		seen[s.Pattern] = struct{}{}
	}
	return shadowed
}
