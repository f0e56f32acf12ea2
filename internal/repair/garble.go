package repair

import (
	"golang.org/x/text/encoding/charmap"
)

// Garble reproduces mojibake: it reinterprets the UTF-8 bytes of s as
// Windows-1252 and returns the resulting text. Garble("é") is "Ã©".
func Garble(s string) (string, error) {
	return charmap.Windows1252.NewDecoder().String(s)
}

// Fidelity describes how a table entry relates to the garbled form of its replacement.
type Fidelity string

const (
	// FidelityExact means the pattern matches Garble(replacement).
	FidelityExact Fidelity = "exact"
	// FidelityDivergent means the pattern differs from Garble(replacement),
	// typically because a curly quote or a no-break space in the original
	// mojibake was flattened to ASCII.
	FidelityDivergent Fidelity = "divergent"
	// FidelityShadowed means an earlier entry always consumes the pattern first.
	FidelityShadowed Fidelity = "shadowed"
)

// EntryFidelity is the verification result for one table entry.
type EntryFidelity struct {
	Index        int
	Substitution Substitution
	Garbled      string
	Fidelity     Fidelity
}

// VerifyTable classifies each entry of table against Garble of its replacement.
func VerifyTable(table []Substitution) ([]EntryFidelity, error) {
	shadowed := make(map[int]struct{})
	for _, i := range Shadowed(table) {
		shadowed[i] = struct{}{}
	}

	results := make([]EntryFidelity, 0, len(table))
	for i, s := range table {
		garbled, err := Garble(s.Replacement)
		if err != nil {
			return nil, err
		}
		res := EntryFidelity{Index: i, Substitution: s, Garbled: garbled, Fidelity: FidelityDivergent}

		re, err := s.compile()
		if err != nil {
			return nil, err
		}
		_, isShadowed := shadowed[i]
		switch {
		case isShadowed:
			res.Fidelity = FidelityShadowed
		case re == nil && s.Pattern == garbled:
			res.Fidelity = FidelityExact
		case re != nil && fullMatch(re.FindStringIndex(garbled), len(garbled)):
			res.Fidelity = FidelityExact
		}
		results = append(results, res)
	}
	return results, nil
}

func fullMatch(loc []int, n int) bool {
	return loc != nil && loc[0] == 0 && loc[1] == n
}
