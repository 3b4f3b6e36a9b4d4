package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldText prepares text for comparison: diacritics are stripped
// (decompose, drop combining marks, recompose) and the result is lowercased,
// so "Mléko" and "mleko" compare equal.
func FoldText(s string) string {
	if s == "" {
		return ""
	}

	// transform.Chain keeps state, so each call builds its own chain
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(folded)
}

// SearchTerms splits a free-text query into folded search tokens.
// Order is preserved and duplicates are dropped.
func SearchTerms(query string) []string {
	fields := strings.Fields(FoldText(query))
	if len(fields) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}

	return terms
}

// foldAll folds every non-blank term, dropping the blank ones
func foldAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if f := strings.TrimSpace(FoldText(t)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// lowerAll lowercases every non-blank term, dropping the blank ones
func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if l := strings.TrimSpace(strings.ToLower(t)); l != "" {
			out = append(out, l)
		}
	}
	return out
}
