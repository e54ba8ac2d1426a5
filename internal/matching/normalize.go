package matching

import "strings"

// accentFold maps the accented characters seen on Mexican fiscal documents to
// their bare equivalents. Full Unicode folding is overkill for this input.
var accentFold = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u', 'ü': 'u', 'ñ': 'n',
	'Á': 'a', 'É': 'e', 'Í': 'i', 'Ó': 'o', 'Ú': 'u', 'Ü': 'u', 'Ñ': 'n',
}

// Normalize lower-cases, strips accents and punctuation, and collapses
// whitespace so that concept texts from different sources compare cleanly.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range s {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		switch {
		case r >= 'A' && r <= 'Z':
			r += 'a' - 'A'
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			// keep as-is
		default:
			// punctuation and anything exotic becomes a separator
			r = ' '
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// NormalizeAll normalizes and joins a concept list into a single comparable
// text, dropping entries that normalize to nothing.
func NormalizeAll(concepts []string) string {
	parts := make([]string, 0, len(concepts))
	for _, c := range concepts {
		if n := Normalize(c); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}
