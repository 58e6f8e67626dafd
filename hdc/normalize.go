package hdc

import (
	"strings"
	"unicode"
)

// normalizeSymbol trims surrounding whitespace. With fold it also lowercases
// and collapses internal whitespace runs to a single space, so "Chiang  Mai"
// and "chiang mai" share one codebook entry. Without fold, inner whitespace
// is significant.
func normalizeSymbol(s string, fold bool) string {
	s = strings.TrimSpace(s)
	if !fold {
		return s
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return b.String()
}
