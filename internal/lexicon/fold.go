// Package lexicon classifies header words and matches the fixed phrase
// lists (blacklist, closing triggers, non-transaction vetoes and direction
// hints) the extraction engine relies on.
package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold upper-cases s, strips diacritics and replaces every run of
// non-alphanumeric characters with a single space. "Depósitos/Abonos"
// becomes "DEPOSITOS ABONOS".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	space := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		space = true
	}
	return b.String()
}

// Words returns the folded words of s.
func Words(s string) []string {
	return strings.Fields(Fold(s))
}
