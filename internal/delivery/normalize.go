package delivery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PostalCodeLength is the digit count of a full CEP.
const PostalCodeLength = 8

// minNeighborhoodLength is the shortest normalized neighborhood accepted for text matching.
const minNeighborhoodLength = 3

// DigitsOnly strips every non-digit rune.
func DigitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeText lower-cases, trims and removes diacritics ("São Vicente" -> "sao vicente").
func NormalizeText(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, value)
	if err != nil {
		stripped = value
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}
