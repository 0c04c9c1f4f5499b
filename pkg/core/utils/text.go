package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var sharpS = strings.NewReplacer("ß", "ss", "ẞ", "ss")

// FoldDiacritics removes combining marks: "Müller" -> "Muller", "Prüfung" -> "Prufung".
// German sharp s is expanded to "ss".
func FoldDiacritics(s string) string {
	s = sharpS.Replace(s)
	// Transformers carry state, so a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// FoldKey reduces a label to lowercase letters and digits without diacritics.
// "Ist-Kosten (€)" and "istkosten" fold to the same key.
func FoldKey(s string) string {
	folded := strings.ToLower(FoldDiacritics(s))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
