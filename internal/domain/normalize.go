package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns the comparison form of a query or headword: NFC
// composed, lowercased, with runs of whitespace collapsed to one space.
// Umlauts typed as base letter plus combining diaeresis compare equal to
// the precomposed letter. Capital sharp s folds to ß.
func NormalizeText(text string) string {
	fields := strings.Fields(norm.NFC.String(text))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}
