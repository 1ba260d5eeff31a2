package matching

import (
	"strings"
	"unicode"

	"github.com/jonesrussell/pricewatch/internal/taxonomy"
)

// minKeywordLen filters noise tokens out of keyword extraction.
const minKeywordLen = 3

// NormalizeName lowercases a listing name, strips punctuation, removes
// stop terms and collapses whitespace.
func NormalizeName(name string) string {
	lower := strings.ToLower(name)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	cleaned := b.String()

	for _, term := range taxonomy.StopTerms() {
		cleaned = strings.ReplaceAll(cleaned, term, " ")
	}

	return strings.Join(strings.Fields(cleaned), " ")
}

// NormalizeBrand maps a brand through the alias table and lowercases it
// for comparison.
func NormalizeBrand(brand string) string {
	return strings.ToLower(taxonomy.CanonicalBrand(brand))
}

// Keywords extracts search keywords from a normalized name. Short tokens
// are dropped as noise, except model designations like "m4" or "g17"
// where the digit carries the signal.
func Keywords(normalizedName string) []string {
	fields := strings.Fields(normalizedName)
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) >= minKeywordLen || (len(f) > 1 && hasDigit(f)) {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
