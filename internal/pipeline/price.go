package pipeline

import (
	"strconv"
	"strings"
)

// trimSpace is strings.TrimSpace; named for symmetry with parsePrice.
func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

// parsePrice coerces scraped price text ("$449.99", "1.299,00 kr") to a
// float by stripping non-numeric characters. Returns 0 when nothing
// parseable remains; validation drops such listings.
func parsePrice(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}

	s := b.String()
	if s == "" {
		return 0
	}

	// European style: comma as decimal separator after any dot.
	if lastComma := strings.LastIndex(s, ","); lastComma > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s[:lastComma], ".", "") + "." + strings.ReplaceAll(s[lastComma+1:], ".", "")
	}
	s = strings.ReplaceAll(s, ",", "")

	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return price
}
