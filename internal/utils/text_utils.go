package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	numberRe     = regexp.MustCompile(`\d+(?:\.\d+)?`)
	intRe        = regexp.MustCompile(`\d+`)
	slugRe       = regexp.MustCompile(`[^a-z0-9]+`)
)

// CleanText collapses whitespace runs to a single space and trims. It
// returns nil for empty or whitespace-only input so absence stays
// distinguishable from an empty string downstream.
func CleanText(s string) *string {
	cleaned := strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// NumberFromText strips thousands separators and returns the first numeric
// token (integer or decimal), or nil when the text carries no number.
func NumberFromText(s string) *float64 {
	if s == "" {
		return nil
	}

	stripped := strings.ReplaceAll(s, ",", "")
	token := numberRe.FindString(stripped)
	if token == "" {
		return nil
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return nil
	}
	return &value
}

// IntFromText returns the first integer token in the text, or nil.
func IntFromText(s string) *int {
	token := intRe.FindString(s)
	if token == "" {
		return nil
	}

	value, err := strconv.Atoi(token)
	if err != nil {
		return nil
	}
	return &value
}

// currencyTokens is the recognized currency vocabulary, checked
// case-insensitively in order. "AED" is the regional default.
var currencyTokens = []string{"AED", "DHS", "DH"}

const DefaultCurrency = "AED"

// ParsePrice extracts a numeric price and a currency code from free text.
// The currency defaults to AED when no known token appears.
func ParsePrice(s string) (*float64, string) {
	currency := DefaultCurrency
	upper := strings.ToUpper(s)
	for _, token := range currencyTokens {
		if strings.Contains(upper, token) {
			currency = token
			break
		}
	}
	return NumberFromText(s), currency
}

// Area unit families recognized in listing text.
const (
	UnitSqft = "sqft"
	UnitSqm  = "sqm"
)

// ParseArea extracts an area magnitude and a unit tag inferred from the
// surrounding text. The unit is nil when neither family is mentioned.
func ParseArea(s string) (*float64, *string) {
	value := NumberFromText(s)
	if value == nil {
		return nil, nil
	}
	return value, AreaUnitFromText(s)
}

// AreaUnitFromText recognizes the two unit families used in listing text
// and returns the normalized tag, or nil.
func AreaUnitFromText(s string) *string {
	lower := strings.ToLower(s)
	var unit string
	switch {
	case strings.Contains(lower, "sqft"), strings.Contains(lower, "sq ft"),
		strings.Contains(lower, "sq. ft"), strings.Contains(lower, "ft²"),
		strings.Contains(lower, "square feet"), strings.Contains(lower, "square foot"):
		unit = UnitSqft
	case strings.Contains(lower, "sqm"), strings.Contains(lower, "sq m"),
		strings.Contains(lower, "sq. m"), strings.Contains(lower, "m²"),
		strings.Contains(lower, "square met"):
		unit = UnitSqm
	default:
		return nil
	}
	return &unit
}

// Slugify lowercases, strips diacritics and replaces every run of
// non-alphanumeric characters with a single hyphen. Used by the URL builder,
// which needs byte-identical output for identical input.
func Slugify(s string) string {
	lowered := strings.ToLower(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	ascii, _, err := transform.String(t, lowered)
	if err != nil {
		ascii = lowered
	}

	slug := slugRe.ReplaceAllString(ascii, "-")
	return strings.Trim(slug, "-")
}
