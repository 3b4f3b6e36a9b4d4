package usecase

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Compiled patterns for price and nutrient parsing
var (
	// Currency markers seen in the scraped exports ("19,90 Kč", "12,-", "€ 3.50")
	currencyPattern = regexp.MustCompile(`(?i)kč|czk|eur|€|£|\$|,-`)

	// Leading decimal number of a cleaned price string
	priceTokenPattern = regexp.MustCompile(`-?\d[\d.]*`)

	// Space used as a thousands separator, e.g. "1 234 kJ"
	thousandsSpacePattern = regexp.MustCompile(`(\d)[\s\x{00a0}]+(\d{3})\b`)

	// First decimal number in a decorated string
	leadingNumberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

	// Unit label directly following a number
	unitPattern = regexp.MustCompile(`^\s*([\p{L}µ%]+)`)
)

// ParseNumber parses a locale-formatted price string such as "24,90 Kč",
// "1 290,00" or "19.90". Comma is treated as the decimal separator only when
// no dot is present. Returns nil when no finite number can be read or when
// further digits follow the first number, as in "34,90 Kč/1 kg" or
// "2 ks za 39,90 Kč".
func ParseNumber(s string) *float64 {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return nil
	}

	cleaned = currencyPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' {
			return -1
		}
		return r
	}, cleaned)

	if strings.Contains(cleaned, ".") {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	}

	loc := priceTokenPattern.FindStringIndex(cleaned)
	if loc == nil || strings.ContainsAny(cleaned[loc[1]:], "0123456789") {
		return nil
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(cleaned[loc[0]:loc[1]], "."), 64)
	if err != nil {
		return nil
	}
	return finite(v)
}

// ParseNutrientValue extracts the leading number and its unit from a
// decorated nutrition string like "1,5 g" or "1 234 kJ".
func ParseNutrientValue(s string) (*float64, string) {
	normalized := strings.ReplaceAll(s, ",", ".")
	normalized = thousandsSpacePattern.ReplaceAllString(normalized, "$1$2")

	loc := leadingNumberPattern.FindStringIndex(normalized)
	if loc == nil {
		return nil, ""
	}

	v, err := strconv.ParseFloat(normalized[loc[0]:loc[1]], 64)
	if err != nil {
		return nil, ""
	}

	unit := ""
	if m := unitPattern.FindStringSubmatch(normalized[loc[1]:]); m != nil {
		unit = m[1]
	}

	return finite(v), unit
}

// numberFrom reads a price-like value that may be a JSON number, a locale
// string or an object carrying the amount under value/amount/price
func numberFrom(r gjson.Result) *float64 {
	switch {
	case r.Type == gjson.Number:
		return finite(r.Float())
	case r.Type == gjson.String:
		return ParseNumber(r.Str)
	case r.IsObject():
		for _, key := range []string{"value", "amount", "price"} {
			if v := r.Get(key); v.Exists() && !v.IsObject() {
				if n := numberFrom(v); n != nil {
					return n
				}
			}
		}
	}
	return nil
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
