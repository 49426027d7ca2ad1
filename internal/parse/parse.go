// Package parse converts the provider's string-typed fields into the
// warehouse's typed columns. Every parser is tolerant: an empty or
// malformed value yields nil rather than an error, because a single bad
// field must never sink a whole document.
package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const metersPerFurlong = 201.168

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
}

var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Date parses a calendar date.
func Date(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// DateTime parses a timestamp such as a race's off time.
func DateTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// Int parses a plain integer.
func Int(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

// Float parses a plain float.
func Float(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Decimal parses an exact decimal such as a starting price or beaten
// distance.
func Decimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

// Str returns a pointer to the trimmed string, or nil when empty.
func Str(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// WeightLbs parses a carried weight. The provider writes "8-13" for
// 8 stone 13 pounds; a bare number is already pounds.
func WeightLbs(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if st, lbs, ok := strings.Cut(s, "-"); ok {
		stone, err1 := strconv.Atoi(st)
		pounds, err2 := strconv.Atoi(lbs)
		if err1 != nil || err2 != nil || stone < 0 || pounds < 0 || pounds > 13 {
			return nil
		}
		total := stone*14 + pounds
		return &total
	}

	return Int(s)
}

// Furlongs parses a race distance in the provider's "2m4f" notation,
// accepting "7f", "1m", "6.5f" and the unicode half "7½f". It returns
// nil for anything else.
func Furlongs(s string) *float64 {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}

	var total float64
	rest := s
	if miles, tail, ok := strings.Cut(rest, "m"); ok && miles != "" {
		n, err := strconv.ParseFloat(miles, 64)
		if err != nil {
			return nil
		}
		total += n * 8
		rest = tail
	}

	if rest != "" {
		frac := strings.TrimSuffix(rest, "f")
		if frac == rest {
			return nil
		}
		half := false
		if strings.HasSuffix(frac, "½") {
			half = true
			frac = strings.TrimSuffix(frac, "½")
		}
		if frac != "" {
			n, err := strconv.ParseFloat(frac, 64)
			if err != nil {
				return nil
			}
			total += n
		}
		if half {
			total += 0.5
		}
	}

	if total <= 0 {
		return nil
	}
	return &total
}

// DistanceMeters derives a metric distance. A pure number is taken as
// metres already; otherwise the text is parsed as furlong notation.
func DistanceMeters(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if m, err := strconv.Atoi(s); err == nil {
		if m <= 0 {
			return nil
		}
		return &m
	}

	f := Furlongs(s)
	if f == nil {
		return nil
	}
	m := int(*f*metersPerFurlong + 0.5)
	return &m
}

var currencySymbols = map[string]string{
	"£": "GBP",
	"€": "EUR",
	"$": "USD",
}

// Currency parses a formatted money string like "£5,900" or "€4,690"
// into an exact amount and an ISO currency code. A bare number parses
// with a nil currency.
func Currency(s string) (*decimal.Decimal, *string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var code *string
	for symbol, iso := range currencySymbols {
		if strings.HasPrefix(s, symbol) {
			c := iso
			code = &c
			s = strings.TrimPrefix(s, symbol)
			break
		}
	}

	s = strings.ReplaceAll(s, ",", "")
	amount := Decimal(s)
	if amount == nil {
		return nil, nil
	}
	return amount, code
}
