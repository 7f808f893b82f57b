// Package coerce turns loosely typed spreadsheet cells into numbers, booleans
// and timestamps. Both the series decimator and the dataset profiler use it, so
// the accepted grammar is the same everywhere.
package coerce

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Locale selects the separators used by ParseNumber.
// The zero value means decimal '.' and thousands ','.
type Locale struct {
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// DefaultLocale is the locale used by the package-level helpers.
var DefaultLocale = Locale{DecimalSeparator: '.', ThousandsSeparator: ','}

var currencySymbols = []string{"$", "€", "£", "¥"}

func (l Locale) normalized() Locale {
	if l.DecimalSeparator == 0 {
		l.DecimalSeparator = '.'
	}
	if l.ThousandsSeparator == 0 && l.DecimalSeparator != ',' {
		l.ThousandsSeparator = ','
	}
	if l.ThousandsSeparator == l.DecimalSeparator {
		l.ThousandsSeparator = 0
	}
	return l
}

// ParseNumber parses s with the default locale.
func ParseNumber(s string) (float64, bool) {
	return DefaultLocale.ParseNumber(s)
}

// ParseNumber accepts an optional sign and currency symbol (in either order),
// digits grouped strictly by three with the thousands separator, an optional
// fraction and exponent, an optional K/M/B multiplier and a trailing '%'.
// Percentages keep their written value: "12%" is 12.
func (l Locale) ParseNumber(s string) (float64, bool) {
	l = l.normalized()
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}

	neg, signed := false, false
	if raw[0] == '-' || raw[0] == '+' {
		neg, signed = raw[0] == '-', true
		raw = raw[1:]
	}
	for _, sym := range currencySymbols {
		if strings.HasPrefix(raw, sym) {
			raw = strings.TrimSpace(raw[len(sym):])
			break
		}
	}
	if !signed && raw != "" && (raw[0] == '-' || raw[0] == '+') {
		neg = raw[0] == '-'
		raw = raw[1:]
	}

	raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	mult := 1.0
	if n := len(raw); n > 0 {
		switch raw[n-1] {
		case 'k', 'K':
			mult = 1e3
		case 'm', 'M':
			mult = 1e6
		case 'b', 'B':
			mult = 1e9
		}
		if mult != 1 {
			raw = strings.TrimSpace(raw[:n-1])
		}
	}

	mantissa, exp := raw, ""
	if i := strings.IndexAny(raw, "eE"); i >= 0 {
		mantissa, exp = raw[:i], raw[i+1:]
		if !validExponent(exp) {
			return 0, false
		}
	}

	intPart, fracPart := mantissa, ""
	hasFrac := false
	if i := strings.IndexRune(mantissa, l.DecimalSeparator); i >= 0 {
		intPart = mantissa[:i]
		fracPart = mantissa[i+len(string(l.DecimalSeparator)):]
		hasFrac = true
	}
	digits, ok := groupedDigits(intPart, l.ThousandsSeparator)
	if !ok {
		return 0, false
	}
	if hasFrac && fracPart != "" && !allDigits(fracPart) {
		return 0, false
	}
	if digits == "" && fracPart == "" {
		return 0, false
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	if digits == "" {
		b.WriteByte('0')
	}
	b.WriteString(digits)
	if fracPart != "" {
		b.WriteByte('.')
		b.WriteString(fracPart)
	}
	if exp != "" {
		b.WriteByte('e')
		b.WriteString(exp)
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	f *= mult
	if math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// groupedDigits validates the integer part and strips thousands separators.
func groupedDigits(s string, sep rune) (string, bool) {
	if sep == 0 || !strings.ContainsRune(s, sep) {
		if s != "" && !allDigits(s) {
			return "", false
		}
		return s, true
	}
	groups := strings.Split(s, string(sep))
	if len(groups[0]) < 1 || len(groups[0]) > 3 || !allDigits(groups[0]) {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func validExponent(s string) bool {
	if s != "" && (s[0] == '-' || s[0] == '+') {
		s = s[1:]
	}
	return s != "" && allDigits(s)
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Number reports the numeric value of v. Go numeric kinds are taken as-is
// (NaN and infinities are rejected); strings go through the locale grammar.
func (l Locale) Number(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		f := float64(x)
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		return l.ParseNumber(x.String())
	case string:
		return l.ParseNumber(x)
	default:
		return 0, false
	}
}

// Number is Locale.Number with the default locale.
func Number(v any) (float64, bool) {
	return DefaultLocale.Number(v)
}

// ToFloat returns the numeric value of v, or 0 when it has none.
func (l Locale) ToFloat(v any) float64 {
	f, ok := l.Number(v)
	if !ok {
		return 0
	}
	return f
}

// ToFloat is Locale.ToFloat with the default locale.
func ToFloat(v any) float64 {
	return DefaultLocale.ToFloat(v)
}

// ParseBool recognizes bool values and the literals true/false in any case.
func ParseBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"2006-01",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// ParseTime recognizes time.Time values and strings in the common spreadsheet layouts.
func ParseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return *x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, l := range timeLayouts {
			if t, err := time.Parse(l, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// IsNull reports whether v counts as a missing cell: nil or a blank string.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	return false
}
