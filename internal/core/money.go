// Package core implements the payment normalization and aggregation
// pipeline: amount parsing, raw-row normalization into payment records,
// and filtered/aggregated views over record collections.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a locale-formatted monetary value into a number.
//
// Numeric inputs are returned as-is. Strings are sanitized for the
// Indonesian rupiah convention: an "Rp" prefix and whitespace are stripped,
// "." is the thousands separator and is removed, "," is the decimal
// separator and becomes ".". Malformed input degrades silently to zero;
// this function never fails. Use ParseAmountStrict when the caller wants
// to see the error instead.
//
// Examples:
//
//	ParseAmount("Rp15.000,00") -> 15000
//	ParseAmount("12.500")      -> 12500
//	ParseAmount("")            -> 0
//	ParseAmount("n/a")         -> 0
func ParseAmount(value any) float64 {
	v, err := ParseAmountStrict(value)
	if err != nil {
		return 0
	}
	return v
}

// ParseAmountStrict is the error-reporting variant of ParseAmount. It
// applies the same sanitization but returns ErrInvalidAmount for input
// that does not parse as a number.
func ParseAmountStrict(value any) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return parseAmountString(v)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, value)
	}
}

func parseAmountString(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	// Strip the currency prefix, any case, and all interior whitespace.
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rp") {
		s = s[2:]
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	// "." groups thousands, "," marks decimals.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return f, nil
}

// FormatAmount renders an amount the way the source sheets do:
// "Rp" prefix, "." thousands grouping, "," decimals with two digits.
func FormatAmount(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := int64(v)
	frac := int64((v-float64(whole))*100 + 0.5)
	if frac >= 100 {
		whole++
		frac -= 100
	}
	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString("Rp")
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	fmt.Fprintf(&b, ",%02d", frac)
	return b.String()
}
