// Package core holds the transaction domain model and the amount
// parsing/formatting rules shared by the form, the list view and the
// report generator.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a user-supplied amount string to a float64.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Empty, negative, non-numeric and non-finite input is rejected with
// ErrInvalidAmount rather than propagated into the store, so a NaN can
// never reach the aggregates.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Sign is derived from the transaction type, never typed in.
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if err := validAmount(v); err != nil {
		return 0, err
	}
	return v, nil
}

func validAmount(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// FormatAmount renders an amount with two decimals for display and for
// the report table.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
