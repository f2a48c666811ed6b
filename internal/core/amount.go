// Package core holds the expense record value type and the amount and
// calendar helpers shared by the ledger and its adapters.
//
// Amounts are fixed-point decimals. Summing with binary floats accumulates
// rounding error over many small entries, so every arithmetic path in this
// repository goes through decimal.Decimal.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount parses a monetary magnitude from user input.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rejects negative or malformed values. The result keeps the full precision
// of the input.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
