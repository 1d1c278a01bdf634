// Package core provides money parsing and handling utilities.
//
// Amounts are carried as decimal.Decimal so that sums over many
// transactions never accumulate binary floating point error.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a signed decimal amount as found in bank exports.
//
// Thousands-separator commas and surrounding whitespace are stripped,
// a leading currency symbol is ignored.
//
// Examples:
//
//	ParseAmount("1,234.56") -> 1234.56, nil
//	ParseAmount("-15")      -> -15, nil
//	ParseAmount("€12.50")   -> 12.5, nil
//	ParseAmount("abc")      -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimLeft(s, "€$£")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// "-€12" style
	if len(s) > 1 && (s[0] == '-' || s[0] == '+') {
		s = s[:1] + strings.TrimLeft(s[1:], "€$£")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParsePositiveAmount parses an amount that must be strictly positive.
func ParsePositiveAmount(s string) (decimal.Decimal, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// SumSpend adds up the absolute value of every expense in txs.
func SumSpend(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Spend())
	}
	return total
}

// SumIncome adds up every positive amount in txs.
func SumIncome(txs []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.IsIncome() {
			total = total.Add(t.Amount)
		}
	}
	return total
}
