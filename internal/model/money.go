package model

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts stay float64 inside the pricing engine. These helpers are the presentation
// boundary: rounding happens here and nowhere earlier.

// RoundAmount rounds to two decimals, half away from zero.
// Non-finite values become 0 so they never reach a response body.
// Examples: 2.675 → 2.68, 10.004 → 10, -1.005 → -1.01
func RoundAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatAmount renders an amount with exactly two decimals.
// Examples: 30 → "30.00", 19.999 → "20.00"
func FormatAmount(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// FormatPrice renders an amount followed by a currency suffix, e.g. "45.50 SAR".
// An empty currency yields the bare amount.
func FormatPrice(v float64, currency string) string {
	amount := FormatAmount(v)
	if currency == "" {
		return amount
	}
	return amount + " " + currency
}

// ParseAmount converts a decimal string such as "99.90" to an amount.
// Used by config and the CLI; empty strings parse as 0.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	f, _ := d.Float64()
	return f, nil
}
