package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 rounds a monetary value to the nearest cent, half away from zero
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// maxAmountLen bounds the amount text so parsing and rounding stay cheap
const maxAmountLen = 32

// ParseAmount parses a plain decimal amount and rounds it to cents.
// Exponent notation is rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	if len(s) > maxAmountLen {
		return decimal.Zero, fmt.Errorf("amount is longer than %d characters", maxAmountLen)
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("invalid amount %q: exponent notation is not accepted", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Round2(d), nil
}

// FormatAmount renders a value with exactly two fractional digits
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
