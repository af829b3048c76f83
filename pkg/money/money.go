// Package money holds the decimal helpers shared by pricing, cart and checkout code.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the currency precision used at presentation boundaries.
const Places = 2

func init() {
	// prices are emitted as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Parse reads a decimal amount such as "24.99". It reports false for blank,
// malformed or negative input.
func Parse(raw string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// MustParse is Parse for package-level constants.
func MustParse(raw string) decimal.Decimal {
	d, ok := Parse(raw)
	if !ok {
		panic("money: invalid amount " + raw)
	}
	return d
}

// Round rounds half away from zero to currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// ToCents converts an amount to minor units, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents converts minor units back to a decimal amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -Places)
}

// Max returns the larger of a and b.
func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}
