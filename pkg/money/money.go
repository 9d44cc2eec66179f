package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Persisted collections mirror a JSON shape where prices are plain numbers,
// so decimals must not marshal as quoted strings.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// FromFloat converts an untrusted float into a decimal amount. Non-finite
// input coerces to zero instead of corrupting downstream arithmetic.
func FromFloat(value float64) decimal.Decimal {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(value)
}

// NonNegative clamps an amount at zero.
func NonNegative(value decimal.Decimal) decimal.Decimal {
	if value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// Round2 rounds to cents.
func Round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}

// IsValidTotal reports whether a persisted total can be trusted. Totals must
// round-trip as finite, non-negative numbers.
func IsValidTotal(value decimal.Decimal) bool {
	f, _ := value.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	return !value.IsNegative()
}
