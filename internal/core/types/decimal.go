// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is an amount of stock in some unit of measure.
type Quantity = decimal.Decimal

// Ratio is the number of base units per one unit (also used for exchange rates).
type Ratio = decimal.Decimal

const (
	// MoneyPlaces is the rounding precision for currency figures.
	MoneyPlaces int32 = 2
	// QuantityPlaces is the rounding precision for stock quantities.
	QuantityPlaces int32 = 6
)

var (
	// Epsilon absorbs floating rounding in stock comparisons.
	Epsilon = decimal.New(1, -9)

	// QuantityHalfStep is half of the smallest stored quantity.
	QuantityHalfStep = decimal.New(5, -QuantityPlaces-1)

	// BalanceTolerance is the largest difference treated as balanced.
	BalanceTolerance = decimal.New(1, -2)

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// One returns the neutral ratio.
func One() Ratio {
	return one
}

// Hundred returns 100, the percent base.
func Hundred() decimal.Decimal {
	return hundred
}

// Round2 rounds a currency figure half away from zero.
func Round2(d Money) Money {
	return d.Round(MoneyPlaces)
}

// Round6 rounds a quantity half away from zero.
func Round6(d Quantity) Quantity {
	return d.Round(QuantityPlaces)
}

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Clamp bounds d to [lo, hi].
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// NearlyZero reports |d| < Epsilon.
func NearlyZero(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// Sum adds all values.
func Sum(values []decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
