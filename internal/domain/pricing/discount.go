// Package pricing computes line and order totals and validates promotional
// codes. Every currency figure it returns is rounded to two places.
package pricing

import (
	"stockledger/internal/core/types"
)

// DiscountType selects how a discount value is interpreted.
type DiscountType string

const (
	DiscountNone    DiscountType = "none"
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountNone, DiscountPercent, DiscountFixed:
		return true
	}
	return false
}

// DiscountAmount returns the discount on subtotal. It is never negative and
// never exceeds subtotal. A non-positive subtotal or an unknown type gives 0.
func DiscountAmount(subtotal types.Money, t DiscountType, value types.Money) types.Money {
	if !subtotal.IsPositive() {
		return types.Zero()
	}
	switch t {
	case DiscountPercent:
		pct := types.Clamp(value, types.Zero(), types.Hundred())
		return types.Round2(subtotal.Mul(pct).Div(types.Hundred()))
	case DiscountFixed:
		return types.Round2(types.Clamp(value, types.Zero(), subtotal))
	default:
		return types.Zero()
	}
}

// LineTotal returns unitPrice x quantity less the line discount.
func LineTotal(unitPrice types.Money, quantity types.Quantity, t DiscountType, value types.Money) types.Money {
	gross := unitPrice.Mul(quantity)
	return types.Round2(gross.Sub(DiscountAmount(gross, t, value)))
}

// OrderTotal returns the sum of line totals less the order discount plus
// additional costs (delivery, packaging).
func OrderTotal(lineTotals []types.Money, t DiscountType, value types.Money, additionalCosts []types.Money) types.Money {
	subtotal := types.Sum(lineTotals)
	return types.Round2(subtotal.Sub(DiscountAmount(subtotal, t, value)).Add(types.Sum(additionalCosts)))
}
