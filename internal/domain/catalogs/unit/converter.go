package unit

import (
	"context"

	"github.com/shopspring/decimal"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/pkg/logger"
)

// Converter turns quantities into base units and back.
type Converter struct {
	units Lookup
}

// NewConverter creates a converter over the unit catalog.
func NewConverter(units Lookup) *Converter {
	return &Converter{units: units}
}

// RatioOf returns the unit's stored ratio.
//
// It fails open: an unknown unit, or a unit that cannot be read, counts as
// ratio 1 so that stock arithmetic degrades to "same unit" instead of
// failing the caller.
func (c *Converter) RatioOf(ctx context.Context, unitID id.ID) types.Ratio {
	u, err := c.units.Get(ctx, unitID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			logger.Warn(ctx, "unit lookup failed, assuming ratio 1", "unit_id", unitID, "error", err)
		}
		return types.One()
	}
	return u.Ratio
}

// ToBase converts amount of unitID into base units.
func (c *Converter) ToBase(ctx context.Context, amount types.Quantity, unitID id.ID) types.Quantity {
	return amount.Mul(c.RatioOf(ctx, unitID))
}

// FromBase converts base units into unitID. A ratio of ~0 yields 0.
func (c *Converter) FromBase(ctx context.Context, base types.Quantity, unitID id.ID) types.Quantity {
	return fromBase(base, c.RatioOf(ctx, unitID))
}

// Convert converts amount between two units of the same group.
func (c *Converter) Convert(ctx context.Context, amount types.Quantity, from, to id.ID) types.Quantity {
	return c.FromBase(ctx, c.ToBase(ctx, amount, from), to)
}

// Memo returns a per-call view that resolves every unit at most once.
// Use it when a single operation converts many rows.
func (c *Converter) Memo() *Memo {
	return &Memo{conv: c, ratios: make(map[id.ID]types.Ratio)}
}

// Memo caches ratios for the lifetime of one operation. Not safe for
// concurrent use.
type Memo struct {
	conv   *Converter
	ratios map[id.ID]types.Ratio
}

// RatioOf behaves like Converter.RatioOf.
func (m *Memo) RatioOf(ctx context.Context, unitID id.ID) types.Ratio {
	if r, ok := m.ratios[unitID]; ok {
		return r
	}
	r := m.conv.RatioOf(ctx, unitID)
	m.ratios[unitID] = r
	return r
}

// ToBase behaves like Converter.ToBase.
func (m *Memo) ToBase(ctx context.Context, amount types.Quantity, unitID id.ID) types.Quantity {
	return amount.Mul(m.RatioOf(ctx, unitID))
}

// FromBase behaves like Converter.FromBase.
func (m *Memo) FromBase(ctx context.Context, base types.Quantity, unitID id.ID) types.Quantity {
	return fromBase(base, m.RatioOf(ctx, unitID))
}

func fromBase(base types.Quantity, ratio types.Ratio) types.Quantity {
	if types.NearlyZero(ratio) {
		return decimal.Zero
	}
	return base.Div(ratio)
}
