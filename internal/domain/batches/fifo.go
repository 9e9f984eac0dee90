package batches

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/unit"
)

// AllocateFIFO plans how amount of unitID would be drawn from the product's
// open batches, oldest first. Nothing is written.
//
// A batch that cannot cover what is still needed is drained: its slice is
// its remaining stock in the requested unit, rounded to six places. The
// first batch whose remaining base covers the rest (within the rounding
// slack of the requested unit) takes all of it, so the slices always add
// up to amount.
func (l *Ledger) AllocateFIFO(ctx context.Context, productID id.ID, amount types.Quantity, unitID id.ID) ([]Allocation, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewInvalidAmount("amount", amount.String())
	}

	open, err := l.ListOpenBatches(ctx, &productID)
	if err != nil {
		return nil, err
	}

	memo := l.units.Memo()
	tolerance := slack(ctx, memo, unitID)
	need := amount
	available := types.Zero()
	var plan []Allocation

	for _, b := range open {
		available = available.Add(b.RemainingBase)
		if !need.IsPositive() {
			continue
		}
		needBase := memo.ToBase(ctx, need, unitID)
		if b.RemainingBase.Add(tolerance).GreaterThanOrEqual(needBase) {
			plan = append(plan, Allocation{BatchID: b.ID, Amount: need, Base: needBase})
			need = types.Zero()
			continue
		}
		take := types.Round6(memo.FromBase(ctx, b.RemainingBase, unitID))
		if !take.IsPositive() {
			continue
		}
		plan = append(plan, Allocation{
			BatchID: b.ID,
			Amount:  take,
			Base:    b.RemainingBase,
		})
		need = need.Sub(take)
	}

	if need.IsPositive() {
		return nil, apperror.NewInsufficientStock("", memo.ToBase(ctx, amount, unitID).String(), available.String()).
			WithDetail("product_id", productID.String())
	}
	return plan, nil
}

// slack is how far a quantity of unitID stored at six places may land past
// the exact base amount it stands for.
func slack(ctx context.Context, memo *unit.Memo, unitID id.ID) types.Quantity {
	return memo.ToBase(ctx, types.QuantityHalfStep, unitID).Add(types.Epsilon)
}

// ConsumeFIFO records a sale line against the product's oldest batches,
// one consumption row per batch touched. The line total is split in
// proportion to each slice, with the rounding remainder on the last row.
//
// Every slice is re-validated under its batch lock, so a concurrent sale
// that drained a planned batch fails this call instead of overselling.
func (l *Ledger) ConsumeFIFO(ctx context.Context, in ConsumptionInput) ([]Consumption, error) {
	ctx, span := tracer.Start(ctx, "batches.ConsumeFIFO")
	defer span.End()

	if id.IsNil(in.ProductID) {
		return nil, apperror.NewValidation("productId is required").WithDetail("field", "productId")
	}

	var recorded []Consumption
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		plan, err := l.AllocateFIFO(ctx, in.ProductID, in.Amount, in.UnitID)
		if err != nil {
			return err
		}

		allocated := types.Zero()
		recorded = make([]Consumption, 0, len(plan))
		for i, a := range plan {
			lineTotal := in.LineTotal.Sub(allocated)
			if i < len(plan)-1 {
				lineTotal = types.Round2(in.LineTotal.Mul(a.Amount).Div(in.Amount))
			}
			allocated = allocated.Add(lineTotal)

			batchID := a.BatchID
			c, err := l.RecordConsumption(ctx, ConsumptionInput{
				SaleID:    in.SaleID,
				ProductID: in.ProductID,
				UnitID:    in.UnitID,
				Amount:    a.Amount,
				UnitPrice: in.UnitPrice,
				LineTotal: lineTotal,
				BatchID:   &batchID,
			})
			if err != nil {
				return err
			}
			recorded = append(recorded, *c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}
