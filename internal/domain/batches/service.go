package batches

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/core/validation"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/batches")

const auditEntity = "batch"

// Ledger computes remaining stock per batch and guards every write that
// could oversell one.
//
// Validation and the write it protects always run in one transaction with
// the batch row locked, so two concurrent sales cannot both pass against
// the same remaining quantity.
type Ledger struct {
	repo  Repository
	units *unit.Converter
	txm   tx.Manager
	audit audit.Logger
	now   func() time.Time
}

// NewLedger creates a new batch ledger.
func NewLedger(repo Repository, units *unit.Converter, txm tx.Manager, auditLog audit.Logger) *Ledger {
	if auditLog == nil {
		auditLog = audit.Nop{}
	}
	return &Ledger{
		repo:  repo,
		units: units,
		txm:   txm,
		audit: auditLog,
		now:   time.Now,
	}
}

// RemainingBase returns purchased base units minus consumed base units,
// clamped at zero and rounded to 6 places.
func (l *Ledger) RemainingBase(ctx context.Context, batchID id.ID) (types.Quantity, error) {
	b, err := l.repo.GetBatch(ctx, batchID)
	if err != nil {
		return types.Zero(), err
	}
	consumed, err := l.repo.ListConsumptionsByBatches(ctx, []id.ID{batchID})
	if err != nil {
		return types.Zero(), err
	}
	return l.remainingBase(ctx, l.units.Memo(), b, consumed), nil
}

// Remaining returns the remaining quantity expressed in the batch's own unit.
func (l *Ledger) Remaining(ctx context.Context, batchID id.ID) (types.Quantity, error) {
	b, err := l.repo.GetBatch(ctx, batchID)
	if err != nil {
		return types.Zero(), err
	}
	consumed, err := l.repo.ListConsumptionsByBatches(ctx, []id.ID{batchID})
	if err != nil {
		return types.Zero(), err
	}
	memo := l.units.Memo()
	base := l.remainingBase(ctx, memo, b, consumed)
	return types.Round6(types.ClampZero(memo.FromBase(ctx, base, b.UnitID))), nil
}

// ValidateConsumption checks that amount of unitID fits in the batch.
//
// When excludeID names a consumption of this batch, its current amount is
// added back first so that an update is checked against the state without
// its own old value.
func (l *Ledger) ValidateConsumption(ctx context.Context, batchID id.ID, amount types.Quantity, unitID id.ID, excludeID *id.ID) error {
	if !amount.IsPositive() {
		return apperror.NewInvalidAmount("amount", amount.String())
	}
	b, err := l.repo.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	return l.validateAgainst(ctx, b, amount, unitID, excludeID)
}

func (l *Ledger) validateAgainst(ctx context.Context, b *Batch, amount types.Quantity, unitID id.ID, excludeID *id.ID) error {
	consumed, err := l.repo.ListConsumptionsByBatches(ctx, []id.ID{b.ID})
	if err != nil {
		return err
	}

	memo := l.units.Memo()
	available := l.remainingBase(ctx, memo, b, consumed)
	if excludeID != nil {
		for i := range consumed {
			if consumed[i].ID == *excludeID {
				available = available.Add(memo.ToBase(ctx, consumed[i].Amount, consumed[i].UnitID))
				break
			}
		}
	}

	proposed := memo.ToBase(ctx, amount, unitID)
	if proposed.GreaterThan(available.Add(slack(ctx, memo, unitID))) {
		return apperror.NewInsufficientStock(b.ID.String(), proposed.String(), available.String())
	}
	return nil
}

// remainingBase applies the conservation rule to already loaded rows.
// Rows that reference other batches are ignored.
func (l *Ledger) remainingBase(ctx context.Context, memo *unit.Memo, b *Batch, consumed []Consumption) types.Quantity {
	purchased := memo.ToBase(ctx, b.Amount, b.UnitID)
	used := types.Zero()
	for i := range consumed {
		c := &consumed[i]
		if c.BatchID == nil || *c.BatchID != b.ID {
			continue
		}
		used = used.Add(memo.ToBase(ctx, c.Amount, c.UnitID))
	}
	return types.Round6(types.ClampZero(purchased.Sub(used)))
}

// ListOpenBatches returns every batch of the product (or of all products)
// that still has stock, oldest purchase first. The result is a complete
// slice; nothing is held between calls.
func (l *Ledger) ListOpenBatches(ctx context.Context, productID *id.ID) ([]OpenBatch, error) {
	return l.ListOpen(ctx, BatchFilter{ProductID: productID})
}

// ListOpen is ListOpenBatches with the full filter.
func (l *Ledger) ListOpen(ctx context.Context, f BatchFilter) ([]OpenBatch, error) {
	var open []OpenBatch
	err := l.readOnly(ctx, func(ctx context.Context) error {
		rows, err := l.repo.ListBatches(ctx, f)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]id.ID, len(rows))
		for i := range rows {
			ids[i] = rows[i].ID
		}
		consumed, err := l.repo.ListConsumptionsByBatches(ctx, ids)
		if err != nil {
			return err
		}
		byBatch := make(map[id.ID][]Consumption, len(rows))
		for _, c := range consumed {
			if c.BatchID != nil {
				byBatch[*c.BatchID] = append(byBatch[*c.BatchID], c)
			}
		}

		memo := l.units.Memo()
		open = make([]OpenBatch, 0, len(rows))
		for _, row := range rows {
			base := l.remainingBase(ctx, memo, &row.Batch, byBatch[row.ID])
			if !base.IsPositive() {
				continue
			}
			open = append(open, OpenBatch{
				BatchRow:      row,
				RemainingBase: base,
				Remaining:     types.Round6(memo.FromBase(ctx, base, row.UnitID)),
			})
		}
		return nil
	})
	return open, err
}

// RecordPurchase stores a purchase header and one batch per line.
// Lines without their own label inherit the purchase label.
func (l *Ledger) RecordPurchase(ctx context.Context, in PurchaseInput) (*Purchase, []Batch, error) {
	if err := validation.Struct(in); err != nil {
		return nil, nil, err
	}
	if err := in.validateAmounts(); err != nil {
		return nil, nil, err
	}

	p := &Purchase{
		ID:          id.New(),
		PurchasedAt: in.PurchasedAt,
		Supplier:    in.Supplier,
		BatchLabel:  in.BatchLabel,
		CreatedAt:   l.now().UTC(),
	}
	created := make([]Batch, 0, len(in.Lines))

	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := l.repo.CreatePurchase(ctx, p); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		for _, line := range in.Lines {
			b := Batch{
				ID:             id.New(),
				PurchaseID:     p.ID,
				ProductID:      line.ProductID,
				UnitID:         line.UnitID,
				Amount:         line.Amount,
				PerPrice:       line.PerPrice,
				CostPrice:      line.CostPrice,
				WholesalePrice: line.WholesalePrice,
				RetailPrice:    line.RetailPrice,
				ExpiresAt:      line.ExpiresAt,
				BatchLabel:     line.BatchLabel,
			}
			if b.BatchLabel == "" {
				b.BatchLabel = p.BatchLabel
			}
			if err := l.repo.CreateBatch(ctx, &b); err != nil {
				return fmt.Errorf("create batch: %w", err)
			}
			created = append(created, b)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	logger.Info(ctx, "purchase recorded", "purchase_id", p.ID, "batches", len(created))
	return p, created, nil
}

// RecordConsumption validates and inserts a sale line atomically.
func (l *Ledger) RecordConsumption(ctx context.Context, in ConsumptionInput) (*Consumption, error) {
	ctx, span := tracer.Start(ctx, "batches.RecordConsumption")
	defer span.End()

	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, apperror.NewInvalidAmount("amount", in.Amount.String())
	}

	c := &Consumption{
		ID:        id.New(),
		SaleID:    in.SaleID,
		ProductID: in.ProductID,
		UnitID:    in.UnitID,
		Amount:    in.Amount,
		UnitPrice: in.UnitPrice,
		LineTotal: in.LineTotal,
		BatchID:   in.BatchID,
	}

	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if c.BatchID != nil {
			spanBatch(span, *c.BatchID)
			b, err := l.repo.LockBatch(ctx, *c.BatchID)
			if err != nil {
				return err
			}
			if id.IsNil(c.ProductID) {
				c.ProductID = b.ProductID
			} else if c.ProductID != b.ProductID {
				return apperror.NewValidation("batch belongs to another product").
					WithDetail("batch_id", b.ID.String()).
					WithDetail("product_id", c.ProductID.String())
			}
			if err := l.validateAgainst(ctx, b, c.Amount, c.UnitID, nil); err != nil {
				return err
			}
		} else if id.IsNil(c.ProductID) {
			return apperror.NewValidation("productId is required without batchId").
				WithDetail("field", "productId")
		}
		return l.repo.CreateConsumption(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateConsumption changes the amount and unit of a sale line, re-checking
// its batch without counting the line's own old value.
func (l *Ledger) UpdateConsumption(ctx context.Context, consumptionID id.ID, amount types.Quantity, unitID id.ID) (*Consumption, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewInvalidAmount("amount", amount.String())
	}

	var updated *Consumption
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := l.repo.LockConsumption(ctx, consumptionID)
		if err != nil {
			return err
		}
		if c.BatchID != nil {
			b, err := l.repo.LockBatch(ctx, *c.BatchID)
			if err != nil {
				return err
			}
			if err := l.validateAgainst(ctx, b, amount, unitID, &c.ID); err != nil {
				return err
			}
		}
		c.Amount = amount
		c.UnitID = unitID
		if err := l.repo.UpdateConsumption(ctx, c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	return updated, err
}

// DeleteConsumption removes a sale line, returning its quantity to the batch.
func (l *Ledger) DeleteConsumption(ctx context.Context, consumptionID id.ID) error {
	return l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.repo.LockConsumption(ctx, consumptionID); err != nil {
			return err
		}
		return l.repo.DeleteConsumption(ctx, consumptionID)
	})
}

// UpdateBatch edits a batch.
//
// Prices, expiry and label may change freely. A new amount or unit is
// accepted only while the purchased base still covers what has already
// been consumed from the batch. Every edit is written to the audit log.
func (l *Ledger) UpdateBatch(ctx context.Context, batchID id.ID, patch BatchPatch) (*Batch, error) {
	if patch.Amount != nil && !patch.Amount.IsPositive() {
		return nil, apperror.NewInvalidAmount("amount", patch.Amount.String())
	}
	for field, price := range map[string]*types.Money{
		"perPrice":       patch.PerPrice,
		"costPrice":      patch.CostPrice,
		"wholesalePrice": patch.WholesalePrice,
		"retailPrice":    patch.RetailPrice,
	} {
		if price != nil && price.IsNegative() {
			return nil, apperror.NewValidation(field+" cannot be negative").WithDetail("field", field)
		}
	}

	var updated *Batch
	err := l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := l.repo.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		before := b.auditState()
		patch.apply(b)

		if patch.touchesQuantity() {
			consumed, err := l.repo.ListConsumptionsByBatches(ctx, []id.ID{b.ID})
			if err != nil {
				return err
			}
			memo := l.units.Memo()
			purchased := memo.ToBase(ctx, b.Amount, b.UnitID)
			used := types.Zero()
			for _, c := range consumed {
				used = used.Add(memo.ToBase(ctx, c.Amount, c.UnitID))
			}
			if used.GreaterThan(purchased.Add(types.Epsilon)) {
				return apperror.NewInsufficientStock(b.ID.String(), used.String(), purchased.String()).
					WithDetail("reason", "batch already consumed beyond new amount")
			}
		}

		changes := audit.Diff(before, b.auditState())
		if len(changes) == 0 {
			updated = b
			return nil
		}
		if err := l.repo.UpdateBatch(ctx, b); err != nil {
			return err
		}
		if err := l.audit.LogChange(ctx, auditEntity, b.ID, audit.ActionUpdate, changes); err != nil {
			return fmt.Errorf("audit batch update: %w", err)
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteBatch removes a batch nothing has been sold from.
func (l *Ledger) DeleteBatch(ctx context.Context, batchID id.ID) error {
	return l.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		b, err := l.repo.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		n, err := l.repo.CountConsumptions(ctx, batchID)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperror.NewConflict("batch has recorded consumption").
				WithDetail("batch_id", batchID.String()).
				WithDetail("consumptions", n)
		}
		if err := l.repo.DeleteBatch(ctx, batchID); err != nil {
			return err
		}
		return l.audit.LogChange(ctx, auditEntity, batchID, audit.ActionDelete, b.auditState())
	})
}

func (l *Ledger) readOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if ro, ok := l.txm.(tx.ReadOnlyManager); ok {
		return ro.ReadOnly(ctx, fn)
	}
	return fn(ctx)
}

func spanBatch(span trace.Span, batchID id.ID) {
	span.SetAttributes(attribute.String("batch.id", batchID.String()))
}
