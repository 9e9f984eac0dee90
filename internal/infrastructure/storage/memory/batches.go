package memory

import (
	"context"
	"slices"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/batches"
)

var _ batches.Repository = (*BatchRepo)(nil)

// BatchRepo implements batches.Repository. Row locks are implied by the
// store-wide transaction mutex.
type BatchRepo struct{ s *Store }

func (r *BatchRepo) CreatePurchase(_ context.Context, p *batches.Purchase) error {
	return r.s.write(func(t *tables) error {
		t.purchases[p.ID] = *p
		return nil
	})
}

func (r *BatchRepo) CreateBatch(_ context.Context, b *batches.Batch) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.purchases[b.PurchaseID]; !ok {
			return apperror.NewNotFound("purchase", b.PurchaseID.String())
		}
		t.batches[b.ID] = *b
		return nil
	})
}

func (r *BatchRepo) GetBatch(_ context.Context, batchID id.ID) (*batches.Batch, error) {
	var (
		b  batches.Batch
		ok bool
	)
	r.s.read(func(t *tables) { b, ok = t.batches[batchID] })
	if !ok {
		return nil, apperror.NewNotFound("batch", batchID.String())
	}
	return &b, nil
}

func (r *BatchRepo) LockBatch(ctx context.Context, batchID id.ID) (*batches.Batch, error) {
	return r.GetBatch(ctx, batchID)
}

func (r *BatchRepo) UpdateBatch(_ context.Context, b *batches.Batch) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.batches[b.ID]; !ok {
			return apperror.NewNotFound("batch", b.ID.String())
		}
		t.batches[b.ID] = *b
		return nil
	})
}

func (r *BatchRepo) DeleteBatch(_ context.Context, batchID id.ID) error {
	return r.s.write(func(t *tables) error {
		delete(t.batches, batchID)
		return nil
	})
}

func (r *BatchRepo) ListBatches(_ context.Context, f batches.BatchFilter) ([]batches.BatchRow, error) {
	var rows []batches.BatchRow
	r.s.read(func(t *tables) {
		for _, b := range t.batches {
			if f.ProductID != nil && b.ProductID != *f.ProductID {
				continue
			}
			if f.ExpiringBefore != nil && (b.ExpiresAt == nil || !b.ExpiresAt.Before(*f.ExpiringBefore)) {
				continue
			}
			p := t.purchases[b.PurchaseID]
			rows = append(rows, batches.BatchRow{
				Batch:             b,
				PurchasedAt:       p.PurchasedAt,
				PurchaseCreatedAt: p.CreatedAt,
				ProductName:       t.products[b.ProductID].Name,
				UnitName:          t.units[b.UnitID].Name,
			})
		}
	})

	slices.SortFunc(rows, func(a, b batches.BatchRow) int {
		if c := a.PurchasedAt.Compare(b.PurchasedAt); c != 0 {
			return c
		}
		if c := a.PurchaseCreatedAt.Compare(b.PurchaseCreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return rows, nil
}

func (r *BatchRepo) CreateConsumption(_ context.Context, c *batches.Consumption) error {
	return r.s.write(func(t *tables) error {
		if c.BatchID != nil {
			if _, ok := t.batches[*c.BatchID]; !ok {
				return apperror.NewNotFound("batch", c.BatchID.String())
			}
		}
		t.consumptions[c.ID] = *c
		return nil
	})
}

func (r *BatchRepo) GetConsumption(_ context.Context, consumptionID id.ID) (*batches.Consumption, error) {
	var (
		c  batches.Consumption
		ok bool
	)
	r.s.read(func(t *tables) { c, ok = t.consumptions[consumptionID] })
	if !ok {
		return nil, apperror.NewNotFound("consumption", consumptionID.String())
	}
	return &c, nil
}

func (r *BatchRepo) LockConsumption(ctx context.Context, consumptionID id.ID) (*batches.Consumption, error) {
	return r.GetConsumption(ctx, consumptionID)
}

func (r *BatchRepo) UpdateConsumption(_ context.Context, c *batches.Consumption) error {
	return r.s.write(func(t *tables) error {
		if _, ok := t.consumptions[c.ID]; !ok {
			return apperror.NewNotFound("consumption", c.ID.String())
		}
		t.consumptions[c.ID] = *c
		return nil
	})
}

func (r *BatchRepo) DeleteConsumption(_ context.Context, consumptionID id.ID) error {
	return r.s.write(func(t *tables) error {
		delete(t.consumptions, consumptionID)
		return nil
	})
}

func (r *BatchRepo) ListConsumptionsByBatches(_ context.Context, batchIDs []id.ID) ([]batches.Consumption, error) {
	var out []batches.Consumption
	r.s.read(func(t *tables) {
		for _, c := range t.consumptions {
			if c.BatchID != nil && slices.Contains(batchIDs, *c.BatchID) {
				out = append(out, c)
			}
		}
	})
	slices.SortFunc(out, func(a, b batches.Consumption) int { return compareIDs(a.ID, b.ID) })
	return out, nil
}

func (r *BatchRepo) CountConsumptions(_ context.Context, batchID id.ID) (int, error) {
	n := 0
	r.s.read(func(t *tables) {
		for _, c := range t.consumptions {
			if c.BatchID != nil && *c.BatchID == batchID {
				n++
			}
		}
	})
	return n, nil
}
