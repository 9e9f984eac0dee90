package memory

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/sales"
)

var _ sales.Repository = (*SaleRepo)(nil)

// SaleRepo implements sales.Repository.
type SaleRepo struct{ s *Store }

func (r *SaleRepo) CreateSale(_ context.Context, sale *sales.Sale) error {
	return r.s.write(func(t *tables) error {
		t.sales[sale.ID] = *sale
		return nil
	})
}

func (r *SaleRepo) SetSaleEntry(_ context.Context, saleID, entryID id.ID) error {
	return r.s.write(func(t *tables) error {
		sale, ok := t.sales[saleID]
		if !ok {
			return apperror.NewNotFound("sale", saleID.String())
		}
		sale.EntryID = &entryID
		t.sales[saleID] = sale
		return nil
	})
}

func (r *SaleRepo) GetSale(_ context.Context, saleID id.ID) (*sales.Sale, error) {
	var (
		sale sales.Sale
		ok   bool
	)
	r.s.read(func(t *tables) { sale, ok = t.sales[saleID] })
	if !ok {
		return nil, apperror.NewNotFound("sale", saleID.String())
	}
	return &sale, nil
}

// SaleCount returns the number of stored sales.
func (r *SaleRepo) SaleCount() int {
	n := 0
	r.s.read(func(t *tables) { n = len(t.sales) })
	return n
}
