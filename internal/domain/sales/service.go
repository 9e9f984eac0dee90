package sales

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/core/validation"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/pricing"
	"stockledger/pkg/logger"
)

// Service records sales.
type Service struct {
	repo    Repository
	pricing *pricing.Engine
	stock   *batches.Ledger
	journal *ledger.Service
	txm     tx.Manager
	now     func() time.Time
}

// NewService creates a sales service.
func NewService(
	repo Repository,
	pricingEngine *pricing.Engine,
	stock *batches.Ledger,
	journal *ledger.Service,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:    repo,
		pricing: pricingEngine,
		stock:   stock,
		journal: journal,
		txm:     txm,
		now:     time.Now,
	}
}

// RecordSale prices the order, redeems its promo code, draws every line
// from stock and posts Dr cash / Cr revenue when both accounts are given.
// Any failure rolls the whole sale back.
func (s *Service) RecordSale(ctx context.Context, in Input) (*Result, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := in.validateAmounts(); err != nil {
		return nil, err
	}

	lineTotals := make([]types.Money, len(in.Lines))
	for i, l := range in.Lines {
		lineTotals[i] = pricing.LineTotal(l.UnitPrice, l.Amount, l.DiscountType, l.DiscountValue)
	}
	subtotal := types.Sum(lineTotals)

	res := &Result{}
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		discount := pricing.Discount{Type: in.DiscountType, Value: in.DiscountValue}
		code := ""
		if in.PromoCode != "" {
			d, err := s.pricing.RedeemCode(ctx, in.PromoCode, subtotal, s.now())
			if err != nil {
				return err
			}
			discount = *d
			code = pricing.NormalizeCode(in.PromoCode)
		}

		sale := Sale{
			ID:         id.New(),
			SoldAt:     in.SoldAt,
			Customer:   in.Customer,
			Subtotal:   subtotal,
			Discount:   pricing.DiscountAmount(subtotal, discount.Type, discount.Value),
			Total:      pricing.OrderTotal(lineTotals, discount.Type, discount.Value, in.AdditionalCosts),
			PromoCode:  code,
			CurrencyID: in.CurrencyID,
			CreatedAt:  s.now().UTC(),
		}
		if err := s.repo.CreateSale(ctx, &sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for i, l := range in.Lines {
			consumed, err := s.consume(ctx, sale.ID, l, lineTotals[i])
			if err != nil {
				return fmt.Errorf("line %d: %w", i, err)
			}
			res.Consumptions = append(res.Consumptions, consumed...)
		}

		if in.CashAccountID != nil && sale.Total.IsPositive() {
			entry, err := s.journal.PostEntry(ctx, ledger.EntryInput{
				Date:        in.SoldAt,
				Description: "Sale",
				Reference:   "sale:" + sale.ID.String(),
				Lines: []ledger.LineInput{
					{AccountID: *in.CashAccountID, CurrencyID: in.CurrencyID, Debit: sale.Total},
					{AccountID: *in.RevenueAccountID, CurrencyID: in.CurrencyID, Credit: sale.Total},
				},
			})
			if err != nil {
				return err
			}
			if err := s.repo.SetSaleEntry(ctx, sale.ID, entry.ID); err != nil {
				return err
			}
			sale.EntryID = &entry.ID
			res.Entry = entry
		}

		res.Sale = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sale recorded",
		"sale_id", res.Sale.ID,
		"total", res.Sale.Total.String(),
		"consumptions", len(res.Consumptions))
	return res, nil
}

func (s *Service) consume(ctx context.Context, saleID id.ID, l Line, lineTotal types.Money) ([]batches.Consumption, error) {
	in := batches.ConsumptionInput{
		SaleID:    &saleID,
		ProductID: l.ProductID,
		UnitID:    l.UnitID,
		Amount:    l.Amount,
		UnitPrice: l.UnitPrice,
		LineTotal: lineTotal,
		BatchID:   l.BatchID,
	}
	if l.BatchID != nil {
		c, err := s.stock.RecordConsumption(ctx, in)
		if err != nil {
			return nil, err
		}
		return []batches.Consumption{*c}, nil
	}
	return s.stock.ConsumeFIFO(ctx, in)
}

// GetSale returns a sale header.
func (s *Service) GetSale(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetSale(ctx, saleID)
}
