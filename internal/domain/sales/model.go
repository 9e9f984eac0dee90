// Package sales records a sale end to end: pricing, stock consumption and
// the accounting entry, committed together or not at all.
package sales

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/pricing"
)

// Sale is the header of a recorded sale.
type Sale struct {
	ID         id.ID       `db:"id" json:"id"`
	SoldAt     time.Time   `db:"sold_at" json:"soldAt"`
	Customer   string      `db:"customer" json:"customer"`
	Subtotal   types.Money `db:"subtotal" json:"subtotal"`
	Discount   types.Money `db:"discount" json:"discount"`
	Total      types.Money `db:"total" json:"total"`
	PromoCode  string      `db:"promo_code" json:"promoCode,omitempty"`
	CurrencyID *id.ID      `db:"currency_id" json:"currencyId,omitempty"`
	EntryID    *id.ID      `db:"entry_id" json:"entryId,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}

// Line is one product line of a sale. Without BatchID the quantity is
// drawn from the product's oldest batches.
type Line struct {
	ProductID     id.ID                `json:"productId" validate:"required"`
	UnitID        id.ID                `json:"unitId" validate:"required"`
	Amount        types.Quantity       `json:"amount"`
	UnitPrice     types.Money          `json:"unitPrice"`
	DiscountType  pricing.DiscountType `json:"discountType,omitempty"`
	DiscountValue types.Money          `json:"discountValue"`
	BatchID       *id.ID               `json:"batchId,omitempty"`
}

// Input is the command that records a sale.
type Input struct {
	SoldAt          time.Time            `json:"soldAt" validate:"required"`
	Customer        string               `json:"customer"`
	Lines           []Line               `json:"lines" validate:"required,min=1,dive"`
	DiscountType    pricing.DiscountType `json:"discountType,omitempty"`
	DiscountValue   types.Money          `json:"discountValue"`
	AdditionalCosts []types.Money        `json:"additionalCosts,omitempty"`
	// PromoCode replaces the order discount and is redeemed with the sale.
	PromoCode string `json:"promoCode,omitempty"`
	// CashAccountID and RevenueAccountID together enable the journal entry.
	CashAccountID    *id.ID `json:"cashAccountId,omitempty"`
	RevenueAccountID *id.ID `json:"revenueAccountId,omitempty"`
	CurrencyID       *id.ID `json:"currencyId,omitempty"`
}

func (in *Input) validateAmounts() error {
	for i, l := range in.Lines {
		if !l.Amount.IsPositive() {
			return apperror.NewInvalidAmount("amount", l.Amount.String()).WithDetail("line", i)
		}
		if l.UnitPrice.IsNegative() {
			return apperror.NewValidation("unit price cannot be negative").
				WithDetail("field", "unitPrice").
				WithDetail("line", i)
		}
	}
	if (in.CashAccountID == nil) != (in.RevenueAccountID == nil) {
		return apperror.NewValidation("cash and revenue accounts must be given together")
	}
	return nil
}

// Result is the recorded sale with everything it produced.
type Result struct {
	Sale         Sale                  `json:"sale"`
	Consumptions []batches.Consumption `json:"consumptions"`
	Entry        *ledger.JournalEntry  `json:"entry,omitempty"`
}

// Repository defines persistence for sale headers.
type Repository interface {
	CreateSale(ctx context.Context, s *Sale) error
	SetSaleEntry(ctx context.Context, saleID, entryID id.ID) error
	GetSale(ctx context.Context, saleID id.ID) (*Sale, error)
}
