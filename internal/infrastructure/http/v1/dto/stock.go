package dto

import (
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/domain/sales"
	"stockledger/internal/domain/valuation"
)

// --- Purchases and batches ---

// PurchaseLineRequest is one batch of a purchase.
type PurchaseLineRequest struct {
	ProductID      id.ID          `json:"productId" binding:"required"`
	UnitID         id.ID          `json:"unitId" binding:"required"`
	Amount         types.Quantity `json:"amount"`
	PerPrice       types.Money    `json:"perPrice"`
	CostPrice      *types.Money   `json:"costPrice"`
	WholesalePrice *types.Money   `json:"wholesalePrice"`
	RetailPrice    *types.Money   `json:"retailPrice"`
	ExpiresAt      *Date          `json:"expiresAt"`
	BatchLabel     string         `json:"batchLabel"`
}

// CreatePurchaseRequest records a purchase with its batches.
type CreatePurchaseRequest struct {
	PurchasedAt Date                  `json:"purchasedAt" binding:"required"`
	Supplier    string                `json:"supplier"`
	BatchLabel  string                `json:"batchLabel"`
	Lines       []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the ledger command.
func (r *CreatePurchaseRequest) ToInput() batches.PurchaseInput {
	in := batches.PurchaseInput{
		PurchasedAt: r.PurchasedAt.Time,
		Supplier:    r.Supplier,
		BatchLabel:  r.BatchLabel,
		Lines:       make([]batches.PurchaseLine, len(r.Lines)),
	}
	for i, l := range r.Lines {
		in.Lines[i] = batches.PurchaseLine{
			ProductID:      l.ProductID,
			UnitID:         l.UnitID,
			Amount:         l.Amount,
			PerPrice:       l.PerPrice,
			CostPrice:      l.CostPrice,
			WholesalePrice: l.WholesalePrice,
			RetailPrice:    l.RetailPrice,
			ExpiresAt:      DatePtr(l.ExpiresAt),
			BatchLabel:     l.BatchLabel,
		}
	}
	return in
}

// PurchaseResponse is the recorded purchase.
type PurchaseResponse struct {
	Purchase batches.Purchase `json:"purchase"`
	Batches  []batches.Batch  `json:"batches"`
}

// UpdateBatchRequest patches a batch; omitted fields stay unchanged.
type UpdateBatchRequest struct {
	Amount         *types.Quantity `json:"amount"`
	UnitID         *id.ID          `json:"unitId"`
	PerPrice       *types.Money    `json:"perPrice"`
	CostPrice      *types.Money    `json:"costPrice"`
	WholesalePrice *types.Money    `json:"wholesalePrice"`
	RetailPrice    *types.Money    `json:"retailPrice"`
	ExpiresAt      *Date           `json:"expiresAt"`
	BatchLabel     *string         `json:"batchLabel"`
}

// ToPatch converts the request to a batch patch.
func (r *UpdateBatchRequest) ToPatch() batches.BatchPatch {
	return batches.BatchPatch{
		Amount:         r.Amount,
		UnitID:         r.UnitID,
		PerPrice:       r.PerPrice,
		CostPrice:      r.CostPrice,
		WholesalePrice: r.WholesalePrice,
		RetailPrice:    r.RetailPrice,
		ExpiresAt:      DatePtr(r.ExpiresAt),
		BatchLabel:     r.BatchLabel,
	}
}

// OpenBatchesQuery filters the open batch listing.
type OpenBatchesQuery struct {
	ProductID string `form:"productId"`
}

// RemainingResponse reports what is left of a batch.
type RemainingResponse struct {
	BatchID       id.ID          `json:"batchId"`
	Remaining     types.Quantity `json:"remaining"`
	RemainingBase types.Quantity `json:"remainingBase"`
}

// ValidateConsumptionRequest checks a proposed consumption of a batch.
type ValidateConsumptionRequest struct {
	Amount    types.Quantity `json:"amount"`
	UnitID    id.ID          `json:"unitId" binding:"required"`
	ExcludeID *id.ID         `json:"excludeConsumptionId"`
}

// ValidationResponse is returned when a proposed consumption fits.
type ValidationResponse struct {
	Valid bool `json:"valid"`
}

// UpdateConsumptionRequest changes the quantity of a sale line.
type UpdateConsumptionRequest struct {
	Amount types.Quantity `json:"amount"`
	UnitID id.ID          `json:"unitId" binding:"required"`
}

// --- Sales ---

// SaleLineRequest is one product line of a sale.
type SaleLineRequest struct {
	ProductID     id.ID                `json:"productId" binding:"required"`
	UnitID        id.ID                `json:"unitId" binding:"required"`
	Amount        types.Quantity       `json:"amount"`
	UnitPrice     types.Money          `json:"unitPrice"`
	DiscountType  pricing.DiscountType `json:"discountType"`
	DiscountValue types.Money          `json:"discountValue"`
	BatchID       *id.ID               `json:"batchId"`
}

// CreateSaleRequest records a sale.
type CreateSaleRequest struct {
	SoldAt           Date                 `json:"soldAt" binding:"required"`
	Customer         string               `json:"customer"`
	Lines            []SaleLineRequest    `json:"lines" binding:"required,min=1,dive"`
	DiscountType     pricing.DiscountType `json:"discountType"`
	DiscountValue    types.Money          `json:"discountValue"`
	AdditionalCosts  []types.Money        `json:"additionalCosts"`
	PromoCode        string               `json:"promoCode"`
	CashAccountID    *id.ID               `json:"cashAccountId"`
	RevenueAccountID *id.ID               `json:"revenueAccountId"`
	CurrencyID       *id.ID               `json:"currencyId"`
}

// ToInput converts the request to the sales command.
func (r *CreateSaleRequest) ToInput() sales.Input {
	in := sales.Input{
		SoldAt:           r.SoldAt.Time,
		Customer:         r.Customer,
		Lines:            make([]sales.Line, len(r.Lines)),
		DiscountType:     r.DiscountType,
		DiscountValue:    r.DiscountValue,
		AdditionalCosts:  r.AdditionalCosts,
		PromoCode:        r.PromoCode,
		CashAccountID:    r.CashAccountID,
		RevenueAccountID: r.RevenueAccountID,
		CurrencyID:       r.CurrencyID,
	}
	for i, l := range r.Lines {
		in.Lines[i] = sales.Line{
			ProductID:     l.ProductID,
			UnitID:        l.UnitID,
			Amount:        l.Amount,
			UnitPrice:     l.UnitPrice,
			DiscountType:  l.DiscountType,
			DiscountValue: l.DiscountValue,
			BatchID:       l.BatchID,
		}
	}
	return in
}

// --- Valuation ---

// ProductStockQuery selects the display unit.
type ProductStockQuery struct {
	UnitID string `form:"unitId"`
}

// StockReportQuery filters the stock report.
type StockReportQuery struct {
	ProductID      string `form:"productId"`
	ExpiringBefore string `form:"expiringBefore"`
}

// StockReportResponse is the per-batch report with its totals.
type StockReportResponse struct {
	Rows   []valuation.ReportRow `json:"rows"`
	Totals valuation.Totals      `json:"totals"`
}
