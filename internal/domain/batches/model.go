// Package batches provides the batch-tracked stock ledger.
//
// A batch is one purchase line. Its remaining quantity is never stored:
// it is recomputed from the consumption rows (sale lines) that reference it,
// with every quantity normalised to base units first.
package batches

import (
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Purchase is the header that groups the batches bought together.
type Purchase struct {
	ID          id.ID     `db:"id" json:"id"`
	PurchasedAt time.Time `db:"purchased_at" json:"purchasedAt"`
	Supplier    string    `db:"supplier" json:"supplier"`
	BatchLabel  string    `db:"batch_label" json:"batchLabel"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Batch is a purchase line: a lot of one product with its own prices.
type Batch struct {
	ID             id.ID          `db:"id" json:"id"`
	PurchaseID     id.ID          `db:"purchase_id" json:"purchaseId"`
	ProductID      id.ID          `db:"product_id" json:"productId"`
	UnitID         id.ID          `db:"unit_id" json:"unitId"`
	Amount         types.Quantity `db:"amount" json:"amount"`
	PerPrice       types.Money    `db:"per_price" json:"perPrice"`
	CostPrice      *types.Money   `db:"cost_price" json:"costPrice,omitempty"`
	WholesalePrice *types.Money   `db:"wholesale_price" json:"wholesalePrice,omitempty"`
	RetailPrice    *types.Money   `db:"retail_price" json:"retailPrice,omitempty"`
	ExpiresAt      *time.Time     `db:"expires_at" json:"expiresAt,omitempty"`
	BatchLabel     string         `db:"batch_label" json:"batchLabel"`
}

// UnitCost returns the captured cost price, falling back to the purchase price.
func (b *Batch) UnitCost() types.Money {
	if b.CostPrice != nil {
		return *b.CostPrice
	}
	return b.PerPrice
}

// ListPrice returns the retail price, falling back to the purchase price.
func (b *Batch) ListPrice() types.Money {
	if b.RetailPrice != nil {
		return *b.RetailPrice
	}
	return b.PerPrice
}

// auditState is the snapshot written to the audit log on edits.
func (b *Batch) auditState() map[string]any {
	state := map[string]any{
		"unit_id":     b.UnitID.String(),
		"amount":      b.Amount.String(),
		"per_price":   b.PerPrice.String(),
		"batch_label": b.BatchLabel,
	}
	if b.CostPrice != nil {
		state["cost_price"] = b.CostPrice.String()
	}
	if b.WholesalePrice != nil {
		state["wholesale_price"] = b.WholesalePrice.String()
	}
	if b.RetailPrice != nil {
		state["retail_price"] = b.RetailPrice.String()
	}
	if b.ExpiresAt != nil {
		state["expires_at"] = b.ExpiresAt.Format(time.DateOnly)
	}
	return state
}

// BatchRow is a batch joined with its purchase and display names.
type BatchRow struct {
	Batch
	PurchasedAt       time.Time `db:"purchased_at" json:"purchasedAt"`
	PurchaseCreatedAt time.Time `db:"purchase_created_at" json:"-"`
	ProductName       string    `db:"product_name" json:"productName"`
	UnitName          string    `db:"unit_name" json:"unitName"`
}

// OpenBatch is a batch that still has stock.
type OpenBatch struct {
	BatchRow
	RemainingBase types.Quantity `json:"remainingBase"`
	Remaining     types.Quantity `json:"remaining"`
}

// BatchFilter narrows batch listings.
type BatchFilter struct {
	ProductID      *id.ID
	ExpiringBefore *time.Time
}

// Consumption is a sale line that draws down a batch.
type Consumption struct {
	ID        id.ID          `db:"id" json:"id"`
	SaleID    *id.ID         `db:"sale_id" json:"saleId,omitempty"`
	ProductID id.ID          `db:"product_id" json:"productId"`
	UnitID    id.ID          `db:"unit_id" json:"unitId"`
	Amount    types.Quantity `db:"amount" json:"amount"`
	UnitPrice types.Money    `db:"unit_price" json:"unitPrice"`
	LineTotal types.Money    `db:"line_total" json:"lineTotal"`
	BatchID   *id.ID         `db:"batch_id" json:"batchId,omitempty"`
}

// Allocation is one slice of a FIFO plan. Amount is in the requested unit.
type Allocation struct {
	BatchID id.ID          `json:"batchId"`
	Amount  types.Quantity `json:"amount"`
	Base    types.Quantity `json:"base"`
}

// PurchaseLine describes one batch of a new purchase.
type PurchaseLine struct {
	ProductID      id.ID          `json:"productId" validate:"required"`
	UnitID         id.ID          `json:"unitId" validate:"required"`
	Amount         types.Quantity `json:"amount"`
	PerPrice       types.Money    `json:"perPrice"`
	CostPrice      *types.Money   `json:"costPrice,omitempty"`
	WholesalePrice *types.Money   `json:"wholesalePrice,omitempty"`
	RetailPrice    *types.Money   `json:"retailPrice,omitempty"`
	ExpiresAt      *time.Time     `json:"expiresAt,omitempty"`
	BatchLabel     string         `json:"batchLabel,omitempty"`
}

// PurchaseInput is the command that records a purchase and its batches.
type PurchaseInput struct {
	PurchasedAt time.Time      `json:"purchasedAt" validate:"required"`
	Supplier    string         `json:"supplier"`
	BatchLabel  string         `json:"batchLabel"`
	Lines       []PurchaseLine `json:"lines" validate:"required,min=1,dive"`
}

func (in *PurchaseInput) validateAmounts() error {
	for i, line := range in.Lines {
		if !line.Amount.IsPositive() {
			return apperror.NewInvalidAmount("amount", line.Amount.String()).
				WithDetail("line", i)
		}
		for field, price := range map[string]*types.Money{
			"perPrice":       &line.PerPrice,
			"costPrice":      line.CostPrice,
			"wholesalePrice": line.WholesalePrice,
			"retailPrice":    line.RetailPrice,
		} {
			if price != nil && price.IsNegative() {
				return apperror.NewValidation(field+" cannot be negative").
					WithDetail("field", field).
					WithDetail("line", i)
			}
		}
	}
	return nil
}

// ConsumptionInput is the command that records one sale line.
// Without BatchID the line is stored without drawing down any batch.
type ConsumptionInput struct {
	SaleID    *id.ID         `json:"saleId,omitempty"`
	ProductID id.ID          `json:"productId"`
	UnitID    id.ID          `json:"unitId" validate:"required"`
	Amount    types.Quantity `json:"amount"`
	UnitPrice types.Money    `json:"unitPrice"`
	LineTotal types.Money    `json:"lineTotal"`
	BatchID   *id.ID         `json:"batchId,omitempty"`
}

// BatchPatch lists the batch fields to change; nil means unchanged.
type BatchPatch struct {
	Amount         *types.Quantity `json:"amount,omitempty"`
	UnitID         *id.ID          `json:"unitId,omitempty"`
	PerPrice       *types.Money    `json:"perPrice,omitempty"`
	CostPrice      *types.Money    `json:"costPrice,omitempty"`
	WholesalePrice *types.Money    `json:"wholesalePrice,omitempty"`
	RetailPrice    *types.Money    `json:"retailPrice,omitempty"`
	ExpiresAt      *time.Time      `json:"expiresAt,omitempty"`
	BatchLabel     *string         `json:"batchLabel,omitempty"`
}

// touchesQuantity reports whether the patch changes purchased base units.
func (p BatchPatch) touchesQuantity() bool {
	return p.Amount != nil || p.UnitID != nil
}

func (p BatchPatch) apply(b *Batch) {
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.UnitID != nil {
		b.UnitID = *p.UnitID
	}
	if p.PerPrice != nil {
		b.PerPrice = *p.PerPrice
	}
	if p.CostPrice != nil {
		b.CostPrice = p.CostPrice
	}
	if p.WholesalePrice != nil {
		b.WholesalePrice = p.WholesalePrice
	}
	if p.RetailPrice != nil {
		b.RetailPrice = p.RetailPrice
	}
	if p.ExpiresAt != nil {
		b.ExpiresAt = p.ExpiresAt
	}
	if p.BatchLabel != nil {
		b.BatchLabel = *p.BatchLabel
	}
}
