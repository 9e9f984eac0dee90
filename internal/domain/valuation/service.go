// Package valuation builds stock views from the batch ledger: total stock
// per product and a per-batch report of value, revenue and margin.
//
// Nothing here is stored; every call recomputes from current batches.
package valuation

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/unit"
)

// ProductStock is the remaining stock of one product.
type ProductStock struct {
	ProductID id.ID          `json:"productId"`
	TotalBase types.Quantity `json:"totalBase"`
	// TotalInUnit is set when a display unit was requested.
	TotalInUnit *types.Quantity `json:"totalInUnit,omitempty"`
	UnitID      *id.ID          `json:"unitId,omitempty"`
}

// ReportRow values one open batch.
type ReportRow struct {
	BatchID           id.ID          `json:"batchId"`
	ProductID         id.ID          `json:"productId"`
	ProductName       string         `json:"productName"`
	UnitName          string         `json:"unitName"`
	BatchLabel        string         `json:"batchLabel,omitempty"`
	ExpiresAt         *time.Time     `json:"expiresAt,omitempty"`
	Remaining         types.Quantity `json:"remaining"`
	UnitCost          types.Money    `json:"unitCost"`
	TotalPurchaseCost types.Money    `json:"totalPurchaseCost"`
	StockValue        types.Money    `json:"stockValue"`
	PotentialRevenue  types.Money    `json:"potentialRevenue"`
	PotentialProfit   types.Money    `json:"potentialProfit"`
	MarginPercent     types.Money    `json:"marginPercent"`
}

// Totals sums a report.
type Totals struct {
	Batches           int         `json:"batches"`
	TotalPurchaseCost types.Money `json:"totalPurchaseCost"`
	StockValue        types.Money `json:"stockValue"`
	PotentialRevenue  types.Money `json:"potentialRevenue"`
	PotentialProfit   types.Money `json:"potentialProfit"`
	MarginPercent     types.Money `json:"marginPercent"`
}

// ReportFilter narrows the stock report.
type ReportFilter struct {
	ProductID      *id.ID
	ExpiringBefore *time.Time
}

// Service composes batch ledger results with purchase-time prices.
type Service struct {
	ledger *batches.Ledger
	units  *unit.Converter
}

// NewService creates a valuation service.
func NewService(ledger *batches.Ledger, units *unit.Converter) *Service {
	return &Service{ledger: ledger, units: units}
}

// ProductStock sums remaining base units over the product's batches and,
// when unitID is given, converts the sum into that unit.
func (s *Service) ProductStock(ctx context.Context, productID id.ID, unitID *id.ID) (*ProductStock, error) {
	open, err := s.ledger.ListOpenBatches(ctx, &productID)
	if err != nil {
		return nil, err
	}

	total := types.Zero()
	for _, b := range open {
		total = total.Add(b.RemainingBase)
	}
	res := &ProductStock{ProductID: productID, TotalBase: types.Round6(total)}
	if unitID != nil {
		inUnit := types.Round6(s.units.FromBase(ctx, total, *unitID))
		res.TotalInUnit = &inUnit
		res.UnitID = unitID
	}
	return res, nil
}

// StockReport returns one row per open batch, oldest purchase first.
func (s *Service) StockReport(ctx context.Context, f ReportFilter) ([]ReportRow, error) {
	open, err := s.ledger.ListOpen(ctx, batches.BatchFilter{
		ProductID:      f.ProductID,
		ExpiringBefore: f.ExpiringBefore,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]ReportRow, 0, len(open))
	for i := range open {
		rows = append(rows, valueBatch(&open[i]))
	}
	return rows, nil
}

func valueBatch(b *batches.OpenBatch) ReportRow {
	remaining := b.Remaining
	stockValue := types.Round2(b.UnitCost().Mul(remaining))
	revenue := types.Round2(b.ListPrice().Mul(remaining))
	profit := revenue.Sub(stockValue)

	return ReportRow{
		BatchID:           b.ID,
		ProductID:         b.ProductID,
		ProductName:       b.ProductName,
		UnitName:          b.UnitName,
		BatchLabel:        b.BatchLabel,
		ExpiresAt:         b.ExpiresAt,
		Remaining:         types.Round6(remaining),
		UnitCost:          types.Round2(b.PerPrice),
		TotalPurchaseCost: types.Round2(b.Amount.Mul(b.PerPrice)),
		StockValue:        stockValue,
		PotentialRevenue:  revenue,
		PotentialProfit:   profit,
		MarginPercent:     margin(profit, revenue),
	}
}

// margin returns 100 x profit / revenue, or 0 without revenue.
func margin(profit, revenue types.Money) types.Money {
	if revenue.IsZero() {
		return types.Zero()
	}
	return types.Round2(profit.Mul(types.Hundred()).Div(revenue))
}

// Summary totals a report. The margin is blended over all rows.
func Summary(rows []ReportRow) Totals {
	t := Totals{
		Batches:           len(rows),
		TotalPurchaseCost: types.Zero(),
		StockValue:        types.Zero(),
		PotentialRevenue:  types.Zero(),
		PotentialProfit:   types.Zero(),
	}
	for _, r := range rows {
		t.TotalPurchaseCost = t.TotalPurchaseCost.Add(r.TotalPurchaseCost)
		t.StockValue = t.StockValue.Add(r.StockValue)
		t.PotentialRevenue = t.PotentialRevenue.Add(r.PotentialRevenue)
		t.PotentialProfit = t.PotentialProfit.Add(r.PotentialProfit)
	}
	t.MarginPercent = margin(t.PotentialProfit, t.PotentialRevenue)
	return t
}
