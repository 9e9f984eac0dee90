package valuation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/valuation"
	"stockledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	ledger  *batches.Ledger
	svc     *valuation.Service
	piece   unit.Unit
	box     unit.Unit
	product id.ID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	group := id.New()
	conv := unit.NewConverter(store.Units())
	f := &fixture{
		ledger:  batches.NewLedger(store.Batches(), conv, store.TxManager(), nil),
		piece:   store.Seed().Unit("piece", &group, "1"),
		box:     store.Seed().Unit("box", &group, "12"),
		product: store.Seed().Product("Juice").ID,
	}
	f.svc = valuation.NewService(f.ledger, conv)
	return f
}

func (f *fixture) buy(t *testing.T, line batches.PurchaseLine, day int) batches.Batch {
	t.Helper()
	line.ProductID = f.product
	_, created, err := f.ledger.RecordPurchase(context.Background(), batches.PurchaseInput{
		PurchasedAt: memory.Date(2026, time.February, day),
		Lines:       []batches.PurchaseLine{line},
	})
	require.NoError(t, err)
	return created[0]
}

func (f *fixture) sell(t *testing.T, b batches.Batch, amount string, unitID id.ID) {
	t.Helper()
	_, err := f.ledger.RecordConsumption(context.Background(), batches.ConsumptionInput{
		UnitID:  unitID,
		Amount:  types.MustMoney(amount),
		BatchID: &b.ID,
	})
	require.NoError(t, err)
}

func equal(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(types.MustMoney(want)), "want %s, got %s", want, got)
}

func TestStockReport_CostOnly(t *testing.T) {
	f := newFixture(t)
	b := f.buy(t, batches.PurchaseLine{UnitID: f.piece.ID, Amount: types.MustMoney("100"), PerPrice: types.MustMoney("2.00")}, 1)
	f.sell(t, b, "30", f.piece.ID)
	f.sell(t, b, "50", f.piece.ID)

	rows, err := f.svc.StockReport(context.Background(), valuation.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	equal(t, "20", r.Remaining)
	equal(t, "2.00", r.UnitCost)
	equal(t, "200.00", r.TotalPurchaseCost)
	equal(t, "40.00", r.StockValue)
	// Without a retail price revenue equals stock value.
	equal(t, "40.00", r.PotentialRevenue)
	equal(t, "0", r.PotentialProfit)
	equal(t, "0", r.MarginPercent)
	assert.Equal(t, "Juice", r.ProductName)
}

func TestStockReport_BoxesWithRetailPrice(t *testing.T) {
	f := newFixture(t)
	retail := types.MustMoney("30.00")
	b := f.buy(t, batches.PurchaseLine{
		UnitID:      f.box.ID,
		Amount:      types.MustMoney("10"),
		PerPrice:    types.MustMoney("24.00"),
		RetailPrice: &retail,
	}, 1)
	f.sell(t, b, "30", f.piece.ID)

	rows, err := f.svc.StockReport(context.Background(), valuation.ReportFilter{ProductID: &f.product})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	equal(t, "7.5", r.Remaining)
	equal(t, "180.00", r.StockValue)
	equal(t, "225.00", r.PotentialRevenue)
	equal(t, "45.00", r.PotentialProfit)
	equal(t, "20.00", r.MarginPercent)
}

func TestStockReport_CostPriceOverridesPerPrice(t *testing.T) {
	f := newFixture(t)
	cost := types.MustMoney("1.50")
	f.buy(t, batches.PurchaseLine{
		UnitID:    f.piece.ID,
		Amount:    types.MustMoney("10"),
		PerPrice:  types.MustMoney("2.00"),
		CostPrice: &cost,
	}, 1)

	rows, err := f.svc.StockReport(context.Background(), valuation.ReportFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	equal(t, "15.00", rows[0].StockValue)
	equal(t, "20.00", rows[0].PotentialRevenue)
	equal(t, "25.00", rows[0].MarginPercent)
}

func TestStockReport_ExpiryFilterAndDrainedBatches(t *testing.T) {
	f := newFixture(t)
	soon := memory.Date(2026, time.March, 1)
	later := memory.Date(2026, time.December, 1)
	f.buy(t, batches.PurchaseLine{UnitID: f.piece.ID, Amount: types.MustMoney("5"), PerPrice: types.MustMoney("1"), ExpiresAt: &soon}, 1)
	f.buy(t, batches.PurchaseLine{UnitID: f.piece.ID, Amount: types.MustMoney("5"), PerPrice: types.MustMoney("1"), ExpiresAt: &later}, 2)
	drained := f.buy(t, batches.PurchaseLine{UnitID: f.piece.ID, Amount: types.MustMoney("5"), PerPrice: types.MustMoney("1"), ExpiresAt: &soon}, 3)
	f.sell(t, drained, "5", f.piece.ID)

	cutoff := memory.Date(2026, time.June, 1)
	rows, err := f.svc.StockReport(context.Background(), valuation.ReportFilter{ExpiringBefore: &cutoff})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, soon, *rows[0].ExpiresAt)
}

func TestProductStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.buy(t, batches.PurchaseLine{UnitID: f.box.ID, Amount: types.MustMoney("2"), PerPrice: types.MustMoney("20")}, 1)
	f.buy(t, batches.PurchaseLine{UnitID: f.piece.ID, Amount: types.MustMoney("6"), PerPrice: types.MustMoney("2")}, 2)
	f.sell(t, first, "1", f.box.ID)

	stock, err := f.svc.ProductStock(ctx, f.product, nil)
	require.NoError(t, err)
	equal(t, "18", stock.TotalBase)
	assert.Nil(t, stock.TotalInUnit)

	stock, err = f.svc.ProductStock(ctx, f.product, &f.box.ID)
	require.NoError(t, err)
	require.NotNil(t, stock.TotalInUnit)
	equal(t, "1.5", *stock.TotalInUnit)

	empty, err := f.svc.ProductStock(ctx, id.New(), nil)
	require.NoError(t, err)
	assert.True(t, empty.TotalBase.IsZero())
}

func TestSummary(t *testing.T) {
	rows := []valuation.ReportRow{
		{TotalPurchaseCost: types.MustMoney("100"), StockValue: types.MustMoney("40"), PotentialRevenue: types.MustMoney("60"), PotentialProfit: types.MustMoney("20")},
		{TotalPurchaseCost: types.MustMoney("50"), StockValue: types.MustMoney("50"), PotentialRevenue: types.MustMoney("40"), PotentialProfit: types.MustMoney("-10")},
	}

	got := valuation.Summary(rows)
	assert.Equal(t, 2, got.Batches)
	equal(t, "150", got.TotalPurchaseCost)
	equal(t, "90", got.StockValue)
	equal(t, "100", got.PotentialRevenue)
	equal(t, "10", got.PotentialProfit)
	equal(t, "10.00", got.MarginPercent)

	none := valuation.Summary(nil)
	assert.Zero(t, none.Batches)
	equal(t, "0", none.MarginPercent)
}
