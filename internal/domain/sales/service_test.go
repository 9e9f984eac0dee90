package sales_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/domain/sales"
	"stockledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	store   *memory.Store
	stock   *batches.Ledger
	journal *ledger.Service
	engine  *pricing.Engine
	svc     *sales.Service
	base    currency.Currency
	piece   unit.Unit
	product id.ID
	cash    ledger.Account
	revenue ledger.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	txm := store.TxManager()

	rules, err := pricing.NewRules()
	require.NoError(t, err)

	f := &fixture{
		store:   store,
		base:    store.Seed().Currency("EUR", true, "1"),
		piece:   store.Seed().Unit("piece", nil, "1"),
		product: store.Seed().Product("Coffee beans").ID,
		cash:    store.Seed().Account("Cash", "0", nil),
		revenue: store.Seed().Account("Revenue", "0", nil),
	}
	f.stock = batches.NewLedger(store.Batches(), unit.NewConverter(store.Units()), txm, store.Audit())
	f.journal = ledger.NewService(store.Ledger(), currency.NewService(store.Currencies(), txm), store.Numerator(), txm)
	f.engine = pricing.NewEngine(store.PromoCodes(), rules, txm)
	f.svc = sales.NewService(store.Sales(), f.engine, f.stock, f.journal, txm)
	return f
}

func (f *fixture) buy(t *testing.T, amount string, day int) batches.Batch {
	t.Helper()
	_, created, err := f.stock.RecordPurchase(context.Background(), batches.PurchaseInput{
		PurchasedAt: memory.Date(2026, time.January, day),
		Lines: []batches.PurchaseLine{{
			ProductID: f.product,
			UnitID:    f.piece.ID,
			Amount:    types.MustMoney(amount),
			PerPrice:  types.MustMoney("2.00"),
		}},
	})
	require.NoError(t, err)
	return created[0]
}

func (f *fixture) line(amount string) sales.Line {
	return sales.Line{
		ProductID: f.product,
		UnitID:    f.piece.ID,
		Amount:    types.MustMoney(amount),
		UnitPrice: types.MustMoney("5.00"),
	}
}

func (f *fixture) remaining(t *testing.T, b batches.Batch) types.Quantity {
	t.Helper()
	r, err := f.stock.RemainingBase(context.Background(), b.ID)
	require.NoError(t, err)
	return r
}

func equal(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(types.MustMoney(want)), "want %s, got %s", want, got)
}

var soldAt = memory.Date(2026, time.February, 14)

func TestRecordSale_FullFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	older := f.buy(t, "4", 1)
	newer := f.buy(t, "100", 2)

	l := f.line("10")
	l.DiscountType = pricing.DiscountPercent
	l.DiscountValue = types.MustMoney("10")

	res, err := f.svc.RecordSale(ctx, sales.Input{
		SoldAt:           soldAt,
		Customer:         "Walk-in",
		Lines:            []sales.Line{l},
		DiscountType:     pricing.DiscountFixed,
		DiscountValue:    types.MustMoney("5"),
		AdditionalCosts:  []types.Money{types.MustMoney("2")},
		CashAccountID:    &f.cash.ID,
		RevenueAccountID: &f.revenue.ID,
	})
	require.NoError(t, err)

	equal(t, "45.00", res.Sale.Subtotal)
	equal(t, "5.00", res.Sale.Discount)
	equal(t, "42.00", res.Sale.Total)

	require.Len(t, res.Consumptions, 2)
	assert.Equal(t, older.ID, *res.Consumptions[0].BatchID)
	assert.Equal(t, res.Sale.ID, *res.Consumptions[0].SaleID)
	equal(t, "0", f.remaining(t, older))
	equal(t, "94", f.remaining(t, newer))

	require.NotNil(t, res.Entry)
	assert.True(t, res.Entry.IsBalanced())
	assert.Equal(t, "J000001", res.Entry.Number)

	cash, err := f.journal.BalanceInCurrency(ctx, f.cash.ID, f.base.ID)
	require.NoError(t, err)
	equal(t, "42", cash)

	stored, err := f.svc.GetSale(ctx, res.Sale.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EntryID)
	assert.Equal(t, res.Entry.ID, *stored.EntryID)
}

func TestRecordSale_ExplicitBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	older := f.buy(t, "10", 1)
	newer := f.buy(t, "10", 2)

	l := f.line("3")
	l.BatchID = &newer.ID
	res, err := f.svc.RecordSale(ctx, sales.Input{SoldAt: soldAt, Lines: []sales.Line{l}})
	require.NoError(t, err)

	require.Len(t, res.Consumptions, 1)
	equal(t, "15.00", res.Consumptions[0].LineTotal)
	equal(t, "10", f.remaining(t, older))
	equal(t, "7", f.remaining(t, newer))
	assert.Nil(t, res.Entry, "no accounts, no entry")
}

func TestRecordSale_ShortageRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.buy(t, "10", 1)

	promo := pricing.PromoCode{
		Code:          "SPRING",
		DiscountType:  pricing.DiscountPercent,
		DiscountValue: types.MustMoney("10"),
		Active:        true,
	}
	require.NoError(t, f.engine.SaveCode(ctx, &promo))

	_, err := f.svc.RecordSale(ctx, sales.Input{
		SoldAt:           soldAt,
		Lines:            []sales.Line{f.line("6"), f.line("6")},
		PromoCode:        "spring",
		CashAccountID:    &f.cash.ID,
		RevenueAccountID: &f.revenue.ID,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	equal(t, "10", f.remaining(t, b))
	assert.Zero(t, f.store.Sales().SaleCount())

	stored, err := f.store.PromoCodes().FindByCode(ctx, "SPRING")
	require.NoError(t, err)
	assert.Zero(t, stored.UsedCount)

	entries, err := f.journal.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordSale_PromoCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.buy(t, "100", 1)

	promo := pricing.PromoCode{
		Code:          "ONEOFF",
		DiscountType:  pricing.DiscountPercent,
		DiscountValue: types.MustMoney("20"),
		MaxUses:       new(int),
		Active:        true,
	}
	*promo.MaxUses = 1
	require.NoError(t, f.engine.SaveCode(ctx, &promo))

	in := sales.Input{
		SoldAt:        soldAt,
		Lines:         []sales.Line{f.line("10")},
		DiscountType:  pricing.DiscountFixed,
		DiscountValue: types.MustMoney("1"),
		PromoCode:     "oneoff",
	}
	res, err := f.svc.RecordSale(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "ONEOFF", res.Sale.PromoCode)
	equal(t, "10.00", res.Sale.Discount)
	equal(t, "40.00", res.Sale.Total)

	_, err = f.svc.RecordSale(ctx, in)
	assert.True(t, pricing.IsRejected(err, pricing.ReasonExhaustedUses))
	equal(t, "90", f.remaining(t, b))
	assert.Equal(t, 1, f.store.Sales().SaleCount())
}

func TestRecordSale_FreeSalePostsNoEntry(t *testing.T) {
	f := newFixture(t)
	f.buy(t, "5", 1)

	res, err := f.svc.RecordSale(context.Background(), sales.Input{
		SoldAt:           soldAt,
		Lines:            []sales.Line{f.line("1")},
		DiscountType:     pricing.DiscountPercent,
		DiscountValue:    types.MustMoney("100"),
		CashAccountID:    &f.cash.ID,
		RevenueAccountID: &f.revenue.ID,
	})
	require.NoError(t, err)
	equal(t, "0", res.Sale.Total)
	assert.Nil(t, res.Entry)
	assert.Nil(t, res.Sale.EntryID)
}

func TestRecordSale_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.buy(t, "5", 1)

	_, err := f.svc.RecordSale(ctx, sales.Input{SoldAt: soldAt})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.svc.RecordSale(ctx, sales.Input{SoldAt: soldAt, Lines: []sales.Line{f.line("0")}})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.RecordSale(ctx, sales.Input{
		SoldAt:        soldAt,
		Lines:         []sales.Line{f.line("1")},
		CashAccountID: &f.cash.ID,
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	_, err = f.svc.RecordSale(ctx, sales.Input{SoldAt: soldAt, Lines: []sales.Line{f.line("1")}, PromoCode: "NOPE"})
	assert.True(t, pricing.IsRejected(err, pricing.ReasonNotFound))
	assert.Zero(t, f.store.Sales().SaleCount())
}
