package pricing_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/infrastructure/storage/memory"
)

var noon = time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC) // a Wednesday

func newEngine(t *testing.T) (*pricing.Engine, *memory.Store) {
	t.Helper()
	rules, err := pricing.NewRules()
	require.NoError(t, err)
	store := memory.New()
	return pricing.NewEngine(store.PromoCodes(), rules, store.TxManager()), store
}

func ptr[T any](v T) *T { return &v }

func saveCode(t *testing.T, e *pricing.Engine, p pricing.PromoCode) *pricing.PromoCode {
	t.Helper()
	if p.DiscountType == "" {
		p.DiscountType = pricing.DiscountPercent
		p.DiscountValue = types.MustMoney("10")
	}
	p.Active = true
	require.NoError(t, e.SaveCode(context.Background(), &p))
	return &p
}

func TestEngine_ValidateCode_Reasons(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	saveCode(t, e, pricing.PromoCode{Code: "min50", MinPurchase: types.MustMoney("50")})
	saveCode(t, e, pricing.PromoCode{Code: "later", ValidFrom: ptr(noon.Add(time.Hour))})
	saveCode(t, e, pricing.PromoCode{Code: "gone", ValidUntil: ptr(noon.Add(-time.Hour))})
	saveCode(t, e, pricing.PromoCode{Code: "spent", MaxUses: ptr(0)})
	saveCode(t, e, pricing.PromoCode{Code: "weekend", Rule: "weekday == 0 || weekday == 6"})

	off := saveCode(t, e, pricing.PromoCode{Code: "off"})
	off.Active = false
	require.NoError(t, e.SaveCode(ctx, off))

	tests := []struct {
		code     string
		subtotal string
		reason   pricing.RejectReason
	}{
		{"missing", "100", pricing.ReasonNotFound},
		{"off", "100", pricing.ReasonNotFound},
		{"min50", "49.99", pricing.ReasonBelowMinimumPurchase},
		{"later", "100", pricing.ReasonNotYetValid},
		{"gone", "100", pricing.ReasonExpired},
		{"spent", "100", pricing.ReasonExhaustedUses},
		{"weekend", "100", pricing.ReasonConditionNotMet},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := e.ValidateCode(ctx, tt.code, types.MustMoney(tt.subtotal), noon)
			require.Error(t, err)
			assert.True(t, pricing.IsRejected(err, tt.reason), "got %v", err)
			assert.True(t, apperror.IsCode(err, apperror.CodePromoCodeRejected))
		})
	}
}

func TestEngine_ValidateCode_FirstFailureWins(t *testing.T) {
	e, _ := newEngine(t)
	saveCode(t, e, pricing.PromoCode{
		Code:        "both",
		MinPurchase: types.MustMoney("50"),
		ValidUntil:  ptr(noon.Add(-time.Hour)),
	})

	_, err := e.ValidateCode(context.Background(), "both", types.MustMoney("10"), noon)
	assert.True(t, pricing.IsRejected(err, pricing.ReasonBelowMinimumPurchase))
}

func TestEngine_ValidateCode_Accepts(t *testing.T) {
	e, store := newEngine(t)
	saveCode(t, e, pricing.PromoCode{
		Code:          "Summer10",
		DiscountType:  pricing.DiscountFixed,
		DiscountValue: types.MustMoney("10"),
		MinPurchase:   types.MustMoney("50"),
		ValidFrom:     ptr(noon.Add(-time.Hour)),
		ValidUntil:    ptr(noon.Add(time.Hour)),
		MaxUses:       ptr(1),
		Rule:          "subtotal >= 50.0 && weekday == 3",
	})

	d, err := e.ValidateCode(context.Background(), "  summer10 ", types.MustMoney("50"), noon)
	require.NoError(t, err)
	assert.Equal(t, pricing.DiscountFixed, d.Type)
	assert.True(t, d.Value.Equal(types.MustMoney("10")))

	p, err := store.PromoCodes().FindByCode(context.Background(), "SUMMER10")
	require.NoError(t, err)
	assert.Zero(t, p.UsedCount, "validation must not consume a use")
}

func TestEngine_RedeemCode_RespectsCap(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)
	saveCode(t, e, pricing.PromoCode{Code: "ONCE", MaxUses: ptr(3)})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		redeemed int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.RedeemCode(ctx, "once", types.MustMoney("100"), noon)
			if err == nil {
				mu.Lock()
				redeemed++
				mu.Unlock()
				return
			}
			assert.True(t, pricing.IsRejected(err, pricing.ReasonExhaustedUses))
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, redeemed)
	p, err := store.PromoCodes().FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 3, p.UsedCount)
}

func TestEngine_SaveCode(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)

	p := saveCode(t, e, pricing.PromoCode{Code: "keep", MaxUses: ptr(5)})
	_, err := e.RedeemCode(ctx, "KEEP", types.MustMoney("1"), noon)
	require.NoError(t, err)

	// Re-saving by code keeps the id and the use count.
	again := pricing.PromoCode{
		Code:          "keep",
		DiscountType:  pricing.DiscountPercent,
		DiscountValue: types.MustMoney("15"),
		Active:        true,
	}
	require.NoError(t, e.SaveCode(ctx, &again))
	assert.Equal(t, p.ID, again.ID)

	stored, err := store.PromoCodes().FindByCode(ctx, "KEEP")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsedCount)
	assert.True(t, stored.DiscountValue.Equal(types.MustMoney("15")))

	invalid := []pricing.PromoCode{
		{Code: "", DiscountType: pricing.DiscountPercent, DiscountValue: types.MustMoney("5")},
		{Code: "X", DiscountType: pricing.DiscountNone, DiscountValue: types.MustMoney("5")},
		{Code: "X", DiscountType: pricing.DiscountPercent, DiscountValue: types.MustMoney("101")},
		{Code: "X", DiscountType: pricing.DiscountFixed, DiscountValue: types.Zero()},
		{Code: "X", DiscountType: pricing.DiscountFixed, DiscountValue: types.MustMoney("1"), Rule: "subtotal +"},
		{Code: "X", DiscountType: pricing.DiscountFixed, DiscountValue: types.MustMoney("1"), Rule: "subtotal * 2.0"},
		{
			Code: "X", DiscountType: pricing.DiscountFixed, DiscountValue: types.MustMoney("1"),
			ValidFrom: ptr(noon), ValidUntil: ptr(noon.Add(-time.Minute)),
		},
	}
	for i := range invalid {
		err := e.SaveCode(ctx, &invalid[i])
		require.Error(t, err, "case %d", i)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok, "case %d", i)
		assert.Contains(t, []string{apperror.CodeValidation, apperror.CodeInvalidAmount}, appErr.Code, "case %d", i)
	}
}

func TestRules_Eval(t *testing.T) {
	rules, err := pricing.NewRules()
	require.NoError(t, err)

	ok, err := rules.Eval("", types.Zero(), noon)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rules.Eval("subtotal > 99.5", types.MustMoney("100"), noon)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rules.Eval("now < timestamp('2026-06-01T00:00:00Z')", types.MustMoney("100"), noon)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = rules.Eval("unknown > 1", types.Zero(), noon)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestEngine_Quote(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	q, err := e.Quote(ctx, pricing.QuoteInput{
		Lines: []pricing.QuoteLine{
			{UnitPrice: types.MustMoney("25.00"), Quantity: types.MustMoney("10"), DiscountType: pricing.DiscountPercent, DiscountValue: types.MustMoney("10")},
			{UnitPrice: types.MustMoney("5.00"), Quantity: types.MustMoney("5")},
		},
		DiscountType:    pricing.DiscountFixed,
		DiscountValue:   types.MustMoney("50"),
		AdditionalCosts: []types.Money{types.MustMoney("7.50")},
	})
	require.NoError(t, err)
	assert.True(t, q.LineTotals[0].Equal(types.MustMoney("225.00")))
	assert.True(t, q.Subtotal.Equal(types.MustMoney("250.00")))
	assert.True(t, q.Discount.Equal(types.MustMoney("50.00")))
	assert.True(t, q.Total.Equal(types.MustMoney("207.50")))
}

func TestEngine_Quote_PromoReplacesOrderDiscount(t *testing.T) {
	ctx := context.Background()
	e, store := newEngine(t)
	saveCode(t, e, pricing.PromoCode{Code: "TWENTY", DiscountType: pricing.DiscountPercent, DiscountValue: types.MustMoney("20")})

	q, err := e.Quote(ctx, pricing.QuoteInput{
		Lines:         []pricing.QuoteLine{{UnitPrice: types.MustMoney("10"), Quantity: types.MustMoney("10")}},
		DiscountType:  pricing.DiscountFixed,
		DiscountValue: types.MustMoney("5"),
		PromoCode:     "twenty",
	})
	require.NoError(t, err)
	assert.Equal(t, pricing.DiscountPercent, q.Applied.Type)
	assert.True(t, q.Total.Equal(types.MustMoney("80.00")))

	p, err := store.PromoCodes().FindByCode(ctx, "TWENTY")
	require.NoError(t, err)
	assert.Zero(t, p.UsedCount)

	_, err = e.Quote(ctx, pricing.QuoteInput{
		Lines: []pricing.QuoteLine{{UnitPrice: types.MustMoney("10"), Quantity: types.Zero()}},
	})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount))
}
