package currency_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/infrastructure/storage/memory"
)

func TestService_BaseSwitch(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := currency.NewService(store.Currencies(), store.TxManager())

	uah := currency.NewCurrency("uah", "Hryvnia", types.One())
	uah.IsBase = true
	require.NoError(t, svc.Create(ctx, uah))
	assert.Equal(t, "UAH", uah.Code)

	eur := currency.NewCurrency("EUR", "Euro", types.One())
	eur.IsBase = true
	require.NoError(t, svc.Create(ctx, eur))

	base, err := svc.Base(ctx)
	require.NoError(t, err)
	assert.Equal(t, eur.ID, base.ID)

	old, err := svc.Get(ctx, uah.ID)
	require.NoError(t, err)
	assert.False(t, old.IsBase)

	// Dropping the flag directly is refused.
	eur.IsBase = false
	err = svc.Update(ctx, eur)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	old.IsBase = true
	require.NoError(t, svc.Update(ctx, old))
	base, err = svc.Base(ctx)
	require.NoError(t, err)
	assert.Equal(t, uah.ID, base.ID)
}

func TestService_CreateRejects(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := currency.NewService(store.Currencies(), store.TxManager())

	require.NoError(t, svc.Create(ctx, currency.NewCurrency("USD", "Dollar", types.MustMoney("41.2"))))

	err := svc.Create(ctx, currency.NewCurrency("usd", "Again", types.MustMoney("41")))
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))

	err = svc.Create(ctx, currency.NewCurrency("PLN", "Zloty", types.Zero()))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	odd := currency.NewCurrency("GBP", "Pound", types.MustMoney("50"))
	odd.IsBase = true
	err = svc.Create(ctx, odd)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := currency.NewService(store.Currencies(), store.TxManager())
	base := store.Seed().Currency("UAH", true, "1")
	usd := store.Seed().Currency("USD", false, "41.2")

	err := svc.Delete(ctx, base.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	require.NoError(t, svc.Delete(ctx, usd.ID))
	_, err = svc.Get(ctx, usd.ID)
	assert.True(t, apperror.IsNotFound(err))

	assert.True(t, apperror.IsNotFound(svc.Delete(ctx, id.New())))
}

func TestService_Resolve(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := currency.NewService(store.Currencies(), store.TxManager())

	_, err := svc.Resolve(ctx, nil)
	assert.True(t, apperror.IsNotFound(err), "no base currency yet")

	base := store.Seed().Currency("UAH", true, "1")
	usd := store.Seed().Currency("USD", false, "41.2")

	got, err := svc.Resolve(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, base.ID, got.ID)

	got, err = svc.Resolve(ctx, &usd.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Code)
}

func TestRateOr(t *testing.T) {
	usd := &currency.Currency{Rate: types.MustMoney("41.2")}

	assert.True(t, currency.RateOr(types.MustMoney("40"), usd).Equal(types.MustMoney("40")))
	assert.True(t, currency.RateOr(types.Zero(), usd).Equal(types.MustMoney("41.2")))
	assert.True(t, currency.RateOr(types.MustMoney("-1"), nil).Equal(types.One()))
	assert.True(t, currency.RateOr(types.Zero(), &currency.Currency{}).Equal(types.One()))
}
