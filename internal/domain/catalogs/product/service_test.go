package product_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/infrastructure/storage/memory"
)

func TestService_DeleteGuard(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := product.NewService(store.Products(), store.TxManager())
	piece := store.Seed().Unit("piece", nil, "1")

	stocked := product.NewProduct("Tea", &piece.ID)
	require.NoError(t, svc.Create(ctx, stocked))
	unused := product.NewProduct("Sugar", nil)
	require.NoError(t, svc.Create(ctx, unused))

	stock := batches.NewLedger(store.Batches(), unit.NewConverter(store.Units()), store.TxManager(), nil)
	_, _, err := stock.RecordPurchase(ctx, batches.PurchaseInput{
		PurchasedAt: memory.Date(2026, time.May, 1),
		Lines: []batches.PurchaseLine{{
			ProductID: stocked.ID,
			UnitID:    piece.ID,
			Amount:    types.MustMoney("3"),
		}},
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, stocked.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeConflict, appErr.Code)
	assert.Equal(t, 1, appErr.Details["batches"])

	require.NoError(t, svc.Delete(ctx, unused.ID))
	_, err = svc.Get(ctx, unused.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_Validation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := product.NewService(store.Products(), store.TxManager())

	err := svc.Create(ctx, product.NewProduct("   ", nil))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	p := product.NewProduct("Milk", nil)
	negative := types.MustMoney("-1")
	p.DefaultPrice = &negative
	err = svc.Create(ctx, p)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	price := types.MustMoney("1.20")
	p.DefaultPrice = &price
	require.NoError(t, svc.Create(ctx, p))

	p.Name = "Whole milk"
	require.NoError(t, svc.Update(ctx, p))
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Whole milk", got.Name)
}
