package reconciliation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reconciliation"
	"stockledger/internal/infrastructure/storage/memory"
)

func setup(t *testing.T) (*memory.Store, *ledger.Service, *reconciliation.Checker, currency.Currency) {
	t.Helper()
	store := memory.New()
	base := store.Seed().Currency("EUR", true, "1")
	svc := ledger.NewService(
		store.Ledger(),
		currency.NewService(store.Currencies(), store.TxManager()),
		store.Numerator(),
		store.TxManager(),
	)
	return store, svc, reconciliation.NewChecker(store.Reconciliation(), store.TxManager(), 4), base
}

func TestChecker_BalancedAfterPosting(t *testing.T) {
	ctx := context.Background()
	store, svc, checker, base := setup(t)
	cash := store.Seed().Account("Cash", "0", nil)
	sales := store.Seed().Account("Sales", "0", nil)

	_, err := svc.PostEntry(ctx, ledger.EntryInput{
		Date: memory.Date(2026, time.May, 4),
		Lines: []ledger.LineInput{
			{AccountID: cash.ID, Debit: types.MustMoney("99.99")},
			{AccountID: sales.ID, Credit: types.MustMoney("99.99")},
		},
	})
	require.NoError(t, err)

	res, err := checker.Reconcile(ctx, cash.ID, base.ID)
	require.NoError(t, err)
	assert.True(t, res.IsBalanced)
	assert.True(t, res.JournalBalance.Equal(types.MustMoney("99.99")))
	assert.True(t, res.Difference.IsZero())

	all, err := checker.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Empty(t, reconciliation.Drifted(all))
}

func TestChecker_DirectMovementsDrift(t *testing.T) {
	ctx := context.Background()
	store, svc, checker, base := setup(t)
	till := store.Seed().Account("Till", "0", nil)

	// Without a counter-account a deposit changes the balance but posts no lines.
	_, err := svc.Deposit(ctx, ledger.MovementInput{
		AccountID: till.ID,
		Amount:    types.MustMoney("15"),
		Date:      memory.Date(2026, time.May, 4),
	})
	require.NoError(t, err)

	res, err := checker.Reconcile(ctx, till.ID, base.ID)
	require.NoError(t, err)
	assert.False(t, res.IsBalanced)
	assert.True(t, res.Difference.Equal(types.MustMoney("15")))

	all, err := checker.ReconcileAll(ctx)
	require.NoError(t, err)
	drifted := reconciliation.Drifted(all)
	require.Len(t, drifted, 1)
	assert.Equal(t, till.ID, drifted[0].AccountID)
}

func TestChecker_SubCentDifferenceIsBalanced(t *testing.T) {
	ctx := context.Background()
	store, _, checker, base := setup(t)
	acc := store.Seed().Account("Rounding", "0", nil)

	require.NoError(t, store.Ledger().UpsertCurrencyBalance(ctx, acc.ID, base.ID, types.MustMoney("0.009")))

	res, err := checker.Reconcile(ctx, acc.ID, base.ID)
	require.NoError(t, err)
	assert.True(t, res.IsBalanced)
}

func TestChecker_UntouchedPair(t *testing.T) {
	_, _, checker, _ := setup(t)

	res, err := checker.Reconcile(context.Background(), id.New(), id.New())
	require.NoError(t, err)
	assert.True(t, res.IsBalanced)
	assert.True(t, res.AccountBalance.IsZero())

	all, err := checker.ReconcileAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestChecker_ResultsSorted(t *testing.T) {
	ctx := context.Background()
	store, svc, checker, _ := setup(t)
	usd := store.Seed().Currency("USD", false, "0.9")

	var accounts []ledger.Account
	for _, name := range []string{"A", "B", "C", "D"} {
		accounts = append(accounts, store.Seed().Account(name, "0", nil))
	}
	for i := 0; i+1 < len(accounts); i++ {
		_, err := svc.PostEntry(ctx, ledger.EntryInput{
			Date: memory.Date(2026, time.May, 4),
			Lines: []ledger.LineInput{
				{AccountID: accounts[i].ID, CurrencyID: &usd.ID, Debit: types.MustMoney("1")},
				{AccountID: accounts[i+1].ID, Credit: types.MustMoney("0.9")},
			},
		})
		require.NoError(t, err)
	}

	all, err := checker.ReconcileAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		prev, cur := all[i-1], all[i]
		assert.False(t, id.Less(cur.AccountID, prev.AccountID))
		if prev.AccountID == cur.AccountID {
			assert.True(t, id.Less(prev.CurrencyID, cur.CurrencyID))
		}
	}
}
