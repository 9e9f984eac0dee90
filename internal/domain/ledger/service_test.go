package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/memory"
)

type fixture struct {
	store *memory.Store
	svc   *ledger.Service
	base  currency.Currency
	usd   currency.Currency
}

func newFixture(t *testing.T, opts ...ledger.Option) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store: store,
		base:  store.Seed().Currency("UAH", true, "1"),
		usd:   store.Seed().Currency("USD", false, "41.5"),
	}
	opts = append(opts, ledger.WithAudit(store.Audit()))
	f.svc = ledger.NewService(
		store.Ledger(),
		currency.NewService(store.Currencies(), store.TxManager()),
		store.Numerator(),
		store.TxManager(),
		opts...,
	)
	return f
}

var day = memory.Date(2026, time.April, 1)

func money(s string) types.Money { return types.MustMoney(s) }

func assertMoney(t *testing.T, want string, got types.Money) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), "want %s, got %s", want, got)
}

func TestService_DepositWithdrawIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.store.Seed().Account("Cash desk", "100", nil)

	_, err := f.svc.Deposit(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("250.555"), Date: day})
	require.NoError(t, err)
	_, err = f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("80"), Date: day})
	require.NoError(t, err)
	usd, err := f.svc.Deposit(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("10"), CurrencyID: &f.usd.ID, Date: day})
	require.NoError(t, err)
	assertMoney(t, "415", usd.Total)
	assertMoney(t, "41.5", usd.Rate)

	total, err := f.svc.RecomputeAccountTotal(ctx, acc.ID)
	require.NoError(t, err)
	assertMoney(t, "685.56", total) // 100 + 250.56 - 80 + 415

	stored, err := f.svc.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assertMoney(t, "685.56", stored.Balance)

	uah, err := f.svc.BalanceInCurrency(ctx, acc.ID, f.base.ID)
	require.NoError(t, err)
	assertMoney(t, "170.56", uah)
	inUSD, err := f.svc.BalanceInCurrency(ctx, acc.ID, f.usd.ID)
	require.NoError(t, err)
	assertMoney(t, "10", inUSD)

	moves, err := f.svc.ListTransactions(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, moves, 3)
}

func TestService_Withdraw_InsufficientBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.store.Seed().Account("Cash desk", "50", nil)

	_, err := f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("80"), Date: day})
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))
	assert.Contains(t, err.Error(), "insufficient balance, available 50 required 80")

	// 2 USD is 83 in base terms.
	_, err = f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("2"), CurrencyID: &f.usd.ID, Date: day})
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientBalance))

	// An explicit rate overrides the currency rate.
	_, err = f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("2"), CurrencyID: &f.usd.ID, Rate: money("20"), Date: day})
	require.NoError(t, err)

	moves, err := f.svc.ListTransactions(ctx, acc.ID)
	require.NoError(t, err)
	assert.Len(t, moves, 1)
}

func TestService_FullMovements(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	empty := f.store.Seed().Account("Empty", "0", nil)
	full := f.store.Seed().Account("Full", "120.40", nil)

	_, err := f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: empty.ID, IsFull: true, Date: day})
	assert.True(t, apperror.IsCode(err, apperror.CodeNoBalance))

	tr, err := f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: full.ID, IsFull: true, Date: day})
	require.NoError(t, err)
	assert.True(t, tr.IsFull)
	assertMoney(t, "120.40", tr.Amount)

	total, err := f.svc.RecomputeAccountTotal(ctx, full.ID)
	require.NoError(t, err)
	assertMoney(t, "0", total)
}

func TestService_FullMovements_ForeignCurrency(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.store.Seed().Account("Cash desk", "100", nil)

	tr, err := f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, IsFull: true, CurrencyID: &f.usd.ID, Date: day})
	require.NoError(t, err)
	assertMoney(t, "100", tr.Total)
	assertMoney(t, "2.41", tr.Amount)

	total, err := f.svc.RecomputeAccountTotal(ctx, acc.ID)
	require.NoError(t, err)
	assertMoney(t, "0", total)

	usd, err := f.svc.BalanceInCurrency(ctx, acc.ID, f.usd.ID)
	require.NoError(t, err)
	assertMoney(t, "-2.41", usd)

	dep := f.store.Seed().Account("Savings", "83", nil)
	tr, err = f.svc.Deposit(ctx, ledger.MovementInput{AccountID: dep.ID, IsFull: true, CurrencyID: &f.usd.ID, Date: day})
	require.NoError(t, err)
	assertMoney(t, "83", tr.Total)
	assertMoney(t, "2", tr.Amount)

	total, err = f.svc.RecomputeAccountTotal(ctx, dep.ID)
	require.NoError(t, err)
	assertMoney(t, "166", total)
}

func TestService_Movement_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.store.Seed().Account("Cash desk", "10", nil)

	_, err := f.svc.Deposit(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("0"), Date: day})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("-5"), Date: day})
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.Deposit(ctx, ledger.MovementInput{AccountID: id.New(), Amount: money("1"), Date: day})
	assert.True(t, apperror.IsNotFound(err))

	unknown := id.New()
	_, err = f.svc.Deposit(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("1"), CurrencyID: &unknown, Date: day})
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Deposit(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("1"), Date: day, CounterAccountID: &acc.ID})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestService_PostEntry_NumbersAndBalances(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cash := f.store.Seed().Account("Cash", "0", nil)
	revenue := f.store.Seed().Account("Revenue", "0", nil)

	first, err := f.svc.PostEntry(ctx, ledger.EntryInput{
		Date:        day,
		Description: "Cash sale",
		Lines: []ledger.LineInput{
			{AccountID: cash.ID, Debit: money("100")},
			{AccountID: revenue.ID, Credit: money("100")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "J000001", first.Number)
	assert.True(t, first.IsBalanced())
	assert.Equal(t, 1, first.Lines[0].LineNo)
	assert.Equal(t, f.base.ID, first.Lines[0].CurrencyID)

	second, err := f.svc.PostEntry(ctx, ledger.EntryInput{
		Date: day.AddDate(0, 0, 1),
		Lines: []ledger.LineInput{
			{AccountID: cash.ID, CurrencyID: &f.usd.ID, Debit: money("2")},
			{AccountID: revenue.ID, Credit: money("83")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "J000002", second.Number)
	assertMoney(t, "83", second.Lines[0].BaseAmount)
	assert.True(t, second.IsBalanced())

	cashUAH, err := f.svc.BalanceInCurrency(ctx, cash.ID, f.base.ID)
	require.NoError(t, err)
	assertMoney(t, "100", cashUAH)
	cashUSD, err := f.svc.BalanceInCurrency(ctx, cash.ID, f.usd.ID)
	require.NoError(t, err)
	assertMoney(t, "2", cashUSD)
	revUAH, err := f.svc.BalanceInCurrency(ctx, revenue.ID, f.base.ID)
	require.NoError(t, err)
	assertMoney(t, "-183", revUAH)

	balances, err := f.svc.Balances(ctx, cash.ID)
	require.NoError(t, err)
	assert.Len(t, balances, 2)

	list, err := f.svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "J000002", list[0].Number)

	limited, err := f.svc.ListEntries(ctx, ledger.EntryFilter{Limit: 1, AccountID: &revenue.ID})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestService_PostEntry_Unbalanced(t *testing.T) {
	f := newFixture(t)
	cash := f.store.Seed().Account("Cash", "0", nil)

	e, err := f.svc.PostEntry(context.Background(), ledger.EntryInput{
		Date:  day,
		Lines: []ledger.LineInput{{AccountID: cash.ID, Debit: money("5")}},
	})
	require.NoError(t, err)
	assert.False(t, e.IsBalanced())
}

func TestService_PostEntry_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cash := f.store.Seed().Account("Cash", "0", nil)

	tests := []struct {
		name  string
		lines []ledger.LineInput
		code  string
	}{
		{"no lines", nil, apperror.CodeValidation},
		{"both sides", []ledger.LineInput{{AccountID: cash.ID, Debit: money("1"), Credit: money("1")}}, apperror.CodeValidation},
		{"empty line", []ledger.LineInput{{AccountID: cash.ID}}, apperror.CodeValidation},
		{"negative", []ledger.LineInput{{AccountID: cash.ID, Debit: money("-1")}}, apperror.CodeInvalidAmount},
		{"unknown account", []ledger.LineInput{{AccountID: id.New(), Debit: money("1")}}, apperror.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.PostEntry(ctx, ledger.EntryInput{Date: day, Lines: tt.lines})
			assert.True(t, apperror.IsCode(err, tt.code), "got %v", err)
		})
	}

	entries, err := f.svc.ListEntries(ctx, ledger.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_CounterAccountPolicy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	clearing := store.Seed().Account("Clearing", "0", nil)

	f := &fixture{store: store, base: store.Seed().Currency("UAH", true, "1")}
	f.svc = ledger.NewService(
		store.Ledger(),
		currency.NewService(store.Currencies(), store.TxManager()),
		store.Numerator(),
		store.TxManager(),
		ledger.WithCounterAccountPolicy(ledger.FixedCounterAccount(clearing.ID)),
	)
	acc := store.Seed().Account("Cash desk", "0", nil)

	dep, err := f.svc.Deposit(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("70"), Date: day})
	require.NoError(t, err)
	require.NotNil(t, dep.EntryID)

	wd, err := f.svc.Withdraw(ctx, ledger.MovementInput{AccountID: acc.ID, Amount: money("20"), Date: day})
	require.NoError(t, err)
	require.NotNil(t, wd.EntryID)

	entry, err := f.svc.GetEntry(ctx, *dep.EntryID)
	require.NoError(t, err)
	assert.True(t, entry.IsBalanced())
	assert.Equal(t, "J000001", entry.Number)

	// The per-currency balance moves once per movement, through the entry.
	cash, err := f.svc.BalanceInCurrency(ctx, acc.ID, f.base.ID)
	require.NoError(t, err)
	assertMoney(t, "50", cash)
	counter, err := f.svc.BalanceInCurrency(ctx, clearing.ID, f.base.ID)
	require.NoError(t, err)
	assertMoney(t, "-50", counter)

	// Movements on the clearing account itself post no entry.
	own, err := f.svc.Deposit(ctx, ledger.MovementInput{AccountID: clearing.ID, Amount: money("5"), Date: day})
	require.NoError(t, err)
	assert.Nil(t, own.EntryID)
}

func TestService_ExplicitCounterAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	acc := f.store.Seed().Account("Cash desk", "0", nil)
	bank := f.store.Seed().Account("Bank", "0", nil)

	tr, err := f.svc.Deposit(ctx, ledger.MovementInput{
		AccountID: acc.ID, Amount: money("3"), CurrencyID: &f.usd.ID, Date: day, CounterAccountID: &bank.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, tr.EntryID)

	entry, err := f.svc.GetEntry(ctx, *tr.EntryID)
	require.NoError(t, err)
	require.Len(t, entry.Lines, 2)
	assertMoney(t, "3", entry.Lines[0].Debit)
	assertMoney(t, "124.5", entry.Lines[0].BaseAmount)
	assert.Equal(t, bank.ID, entry.Lines[1].AccountID)
	assertMoney(t, "3", entry.Lines[1].Credit)
}

func TestService_ReverseEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cash := f.store.Seed().Account("Cash", "0", nil)
	revenue := f.store.Seed().Account("Revenue", "0", nil)

	original, err := f.svc.PostEntry(ctx, ledger.EntryInput{
		Date: day,
		Lines: []ledger.LineInput{
			{AccountID: cash.ID, Debit: money("40")},
			{AccountID: revenue.ID, Credit: money("40")},
		},
	})
	require.NoError(t, err)

	reversal, err := f.svc.ReverseEntry(ctx, original.ID, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, "J000002", reversal.Number)
	assert.Equal(t, "REV:J000001", reversal.Reference)
	assertMoney(t, "40", reversal.Lines[0].Credit)

	for _, accountID := range []id.ID{cash.ID, revenue.ID} {
		balance, err := f.svc.BalanceInCurrency(ctx, accountID, f.base.ID)
		require.NoError(t, err)
		assertMoney(t, "0", balance)
	}

	_, err = f.svc.ReverseEntry(ctx, original.ID, day)
	assert.True(t, apperror.IsCode(err, apperror.CodeConflict))

	records := f.store.Audit().Records(original.ID)
	require.Len(t, records, 1)
	assert.Equal(t, audit.ActionReverse, records[0].Action)

	_, err = f.svc.ReverseEntry(ctx, id.New(), day)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_CreateAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	a := &ledger.Account{Name: "Safe", InitialBalance: money("12.5"), CurrencyID: &f.usd.ID}
	require.NoError(t, f.svc.CreateAccount(ctx, a))
	assert.False(t, id.IsNil(a.ID))
	assertMoney(t, "12.5", a.Balance)

	err := f.svc.CreateAccount(ctx, &ledger.Account{})
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	// Lines on a USD account default to USD.
	e, err := f.svc.PostEntry(ctx, ledger.EntryInput{Date: day, Lines: []ledger.LineInput{{AccountID: a.ID, Debit: money("1")}}})
	require.NoError(t, err)
	assert.Equal(t, f.usd.ID, e.Lines[0].CurrencyID)
	assertMoney(t, "41.5", e.Lines[0].ExchangeRate)
}

func TestService_NumberCollisionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	base := store.Seed().Currency("UAH", true, "1")
	fixed := &numerator.MockGenerator{NextFunc: func(context.Context, numerator.Config) (string, error) {
		return "J000001", nil
	}}
	svc := ledger.NewService(store.Ledger(), currency.NewService(store.Currencies(), store.TxManager()), fixed, store.TxManager())

	cash := store.Seed().Account("Cash", "0", nil)
	sales := store.Seed().Account("Sales", "0", nil)
	entry := ledger.EntryInput{Date: day, Lines: []ledger.LineInput{
		{AccountID: cash.ID, Debit: money("10")},
		{AccountID: sales.ID, Credit: money("10")},
	}}

	_, err := svc.PostEntry(ctx, entry)
	require.NoError(t, err)

	_, err = svc.PostEntry(ctx, entry)
	require.True(t, apperror.IsCode(err, apperror.CodeConflict), "got %v", err)

	balance, err := svc.BalanceInCurrency(ctx, cash.ID, base.ID)
	require.NoError(t, err)
	assertMoney(t, "10", balance)
}
