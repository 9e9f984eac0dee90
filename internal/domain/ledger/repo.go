package ledger

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Repository defines persistence for accounts, balances and the journal.
type Repository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, accountID id.ID) (*Account, error)
	// LockAccounts reads the accounts with SELECT ... FOR UPDATE in id
	// order. NotFound when any id is missing.
	LockAccounts(ctx context.Context, accountIDs []id.ID) ([]Account, error)
	SetAccountBalance(ctx context.Context, accountID id.ID, balance types.Money) error

	// GetCurrencyBalance returns 0 when the pair has no row yet.
	GetCurrencyBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error)
	ListCurrencyBalances(ctx context.Context, accountID id.ID) ([]CurrencyBalance, error)
	// UpsertCurrencyBalance sets the balance of the pair.
	UpsertCurrencyBalance(ctx context.Context, accountID, currencyID id.ID, balance types.Money) error

	CreateTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, accountID id.ID) ([]Transaction, error)
	// SumMovements totals the account's deposits and withdrawals.
	SumMovements(ctx context.Context, accountID id.ID) (deposits, withdrawals types.Money, err error)

	// CreateEntry inserts the entry and all of its lines.
	CreateEntry(ctx context.Context, e *JournalEntry) error
	GetEntry(ctx context.Context, entryID id.ID) (*JournalEntry, error)
	FindEntryByReference(ctx context.Context, reference string) (*JournalEntry, error)
	ListEntries(ctx context.Context, f EntryFilter) ([]JournalEntry, error)
}
