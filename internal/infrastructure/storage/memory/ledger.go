package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	corenumerator "stockledger/internal/core/numerator"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reconciliation"
	"stockledger/pkg/numerator"
)

var (
	_ ledger.Repository         = (*LedgerRepo)(nil)
	_ reconciliation.Repository = (*ReconciliationRepo)(nil)
	_ corenumerator.Generator   = (*Numerator)(nil)
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct{ s *Store }

func (r *LedgerRepo) CreateAccount(_ context.Context, a *ledger.Account) error {
	return r.s.write(func(t *tables) error {
		t.accounts[a.ID] = *a
		return nil
	})
}

func (r *LedgerRepo) GetAccount(_ context.Context, accountID id.ID) (*ledger.Account, error) {
	var (
		a  ledger.Account
		ok bool
	)
	r.s.read(func(t *tables) { a, ok = t.accounts[accountID] })
	if !ok {
		return nil, apperror.NewNotFound("account", accountID.String())
	}
	return &a, nil
}

func (r *LedgerRepo) LockAccounts(_ context.Context, accountIDs []id.ID) ([]ledger.Account, error) {
	ids := slices.Clone(accountIDs)
	sortIDs(ids)

	out := make([]ledger.Account, 0, len(ids))
	var missing *id.ID
	r.s.read(func(t *tables) {
		for _, accountID := range ids {
			a, ok := t.accounts[accountID]
			if !ok {
				missing = &accountID
				return
			}
			out = append(out, a)
		}
	})
	if missing != nil {
		return nil, apperror.NewNotFound("account", missing.String())
	}
	return out, nil
}

func (r *LedgerRepo) SetAccountBalance(_ context.Context, accountID id.ID, balance types.Money) error {
	return r.s.write(func(t *tables) error {
		a, ok := t.accounts[accountID]
		if !ok {
			return apperror.NewNotFound("account", accountID.String())
		}
		a.Balance = balance
		t.accounts[accountID] = a
		return nil
	})
}

func (r *LedgerRepo) GetCurrencyBalance(_ context.Context, accountID, currencyID id.ID) (types.Money, error) {
	balance := types.Zero()
	r.s.read(func(t *tables) {
		if b, ok := t.balances[pairKey{accountID, currencyID}]; ok {
			balance = b.Balance
		}
	})
	return balance, nil
}

func (r *LedgerRepo) ListCurrencyBalances(_ context.Context, accountID id.ID) ([]ledger.CurrencyBalance, error) {
	var out []ledger.CurrencyBalance
	r.s.read(func(t *tables) {
		for k, b := range t.balances {
			if k.accountID == accountID {
				out = append(out, b)
			}
		}
	})
	slices.SortFunc(out, func(a, b ledger.CurrencyBalance) int { return compareIDs(a.CurrencyID, b.CurrencyID) })
	return out, nil
}

func (r *LedgerRepo) UpsertCurrencyBalance(_ context.Context, accountID, currencyID id.ID, balance types.Money) error {
	return r.s.write(func(t *tables) error {
		t.balances[pairKey{accountID, currencyID}] = ledger.CurrencyBalance{
			AccountID:  accountID,
			CurrencyID: currencyID,
			Balance:    balance,
			UpdatedAt:  time.Now().UTC(),
		}
		return nil
	})
}

func (r *LedgerRepo) CreateTransaction(_ context.Context, tr *ledger.Transaction) error {
	return r.s.write(func(t *tables) error {
		t.transactions = append(t.transactions, *tr)
		return nil
	})
}

func (r *LedgerRepo) ListTransactions(_ context.Context, accountID id.ID) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	r.s.read(func(t *tables) {
		for _, tr := range t.transactions {
			if tr.AccountID == accountID {
				out = append(out, tr)
			}
		}
	})
	return out, nil
}

func (r *LedgerRepo) SumMovements(_ context.Context, accountID id.ID) (types.Money, types.Money, error) {
	deposits, withdrawals := types.Zero(), types.Zero()
	r.s.read(func(t *tables) {
		for _, tr := range t.transactions {
			if tr.AccountID != accountID {
				continue
			}
			switch tr.Type {
			case ledger.Deposit:
				deposits = deposits.Add(tr.Total)
			case ledger.Withdraw:
				withdrawals = withdrawals.Add(tr.Total)
			}
		}
	})
	return deposits, withdrawals, nil
}

func (r *LedgerRepo) CreateEntry(_ context.Context, e *ledger.JournalEntry) error {
	return r.s.write(func(t *tables) error {
		for _, other := range t.entries {
			if other.Number == e.Number {
				return apperror.NewConflict("journal number already used")
			}
		}
		stored := *e
		stored.Lines = slices.Clone(e.Lines)
		t.entries = append(t.entries, stored)
		return nil
	})
}

func (r *LedgerRepo) GetEntry(_ context.Context, entryID id.ID) (*ledger.JournalEntry, error) {
	return r.findEntry(func(e *ledger.JournalEntry) bool { return e.ID == entryID }, entryID.String())
}

func (r *LedgerRepo) FindEntryByReference(_ context.Context, reference string) (*ledger.JournalEntry, error) {
	return r.findEntry(func(e *ledger.JournalEntry) bool { return e.Reference == reference }, reference)
}

func (r *LedgerRepo) findEntry(match func(e *ledger.JournalEntry) bool, key string) (*ledger.JournalEntry, error) {
	var found *ledger.JournalEntry
	r.s.read(func(t *tables) {
		for i := range t.entries {
			if match(&t.entries[i]) {
				e := t.entries[i]
				e.Lines = slices.Clone(e.Lines)
				found = &e
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("journal_entry", key)
	}
	return found, nil
}

func (r *LedgerRepo) ListEntries(_ context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	r.s.read(func(t *tables) {
		for _, e := range t.entries {
			if f.From != nil && e.EntryDate.Before(*f.From) {
				continue
			}
			if f.To != nil && e.EntryDate.After(*f.To) {
				continue
			}
			if f.AccountID != nil && !slices.ContainsFunc(e.Lines, func(l ledger.JournalLine) bool {
				return l.AccountID == *f.AccountID
			}) {
				continue
			}
			e.Lines = nil
			out = append(out, e)
		}
	})

	slices.SortFunc(out, func(a, b ledger.JournalEntry) int {
		if c := b.EntryDate.Compare(a.EntryDate); c != 0 {
			return c
		}
		return strings.Compare(b.Number, a.Number)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// ReconciliationRepo implements reconciliation.Repository.
type ReconciliationRepo struct{ s *Store }

func (r *ReconciliationRepo) AccountBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error) {
	return (&LedgerRepo{s: r.s}).GetCurrencyBalance(ctx, accountID, currencyID)
}

func (r *ReconciliationRepo) JournalBalance(_ context.Context, accountID, currencyID id.ID) (types.Money, error) {
	balance := types.Zero()
	r.s.read(func(t *tables) {
		for _, e := range t.entries {
			for _, l := range e.Lines {
				if l.AccountID == accountID && l.CurrencyID == currencyID {
					balance = balance.Add(l.Delta())
				}
			}
		}
	})
	return balance, nil
}

func (r *ReconciliationRepo) ListPairs(_ context.Context) ([]reconciliation.Pair, error) {
	seen := make(map[pairKey]bool)
	r.s.read(func(t *tables) {
		for k := range t.balances {
			seen[k] = true
		}
		for _, e := range t.entries {
			for _, l := range e.Lines {
				seen[pairKey{l.AccountID, l.CurrencyID}] = true
			}
		}
	})

	out := make([]reconciliation.Pair, 0, len(seen))
	for k := range seen {
		out = append(out, reconciliation.Pair{AccountID: k.accountID, CurrencyID: k.currencyID})
	}
	slices.SortFunc(out, func(a, b reconciliation.Pair) int {
		if c := compareIDs(a.AccountID, b.AccountID); c != 0 {
			return c
		}
		return compareIDs(a.CurrencyID, b.CurrencyID)
	})
	return out, nil
}

// Numerator issues journal numbers from the stored entries.
type Numerator struct{ s *Store }

func (n *Numerator) Next(_ context.Context, cfg corenumerator.Config) (string, error) {
	var current int64
	n.s.read(func(t *tables) {
		for _, e := range t.entries {
			if v := numerator.ParseNumber(cfg.Prefix, e.Number); v > current {
				current = v
			}
		}
	})
	return numerator.Format(cfg, current+1), nil
}
