// Package reconciliation recomputes account balances from the journal and
// compares them with the per-currency balances maintained by posting.
package reconciliation

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/pkg/logger"
)

// Pair is one (account, currency) combination.
type Pair struct {
	AccountID  id.ID `db:"account_id" json:"accountId"`
	CurrencyID id.ID `db:"currency_id" json:"currencyId"`
}

// Result is the outcome of reconciling one pair.
type Result struct {
	Pair
	AccountBalance types.Money `json:"accountBalance"`
	JournalBalance types.Money `json:"journalBalance"`
	// Difference is AccountBalance - JournalBalance.
	Difference types.Money `json:"difference"`
	IsBalanced bool        `json:"isBalanced"`
}

// Repository reads both sides of the comparison.
type Repository interface {
	// AccountBalance returns the stored per-currency balance, 0 when absent.
	AccountBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error)
	// JournalBalance returns sum(debit) - sum(credit) over the pair's lines.
	JournalBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error)
	// ListPairs returns every pair with a stored balance or journal lines.
	ListPairs(ctx context.Context) ([]Pair, error)
}

// Checker reconciles accounts. It never writes.
type Checker struct {
	repo        Repository
	txm         tx.ReadOnlyManager
	concurrency int
}

// NewChecker creates a checker that runs up to concurrency pairs at once.
func NewChecker(repo Repository, txm tx.ReadOnlyManager, concurrency int) *Checker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Checker{repo: repo, txm: txm, concurrency: concurrency}
}

// Reconcile compares one pair inside a read-only snapshot.
func (c *Checker) Reconcile(ctx context.Context, accountID, currencyID id.ID) (*Result, error) {
	var res *Result
	err := c.txm.ReadOnly(ctx, func(ctx context.Context) error {
		stored, err := c.repo.AccountBalance(ctx, accountID, currencyID)
		if err != nil {
			return err
		}
		journal, err := c.repo.JournalBalance(ctx, accountID, currencyID)
		if err != nil {
			return err
		}
		diff := stored.Sub(journal)
		res = &Result{
			Pair:           Pair{AccountID: accountID, CurrencyID: currencyID},
			AccountBalance: stored,
			JournalBalance: journal,
			Difference:     diff,
			IsBalanced:     diff.Abs().LessThan(types.BalanceTolerance),
		}
		return nil
	})
	return res, err
}

// ReconcileAll checks every known pair and returns the results sorted by
// account, then currency. The first failure cancels the remaining checks.
func (c *Checker) ReconcileAll(ctx context.Context) ([]Result, error) {
	pairs, err := c.repo.ListPairs(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, p := range pairs {
		g.Go(func() error {
			res, err := c.Reconcile(gctx, p.AccountID, p.CurrencyID)
			if err != nil {
				return err
			}
			results[i] = *res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(results, func(a, b Result) int {
		if a.AccountID != b.AccountID {
			if id.Less(a.AccountID, b.AccountID) {
				return -1
			}
			return 1
		}
		switch {
		case id.Less(a.CurrencyID, b.CurrencyID):
			return -1
		case id.Less(b.CurrencyID, a.CurrencyID):
			return 1
		}
		return 0
	})

	drifted := 0
	for _, r := range results {
		if !r.IsBalanced {
			drifted++
		}
	}
	logger.Info(ctx, "reconciliation finished", "pairs", len(results), "drifted", drifted)
	return results, nil
}

// Drifted filters results down to the unbalanced pairs.
func Drifted(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.IsBalanced {
			out = append(out, r)
		}
	}
	return out
}
