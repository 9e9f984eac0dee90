// Package report_repo provides PostgreSQL read models for reports.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/reconciliation"
	"stockledger/internal/infrastructure/storage/postgres"
)

// ReconciliationRepo implements reconciliation.Repository.
type ReconciliationRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewReconciliationRepo creates a new reconciliation repository.
func NewReconciliationRepo(txm *postgres.TxManager) *ReconciliationRepo {
	return &ReconciliationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// AccountBalance returns the stored per-currency balance.
func (r *ReconciliationRepo) AccountBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error) {
	return r.scalar(ctx, "account balance", r.builder.
		Select("COALESCE(SUM(balance), 0)").
		From("account_currency_balances").
		Where(squirrel.Eq{"account_id": accountID, "currency_id": currencyID}))
}

// JournalBalance returns debits minus credits over the pair's journal lines.
func (r *ReconciliationRepo) JournalBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error) {
	return r.scalar(ctx, "journal balance", r.journalQuery(accountID, currencyID))
}

func (r *ReconciliationRepo) journalQuery(accountID, currencyID id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select("COALESCE(SUM(debit) - SUM(credit), 0)").
		From("journal_entry_lines").
		Where(squirrel.Eq{"account_id": accountID, "currency_id": currencyID})
}

// ListPairs returns every pair that has a stored balance or journal lines.
func (r *ReconciliationRepo) ListPairs(ctx context.Context) ([]reconciliation.Pair, error) {
	sql, args, err := r.pairsQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var pairs []reconciliation.Pair
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &pairs, sql, args...); err != nil {
		return nil, apperror.NewStore("list reconciliation pairs", err)
	}
	return pairs, nil
}

func (r *ReconciliationRepo) pairsQuery() squirrel.SelectBuilder {
	balances := r.builder.Select("account_id", "currency_id").From("account_currency_balances")
	lines := r.builder.Select("account_id", "currency_id").From("journal_entry_lines")

	return r.builder.
		Select("account_id", "currency_id").
		FromSelect(balances.Suffix("UNION").SuffixExpr(lines), "pairs").
		OrderBy("account_id", "currency_id")
}

func (r *ReconciliationRepo) scalar(ctx context.Context, op string, q squirrel.Sqlizer) (types.Money, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var v types.Money
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&v); err != nil {
		return types.Zero(), apperror.NewStore(op, err)
	}
	return v, nil
}

var _ reconciliation.Repository = (*ReconciliationRepo)(nil)
