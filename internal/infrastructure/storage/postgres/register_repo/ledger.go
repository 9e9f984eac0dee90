package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	accountsTable     = "accounts"
	balancesTable     = "account_currency_balances"
	transactionsTable = "transactions"
	entriesTable      = "journal_entries"
	entryLinesTable   = "journal_entry_lines"
)

var (
	accountColumns     = postgres.ExtractDBColumns[ledger.Account]()
	transactionColumns = postgres.ExtractDBColumns[ledger.Transaction]()
	entryColumns       = postgres.ExtractDBColumns[ledger.JournalEntry]()
	lineColumns        = postgres.ExtractDBColumns[ledger.JournalLine]()
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm      *postgres.TxManager
	builder  squirrel.StatementBuilderType
	inserter *postgres.BatchInserter
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:      txm,
		builder:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		inserter: postgres.NewBatchInserter(txm),
	}
}

func (r *LedgerRepo) exec(ctx context.Context, op string, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, apperror.NewStore(op, err)
	}
	return tag.RowsAffected(), nil
}

func (r *LedgerRepo) selectAll(ctx context.Context, dst any, op string, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		return apperror.NewStore(op, err)
	}
	return nil
}

// CreateAccount inserts an account.
func (r *LedgerRepo) CreateAccount(ctx context.Context, a *ledger.Account) error {
	_, err := r.exec(ctx, "insert account", r.builder.
		Insert(accountsTable).
		SetMap(postgres.StructToMap(a)))
	return err
}

// GetAccount returns an account by id.
func (r *LedgerRepo) GetAccount(ctx context.Context, accountID id.ID) (*ledger.Account, error) {
	sql, args, err := r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"id": accountID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a ledger.Account
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("account", accountID.String())
		}
		return nil, apperror.NewStore("get account", err)
	}
	return &a, nil
}

// LockAccounts locks the account rows in id order so that two postings
// touching the same accounts always queue instead of deadlocking.
func (r *LedgerRepo) LockAccounts(ctx context.Context, accountIDs []id.ID) ([]ledger.Account, error) {
	var accounts []ledger.Account
	err := r.selectAll(ctx, &accounts, "lock accounts", r.lockQuery(accountIDs))
	if err != nil {
		return nil, err
	}

	found := make(map[id.ID]bool, len(accounts))
	for _, a := range accounts {
		found[a.ID] = true
	}
	for _, accountID := range accountIDs {
		if !found[accountID] {
			return nil, apperror.NewNotFound("account", accountID.String())
		}
	}
	return accounts, nil
}

func (r *LedgerRepo) lockQuery(accountIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select(accountColumns...).
		From(accountsTable).
		Where(squirrel.Eq{"id": accountIDs}).
		OrderBy("id").
		Suffix("FOR UPDATE")
}

// SetAccountBalance stores the legacy currency-agnostic total.
func (r *LedgerRepo) SetAccountBalance(ctx context.Context, accountID id.ID, balance types.Money) error {
	n, err := r.exec(ctx, "set account balance", r.builder.
		Update(accountsTable).
		Set("balance", balance).
		Where(squirrel.Eq{"id": accountID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("account", accountID.String())
	}
	return nil
}

// GetCurrencyBalance returns the pair's balance, 0 when there is no row.
func (r *LedgerRepo) GetCurrencyBalance(ctx context.Context, accountID, currencyID id.ID) (types.Money, error) {
	sql, args, err := r.builder.
		Select("COALESCE(SUM(balance), 0)").
		From(balancesTable).
		Where(squirrel.Eq{"account_id": accountID, "currency_id": currencyID}).
		ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var balance types.Money
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&balance); err != nil {
		return types.Zero(), apperror.NewStore("get currency balance", err)
	}
	return balance, nil
}

// ListCurrencyBalances returns every currency balance of the account.
func (r *LedgerRepo) ListCurrencyBalances(ctx context.Context, accountID id.ID) ([]ledger.CurrencyBalance, error) {
	var out []ledger.CurrencyBalance
	err := r.selectAll(ctx, &out, "list currency balances", r.builder.
		Select(postgres.ExtractDBColumns[ledger.CurrencyBalance]()...).
		From(balancesTable).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("currency_id"))
	return out, err
}

// UpsertCurrencyBalance sets the pair's balance, creating the row if needed.
func (r *LedgerRepo) UpsertCurrencyBalance(ctx context.Context, accountID, currencyID id.ID, balance types.Money) error {
	_, err := r.exec(ctx, "upsert currency balance", r.upsertQuery(accountID, currencyID, balance))
	return err
}

func (r *LedgerRepo) upsertQuery(accountID, currencyID id.ID, balance types.Money) squirrel.InsertBuilder {
	return r.builder.
		Insert(balancesTable).
		Columns("account_id", "currency_id", "balance", "updated_at").
		Values(accountID, currencyID, balance, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (account_id, currency_id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = EXCLUDED.updated_at")
}

// CreateTransaction appends a deposit or withdrawal.
func (r *LedgerRepo) CreateTransaction(ctx context.Context, t *ledger.Transaction) error {
	_, err := r.exec(ctx, "insert transaction", r.builder.
		Insert(transactionsTable).
		SetMap(postgres.StructToMap(t)))
	return err
}

// ListTransactions returns the account's movements in insertion order.
func (r *LedgerRepo) ListTransactions(ctx context.Context, accountID id.ID) ([]ledger.Transaction, error) {
	var out []ledger.Transaction
	err := r.selectAll(ctx, &out, "list transactions", r.builder.
		Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"account_id": accountID}).
		OrderBy("created_at", "id"))
	return out, err
}

// SumMovements totals deposits and withdrawals in base currency.
func (r *LedgerRepo) SumMovements(ctx context.Context, accountID id.ID) (types.Money, types.Money, error) {
	sql, args, err := r.builder.
		Select(
			"COALESCE(SUM(total) FILTER (WHERE type = 'deposit'), 0)",
			"COALESCE(SUM(total) FILTER (WHERE type = 'withdraw'), 0)",
		).
		From(transactionsTable).
		Where(squirrel.Eq{"account_id": accountID}).
		ToSql()
	if err != nil {
		return types.Zero(), types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var deposits, withdrawals types.Money
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&deposits, &withdrawals); err != nil {
		return types.Zero(), types.Zero(), apperror.NewStore("sum movements", err)
	}
	return deposits, withdrawals, nil
}

// CreateEntry inserts the entry header and copies its lines.
func (r *LedgerRepo) CreateEntry(ctx context.Context, e *ledger.JournalEntry) error {
	sql, args, err := r.builder.
		Insert(entriesTable).
		SetMap(postgres.StructToMap(e)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewConflict("journal number already used").
				WithDetail("number", e.Number).
				WithCause(err)
		}
		return apperror.NewStore("insert journal entry", err)
	}

	rows := make([][]any, 0, len(e.Lines))
	for i := range e.Lines {
		values := postgres.StructToMap(&e.Lines[i])
		row := make([]any, len(lineColumns))
		for j, col := range lineColumns {
			row[j] = values[col]
		}
		rows = append(rows, row)
	}
	if _, err := r.inserter.CopyFromSlice(ctx, entryLinesTable, lineColumns, rows); err != nil {
		return apperror.NewStore("insert journal lines", err)
	}
	return nil
}

// GetEntry returns an entry with its lines.
func (r *LedgerRepo) GetEntry(ctx context.Context, entryID id.ID) (*ledger.JournalEntry, error) {
	return r.findEntry(ctx, squirrel.Eq{"id": entryID}, entryID.String())
}

// FindEntryByReference returns the entry carrying the reference.
func (r *LedgerRepo) FindEntryByReference(ctx context.Context, reference string) (*ledger.JournalEntry, error) {
	return r.findEntry(ctx, squirrel.Eq{"reference": reference}, reference)
}

func (r *LedgerRepo) findEntry(ctx context.Context, where squirrel.Eq, key string) (*ledger.JournalEntry, error) {
	sql, args, err := r.builder.
		Select(entryColumns...).
		From(entriesTable).
		Where(where).
		OrderBy("created_at").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e ledger.JournalEntry
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("journal_entry", key)
		}
		return nil, apperror.NewStore("get journal entry", err)
	}

	if err := r.selectAll(ctx, &e.Lines, "list journal lines", r.builder.
		Select(lineColumns...).
		From(entryLinesTable).
		Where(squirrel.Eq{"entry_id": e.ID}).
		OrderBy("line_no")); err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEntries returns entry headers, newest first.
func (r *LedgerRepo) ListEntries(ctx context.Context, f ledger.EntryFilter) ([]ledger.JournalEntry, error) {
	var out []ledger.JournalEntry
	err := r.selectAll(ctx, &out, "list journal entries", r.entriesQuery(f))
	return out, err
}

func (r *LedgerRepo) entriesQuery(f ledger.EntryFilter) squirrel.SelectBuilder {
	q := r.builder.
		Select(entryColumns...).
		From(entriesTable).
		OrderBy("entry_date DESC", "number DESC")

	if f.AccountID != nil {
		q = q.Where(squirrel.Expr(
			"EXISTS (SELECT 1 FROM journal_entry_lines l WHERE l.entry_id = journal_entries.id AND l.account_id = ?)",
			*f.AccountID,
		))
	}
	if f.From != nil {
		q = q.Where(squirrel.GtOrEq{"entry_date": *f.From})
	}
	if f.To != nil {
		q = q.Where(squirrel.LtOrEq{"entry_date": *f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	return q
}

var _ ledger.Repository = (*LedgerRepo)(nil)
