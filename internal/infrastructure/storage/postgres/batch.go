package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// BatchInserter writes many rows at once over the COPY protocol.
// Journal entry lines go through it.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows (one []any per row, matching columns).
// COPY is only used inside a transaction; without one the rows are
// written with a single multi-row INSERT.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if tx := b.txManager.GetTx(ctx); tx != nil {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return n, fmt.Errorf("copy into %s: %w", table, err)
		}
		return n, nil
	}
	return b.insertValues(ctx, table, columns, rows)
}

func (b *BatchInserter) insertValues(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	q := builder.Insert(pgx.Identifier{table}.Sanitize()).Columns(columns...)
	for _, row := range rows {
		q = q.Values(row...)
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}
	tag, err := b.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}
