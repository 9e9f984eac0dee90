// Package document_repo provides PostgreSQL implementations for document repositories.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/sales"
	"stockledger/internal/infrastructure/storage/postgres"
)

const salesTable = "sales"

// SaleRepo implements sales.Repository.
type SaleRepo struct {
	txm        *postgres.TxManager
	selectCols []string
}

// NewSaleRepo creates a new sale repository.
func NewSaleRepo(txm *postgres.TxManager) *SaleRepo {
	return &SaleRepo{
		txm:        txm,
		selectCols: postgres.ExtractDBColumns[sales.Sale](),
	}
}

// Builder returns a new squirrel builder.
func (r *SaleRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// CreateSale inserts a sale header.
func (r *SaleRepo) CreateSale(ctx context.Context, s *sales.Sale) error {
	sql, args, err := r.Builder().
		Insert(salesTable).
		SetMap(postgres.StructToMap(s)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return apperror.NewStore("insert sale", err)
	}
	return nil
}

// SetSaleEntry links the sale to the journal entry it posted.
func (r *SaleRepo) SetSaleEntry(ctx context.Context, saleID, entryID id.ID) error {
	sql, args, err := r.Builder().
		Update(salesTable).
		Set("entry_id", entryID).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return apperror.NewStore("update sale", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("sale", saleID.String())
	}
	return nil
}

// GetSale returns a sale header by id.
func (r *SaleRepo) GetSale(ctx context.Context, saleID id.ID) (*sales.Sale, error) {
	sql, args, err := r.Builder().
		Select(r.selectCols...).
		From(salesTable).
		Where(squirrel.Eq{"id": saleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s sales.Sale
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("sale", saleID.String())
		}
		return nil, apperror.NewStore("get sale", err)
	}
	return &s, nil
}

var _ sales.Repository = (*SaleRepo)(nil)
