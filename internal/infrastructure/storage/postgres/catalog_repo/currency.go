package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/infrastructure/storage/postgres"
)

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*BaseCatalogRepo[currency.Currency]
}

// NewCurrencyRepo creates a new currency repository.
func NewCurrencyRepo(txm *postgres.TxManager) *CurrencyRepo {
	return &CurrencyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[currency.Currency](txm, "currencies", "currency"),
	}
}

// Get returns a currency by id.
func (r *CurrencyRepo) Get(ctx context.Context, currencyID id.ID) (*currency.Currency, error) {
	return r.GetByID(ctx, currencyID)
}

// GetBase returns the base currency.
func (r *CurrencyRepo) GetBase(ctx context.Context) (*currency.Currency, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"is_base": true}).Limit(1), "base")
}

// FindByCode finds a currency by its ISO code.
func (r *CurrencyRepo) FindByCode(ctx context.Context, code string) (*currency.Currency, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"code": code}).Limit(1), code)
}

// ClearBase removes the base flag from every other currency.
// Runs before the new base is written so the partial unique index holds.
func (r *CurrencyRepo) ClearBase(ctx context.Context, except id.ID) error {
	_, err := r.exec(ctx, "clear base", r.Builder().
		Update("currencies").
		Set("is_base", false).
		Where(squirrel.Eq{"is_base": true}).
		Where(squirrel.NotEq{"id": except}))
	return err
}

var _ currency.Repository = (*CurrencyRepo)(nil)
