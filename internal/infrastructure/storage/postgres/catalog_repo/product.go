package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/infrastructure/storage/postgres"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[product.Product](txm, "products", "product"),
	}
}

// Get returns a product by id.
func (r *ProductRepo) Get(ctx context.Context, productID id.ID) (*product.Product, error) {
	return r.GetByID(ctx, productID)
}

// CountReferences counts batches and consumptions of the product.
func (r *ProductRepo) CountReferences(ctx context.Context, productID id.ID) (product.References, error) {
	sql, args, err := r.Builder().
		Select().
		Column("(SELECT COUNT(*) FROM batches WHERE product_id = ?) AS batches", productID).
		Column("(SELECT COUNT(*) FROM consumptions WHERE product_id = ?) AS consumptions", productID).
		ToSql()
	if err != nil {
		return product.References{}, fmt.Errorf("build query: %w", err)
	}

	var refs product.References
	if err := pgxscan.Get(ctx, r.querier(ctx), &refs, sql, args...); err != nil {
		return product.References{}, apperror.NewStore("count product references", err)
	}
	return refs, nil
}

var _ product.Repository = (*ProductRepo)(nil)
