package product

import (
	"context"

	"stockledger/internal/core/id"
)

// References counts the rows that point at a product.
type References struct {
	Batches      int `db:"batches"`
	Consumptions int `db:"consumptions"`
}

// Total returns the number of referencing rows.
func (r References) Total() int {
	return r.Batches + r.Consumptions
}

// Repository defines the interface for Product persistence.
type Repository interface {
	Get(ctx context.Context, productID id.ID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID id.ID) error

	// CountReferences counts batches and sale lines of the product.
	CountReferences(ctx context.Context, productID id.ID) (References, error)
}
