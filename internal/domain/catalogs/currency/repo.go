package currency

import (
	"context"

	"stockledger/internal/core/id"
)

// Repository defines the interface for Currency persistence.
type Repository interface {
	Get(ctx context.Context, currencyID id.ID) (*Currency, error)

	// GetBase returns NotFound when no currency is marked as base.
	GetBase(ctx context.Context) (*Currency, error)

	FindByCode(ctx context.Context, code string) (*Currency, error)
	Create(ctx context.Context, c *Currency) error
	Update(ctx context.Context, c *Currency) error
	Delete(ctx context.Context, currencyID id.ID) error

	// ClearBase drops the base flag from every currency except one.
	ClearBase(ctx context.Context, except id.ID) error
}
