package pricing

import (
	"context"

	"stockledger/internal/core/id"
)

// Repository defines persistence for promotional codes.
type Repository interface {
	// FindByCode looks up a normalised code; NotFound when absent.
	FindByCode(ctx context.Context, code string) (*PromoCode, error)

	// Save inserts the code or replaces the stored one with the same id.
	Save(ctx context.Context, p *PromoCode) error

	// IncrementUse adds one use unless max_uses is already reached.
	// It reports false when the cap blocked the increment.
	IncrementUse(ctx context.Context, codeID id.ID) (bool, error)
}
