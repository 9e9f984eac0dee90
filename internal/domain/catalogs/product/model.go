// Package product provides the Product catalog.
// Stock on hand is never stored on a product; it is derived from batches.
package product

import (
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Product represents an item that is purchased in batches and sold.
// DefaultUnitID and DefaultPrice are display hints only.
type Product struct {
	ID            id.ID        `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	DefaultUnitID *id.ID       `db:"default_unit_id" json:"defaultUnitId,omitempty"`
	DefaultPrice  *types.Money `db:"default_price" json:"defaultPrice,omitempty"`
}

// NewProduct creates a product.
func NewProduct(name string, defaultUnitID *id.ID) *Product {
	return &Product{
		ID:            id.New(),
		Name:          strings.TrimSpace(name),
		DefaultUnitID: defaultUnitID,
	}
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	if p.DefaultPrice != nil && p.DefaultPrice.IsNegative() {
		return apperror.NewValidation("default price cannot be negative").
			WithDetail("field", "defaultPrice")
	}
	return nil
}
