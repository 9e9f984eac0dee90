// Package currency provides the Currency catalog.
// Exactly one currency is the base; operations that omit a currency fall
// back to it, and exchange rates are expressed relative to it.
package currency

import (
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Currency represents a currency with its floating rate to base.
type Currency struct {
	ID     id.ID       `db:"id" json:"id"`
	Code   string      `db:"code" json:"code"`
	Name   string      `db:"name" json:"name"`
	IsBase bool        `db:"is_base" json:"isBase"`
	Rate   types.Ratio `db:"rate" json:"rate"`
}

// NewCurrency creates a non-base currency.
func NewCurrency(code, name string, rate types.Ratio) *Currency {
	return &Currency{
		ID:   id.New(),
		Code: strings.ToUpper(strings.TrimSpace(code)),
		Name: name,
		Rate: rate,
	}
}

// Validate checks currency invariants.
func (c *Currency) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return apperror.NewValidation("code is required").
			WithDetail("field", "code")
	}
	if !c.Rate.IsPositive() {
		return apperror.NewValidation("rate must be positive").
			WithDetail("field", "rate")
	}
	if c.IsBase && !c.Rate.Equal(types.One()) {
		return apperror.NewValidation("base currency must have rate 1").
			WithDetail("field", "rate")
	}
	return nil
}
