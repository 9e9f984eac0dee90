package unit

import (
	"context"

	"stockledger/internal/core/id"
)

// Lookup resolves units by id.
type Lookup interface {
	// Get returns apperror NotFound when the unit does not exist.
	Get(ctx context.Context, unitID id.ID) (*Unit, error)
}

// Repository defines the interface for Unit persistence.
type Repository interface {
	Lookup

	List(ctx context.Context) ([]Unit, error)
	Create(ctx context.Context, u *Unit) error
	Update(ctx context.Context, u *Unit) error

	// ClearGroupBase drops the base flag from every unit of the group except one.
	ClearGroupBase(ctx context.Context, groupID id.ID, except id.ID) error
}
