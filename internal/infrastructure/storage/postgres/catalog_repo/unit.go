package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/infrastructure/storage/postgres"
)

// UnitRepo implements unit.Repository.
type UnitRepo struct {
	*BaseCatalogRepo[unit.Unit]
}

// NewUnitRepo creates a new unit repository.
func NewUnitRepo(txm *postgres.TxManager) *UnitRepo {
	return &UnitRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[unit.Unit](txm, "units", "unit"),
	}
}

// Get returns a unit by id.
func (r *UnitRepo) Get(ctx context.Context, unitID id.ID) (*unit.Unit, error) {
	return r.GetByID(ctx, unitID)
}

// List returns every unit, grouped units next to each other.
func (r *UnitRepo) List(ctx context.Context) ([]unit.Unit, error) {
	return r.BaseCatalogRepo.List(ctx, "name")
}

// ClearGroupBase drops the base flag from the rest of the group.
func (r *UnitRepo) ClearGroupBase(ctx context.Context, groupID id.ID, except id.ID) error {
	_, err := r.exec(ctx, "clear group base", r.Builder().
		Update("units").
		Set("is_base", false).
		Where(squirrel.Eq{"group_id": groupID, "is_base": true}).
		Where(squirrel.NotEq{"id": except}))
	return err
}

var _ unit.Repository = (*UnitRepo)(nil)
