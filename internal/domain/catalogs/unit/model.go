// Package unit provides the unit-of-measure catalog and the converter that
// normalises stock quantities to base units.
package unit

import (
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Unit represents a measurement unit.
//
// Ratio is the number of base units in one of this unit: a "box" of twelve
// "pieces" has ratio 12 and the piece, the group's base, has ratio 1.
type Unit struct {
	ID      id.ID       `db:"id" json:"id"`
	Name    string      `db:"name" json:"name"`
	GroupID *id.ID      `db:"group_id" json:"groupId,omitempty"`
	Ratio   types.Ratio `db:"ratio" json:"ratio"`
	IsBase  bool        `db:"is_base" json:"isBase"`
}

// NewUnit creates a unit with the given ratio.
func NewUnit(name string, groupID *id.ID, ratio types.Ratio) *Unit {
	return &Unit{
		ID:      id.New(),
		Name:    name,
		GroupID: groupID,
		Ratio:   ratio,
		IsBase:  ratio.Equal(types.One()),
	}
}

// NewBaseUnit creates the base unit of a group (ratio 1).
func NewBaseUnit(name string, groupID *id.ID) *Unit {
	u := NewUnit(name, groupID, types.One())
	u.IsBase = true
	return u
}

// Validate checks the unit's own invariants.
func (u *Unit) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if !u.Ratio.IsPositive() {
		return apperror.NewValidation("ratio must be positive").
			WithDetail("field", "ratio").
			WithDetail("value", u.Ratio.String())
	}

	if u.IsBase && !u.Ratio.Equal(types.One()) {
		return apperror.NewValidation("base unit must have ratio 1").
			WithDetail("field", "ratio").
			WithDetail("value", u.Ratio.String())
	}

	return nil
}
