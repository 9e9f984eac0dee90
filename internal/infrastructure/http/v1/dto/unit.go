package dto

import (
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// ConvertRequest converts an amount between two units.
type ConvertRequest struct {
	Amount     types.Quantity `json:"amount"`
	FromUnitID id.ID          `json:"fromUnitId" binding:"required"`
	ToUnitID   id.ID          `json:"toUnitId" binding:"required"`
}

// ConvertResponse carries the converted amount and its base equivalent.
type ConvertResponse struct {
	Amount types.Quantity `json:"amount"`
	Base   types.Quantity `json:"base"`
}
