package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// UnitHandler serves unit listing and conversion.
type UnitHandler struct {
	*BaseHandler
	service   *unit.Service
	converter *unit.Converter
}

// NewUnitHandler creates a unit handler.
func NewUnitHandler(base *BaseHandler, service *unit.Service, converter *unit.Converter) *UnitHandler {
	return &UnitHandler{BaseHandler: base, service: service, converter: converter}
}

// List handles GET /units
func (h *UnitHandler) List(c *gin.Context) {
	units, err := h.service.List(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(units))
}

// Convert handles POST /units/convert
func (h *UnitHandler) Convert(c *gin.Context) {
	var req dto.ConvertRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Amount.IsNegative() {
		h.Error(c, apperror.NewInvalidAmount("amount", req.Amount.String()))
		return
	}

	ctx := c.Request.Context()
	h.OK(c, dto.ConvertResponse{
		Amount: h.converter.Convert(ctx, req.Amount, req.FromUnitID, req.ToUnitID),
		Base:   h.converter.ToBase(ctx, req.Amount, req.FromUnitID),
	})
}
