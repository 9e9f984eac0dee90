package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/domain/pricing"
	"stockledger/internal/infrastructure/http/v1/dto"
)

// PricingHandler quotes orders and manages promo codes.
type PricingHandler struct {
	*BaseHandler
	engine *pricing.Engine
	now    func() time.Time
}

// NewPricingHandler creates a pricing handler.
func NewPricingHandler(base *BaseHandler, engine *pricing.Engine) *PricingHandler {
	return &PricingHandler{BaseHandler: base, engine: engine, now: time.Now}
}

// Quote handles POST /pricing/quote
func (h *PricingHandler) Quote(c *gin.Context) {
	var req pricing.QuoteInput
	if !h.BindJSON(c, &req) {
		return
	}

	quote, err := h.engine.Quote(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, quote)
}

// ValidateCode handles POST /pricing/codes/validate
func (h *PricingHandler) ValidateCode(c *gin.Context) {
	var req dto.ValidateCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}
	at := h.now()
	if req.At != nil {
		at = *req.At
	}

	discount, err := h.engine.ValidateCode(c.Request.Context(), req.Code, req.Subtotal, at)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, discount)
}

// SaveCode handles PUT /pricing/codes
func (h *PricingHandler) SaveCode(c *gin.Context) {
	var req dto.SavePromoCodeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	code := req.ToEntity()
	if err := h.engine.SaveCode(c.Request.Context(), code); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, code)
}
