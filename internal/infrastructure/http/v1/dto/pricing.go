package dto

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/pricing"
)

// ValidateCodeRequest checks a promo code against an order subtotal.
type ValidateCodeRequest struct {
	Code     string      `json:"code" binding:"required"`
	Subtotal types.Money `json:"subtotal"`
	// At defaults to the current time.
	At *time.Time `json:"at"`
}

// SavePromoCodeRequest creates or replaces a promo code.
type SavePromoCodeRequest struct {
	ID            *id.ID               `json:"id"`
	Code          string               `json:"code" binding:"required"`
	DiscountType  pricing.DiscountType `json:"discountType" binding:"required"`
	DiscountValue types.Money          `json:"discountValue"`
	MinPurchase   types.Money          `json:"minPurchase"`
	ValidFrom     *time.Time           `json:"validFrom"`
	ValidUntil    *time.Time           `json:"validUntil"`
	MaxUses       *int                 `json:"maxUses"`
	Rule          string               `json:"rule"`
	Active        *bool                `json:"active"`
}

// ToEntity converts the request to a promo code. Codes are active unless
// the request says otherwise.
func (r *SavePromoCodeRequest) ToEntity() *pricing.PromoCode {
	p := &pricing.PromoCode{
		Code:          r.Code,
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		MinPurchase:   r.MinPurchase,
		ValidFrom:     r.ValidFrom,
		ValidUntil:    r.ValidUntil,
		MaxUses:       r.MaxUses,
		Rule:          r.Rule,
		Active:        r.Active == nil || *r.Active,
	}
	if r.ID != nil {
		p.ID = *r.ID
	}
	return p
}
