package pricing

import (
	"errors"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// RejectReason tells why a promotional code cannot be applied.
type RejectReason string

const (
	ReasonNotFound             RejectReason = "NotFound"
	ReasonBelowMinimumPurchase RejectReason = "BelowMinimumPurchase"
	ReasonNotYetValid          RejectReason = "NotYetValid"
	ReasonExpired              RejectReason = "Expired"
	ReasonExhaustedUses        RejectReason = "ExhaustedUses"
	ReasonConditionNotMet      RejectReason = "ConditionNotMet"
)

// CodeError is the typed rejection of a promotional code. It unwraps to the
// AppError rendered to API clients.
type CodeError struct {
	Code   string
	Reason RejectReason
	err    *apperror.AppError
}

func newCodeError(code string, reason RejectReason) *CodeError {
	return &CodeError{
		Code:   code,
		Reason: reason,
		err:    apperror.NewPromoCodeRejected(code, string(reason)),
	}
}

func (e *CodeError) Error() string { return e.err.Error() }

func (e *CodeError) Unwrap() error { return e.err }

// IsRejected reports whether err is a promotional code rejection with reason.
func IsRejected(err error, reason RejectReason) bool {
	var ce *CodeError
	return errors.As(err, &ce) && ce.Reason == reason
}

// PromoCode is a promotional code that grants an order discount.
type PromoCode struct {
	ID            id.ID        `db:"id" json:"id"`
	Code          string       `db:"code" json:"code"`
	DiscountType  DiscountType `db:"discount_type" json:"discountType"`
	DiscountValue types.Money  `db:"discount_value" json:"discountValue"`
	MinPurchase   types.Money  `db:"min_purchase" json:"minPurchase"`
	ValidFrom     *time.Time   `db:"valid_from" json:"validFrom,omitempty"`
	ValidUntil    *time.Time   `db:"valid_until" json:"validUntil,omitempty"`
	MaxUses       *int         `db:"max_uses" json:"maxUses,omitempty"`
	UsedCount     int          `db:"used_count" json:"usedCount"`
	// Rule is an optional CEL condition over subtotal, now and weekday.
	Rule   string `db:"rule" json:"rule,omitempty"`
	Active bool   `db:"active" json:"active"`
}

// Discount is what a valid code grants.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value types.Money  `json:"value"`
}

// NormalizeCode trims and upper-cases a code for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate checks the code's own invariants.
func (p *PromoCode) Validate() error {
	if p.Code == "" {
		return apperror.NewValidation("code is required").WithDetail("field", "code")
	}
	if p.DiscountType != DiscountPercent && p.DiscountType != DiscountFixed {
		return apperror.NewValidation("discount type must be percent or fixed").
			WithDetail("field", "discountType")
	}
	if !p.DiscountValue.IsPositive() {
		return apperror.NewInvalidAmount("discountValue", p.DiscountValue.String())
	}
	if p.DiscountType == DiscountPercent && p.DiscountValue.GreaterThan(types.Hundred()) {
		return apperror.NewValidation("percent discount cannot exceed 100").
			WithDetail("field", "discountValue")
	}
	if p.MinPurchase.IsNegative() {
		return apperror.NewValidation("minimum purchase cannot be negative").
			WithDetail("field", "minPurchase")
	}
	if p.ValidFrom != nil && p.ValidUntil != nil && p.ValidUntil.Before(*p.ValidFrom) {
		return apperror.NewValidation("validity window ends before it starts").
			WithDetail("field", "validUntil")
	}
	if p.MaxUses != nil && *p.MaxUses < 0 {
		return apperror.NewValidation("max uses cannot be negative").
			WithDetail("field", "maxUses")
	}
	return nil
}

// check applies every rule except the CEL condition, in order.
func (p *PromoCode) check(subtotal types.Money, now time.Time) (RejectReason, bool) {
	if !p.Active {
		return ReasonNotFound, false
	}
	if subtotal.LessThan(p.MinPurchase) {
		return ReasonBelowMinimumPurchase, false
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return ReasonNotYetValid, false
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return ReasonExpired, false
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return ReasonExhaustedUses, false
	}
	return "", true
}
