package pricing

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/core/validation"
	"stockledger/pkg/logger"
)

// Engine validates and redeems promotional codes and prices orders.
type Engine struct {
	repo  Repository
	rules *Rules
	txm   tx.Manager
	now   func() time.Time
}

// NewEngine creates a pricing engine.
func NewEngine(repo Repository, rules *Rules, txm tx.Manager) *Engine {
	return &Engine{repo: repo, rules: rules, txm: txm, now: time.Now}
}

// ValidateCode checks whether code applies to an order of subtotal at now.
// It never changes the code's use count.
//
// Checks run in a fixed order and the first failure wins: unknown or
// inactive code, minimum purchase, validity window, use cap, rule.
func (e *Engine) ValidateCode(ctx context.Context, code string, subtotal types.Money, now time.Time) (*Discount, error) {
	p, err := e.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := e.check(p, subtotal, now); err != nil {
		return nil, err
	}
	return &Discount{Type: p.DiscountType, Value: p.DiscountValue}, nil
}

// RedeemCode validates code and consumes one use. Concurrent redemptions
// never exceed max_uses: the increment is conditional in the store.
func (e *Engine) RedeemCode(ctx context.Context, code string, subtotal types.Money, now time.Time) (*Discount, error) {
	var d *Discount
	err := e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := e.lookup(ctx, code)
		if err != nil {
			return err
		}
		if err := e.check(p, subtotal, now); err != nil {
			return err
		}
		ok, err := e.repo.IncrementUse(ctx, p.ID)
		if err != nil {
			return err
		}
		if !ok {
			return newCodeError(p.Code, ReasonExhaustedUses)
		}
		d = &Discount{Type: p.DiscountType, Value: p.DiscountValue}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "promo code redeemed", "code", NormalizeCode(code))
	return d, nil
}

// SaveCode validates and stores a promotional code. The rule, if any, must
// compile to a boolean CEL expression.
func (e *Engine) SaveCode(ctx context.Context, p *PromoCode) error {
	p.Code = NormalizeCode(p.Code)
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Rule != "" {
		if _, err := e.rules.Compile(p.Rule); err != nil {
			return err
		}
	}

	return e.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := e.repo.FindByCode(ctx, p.Code)
		switch {
		case err == nil:
			if !id.IsNil(p.ID) && p.ID != existing.ID {
				return apperror.NewConflict("promo code already exists").WithDetail("code", p.Code)
			}
			p.ID = existing.ID
			p.UsedCount = existing.UsedCount
		case apperror.IsNotFound(err):
			if id.IsNil(p.ID) {
				p.ID = id.New()
			}
		default:
			return err
		}
		return e.repo.Save(ctx, p)
	})
}

func (e *Engine) lookup(ctx context.Context, code string) (*PromoCode, error) {
	normalized := NormalizeCode(code)
	p, err := e.repo.FindByCode(ctx, normalized)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, newCodeError(normalized, ReasonNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (e *Engine) check(p *PromoCode, subtotal types.Money, now time.Time) error {
	if reason, ok := p.check(subtotal, now); !ok {
		return newCodeError(p.Code, reason)
	}
	if p.Rule == "" {
		return nil
	}
	holds, err := e.rules.Eval(p.Rule, subtotal, now)
	if err != nil {
		return fmt.Errorf("promo code %s: %w", p.Code, err)
	}
	if !holds {
		return newCodeError(p.Code, ReasonConditionNotMet)
	}
	return nil
}

// QuoteLine is one priced line of a quote.
type QuoteLine struct {
	UnitPrice     types.Money    `json:"unitPrice"`
	Quantity      types.Quantity `json:"quantity"`
	DiscountType  DiscountType   `json:"discountType,omitempty"`
	DiscountValue types.Money    `json:"discountValue"`
}

// QuoteInput prices an order without recording it.
type QuoteInput struct {
	Lines           []QuoteLine   `json:"lines" validate:"required,min=1"`
	DiscountType    DiscountType  `json:"discountType,omitempty"`
	DiscountValue   types.Money   `json:"discountValue"`
	AdditionalCosts []types.Money `json:"additionalCosts,omitempty"`
	PromoCode       string        `json:"promoCode,omitempty"`
}

// Quote is the priced order.
type Quote struct {
	LineTotals     []types.Money `json:"lineTotals"`
	Subtotal       types.Money   `json:"subtotal"`
	Discount       types.Money   `json:"discount"`
	AdditionalCost types.Money   `json:"additionalCost"`
	Total          types.Money   `json:"total"`
	// Applied is the order discount in effect, from the promo code when one was given.
	Applied Discount `json:"applied"`
}

// Quote prices an order. A promo code, when given, replaces the order
// discount and is validated but not redeemed.
func (e *Engine) Quote(ctx context.Context, in QuoteInput) (*Quote, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	lineTotals := make([]types.Money, len(in.Lines))
	for i, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			return nil, apperror.NewInvalidAmount("quantity", l.Quantity.String()).WithDetail("line", i)
		}
		lineTotals[i] = LineTotal(l.UnitPrice, l.Quantity, l.DiscountType, l.DiscountValue)
	}
	subtotal := types.Sum(lineTotals)

	applied := Discount{Type: in.DiscountType, Value: in.DiscountValue}
	if in.PromoCode != "" {
		d, err := e.ValidateCode(ctx, in.PromoCode, subtotal, e.now())
		if err != nil {
			return nil, err
		}
		applied = *d
	}

	return &Quote{
		LineTotals:     lineTotals,
		Subtotal:       subtotal,
		Discount:       DiscountAmount(subtotal, applied.Type, applied.Value),
		AdditionalCost: types.Sum(in.AdditionalCosts),
		Total:          OrderTotal(lineTotals, applied.Type, applied.Value, in.AdditionalCosts),
		Applied:        applied,
	}, nil
}
