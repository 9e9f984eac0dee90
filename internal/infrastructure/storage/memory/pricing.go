package memory

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/pricing"
)

var _ pricing.Repository = (*PromoRepo)(nil)

// PromoRepo implements pricing.Repository.
type PromoRepo struct{ s *Store }

func (r *PromoRepo) FindByCode(_ context.Context, code string) (*pricing.PromoCode, error) {
	var found *pricing.PromoCode
	r.s.read(func(t *tables) {
		for _, p := range t.promoCodes {
			if p.Code == code {
				found = &p
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("promo_code", code)
	}
	return found, nil
}

func (r *PromoRepo) Save(_ context.Context, p *pricing.PromoCode) error {
	return r.s.write(func(t *tables) error {
		for _, other := range t.promoCodes {
			if other.Code == p.Code && other.ID != p.ID {
				return apperror.NewConflict("promo code already exists")
			}
		}
		t.promoCodes[p.ID] = *p
		return nil
	})
}

func (r *PromoRepo) IncrementUse(_ context.Context, codeID id.ID) (bool, error) {
	ok := false
	err := r.s.write(func(t *tables) error {
		p, exists := t.promoCodes[codeID]
		if !exists {
			return apperror.NewNotFound("promo_code", codeID.String())
		}
		if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
			return nil
		}
		p.UsedCount++
		t.promoCodes[codeID] = p
		ok = true
		return nil
	})
	return ok, err
}
