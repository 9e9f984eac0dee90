package currency

import (
	"context"
	"fmt"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
)

// Service provides business logic for the Currency catalog.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Currency service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Get returns a currency by id.
func (s *Service) Get(ctx context.Context, currencyID id.ID) (*Currency, error) {
	return s.repo.Get(ctx, currencyID)
}

// Base returns the base currency.
func (s *Service) Base(ctx context.Context) (*Currency, error) {
	return s.repo.GetBase(ctx)
}

// Resolve returns the requested currency, or the base currency when
// currencyID is nil.
func (s *Service) Resolve(ctx context.Context, currencyID *id.ID) (*Currency, error) {
	if currencyID == nil || id.IsNil(*currencyID) {
		return s.repo.GetBase(ctx)
	}
	return s.repo.Get(ctx, *currencyID)
}

// RateOr returns rate when positive, otherwise the currency's stored rate.
func RateOr(rate types.Ratio, c *Currency) types.Ratio {
	if rate.IsPositive() {
		return rate
	}
	if c != nil && c.Rate.IsPositive() {
		return c.Rate
	}
	return types.One()
}

// Create validates and stores a currency.
func (s *Service) Create(ctx context.Context, c *Currency) error {
	if id.IsNil(c.ID) {
		c.ID = id.New()
	}
	if err := c.Validate(); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if existing, err := s.repo.FindByCode(ctx, c.Code); err == nil && existing.ID != c.ID {
			return apperror.NewConflict("currency with this code already exists").
				WithDetail("code", c.Code)
		} else if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if c.IsBase {
			if err := s.repo.ClearBase(ctx, c.ID); err != nil {
				return fmt.Errorf("clear base: %w", err)
			}
		}
		return s.repo.Create(ctx, c)
	})
}

// Update stores changes. The base flag can be moved but not dropped: the
// only way to stop being base is for another currency to become base.
func (s *Service) Update(ctx context.Context, c *Currency) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.Get(ctx, c.ID)
		if err != nil {
			return err
		}
		if current.IsBase && !c.IsBase {
			return apperror.NewValidation("mark another currency as base instead")
		}
		if c.IsBase && !current.IsBase {
			if err := s.repo.ClearBase(ctx, c.ID); err != nil {
				return fmt.Errorf("clear base: %w", err)
			}
		}
		return s.repo.Update(ctx, c)
	})
}

// Delete removes a currency. The base currency cannot be deleted.
func (s *Service) Delete(ctx context.Context, currencyID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.Get(ctx, currencyID)
		if err != nil {
			return err
		}
		if c.IsBase {
			return apperror.NewValidation("cannot delete base currency")
		}
		return s.repo.Delete(ctx, currencyID)
	})
}
