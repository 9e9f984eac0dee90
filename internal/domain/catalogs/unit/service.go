package unit

import (
	"context"
	"fmt"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Service provides business logic for the Unit catalog.
// Units are referenced, never mutated, by batches and sale lines.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Unit service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Get returns a unit by id.
func (s *Service) Get(ctx context.Context, unitID id.ID) (*Unit, error) {
	return s.repo.Get(ctx, unitID)
}

// List returns all units.
func (s *Service) List(ctx context.Context) ([]Unit, error) {
	return s.repo.List(ctx)
}

// Create validates and stores a unit. Marking it as base clears the flag on
// the previous base unit of the same group.
func (s *Service) Create(ctx context.Context, u *Unit) error {
	if id.IsNil(u.ID) {
		u.ID = id.New()
	}
	if err := u.Validate(); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.takeOverBase(ctx, u); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, u); err != nil {
			return fmt.Errorf("create unit: %w", err)
		}
		logger.Info(ctx, "unit created", "unit_id", u.ID, "ratio", u.Ratio.String())
		return nil
	})
}

// Update validates and stores changes to a unit.
func (s *Service) Update(ctx context.Context, u *Unit) error {
	if err := u.Validate(); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, u.ID); err != nil {
			return err
		}
		if err := s.takeOverBase(ctx, u); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, u); err != nil {
			return fmt.Errorf("update unit: %w", err)
		}
		return nil
	})
}

func (s *Service) takeOverBase(ctx context.Context, u *Unit) error {
	if !u.IsBase || u.GroupID == nil {
		return nil
	}
	if err := s.repo.ClearGroupBase(ctx, *u.GroupID, u.ID); err != nil {
		return fmt.Errorf("clear group base: %w", err)
	}
	return nil
}
