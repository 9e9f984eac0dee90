package product

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/pkg/logger"
)

// Service provides business logic for the Product catalog.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new Product service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Get returns a product by id.
func (s *Service) Get(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.Get(ctx, productID)
}

// Create validates and stores a product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if id.IsNil(p.ID) {
		p.ID = id.New()
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

// Update validates and stores changes to a product.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a product that no purchase or sale line references.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.repo.Get(ctx, productID); err != nil {
			return err
		}

		refs, err := s.repo.CountReferences(ctx, productID)
		if err != nil {
			return err
		}
		if refs.Total() > 0 {
			return apperror.NewConflict("product is referenced by purchase or sale lines").
				WithDetail("product_id", productID.String()).
				WithDetail("batches", refs.Batches).
				WithDetail("consumptions", refs.Consumptions)
		}

		if err := s.repo.Delete(ctx, productID); err != nil {
			return err
		}
		logger.Info(ctx, "product deleted", "product_id", productID)
		return nil
	})
}
