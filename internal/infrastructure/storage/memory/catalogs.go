package memory

import (
	"context"
	"slices"
	"strings"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
)

var (
	_ unit.Repository     = (*UnitRepo)(nil)
	_ currency.Repository = (*CurrencyRepo)(nil)
	_ product.Repository  = (*ProductRepo)(nil)
)

// UnitRepo implements unit.Repository.
type UnitRepo struct{ s *Store }

func (r *UnitRepo) Get(_ context.Context, unitID id.ID) (*unit.Unit, error) {
	var (
		u  unit.Unit
		ok bool
	)
	r.s.read(func(t *tables) { u, ok = t.units[unitID] })
	if !ok {
		return nil, apperror.NewNotFound("unit", unitID.String())
	}
	return &u, nil
}

func (r *UnitRepo) List(_ context.Context) ([]unit.Unit, error) {
	var out []unit.Unit
	r.s.read(func(t *tables) {
		for _, u := range t.units {
			out = append(out, u)
		}
	})
	slices.SortFunc(out, func(a, b unit.Unit) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (r *UnitRepo) Create(_ context.Context, u *unit.Unit) error {
	return r.s.write(func(t *tables) error {
		if _, exists := t.units[u.ID]; exists {
			return apperror.NewConflict("unit already exists")
		}
		t.units[u.ID] = *u
		return nil
	})
}

func (r *UnitRepo) Update(_ context.Context, u *unit.Unit) error {
	return r.s.write(func(t *tables) error {
		if _, exists := t.units[u.ID]; !exists {
			return apperror.NewNotFound("unit", u.ID.String())
		}
		t.units[u.ID] = *u
		return nil
	})
}

func (r *UnitRepo) ClearGroupBase(_ context.Context, groupID, except id.ID) error {
	return r.s.write(func(t *tables) error {
		for k, u := range t.units {
			if u.GroupID != nil && *u.GroupID == groupID && u.ID != except && u.IsBase {
				u.IsBase = false
				t.units[k] = u
			}
		}
		return nil
	})
}

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct{ s *Store }

func (r *CurrencyRepo) Get(_ context.Context, currencyID id.ID) (*currency.Currency, error) {
	var (
		c  currency.Currency
		ok bool
	)
	r.s.read(func(t *tables) { c, ok = t.currencies[currencyID] })
	if !ok {
		return nil, apperror.NewNotFound("currency", currencyID.String())
	}
	return &c, nil
}

func (r *CurrencyRepo) GetBase(_ context.Context) (*currency.Currency, error) {
	var found *currency.Currency
	r.s.read(func(t *tables) {
		for _, c := range t.currencies {
			if c.IsBase {
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("currency", "base")
	}
	return found, nil
}

func (r *CurrencyRepo) FindByCode(_ context.Context, code string) (*currency.Currency, error) {
	var found *currency.Currency
	r.s.read(func(t *tables) {
		for _, c := range t.currencies {
			if c.Code == code {
				found = &c
				return
			}
		}
	})
	if found == nil {
		return nil, apperror.NewNotFound("currency", code)
	}
	return found, nil
}

func (r *CurrencyRepo) Create(_ context.Context, c *currency.Currency) error {
	return r.s.write(func(t *tables) error {
		t.currencies[c.ID] = *c
		return nil
	})
}

func (r *CurrencyRepo) Update(_ context.Context, c *currency.Currency) error {
	return r.s.write(func(t *tables) error {
		if _, exists := t.currencies[c.ID]; !exists {
			return apperror.NewNotFound("currency", c.ID.String())
		}
		t.currencies[c.ID] = *c
		return nil
	})
}

func (r *CurrencyRepo) Delete(_ context.Context, currencyID id.ID) error {
	return r.s.write(func(t *tables) error {
		delete(t.currencies, currencyID)
		return nil
	})
}

func (r *CurrencyRepo) ClearBase(_ context.Context, except id.ID) error {
	return r.s.write(func(t *tables) error {
		for k, c := range t.currencies {
			if c.IsBase && c.ID != except {
				c.IsBase = false
				t.currencies[k] = c
			}
		}
		return nil
	})
}

// ProductRepo implements product.Repository.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) Get(_ context.Context, productID id.ID) (*product.Product, error) {
	var (
		p  product.Product
		ok bool
	)
	r.s.read(func(t *tables) { p, ok = t.products[productID] })
	if !ok {
		return nil, apperror.NewNotFound("product", productID.String())
	}
	return &p, nil
}

func (r *ProductRepo) Create(_ context.Context, p *product.Product) error {
	return r.s.write(func(t *tables) error {
		t.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) Update(_ context.Context, p *product.Product) error {
	return r.s.write(func(t *tables) error {
		if _, exists := t.products[p.ID]; !exists {
			return apperror.NewNotFound("product", p.ID.String())
		}
		t.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepo) Delete(_ context.Context, productID id.ID) error {
	return r.s.write(func(t *tables) error {
		delete(t.products, productID)
		return nil
	})
}

func (r *ProductRepo) CountReferences(_ context.Context, productID id.ID) (product.References, error) {
	var refs product.References
	r.s.read(func(t *tables) {
		for _, b := range t.batches {
			if b.ProductID == productID {
				refs.Batches++
			}
		}
		for _, c := range t.consumptions {
			if c.ProductID == productID {
				refs.Consumptions++
			}
		}
	})
	return refs, nil
}
