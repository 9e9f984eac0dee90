package memory

import (
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/ledger"
)

// Seed inserts catalog rows directly, bypassing services. Used by tests
// and by local demo runs.
type Seed struct{ s *Store }

// Seed returns the seeding helper.
func (s *Store) Seed() Seed { return Seed{s: s} }

// Unit adds a unit with the given ratio. Ratio "1" makes it the base.
func (sd Seed) Unit(name string, groupID *id.ID, ratio string) unit.Unit {
	u := unit.NewUnit(name, groupID, types.MustMoney(ratio))
	sd.s.mu.Lock()
	sd.s.t.units[u.ID] = *u
	sd.s.mu.Unlock()
	return *u
}

// Currency adds a currency.
func (sd Seed) Currency(code string, isBase bool, rate string) currency.Currency {
	c := currency.NewCurrency(code, code, types.MustMoney(rate))
	c.IsBase = isBase
	sd.s.mu.Lock()
	sd.s.t.currencies[c.ID] = *c
	sd.s.mu.Unlock()
	return *c
}

// Product adds a product.
func (sd Seed) Product(name string) product.Product {
	p := product.NewProduct(name, nil)
	sd.s.mu.Lock()
	sd.s.t.products[p.ID] = *p
	sd.s.mu.Unlock()
	return *p
}

// Account adds an account with an initial balance.
func (sd Seed) Account(name, initial string, currencyID *id.ID) ledger.Account {
	a := ledger.Account{
		ID:             id.New(),
		Name:           name,
		CurrencyID:     currencyID,
		InitialBalance: types.MustMoney(initial),
		Balance:        types.MustMoney(initial),
	}
	sd.s.mu.Lock()
	sd.s.t.accounts[a.ID] = a
	sd.s.mu.Unlock()
	return a
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
