// Package memory provides in-memory implementations of every repository.
// It backs unit tests and local runs without PostgreSQL.
//
// Transactions are serialised by one mutex and rolled back by restoring a
// snapshot of all tables taken when the outermost transaction began.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"stockledger/internal/core/id"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/domain/sales"
)

type pairKey struct {
	accountID  id.ID
	currencyID id.ID
}

type tables struct {
	units        map[id.ID]unit.Unit
	currencies   map[id.ID]currency.Currency
	products     map[id.ID]product.Product
	purchases    map[id.ID]batches.Purchase
	batches      map[id.ID]batches.Batch
	consumptions map[id.ID]batches.Consumption
	promoCodes   map[id.ID]pricing.PromoCode
	accounts     map[id.ID]ledger.Account
	balances     map[pairKey]ledger.CurrencyBalance
	transactions []ledger.Transaction
	entries      []ledger.JournalEntry
	sales        map[id.ID]sales.Sale
	audit        []AuditRecord
}

func (t *tables) clone() tables {
	return tables{
		units:        maps.Clone(t.units),
		currencies:   maps.Clone(t.currencies),
		products:     maps.Clone(t.products),
		purchases:    maps.Clone(t.purchases),
		batches:      maps.Clone(t.batches),
		consumptions: maps.Clone(t.consumptions),
		promoCodes:   maps.Clone(t.promoCodes),
		accounts:     maps.Clone(t.accounts),
		balances:     maps.Clone(t.balances),
		transactions: slices.Clone(t.transactions),
		entries:      slices.Clone(t.entries),
		sales:        maps.Clone(t.sales),
		audit:        slices.Clone(t.audit),
	}
}

// Store holds all tables.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	t    tables
}

// New creates an empty store.
func New() *Store {
	return &Store{t: tables{
		units:        make(map[id.ID]unit.Unit),
		currencies:   make(map[id.ID]currency.Currency),
		products:     make(map[id.ID]product.Product),
		purchases:    make(map[id.ID]batches.Purchase),
		batches:      make(map[id.ID]batches.Batch),
		consumptions: make(map[id.ID]batches.Consumption),
		promoCodes:   make(map[id.ID]pricing.PromoCode),
		accounts:     make(map[id.ID]ledger.Account),
		balances:     make(map[pairKey]ledger.CurrencyBalance),
		sales:        make(map[id.ID]sales.Sale),
	}}
}

func (s *Store) read(fn func(t *tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.t)
}

func (s *Store) write(fn func(t *tables) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.t)
}

func (s *Store) Units() *UnitRepo { return &UnitRepo{s: s} }
func (s *Store) Currencies() *CurrencyRepo { return &CurrencyRepo{s: s} }
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }
func (s *Store) Batches() *BatchRepo { return &BatchRepo{s: s} }
func (s *Store) PromoCodes() *PromoRepo { return &PromoRepo{s: s} }
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }
func (s *Store) Reconciliation() *ReconciliationRepo { return &ReconciliationRepo{s: s} }
func (s *Store) Sales() *SaleRepo { return &SaleRepo{s: s} }
func (s *Store) Audit() *AuditLog { return &AuditLog{s: s} }
func (s *Store) Numerator() *Numerator { return &Numerator{s: s} }
func (s *Store) TxManager() *TxManager { return &TxManager{s: s} }

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// TxManager runs units of work against the store one at a time.
type TxManager struct {
	s *Store
}

type txKey struct{}

// RunInTransaction executes fn atomically. Nested calls join the
// transaction already carried by ctx.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()

	var snapshot tables
	m.s.read(func(t *tables) { snapshot = t.clone() })

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.s.mu.Lock()
		m.s.t = snapshot
		m.s.mu.Unlock()
		return err
	}
	return nil
}

// ReadOnly executes fn in a transaction. Writes are not prevented.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransaction(ctx, fn)
}

func sortIDs(ids []id.ID) {
	slices.SortFunc(ids, compareIDs)
}

func compareIDs(a, b id.ID) int {
	switch {
	case id.Less(a, b):
		return -1
	case id.Less(b, a):
		return 1
	}
	return 0
}
