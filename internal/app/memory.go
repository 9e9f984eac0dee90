package app

import "stockledger/internal/infrastructure/storage/memory"

// MemoryStores builds in-process stores. Used by tests and the demo seeder.
func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Units:          s.Units(),
		Currencies:     s.Currencies(),
		Products:       s.Products(),
		PromoCodes:     s.PromoCodes(),
		Batches:        s.Batches(),
		Ledger:         s.Ledger(),
		Reconciliation: s.Reconciliation(),
		Sales:          s.Sales(),
		Audit:          s.Audit(),
		Numbers:        s.Numerator(),
		Tx:             s.TxManager(),
	}
}
