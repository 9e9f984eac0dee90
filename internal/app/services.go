// Package app assembles the domain services from a set of stores.
// The server, the worker and the HTTP tests share this wiring.
package app

import (
	"fmt"

	"stockledger/internal/core/id"
	"stockledger/internal/core/numerator"
	"stockledger/internal/core/tx"
	"stockledger/internal/domain/audit"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/domain/reconciliation"
	"stockledger/internal/domain/sales"
	"stockledger/internal/domain/valuation"
)

// Stores is every persistence port the services need.
type Stores struct {
	Units          unit.Repository
	Currencies     currency.Repository
	Products       product.Repository
	Batches        batches.Repository
	PromoCodes     pricing.Repository
	Ledger         ledger.Repository
	Reconciliation reconciliation.Repository
	Sales          sales.Repository
	Audit          audit.Logger
	Numbers        numerator.Generator
	Tx             tx.ReadOnlyManager
}

// Options tune the assembled services.
type Options struct {
	// ClearingAccountID journals every deposit and withdrawal against it.
	ClearingAccountID    *id.ID
	ReconcileConcurrency int
}

// Services is the assembled domain layer.
type Services struct {
	Units          *unit.Service
	Converter      *unit.Converter
	Currencies     *currency.Service
	Products       *product.Service
	Batches        *batches.Ledger
	Valuation      *valuation.Service
	Pricing        *pricing.Engine
	Ledger         *ledger.Service
	Reconciliation *reconciliation.Checker
	Sales          *sales.Service
}

// NewServices wires the domain services over st.
func NewServices(st Stores, opts Options) (*Services, error) {
	rules, err := pricing.NewRules()
	if err != nil {
		return nil, fmt.Errorf("promo rules: %w", err)
	}

	auditLog := st.Audit
	if auditLog == nil {
		auditLog = audit.Nop{}
	}

	converter := unit.NewConverter(st.Units)
	currencies := currency.NewService(st.Currencies, st.Tx)
	stock := batches.NewLedger(st.Batches, converter, st.Tx, auditLog)
	engine := pricing.NewEngine(st.PromoCodes, rules, st.Tx)

	ledgerOpts := []ledger.Option{ledger.WithAudit(auditLog)}
	if opts.ClearingAccountID != nil {
		ledgerOpts = append(ledgerOpts, ledger.WithCounterAccountPolicy(ledger.FixedCounterAccount(*opts.ClearingAccountID)))
	}
	journal := ledger.NewService(st.Ledger, currencies, st.Numbers, st.Tx, ledgerOpts...)

	return &Services{
		Units:          unit.NewService(st.Units, st.Tx),
		Converter:      converter,
		Currencies:     currencies,
		Products:       product.NewService(st.Products, st.Tx),
		Batches:        stock,
		Valuation:      valuation.NewService(stock, converter),
		Pricing:        engine,
		Ledger:         journal,
		Reconciliation: reconciliation.NewChecker(st.Reconciliation, st.Tx, opts.ReconcileConcurrency),
		Sales:          sales.NewService(st.Sales, engine, stock, journal, st.Tx),
	}, nil
}
