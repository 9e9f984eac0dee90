package app

import (
	"context"

	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/internal/infrastructure/storage/postgres/catalog_repo"
	"stockledger/internal/infrastructure/storage/postgres/document_repo"
	"stockledger/internal/infrastructure/storage/postgres/register_repo"
	"stockledger/internal/infrastructure/storage/postgres/report_repo"
	"stockledger/pkg/numerator"
)

// PostgresStores builds the PostgreSQL-backed stores over txm.
func PostgresStores(txm *postgres.TxManager) (Stores, error) {
	auditService, err := postgres.NewAuditService(txm)
	if err != nil {
		return Stores{}, err
	}

	return Stores{
		Units:          catalog_repo.NewUnitRepo(txm),
		Currencies:     catalog_repo.NewCurrencyRepo(txm),
		Products:       catalog_repo.NewProductRepo(txm),
		PromoCodes:     catalog_repo.NewPromoCodeRepo(txm),
		Batches:        register_repo.NewBatchRepo(txm),
		Ledger:         register_repo.NewLedgerRepo(txm),
		Reconciliation: report_repo.NewReconciliationRepo(txm),
		Sales:          document_repo.NewSaleRepo(txm),
		Audit:          auditService,
		Numbers: numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
			return txm.GetQuerier(ctx)
		}),
		Tx: txm,
	}, nil
}
