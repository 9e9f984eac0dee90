// Package main provides a CLI tool for seeding the database with demo data:
// units, currencies, products, accounts, an opening purchase and a promo code.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockledger/internal/app"
	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/batches"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	stores, err := app.PostgresStores(postgres.NewTxManager(pool))
	if err != nil {
		log.Fatalw("failed to build stores", "error", err)
	}
	services, err := app.NewServices(stores, app.Options{})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	if _, err := services.Currencies.Base(ctx); err == nil {
		log.Info("base currency exists, database already seeded")
		return
	} else if !apperror.IsNotFound(err) {
		log.Fatalw("failed to check existing data", "error", err)
	}

	if err := seedDemoData(ctx, services); err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	log.Info("seeding completed successfully")
}

func seedDemoData(ctx context.Context, s *app.Services) error {
	eur := currency.NewCurrency("EUR", "Euro", types.One())
	eur.IsBase = true
	usd := currency.NewCurrency("USD", "US Dollar", types.MustMoney("0.92"))
	for _, c := range []*currency.Currency{eur, usd} {
		if err := s.Currencies.Create(ctx, c); err != nil {
			return fmt.Errorf("currency %s: %w", c.Code, err)
		}
	}

	countable := id.New()
	piece := unit.NewBaseUnit("piece", &countable)
	box := unit.NewUnit("box of 12", &countable, types.MustMoney("12"))
	weight := id.New()
	gram := unit.NewBaseUnit("gram", &weight)
	kilo := unit.NewUnit("kilogram", &weight, types.MustMoney("1000"))
	for _, u := range []*unit.Unit{piece, box, gram, kilo} {
		if err := s.Units.Create(ctx, u); err != nil {
			return fmt.Errorf("unit %s: %w", u.Name, err)
		}
	}

	tea := product.NewProduct("Green tea", &box.ID)
	beans := product.NewProduct("Coffee beans", &kilo.ID)
	for _, p := range []*product.Product{tea, beans} {
		if err := s.Products.Create(ctx, p); err != nil {
			return fmt.Errorf("product %s: %w", p.Name, err)
		}
	}

	for _, a := range []*ledger.Account{
		{Name: "Cash", CurrencyID: &eur.ID},
		{Name: "Bank USD", CurrencyID: &usd.ID},
		{Name: "Sales revenue", CurrencyID: &eur.ID},
		{Name: "Clearing", CurrencyID: &eur.ID},
	} {
		if err := s.Ledger.CreateAccount(ctx, a); err != nil {
			return fmt.Errorf("account %s: %w", a.Name, err)
		}
	}

	retail := types.MustMoney("4.50")
	expires := time.Now().UTC().AddDate(1, 0, 0).Truncate(24 * time.Hour)
	_, _, err := s.Batches.RecordPurchase(ctx, batches.PurchaseInput{
		PurchasedAt: time.Now().UTC().Truncate(24 * time.Hour),
		Supplier:    "Demo wholesaler",
		BatchLabel:  "OPENING",
		Lines: []batches.PurchaseLine{
			{ProductID: tea.ID, UnitID: box.ID, Amount: types.MustMoney("10"), PerPrice: types.MustMoney("30"), RetailPrice: &retail, ExpiresAt: &expires},
			{ProductID: beans.ID, UnitID: kilo.ID, Amount: types.MustMoney("5"), PerPrice: types.MustMoney("18")},
		},
	})
	if err != nil {
		return fmt.Errorf("opening purchase: %w", err)
	}

	maxUses := 100
	return s.Pricing.SaveCode(ctx, &pricing.PromoCode{
		Code:          "WELCOME10",
		DiscountType:  pricing.DiscountPercent,
		DiscountValue: types.MustMoney("10"),
		MinPurchase:   types.MustMoney("20"),
		MaxUses:       &maxUses,
		Rule:          "subtotal >= 20.0",
		Active:        true,
	})
}
