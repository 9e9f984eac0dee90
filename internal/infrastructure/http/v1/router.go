// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"stockledger/internal/app"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/currency"
	"stockledger/internal/domain/catalogs/product"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/infrastructure/http/v1/handlers"
	"stockledger/internal/infrastructure/http/v1/middleware"
	"stockledger/pkg/logger"
)

func init() {
	// Amounts travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Services is the assembled domain layer
	Services *app.Services

	// Idempotency stores X-Idempotency-Key results; nil disables the middleware
	Idempotency middleware.IdempotencyStore

	// DB backs the readiness probe; nil reports ready unconditionally
	DB handlers.Pinger
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Actor())
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(v1, base, cfg.Services)
	registerStockRoutes(v1, base, cfg.Services)
	registerPricingRoutes(v1, base, cfg.Services)
	registerLedgerRoutes(v1, base, cfg.Services)

	return router
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *app.Services) {
	units := handlers.NewUnitHandler(base, s.Units, s.Converter)
	unitGroup := rg.Group("/units")
	unitGroup.GET("", units.List)
	unitGroup.POST("/convert", units.Convert)
	RegisterCatalogRoutes(unitGroup, handlers.NewCatalogHandler[unit.Unit](base, s.Units,
		func(u *unit.Unit, v id.ID) { u.ID = v }))

	RegisterCatalogRoutes(rg.Group("/currencies"), handlers.NewCatalogHandler[currency.Currency](base, s.Currencies,
		func(c *currency.Currency, v id.ID) { c.ID = v }))

	RegisterCatalogRoutes(rg.Group("/products"), handlers.NewCatalogHandler[product.Product](base, s.Products,
		func(p *product.Product, v id.ID) { p.ID = v }))
}

func registerStockRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *app.Services) {
	stock := handlers.NewStockHandler(base, s.Batches, s.Valuation)
	sales := handlers.NewSalesHandler(base, s.Sales)

	rg.POST("/purchases", stock.CreatePurchase)

	batches := rg.Group("/batches")
	{
		batches.GET("/open", stock.ListOpen)
		batches.PATCH("/:id", stock.UpdateBatch)
		batches.DELETE("/:id", stock.DeleteBatch)
		batches.GET("/:id/remaining", stock.Remaining)
		batches.POST("/:id/validate", stock.ValidateConsumption)
	}

	rg.POST("/sales", sales.Create)
	rg.GET("/sales/:id", sales.Get)
	rg.PUT("/consumptions/:id", stock.UpdateConsumption)
	rg.DELETE("/consumptions/:id", stock.DeleteConsumption)

	rg.GET("/stock/products/:id", stock.ProductStock)
	rg.GET("/stock/report", stock.Report)
}

func registerPricingRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *app.Services) {
	h := handlers.NewPricingHandler(base, s.Pricing)

	pricing := rg.Group("/pricing")
	pricing.POST("/quote", h.Quote)
	pricing.POST("/codes/validate", h.ValidateCode)
	pricing.PUT("/codes", h.SaveCode)
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, s *app.Services) {
	h := handlers.NewLedgerHandler(base, s.Ledger)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.CreateAccount)
		accounts.GET("/:id", h.GetAccount)
		accounts.GET("/:id/total", h.Total)
		accounts.GET("/:id/balances", h.Balances)
		accounts.GET("/:id/balances/:currencyId", h.Balance)
		accounts.POST("/:id/deposit", h.Deposit)
		accounts.POST("/:id/withdraw", h.Withdraw)
		accounts.GET("/:id/transactions", h.Transactions)
	}

	journal := rg.Group("/journal/entries")
	{
		journal.POST("", h.PostEntry)
		journal.GET("", h.ListEntries)
		journal.GET("/:id", h.GetEntry)
		journal.POST("/:id/reverse", h.ReverseEntry)
	}

	rec := handlers.NewReconciliationHandler(base, s.Reconciliation)
	rg.GET("/reconciliation", rec.All)
	rg.GET("/reconciliation/:accountId/:currencyId", rec.One)
}
