// Package main is the entry point for the stockledger background worker.
// It periodically reconciles every account balance against the journal
// and purges expired idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"stockledger/internal/app"
	"stockledger/internal/config"
	"stockledger/internal/domain/reconciliation"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting stockledger worker")

	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	poolCfg.ApplicationName = "stockledger-worker"
	poolCfg.MaxConns = int32(cfg.ReconcileConcurrency) + 1
	poolCfg.MinConns = 1
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txm := postgres.NewTxManager(pool)
	stores, err := app.PostgresStores(txm)
	if err != nil {
		log.Fatalw("failed to build stores", "error", err)
	}
	services, err := app.NewServices(stores, app.Options{
		ClearingAccountID:    cfg.ClearingAccount(),
		ReconcileConcurrency: cfg.ReconcileConcurrency,
	})
	if err != nil {
		log.Fatalw("failed to build services", "error", err)
	}

	worker := NewWorker(services.Reconciliation, postgres.NewIdempotencyStore(txm, cfg.IdempotencyTTL), log)
	worker.ReconcileInterval = cfg.ReconcileInterval
	worker.Stats = func(ctx context.Context) { postgres.LogPoolStats(ctx, pool) }

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// Reconciler checks every account/currency pair.
type Reconciler interface {
	ReconcileAll(ctx context.Context) ([]reconciliation.Result, error)
}

// KeyCleaner purges expired idempotency keys.
type KeyCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Worker runs the periodic jobs.
type Worker struct {
	reconciler Reconciler
	keys       KeyCleaner
	log        *logger.Logger

	ReconcileInterval time.Duration
	CleanupInterval   time.Duration

	// Stats, when set, runs after every reconciliation pass.
	Stats func(ctx context.Context)
}

// NewWorker creates a worker. keys may be nil when idempotency is off.
func NewWorker(reconciler Reconciler, keys KeyCleaner, log *logger.Logger) *Worker {
	return &Worker{
		reconciler:        reconciler,
		keys:              keys,
		log:               log.WithComponent("worker"),
		ReconcileInterval: 15 * time.Minute,
		CleanupInterval:   time.Hour,
	}
}

// Run reconciles once immediately, then on every tick, until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	reconcileTicker := time.NewTicker(w.ReconcileInterval)
	defer reconcileTicker.Stop()

	cleanupTicker := time.NewTicker(w.CleanupInterval)
	defer cleanupTicker.Stop()

	w.reconcile(ctx)
	w.reportStats(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-reconcileTicker.C:
			w.reconcile(ctx)
			w.reportStats(ctx)
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
		}
	}
}

// reconcile logs every drifted pair. Drift is reported, never repaired.
func (w *Worker) reconcile(ctx context.Context) int {
	results, err := w.reconciler.ReconcileAll(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Errorw("reconciliation failed", "error", err)
		}
		return 0
	}

	drifted := reconciliation.Drifted(results)
	for _, r := range drifted {
		w.log.Warnw("account balance drifted from journal",
			"account_id", r.AccountID,
			"currency_id", r.CurrencyID,
			"account_balance", r.AccountBalance.String(),
			"journal_balance", r.JournalBalance.String(),
			"difference", r.Difference.String(),
		)
	}
	w.log.Infow("reconciliation pass finished", "pairs", len(results), "drifted", len(drifted))
	return len(drifted)
}

func (w *Worker) reportStats(ctx context.Context) {
	if w.Stats != nil && ctx.Err() == nil {
		w.Stats(ctx)
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	if w.keys == nil {
		return
	}
	n, err := w.keys.CleanupExpired(ctx)
	if err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
