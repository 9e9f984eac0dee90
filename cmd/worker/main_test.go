package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/reconciliation"
	"stockledger/pkg/logger"
)

type stubReconciler struct {
	calls   atomic.Int32
	results []reconciliation.Result
	err     error
}

func (s *stubReconciler) ReconcileAll(context.Context) ([]reconciliation.Result, error) {
	s.calls.Add(1)
	return s.results, s.err
}

type stubCleaner struct{ calls atomic.Int32 }

func (s *stubCleaner) CleanupExpired(context.Context) (int64, error) {
	s.calls.Add(1)
	return 3, nil
}

func TestWorker_ReconcileCountsDrift(t *testing.T) {
	rec := &stubReconciler{results: []reconciliation.Result{
		{Pair: reconciliation.Pair{AccountID: id.New(), CurrencyID: id.New()}, IsBalanced: true},
		{
			Pair:           reconciliation.Pair{AccountID: id.New(), CurrencyID: id.New()},
			AccountBalance: types.MustMoney("10"),
			Difference:     types.MustMoney("10"),
		},
	}}
	w := NewWorker(rec, nil, logger.Nop())

	assert.Equal(t, 1, w.reconcile(context.Background()))

	rec.err = errors.New("connection reset")
	assert.Equal(t, 0, w.reconcile(context.Background()))
}

func TestWorker_RunTicksUntilCancelled(t *testing.T) {
	rec := &stubReconciler{}
	keys := &stubCleaner{}
	w := NewWorker(rec, keys, logger.Nop())
	w.ReconcileInterval = 5 * time.Millisecond
	w.CleanupInterval = 5 * time.Millisecond
	var stats atomic.Int32
	w.Stats = func(context.Context) { stats.Add(1) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return rec.calls.Load() >= 3 && keys.calls.Load() >= 1 && stats.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
