package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stock")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Equal(t, 15*time.Minute, cfg.ReconcileInterval)
	assert.True(t, cfg.IdempotencyEnabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/stock")
	t.Setenv("APP_ENV", "production")
	t.Setenv("RECONCILE_INTERVAL", "1m")
	t.Setenv("DB_MAX_CONNS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
	assert.False(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	cfg := Config{DBMinConns: 10, DBMaxConns: 5, ReconcileInterval: time.Minute, ReconcileConcurrency: 1}
	assert.Error(t, cfg.Validate())

	cfg = Config{DBMinConns: 1, DBMaxConns: 5, ReconcileInterval: 0, ReconcileConcurrency: 1}
	assert.Error(t, cfg.Validate())

	cfg = Config{DBMinConns: 1, DBMaxConns: 5, ReconcileInterval: time.Minute, ReconcileConcurrency: 0}
	assert.Error(t, cfg.Validate())

	cfg = Config{DBMinConns: 1, DBMaxConns: 5, ReconcileInterval: time.Minute, ReconcileConcurrency: 2}
	assert.NoError(t, cfg.Validate())
}

func TestClearingAccount(t *testing.T) {
	cfg := Config{DBMinConns: 1, DBMaxConns: 5, ReconcileInterval: time.Minute, ReconcileConcurrency: 1}
	assert.Nil(t, cfg.ClearingAccount())

	cfg.ClearingAccountID = "not-a-uuid"
	assert.Error(t, cfg.Validate())

	cfg.ClearingAccountID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	require.NoError(t, cfg.Validate())
	require.NotNil(t, cfg.ClearingAccount())
	assert.Equal(t, cfg.ClearingAccountID, cfg.ClearingAccount().String())
}
