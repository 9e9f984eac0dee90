// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"time"

	"github.com/kelseyhightower/envconfig"

	"stockledger/internal/core/id"
)

// Config holds runtime configuration shared by the server and the worker.
type Config struct {
	AppEnv          string        `envconfig:"APP_ENV" default:"development"`
	AppPort         string        `envconfig:"APP_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL       string        `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns        int32         `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns        int32         `envconfig:"DB_MIN_CONNS" default:"5"`
	DBMaxConnLifetime time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MigrateOnStart    bool          `envconfig:"MIGRATE_ON_START" default:"false"`

	IdempotencyEnabled bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyTTL     time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	// ClearingAccountID, when set, receives the balancing side of every
	// deposit and withdrawal so that each movement is journaled.
	ClearingAccountID string `envconfig:"LEDGER_CLEARING_ACCOUNT_ID"`

	// ReconcileInterval is how often the worker re-checks every account.
	ReconcileInterval    time.Duration `envconfig:"RECONCILE_INTERVAL" default:"15m"`
	ReconcileConcurrency int           `envconfig:"RECONCILE_CONCURRENCY" default:"4"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	if c.DBMinConns > c.DBMaxConns {
		return errors.New("DB_MIN_CONNS must not exceed DB_MAX_CONNS")
	}
	if c.ReconcileInterval <= 0 {
		return errors.New("RECONCILE_INTERVAL must be positive")
	}
	if c.ReconcileConcurrency < 1 {
		return errors.New("RECONCILE_CONCURRENCY must be at least 1")
	}
	if _, err := id.ParseOptional(c.ClearingAccountID); err != nil {
		return errors.New("LEDGER_CLEARING_ACCOUNT_ID must be a UUID")
	}
	return nil
}

// ClearingAccount returns the configured clearing account, nil when unset.
func (c *Config) ClearingAccount() *id.ID {
	accountID, _ := id.ParseOptional(c.ClearingAccountID)
	return accountID
}

// IsDevelopment reports whether logs should be human readable.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.AppEnv == "development"
}
