// Package numerator issues human-readable sequential numbers (J000001, ...).
// The next number is the largest one already stored plus one.
package numerator

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	corenumerator "stockledger/internal/core/numerator"
)

const defaultPadWidth = 6

// Querier interface for database operations.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service provides record numbering.
type Service struct {
	resolve func(ctx context.Context) Querier
}

// New creates a numerator bound to a single querier.
// Use for scripts and tests.
func New(querier Querier) *Service {
	return &Service{resolve: func(context.Context) Querier { return querier }}
}

// NewWithResolver creates a numerator that picks the querier per call,
// typically the transaction carried by ctx.
func NewWithResolver(resolve func(ctx context.Context) Querier) *Service {
	return &Service{resolve: resolve}
}

// Next returns the next number of the series described by cfg.
//
// A transaction-scoped advisory lock serialises concurrent callers until
// the surrounding transaction commits, so two entries can never read the
// same maximum. Outside a transaction the lock is released immediately and
// uniqueness falls back to the column's unique index.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config) (string, error) {
	if s == nil || s.resolve == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}
	if cfg.Table == "" || cfg.Column == "" {
		return "", fmt.Errorf("numerator config for prefix %q has no table/column", cfg.Prefix)
	}

	q := s.resolve(ctx)

	if _, err := q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", lockKey(cfg)); err != nil {
		return "", fmt.Errorf("lock series %s: %w", cfg.Prefix, err)
	}

	column := pgx.Identifier{cfg.Column}.Sanitize()
	sql := fmt.Sprintf(
		"SELECT COALESCE(MAX(CAST(SUBSTRING(%s FROM $1::int) AS BIGINT)), 0) FROM %s WHERE %s ~ $2",
		column, pgx.Identifier{cfg.Table}.Sanitize(), column,
	)

	var current int64
	if err := q.QueryRow(ctx, sql, len(cfg.Prefix)+1, pattern(cfg.Prefix)).Scan(&current); err != nil {
		return "", fmt.Errorf("read max %s number: %w", cfg.Prefix, err)
	}

	return Format(cfg, current+1), nil
}

// Format renders num with the series prefix and zero padding.
func Format(cfg corenumerator.Config, num int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = defaultPadWidth
	}
	return fmt.Sprintf("%s%0*d", cfg.Prefix, width, num)
}

// ParseNumber extracts the numeric part of a formatted number.
// Returns -1 if the value does not belong to the series.
func ParseNumber(prefix, formatted string) int64 {
	digits, ok := strings.CutPrefix(formatted, prefix)
	if !ok || digits == "" {
		return -1
	}
	num, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}

func lockKey(cfg corenumerator.Config) string {
	return "numerator:" + cfg.Table + ":" + cfg.Prefix
}

func pattern(prefix string) string {
	return "^" + regexp.QuoteMeta(prefix) + "[0-9]+$"
}

var _ corenumerator.Generator = (*Service)(nil)
