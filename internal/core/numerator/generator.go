// Package numerator provides domain contracts for human-readable record numbers.
// Implementations live in pkg/numerator.
package numerator

import (
	"context"
)

// Config describes one numbered series.
type Config struct {
	// Prefix is prepended to the digits (e.g. "J" for journal entries).
	Prefix string

	// PadWidth is the minimum number of digits (default 6).
	PadWidth int

	// Table and Column hold the already issued numbers of the series.
	Table  string
	Column string
}

// JournalConfig is the series used for journal entries: J000001, J000002...
func JournalConfig() Config {
	return Config{
		Prefix:   "J",
		PadWidth: 6,
		Table:    "journal_entries",
		Column:   "number",
	}
}

// Generator issues the next number of a series.
//
// Numbers are derived from the largest number already stored plus one, so
// the call must run inside the transaction that inserts the numbered row.
type Generator interface {
	Next(ctx context.Context, cfg Config) (string, error)
}
