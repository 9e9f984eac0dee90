package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/currency"
)

type timestamps struct {
	CreatedAt string `db:"created_at"`
}

type taggedRow struct {
	timestamps
	ID      id.ID  `db:"id"`
	Name    string `db:"name"`
	Ignored string `db:"-"`
	Scratch int
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"id", "code", "name", "is_base", "rate"}, ExtractDBColumns[currency.Currency]())
	assert.Equal(t, []string{"created_at", "id", "name"}, ExtractDBColumns[taggedRow]())
}

func TestStructToMap(t *testing.T) {
	row := taggedRow{
		timestamps: timestamps{CreatedAt: "2026-01-01"},
		ID:         id.New(),
		Name:       "Cash",
		Ignored:    "x",
		Scratch:    7,
	}

	m := StructToMap(&row)
	require.Len(t, m, 3)
	assert.Equal(t, row.ID, m["id"])
	assert.Equal(t, "Cash", m["name"])
	assert.Equal(t, "2026-01-01", m["created_at"])

	c := currency.Currency{ID: id.New(), Code: "USD", Rate: decimal.RequireFromString("41.5")}
	cm := StructToMap(c)
	assert.Equal(t, "USD", cm["code"])
	assert.True(t, decimal.RequireFromString("41.5").Equal(cm["rate"].(decimal.Decimal)))

	var nilRow *taggedRow
	assert.Nil(t, StructToMap(nilRow))
	assert.Nil(t, StructToMap(42))
}
