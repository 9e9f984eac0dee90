package register_repo

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/batches"
)

func compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func TestBatchRepo_ListQueryOrdersOldestPurchaseFirst(t *testing.T) {
	r := NewBatchRepo(nil)

	sql, args, err := r.listQuery(batches.BatchFilter{}).ToSql()
	require.NoError(t, err)
	assert.Empty(t, args)

	sql = compact(sql)
	assert.Contains(t, sql, "FROM batches b JOIN purchases p ON p.id = b.purchase_id")
	assert.Contains(t, sql, "u.name AS unit_name")
	assert.True(t, strings.HasSuffix(sql, "ORDER BY p.purchased_at, p.created_at, b.id"), sql)
}

func TestBatchRepo_ListQueryFilters(t *testing.T) {
	r := NewBatchRepo(nil)
	productID := id.New()
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	sql, args, err := r.listQuery(batches.BatchFilter{
		ProductID:      &productID,
		ExpiringBefore: &cutoff,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, compact(sql), "WHERE b.product_id = $1 AND b.expires_at < $2")
	// Eq hands driver.Valuer arguments over in their driver form.
	assert.Equal(t, []any{productID.String(), cutoff}, args)
}
