package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalogs/unit"
	"stockledger/internal/domain/pricing"
)

func TestParseOrderBy(t *testing.T) {
	r := NewBaseCatalogRepo[unit.Unit](nil, "units", "unit")

	tests := []struct {
		in   string
		want string
	}{
		{"", "name ASC"},
		{"name", "name ASC"},
		{"+ratio", "ratio ASC"},
		{"-is_base", "is_base DESC"},
	}
	for _, tt := range tests {
		got, err := r.parseOrderBy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := r.parseOrderBy("name; DROP TABLE units")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestColumnsSkipExcluded(t *testing.T) {
	r := NewBaseCatalogRepo[unit.Unit](nil, "units", "unit")
	groupID := id.New()
	u := unit.Unit{ID: id.New(), Name: "box", GroupID: &groupID}

	data := r.columns(&u, "id")
	assert.NotContains(t, data, "id")
	assert.Equal(t, "box", data["name"])
	assert.Equal(t, &groupID, data["group_id"])
	assert.Len(t, data, 4)
}

func TestPromoCodeRepo_RedeemIsConditional(t *testing.T) {
	r := NewPromoCodeRepo(nil)
	codeID := id.New()

	sql, args, err := r.redeemQuery(codeID).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE promo_codes SET used_count = used_count + 1 WHERE id = $1 AND (max_uses IS NULL OR used_count < max_uses)",
		sql)
	assert.Equal(t, []any{codeID.String()}, args)
}

func TestPromoCodeRepo_SaveLeavesUsageAlone(t *testing.T) {
	r := NewPromoCodeRepo(nil)
	data := r.columns(&pricing.PromoCode{ID: id.New(), Code: "SPRING"}, "used_count")

	assert.NotContains(t, data, "used_count")
	assert.Contains(t, data, "rule")
	assert.Contains(t, data, "max_uses")
}
