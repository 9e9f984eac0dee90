package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/pricing"
	"stockledger/internal/infrastructure/storage/postgres"
)

// PromoCodeRepo implements pricing.Repository.
type PromoCodeRepo struct {
	*BaseCatalogRepo[pricing.PromoCode]
}

// NewPromoCodeRepo creates a new promo code repository.
func NewPromoCodeRepo(txm *postgres.TxManager) *PromoCodeRepo {
	return &PromoCodeRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[pricing.PromoCode](txm, "promo_codes", "promo code"),
	}
}

// FindByCode looks up a code, already normalised by the caller.
func (r *PromoCodeRepo) FindByCode(ctx context.Context, code string) (*pricing.PromoCode, error) {
	return r.FindOne(ctx, r.baseSelect().Where(squirrel.Eq{"code": code}).Limit(1), code)
}

// Save upserts the code by id. used_count is never overwritten here.
func (r *PromoCodeRepo) Save(ctx context.Context, p *pricing.PromoCode) error {
	data := r.columns(p, "used_count")
	q := r.Builder().
		Insert("promo_codes").
		SetMap(data).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			min_purchase = EXCLUDED.min_purchase,
			valid_from = EXCLUDED.valid_from,
			valid_until = EXCLUDED.valid_until,
			max_uses = EXCLUDED.max_uses,
			rule = EXCLUDED.rule,
			active = EXCLUDED.active`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return r.translate("save", p.ID, err)
	}
	return nil
}

// IncrementUse bumps used_count in one conditional statement so
// concurrent redemptions cannot exceed max_uses.
func (r *PromoCodeRepo) IncrementUse(ctx context.Context, codeID id.ID) (bool, error) {
	tag, err := r.exec(ctx, "redeem", r.redeemQuery(codeID))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PromoCodeRepo) redeemQuery(codeID id.ID) squirrel.UpdateBuilder {
	return r.Builder().
		Update("promo_codes").
		Set("used_count", squirrel.Expr("used_count + 1")).
		Where(squirrel.Eq{"id": codeID}).
		Where("(max_uses IS NULL OR used_count < max_uses)")
}

var _ pricing.Repository = (*PromoCodeRepo)(nil)
