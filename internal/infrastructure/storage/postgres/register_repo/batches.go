// Package register_repo provides PostgreSQL implementations for the
// stock movement tables: purchases, batches and consumptions.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/batches"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	purchasesTable    = "purchases"
	batchesTable      = "batches"
	consumptionsTable = "consumptions"
)

var (
	batchColumns       = postgres.ExtractDBColumns[batches.Batch]()
	consumptionColumns = postgres.ExtractDBColumns[batches.Consumption]()
)

// BatchRepo implements batches.Repository.
type BatchRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewBatchRepo creates a new batch repository.
func NewBatchRepo(txm *postgres.TxManager) *BatchRepo {
	return &BatchRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *BatchRepo) exec(ctx context.Context, op string, q squirrel.Sqlizer) (int64, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, apperror.NewStore(op, err)
	}
	return tag.RowsAffected(), nil
}

func (r *BatchRepo) get(ctx context.Context, dst any, entity, key string, q squirrel.Sqlizer) error {
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), dst, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return apperror.NewNotFound(entity, key)
		}
		return apperror.NewStore("get "+entity, err)
	}
	return nil
}

// CreatePurchase inserts a purchase header.
func (r *BatchRepo) CreatePurchase(ctx context.Context, p *batches.Purchase) error {
	_, err := r.exec(ctx, "insert purchase", r.builder.
		Insert(purchasesTable).
		SetMap(postgres.StructToMap(p)))
	return err
}

// CreateBatch inserts a batch.
func (r *BatchRepo) CreateBatch(ctx context.Context, b *batches.Batch) error {
	_, err := r.exec(ctx, "insert batch", r.builder.
		Insert(batchesTable).
		SetMap(postgres.StructToMap(b)))
	return err
}

// GetBatch returns a batch by id.
func (r *BatchRepo) GetBatch(ctx context.Context, batchID id.ID) (*batches.Batch, error) {
	var b batches.Batch
	err := r.get(ctx, &b, "batch", batchID.String(), r.builder.
		Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID}))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// LockBatch reads a batch and holds its row lock until the transaction ends.
func (r *BatchRepo) LockBatch(ctx context.Context, batchID id.ID) (*batches.Batch, error) {
	var b batches.Batch
	err := r.get(ctx, &b, "batch", batchID.String(), r.builder.
		Select(batchColumns...).
		From(batchesTable).
		Where(squirrel.Eq{"id": batchID}).
		Suffix("FOR UPDATE"))
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBatch overwrites the editable batch columns.
func (r *BatchRepo) UpdateBatch(ctx context.Context, b *batches.Batch) error {
	data := postgres.StructToMap(b)
	delete(data, "id")
	delete(data, "purchase_id")
	delete(data, "product_id")

	n, err := r.exec(ctx, "update batch", r.builder.
		Update(batchesTable).
		SetMap(data).
		Where(squirrel.Eq{"id": b.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("batch", b.ID.String())
	}
	return nil
}

// DeleteBatch removes a batch row.
func (r *BatchRepo) DeleteBatch(ctx context.Context, batchID id.ID) error {
	n, err := r.exec(ctx, "delete batch", r.builder.
		Delete(batchesTable).
		Where(squirrel.Eq{"id": batchID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("batch", batchID.String())
	}
	return nil
}

// ListBatches returns batches joined with purchase, product and unit,
// oldest purchase first.
func (r *BatchRepo) ListBatches(ctx context.Context, f batches.BatchFilter) ([]batches.BatchRow, error) {
	q := r.listQuery(f)
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []batches.BatchRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, apperror.NewStore("list batches", err)
	}
	return rows, nil
}

func (r *BatchRepo) listQuery(f batches.BatchFilter) squirrel.SelectBuilder {
	cols := make([]string, 0, len(batchColumns)+4)
	for _, c := range batchColumns {
		cols = append(cols, "b."+c)
	}
	cols = append(cols,
		"p.purchased_at",
		"p.created_at AS purchase_created_at",
		"pr.name AS product_name",
		"u.name AS unit_name",
	)

	q := r.builder.
		Select(cols...).
		From(batchesTable + " b").
		Join(purchasesTable + " p ON p.id = b.purchase_id").
		Join("products pr ON pr.id = b.product_id").
		Join("units u ON u.id = b.unit_id").
		OrderBy("p.purchased_at", "p.created_at", "b.id")

	if f.ProductID != nil {
		q = q.Where(squirrel.Eq{"b.product_id": *f.ProductID})
	}
	if f.ExpiringBefore != nil {
		q = q.Where(squirrel.Lt{"b.expires_at": *f.ExpiringBefore})
	}
	return q
}

// CreateConsumption inserts a sale line.
func (r *BatchRepo) CreateConsumption(ctx context.Context, c *batches.Consumption) error {
	_, err := r.exec(ctx, "insert consumption", r.builder.
		Insert(consumptionsTable).
		SetMap(postgres.StructToMap(c)))
	return err
}

// GetConsumption returns a sale line by id.
func (r *BatchRepo) GetConsumption(ctx context.Context, consumptionID id.ID) (*batches.Consumption, error) {
	return r.consumption(ctx, consumptionID, "")
}

// LockConsumption reads a sale line with FOR UPDATE.
func (r *BatchRepo) LockConsumption(ctx context.Context, consumptionID id.ID) (*batches.Consumption, error) {
	return r.consumption(ctx, consumptionID, "FOR UPDATE")
}

func (r *BatchRepo) consumption(ctx context.Context, consumptionID id.ID, suffix string) (*batches.Consumption, error) {
	q := r.builder.
		Select(consumptionColumns...).
		From(consumptionsTable).
		Where(squirrel.Eq{"id": consumptionID})
	if suffix != "" {
		q = q.Suffix(suffix)
	}

	var c batches.Consumption
	if err := r.get(ctx, &c, "consumption", consumptionID.String(), q); err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateConsumption overwrites a sale line.
func (r *BatchRepo) UpdateConsumption(ctx context.Context, c *batches.Consumption) error {
	data := postgres.StructToMap(c)
	delete(data, "id")

	n, err := r.exec(ctx, "update consumption", r.builder.
		Update(consumptionsTable).
		SetMap(data).
		Where(squirrel.Eq{"id": c.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("consumption", c.ID.String())
	}
	return nil
}

// DeleteConsumption removes a sale line.
func (r *BatchRepo) DeleteConsumption(ctx context.Context, consumptionID id.ID) error {
	n, err := r.exec(ctx, "delete consumption", r.builder.
		Delete(consumptionsTable).
		Where(squirrel.Eq{"id": consumptionID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NewNotFound("consumption", consumptionID.String())
	}
	return nil
}

// ListConsumptionsByBatches returns every sale line drawing from the batches.
func (r *BatchRepo) ListConsumptionsByBatches(ctx context.Context, batchIDs []id.ID) ([]batches.Consumption, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}
	sql, args, err := r.builder.
		Select(consumptionColumns...).
		From(consumptionsTable).
		Where(squirrel.Eq{"batch_id": batchIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []batches.Consumption
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, apperror.NewStore("list consumptions", err)
	}
	return items, nil
}

// CountConsumptions counts the sale lines that reference a batch.
func (r *BatchRepo) CountConsumptions(ctx context.Context, batchID id.ID) (int, error) {
	sql, args, err := r.builder.
		Select("COUNT(*)").
		From(consumptionsTable).
		Where(squirrel.Eq{"batch_id": batchID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, apperror.NewStore("count consumptions", err)
	}
	return n, nil
}

var _ batches.Repository = (*BatchRepo)(nil)
