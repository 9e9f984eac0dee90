package batches

import (
	"context"

	"stockledger/internal/core/id"
)

// Repository defines persistence for purchases, batches and consumptions.
// All methods use the transaction carried by ctx when there is one.
type Repository interface {
	CreatePurchase(ctx context.Context, p *Purchase) error

	CreateBatch(ctx context.Context, b *Batch) error
	GetBatch(ctx context.Context, batchID id.ID) (*Batch, error)
	// LockBatch reads the batch with SELECT ... FOR UPDATE.
	LockBatch(ctx context.Context, batchID id.ID) (*Batch, error)
	UpdateBatch(ctx context.Context, b *Batch) error
	DeleteBatch(ctx context.Context, batchID id.ID) error
	// ListBatches returns batches oldest purchase first: purchase date,
	// then purchase creation time, then batch id.
	ListBatches(ctx context.Context, f BatchFilter) ([]BatchRow, error)

	CreateConsumption(ctx context.Context, c *Consumption) error
	GetConsumption(ctx context.Context, consumptionID id.ID) (*Consumption, error)
	// LockConsumption reads the consumption with SELECT ... FOR UPDATE.
	LockConsumption(ctx context.Context, consumptionID id.ID) (*Consumption, error)
	UpdateConsumption(ctx context.Context, c *Consumption) error
	DeleteConsumption(ctx context.Context, consumptionID id.ID) error
	ListConsumptionsByBatches(ctx context.Context, batchIDs []id.ID) ([]Consumption, error)
	CountConsumptions(ctx context.Context, batchID id.ID) (int, error)
}
