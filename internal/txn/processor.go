package txn

import (
	"context"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
)

// Processor validates and atomically applies one inventory transaction per
// call. A call either commits every line's ledger and batch mutation and
// returns the immutable transaction record, or leaves no trace and returns
// the first error. There is no partially-applied state.
type Processor interface {
	Receive(ctx context.Context, input *dto.ReceiveInput) (*model.InventoryTransaction, error)
	Consume(ctx context.Context, input *dto.ConsumeInput) (*model.InventoryTransaction, error)
	Transfer(ctx context.Context, input *dto.TransferInput) (*model.InventoryTransaction, error)
	Adjust(ctx context.Context, input *dto.AdjustInput) (*model.InventoryTransaction, error)
	Waste(ctx context.Context, input *dto.WasteInput) (*model.InventoryTransaction, error)
	Reserve(ctx context.Context, input *dto.ReserveInput) (*model.InventoryTransaction, error)
	Release(ctx context.Context, input *dto.ReleaseInput) (*model.InventoryTransaction, error)

	History(ctx context.Context, filters *dto.HistoryFilters) ([]model.InventoryTransaction, int, error)
}
