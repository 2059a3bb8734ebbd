package txn

import (
	"context"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
)

// Repository is the append-only transaction log. Records are immutable once
// written; corrections are new compensating transactions.
type Repository interface {
	Create(ctx context.Context, tx *model.InventoryTransaction) error
	GetByID(ctx context.Context, id string) (*model.InventoryTransaction, error)
	Find(ctx context.Context, filters *dto.HistoryFilters) ([]model.InventoryTransaction, int, error)
}
