package item

import (
	"context"

	"github.com/kitchenops/inventory-service/internal/model"
)

// Repository reads and writes per-item configuration: costing method,
// standard cost, reorder thresholds.
type Repository interface {
	GetByID(ctx context.Context, id string) (*model.Item, error)
	Create(ctx context.Context, it *model.Item) error
	Update(ctx context.Context, it *model.Item) error
	FindAll(ctx context.Context, activeOnly bool) ([]model.Item, error)
}
