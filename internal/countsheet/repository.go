package countsheet

import (
	"context"

	"github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/internal/model"
)

// Repository stores count sheets with their items.
type Repository interface {
	Create(ctx context.Context, sheet *model.CountSheet) error
	GetByID(ctx context.Context, id string) (*model.CountSheet, error)
	// Update rewrites the sheet header and items. Terminal sheets are the
	// use case's responsibility to refuse.
	Update(ctx context.Context, sheet *model.CountSheet) error
	Find(ctx context.Context, filters *dto.ListFilters) ([]model.CountSheet, int, error)
}
