package ledger

import (
	"context"
	"time"

	"github.com/kitchenops/inventory-service/internal/model"
)

// Repository owns stock level rows and the reservation records tied to them.
// Level rows are versioned; a stale update must surface
// model.ErrConcurrencyConflict so the caller re-validates from a fresh read.
type Repository interface {
	// Get returns nil when no row exists for the pair.
	Get(ctx context.Context, itemID, locationID string) (*model.StockLevel, error)

	// Insert creates the first row for a pair. A concurrent first writer
	// surfaces model.ErrConcurrencyConflict.
	Insert(ctx context.Context, level *model.StockLevel) error

	// UpdateVersioned writes the row only if the stored version still equals
	// level.Version, bumping it by one. A lost race surfaces
	// model.ErrConcurrencyConflict.
	UpdateVersioned(ctx context.Context, level *model.StockLevel) error

	ListByLocation(ctx context.Context, locationID string) ([]model.StockLevel, error)

	// ListBelowReorder returns levels at the location whose available
	// quantity sits below the item's configured reorder point. Items with a
	// zero reorder point never appear.
	ListBelowReorder(ctx context.Context, locationID string) ([]model.StockLevel, error)

	// Reservations
	CreateReservation(ctx context.Context, res *model.Reservation) error
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	ActiveReservationByReference(ctx context.Context, reference string) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, res *model.Reservation) error
	ListExpiredReservations(ctx context.Context, asOf time.Time) ([]model.Reservation, error)
}
