package batch

import (
	"context"
	"time"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

// LotOrder controls how active lots are sequenced for draw-down.
type LotOrder int

const (
	// ReceivedDateAsc draws oldest lots first (FIFO).
	ReceivedDateAsc LotOrder = iota
	// ReceivedDateDesc draws newest lots first (LIFO).
	ReceivedDateDesc
)

// PageKey is the keyset cursor for paged lot listings. (received_date, id)
// is a total order because ids are unique.
type PageKey struct {
	ReceivedDate time.Time
	ID           string
}

// Repository owns batch rows. Batches are never deleted; a fully drawn batch
// is deactivated and retained.
type Repository interface {
	Create(ctx context.Context, b *model.Batch) error
	GetByID(ctx context.Context, id string) (*model.Batch, error)
	NumberExists(ctx context.Context, itemID, batchNumber string) (bool, error)

	// ListActive returns one page of active batches for the item/location in
	// the given order, starting after the cursor.
	ListActive(ctx context.Context, itemID, locationID string, order LotOrder, after *PageKey, limit int) ([]model.Batch, error)

	// Debit conditionally decreases remaining quantity, deactivating the
	// batch at zero. It returns false when the conditional update lost
	// against the stored remaining quantity.
	Debit(ctx context.Context, batchID string, qty decimal.Decimal) (bool, error)

	// ActiveTotals returns Σ remaining and Σ remaining×unit_cost over the
	// active batches of an item/location.
	ActiveTotals(ctx context.Context, itemID, locationID string) (qty, value decimal.Decimal, err error)

	// LatestActive returns the most recently received active batch.
	LatestActive(ctx context.Context, itemID, locationID string) (*model.Batch, error)

	ListExpiring(ctx context.Context, before time.Time) ([]model.Batch, error)
	ListExpired(ctx context.Context, asOf time.Time) ([]model.Batch, error)
	ListByItemLocation(ctx context.Context, itemID, locationID string, includeInactive bool) ([]model.Batch, error)
}
