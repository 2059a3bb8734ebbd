package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
)

type MemoryRepository struct {
	mem *store.Memory
}

func NewMemoryRepository(mem *store.Memory) *MemoryRepository {
	return &MemoryRepository{mem: mem}
}

func (r *MemoryRepository) Get(ctx context.Context, itemID, locationID string) (*model.StockLevel, error) {
	defer r.mem.RLock(ctx)()
	level, ok := r.mem.Levels[store.LevelKey{ItemID: itemID, LocationID: locationID}]
	if !ok {
		return nil, nil
	}
	return &level, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, level *model.StockLevel) error {
	defer r.mem.Lock(ctx)()
	key := store.LevelKey{ItemID: level.ItemID, LocationID: level.LocationID}
	if _, ok := r.mem.Levels[key]; ok {
		return fmt.Errorf("stock level %s/%s already created: %w",
			level.ItemID, level.LocationID, model.ErrConcurrencyConflict)
	}
	level.Version = 1
	r.mem.Levels[key] = *level
	return nil
}

func (r *MemoryRepository) UpdateVersioned(ctx context.Context, level *model.StockLevel) error {
	defer r.mem.Lock(ctx)()
	key := store.LevelKey{ItemID: level.ItemID, LocationID: level.LocationID}
	stored, ok := r.mem.Levels[key]
	if !ok || stored.Version != level.Version {
		return fmt.Errorf("stock level %s/%s version %d is stale: %w",
			level.ItemID, level.LocationID, level.Version, model.ErrConcurrencyConflict)
	}
	level.Version++
	r.mem.Levels[key] = *level
	return nil
}

func (r *MemoryRepository) ListByLocation(ctx context.Context, locationID string) ([]model.StockLevel, error) {
	defer r.mem.RLock(ctx)()
	levels := []model.StockLevel{}
	for _, level := range r.mem.Levels {
		if level.LocationID == locationID {
			levels = append(levels, level)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ItemID < levels[j].ItemID })
	return levels, nil
}

func (r *MemoryRepository) ListBelowReorder(ctx context.Context, locationID string) ([]model.StockLevel, error) {
	defer r.mem.RLock(ctx)()
	levels := []model.StockLevel{}
	for _, level := range r.mem.Levels {
		if level.LocationID != locationID {
			continue
		}
		item, ok := r.mem.Items[level.ItemID]
		if !ok || !item.IsActive || !item.ReorderPoint.IsPositive() {
			continue
		}
		if level.AvailableQuantity().LessThan(item.ReorderPoint) {
			levels = append(levels, level)
		}
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ItemID < levels[j].ItemID })
	return levels, nil
}

func (r *MemoryRepository) CreateReservation(ctx context.Context, res *model.Reservation) error {
	defer r.mem.Lock(ctx)()
	r.mem.Reservations[res.ID] = *res
	return nil
}

func (r *MemoryRepository) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	defer r.mem.RLock(ctx)()
	res, ok := r.mem.Reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
	}
	return &res, nil
}

func (r *MemoryRepository) ActiveReservationByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	defer r.mem.RLock(ctx)()
	var found *model.Reservation
	for _, res := range r.mem.Reservations {
		if res.Reference != reference || res.Status != model.ReservationActive {
			continue
		}
		if found == nil || res.CreatedAt.Before(found.CreatedAt) {
			res := res
			found = &res
		}
	}
	if found == nil {
		return nil, fmt.Errorf("active reservation for %q: %w", reference, model.ErrNotFound)
	}
	return found, nil
}

func (r *MemoryRepository) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	defer r.mem.Lock(ctx)()
	if _, ok := r.mem.Reservations[res.ID]; !ok {
		return fmt.Errorf("reservation %s: %w", res.ID, model.ErrNotFound)
	}
	r.mem.Reservations[res.ID] = *res
	return nil
}

func (r *MemoryRepository) ListExpiredReservations(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	defer r.mem.RLock(ctx)()
	expired := []model.Reservation{}
	for _, res := range r.mem.Reservations {
		if res.Expired(asOf) {
			expired = append(expired, res)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt) })
	return expired, nil
}
