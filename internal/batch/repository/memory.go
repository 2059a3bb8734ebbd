package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kitchenops/inventory-service/internal/batch"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/shopspring/decimal"
)

type MemoryRepository struct {
	mem *store.Memory
}

func NewMemoryRepository(mem *store.Memory) *MemoryRepository {
	return &MemoryRepository{mem: mem}
}

func (r *MemoryRepository) Create(ctx context.Context, b *model.Batch) error {
	defer r.mem.Lock(ctx)()
	for _, existing := range r.mem.Batches {
		if existing.ItemID == b.ItemID && existing.BatchNumber == b.BatchNumber {
			return &model.DuplicateBatchNumberError{ItemID: b.ItemID, BatchNumber: b.BatchNumber}
		}
	}
	r.mem.Batches[b.ID] = *b
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Batch, error) {
	defer r.mem.RLock(ctx)()
	b, ok := r.mem.Batches[id]
	if !ok {
		return nil, fmt.Errorf("batch %s: %w", id, model.ErrNotFound)
	}
	return &b, nil
}

func (r *MemoryRepository) NumberExists(ctx context.Context, itemID, batchNumber string) (bool, error) {
	defer r.mem.RLock(ctx)()
	for _, b := range r.mem.Batches {
		if b.ItemID == itemID && b.BatchNumber == batchNumber {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) ListActive(ctx context.Context, itemID, locationID string, order batch.LotOrder, after *batch.PageKey, limit int) ([]model.Batch, error) {
	defer r.mem.RLock(ctx)()

	active := []model.Batch{}
	for _, b := range r.mem.Batches {
		if b.ItemID == itemID && b.LocationID == locationID && b.HasStock() {
			active = append(active, b)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if !active[i].ReceivedDate.Equal(active[j].ReceivedDate) {
			if order == batch.ReceivedDateAsc {
				return active[i].ReceivedDate.Before(active[j].ReceivedDate)
			}
			return active[i].ReceivedDate.After(active[j].ReceivedDate)
		}
		if order == batch.ReceivedDateAsc {
			return active[i].ID < active[j].ID
		}
		return active[i].ID > active[j].ID
	})

	page := []model.Batch{}
	skipping := after != nil
	for _, b := range active {
		if skipping {
			if b.ReceivedDate.Equal(after.ReceivedDate) && b.ID == after.ID {
				skipping = false
			}
			continue
		}
		page = append(page, b)
		if len(page) == limit {
			break
		}
	}
	return page, nil
}

func (r *MemoryRepository) Debit(ctx context.Context, batchID string, qty decimal.Decimal) (bool, error) {
	defer r.mem.Lock(ctx)()
	b, ok := r.mem.Batches[batchID]
	if !ok || !b.IsActive || b.RemainingQuantity.LessThan(qty) {
		return false, nil
	}
	b.RemainingQuantity = b.RemainingQuantity.Sub(qty)
	if !b.RemainingQuantity.IsPositive() {
		b.IsActive = false
	}
	b.UpdatedAt = time.Now()
	r.mem.Batches[batchID] = b
	return true, nil
}

func (r *MemoryRepository) ActiveTotals(ctx context.Context, itemID, locationID string) (decimal.Decimal, decimal.Decimal, error) {
	defer r.mem.RLock(ctx)()
	qty, value := decimal.Zero, decimal.Zero
	for _, b := range r.mem.Batches {
		if b.ItemID == itemID && b.LocationID == locationID && b.HasStock() {
			qty = qty.Add(b.RemainingQuantity)
			value = value.Add(b.RemainingValue())
		}
	}
	return qty, value, nil
}

func (r *MemoryRepository) LatestActive(ctx context.Context, itemID, locationID string) (*model.Batch, error) {
	page, err := r.ListActive(ctx, itemID, locationID, batch.ReceivedDateDesc, nil, 1)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, fmt.Errorf("no active batch for item %s at %s: %w", itemID, locationID, model.ErrNotFound)
	}
	return &page[0], nil
}

func (r *MemoryRepository) ListExpiring(ctx context.Context, before time.Time) ([]model.Batch, error) {
	defer r.mem.RLock(ctx)()
	now := time.Now()
	batches := []model.Batch{}
	for _, b := range r.mem.Batches {
		if b.HasStock() && b.ExpirationDate != nil &&
			!b.ExpirationDate.Before(now) && b.ExpirationDate.Before(before) {
			batches = append(batches, b)
		}
	}
	sortByExpiration(batches)
	return batches, nil
}

func (r *MemoryRepository) ListExpired(ctx context.Context, asOf time.Time) ([]model.Batch, error) {
	defer r.mem.RLock(ctx)()
	batches := []model.Batch{}
	for _, b := range r.mem.Batches {
		if b.HasStock() && b.IsExpired(asOf) {
			batches = append(batches, b)
		}
	}
	sortByExpiration(batches)
	return batches, nil
}

func (r *MemoryRepository) ListByItemLocation(ctx context.Context, itemID, locationID string, includeInactive bool) ([]model.Batch, error) {
	defer r.mem.RLock(ctx)()
	batches := []model.Batch{}
	for _, b := range r.mem.Batches {
		if b.ItemID != itemID || b.LocationID != locationID {
			continue
		}
		if !includeInactive && !b.IsActive {
			continue
		}
		batches = append(batches, b)
	}
	sort.Slice(batches, func(i, j int) bool {
		if !batches[i].ReceivedDate.Equal(batches[j].ReceivedDate) {
			return batches[i].ReceivedDate.Before(batches[j].ReceivedDate)
		}
		return batches[i].ID < batches[j].ID
	})
	return batches, nil
}

func sortByExpiration(batches []model.Batch) {
	sort.Slice(batches, func(i, j int) bool {
		return batches[i].ExpirationDate.Before(*batches[j].ExpirationDate)
	})
}
