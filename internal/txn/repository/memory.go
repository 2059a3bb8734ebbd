package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
)

type MemoryRepository struct {
	mem *store.Memory
}

func NewMemoryRepository(mem *store.Memory) *MemoryRepository {
	return &MemoryRepository{mem: mem}
}

func (r *MemoryRepository) Create(ctx context.Context, tx *model.InventoryTransaction) error {
	defer r.mem.Lock(ctx)()
	stored := *tx
	stored.Lines = append([]model.TransactionLine(nil), tx.Lines...)
	r.mem.Transactions = append(r.mem.Transactions, stored)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.InventoryTransaction, error) {
	defer r.mem.RLock(ctx)()
	for _, tx := range r.mem.Transactions {
		if tx.ID == id {
			out := tx
			out.Lines = append([]model.TransactionLine(nil), tx.Lines...)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("transaction %s: %w", id, model.ErrNotFound)
}

func (r *MemoryRepository) Find(ctx context.Context, f *dto.HistoryFilters) ([]model.InventoryTransaction, int, error) {
	defer r.mem.RLock(ctx)()

	matched := []model.InventoryTransaction{}
	for _, tx := range r.mem.Transactions {
		if matches(&tx, f) {
			out := tx
			out.Lines = append([]model.TransactionLine(nil), tx.Lines...)
			matched = append(matched, out)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})

	count := len(matched)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start > count {
			start = count
		}
		end := start + f.PageSize
		if end > count {
			end = count
		}
		matched = matched[start:end]
	}
	return matched, count, nil
}

func matches(tx *model.InventoryTransaction, f *dto.HistoryFilters) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Reference != "" && tx.Reference != f.Reference {
		return false
	}
	if f.StartDate != nil && tx.Timestamp.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && !tx.Timestamp.Before(*f.EndDate) {
		return false
	}
	if f.ItemID != "" {
		found := false
		for _, l := range tx.Lines {
			if l.ItemID == f.ItemID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.LocationID != "" {
		found := false
		for _, l := range tx.Lines {
			if (l.SourceLocationID != nil && *l.SourceLocationID == f.LocationID) ||
				(l.DestinationLocationID != nil && *l.DestinationLocationID == f.LocationID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
