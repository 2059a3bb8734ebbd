package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
)

type MemoryRepository struct {
	mem *store.Memory
}

func NewMemoryRepository(mem *store.Memory) *MemoryRepository {
	return &MemoryRepository{mem: mem}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	defer r.mem.RLock(ctx)()
	it, ok := r.mem.Items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	return &it, nil
}

func (r *MemoryRepository) Create(ctx context.Context, it *model.Item) error {
	defer r.mem.Lock(ctx)()
	r.mem.Items[it.ID] = *it
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, it *model.Item) error {
	defer r.mem.Lock(ctx)()
	if _, ok := r.mem.Items[it.ID]; !ok {
		return fmt.Errorf("item %s: %w", it.ID, model.ErrNotFound)
	}
	r.mem.Items[it.ID] = *it
	return nil
}

func (r *MemoryRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Item, error) {
	defer r.mem.RLock(ctx)()
	items := []model.Item{}
	for _, it := range r.mem.Items {
		if activeOnly && !it.IsActive {
			continue
		}
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}
