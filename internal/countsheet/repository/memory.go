package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
)

type MemoryRepository struct {
	mem *store.Memory
}

func NewMemoryRepository(mem *store.Memory) *MemoryRepository {
	return &MemoryRepository{mem: mem}
}

func (r *MemoryRepository) Create(ctx context.Context, sheet *model.CountSheet) error {
	defer r.mem.Lock(ctx)()
	r.mem.Sheets[sheet.ID] = cloneSheet(sheet)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.CountSheet, error) {
	defer r.mem.RLock(ctx)()
	sheet, ok := r.mem.Sheets[id]
	if !ok {
		return nil, fmt.Errorf("count sheet %s: %w", id, model.ErrNotFound)
	}
	out := cloneSheet(&sheet)
	return &out, nil
}

func (r *MemoryRepository) Update(ctx context.Context, sheet *model.CountSheet) error {
	defer r.mem.Lock(ctx)()
	if _, ok := r.mem.Sheets[sheet.ID]; !ok {
		return fmt.Errorf("count sheet %s: %w", sheet.ID, model.ErrNotFound)
	}
	r.mem.Sheets[sheet.ID] = cloneSheet(sheet)
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, f *dto.ListFilters) ([]model.CountSheet, int, error) {
	defer r.mem.RLock(ctx)()

	matched := []model.CountSheet{}
	for _, sheet := range r.mem.Sheets {
		if f.LocationID != "" && sheet.LocationID != f.LocationID {
			continue
		}
		if f.Status != "" && sheet.Status != f.Status {
			continue
		}
		matched = append(matched, cloneSheet(&sheet))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CountDate.Equal(matched[j].CountDate) {
			return matched[i].CountDate.After(matched[j].CountDate)
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

func cloneSheet(sheet *model.CountSheet) model.CountSheet {
	out := *sheet
	out.Items = append([]model.CountSheetItem(nil), sheet.Items...)
	return out
}
