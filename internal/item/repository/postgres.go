package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Item, error) {
	var it model.Item
	query := `SELECT * FROM items WHERE id = $1 LIMIT 1`
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &it, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &it, nil
}

func (r *PGRepository) Create(ctx context.Context, it *model.Item) error {
	query := `
        INSERT INTO items (
            id, sku, name, unit, costing_method, standard_cost,
            reorder_point, reorder_quantity, is_active, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :unit, :costing_method, :standard_cost,
            :reorder_point, :reorder_quantity, :is_active, :created_at, :updated_at
        )
    `
	_, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, it)
	return err
}

func (r *PGRepository) Update(ctx context.Context, it *model.Item) error {
	query := `
        UPDATE items SET
            sku = :sku, name = :name, unit = :unit,
            costing_method = :costing_method, standard_cost = :standard_cost,
            reorder_point = :reorder_point, reorder_quantity = :reorder_quantity,
            is_active = :is_active, updated_at = :updated_at
        WHERE id = :id
    `
	res, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, it)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %s: %w", it.ID, model.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.Item, error) {
	items := []model.Item{}
	query := `SELECT * FROM items`
	if activeOnly {
		query += ` WHERE is_active = true`
	}
	query += ` ORDER BY name`
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &items, query)
	return items, err
}
