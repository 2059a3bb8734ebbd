package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kitchenops/inventory-service/internal/batch"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, b *model.Batch) error {
	query := `
        INSERT INTO batches (
            id, item_id, location_id, batch_number, vendor_id, purchase_order_id,
            origin_batch_id, unit_cost, initial_quantity, remaining_quantity,
            received_date, expiration_date, is_active, created_at, updated_at
        )
        VALUES (
            :id, :item_id, :location_id, :batch_number, :vendor_id, :purchase_order_id,
            :origin_batch_id, :unit_cost, :initial_quantity, :remaining_quantity,
            :received_date, :expiration_date, :is_active, :created_at, :updated_at
        )
    `
	_, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, b)
	if err != nil && isUniqueViolation(err) {
		return &model.DuplicateBatchNumberError{ItemID: b.ItemID, BatchNumber: b.BatchNumber}
	}
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.Batch, error) {
	var b model.Batch
	query := `SELECT * FROM batches WHERE id = $1 LIMIT 1`
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &b, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("batch %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) NumberExists(ctx context.Context, itemID, batchNumber string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM batches WHERE item_id = $1 AND batch_number = $2)`
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &exists, query, itemID, batchNumber)
	return exists, err
}

func (r *PGRepository) ListActive(ctx context.Context, itemID, locationID string, order batch.LotOrder, after *batch.PageKey, limit int) ([]model.Batch, error) {
	batches := []model.Batch{}
	query := `
        SELECT * FROM batches
        WHERE item_id = $1 AND location_id = $2 AND is_active = true AND remaining_quantity > 0
    `
	args := []interface{}{itemID, locationID}

	if after != nil {
		if order == batch.ReceivedDateAsc {
			query += ` AND (received_date, id) > ($3, $4)`
		} else {
			query += ` AND (received_date, id) < ($3, $4)`
		}
		args = append(args, after.ReceivedDate, after.ID)
	}

	if order == batch.ReceivedDateAsc {
		query += ` ORDER BY received_date ASC, id ASC`
	} else {
		query += ` ORDER BY received_date DESC, id DESC`
	}
	query += fmt.Sprintf(` LIMIT %d`, limit)

	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &batches, query, args...)
	return batches, err
}

func (r *PGRepository) Debit(ctx context.Context, batchID string, qty decimal.Decimal) (bool, error) {
	query := `
        UPDATE batches SET
            remaining_quantity = remaining_quantity - $2,
            is_active = (remaining_quantity - $2 > 0),
            updated_at = now()
        WHERE id = $1 AND is_active = true AND remaining_quantity >= $2
    `
	res, err := store.QuerierFrom(ctx, r.DB).ExecContext(ctx, query, batchID, qty)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepository) ActiveTotals(ctx context.Context, itemID, locationID string) (decimal.Decimal, decimal.Decimal, error) {
	var totals struct {
		Qty   decimal.Decimal `db:"qty"`
		Value decimal.Decimal `db:"value"`
	}
	query := `
        SELECT
            COALESCE(SUM(remaining_quantity), 0) AS qty,
            COALESCE(SUM(remaining_quantity * unit_cost), 0) AS value
        FROM batches
        WHERE item_id = $1 AND location_id = $2 AND is_active = true AND remaining_quantity > 0
    `
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &totals, query, itemID, locationID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return totals.Qty, totals.Value, nil
}

func (r *PGRepository) LatestActive(ctx context.Context, itemID, locationID string) (*model.Batch, error) {
	var b model.Batch
	query := `
        SELECT * FROM batches
        WHERE item_id = $1 AND location_id = $2 AND is_active = true AND remaining_quantity > 0
        ORDER BY received_date DESC, id DESC
        LIMIT 1
    `
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &b, query, itemID, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("no active batch for item %s at %s: %w", itemID, locationID, model.ErrNotFound)
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) ListExpiring(ctx context.Context, before time.Time) ([]model.Batch, error) {
	batches := []model.Batch{}
	query := `
        SELECT * FROM batches
        WHERE is_active = true AND remaining_quantity > 0
          AND expiration_date IS NOT NULL
          AND expiration_date >= now() AND expiration_date < $1
        ORDER BY expiration_date ASC
    `
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &batches, query, before)
	return batches, err
}

func (r *PGRepository) ListExpired(ctx context.Context, asOf time.Time) ([]model.Batch, error) {
	batches := []model.Batch{}
	query := `
        SELECT * FROM batches
        WHERE is_active = true AND remaining_quantity > 0
          AND expiration_date IS NOT NULL AND expiration_date < $1
        ORDER BY expiration_date ASC
    `
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &batches, query, asOf)
	return batches, err
}

func (r *PGRepository) ListByItemLocation(ctx context.Context, itemID, locationID string, includeInactive bool) ([]model.Batch, error) {
	batches := []model.Batch{}
	query := `SELECT * FROM batches WHERE item_id = $1 AND location_id = $2`
	if !includeInactive {
		query += ` AND is_active = true`
	}
	query += ` ORDER BY received_date ASC, id ASC`
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &batches, query, itemID, locationID)
	return batches, err
}

// isUniqueViolation matches the postgres unique_violation code surfaced by
// lib/pq without importing its error type here.
func isUniqueViolation(err error) bool {
	type coder interface{ SQLState() string }
	var c coder
	if errors.As(err, &c) {
		return c.SQLState() == "23505"
	}
	return false
}
