package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

func (r *PGRepository) Get(ctx context.Context, itemID, locationID string) (*model.StockLevel, error) {
	var level model.StockLevel
	query := `SELECT * FROM stock_levels WHERE item_id = $1 AND location_id = $2 LIMIT 1`
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &level, query, itemID, locationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &level, nil
}

func (r *PGRepository) Insert(ctx context.Context, level *model.StockLevel) error {
	level.Version = 1
	query := `
        INSERT INTO stock_levels (item_id, location_id, current_quantity, reserved_quantity, version, updated_at)
        VALUES (:item_id, :location_id, :current_quantity, :reserved_quantity, :version, :updated_at)
        ON CONFLICT (item_id, location_id) DO NOTHING
    `
	res, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, level)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Someone else created the row first; caller re-reads and retries.
		return fmt.Errorf("stock level %s/%s already created: %w",
			level.ItemID, level.LocationID, model.ErrConcurrencyConflict)
	}
	return nil
}

func (r *PGRepository) UpdateVersioned(ctx context.Context, level *model.StockLevel) error {
	query := `
        UPDATE stock_levels SET
            current_quantity = :current_quantity,
            reserved_quantity = :reserved_quantity,
            version = :version + 1,
            updated_at = :updated_at
        WHERE item_id = :item_id AND location_id = :location_id AND version = :version
    `
	res, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, level)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("stock level %s/%s version %d is stale: %w",
			level.ItemID, level.LocationID, level.Version, model.ErrConcurrencyConflict)
	}
	level.Version++
	return nil
}

func (r *PGRepository) ListByLocation(ctx context.Context, locationID string) ([]model.StockLevel, error) {
	levels := []model.StockLevel{}
	query := `SELECT * FROM stock_levels WHERE location_id = $1 ORDER BY item_id`
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &levels, query, locationID)
	return levels, err
}

func (r *PGRepository) ListBelowReorder(ctx context.Context, locationID string) ([]model.StockLevel, error) {
	levels := []model.StockLevel{}
	query := `
        SELECT s.* FROM stock_levels s
        JOIN items i ON i.id = s.item_id
        WHERE s.location_id = $1
          AND i.is_active
          AND i.reorder_point > 0
          AND (s.current_quantity - s.reserved_quantity) < i.reorder_point
        ORDER BY s.item_id
    `
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &levels, query, locationID)
	return levels, err
}

func (r *PGRepository) CreateReservation(ctx context.Context, res *model.Reservation) error {
	query := `
        INSERT INTO reservations (id, item_id, location_id, quantity, reference, status, expires_at, created_at, updated_at)
        VALUES (:id, :item_id, :location_id, :quantity, :reference, :status, :expires_at, :created_at, :updated_at)
    `
	_, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, res)
	return err
}

func (r *PGRepository) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	query := `SELECT * FROM reservations WHERE id = $1 LIMIT 1`
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &res, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) ActiveReservationByReference(ctx context.Context, reference string) (*model.Reservation, error) {
	var res model.Reservation
	query := `
        SELECT * FROM reservations
        WHERE reference = $1 AND status = $2
        ORDER BY created_at ASC
        LIMIT 1
    `
	err := store.QuerierFrom(ctx, r.DB).GetContext(ctx, &res, query, reference, model.ReservationActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active reservation for %q: %w", reference, model.ErrNotFound)
		}
		return nil, err
	}
	return &res, nil
}

func (r *PGRepository) UpdateReservation(ctx context.Context, res *model.Reservation) error {
	query := `
        UPDATE reservations SET
            quantity = :quantity, status = :status, expires_at = :expires_at, updated_at = :updated_at
        WHERE id = :id
    `
	result, err := store.QuerierFrom(ctx, r.DB).NamedExecContext(ctx, query, res)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("reservation %s: %w", res.ID, model.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) ListExpiredReservations(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	reservations := []model.Reservation{}
	query := `
        SELECT * FROM reservations
        WHERE status = $1 AND expires_at IS NOT NULL AND expires_at < $2
        ORDER BY expires_at ASC
    `
	err := store.QuerierFrom(ctx, r.DB).SelectContext(ctx, &reservations, query, model.ReservationActive, asOf)
	return reservations, err
}
