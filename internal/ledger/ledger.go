// Package ledger owns the aggregate current/reserved/available quantities
// per item and location and enforces the conservation invariants on every
// movement.
package ledger

import (
	"context"
	"time"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Ledger struct {
	repo   Repository
	logger logger.ZapLogger
}

func New(repo Repository, log logger.ZapLogger) *Ledger {
	return &Ledger{repo: repo, logger: log}
}

// GetLevel returns the stock level for the pair, zero-valued when nothing
// has been recorded yet.
func (l *Ledger) GetLevel(ctx context.Context, itemID, locationID string) (*model.StockLevel, error) {
	level, err := l.repo.Get(ctx, itemID, locationID)
	if err != nil {
		return nil, err
	}
	if level == nil {
		return &model.StockLevel{
			ItemID:           itemID,
			LocationID:       locationID,
			CurrentQuantity:  decimal.Zero,
			ReservedQuantity: decimal.Zero,
		}, nil
	}
	return level, nil
}

// ApplyMovement is the only mutator of stock levels. It applies the signed
// deltas, rejects anything that would break the invariants, and writes under
// a version check so a losing concurrent writer re-validates instead of
// blindly reapplying.
func (l *Ledger) ApplyMovement(ctx context.Context, itemID, locationID string, quantityDelta, reservedDelta decimal.Decimal) (*model.StockLevel, error) {
	existing, err := l.repo.Get(ctx, itemID, locationID)
	if err != nil {
		return nil, err
	}

	level := existing
	if level == nil {
		level = &model.StockLevel{
			ItemID:           itemID,
			LocationID:       locationID,
			CurrentQuantity:  decimal.Zero,
			ReservedQuantity: decimal.Zero,
		}
	}

	level.CurrentQuantity = level.CurrentQuantity.Add(quantityDelta)
	level.ReservedQuantity = level.ReservedQuantity.Add(reservedDelta)
	level.UpdatedAt = time.Now()

	if !level.Valid() {
		return nil, &model.StockInvariantViolationError{
			ItemID:     itemID,
			LocationID: locationID,
			Current:    level.CurrentQuantity,
			Reserved:   level.ReservedQuantity,
		}
	}

	if existing == nil {
		err = l.repo.Insert(ctx, level)
	} else {
		err = l.repo.UpdateVersioned(ctx, level)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Debug("stock level moved",
		zap.String("item_id", itemID),
		zap.String("location_id", locationID),
		zap.String("quantity_delta", quantityDelta.String()),
		zap.String("reserved_delta", reservedDelta.String()),
	)
	return level, nil
}

// Reserve increases reservedQuantity without moving currentQuantity.
func (l *Ledger) Reserve(ctx context.Context, itemID, locationID string, quantity decimal.Decimal) (*model.StockLevel, error) {
	return l.ApplyMovement(ctx, itemID, locationID, decimal.Zero, quantity)
}

// Release decreases reservedQuantity without moving currentQuantity.
func (l *Ledger) Release(ctx context.Context, itemID, locationID string, quantity decimal.Decimal) (*model.StockLevel, error) {
	return l.ApplyMovement(ctx, itemID, locationID, decimal.Zero, quantity.Neg())
}

// LevelsAtLocation lists every recorded stock level for a location; the
// count-sheet workflow snapshots from it.
func (l *Ledger) LevelsAtLocation(ctx context.Context, locationID string) ([]model.StockLevel, error) {
	return l.repo.ListByLocation(ctx, locationID)
}

// LowStock lists levels at a location sitting below their item's reorder
// point.
func (l *Ledger) LowStock(ctx context.Context, locationID string) ([]model.StockLevel, error) {
	return l.repo.ListBelowReorder(ctx, locationID)
}

// RecordReservation persists a reservation record alongside the reserved
// quantity it represents.
func (l *Ledger) RecordReservation(ctx context.Context, res *model.Reservation) error {
	return l.repo.CreateReservation(ctx, res)
}

// ActiveReservation resolves the active reservation tied to a reference id.
func (l *Ledger) ActiveReservation(ctx context.Context, reference string) (*model.Reservation, error) {
	return l.repo.ActiveReservationByReference(ctx, reference)
}

// SettleReservation writes a reservation's drawn-down quantity and status.
func (l *Ledger) SettleReservation(ctx context.Context, res *model.Reservation, status model.ReservationStatus) error {
	res.Status = status
	res.UpdatedAt = time.Now()
	return l.repo.UpdateReservation(ctx, res)
}

// ExpiredReservations lists active reservations past their expiration.
func (l *Ledger) ExpiredReservations(ctx context.Context, asOf time.Time) ([]model.Reservation, error) {
	return l.repo.ListExpiredReservations(ctx, asOf)
}
