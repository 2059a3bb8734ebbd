package batch

import (
	"context"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// lotPageSize is the keyset page pulled per repository round trip while
// iterating active lots.
const lotPageSize = 64

// CreateBatchInput carries everything needed to record a new costed lot.
type CreateBatchInput struct {
	ItemID          string
	LocationID      string
	BatchNumber     string
	UnitCost        decimal.Decimal
	Quantity        decimal.Decimal
	ReceivedDate    time.Time
	ExpirationDate  *time.Time
	VendorID        *string
	PurchaseOrderID *string
	OriginBatchID   *string
}

// Tracker owns the set of costed lots per item/location.
type Tracker struct {
	repo   Repository
	logger logger.ZapLogger
}

func NewTracker(repo Repository, log logger.ZapLogger) *Tracker {
	return &Tracker{repo: repo, logger: log}
}

func (t *Tracker) CreateBatch(ctx context.Context, input *CreateBatchInput) (*model.Batch, error) {
	switch {
	case input.ItemID == "":
		return nil, &model.ValidationError{Field: "itemId", Reason: "required"}
	case input.LocationID == "":
		return nil, &model.ValidationError{Field: "locationId", Reason: "required"}
	case input.BatchNumber == "":
		return nil, &model.ValidationError{Field: "batchNumber", Reason: "required"}
	case !input.Quantity.IsPositive():
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	case input.UnitCost.IsNegative():
		return nil, &model.ValidationError{Field: "unitCost", Reason: "must not be negative"}
	}

	exists, err := t.repo.NumberExists(ctx, input.ItemID, input.BatchNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &model.DuplicateBatchNumberError{ItemID: input.ItemID, BatchNumber: input.BatchNumber}
	}

	now := time.Now()
	received := input.ReceivedDate
	if received.IsZero() {
		received = now
	}

	b := &model.Batch{
		ID:                uuid.New().String(),
		ItemID:            input.ItemID,
		LocationID:        input.LocationID,
		BatchNumber:       input.BatchNumber,
		VendorID:          input.VendorID,
		PurchaseOrderID:   input.PurchaseOrderID,
		OriginBatchID:     input.OriginBatchID,
		UnitCost:          input.UnitCost,
		InitialQuantity:   input.Quantity,
		RemainingQuantity: input.Quantity,
		ReceivedDate:      received,
		ExpirationDate:    input.ExpirationDate,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := t.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	t.logger.Debug("batch created",
		zap.String("batch_id", b.ID),
		zap.String("item_id", b.ItemID),
		zap.String("batch_number", b.BatchNumber),
	)
	return b, nil
}

func (t *Tracker) Get(ctx context.Context, id string) (*model.Batch, error) {
	return t.repo.GetByID(ctx, id)
}

// ActiveLots produces a lazy, restartable sequence of active batches for the
// item/location, pulled page by page from the repository. Batches with zero
// remaining quantity never appear.
func (t *Tracker) ActiveLots(ctx context.Context, itemID, locationID string, order LotOrder) iter.Seq2[model.Batch, error] {
	return func(yield func(model.Batch, error) bool) {
		var after *PageKey
		for {
			page, err := t.repo.ListActive(ctx, itemID, locationID, order, after, lotPageSize)
			if err != nil {
				yield(model.Batch{}, err)
				return
			}
			for _, b := range page {
				if !yield(b, nil) {
					return
				}
			}
			if len(page) < lotPageSize {
				return
			}
			last := page[len(page)-1]
			after = &PageKey{ReceivedDate: last.ReceivedDate, ID: last.ID}
		}
	}
}

// Debit decreases the batch's remaining quantity, deactivating it at zero.
// The conditional update protects against a concurrent draw on the same lot.
func (t *Tracker) Debit(ctx context.Context, batchID string, qty decimal.Decimal) (*model.Batch, error) {
	if !qty.IsPositive() {
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	b, err := t.repo.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive || qty.GreaterThan(b.RemainingQuantity) {
		return nil, &model.InsufficientBatchQuantityError{
			BatchID:   batchID,
			Requested: qty,
			Remaining: b.RemainingQuantity,
		}
	}

	ok, err := t.repo.Debit(ctx, batchID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Remaining quantity moved under us between the read and the update.
		return nil, model.ErrConcurrencyConflict
	}

	return t.repo.GetByID(ctx, batchID)
}

// ActiveTotals reports total remaining quantity and value across the
// item/location's active lots.
func (t *Tracker) ActiveTotals(ctx context.Context, itemID, locationID string) (qty, value decimal.Decimal, err error) {
	return t.repo.ActiveTotals(ctx, itemID, locationID)
}

// LatestActive returns the most recently received active lot.
func (t *Tracker) LatestActive(ctx context.Context, itemID, locationID string) (*model.Batch, error) {
	return t.repo.LatestActive(ctx, itemID, locationID)
}

// ExpiringWithin lists active batches whose expiration date falls within the
// next `days` days.
func (t *Tracker) ExpiringWithin(ctx context.Context, days int) ([]model.Batch, error) {
	return t.repo.ListExpiring(ctx, time.Now().AddDate(0, 0, days))
}

// Expired lists active batches already past their expiration date as of asOf.
func (t *Tracker) Expired(ctx context.Context, asOf time.Time) ([]model.Batch, error) {
	return t.repo.ListExpired(ctx, asOf)
}

// List returns all batches for an item/location, optionally including
// drawn-down inactive lots.
func (t *Tracker) List(ctx context.Context, itemID, locationID string, includeInactive bool) ([]model.Batch, error) {
	return t.repo.ListByItemLocation(ctx, itemID, locationID, includeInactive)
}
