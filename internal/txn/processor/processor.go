package processor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/kitchenops/inventory-service/internal/batch"
	"github.com/kitchenops/inventory-service/internal/costing"
	"github.com/kitchenops/inventory-service/internal/events"
	"github.com/kitchenops/inventory-service/internal/item"
	"github.com/kitchenops/inventory-service/internal/ledger"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/txn"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/kitchenops/inventory-service/pkg/logger"
	"github.com/kitchenops/inventory-service/pkg/redislock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// maxAttempts bounds optimistic retries after a concurrency conflict.
	maxAttempts = 3

	lockTTL        = 5 * time.Second
	lockAttempts   = 3
	lockRetryDelay = 100 * time.Millisecond
)

type processor struct {
	atomic    store.Atomic
	ledger    *ledger.Ledger
	lots      *batch.Tracker
	engine    *costing.Engine
	items     item.Repository
	txLog     txn.Repository
	publisher events.Publisher
	locker    redislock.Locker
	logger    logger.ZapLogger
}

func New(
	atomic store.Atomic,
	ledg *ledger.Ledger,
	lots *batch.Tracker,
	engine *costing.Engine,
	items item.Repository,
	txLog txn.Repository,
	publisher events.Publisher,
	locker redislock.Locker,
	log logger.ZapLogger,
) txn.Processor {
	return &processor{
		atomic:    atomic,
		ledger:    ledg,
		lots:      lots,
		engine:    engine,
		items:     items,
		txLog:     txLog,
		publisher: publisher,
		locker:    locker,
		logger:    log,
	}
}

// run wraps the atomic core with the sequential cross-cutting steps: row
// locking, bounded optimistic retry, commit-time event flush, timing and
// logging. apply re-runs from a fresh read on every attempt.
func (p *processor) run(
	ctx context.Context,
	txType model.TransactionType,
	lockPairs [][2]string,
	apply func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error),
) (*model.InventoryTransaction, error) {
	started := time.Now()

	release, err := p.acquireLocks(ctx, lockPairs)
	if err != nil {
		return nil, err
	}
	defer release()

	var record *model.InventoryTransaction
	for attempt := 1; ; attempt++ {
		buf := &events.Buffer{}
		flushed := false
		flush := func() {
			// Effects are committed; announce them. Delivery is
			// at-least-once, a publish failure does not undo the commit.
			flushed = true
			if flushErr := buf.Flush(context.WithoutCancel(ctx), p.publisher); flushErr != nil {
				p.logger.Error("failed to publish events after commit",
					zap.String("transaction_id", record.ID), zap.Error(flushErr))
			}
		}
		err = p.atomic.Within(ctx, func(ctx context.Context) error {
			var applyErr error
			record, applyErr = apply(ctx, buf)
			if applyErr != nil {
				return applyErr
			}
			// Hold events back until the root scope commits; a joined scope
			// defers to its caller's commit.
			store.OnCommit(ctx, flush)
			return nil
		})
		if err == nil {
			if !flushed && !store.InScope(ctx) {
				flush()
			}
			p.logger.Info("transaction applied",
				zap.String("transaction_id", record.ID),
				zap.String("type", string(txType)),
				zap.Int("lines", len(record.Lines)),
				zap.Duration("took", time.Since(started)),
			)
			return record, nil
		}
		if !model.IsRetryable(err) || attempt >= maxAttempts {
			p.logger.Warn("transaction rejected",
				zap.String("type", string(txType)),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return nil, err
		}
		p.logger.Debug("retrying after concurrency conflict",
			zap.String("type", string(txType)), zap.Int("attempt", attempt))
	}
}

// acquireLocks takes the per-(item,location) locks in sorted order so two
// transactions touching the same pairs cannot deadlock each other.
func (p *processor) acquireLocks(ctx context.Context, pairs [][2]string) (func(), error) {
	keys := make([]string, 0, len(pairs))
	seen := map[string]bool{}
	for _, pair := range pairs {
		key := fmt.Sprintf("lock:stock:%s:%s", pair[0], pair[1])
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	value := uuid.New().String()
	held := []string{}
	releaseAll := func() {
		for _, key := range held {
			if err := p.locker.Release(context.WithoutCancel(ctx), key, value); err != nil {
				p.logger.Error("failed to release lock", zap.String("key", key), zap.Error(err))
			}
		}
	}

	for _, key := range keys {
		acquired := false
		for i := 0; i < lockAttempts; i++ {
			ok, err := p.locker.Acquire(ctx, key, value, lockTTL)
			if err != nil {
				p.logger.Error("lock acquisition error", zap.String("key", key), zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(lockRetryDelay)
		}
		if !acquired {
			releaseAll()
			return nil, fmt.Errorf("could not lock %s: %w", key, model.ErrConcurrencyConflict)
		}
		held = append(held, key)
	}
	return releaseAll, nil
}

func (p *processor) Receive(ctx context.Context, input *dto.ReceiveInput) (*model.InventoryTransaction, error) {
	if len(input.Lines) == 0 {
		return nil, &model.ValidationError{Field: "lines", Reason: "at least one line required"}
	}
	pairs := make([][2]string, 0, len(input.Lines))
	for i, line := range input.Lines {
		switch {
		case line.ItemID == "":
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].itemId", i), Reason: "required"}
		case line.DestinationLocationID == "":
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].destinationLocationId", i), Reason: "required"}
		case line.VendorID == "":
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].vendorId", i), Reason: "required"}
		case line.BatchNumber == "":
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].batchNumber", i), Reason: "required"}
		case !line.Quantity.IsPositive():
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Reason: "must be positive"}
		case line.UnitCost.IsNegative():
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].unitCost", i), Reason: "must not be negative"}
		}
		pairs = append(pairs, [2]string{line.ItemID, line.DestinationLocationID})
	}

	return p.run(ctx, model.TransactionReceived, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		record := p.newRecord(model.TransactionReceived, input.UserID, input.Reference, input.Notes)

		for _, line := range input.Lines {
			if _, err := p.items.GetByID(ctx, line.ItemID); err != nil {
				return nil, err
			}

			vendorID := line.VendorID
			var poID *string
			if line.PurchaseOrderID != "" {
				poID = &line.PurchaseOrderID
			}
			b, err := p.lots.CreateBatch(ctx, &batch.CreateBatchInput{
				ItemID:          line.ItemID,
				LocationID:      line.DestinationLocationID,
				BatchNumber:     line.BatchNumber,
				UnitCost:        line.UnitCost,
				Quantity:        line.Quantity,
				ReceivedDate:    line.ReceivedDate,
				ExpirationDate:  line.ExpirationDate,
				VendorID:        &vendorID,
				PurchaseOrderID: poID,
			})
			if err != nil {
				return nil, err
			}

			if _, err := p.ledger.ApplyMovement(ctx, line.ItemID, line.DestinationLocationID, line.Quantity, decimal.Zero); err != nil {
				return nil, err
			}

			dest := line.DestinationLocationID
			batchID := b.ID
			record.Lines = append(record.Lines, model.TransactionLine{
				ID:                    uuid.New().String(),
				TransactionID:         record.ID,
				ItemID:                line.ItemID,
				Quantity:              line.Quantity,
				DestinationLocationID: &dest,
				BatchID:               &batchID,
				UnitCost:              line.UnitCost,
			})
		}

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) Consume(ctx context.Context, input *dto.ConsumeInput) (*model.InventoryTransaction, error) {
	if len(input.Lines) == 0 {
		return nil, &model.ValidationError{Field: "lines", Reason: "at least one line required"}
	}
	pairs := make([][2]string, 0, len(input.Lines))
	for i, line := range input.Lines {
		switch {
		case line.ItemID == "":
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].itemId", i), Reason: "required"}
		case line.SourceLocationID == "":
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].sourceLocationId", i), Reason: "required"}
		case !line.Quantity.IsPositive():
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Reason: "must be positive"}
		}
		pairs = append(pairs, [2]string{line.ItemID, line.SourceLocationID})
	}

	return p.run(ctx, model.TransactionConsumed, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		record := p.newRecord(model.TransactionConsumed, input.UserID, input.Reference, input.Notes)

		for _, line := range input.Lines {
			plan, err := p.engine.PlanDraw(ctx, &costing.Request{
				ItemID:     line.ItemID,
				LocationID: line.SourceLocationID,
				Quantity:   line.Quantity,
				Method:     line.Method,
				BatchID:    line.BatchID,
			})
			if err != nil {
				return nil, err
			}

			for _, draw := range plan.Draws {
				if _, err := p.lots.Debit(ctx, draw.BatchID, draw.Quantity); err != nil {
					return nil, err
				}
			}

			reservedDelta := decimal.Zero
			if line.ReservationRef != "" {
				released, err := p.drawDownReservation(ctx, line.ReservationRef, line.ItemID, line.SourceLocationID, line.Quantity, model.ReservationConsumed)
				if err != nil {
					return nil, err
				}
				reservedDelta = released.Neg()
			}

			if _, err := p.ledger.ApplyMovement(ctx, line.ItemID, line.SourceLocationID, line.Quantity.Neg(), reservedDelta); err != nil {
				return nil, err
			}

			src := line.SourceLocationID
			for _, draw := range plan.Draws {
				batchID := draw.BatchID
				record.Lines = append(record.Lines, model.TransactionLine{
					ID:               uuid.New().String(),
					TransactionID:    record.ID,
					ItemID:           line.ItemID,
					Quantity:         draw.Quantity,
					SourceLocationID: &src,
					BatchID:          &batchID,
					UnitCost:         draw.UnitCost,
				})
			}

			if err := p.checkLowStock(ctx, buf, line.ItemID, line.SourceLocationID); err != nil {
				return nil, err
			}
		}

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) Transfer(ctx context.Context, input *dto.TransferInput) (*model.InventoryTransaction, error) {
	switch {
	case input.SourceLocationID == "":
		return nil, &model.ValidationError{Field: "sourceLocationId", Reason: "required"}
	case input.DestinationLocationID == "":
		return nil, &model.ValidationError{Field: "destinationLocationId", Reason: "required"}
	case input.SourceLocationID == input.DestinationLocationID:
		return nil, &model.ValidationError{Field: "destinationLocationId", Reason: "must differ from source"}
	case len(input.Lines) == 0:
		return nil, &model.ValidationError{Field: "lines", Reason: "at least one line required"}
	}
	pairs := make([][2]string, 0, 2*len(input.Lines))
	for i, line := range input.Lines {
		if line.ItemID == "" {
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].itemId", i), Reason: "required"}
		}
		if !line.Quantity.IsPositive() {
			return nil, &model.ValidationError{Field: fmt.Sprintf("lines[%d].quantity", i), Reason: "must be positive"}
		}
		pairs = append(pairs,
			[2]string{line.ItemID, input.SourceLocationID},
			[2]string{line.ItemID, input.DestinationLocationID},
		)
	}

	return p.run(ctx, model.TransactionTransferred, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		record := p.newRecord(model.TransactionTransferred, input.UserID, input.Reference, input.Notes)
		src, dest := input.SourceLocationID, input.DestinationLocationID

		for _, line := range input.Lines {
			// Physical selection only: transfers move lots at their original
			// receipt cost regardless of the item's valuation method. A
			// line pinned to a lot draws from that lot alone.
			method := model.CostingFIFO
			if line.BatchID != "" {
				method = model.CostingSpecificIdentification
			}
			plan, err := p.engine.PlanDraw(ctx, &costing.Request{
				ItemID:     line.ItemID,
				LocationID: src,
				Quantity:   line.Quantity,
				Method:     method,
				BatchID:    line.BatchID,
			})
			if err != nil {
				return nil, err
			}

			for _, draw := range plan.Draws {
				origin, err := p.lots.Get(ctx, draw.BatchID)
				if err != nil {
					return nil, err
				}
				if _, err := p.lots.Debit(ctx, draw.BatchID, draw.Quantity); err != nil {
					return nil, err
				}

				// A transfer creates a linked lot at the destination so the
				// original receipt and expiration metadata survive for FIFO
				// ordering and audit there.
				originID := origin.ID
				linked, err := p.lots.CreateBatch(ctx, &batch.CreateBatchInput{
					ItemID:          line.ItemID,
					LocationID:      dest,
					BatchNumber:     transferBatchNumber(origin.BatchNumber),
					UnitCost:        origin.UnitCost,
					Quantity:        draw.Quantity,
					ReceivedDate:    origin.ReceivedDate,
					ExpirationDate:  origin.ExpirationDate,
					VendorID:        origin.VendorID,
					PurchaseOrderID: origin.PurchaseOrderID,
					OriginBatchID:   &originID,
				})
				if err != nil {
					return nil, err
				}

				linkedID := linked.ID
				record.Lines = append(record.Lines, model.TransactionLine{
					ID:                    uuid.New().String(),
					TransactionID:         record.ID,
					ItemID:                line.ItemID,
					Quantity:              draw.Quantity,
					SourceLocationID:      &src,
					DestinationLocationID: &dest,
					BatchID:               &linkedID,
					UnitCost:              origin.UnitCost,
				})
			}

			if _, err := p.ledger.ApplyMovement(ctx, line.ItemID, src, line.Quantity.Neg(), decimal.Zero); err != nil {
				return nil, err
			}
			if _, err := p.ledger.ApplyMovement(ctx, line.ItemID, dest, line.Quantity, decimal.Zero); err != nil {
				return nil, err
			}

			if err := p.checkLowStock(ctx, buf, line.ItemID, src); err != nil {
				return nil, err
			}
		}

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) Adjust(ctx context.Context, input *dto.AdjustInput) (*model.InventoryTransaction, error) {
	switch {
	case input.ItemID == "":
		return nil, &model.ValidationError{Field: "itemId", Reason: "required"}
	case input.LocationID == "":
		return nil, &model.ValidationError{Field: "locationId", Reason: "required"}
	case input.QuantityDelta.IsZero():
		return nil, &model.ValidationError{Field: "quantityDelta", Reason: "must not be zero"}
	case input.Notes == "":
		return nil, &model.ValidationError{Field: "notes", Reason: "adjustment justification required"}
	}

	pairs := [][2]string{{input.ItemID, input.LocationID}}
	return p.run(ctx, model.TransactionAdjusted, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		if _, err := p.items.GetByID(ctx, input.ItemID); err != nil {
			return nil, err
		}

		// Adjustments correct the ledger to the counted system-of-record
		// value; batch costing is deliberately bypassed.
		if _, err := p.ledger.ApplyMovement(ctx, input.ItemID, input.LocationID, input.QuantityDelta, decimal.Zero); err != nil {
			return nil, err
		}

		record := p.newRecord(model.TransactionAdjusted, input.UserID, input.Reference, input.Notes)
		loc := input.LocationID
		record.Lines = append(record.Lines, model.TransactionLine{
			ID:                    uuid.New().String(),
			TransactionID:         record.ID,
			ItemID:                input.ItemID,
			Quantity:              input.QuantityDelta,
			DestinationLocationID: &loc,
			UnitCost:              decimal.Zero,
		})

		if input.QuantityDelta.IsNegative() {
			if err := p.checkLowStock(ctx, buf, input.ItemID, input.LocationID); err != nil {
				return nil, err
			}
		}

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) Waste(ctx context.Context, input *dto.WasteInput) (*model.InventoryTransaction, error) {
	switch {
	case input.ItemID == "":
		return nil, &model.ValidationError{Field: "itemId", Reason: "required"}
	case input.LocationID == "":
		return nil, &model.ValidationError{Field: "locationId", Reason: "required"}
	case !input.Quantity.IsPositive():
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	case input.ReasonCode == "":
		return nil, &model.ValidationError{Field: "reasonCode", Reason: "required"}
	}

	pairs := [][2]string{{input.ItemID, input.LocationID}}
	return p.run(ctx, model.TransactionWasted, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		plan, err := p.engine.PlanDraw(ctx, &costing.Request{
			ItemID:     input.ItemID,
			LocationID: input.LocationID,
			Quantity:   input.Quantity,
		})
		if err != nil {
			return nil, err
		}

		for _, draw := range plan.Draws {
			if _, err := p.lots.Debit(ctx, draw.BatchID, draw.Quantity); err != nil {
				return nil, err
			}
		}
		if _, err := p.ledger.ApplyMovement(ctx, input.ItemID, input.LocationID, input.Quantity.Neg(), decimal.Zero); err != nil {
			return nil, err
		}

		record := p.newRecord(model.TransactionWasted, input.UserID, input.Reference, input.ReasonCode)
		src := input.LocationID
		for _, draw := range plan.Draws {
			batchID := draw.BatchID
			record.Lines = append(record.Lines, model.TransactionLine{
				ID:               uuid.New().String(),
				TransactionID:    record.ID,
				ItemID:           input.ItemID,
				Quantity:         draw.Quantity,
				SourceLocationID: &src,
				BatchID:          &batchID,
				UnitCost:         draw.UnitCost,
			})
		}

		if err := p.checkLowStock(ctx, buf, input.ItemID, input.LocationID); err != nil {
			return nil, err
		}

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) Reserve(ctx context.Context, input *dto.ReserveInput) (*model.InventoryTransaction, error) {
	switch {
	case input.ItemID == "":
		return nil, &model.ValidationError{Field: "itemId", Reason: "required"}
	case input.LocationID == "":
		return nil, &model.ValidationError{Field: "locationId", Reason: "required"}
	case !input.Quantity.IsPositive():
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	case input.Reference == "":
		return nil, &model.ValidationError{Field: "reference", Reason: "required"}
	}

	pairs := [][2]string{{input.ItemID, input.LocationID}}
	return p.run(ctx, model.TransactionReserved, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		if _, err := p.items.GetByID(ctx, input.ItemID); err != nil {
			return nil, err
		}

		if _, err := p.ledger.Reserve(ctx, input.ItemID, input.LocationID, input.Quantity); err != nil {
			return nil, err
		}

		now := time.Now()
		if err := p.ledger.RecordReservation(ctx, &model.Reservation{
			ID:         uuid.New().String(),
			ItemID:     input.ItemID,
			LocationID: input.LocationID,
			Quantity:   input.Quantity,
			Reference:  input.Reference,
			Status:     model.ReservationActive,
			ExpiresAt:  input.ExpiresAt,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return nil, err
		}

		// Reserving shrinks the available quantity just like a debit does.
		if err := p.checkLowStock(ctx, buf, input.ItemID, input.LocationID); err != nil {
			return nil, err
		}

		record := p.newRecord(model.TransactionReserved, input.UserID, input.Reference, "")
		src := input.LocationID
		record.Lines = append(record.Lines, model.TransactionLine{
			ID:               uuid.New().String(),
			TransactionID:    record.ID,
			ItemID:           input.ItemID,
			Quantity:         input.Quantity,
			SourceLocationID: &src,
			UnitCost:         decimal.Zero,
		})

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) Release(ctx context.Context, input *dto.ReleaseInput) (*model.InventoryTransaction, error) {
	switch {
	case input.ItemID == "":
		return nil, &model.ValidationError{Field: "itemId", Reason: "required"}
	case input.LocationID == "":
		return nil, &model.ValidationError{Field: "locationId", Reason: "required"}
	case input.Quantity.IsNegative():
		return nil, &model.ValidationError{Field: "quantity", Reason: "must not be negative"}
	case input.Quantity.IsZero() && input.Reference == "":
		return nil, &model.ValidationError{Field: "quantity", Reason: "quantity or reference required"}
	}

	pairs := [][2]string{{input.ItemID, input.LocationID}}
	return p.run(ctx, model.TransactionReleased, pairs, func(ctx context.Context, buf *events.Buffer) (*model.InventoryTransaction, error) {
		quantity := input.Quantity
		if input.Reference != "" {
			res, err := p.ledger.ActiveReservation(ctx, input.Reference)
			if err != nil {
				return nil, err
			}
			if quantity.IsZero() {
				quantity = res.Quantity
			}
			freed, err := p.drawDownReservation(ctx, input.Reference, input.ItemID, input.LocationID, quantity, model.ReservationReleased)
			if err != nil {
				return nil, err
			}
			// Never release more than the reservation actually held.
			quantity = freed
		}

		if _, err := p.ledger.Release(ctx, input.ItemID, input.LocationID, quantity); err != nil {
			return nil, err
		}

		record := p.newRecord(model.TransactionReleased, input.UserID, input.Reference, "")
		src := input.LocationID
		record.Lines = append(record.Lines, model.TransactionLine{
			ID:               uuid.New().String(),
			TransactionID:    record.ID,
			ItemID:           input.ItemID,
			Quantity:         quantity,
			SourceLocationID: &src,
			UnitCost:         decimal.Zero,
		})

		return p.finish(ctx, record, buf)
	})
}

func (p *processor) History(ctx context.Context, filters *dto.HistoryFilters) ([]model.InventoryTransaction, int, error) {
	return p.txLog.Find(ctx, filters)
}

func (p *processor) newRecord(txType model.TransactionType, userID, reference, notes string) *model.InventoryTransaction {
	return &model.InventoryTransaction{
		ID:        uuid.New().String(),
		Type:      txType,
		Timestamp: time.Now(),
		UserID:    userID,
		Reference: reference,
		Notes:     notes,
	}
}

// finish persists the immutable record and buffers the completion event.
func (p *processor) finish(ctx context.Context, record *model.InventoryTransaction, buf *events.Buffer) (*model.InventoryTransaction, error) {
	if err := p.txLog.Create(ctx, record); err != nil {
		return nil, err
	}

	lines := make([]events.TransactionLine, 0, len(record.Lines))
	for _, l := range record.Lines {
		el := events.TransactionLine{
			ItemID:   l.ItemID,
			Quantity: l.Quantity,
			UnitCost: l.UnitCost,
		}
		if l.SourceLocationID != nil {
			el.SourceLocationID = *l.SourceLocationID
		}
		if l.DestinationLocationID != nil {
			el.DestinationLocationID = *l.DestinationLocationID
		}
		if l.BatchID != nil {
			el.BatchID = *l.BatchID
		}
		lines = append(lines, el)
	}
	buf.Add(&events.TransactionCompleted{
		TransactionID: record.ID,
		Type:          string(record.Type),
		Reference:     record.Reference,
		Lines:         lines,
		CompletedAt:   record.Timestamp,
	})
	return record, nil
}

// checkLowStock buffers a low-stock signal when the pair's available
// quantity has fallen below the item's reorder point.
func (p *processor) checkLowStock(ctx context.Context, buf *events.Buffer, itemID, locationID string) error {
	it, err := p.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if !it.ReorderPoint.IsPositive() {
		return nil
	}

	level, err := p.ledger.GetLevel(ctx, itemID, locationID)
	if err != nil {
		return err
	}
	if level.AvailableQuantity().LessThan(it.ReorderPoint) {
		buf.Add(&events.LowStockDetected{
			ItemID:            itemID,
			LocationID:        locationID,
			AvailableQuantity: level.AvailableQuantity(),
			Threshold:         it.ReorderPoint,
			DetectedAt:        time.Now(),
		})
	}
	return nil
}

// drawDownReservation reduces the active reservation behind a reference and
// returns the reserved quantity actually freed. The reservation must be held
// for the given item/location pair, since the caller applies the freed
// quantity to that pair's ledger row. A fully drawn reservation moves to the
// given terminal status; a partial draw stays active.
func (p *processor) drawDownReservation(ctx context.Context, reference, itemID, locationID string, quantity decimal.Decimal, terminal model.ReservationStatus) (decimal.Decimal, error) {
	res, err := p.ledger.ActiveReservation(ctx, reference)
	if err != nil {
		return decimal.Zero, err
	}
	if res.ItemID != itemID || res.LocationID != locationID {
		return decimal.Zero, &model.ValidationError{
			Field:  "reference",
			Reason: fmt.Sprintf("reservation %q is held for %s at %s", reference, res.ItemID, res.LocationID),
		}
	}

	freed := decimal.Min(res.Quantity, quantity)
	res.Quantity = res.Quantity.Sub(freed)
	status := model.ReservationActive
	if res.Quantity.IsZero() {
		status = terminal
	}
	if err := p.ledger.SettleReservation(ctx, res, status); err != nil {
		return decimal.Zero, err
	}
	return freed, nil
}

func transferBatchNumber(origin string) string {
	return fmt.Sprintf("%s-T%s", origin, uuid.New().String()[:8])
}
