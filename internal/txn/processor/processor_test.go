package processor_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kitchenops/inventory-service/internal/batch"
	batchrepo "github.com/kitchenops/inventory-service/internal/batch/repository"
	"github.com/kitchenops/inventory-service/internal/costing"
	"github.com/kitchenops/inventory-service/internal/events"
	itemrepo "github.com/kitchenops/inventory-service/internal/item/repository"
	"github.com/kitchenops/inventory-service/internal/ledger"
	ledgerrepo "github.com/kitchenops/inventory-service/internal/ledger/repository"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/txn"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/kitchenops/inventory-service/internal/txn/processor"
	txnrepo "github.com/kitchenops/inventory-service/internal/txn/repository"
	"github.com/kitchenops/inventory-service/pkg/redislock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, evts ...events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *capturePublisher) byType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	matched := []events.Event{}
	for _, e := range p.events {
		if e.EventType() == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

type fixture struct {
	processor txn.Processor
	ledger    *ledger.Ledger
	tracker   *batch.Tracker
	items     *itemrepo.MemoryRepository
	publisher *capturePublisher
	mem       *store.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem := store.NewMemory()
	items := itemrepo.NewMemoryRepository(mem)
	tracker := batch.NewTracker(batchrepo.NewMemoryRepository(mem), zap.NewNop())
	ledg := ledger.New(ledgerrepo.NewMemoryRepository(mem), zap.NewNop())
	engine := costing.NewEngine(tracker, items)
	publisher := &capturePublisher{}

	proc := processor.New(
		mem, ledg, tracker, engine, items,
		txnrepo.NewMemoryRepository(mem),
		publisher, redislock.NewInProcess(), zap.NewNop(),
	)
	return &fixture{
		processor: proc,
		ledger:    ledg,
		tracker:   tracker,
		items:     items,
		publisher: publisher,
		mem:       mem,
	}
}

func (f *fixture) seedItem(t *testing.T, id string, method model.CostingMethod, reorderPoint float64) {
	t.Helper()
	require.NoError(t, f.items.Create(context.Background(), &model.Item{
		ID:            id,
		SKU:           "SKU-" + id,
		Name:          id,
		Unit:          "kg",
		CostingMethod: method,
		ReorderPoint:  decimal.NewFromFloat(reorderPoint),
		IsActive:      true,
	}))
}

func (f *fixture) receive(t *testing.T, itemID, locationID, number string, qty, cost float64) *model.InventoryTransaction {
	t.Helper()
	rec, err := f.processor.Receive(context.Background(), &dto.ReceiveInput{
		UserID: "tester",
		Lines: []dto.ReceiveLine{{
			ItemID:                itemID,
			DestinationLocationID: locationID,
			BatchNumber:           number,
			VendorID:              "vendor-1",
			Quantity:              decimal.NewFromFloat(qty),
			UnitCost:              decimal.NewFromFloat(cost),
		}},
	})
	require.NoError(t, err)
	return rec
}

func (f *fixture) level(t *testing.T, itemID, locationID string) *model.StockLevel {
	t.Helper()
	level, err := f.ledger.GetLevel(context.Background(), itemID, locationID)
	require.NoError(t, err)
	return level
}

func TestReceive(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)

	rec := f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2.5)
	assert.Equal(t, model.TransactionReceived, rec.Type)
	require.Len(t, rec.Lines, 1)
	require.NotNil(t, rec.Lines[0].BatchID)

	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(10)))

	b, err := f.tracker.Get(context.Background(), *rec.Lines[0].BatchID)
	require.NoError(t, err)
	assert.True(t, b.RemainingQuantity.Equal(decimal.NewFromInt(10)))

	completed := f.publisher.byType("inventory.transaction-completed")
	require.Len(t, completed, 1)
}

func TestReceiveDuplicateBatchNumberRollsBack(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)

	_, err := f.processor.Receive(context.Background(), &dto.ReceiveInput{
		UserID: "tester",
		Lines: []dto.ReceiveLine{{
			ItemID:                "item-1",
			DestinationLocationID: "loc-1",
			BatchNumber:           "LOT-001",
			VendorID:              "vendor-1",
			Quantity:              decimal.NewFromInt(5),
			UnitCost:              decimal.NewFromInt(2),
		}},
	})
	var dup *model.DuplicateBatchNumberError
	require.ErrorAs(t, err, &dup)

	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(10)))
}

func TestConsumeFIFOSpansBatches(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-A", 5, 1)
	time.Sleep(time.Millisecond)
	f.receive(t, "item-1", "loc-1", "LOT-B", 5, 2)

	rec, err := f.processor.Consume(context.Background(), &dto.ConsumeInput{
		UserID: "tester",
		Lines: []dto.ConsumeLine{{
			ItemID:           "item-1",
			SourceLocationID: "loc-1",
			Quantity:         decimal.NewFromInt(7),
		}},
	})
	require.NoError(t, err)

	// One recorded line per batch the draw touched.
	require.Len(t, rec.Lines, 2)
	assert.True(t, rec.Lines[0].Quantity.Equal(decimal.NewFromInt(5)))
	assert.True(t, rec.Lines[0].UnitCost.Equal(decimal.NewFromInt(1)))
	assert.True(t, rec.Lines[1].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, rec.Lines[1].UnitCost.Equal(decimal.NewFromInt(2)))

	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(3)))
}

func TestConsumeInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.seedItem(t, "item-2", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-A", 10, 1)
	f.receive(t, "item-2", "loc-1", "LOT-B", 2, 1)

	// First line would succeed alone; the failing second line must take the
	// whole transaction down with it.
	_, err := f.processor.Consume(context.Background(), &dto.ConsumeInput{
		UserID: "tester",
		Lines: []dto.ConsumeLine{
			{ItemID: "item-1", SourceLocationID: "loc-1", Quantity: decimal.NewFromInt(4)},
			{ItemID: "item-2", SourceLocationID: "loc-1", Quantity: decimal.NewFromInt(5)},
		},
	})
	var insufficient *model.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)

	assert.True(t, f.level(t, "item-1", "loc-1").CurrentQuantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, f.level(t, "item-2", "loc-1").CurrentQuantity.Equal(decimal.NewFromInt(2)))

	// Nothing committed, so nothing was announced.
	consumed := 0
	for _, e := range f.publisher.byType("inventory.transaction-completed") {
		if e.(*events.TransactionCompleted).Type == string(model.TransactionConsumed) {
			consumed++
		}
	}
	assert.Zero(t, consumed)
}

func TestTransferConservation(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	rec := f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)
	originID := *rec.Lines[0].BatchID

	moved, err := f.processor.Transfer(context.Background(), &dto.TransferInput{
		UserID:                "tester",
		SourceLocationID:      "loc-1",
		DestinationLocationID: "loc-2",
		Lines: []dto.TransferLine{{
			ItemID:   "item-1",
			Quantity: decimal.NewFromInt(4),
		}},
	})
	require.NoError(t, err)

	source := f.level(t, "item-1", "loc-1")
	dest := f.level(t, "item-1", "loc-2")
	assert.True(t, source.CurrentQuantity.Equal(decimal.NewFromInt(6)))
	assert.True(t, dest.CurrentQuantity.Equal(decimal.NewFromInt(4)))
	// Conservation: nothing created or lost in flight.
	assert.True(t, source.CurrentQuantity.Add(dest.CurrentQuantity).Equal(decimal.NewFromInt(10)))

	require.Len(t, moved.Lines, 1)
	require.NotNil(t, moved.Lines[0].BatchID)
	linked, err := f.tracker.Get(context.Background(), *moved.Lines[0].BatchID)
	require.NoError(t, err)
	require.NotNil(t, linked.OriginBatchID)
	assert.Equal(t, originID, *linked.OriginBatchID)
	assert.Equal(t, "loc-2", linked.LocationID)
	// The moved lot keeps its receipt cost.
	assert.True(t, linked.UnitCost.Equal(decimal.NewFromInt(2)))
	assert.True(t, linked.RemainingQuantity.Equal(decimal.NewFromInt(4)))

	origin, err := f.tracker.Get(context.Background(), originID)
	require.NoError(t, err)
	assert.True(t, origin.RemainingQuantity.Equal(decimal.NewFromInt(6)))
}

func TestTransferPinnedToLot(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 5, 1)
	time.Sleep(time.Millisecond)
	newer := f.receive(t, "item-1", "loc-1", "LOT-002", 5, 2)
	pinnedID := *newer.Lines[0].BatchID

	// Pinning a line to a lot draws from that lot, not the FIFO head.
	moved, err := f.processor.Transfer(context.Background(), &dto.TransferInput{
		UserID:                "tester",
		SourceLocationID:      "loc-1",
		DestinationLocationID: "loc-2",
		Lines: []dto.TransferLine{{
			ItemID:   "item-1",
			Quantity: decimal.NewFromInt(4),
			BatchID:  pinnedID,
		}},
	})
	require.NoError(t, err)

	require.Len(t, moved.Lines, 1)
	require.NotNil(t, moved.Lines[0].BatchID)
	linked, err := f.tracker.Get(context.Background(), *moved.Lines[0].BatchID)
	require.NoError(t, err)
	require.NotNil(t, linked.OriginBatchID)
	assert.Equal(t, pinnedID, *linked.OriginBatchID)
	assert.True(t, linked.UnitCost.Equal(decimal.NewFromInt(2)))

	pinned, err := f.tracker.Get(context.Background(), pinnedID)
	require.NoError(t, err)
	assert.True(t, pinned.RemainingQuantity.Equal(decimal.NewFromInt(1)))
}

func TestTransferSameLocationRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.processor.Transfer(context.Background(), &dto.TransferInput{
		UserID:                "tester",
		SourceLocationID:      "loc-1",
		DestinationLocationID: "loc-1",
		Lines:                 []dto.TransferLine{{ItemID: "item-1", Quantity: decimal.NewFromInt(1)}},
	})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAdjust(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)

	_, err := f.processor.Adjust(context.Background(), &dto.AdjustInput{
		UserID:        "tester",
		ItemID:        "item-1",
		LocationID:    "loc-1",
		QuantityDelta: decimal.NewFromInt(-3),
	})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve, "adjustment without justification must be rejected")

	rec, err := f.processor.Adjust(context.Background(), &dto.AdjustInput{
		UserID:        "tester",
		ItemID:        "item-1",
		LocationID:    "loc-1",
		QuantityDelta: decimal.NewFromInt(-3),
		Notes:         "spillage during prep",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionAdjusted, rec.Type)

	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(7)))
}

func TestWaste(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	rec := f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)
	batchID := *rec.Lines[0].BatchID

	_, err := f.processor.Waste(context.Background(), &dto.WasteInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(3),
	})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve, "waste without a reason code must be rejected")

	wasted, err := f.processor.Waste(context.Background(), &dto.WasteInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(3),
		ReasonCode: "expired",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionWasted, wasted.Type)

	assert.True(t, f.level(t, "item-1", "loc-1").CurrentQuantity.Equal(decimal.NewFromInt(7)))
	b, err := f.tracker.Get(context.Background(), batchID)
	require.NoError(t, err)
	assert.True(t, b.RemainingQuantity.Equal(decimal.NewFromInt(7)))
}

func TestReserveReleaseRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)
	ctx := context.Background()

	_, err := f.processor.Reserve(ctx, &dto.ReserveInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(4),
		Reference:  "order-9",
	})
	require.NoError(t, err)

	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.ReservedQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, level.AvailableQuantity().Equal(decimal.NewFromInt(6)))

	// Releasing by reference frees exactly what the hold still carries.
	rec, err := f.processor.Release(ctx, &dto.ReleaseInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Reference:  "order-9",
	})
	require.NoError(t, err)
	require.Len(t, rec.Lines, 1)
	assert.True(t, rec.Lines[0].Quantity.Equal(decimal.NewFromInt(4)))

	level = f.level(t, "item-1", "loc-1")
	assert.True(t, level.ReservedQuantity.IsZero())
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(10)))

	// The hold is spent; a second release by the same reference has nothing
	// to free.
	_, err = f.processor.Release(ctx, &dto.ReleaseInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Reference:  "order-9",
	})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestReleaseMismatchedReservationRejected(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.seedItem(t, "item-2", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)
	f.receive(t, "item-2", "loc-1", "LOT-002", 10, 2)
	ctx := context.Background()

	_, err := f.processor.Reserve(ctx, &dto.ReserveInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(4),
		Reference:  "order-9",
	})
	require.NoError(t, err)

	// The reference resolves to item-1's hold; releasing it against another
	// pair must not drain it.
	_, err = f.processor.Release(ctx, &dto.ReleaseInput{
		UserID:     "tester",
		ItemID:     "item-2",
		LocationID: "loc-1",
		Reference:  "order-9",
	})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	res, err := f.ledger.ActiveReservation(ctx, "order-9")
	require.NoError(t, err)
	assert.True(t, res.Quantity.Equal(decimal.NewFromInt(4)))
	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.ReservedQuantity.Equal(decimal.NewFromInt(4)))
	level = f.level(t, "item-2", "loc-1")
	assert.True(t, level.ReservedQuantity.IsZero())
}

func TestConsumeDrawsDownReservation(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)
	ctx := context.Background()

	_, err := f.processor.Reserve(ctx, &dto.ReserveInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(4),
		Reference:  "order-9",
	})
	require.NoError(t, err)

	_, err = f.processor.Consume(ctx, &dto.ConsumeInput{
		UserID: "tester",
		Lines: []dto.ConsumeLine{{
			ItemID:           "item-1",
			SourceLocationID: "loc-1",
			Quantity:         decimal.NewFromInt(3),
			ReservationRef:   "order-9",
		}},
	})
	require.NoError(t, err)

	level := f.level(t, "item-1", "loc-1")
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(7)))
	assert.True(t, level.ReservedQuantity.Equal(decimal.NewFromInt(1)))

	// A partial draw keeps the hold alive for the remainder.
	res, err := f.ledger.ActiveReservation(ctx, "order-9")
	require.NoError(t, err)
	assert.True(t, res.Quantity.Equal(decimal.NewFromInt(1)))

	_, err = f.processor.Consume(ctx, &dto.ConsumeInput{
		UserID: "tester",
		Lines: []dto.ConsumeLine{{
			ItemID:           "item-1",
			SourceLocationID: "loc-1",
			Quantity:         decimal.NewFromInt(1),
			ReservationRef:   "order-9",
		}},
	})
	require.NoError(t, err)

	_, err = f.ledger.ActiveReservation(ctx, "order-9")
	require.ErrorIs(t, err, model.ErrNotFound)
	assert.True(t, f.level(t, "item-1", "loc-1").ReservedQuantity.IsZero())
}

func TestLowStockEvent(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 5)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)

	_, err := f.processor.Consume(context.Background(), &dto.ConsumeInput{
		UserID: "tester",
		Lines: []dto.ConsumeLine{{
			ItemID:           "item-1",
			SourceLocationID: "loc-1",
			Quantity:         decimal.NewFromInt(6),
		}},
	})
	require.NoError(t, err)

	low := f.publisher.byType("inventory.low-stock-detected")
	require.Len(t, low, 1)
	signal := low[0].(*events.LowStockDetected)
	assert.Equal(t, "item-1", signal.ItemID)
	assert.True(t, signal.AvailableQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, signal.Threshold.Equal(decimal.NewFromInt(5)))
}

func TestReserveEmitsLowStockSignal(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 5)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)

	// Reserving 8 of 10 leaves 2 available, below the reorder point of 5.
	_, err := f.processor.Reserve(context.Background(), &dto.ReserveInput{
		UserID:     "tester",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(8),
		Reference:  "order-9",
	})
	require.NoError(t, err)

	low := f.publisher.byType("inventory.low-stock-detected")
	require.Len(t, low, 1)
	signal := low[0].(*events.LowStockDetected)
	assert.Equal(t, "item-1", signal.ItemID)
	assert.Equal(t, "loc-1", signal.LocationID)
	assert.True(t, signal.AvailableQuantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, signal.Threshold.Equal(decimal.NewFromInt(5)))
}

func TestConcurrentConsumptionNeverOversells(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-001", 10, 2)

	input := func() *dto.ConsumeInput {
		return &dto.ConsumeInput{
			UserID: "tester",
			Lines: []dto.ConsumeLine{{
				ItemID:           "item-1",
				SourceLocationID: "loc-1",
				Quantity:         decimal.NewFromInt(6),
			}},
		}
	}

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.processor.Consume(context.Background(), input())
			results <- err
		}()
	}
	errs := []error{<-results, <-results}

	// Stock covers one of the two; exactly one wins.
	var succeeded, failed int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			var insufficient *model.InsufficientStockError
			require.ErrorAs(t, err, &insufficient)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
	assert.True(t, f.level(t, "item-1", "loc-1").CurrentQuantity.Equal(decimal.NewFromInt(4)))
}

func TestHistoryFilters(t *testing.T) {
	f := newFixture(t)
	f.seedItem(t, "item-1", model.CostingFIFO, 0)
	f.seedItem(t, "item-2", model.CostingFIFO, 0)
	f.receive(t, "item-1", "loc-1", "LOT-A", 10, 1)
	f.receive(t, "item-2", "loc-2", "LOT-B", 10, 1)

	_, err := f.processor.Consume(context.Background(), &dto.ConsumeInput{
		UserID:    "tester",
		Reference: "order-1",
		Lines: []dto.ConsumeLine{{
			ItemID:           "item-1",
			SourceLocationID: "loc-1",
			Quantity:         decimal.NewFromInt(2),
		}},
	})
	require.NoError(t, err)

	byType, total, err := f.processor.History(context.Background(), &dto.HistoryFilters{
		Type: model.TransactionConsumed,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, byType, 1)
	assert.Equal(t, "order-1", byType[0].Reference)

	byItem, total, err := f.processor.History(context.Background(), &dto.HistoryFilters{
		ItemID: "item-2",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, model.TransactionReceived, byItem[0].Type)

	paged, total, err := f.processor.History(context.Background(), &dto.HistoryFilters{
		Page: 1, PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, paged, 2)
}
