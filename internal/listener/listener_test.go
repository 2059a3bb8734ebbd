package listener_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kitchenops/inventory-service/internal/countsheet"
	csdto "github.com/kitchenops/inventory-service/internal/countsheet/dto"
	"github.com/kitchenops/inventory-service/internal/listener"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReader struct {
	msgs chan kafka.Message
}

func newFakeReader(payloads ...string) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(payloads))}
	for _, p := range payloads {
		r.msgs <- kafka.Message{Value: []byte(p)}
	}
	return r
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) Close() error { return nil }

// fakeConsumer implements txn.Processor; only Consume is exercised by the
// order listener.
type fakeConsumer struct {
	mu        sync.Mutex
	calls     []*dto.ConsumeInput
	failFirst error
	done      chan struct{}
}

func (f *fakeConsumer) Consume(_ context.Context, input *dto.ConsumeInput) (*model.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *input
	copied.Lines = append([]dto.ConsumeLine(nil), input.Lines...)
	f.calls = append(f.calls, &copied)
	if f.failFirst != nil {
		err := f.failFirst
		f.failFirst = nil
		return nil, err
	}
	select {
	case f.done <- struct{}{}:
	default:
	}
	return &model.InventoryTransaction{ID: "tx-1", Type: model.TransactionConsumed}, nil
}

func (f *fakeConsumer) Receive(context.Context, *dto.ReceiveInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeConsumer) Transfer(context.Context, *dto.TransferInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeConsumer) Adjust(context.Context, *dto.AdjustInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeConsumer) Waste(context.Context, *dto.WasteInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeConsumer) Reserve(context.Context, *dto.ReserveInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeConsumer) Release(context.Context, *dto.ReleaseInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeConsumer) History(context.Context, *dto.HistoryFilters) ([]model.InventoryTransaction, int, error) {
	return nil, 0, nil
}

const orderPlaced = `{
    "event_id": "evt-1",
    "event_type": "OrderPlaced",
    "payload": {
        "id": "order-42",
        "location_id": "loc-1",
        "items": [
            {"item_id": "item-1", "quantity": "2"},
            {"item_id": "item-2", "quantity": "1.5"}
        ]
    }
}`

func TestOrderListenerConsumesPlacedOrders(t *testing.T) {
	reader := newFakeReader(
		`not even json`,
		`{"event_type": "OrderShipped", "payload": {"id": "order-1"}}`,
		orderPlaced,
	)
	consumer := &fakeConsumer{done: make(chan struct{}, 1)}
	l := listener.NewOrderListener(reader, consumer, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go l.Start(ctx)

	select {
	case <-consumer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("order was never consumed")
	}
	cancel()

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	// Malformed and unrelated events never reach the processor.
	require.Len(t, consumer.calls, 1)
	call := consumer.calls[0]
	assert.Equal(t, "order-42", call.Reference)
	assert.Equal(t, "system", call.UserID)
	require.Len(t, call.Lines, 2)
	assert.Equal(t, "item-1", call.Lines[0].ItemID)
	assert.Equal(t, "loc-1", call.Lines[0].SourceLocationID)
	assert.True(t, call.Lines[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "order-42", call.Lines[0].ReservationRef)
}

func TestOrderListenerRetriesWithoutMissingReservation(t *testing.T) {
	reader := newFakeReader(orderPlaced)
	consumer := &fakeConsumer{
		done:      make(chan struct{}, 1),
		failFirst: fmt.Errorf("active reservation for %q: %w", "order-42", model.ErrNotFound),
	}
	l := listener.NewOrderListener(reader, consumer, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go l.Start(ctx)

	select {
	case <-consumer.done:
	case <-time.After(2 * time.Second):
		t.Fatal("order was never consumed")
	}
	cancel()

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	require.Len(t, consumer.calls, 2)
	assert.Equal(t, "order-42", consumer.calls[0].Lines[0].ReservationRef)
	assert.Empty(t, consumer.calls[1].Lines[0].ReservationRef)
}

// fakeSheets records the count-sheet workflow calls.
type fakeSheets struct {
	mu        sync.Mutex
	created   []*csdto.CreateInput
	counts    []*csdto.RecordCountInput
	completed []string
	done      chan struct{}
}

func (f *fakeSheets) Create(_ context.Context, input *csdto.CreateInput) (*model.CountSheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, input)
	return &model.CountSheet{ID: "sheet-1", LocationID: input.LocationID, Status: model.CountSheetCreated}, nil
}

func (f *fakeSheets) RecordCount(_ context.Context, input *csdto.RecordCountInput) (*model.CountSheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = append(f.counts, input)
	return &model.CountSheet{ID: input.SheetID, Status: model.CountSheetInProgress}, nil
}

func (f *fakeSheets) Complete(_ context.Context, sheetID string) (*model.CountSheet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, sheetID)
	select {
	case f.done <- struct{}{}:
	default:
	}
	return &model.CountSheet{ID: sheetID, Status: model.CountSheetPendingApproval}, nil
}

func (f *fakeSheets) AnnotateVariance(context.Context, *csdto.AnnotateInput) (*model.CountSheet, error) {
	return nil, nil
}
func (f *fakeSheets) Approve(context.Context, *csdto.ApproveInput) (*model.CountSheet, error) {
	return nil, nil
}
func (f *fakeSheets) Cancel(context.Context, string) (*model.CountSheet, error) { return nil, nil }
func (f *fakeSheets) Get(context.Context, string) (*model.CountSheet, error)    { return nil, nil }
func (f *fakeSheets) List(context.Context, *csdto.ListFilters) ([]model.CountSheet, int, error) {
	return nil, 0, nil
}

var _ countsheet.UseCase = (*fakeSheets)(nil)

func TestCountListenerRunsSheetThroughCompletion(t *testing.T) {
	reader := newFakeReader(`{
        "event_type": "StockCountSubmitted",
        "payload": {
            "location_id": "loc-1",
            "counted_by": "porter",
            "items": [
                {"item_id": "item-1", "counted_quantity": "92"},
                {"item_id": "item-2", "counted_quantity": "17.5"}
            ]
        }
    }`)
	sheets := &fakeSheets{done: make(chan struct{}, 1)}
	l := listener.NewCountListener(reader, sheets, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	go l.Start(ctx)

	select {
	case <-sheets.done:
	case <-time.After(2 * time.Second):
		t.Fatal("count sheet was never completed")
	}
	cancel()

	sheets.mu.Lock()
	defer sheets.mu.Unlock()
	require.Len(t, sheets.created, 1)
	assert.Equal(t, "loc-1", sheets.created[0].LocationID)
	assert.Equal(t, "porter", sheets.created[0].RequestedBy)
	assert.Equal(t, []string{"item-1", "item-2"}, sheets.created[0].ItemIDs)

	require.Len(t, sheets.counts, 2)
	assert.Equal(t, "sheet-1", sheets.counts[0].SheetID)
	assert.True(t, sheets.counts[1].CountedQuantity.Equal(decimal.NewFromFloat(17.5)))

	assert.Equal(t, []string{"sheet-1"}, sheets.completed)
}
