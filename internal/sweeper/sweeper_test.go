package sweeper_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kitchenops/inventory-service/internal/batch"
	batchrepo "github.com/kitchenops/inventory-service/internal/batch/repository"
	"github.com/kitchenops/inventory-service/internal/events"
	"github.com/kitchenops/inventory-service/internal/ledger"
	ledgerrepo "github.com/kitchenops/inventory-service/internal/ledger/repository"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/kitchenops/inventory-service/internal/sweeper"
	"github.com/kitchenops/inventory-service/internal/txn/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReleaser records Release calls; the sweeper never invokes the rest.
type fakeReleaser struct {
	mu       sync.Mutex
	released []*dto.ReleaseInput
}

func (f *fakeReleaser) Release(_ context.Context, input *dto.ReleaseInput) (*model.InventoryTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, input)
	return &model.InventoryTransaction{ID: "tx-1", Type: model.TransactionReleased}, nil
}

func (f *fakeReleaser) Receive(context.Context, *dto.ReceiveInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeReleaser) Consume(context.Context, *dto.ConsumeInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeReleaser) Transfer(context.Context, *dto.TransferInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeReleaser) Adjust(context.Context, *dto.AdjustInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeReleaser) Waste(context.Context, *dto.WasteInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeReleaser) Reserve(context.Context, *dto.ReserveInput) (*model.InventoryTransaction, error) {
	return nil, nil
}
func (f *fakeReleaser) History(context.Context, *dto.HistoryFilters) ([]model.InventoryTransaction, int, error) {
	return nil, 0, nil
}

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

func TestSweepReleasesExpiredReservations(t *testing.T) {
	mem := store.NewMemory()
	ledg := ledger.New(ledgerrepo.NewMemoryRepository(mem), zap.NewNop())
	tracker := batch.NewTracker(batchrepo.NewMemoryRepository(mem), zap.NewNop())
	releaser := &fakeReleaser{}
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	require.NoError(t, ledg.RecordReservation(ctx, &model.Reservation{
		ID: "res-expired", ItemID: "item-1", LocationID: "loc-1",
		Quantity: decimal.NewFromInt(3), Reference: "order-1",
		Status: model.ReservationActive, ExpiresAt: &past,
	}))
	require.NoError(t, ledg.RecordReservation(ctx, &model.Reservation{
		ID: "res-live", ItemID: "item-2", LocationID: "loc-1",
		Quantity: decimal.NewFromInt(2), Reference: "order-2",
		Status: model.ReservationActive, ExpiresAt: &future,
	}))

	s := sweeper.New(ledg, tracker, releaser, &capturePublisher{}, zap.NewNop(), time.Minute, 7)
	s.Sweep(ctx)

	releaser.mu.Lock()
	defer releaser.mu.Unlock()
	require.Len(t, releaser.released, 1)
	assert.Equal(t, "order-1", releaser.released[0].Reference)
	assert.Equal(t, "item-1", releaser.released[0].ItemID)
}

func TestSweepWarnsExpiringBatchesOnce(t *testing.T) {
	mem := store.NewMemory()
	ledg := ledger.New(ledgerrepo.NewMemoryRepository(mem), zap.NewNop())
	tracker := batch.NewTracker(batchrepo.NewMemoryRepository(mem), zap.NewNop())
	publisher := &capturePublisher{}
	ctx := context.Background()

	soon := time.Now().Add(2 * 24 * time.Hour)
	far := time.Now().Add(60 * 24 * time.Hour)
	expiring, err := tracker.CreateBatch(ctx, &batch.CreateBatchInput{
		ItemID: "item-1", LocationID: "loc-1", BatchNumber: "LOT-SOON",
		Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(1), ExpirationDate: &soon,
	})
	require.NoError(t, err)
	_, err = tracker.CreateBatch(ctx, &batch.CreateBatchInput{
		ItemID: "item-1", LocationID: "loc-1", BatchNumber: "LOT-FAR",
		Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(1), ExpirationDate: &far,
	})
	require.NoError(t, err)

	s := sweeper.New(ledg, tracker, &fakeReleaser{}, publisher, zap.NewNop(), time.Minute, 7)
	s.Sweep(ctx)
	// A second pass must not warn about the same lot again.
	s.Sweep(ctx)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Len(t, publisher.events, 1)
	warning, ok := publisher.events[0].(*events.BatchExpiringSoon)
	require.True(t, ok)
	assert.Equal(t, expiring.ID, warning.BatchID)
}
