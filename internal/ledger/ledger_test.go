package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/kitchenops/inventory-service/internal/ledger"
	"github.com/kitchenops/inventory-service/internal/ledger/repository"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/kitchenops/inventory-service/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	mem := store.NewMemory()
	return ledger.New(repository.NewMemoryRepository(mem), zap.NewNop())
}

func TestGetLevelUnrecordedPair(t *testing.T) {
	l := newLedger(t)

	level, err := l.GetLevel(context.Background(), "item-1", "loc-1")
	require.NoError(t, err)
	assert.True(t, level.CurrentQuantity.IsZero())
	assert.True(t, level.ReservedQuantity.IsZero())
	assert.True(t, level.AvailableQuantity().IsZero())
}

func TestApplyMovement(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	level, err := l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(10)))
	assert.EqualValues(t, 1, level.Version)

	level, err = l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(-4), decimal.Zero)
	require.NoError(t, err)
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(6)))
	assert.EqualValues(t, 2, level.Version)
}

func TestApplyMovementRejectsNegativeStock(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	_, err := l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(5), decimal.Zero)
	require.NoError(t, err)

	_, err = l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(-8), decimal.Zero)
	var violation *model.StockInvariantViolationError
	require.ErrorAs(t, err, &violation)

	// The rejected movement changed nothing.
	level, err := l.GetLevel(ctx, "item-1", "loc-1")
	require.NoError(t, err)
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(5)))
}

func TestReserveRelease(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	_, err := l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)

	level, err := l.Reserve(ctx, "item-1", "loc-1", decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, level.CurrentQuantity.Equal(decimal.NewFromInt(10)))
	assert.True(t, level.ReservedQuantity.Equal(decimal.NewFromInt(4)))
	assert.True(t, level.AvailableQuantity().Equal(decimal.NewFromInt(6)))

	// A hold can never exceed what is physically there.
	_, err = l.Reserve(ctx, "item-1", "loc-1", decimal.NewFromInt(7))
	var violation *model.StockInvariantViolationError
	require.ErrorAs(t, err, &violation)

	level, err = l.Release(ctx, "item-1", "loc-1", decimal.NewFromInt(4))
	require.NoError(t, err)
	assert.True(t, level.ReservedQuantity.IsZero())

	_, err = l.Release(ctx, "item-1", "loc-1", decimal.NewFromInt(1))
	require.ErrorAs(t, err, &violation)
}

func TestVersionConflictIsRetryable(t *testing.T) {
	mem := store.NewMemory()
	repo := repository.NewMemoryRepository(mem)
	l := ledger.New(repo, zap.NewNop())
	ctx := context.Background()

	_, err := l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)

	// A writer holding a stale version loses and is told to retry.
	stale, err := repo.Get(ctx, "item-1", "loc-1")
	require.NoError(t, err)
	stale.Version = stale.Version - 1
	stale.CurrentQuantity = decimal.NewFromInt(99)
	err = repo.UpdateVersioned(ctx, stale)
	require.ErrorIs(t, err, model.ErrConcurrencyConflict)
	assert.True(t, model.IsRetryable(err))
}

func TestReservationLifecycle(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	expiry := time.Now().Add(-time.Minute)

	res := &model.Reservation{
		ID:         "res-1",
		ItemID:     "item-1",
		LocationID: "loc-1",
		Quantity:   decimal.NewFromInt(3),
		Reference:  "order-1",
		Status:     model.ReservationActive,
		ExpiresAt:  &expiry,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, l.RecordReservation(ctx, res))

	found, err := l.ActiveReservation(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, res.ID, found.ID)

	expired, err := l.ExpiredReservations(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)

	found.Quantity = decimal.Zero
	require.NoError(t, l.SettleReservation(ctx, found, model.ReservationReleased))

	_, err = l.ActiveReservation(ctx, "order-1")
	require.ErrorIs(t, err, model.ErrNotFound)

	expired, err = l.ExpiredReservations(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)
}

func TestLevelsAtLocation(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	_, err := l.ApplyMovement(ctx, "item-1", "loc-1", decimal.NewFromInt(5), decimal.Zero)
	require.NoError(t, err)
	_, err = l.ApplyMovement(ctx, "item-2", "loc-1", decimal.NewFromInt(7), decimal.Zero)
	require.NoError(t, err)
	_, err = l.ApplyMovement(ctx, "item-1", "loc-2", decimal.NewFromInt(9), decimal.Zero)
	require.NoError(t, err)

	levels, err := l.LevelsAtLocation(ctx, "loc-1")
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "item-1", levels[0].ItemID)
	assert.Equal(t, "item-2", levels[1].ItemID)
}

func TestLowStock(t *testing.T) {
	mem := store.NewMemory()
	l := ledger.New(repository.NewMemoryRepository(mem), zap.NewNop())
	ctx := context.Background()

	now := time.Now()
	mem.Items["item-low"] = model.Item{
		ID: "item-low", SKU: "LOW", Name: "Low item", Unit: "ea",
		CostingMethod: model.CostingFIFO,
		ReorderPoint:  decimal.NewFromInt(10),
		IsActive:      true,
		CreatedAt:     now, UpdatedAt: now,
	}
	mem.Items["item-ok"] = model.Item{
		ID: "item-ok", SKU: "OK", Name: "Healthy item", Unit: "ea",
		CostingMethod: model.CostingFIFO,
		ReorderPoint:  decimal.NewFromInt(3),
		IsActive:      true,
		CreatedAt:     now, UpdatedAt: now,
	}
	mem.Items["item-untracked"] = model.Item{
		ID: "item-untracked", SKU: "UNT", Name: "No reorder point", Unit: "ea",
		CostingMethod: model.CostingFIFO,
		IsActive:      true,
		CreatedAt:     now, UpdatedAt: now,
	}

	// item-low: 9 on hand, 2 reserved, available 7 < reorder point 10.
	_, err := l.ApplyMovement(ctx, "item-low", "loc-1", decimal.NewFromInt(9), decimal.NewFromInt(2))
	require.NoError(t, err)
	_, err = l.ApplyMovement(ctx, "item-ok", "loc-1", decimal.NewFromInt(8), decimal.Zero)
	require.NoError(t, err)
	_, err = l.ApplyMovement(ctx, "item-untracked", "loc-1", decimal.NewFromInt(1), decimal.Zero)
	require.NoError(t, err)

	low, err := l.LowStock(ctx, "loc-1")
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "item-low", low[0].ItemID)
}
