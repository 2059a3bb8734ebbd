package store

import (
	"context"
	"sync"

	"github.com/kitchenops/inventory-service/internal/model"
)

// LevelKey identifies one stock level row.
type LevelKey struct {
	ItemID     string
	LocationID string
}

// Memory is a single in-process state shared by the in-memory repository
// implementations, used for tests and local runs without postgres. Its
// Within takes a snapshot and restores it when fn fails, matching the
// rollback semantics of the SQL scope.
type Memory struct {
	mu sync.RWMutex

	Items        map[string]model.Item
	Levels       map[LevelKey]model.StockLevel
	Batches      map[string]model.Batch
	Transactions []model.InventoryTransaction
	Sheets       map[string]model.CountSheet
	Reservations map[string]model.Reservation
}

func NewMemory() *Memory {
	return &Memory{
		Items:        make(map[string]model.Item),
		Levels:       make(map[LevelKey]model.StockLevel),
		Batches:      make(map[string]model.Batch),
		Sheets:       make(map[string]model.CountSheet),
		Reservations: make(map[string]model.Reservation),
	}
}

type memTxKey struct{}

func inMemTx(ctx context.Context) bool {
	v, ok := ctx.Value(memTxKey{}).(bool)
	return ok && v
}

// Within serializes all writers behind one mutex; fn observes and mutates
// live state, and a failure restores the pre-scope snapshot.
func (m *Memory) Within(ctx context.Context, fn func(ctx context.Context) error) error {
	if inMemTx(ctx) {
		return fn(ctx)
	}

	m.mu.Lock()

	snap := m.snapshot()
	ctx, hooks := WithCommitHooks(context.WithValue(ctx, memTxKey{}, true))
	if err := fn(ctx); err != nil {
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()
	hooks.Run()
	return nil
}

// Lock takes the write lock unless an atomic scope already holds it.
func (m *Memory) Lock(ctx context.Context) func() {
	if inMemTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

// RLock takes the read lock unless an atomic scope already holds the write
// lock.
func (m *Memory) RLock(ctx context.Context) func() {
	if inMemTx(ctx) {
		return func() {}
	}
	m.mu.RLock()
	return m.mu.RUnlock
}

type memorySnapshot struct {
	items        map[string]model.Item
	levels       map[LevelKey]model.StockLevel
	batches      map[string]model.Batch
	transactions []model.InventoryTransaction
	sheets       map[string]model.CountSheet
	reservations map[string]model.Reservation
}

func (m *Memory) snapshot() memorySnapshot {
	snap := memorySnapshot{
		items:        make(map[string]model.Item, len(m.Items)),
		levels:       make(map[LevelKey]model.StockLevel, len(m.Levels)),
		batches:      make(map[string]model.Batch, len(m.Batches)),
		transactions: make([]model.InventoryTransaction, len(m.Transactions)),
		sheets:       make(map[string]model.CountSheet, len(m.Sheets)),
		reservations: make(map[string]model.Reservation, len(m.Reservations)),
	}
	for k, v := range m.Items {
		snap.items[k] = v
	}
	for k, v := range m.Levels {
		snap.levels[k] = v
	}
	for k, v := range m.Batches {
		snap.batches[k] = v
	}
	copy(snap.transactions, m.Transactions)
	for k, v := range m.Sheets {
		v.Items = append([]model.CountSheetItem(nil), v.Items...)
		snap.sheets[k] = v
	}
	for k, v := range m.Reservations {
		snap.reservations[k] = v
	}
	return snap
}

func (m *Memory) restore(snap memorySnapshot) {
	m.Items = snap.items
	m.Levels = snap.levels
	m.Batches = snap.batches
	m.Transactions = snap.transactions
	m.Sheets = snap.sheets
	m.Reservations = snap.reservations
}
