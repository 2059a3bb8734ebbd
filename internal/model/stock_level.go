package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockLevel is the aggregate quantity row for one (item, location) pair.
// Rows are created on the first transaction touching the pair and never
// deleted, only zeroed. Version backs the optimistic write check; a stale
// writer loses with a concurrency conflict and re-validates.
type StockLevel struct {
	ItemID           string          `db:"item_id"`
	LocationID       string          `db:"location_id"`
	CurrentQuantity  decimal.Decimal `db:"current_quantity"`
	ReservedQuantity decimal.Decimal `db:"reserved_quantity"`
	Version          int64           `db:"version"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// AvailableQuantity is the derived current − reserved figure.
func (s *StockLevel) AvailableQuantity() decimal.Decimal {
	return s.CurrentQuantity.Sub(s.ReservedQuantity)
}

// Valid reports whether the row satisfies the ledger invariants:
// both quantities non-negative and reserved never above current.
func (s *StockLevel) Valid() bool {
	return !s.CurrentQuantity.IsNegative() &&
		!s.ReservedQuantity.IsNegative() &&
		s.ReservedQuantity.LessThanOrEqual(s.CurrentQuantity)
}
