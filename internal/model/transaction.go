package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the seven movement kinds the processor applies.
type TransactionType string

const (
	TransactionReceived    TransactionType = "received"
	TransactionConsumed    TransactionType = "consumed"
	TransactionTransferred TransactionType = "transferred"
	TransactionAdjusted    TransactionType = "adjusted"
	TransactionWasted      TransactionType = "wasted"
	TransactionReserved    TransactionType = "reserved"
	TransactionReleased    TransactionType = "released"
)

// InventoryTransaction is the immutable record of one applied movement.
// Corrections are new compensating transactions, never edits.
type InventoryTransaction struct {
	ID        string          `db:"id"`
	Type      TransactionType `db:"type"`
	Timestamp time.Time       `db:"timestamp"`
	UserID    string          `db:"user_id"`
	// Reference carries the external document id: purchase order, count
	// sheet, order id.
	Reference string            `db:"reference"`
	Notes     string            `db:"notes"`
	Lines     []TransactionLine `db:"-"`
}

// TransactionLine is one item movement inside a transaction. A single debit
// spanning multiple batches produces one line per batch touched.
type TransactionLine struct {
	ID                    string          `db:"id"`
	TransactionID         string          `db:"transaction_id"`
	ItemID                string          `db:"item_id"`
	Quantity              decimal.Decimal `db:"quantity"`
	SourceLocationID      *string         `db:"source_location_id"`
	DestinationLocationID *string         `db:"destination_location_id"`
	BatchID               *string         `db:"batch_id"`
	UnitCost              decimal.Decimal `db:"unit_cost"`
}

// TotalCost is quantity × unit cost for the line.
func (l *TransactionLine) TotalCost() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}
