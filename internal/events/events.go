// Package events defines the outbound domain events and the commit-time
// buffered publisher. Events raised inside an atomic scope are held back and
// only dispatched after the scope commits, so rolled-back effects are never
// announced. Delivery is at-least-once; consumers deduplicate.
package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is one outbound domain event.
type Event interface {
	EventType() string
	OccurredAt() time.Time
}

// TransactionCompleted announces a successfully applied inventory
// transaction.
type TransactionCompleted struct {
	TransactionID string            `json:"transaction_id"`
	Type          string            `json:"type"`
	Reference     string            `json:"reference,omitempty"`
	Lines         []TransactionLine `json:"lines"`
	CompletedAt   time.Time         `json:"completed_at"`
}

// TransactionLine is the event view of one movement line.
type TransactionLine struct {
	ItemID                string          `json:"item_id"`
	Quantity              decimal.Decimal `json:"quantity"`
	SourceLocationID      string          `json:"source_location_id,omitempty"`
	DestinationLocationID string          `json:"destination_location_id,omitempty"`
	BatchID               string          `json:"batch_id,omitempty"`
	UnitCost              decimal.Decimal `json:"unit_cost"`
}

func (e *TransactionCompleted) EventType() string     { return "inventory.transaction-completed" }
func (e *TransactionCompleted) OccurredAt() time.Time { return e.CompletedAt }

// LowStockDetected fires when a transaction drops an item's available
// quantity below its reorder point.
type LowStockDetected struct {
	ItemID            string          `json:"item_id"`
	LocationID        string          `json:"location_id"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	Threshold         decimal.Decimal `json:"threshold"`
	DetectedAt        time.Time       `json:"detected_at"`
}

func (e *LowStockDetected) EventType() string     { return "inventory.low-stock-detected" }
func (e *LowStockDetected) OccurredAt() time.Time { return e.DetectedAt }

// BatchExpiringSoon fires for active lots inside the expiry warning window.
type BatchExpiringSoon struct {
	BatchID        string    `json:"batch_id"`
	ItemID         string    `json:"item_id"`
	LocationID     string    `json:"location_id"`
	ExpirationDate time.Time `json:"expiration_date"`
	DetectedAt     time.Time `json:"detected_at"`
}

func (e *BatchExpiringSoon) EventType() string     { return "inventory.batch-expiring-soon" }
func (e *BatchExpiringSoon) OccurredAt() time.Time { return e.DetectedAt }
