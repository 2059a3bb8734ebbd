package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch is a costed lot of an item at a location. Created by receipts,
// drawn down by consumption, transfer and waste. A batch that reaches zero
// remaining quantity is deactivated but retained for audit and costing
// history; rows are never physically deleted.
type Batch struct {
	ID              string  `db:"id"`
	ItemID          string  `db:"item_id"`
	LocationID      string  `db:"location_id"`
	BatchNumber     string  `db:"batch_number"`
	VendorID        *string `db:"vendor_id"`
	PurchaseOrderID *string `db:"purchase_order_id"`
	// OriginBatchID links a batch created by a transfer back to the lot it
	// was split from at the source location.
	OriginBatchID     *string         `db:"origin_batch_id"`
	UnitCost          decimal.Decimal `db:"unit_cost"`
	InitialQuantity   decimal.Decimal `db:"initial_quantity"`
	RemainingQuantity decimal.Decimal `db:"remaining_quantity"`
	ReceivedDate      time.Time       `db:"received_date"`
	ExpirationDate    *time.Time      `db:"expiration_date"`
	IsActive          bool            `db:"is_active"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// HasStock reports whether the batch can still be drawn from.
func (b *Batch) HasStock() bool {
	return b.IsActive && b.RemainingQuantity.IsPositive()
}

// IsExpired reports whether the batch is past its expiration date at asOf.
// Batches without an expiration date never expire.
func (b *Batch) IsExpired(asOf time.Time) bool {
	if b.ExpirationDate == nil {
		return false
	}
	return b.ExpirationDate.Before(asOf)
}

// ExpiresWithin reports whether the batch expires inside the given window.
func (b *Batch) ExpiresWithin(window time.Duration, asOf time.Time) bool {
	if b.ExpirationDate == nil {
		return false
	}
	return b.ExpirationDate.Before(asOf.Add(window)) && !b.IsExpired(asOf)
}

// RemainingValue is remaining quantity × unit cost.
func (b *Batch) RemainingValue() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.UnitCost)
}
