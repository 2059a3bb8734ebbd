package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus tracks the lifecycle of a quantity hold.
type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "active"
	ReservationReleased ReservationStatus = "released"
	ReservationConsumed ReservationStatus = "consumed"
)

// Reservation is a hold against available quantity tied to an external
// reference (usually an order). It never moves currentQuantity, only
// reservedQuantity. A reservation past ExpiresAt is eligible for release by
// the scheduled sweep, which goes through the normal Released transaction.
type Reservation struct {
	ID         string            `db:"id"`
	ItemID     string            `db:"item_id"`
	LocationID string            `db:"location_id"`
	Quantity   decimal.Decimal   `db:"quantity"`
	Reference  string            `db:"reference"`
	Status     ReservationStatus `db:"status"`
	ExpiresAt  *time.Time        `db:"expires_at"`
	CreatedAt  time.Time         `db:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at"`
}

// Expired reports whether the reservation is still active but past its
// expiration. Reservations without an expiration never expire.
func (r *Reservation) Expired(asOf time.Time) bool {
	return r.Status == ReservationActive && r.ExpiresAt != nil && r.ExpiresAt.Before(asOf)
}
