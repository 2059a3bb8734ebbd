package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CountSheetStatus is the physical-count workflow state.
type CountSheetStatus string

const (
	CountSheetCreated         CountSheetStatus = "created"
	CountSheetInProgress      CountSheetStatus = "in_progress"
	CountSheetCompleted       CountSheetStatus = "completed"
	CountSheetPendingApproval CountSheetStatus = "pending_approval"
	CountSheetApproved        CountSheetStatus = "approved"
	CountSheetCanceled        CountSheetStatus = "canceled"
)

// Terminal reports whether the sheet can no longer change.
func (s CountSheetStatus) Terminal() bool {
	return s == CountSheetApproved || s == CountSheetCanceled
}

// CountSheet is a physical count of one location. System quantities are
// snapshotted from the stock ledger at creation; approval turns every
// non-zero variance into an adjustment transaction.
type CountSheet struct {
	ID          string           `db:"id"`
	LocationID  string           `db:"location_id"`
	CountDate   time.Time        `db:"count_date"`
	Status      CountSheetStatus `db:"status"`
	RequestedBy string           `db:"requested_by"`
	CountedBy   *string          `db:"counted_by"`
	ApprovedBy  *string          `db:"approved_by"`
	ApprovedAt  *time.Time       `db:"approved_at"`
	CreatedAt   time.Time        `db:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at"`
	Items       []CountSheetItem `db:"-"`
}

// CountSheetItem is one item on a count sheet.
type CountSheetItem struct {
	ID             string          `db:"id"`
	SheetID        string          `db:"sheet_id"`
	ItemID         string          `db:"item_id"`
	SystemQuantity decimal.Decimal `db:"system_quantity"`
	// CountedQuantity is nil until the item has been counted.
	CountedQuantity    *decimal.Decimal `db:"counted_quantity"`
	VarianceQuantity   decimal.Decimal  `db:"variance_quantity"`
	VarianceReasonCode *string          `db:"variance_reason_code"`
	Approved           bool             `db:"approved"`
}

// Counted reports whether a counted quantity has been recorded.
func (i *CountSheetItem) Counted() bool {
	return i.CountedQuantity != nil
}
