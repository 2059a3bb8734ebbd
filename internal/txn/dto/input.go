package dto

import (
	"time"

	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type ReceiveInput struct {
	UserID    string
	Reference string
	Notes     string
	Lines     []ReceiveLine
}

type ReceiveLine struct {
	ItemID                string
	DestinationLocationID string
	BatchNumber           string
	VendorID              string
	PurchaseOrderID       string
	Quantity              decimal.Decimal
	UnitCost              decimal.Decimal
	ReceivedDate          time.Time
	ExpirationDate        *time.Time
}

type ConsumeInput struct {
	UserID    string
	Reference string
	Notes     string
	Lines     []ConsumeLine
}

type ConsumeLine struct {
	ItemID           string
	SourceLocationID string
	Quantity         decimal.Decimal
	// BatchID names the lot under specific identification.
	BatchID string
	// ReservationRef ties the consumption to a prior reservation, whose
	// quantity is drawn down alongside currentQuantity.
	ReservationRef string
	// Method overrides the item's configured costing method when set.
	Method model.CostingMethod
}

type TransferInput struct {
	UserID                string
	Reference             string
	Notes                 string
	SourceLocationID      string
	DestinationLocationID string
	Lines                 []TransferLine
}

type TransferLine struct {
	ItemID   string
	Quantity decimal.Decimal
	// BatchID pins the transfer to one source lot.
	BatchID string
}

type AdjustInput struct {
	UserID     string
	Reference  string
	ItemID     string
	LocationID string
	// QuantityDelta is the signed correction applied directly to the ledger,
	// bypassing batch costing.
	QuantityDelta decimal.Decimal
	// Notes carries the mandatory justification.
	Notes string
}

type WasteInput struct {
	UserID     string
	Reference  string
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	ReasonCode string
}

type ReserveInput struct {
	UserID     string
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	// Reference identifies what the hold is for, e.g. an order id.
	Reference string
	ExpiresAt *time.Time
}

type ReleaseInput struct {
	UserID     string
	ItemID     string
	LocationID string
	// Quantity may be zero when Reference is set; the reservation's
	// remaining quantity is released.
	Quantity  decimal.Decimal
	Reference string
}

// HistoryFilters narrows the transaction log query.
type HistoryFilters struct {
	ItemID     string
	LocationID string
	Type       model.TransactionType
	Reference  string
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int
	PageSize   int
}
