package dto

import (
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateInput struct {
	LocationID  string
	RequestedBy string
	// ItemIDs limits the sheet to specific items; empty means every item
	// with a recorded stock level at the location.
	ItemIDs []string
}

type RecordCountInput struct {
	SheetID         string
	ItemID          string
	CountedQuantity decimal.Decimal
	CountedBy       string
}

type AnnotateInput struct {
	SheetID    string
	ItemID     string
	ReasonCode string
}

type ApproveInput struct {
	SheetID    string
	ApprovedBy string
}

type ListFilters struct {
	LocationID string
	Status     model.CountSheetStatus
	Page       int
	PageSize   int
}
