package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostingMethod selects how the costing engine values a debit.
type CostingMethod string

const (
	CostingFIFO                   CostingMethod = "fifo"
	CostingLIFO                   CostingMethod = "lifo"
	CostingWeightedAverage        CostingMethod = "weighted_average"
	CostingStandardCost           CostingMethod = "standard_cost"
	CostingSpecificIdentification CostingMethod = "specific_identification"
	CostingLastPurchasePrice      CostingMethod = "last_purchase_price"
)

// Item is the per-item configuration consulted by the transaction processor:
// which costing method applies, the standard rate, and the reorder point that
// triggers low-stock signals.
type Item struct {
	ID              string          `db:"id"`
	SKU             string          `db:"sku"`
	Name            string          `db:"name"`
	Unit            string          `db:"unit"`
	CostingMethod   CostingMethod   `db:"costing_method"`
	StandardCost    decimal.Decimal `db:"standard_cost"`
	ReorderPoint    decimal.Decimal `db:"reorder_point"`
	ReorderQuantity decimal.Decimal `db:"reorder_quantity"`
	IsActive        bool            `db:"is_active"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}
