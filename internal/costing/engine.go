// Package costing decides which lots a debit draws from and what unit cost
// the movement is valued at, under the item's configured costing method.
// Plans are computed without mutating anything; the transaction processor
// applies the batch debits afterwards inside its atomic scope.
package costing

import (
	"context"

	"github.com/kitchenops/inventory-service/internal/batch"
	"github.com/kitchenops/inventory-service/internal/item"
	"github.com/kitchenops/inventory-service/internal/model"
	"github.com/shopspring/decimal"
)

// Draw is one planned debit against a single batch. UnitCost is the
// valuation rate for COGS reporting; BatchUnitCost is the physical lot's own
// receipt cost, carried unchanged by transfers.
type Draw struct {
	BatchID       string
	BatchNumber   string
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	BatchUnitCost decimal.Decimal
}

// Plan is the full draw-down for one requested quantity.
type Plan struct {
	Draws []Draw
	// UnitCost is the blended valuation rate over the whole plan.
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
}

// Request asks for a debit plan of Quantity units of an item at a location.
// Method overrides the item's configured costing method when set. BatchID
// names the lot for specific identification.
type Request struct {
	ItemID     string
	LocationID string
	Quantity   decimal.Decimal
	Method     model.CostingMethod
	BatchID    string
}

type Engine struct {
	lots  *batch.Tracker
	items item.Repository
}

func NewEngine(lots *batch.Tracker, items item.Repository) *Engine {
	return &Engine{lots: lots, items: items}
}

// PlanDraw selects the lots to draw from and computes the valuation, without
// touching batch state. It fails with InsufficientStock before anything is
// mutated when the selected lots cannot cover the request.
func (e *Engine) PlanDraw(ctx context.Context, req *Request) (*Plan, error) {
	if !req.Quantity.IsPositive() {
		return nil, &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	}

	it, err := e.items.GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = it.CostingMethod
	}
	if method == "" {
		method = model.CostingFIFO
	}

	switch method {
	case model.CostingFIFO:
		return e.planSequential(ctx, req, batch.ReceivedDateAsc, nil)
	case model.CostingLIFO:
		return e.planSequential(ctx, req, batch.ReceivedDateDesc, nil)
	case model.CostingWeightedAverage:
		return e.planWeightedAverage(ctx, req)
	case model.CostingStandardCost:
		// Physical tracking still runs FIFO; valuation uses the standard rate.
		standard := it.StandardCost
		return e.planSequential(ctx, req, batch.ReceivedDateAsc, &standard)
	case model.CostingSpecificIdentification:
		if req.BatchID == "" {
			return nil, &model.ValidationError{Field: "batchId", Reason: "required for specific identification"}
		}
		return e.planNamedBatch(ctx, req, req.BatchID)
	case model.CostingLastPurchasePrice:
		latest, err := e.lots.LatestActive(ctx, req.ItemID, req.LocationID)
		if err != nil {
			return nil, err
		}
		return e.planNamedBatch(ctx, req, latest.ID)
	default:
		return nil, &model.ValidationError{Field: "costingMethod", Reason: "unknown method"}
	}
}

// planSequential draws lots in the given order until the request is
// satisfied. valuation, when non-nil, overrides each draw's unit cost.
func (e *Engine) planSequential(ctx context.Context, req *Request, order batch.LotOrder, valuation *decimal.Decimal) (*Plan, error) {
	plan := &Plan{}
	remaining := req.Quantity
	available := decimal.Zero

	for b, err := range e.lots.ActiveLots(ctx, req.ItemID, req.LocationID, order) {
		if err != nil {
			return nil, err
		}
		available = available.Add(b.RemainingQuantity)

		take := decimal.Min(remaining, b.RemainingQuantity)
		rate := b.UnitCost
		if valuation != nil {
			rate = *valuation
		}
		plan.Draws = append(plan.Draws, Draw{
			BatchID:       b.ID,
			BatchNumber:   b.BatchNumber,
			Quantity:      take,
			UnitCost:      rate,
			BatchUnitCost: b.UnitCost,
		})
		remaining = remaining.Sub(take)
		if remaining.IsZero() {
			return finishPlan(plan, req.Quantity), nil
		}
	}

	return nil, &model.InsufficientStockError{
		ItemID:     req.ItemID,
		LocationID: req.LocationID,
		Requested:  req.Quantity,
		Available:  available,
	}
}

// planWeightedAverage values the whole draw at Σ(remaining×cost)/Σ(remaining)
// over the active lots; physical draw-down reduces the oldest lots first.
func (e *Engine) planWeightedAverage(ctx context.Context, req *Request) (*Plan, error) {
	totalQty, totalValue, err := e.lots.ActiveTotals(ctx, req.ItemID, req.LocationID)
	if err != nil {
		return nil, err
	}
	if totalQty.LessThan(req.Quantity) {
		return nil, &model.InsufficientStockError{
			ItemID:     req.ItemID,
			LocationID: req.LocationID,
			Requested:  req.Quantity,
			Available:  totalQty,
		}
	}

	pooled := totalValue.Div(totalQty)
	plan, err := e.planSequential(ctx, req, batch.ReceivedDateAsc, &pooled)
	if err != nil {
		return nil, err
	}
	plan.UnitCost = pooled
	return plan, nil
}

// planNamedBatch draws the full quantity from one specific lot.
func (e *Engine) planNamedBatch(ctx context.Context, req *Request, batchID string) (*Plan, error) {
	b, err := e.lots.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.ItemID != req.ItemID || b.LocationID != req.LocationID {
		return nil, &model.ValidationError{Field: "batchId", Reason: "batch does not belong to the item/location"}
	}
	if !b.HasStock() || b.RemainingQuantity.LessThan(req.Quantity) {
		return nil, &model.InsufficientStockError{
			ItemID:     req.ItemID,
			LocationID: req.LocationID,
			Requested:  req.Quantity,
			Available:  b.RemainingQuantity,
		}
	}

	plan := &Plan{Draws: []Draw{{
		BatchID:       b.ID,
		BatchNumber:   b.BatchNumber,
		Quantity:      req.Quantity,
		UnitCost:      b.UnitCost,
		BatchUnitCost: b.UnitCost,
	}}}
	return finishPlan(plan, req.Quantity), nil
}

func finishPlan(plan *Plan, quantity decimal.Decimal) *Plan {
	total := decimal.Zero
	for _, d := range plan.Draws {
		total = total.Add(d.Quantity.Mul(d.UnitCost))
	}
	plan.TotalCost = total
	plan.UnitCost = total.Div(quantity)
	return plan
}
