package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound marks a referenced item, location, batch or count sheet
	// that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConcurrencyConflict marks a lost race on a versioned row. It is the
	// only retryable error in the taxonomy: callers re-validate from a fresh
	// read before reapplying.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ValidationError reports a malformed or missing required field. Nothing has
// been mutated when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// InsufficientStockError rejects a debit that exceeds the total active
// remaining quantity for an item at a location.
type InsufficientStockError struct {
	ItemID     string
	LocationID string
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s at location %s: requested %s, available %s",
		e.ItemID, e.LocationID, e.Requested, e.Available)
}

// InsufficientBatchQuantityError rejects a debit that exceeds a single
// batch's remaining quantity.
type InsufficientBatchQuantityError struct {
	BatchID   string
	Requested decimal.Decimal
	Remaining decimal.Decimal
}

func (e *InsufficientBatchQuantityError) Error() string {
	return fmt.Sprintf("insufficient batch quantity on batch %s: requested %s, remaining %s",
		e.BatchID, e.Requested, e.Remaining)
}

// StockInvariantViolationError rejects a movement that would leave
// currentQuantity or reservedQuantity negative, or reserved above current.
type StockInvariantViolationError struct {
	ItemID     string
	LocationID string
	Current    decimal.Decimal
	Reserved   decimal.Decimal
}

func (e *StockInvariantViolationError) Error() string {
	return fmt.Sprintf("stock invariant violation for item %s at location %s: current %s, reserved %s",
		e.ItemID, e.LocationID, e.Current, e.Reserved)
}

// DuplicateBatchNumberError rejects a receipt reusing a batch number already
// recorded for the item.
type DuplicateBatchNumberError struct {
	ItemID      string
	BatchNumber string
}

func (e *DuplicateBatchNumberError) Error() string {
	return fmt.Sprintf("batch number %q already exists for item %s", e.BatchNumber, e.ItemID)
}

// IsRetryable reports whether the caller may retry the operation after a
// fresh read. Everything except a concurrency conflict is terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
