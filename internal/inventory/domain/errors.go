package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors of the stock engine. Typed errors below unwrap to these so
// callers can use errors.Is for classification and errors.As for details.
var (
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrNegativeQuantity       = errors.New("negative quantity")
	ErrProductNotFound        = errors.New("product not found")
	ErrBatchNotFound          = errors.New("batch not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrConcurrentModification = errors.New("stock changed, please retry")
	ErrDuplicateBatchNumber   = errors.New("batch number already exists")
	ErrInvalidPlan            = errors.New("invalid allocation plan")
	ErrReasonRequired         = errors.New("adjustment reason is required")
	ErrInvalidCost            = errors.New("unit cost must not be negative")
)

// InsufficientStockError reports how much stock could actually be allocated
type InsufficientStockError struct {
	ProductID string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ConcurrentModificationError names the batch whose quantity changed between
// planning and applying
type ConcurrentModificationError struct {
	BatchID string
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("batch %s changed since the allocation was planned", e.BatchID)
}

func (e *ConcurrentModificationError) Unwrap() error { return ErrConcurrentModification }
