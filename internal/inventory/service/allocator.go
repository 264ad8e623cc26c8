package service

import (
	"context"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// Allocator plans FEFO deductions. Planning is read-only and takes no locks; the
// Processor re-validates every line when the plan is applied.
type Allocator struct {
	store  repository.Store
	logger *logger.Logger
}

// NewAllocator creates a new FEFO allocator
func NewAllocator(store repository.Store, log *logger.Logger) *Allocator {
	return &Allocator{
		store:  store,
		logger: log.WithComponent("allocator"),
	}
}

// PlanAllocation walks the product's allocatable batches in FEFO order and takes
// from each until quantity is covered. If the batches cannot cover it, no partial
// plan is returned.
func (a *Allocator) PlanAllocation(ctx context.Context, productID string, quantity int) (*domain.AllocationPlan, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	product, err := a.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, domain.ErrProductNotFound
	}

	batches, err := a.store.ListBatches(ctx, productID)
	if err != nil {
		return nil, err
	}

	eligible := make([]*domain.Batch, 0, len(batches))
	available := 0
	for _, b := range batches {
		if b.Allocatable() {
			eligible = append(eligible, b)
			available += b.QuantityRemaining
		}
	}

	if available < quantity {
		a.logger.Debug().
			Str("product_id", productID).
			Int("available", available).
			Int("requested", quantity).
			Msg("insufficient stock for allocation")
		return nil, &domain.InsufficientStockError{ProductID: productID, Available: available, Requested: quantity}
	}

	domain.SortFEFO(eligible)

	plan := &domain.AllocationPlan{ProductID: productID, RequestedQuantity: quantity}
	remaining := quantity
	for _, b := range eligible {
		if remaining == 0 {
			break
		}
		take := b.QuantityRemaining
		if take > remaining {
			take = remaining
		}
		plan.Lines = append(plan.Lines, domain.AllocationLine{
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
			ExpiryDate:  b.ExpiryDate,
		})
		remaining -= take
	}

	return plan, nil
}
