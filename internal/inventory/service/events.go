package service

import (
	"context"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
)

// EventPublisher receives notifications after a mutation has committed.
// Implementations must not block the caller on broker failures.
type EventPublisher interface {
	PublishBatchReceived(ctx context.Context, batch *domain.Batch, newProductTotal int, actorID string)
	PublishStockDeducted(ctx context.Context, result *domain.AllocationResult, actorID string)
	PublishStockAdjusted(ctx context.Context, result *domain.AdjustmentResult)
	PublishBatchQuarantined(ctx context.Context, batch *domain.Batch)
	PublishStockLow(ctx context.Context, product *domain.Product)
}

type nopPublisher struct{}

func (nopPublisher) PublishBatchReceived(context.Context, *domain.Batch, int, string) {}
func (nopPublisher) PublishStockDeducted(context.Context, *domain.AllocationResult, string) {}
func (nopPublisher) PublishStockAdjusted(context.Context, *domain.AdjustmentResult) {}
func (nopPublisher) PublishBatchQuarantined(context.Context, *domain.Batch) {}
func (nopPublisher) PublishStockLow(context.Context, *domain.Product) {}

func publisherOrNop(p EventPublisher) EventPublisher {
	if p == nil {
		return nopPublisher{}
	}
	return p
}
