package events

import (
	"context"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/medflow/pharmacy-inventory/pkg/messaging"
)

// eventSink is the subset of messaging.Publisher used here
type eventSink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// InventoryEventPublisher publishes inventory-related events.
// A nil publisher is valid and drops every event, which is how the service runs
// without RabbitMQ.
type InventoryEventPublisher struct {
	publisher eventSink
	logger    *logger.Logger
}

// NewInventoryEventPublisher creates a new inventory event publisher
func NewInventoryEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InventoryEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInventoryEvents, "inventory-service", log)
	if err != nil {
		return nil, err
	}

	return &InventoryEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishBatchReceived publishes a batch received event
func (p *InventoryEventPublisher) PublishBatchReceived(ctx context.Context, batch *domain.Batch, newProductTotal int, actorID string) {
	if p == nil {
		return
	}

	data := messaging.BatchReceivedEvent{
		ProductID:       batch.ProductID,
		BatchID:         batch.ID,
		BatchNumber:     batch.BatchNumber,
		Quantity:        batch.QuantityOriginal,
		ExpiryDate:      batch.ExpiryDate,
		NewProductTotal: newProductTotal,
		ActorID:         actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchReceived, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch received event")
	}
}

// PublishStockDeducted publishes a stock deducted event
func (p *InventoryEventPublisher) PublishStockDeducted(ctx context.Context, result *domain.AllocationResult, actorID string) {
	if p == nil {
		return
	}

	lines := make([]messaging.BatchDeduction, 0, len(result.Batches))
	for _, b := range result.Batches {
		lines = append(lines, messaging.BatchDeduction{
			BatchID:     b.BatchID,
			BatchNumber: b.BatchNumber,
			Quantity:    b.Quantity,
		})
	}

	data := messaging.StockDeductedEvent{
		ProductID:       result.ProductID,
		ReferenceID:     result.ReferenceID,
		TotalDeducted:   result.TotalDeducted,
		NewProductTotal: result.NewProductTotal,
		Batches:         lines,
		ActorID:         actorID,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockDeducted, data); err != nil {
		p.logger.Error().Err(err).
			Str("product_id", result.ProductID).
			Str("reference_id", result.ReferenceID).
			Msg("failed to publish stock deducted event")
	}
}

// PublishStockAdjusted publishes a stock adjusted event
func (p *InventoryEventPublisher) PublishStockAdjusted(ctx context.Context, result *domain.AdjustmentResult) {
	if p == nil {
		return
	}

	reason := ""
	if result.Audit != nil && result.Audit.Reason != nil {
		reason = *result.Audit.Reason
	}
	performedBy := ""
	if result.Audit != nil {
		performedBy = result.Audit.ActorID
	}

	data := messaging.StockAdjustedEvent{
		ProductID:       result.Batch.ProductID,
		BatchID:         result.Batch.ID,
		Adjustment:      result.Delta,
		NewQuantity:     result.Batch.QuantityRemaining,
		NewProductTotal: result.NewProductTotal,
		PerformedBy:     performedBy,
		Reason:          reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockAdjusted, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", result.Batch.ID).Msg("failed to publish stock adjusted event")
	}
}

// PublishBatchQuarantined publishes a batch quarantined event
func (p *InventoryEventPublisher) PublishBatchQuarantined(ctx context.Context, batch *domain.Batch) {
	if p == nil {
		return
	}

	data := messaging.BatchQuarantinedEvent{
		ProductID:   batch.ProductID,
		BatchID:     batch.ID,
		BatchNumber: batch.BatchNumber,
		ExpiryDate:  batch.ExpiryDate,
		Quantity:    batch.QuantityRemaining,
	}

	if err := p.publisher.Publish(ctx, messaging.EventBatchQuarantined, data); err != nil {
		p.logger.Error().Err(err).Str("batch_id", batch.ID).Msg("failed to publish batch quarantined event")
	}
}

// PublishStockLow publishes a low stock event
func (p *InventoryEventPublisher) PublishStockLow(ctx context.Context, product *domain.Product) {
	if p == nil {
		return
	}

	data := messaging.StockLowEvent{
		ProductID:        product.ID,
		ProductName:      product.Name,
		TotalStock:       product.TotalStock,
		ReorderThreshold: product.ReorderThreshold,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockLow, data); err != nil {
		p.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to publish stock low event")
	}
}
