package consumers

import (
	"context"
	"fmt"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/medflow/pharmacy-inventory/pkg/messaging"
)

// CatalogQueue is the durable queue this service reads catalog events from
const CatalogQueue = "inventory-service.catalog-events"

// ProductStore is the part of the inventory store the catalog projection writes to
type ProductStore interface {
	UpsertProduct(ctx context.Context, p *domain.Product) error
	DeactivateProduct(ctx context.Context, id string) error
}

// CatalogEventConsumer keeps the local product projection in sync with the catalog
type CatalogEventConsumer struct {
	consumer *messaging.Consumer
	products ProductStore
	logger   *logger.Logger
}

// NewCatalogEventConsumer creates a new catalog event consumer
func NewCatalogEventConsumer(rmq *messaging.RabbitMQ, products ProductStore, log *logger.Logger) (*CatalogEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, CatalogQueue, log)
	if err != nil {
		return nil, err
	}

	// Subscribe to catalog product events
	if err := consumer.Subscribe(messaging.ExchangeCatalogEvents, "catalog.product.#"); err != nil {
		return nil, err
	}

	c := &CatalogEventConsumer{
		consumer: consumer,
		products: products,
		logger:   log,
	}
	c.register(consumer)

	return c, nil
}

// Start starts consuming messages
func (c *CatalogEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *CatalogEventConsumer) register(consumer *messaging.Consumer) {
	consumer.RegisterHandler(messaging.EventProductUpserted, c.handleProductUpserted)
	consumer.RegisterHandler(messaging.EventProductDeactivated, c.handleProductDeactivated)
}

func (c *CatalogEventConsumer) handleProductUpserted(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductUpsertedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrMalformedEvent, err)
	}
	if data.ProductID == "" || data.ReorderThreshold < 0 {
		return fmt.Errorf("%w: product_id required and reorder_threshold must not be negative", messaging.ErrMalformedEvent)
	}

	c.logger.Info().
		Str("product_id", data.ProductID).
		Str("name", data.Name).
		Bool("is_active", data.IsActive).
		Msg("received product upserted event")

	return c.products.UpsertProduct(ctx, &domain.Product{
		ID:               data.ProductID,
		Name:             data.Name,
		ReorderThreshold: data.ReorderThreshold,
		IsActive:         data.IsActive,
	})
}

func (c *CatalogEventConsumer) handleProductDeactivated(ctx context.Context, event *messaging.Event) error {
	var data messaging.ProductDeactivatedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("%w: %v", messaging.ErrMalformedEvent, err)
	}
	if data.ProductID == "" {
		return fmt.Errorf("%w: product_id required", messaging.ErrMalformedEvent)
	}

	c.logger.Info().
		Str("product_id", data.ProductID).
		Msg("received product deactivated event")

	// batches are kept for traceability; the product just stops accepting stock
	return c.products.DeactivateProduct(ctx, data.ProductID)
}
