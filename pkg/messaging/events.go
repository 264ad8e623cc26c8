package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Inventory events (published)
	EventBatchReceived    = "inventory.batch.received"
	EventStockDeducted    = "inventory.stock.deducted"
	EventStockAdjusted    = "inventory.stock.adjusted"
	EventBatchQuarantined = "inventory.batch.quarantined"
	EventStockLow         = "inventory.stock.low"

	// Catalog events (consumed)
	EventProductUpserted    = "catalog.product.upserted"
	EventProductDeactivated = "catalog.product.deactivated"
)

// Exchange names
const (
	ExchangeInventoryEvents = "inventory.events"
	ExchangeCatalogEvents   = "catalog.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Inventory Events

// BatchReceivedEvent is published when a new batch is received into stock
type BatchReceivedEvent struct {
	ProductID       string     `json:"product_id"`
	BatchID         string     `json:"batch_id"`
	BatchNumber     string     `json:"batch_number"`
	Quantity        int        `json:"quantity"`
	ExpiryDate      *time.Time `json:"expiry_date,omitempty"`
	NewProductTotal int        `json:"new_product_total"`
	ActorID         string     `json:"actor_id"`
}

// BatchDeduction is one line of a StockDeductedEvent
type BatchDeduction struct {
	BatchID     string `json:"batch_id"`
	BatchNumber string `json:"batch_number"`
	Quantity    int    `json:"quantity"`
}

// StockDeductedEvent is published after a sale allocation is applied
type StockDeductedEvent struct {
	ProductID       string           `json:"product_id"`
	ReferenceID     string           `json:"reference_id"`
	TotalDeducted   int              `json:"total_deducted"`
	NewProductTotal int              `json:"new_product_total"`
	Batches         []BatchDeduction `json:"batches"`
	ActorID         string           `json:"actor_id"`
}

// StockAdjustedEvent is published when a batch quantity is corrected manually
type StockAdjustedEvent struct {
	ProductID       string `json:"product_id"`
	BatchID         string `json:"batch_id"`
	Adjustment      int    `json:"adjustment"`
	NewQuantity     int    `json:"new_quantity"`
	NewProductTotal int    `json:"new_product_total"`
	PerformedBy     string `json:"performed_by"`
	Reason          string `json:"reason"`
}

// BatchQuarantinedEvent is published when the sweeper quarantines an expired batch
type BatchQuarantinedEvent struct {
	ProductID   string     `json:"product_id"`
	BatchID     string     `json:"batch_id"`
	BatchNumber string     `json:"batch_number"`
	ExpiryDate  *time.Time `json:"expiry_date,omitempty"`
	Quantity    int        `json:"quantity"`
}

// StockLowEvent is published when a product's total stock falls below its reorder threshold
type StockLowEvent struct {
	ProductID        string `json:"product_id"`
	ProductName      string `json:"product_name"`
	TotalStock       int    `json:"total_stock"`
	ReorderThreshold int    `json:"reorder_threshold"`
}

// Catalog Events

// ProductUpsertedEvent is published by the catalog when a product is created or changed
type ProductUpsertedEvent struct {
	ProductID        string `json:"product_id"`
	Name             string `json:"name"`
	ReorderThreshold int    `json:"reorder_threshold"`
	IsActive         bool   `json:"is_active"`
}

// ProductDeactivatedEvent is published by the catalog when a product is retired
type ProductDeactivatedEvent struct {
	ProductID string `json:"product_id"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return uuid.New().String()
}
