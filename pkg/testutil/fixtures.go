package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/shopspring/decimal"
)

// FixtureFactory creates test fixtures with sensible defaults
type FixtureFactory struct {
	sequence int
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{sequence: 0}
}

func (f *FixtureFactory) nextSeq() int {
	f.sequence++
	return f.sequence
}

// Product creates an active catalog product with no stock
func (f *FixtureFactory) Product(opts ...func(*domain.Product)) *domain.Product {
	seq := f.nextSeq()
	p := &domain.Product{
		ID:               uuid.New().String(),
		Name:             fmt.Sprintf("Test Product %d", seq),
		ReorderThreshold: 10,
		IsActive:         true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithProductName sets the product name
func WithProductName(name string) func(*domain.Product) {
	return func(p *domain.Product) {
		p.Name = name
	}
}

// WithReorderThreshold sets the low-stock threshold
func WithReorderThreshold(threshold int) func(*domain.Product) {
	return func(p *domain.Product) {
		p.ReorderThreshold = threshold
	}
}

// Inactive marks the product as retired by the catalog
func Inactive() func(*domain.Product) {
	return func(p *domain.Product) {
		p.IsActive = false
	}
}

// Batch creates an unsaved active batch of productID. Quantity defaults to 10
// and expiry to one year after received.
func (f *FixtureFactory) Batch(productID string, opts ...func(*domain.Batch)) *domain.Batch {
	seq := f.nextSeq()
	received := Date(2025, time.January, 1)
	expiry := received.AddDate(1, 0, 0)
	cost := decimal.RequireFromString("1.25")

	b := &domain.Batch{
		ProductID:         productID,
		BatchNumber:       fmt.Sprintf("LOT-%04d", seq),
		QuantityRemaining: 10,
		QuantityOriginal:  10,
		ExpiryDate:        &expiry,
		ReceivedDate:      received,
		UnitCost:          &cost,
		Status:            domain.StatusActive,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithQuantity sets both the original and remaining quantity
func WithQuantity(qty int) func(*domain.Batch) {
	return func(b *domain.Batch) {
		b.QuantityOriginal = qty
		b.QuantityRemaining = qty
		b.Status = domain.StoredStatusFor(b.Status, qty)
	}
}

// WithExpiry sets the expiry date; nil means the batch never expires
func WithExpiry(expiry *time.Time) func(*domain.Batch) {
	return func(b *domain.Batch) {
		b.ExpiryDate = expiry
	}
}

// WithBatchNumber sets the supplier lot number
func WithBatchNumber(number string) func(*domain.Batch) {
	return func(b *domain.Batch) {
		b.BatchNumber = number
	}
}

// Quarantined marks the batch as withdrawn from sale
func Quarantined() func(*domain.Batch) {
	return func(b *domain.Batch) {
		b.Status = domain.StatusQuarantined
	}
}

// Date returns midnight UTC of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date returning a pointer
func DatePtr(year int, month time.Month, day int) *time.Time {
	d := Date(year, month, day)
	return &d
}
