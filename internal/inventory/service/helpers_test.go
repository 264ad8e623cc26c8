package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository/memory"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/stretchr/testify/require"
)

const (
	testProductID = "prod-amoxicillin"
	testActor     = "user-pharmacist"
)

// recordingPublisher keeps every published event type in order
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	low    []*domain.Product
}

func (p *recordingPublisher) record(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, name)
}

func (p *recordingPublisher) PublishBatchReceived(context.Context, *domain.Batch, int, string) {
	p.record("received")
}

func (p *recordingPublisher) PublishStockDeducted(context.Context, *domain.AllocationResult, string) {
	p.record("deducted")
}

func (p *recordingPublisher) PublishStockAdjusted(context.Context, *domain.AdjustmentResult) {
	p.record("adjusted")
}

func (p *recordingPublisher) PublishBatchQuarantined(context.Context, *domain.Batch) {
	p.record("quarantined")
}

func (p *recordingPublisher) PublishStockLow(_ context.Context, product *domain.Product) {
	p.mu.Lock()
	p.low = append(p.low, product)
	p.mu.Unlock()
	p.record("low")
}

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.events...)
}

// fixture is a service over a fresh memory store with a controllable clock
type fixture struct {
	now       time.Time
	store     *memory.Store
	publisher *recordingPublisher
	svc       *service.InventoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		now:       time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		publisher: &recordingPublisher{},
	}
	clock := service.Clock{Now: func() time.Time { return f.now }, Location: time.UTC}
	f.store = memory.New(memory.WithClock(clock.Now))
	f.svc = service.NewInventoryService(f.store, f.publisher, clock,
		service.SweeperConfig{RetentionDays: 365, ProtectDays: 30}, logger.Nop())

	require.NoError(t, f.store.UpsertProduct(context.Background(), &domain.Product{
		ID:               testProductID,
		Name:             "Amoxicillin 500mg",
		ReorderThreshold: 25,
		IsActive:         true,
	}))
	return f
}

func (f *fixture) date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func (f *fixture) receive(t *testing.T, number string, qty int, expiry *time.Time) *domain.Batch {
	t.Helper()
	b, err := f.svc.ReceiveBatch(context.Background(), service.ReceiveBatchInput{
		ProductID:   testProductID,
		Quantity:    qty,
		ExpiryDate:  expiry,
		BatchNumber: number,
	}, testActor)
	require.NoError(t, err)
	return b
}

// seedABC receives A (10, Mar), B (5, Jun), C (20, Dec) in scrambled order
func (f *fixture) seedABC(t *testing.T) (a, b, c *domain.Batch) {
	t.Helper()
	return f.seedABCWithC(t, f.date(2025, 12, 1))
}

// seedABCWithC is seedABC with C's expiry chosen by the caller; nil means C
// never expires
func (f *fixture) seedABCWithC(t *testing.T, cExpiry *time.Time) (a, b, c *domain.Batch) {
	t.Helper()
	c = f.receive(t, "C", 20, cExpiry)
	a = f.receive(t, "A", 10, f.date(2025, 3, 1))
	b = f.receive(t, "B", 5, f.date(2025, 6, 1))
	return a, b, c
}

func (f *fixture) remaining(t *testing.T, id string) int {
	t.Helper()
	b, err := f.svc.GetBatch(context.Background(), id)
	require.NoError(t, err)
	return b.QuantityRemaining
}

// assertConservation checks total_stock equals the sum of batch quantities
func (f *fixture) assertConservation(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	p, err := f.svc.GetProduct(ctx, testProductID)
	require.NoError(t, err)
	batches, err := f.svc.ListBatches(ctx, testProductID, "")
	require.NoError(t, err)

	sum := 0
	for _, b := range batches {
		sum += b.QuantityRemaining
	}
	require.Equal(t, sum, p.TotalStock, "total_stock must equal the sum of batch quantities")
}

// assertAuditComplete checks, per batch, that non-receipt deltas explain the
// difference between the received and the remaining quantity
func (f *fixture) assertAuditComplete(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	batches, err := f.svc.ListBatches(ctx, testProductID, "")
	require.NoError(t, err)

	deltas := make(map[string]int)
	for _, e := range f.store.Audit() {
		require.Equal(t, e.QuantityBefore+e.Delta, e.QuantityAfter)
		if e.BatchID != nil && e.Action != domain.ActionReceipt {
			deltas[*e.BatchID] += e.Delta
		}
	}
	for _, b := range batches {
		require.Equal(t, b.QuantityRemaining-b.QuantityOriginal, deltas[b.ID], "batch %s", b.BatchNumber)
	}
}
