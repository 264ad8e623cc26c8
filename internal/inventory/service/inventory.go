package service

import (
	"context"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// InventoryService is the entry point used by the HTTP layer. It composes the
// ledger, allocator, processor, sweeper and audit log over one store.
type InventoryService struct {
	store     repository.Store
	ledger    *Ledger
	allocator *Allocator
	processor *Processor
	sweeper   *Sweeper
	audit     *AuditLog
	logger    *logger.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	store repository.Store,
	publisher EventPublisher,
	clock Clock,
	sweeperCfg SweeperConfig,
	log *logger.Logger,
) *InventoryService {
	return &InventoryService{
		store:     store,
		ledger:    NewLedger(store, publisher, clock, log),
		allocator: NewAllocator(store, log),
		processor: NewProcessor(store, publisher, clock, log),
		sweeper:   NewSweeper(store, publisher, clock, sweeperCfg, log),
		audit:     NewAuditLog(store),
		logger:    log,
	}
}

// Sweeper returns the maintenance sweeper, e.g. for the scheduler
func (s *InventoryService) Sweeper() *Sweeper {
	return s.sweeper
}

// Stock operations

// PlanAllocation computes a FEFO plan without changing anything
func (s *InventoryService) PlanAllocation(ctx context.Context, productID string, quantity int) (*domain.AllocationPlan, error) {
	return s.allocator.PlanAllocation(ctx, productID, quantity)
}

// ApplySaleAllocation applies a previously computed plan
func (s *InventoryService) ApplySaleAllocation(ctx context.Context, plan *domain.AllocationPlan, referenceID, actorID string) (*domain.AllocationResult, error) {
	return s.processor.ApplySaleAllocation(ctx, plan, referenceID, actorID)
}

// Sell plans and applies in one call. A ConcurrentModificationError is returned to
// the caller as is; retrying is the caller's decision.
func (s *InventoryService) Sell(ctx context.Context, productID string, quantity int, referenceID, actorID string) (*domain.AllocationResult, error) {
	plan, err := s.allocator.PlanAllocation(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	return s.processor.ApplySaleAllocation(ctx, plan, referenceID, actorID)
}

// ReceiveBatch records a goods receipt
func (s *InventoryService) ReceiveBatch(ctx context.Context, in ReceiveBatchInput, actorID string) (*domain.Batch, error) {
	return s.ledger.ReceiveBatch(ctx, in, actorID)
}

// AdjustBatch corrects a batch quantity after a recount
func (s *InventoryService) AdjustBatch(ctx context.Context, batchID string, newQuantity int, reason, actorID string) (*domain.AdjustmentResult, error) {
	return s.processor.ApplyManualAdjustment(ctx, batchID, newQuantity, reason, actorID)
}

// Reads

// GetProduct gets a product with its aggregate stock
func (s *InventoryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.store.GetProduct(ctx, id)
}

// ListBatches lists a product's batches in FEFO order
func (s *InventoryService) ListBatches(ctx context.Context, productID string, status domain.Status) ([]*domain.Batch, error) {
	return s.ledger.ListBatches(ctx, productID, status)
}

// GetBatch gets a batch by ID
func (s *InventoryService) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return s.ledger.GetBatch(ctx, id)
}

// ListAudit lists audit entries
func (s *InventoryService) ListAudit(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	return s.audit.List(ctx, filter)
}

// Maintenance

// RunMaintenanceSweep quarantines expired batches and prunes the audit log
func (s *InventoryService) RunMaintenanceSweep(ctx context.Context) (*domain.SweepReport, error) {
	return s.sweeper.Run(ctx)
}
