package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// Processor applies quantity changes atomically: batch rows, product aggregate and
// audit entries commit together or not at all.
//
// Locking: the product row is locked first, then each batch in the order it is
// touched. Every mutating path follows this order.
type Processor struct {
	store     repository.Store
	publisher EventPublisher
	clock     Clock
	logger    *logger.Logger
}

// NewProcessor creates a new transaction processor
func NewProcessor(store repository.Store, publisher EventPublisher, clock Clock, log *logger.Logger) *Processor {
	return &Processor{
		store:     store,
		publisher: publisherOrNop(publisher),
		clock:     clock,
		logger:    log.WithComponent("processor"),
	}
}

// ApplySaleAllocation deducts every line of plan. Each batch is re-checked under its
// row lock; if it was quarantined or no longer holds the planned amount the whole
// sale fails with a ConcurrentModificationError and nothing is written. There is
// no automatic retry.
func (p *Processor) ApplySaleAllocation(ctx context.Context, plan *domain.AllocationPlan, referenceID, actorID string) (*domain.AllocationResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	result := &domain.AllocationResult{
		ProductID:   plan.ProductID,
		ReferenceID: referenceID,
	}
	var product *domain.Product

	err := p.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		product, err = tx.GetProductForUpdate(ctx, plan.ProductID)
		if err != nil {
			return err
		}

		before, err := tx.SumProductStock(ctx, plan.ProductID)
		if err != nil {
			return fmt.Errorf("sum stock: %w", err)
		}

		deductions := make([]domain.BatchDeduction, 0, len(plan.Lines))
		for _, line := range plan.Lines {
			batch, err := tx.LockBatch(ctx, line.BatchID)
			if err != nil {
				return err
			}
			if batch.ProductID != plan.ProductID {
				return fmt.Errorf("batch %s belongs to another product: %w", batch.ID, domain.ErrInvalidPlan)
			}
			if batch.IsQuarantined() || batch.QuantityRemaining < line.Quantity {
				return &domain.ConcurrentModificationError{BatchID: batch.ID}
			}

			updated, err := tx.SetBatchQuantity(ctx, batch.ID, batch.QuantityRemaining-line.Quantity)
			if err != nil {
				return err
			}

			entry := domain.NewAuditEntry(batch.ProductID, &batch.ID, batch.QuantityRemaining, updated.QuantityRemaining,
				domain.ActionSaleDeduction, actorID).WithReference(referenceID)
			if err := tx.InsertAudit(ctx, entry); err != nil {
				return fmt.Errorf("insert audit: %w", err)
			}

			deductions = append(deductions, domain.BatchDeduction{
				BatchID:        batch.ID,
				BatchNumber:    batch.BatchNumber,
				Quantity:       line.Quantity,
				ExpiryDate:     batch.ExpiryDate,
				RemainingAfter: updated.QuantityRemaining,
			})
		}

		after, err := recomputeTotalStock(ctx, tx, plan.ProductID)
		if err != nil {
			return err
		}

		summary := domain.NewAuditEntry(plan.ProductID, nil, before, after, domain.ActionSaleDeduction, actorID).
			WithReference(referenceID)
		if err := tx.InsertAudit(ctx, summary); err != nil {
			return fmt.Errorf("insert summary audit: %w", err)
		}

		product.TotalStock = after
		result.Batches = deductions
		result.TotalDeducted = plan.Total()
		result.NewProductTotal = after
		return nil
	})
	if err != nil {
		p.logger.Warn().Err(err).
			Str("product_id", plan.ProductID).
			Str("reference_id", referenceID).
			Msg("sale allocation rejected")
		return nil, err
	}

	p.logger.Info().
		Str("product_id", result.ProductID).
		Str("reference_id", referenceID).
		Int("deducted", result.TotalDeducted).
		Int("batches", len(result.Batches)).
		Int("total_stock", result.NewProductTotal).
		Msg("sale allocation applied")

	p.publisher.PublishStockDeducted(ctx, result, actorID)
	if product.BelowReorderThreshold() {
		p.publisher.PublishStockLow(ctx, product)
	}

	return result, nil
}

// ApplyManualAdjustment overwrites a batch's remaining quantity after a recount.
// The new quantity may not exceed what was originally received.
func (p *Processor) ApplyManualAdjustment(ctx context.Context, batchID string, newQuantity int, reason, actorID string) (*domain.AdjustmentResult, error) {
	if newQuantity < 0 {
		return nil, domain.ErrNegativeQuantity
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrReasonRequired
	}

	// product id is immutable, so an unlocked read is enough to know which product
	// row to lock first
	current, err := p.store.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	result := &domain.AdjustmentResult{}
	var product *domain.Product

	err = p.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		product, err = tx.GetProductForUpdate(ctx, current.ProductID)
		if err != nil {
			return err
		}

		batch, err := tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if newQuantity > batch.QuantityOriginal {
			return domain.ErrInvalidQuantity
		}

		updated, err := tx.SetBatchQuantity(ctx, batch.ID, newQuantity)
		if err != nil {
			return err
		}

		entry := domain.NewAuditEntry(batch.ProductID, &batch.ID, batch.QuantityRemaining, updated.QuantityRemaining,
			domain.ActionManualAdjustment, actorID).WithReason(reason)
		if err := tx.InsertAudit(ctx, entry); err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}

		total, err := recomputeTotalStock(ctx, tx, batch.ProductID)
		if err != nil {
			return err
		}

		product.TotalStock = total
		result.Batch = updated
		result.Delta = entry.Delta
		result.NewProductTotal = total
		result.Audit = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Batch.Status = result.Batch.EffectiveStatus(p.clock.Today())

	p.logger.Info().
		Str("product_id", result.Batch.ProductID).
		Str("batch_id", result.Batch.ID).
		Int("delta", result.Delta).
		Int("quantity", result.Batch.QuantityRemaining).
		Str("reason", reason).
		Msg("batch adjusted")

	p.publisher.PublishStockAdjusted(ctx, result)
	if result.Delta < 0 && product.BelowReorderThreshold() {
		p.publisher.PublishStockLow(ctx, product)
	}

	return result, nil
}
