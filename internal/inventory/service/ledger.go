package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/shopspring/decimal"
)

// maxBatchNumberAttempts bounds retries when a generated batch number collides
// with a caller-supplied one
const maxBatchNumberAttempts = 3

// FormatBatchNumber renders a generated batch number: BT + YYMMDD + "-" + sequence
func FormatBatchNumber(day time.Time, seq int) string {
	return fmt.Sprintf("BT%s-%03d", day.Format("060102"), seq)
}

// ReceiveBatchInput describes a goods receipt
type ReceiveBatchInput struct {
	ProductID    string
	Quantity     int
	ExpiryDate   *time.Time
	BatchNumber  string
	CostPerUnit  *decimal.Decimal
	Supplier     *string
	ReceivedDate *time.Time
}

// Ledger owns batch creation and batch reads
type Ledger struct {
	store     repository.Store
	publisher EventPublisher
	clock     Clock
	logger    *logger.Logger
}

// NewLedger creates a new batch ledger
func NewLedger(store repository.Store, publisher EventPublisher, clock Clock, log *logger.Logger) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisherOrNop(publisher),
		clock:     clock,
		logger:    log.WithComponent("ledger"),
	}
}

// ReceiveBatch records a new batch with original = remaining = quantity, writes a
// receipt audit entry and refreshes the product aggregate in one transaction.
func (l *Ledger) ReceiveBatch(ctx context.Context, in ReceiveBatchInput, actorID string) (*domain.Batch, error) {
	if in.Quantity <= 0 || in.Quantity > domain.MaxBatchQuantity {
		return nil, domain.ErrInvalidQuantity
	}
	if in.CostPerUnit != nil && in.CostPerUnit.IsNegative() {
		return nil, domain.ErrInvalidCost
	}

	today := l.clock.Today()
	received := today
	if in.ReceivedDate != nil {
		received = domain.DateOf(*in.ReceivedDate)
	}
	var expiry *time.Time
	if in.ExpiryDate != nil {
		d := domain.DateOf(*in.ExpiryDate)
		expiry = &d
	}

	batch := &domain.Batch{
		ProductID:         in.ProductID,
		BatchNumber:       strings.TrimSpace(in.BatchNumber),
		QuantityRemaining: in.Quantity,
		QuantityOriginal:  in.Quantity,
		ExpiryDate:        expiry,
		ReceivedDate:      received,
		UnitCost:          in.CostPerUnit,
		Supplier:          in.Supplier,
		Status:            domain.StoredStatusFor(domain.StatusActive, in.Quantity),
	}

	var total int
	err := l.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		product, err := tx.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if !product.IsActive {
			return domain.ErrProductNotFound
		}

		if err := l.insertBatch(ctx, tx, batch, today); err != nil {
			return err
		}

		entry := domain.NewAuditEntry(batch.ProductID, &batch.ID, 0, batch.QuantityRemaining, domain.ActionReceipt, actorID)
		if err := tx.InsertAudit(ctx, entry); err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}

		total, err = recomputeTotalStock(ctx, tx, batch.ProductID)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("product_id", batch.ProductID).
		Str("batch_id", batch.ID).
		Str("batch_number", batch.BatchNumber).
		Int("quantity", batch.QuantityOriginal).
		Int("total_stock", total).
		Msg("batch received")

	l.publisher.PublishBatchReceived(ctx, batch, total, actorID)

	batch.Status = batch.EffectiveStatus(today)
	return batch, nil
}

// insertBatch inserts b, generating a batch number when none was supplied
func (l *Ledger) insertBatch(ctx context.Context, tx repository.Tx, b *domain.Batch, today time.Time) error {
	if b.BatchNumber != "" {
		return tx.InsertBatch(ctx, b)
	}

	for attempt := 1; attempt <= maxBatchNumberAttempts; attempt++ {
		seq, err := tx.NextBatchSequence(ctx, today)
		if err != nil {
			return fmt.Errorf("next batch sequence: %w", err)
		}
		b.BatchNumber = FormatBatchNumber(today, seq)

		err = tx.InsertBatch(ctx, b)
		if !errors.Is(err, domain.ErrDuplicateBatchNumber) {
			return err
		}
		l.logger.Warn().
			Str("product_id", b.ProductID).
			Str("batch_number", b.BatchNumber).
			Int("attempt", attempt).
			Msg("generated batch number already taken")
	}
	return fmt.Errorf("generate batch number after %d attempts: %w", maxBatchNumberAttempts, domain.ErrDuplicateBatchNumber)
}

// ListBatches lists a product's batches in FEFO order with their current status.
// A non-empty status keeps only batches in that status.
func (l *Ledger) ListBatches(ctx context.Context, productID string, status domain.Status) ([]*domain.Batch, error) {
	if _, err := l.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	batches, err := l.store.ListBatches(ctx, productID)
	if err != nil {
		return nil, err
	}

	today := l.clock.Today()
	out := make([]*domain.Batch, 0, len(batches))
	for _, b := range batches {
		b.Status = b.EffectiveStatus(today)
		if status != "" && b.Status != status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// GetBatch gets a batch with its current status
func (l *Ledger) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	b, err := l.store.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Status = b.EffectiveStatus(l.clock.Today())
	return b, nil
}
