package repository

import (
	"context"
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
)

// Store is the persistence boundary of the stock engine. Reads outside WithTx take no
// locks; every quantity change goes through a Tx.
type Store interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	// UpsertProduct writes catalog-owned fields and never touches total_stock
	UpsertProduct(ctx context.Context, p *domain.Product) error
	DeactivateProduct(ctx context.Context, id string) error

	GetBatch(ctx context.Context, id string) (*domain.Batch, error)
	// ListBatches returns every batch of a product in FEFO order
	ListBatches(ctx context.Context, productID string) ([]*domain.Batch, error)
	// ListExpiredCandidates returns non-quarantined batches with stock whose expiry
	// date is before today
	ListExpiredCandidates(ctx context.Context, today time.Time) ([]*domain.Batch, error)

	ListAudit(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error)
	// PruneAudit hard-deletes audit entries created before cutoff
	PruneAudit(ctx context.Context, cutoff time.Time) (int64, error)

	// WithTx runs fn in one transaction. A non-nil error from fn rolls back every
	// write made through tx and is returned unchanged.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of writes and locking reads available inside a transaction.
// Lock order is product first, then batches in the order the caller needs them.
type Tx interface {
	GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error)
	SetProductTotalStock(ctx context.Context, id string, total int) error
	// SumProductStock sums quantity_remaining over all batches of the product
	SumProductStock(ctx context.Context, productID string) (int, error)

	LockBatch(ctx context.Context, id string) (*domain.Batch, error)
	InsertBatch(ctx context.Context, b *domain.Batch) error
	// SetBatchQuantity overwrites quantity_remaining and refreshes the cached
	// status. It writes no audit entry.
	SetBatchQuantity(ctx context.Context, id string, quantity int) (*domain.Batch, error)
	SetBatchStatus(ctx context.Context, id string, status domain.Status) error

	InsertAudit(ctx context.Context, e *domain.AuditEntry) error
	// NextBatchSequence atomically increments and returns the counter for day
	NextBatchSequence(ctx context.Context, day time.Time) (int, error)
}
