package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/pkg/database"
)

// PostgresStore implements Store on PostgreSQL. Locking reads use SELECT ... FOR UPDATE.
type PostgresStore struct {
	db        *database.DB
	products  *ProductRepository
	batches   *BatchRepository
	audit     *AuditRepository
	sequences *SequenceRepository
}

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{
		db:        db,
		products:  NewProductRepository(db),
		batches:   NewBatchRepository(db),
		audit:     NewAuditRepository(db),
		sequences: NewSequenceRepository(db),
	}
}

func (s *PostgresStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *PostgresStore) UpsertProduct(ctx context.Context, p *domain.Product) error {
	return s.products.Upsert(ctx, p)
}

func (s *PostgresStore) DeactivateProduct(ctx context.Context, id string) error {
	return s.products.Deactivate(ctx, id)
}

func (s *PostgresStore) GetBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return s.batches.GetByID(ctx, id)
}

func (s *PostgresStore) ListBatches(ctx context.Context, productID string) ([]*domain.Batch, error) {
	return s.batches.ListByProduct(ctx, productID)
}

func (s *PostgresStore) ListExpiredCandidates(ctx context.Context, today time.Time) ([]*domain.Batch, error) {
	return s.batches.ListExpiredCandidates(ctx, today)
}

func (s *PostgresStore) ListAudit(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	return s.audit.List(ctx, filter)
}

func (s *PostgresStore) PruneAudit(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.audit.DeleteBefore(ctx, cutoff)
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.db.Transaction(ctx, func(sqlTx *sqlx.Tx) error {
		return fn(ctx, &postgresTx{
			products:  &ProductRepository{db: sqlTx},
			batches:   &BatchRepository{db: sqlTx},
			audit:     &AuditRepository{db: sqlTx},
			sequences: &SequenceRepository{db: sqlTx},
		})
	})
}

// postgresTx binds the repositories to one *sqlx.Tx
type postgresTx struct {
	products  *ProductRepository
	batches   *BatchRepository
	audit     *AuditRepository
	sequences *SequenceRepository
}

func (t *postgresTx) GetProductForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return t.products.GetForUpdate(ctx, id)
}

func (t *postgresTx) SetProductTotalStock(ctx context.Context, id string, total int) error {
	return t.products.SetTotalStock(ctx, id, total)
}

func (t *postgresTx) SumProductStock(ctx context.Context, productID string) (int, error) {
	return t.batches.SumRemaining(ctx, productID)
}

func (t *postgresTx) LockBatch(ctx context.Context, id string) (*domain.Batch, error) {
	return t.batches.GetForUpdate(ctx, id)
}

func (t *postgresTx) InsertBatch(ctx context.Context, b *domain.Batch) error {
	return t.batches.Create(ctx, b)
}

func (t *postgresTx) SetBatchQuantity(ctx context.Context, id string, quantity int) (*domain.Batch, error) {
	return t.batches.SetQuantity(ctx, id, quantity)
}

func (t *postgresTx) SetBatchStatus(ctx context.Context, id string, status domain.Status) error {
	return t.batches.SetStatus(ctx, id, status)
}

func (t *postgresTx) InsertAudit(ctx context.Context, e *domain.AuditEntry) error {
	return t.audit.Create(ctx, e)
}

func (t *postgresTx) NextBatchSequence(ctx context.Context, day time.Time) (int, error) {
	return t.sequences.Next(ctx, day)
}
