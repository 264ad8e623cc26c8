package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/pkg/database"
)

const (
	batchColumns = `id, product_id, batch_number, quantity_remaining, quantity_original,
		expiry_date, received_date, unit_cost, supplier, status, created_at, updated_at`

	// fefoOrder must match domain.FEFOLess
	fefoOrder = `expiry_date ASC NULLS LAST, created_at ASC, id ASC`

	constraintBatchNumber   = "batches_product_batch_number_key"
	constraintBatchQuantity = "batches_quantity_check"
)

// BatchRepository handles batch persistence
type BatchRepository struct {
	db sqlx.ExtContext
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db sqlx.ExtContext) *BatchRepository {
	return &BatchRepository{db: db}
}

// Create inserts a new batch. A duplicate (product, batch number) pair is reported
// as domain.ErrDuplicateBatchNumber without aborting the surrounding transaction,
// so callers may retry with another number.
func (r *BatchRepository) Create(ctx context.Context, b *domain.Batch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}

	query := `
		INSERT INTO batches (
			id, product_id, batch_number, quantity_remaining, quantity_original,
			expiry_date, received_date, unit_cost, supplier, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT ON CONSTRAINT ` + constraintBatchNumber + ` DO NOTHING
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		b.ID, b.ProductID, b.BatchNumber, b.QuantityRemaining, b.QuantityOriginal,
		dateArg(b.ExpiryDate), dateArg(&b.ReceivedDate), b.UnitCost, b.Supplier, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) || database.IsUniqueViolation(err, constraintBatchNumber) {
		return domain.ErrDuplicateBatchNumber
	}
	if database.IsForeignKeyViolation(err) {
		return domain.ErrProductNotFound
	}
	return err
}

// GetByID gets a batch by ID
func (r *BatchRepository) GetByID(ctx context.Context, id string) (*domain.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1`, id)
}

// GetForUpdate gets a batch by ID and locks its row until the transaction ends
func (r *BatchRepository) GetForUpdate(ctx context.Context, id string) (*domain.Batch, error) {
	return r.get(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *BatchRepository) get(ctx context.Context, query, id string) (*domain.Batch, error) {
	var b domain.Batch
	if err := sqlx.GetContext(ctx, r.db, &b, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		return nil, err
	}
	return &b, nil
}

// ListByProduct lists all batches of a product in FEFO order
func (r *BatchRepository) ListByProduct(ctx context.Context, productID string) ([]*domain.Batch, error) {
	var batches []*domain.Batch
	query := `SELECT ` + batchColumns + ` FROM batches WHERE product_id = $1 ORDER BY ` + fefoOrder
	if err := sqlx.SelectContext(ctx, r.db, &batches, query, productID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListExpiredCandidates lists batches the sweeper should quarantine
func (r *BatchRepository) ListExpiredCandidates(ctx context.Context, today time.Time) ([]*domain.Batch, error) {
	var batches []*domain.Batch
	query := `
		SELECT ` + batchColumns + `
		FROM batches
		WHERE expiry_date < $1::date
		  AND status <> 'quarantined'
		  AND quantity_remaining > 0
		ORDER BY ` + fefoOrder
	if err := sqlx.SelectContext(ctx, r.db, &batches, query, dateArg(&today)); err != nil {
		return nil, err
	}
	return batches, nil
}

// SumRemaining sums quantity_remaining over all batches of a product
func (r *BatchRepository) SumRemaining(ctx context.Context, productID string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(quantity_remaining), 0) FROM batches WHERE product_id = $1`
	if err := r.db.QueryRowxContext(ctx, query, productID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// SetQuantity overwrites quantity_remaining. The cached status follows the quantity
// unless the batch is quarantined.
func (r *BatchRepository) SetQuantity(ctx context.Context, id string, quantity int) (*domain.Batch, error) {
	if quantity < 0 {
		return nil, domain.ErrNegativeQuantity
	}

	query := `
		UPDATE batches
		SET quantity_remaining = $2,
		    status = CASE
		        WHEN status = 'quarantined' THEN status
		        WHEN $2 = 0 THEN 'depleted'
		        ELSE 'active'
		    END,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + batchColumns

	var b domain.Batch
	if err := sqlx.GetContext(ctx, r.db, &b, query, id, quantity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrBatchNotFound
		}
		if database.IsCheckViolation(err, constraintBatchQuantity) {
			return nil, domain.ErrInvalidQuantity
		}
		return nil, err
	}
	return &b, nil
}

// SetStatus overwrites the stored status
func (r *BatchRepository) SetStatus(ctx context.Context, id string, status domain.Status) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE batches SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrBatchNotFound
	}
	return nil
}

// dateArg renders a calendar date for a DATE column. Passing time.Time would let
// the session time zone shift the day.
func dateArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}
