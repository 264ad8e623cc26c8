package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// SequenceRepository hands out per-day batch number sequence values
type SequenceRepository struct {
	db sqlx.ExtContext
}

// NewSequenceRepository creates a new sequence repository
func NewSequenceRepository(db sqlx.ExtContext) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments the counter for day and returns the new value. The upsert takes a
// row lock, so concurrent callers always get distinct values.
func (r *SequenceRepository) Next(ctx context.Context, day time.Time) (int, error) {
	query := `
		INSERT INTO batch_number_sequences (day, last_value)
		VALUES ($1, 1)
		ON CONFLICT (day)
		DO UPDATE SET last_value = batch_number_sequences.last_value + 1
		RETURNING last_value
	`

	var value int
	if err := r.db.QueryRowxContext(ctx, query, dateArg(&day)).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}
