package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
)

const auditColumns = `id, product_id, batch_id, delta, quantity_before, quantity_after,
	action, reason, actor_id, reference_id, created_at`

// AuditRepository handles audit log persistence.
// Entries are append-only; the retention prune is the only delete path.
type AuditRepository struct {
	db sqlx.ExtContext
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db sqlx.ExtContext) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit entry
func (r *AuditRepository) Create(ctx context.Context, e *domain.AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO audit_entries (
			id, product_id, batch_id, delta, quantity_before, quantity_after,
			action, reason, actor_id, reference_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	return r.db.QueryRowxContext(ctx, query,
		e.ID, e.ProductID, e.BatchID, e.Delta, e.QuantityBefore, e.QuantityAfter,
		e.Action, e.Reason, e.ActorID, e.ReferenceID,
	).Scan(&e.CreatedAt)
}

// List lists audit entries matching filter, oldest first
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, error) {
	filter.Normalize()

	var conditions []string
	var args []interface{}
	argNum := 1

	add := func(column string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, argNum))
		args = append(args, value)
		argNum++
	}

	if filter.ProductID != "" {
		add("product_id", filter.ProductID)
	}
	if filter.BatchID != "" {
		add("batch_id", filter.BatchID)
	}
	if filter.ReferenceID != "" {
		add("reference_id", filter.ReferenceID)
	}
	if filter.Action != "" {
		add("action", filter.Action)
	}

	query := `SELECT ` + auditColumns + ` FROM audit_entries`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(` ORDER BY created_at ASC, seq ASC LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	var entries []*domain.AuditEntry
	if err := sqlx.SelectContext(ctx, r.db, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// DeleteBefore hard-deletes entries created before cutoff and returns how many
func (r *AuditRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM audit_entries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
