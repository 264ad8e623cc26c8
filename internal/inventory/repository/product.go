package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
)

const productColumns = `id, name, reorder_threshold, total_stock, is_active, updated_at`

// ProductRepository handles the local product projection
type ProductRepository struct {
	db sqlx.ExtContext
}

// NewProductRepository creates a new product repository
func NewProductRepository(db sqlx.ExtContext) *ProductRepository {
	return &ProductRepository{db: db}
}

// Get gets a product by ID
func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate gets a product by ID and locks its row until the transaction ends
func (r *ProductRepository) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return r.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductRepository) get(ctx context.Context, query, id string) (*domain.Product, error) {
	var p domain.Product
	if err := sqlx.GetContext(ctx, r.db, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert creates or updates the catalog-owned fields of a product.
// total_stock is owned by this service and is left untouched.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, reorder_threshold, is_active, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id)
		DO UPDATE SET name = $2, reorder_threshold = $3, is_active = $4, updated_at = NOW()
		RETURNING total_stock, updated_at
	`

	return r.db.QueryRowxContext(ctx, query, p.ID, p.Name, p.ReorderThreshold, p.IsActive).
		Scan(&p.TotalStock, &p.UpdatedAt)
}

// Deactivate marks a product inactive. Unknown products are ignored.
func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

// SetTotalStock overwrites the cached aggregate
func (r *ProductRepository) SetTotalStock(ctx context.Context, id string, total int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET total_stock = $2, updated_at = NOW() WHERE id = $1`, id, total)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
