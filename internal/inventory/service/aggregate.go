package service

import (
	"context"
	"fmt"

	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
)

// recomputeTotalStock sums the product's batch quantities and stores the result on
// the product row. It must run inside the mutating transaction, after the product
// row has been locked.
func recomputeTotalStock(ctx context.Context, tx repository.Tx, productID string) (int, error) {
	total, err := tx.SumProductStock(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("sum stock: %w", err)
	}
	if err := tx.SetProductTotalStock(ctx, productID, total); err != nil {
		return 0, fmt.Errorf("set total stock: %w", err)
	}
	return total, nil
}
