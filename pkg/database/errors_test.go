package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestPQCode(t *testing.T) {
	err := fmt.Errorf("insert batch: %w", &pq.Error{Code: CodeForeignKeyViolation})

	assert.Equal(t, CodeForeignKeyViolation, PQCode(err))
	assert.Equal(t, "", PQCode(errors.New("boom")))
	assert.True(t, IsForeignKeyViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	err := &pq.Error{Code: CodeUniqueViolation, Constraint: "batches_product_id_batch_number_key"}

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "batches_product_id_batch_number_key"))
	assert.False(t, IsUniqueViolation(err, "products_pkey"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: CodeCheckViolation}, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestIsCheckViolation(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &pq.Error{Code: CodeCheckViolation, Constraint: "batches_quantity_check"})

	assert.True(t, IsCheckViolation(err, "batches_quantity_check"))
	assert.False(t, IsCheckViolation(err, "other"))
	assert.False(t, IsCheckViolation(&pq.Error{Code: CodeNotNullViolation}, ""))
}
