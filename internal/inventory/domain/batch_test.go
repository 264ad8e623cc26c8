package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortFEFO(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

	batches := []*Batch{
		{ID: "undated-new", CreatedAt: t0.Add(3 * time.Hour)},
		{ID: "feb", ExpiryDate: date(2025, 2, 1), CreatedAt: t0},
		{ID: "undated-old", CreatedAt: t0.Add(1 * time.Hour)},
		{ID: "jan-new", ExpiryDate: date(2025, 1, 1), CreatedAt: t0.Add(2 * time.Hour)},
		{ID: "jan-old", ExpiryDate: date(2025, 1, 1), CreatedAt: t0},
		{ID: "jan-old-b", ExpiryDate: date(2025, 1, 1), CreatedAt: t0},
	}

	SortFEFO(batches)

	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	assert.Equal(t, []string{"jan-old", "jan-old-b", "jan-new", "feb", "undated-old", "undated-new"}, ids)
}

func TestAllocationPlan_Validate(t *testing.T) {
	valid := &AllocationPlan{
		ProductID:         "p",
		RequestedQuantity: 12,
		Lines: []AllocationLine{
			{BatchID: "a", Quantity: 10},
			{BatchID: "b", Quantity: 2},
		},
	}
	assert.NoError(t, valid.Validate())
	assert.Equal(t, 12, valid.Total())

	overflowing := []AllocationLine{
		{BatchID: "a", Quantity: math.MaxInt},
		{BatchID: "b", Quantity: math.MaxInt},
		{BatchID: "c", Quantity: 3},
	}
	tests := map[string]*AllocationPlan{
		"nil plan":         nil,
		"no lines":         {ProductID: "p", RequestedQuantity: 1},
		"missing product":  {RequestedQuantity: 1, Lines: []AllocationLine{{BatchID: "a", Quantity: 1}}},
		"zero line":        {ProductID: "p", RequestedQuantity: 1, Lines: []AllocationLine{{BatchID: "a", Quantity: 0}, {BatchID: "b", Quantity: 1}}},
		"total mismatch":   {ProductID: "p", RequestedQuantity: 5, Lines: []AllocationLine{{BatchID: "a", Quantity: 4}}},
		"duplicate batch":  {ProductID: "p", RequestedQuantity: 2, Lines: []AllocationLine{{BatchID: "a", Quantity: 1}, {BatchID: "a", Quantity: 1}}},
		"negative request": {ProductID: "p", RequestedQuantity: -1, Lines: []AllocationLine{{BatchID: "a", Quantity: 1}}},
		"line > request":   {ProductID: "p", RequestedQuantity: 3, Lines: []AllocationLine{{BatchID: "a", Quantity: 4}}},
		"overflowing sum":  {ProductID: "p", RequestedQuantity: 1, Lines: overflowing},
	}
	for name, plan := range tests {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, plan.Validate(), ErrInvalidPlan)
		})
	}
}

func TestNewAuditEntry_DeltaInvariant(t *testing.T) {
	batchID := "b"
	e := NewAuditEntry("p", &batchID, 10, 3, ActionSaleDeduction, "actor").
		WithReason("").
		WithReference("sale-1")

	assert.Equal(t, -7, e.Delta)
	assert.Equal(t, e.QuantityAfter, e.QuantityBefore+e.Delta)
	assert.Nil(t, e.Reason)
	if assert.NotNil(t, e.ReferenceID) {
		assert.Equal(t, "sale-1", *e.ReferenceID)
	}
}

func TestTypedErrorsUnwrap(t *testing.T) {
	var err error = &InsufficientStockError{ProductID: "p", Available: 35, Requested: 1000}
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "available 35")

	err = &ConcurrentModificationError{BatchID: "b"}
	assert.ErrorIs(t, err, ErrConcurrentModification)
}
