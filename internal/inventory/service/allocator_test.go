package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAllocation_FEFO(t *testing.T) {
	f := newFixture(t)
	a, b, _ := f.seedABC(t)

	plan, err := f.svc.PlanAllocation(context.Background(), testProductID, 12)
	require.NoError(t, err)

	require.Len(t, plan.Lines, 2)
	assert.Equal(t, a.ID, plan.Lines[0].BatchID)
	assert.Equal(t, 10, plan.Lines[0].Quantity)
	assert.Equal(t, b.ID, plan.Lines[1].BatchID)
	assert.Equal(t, 2, plan.Lines[1].Quantity)
	assert.Equal(t, 12, plan.Total())
	require.NoError(t, plan.Validate())

	// planning is read-only
	assert.Equal(t, 10, f.remaining(t, a.ID))
	assert.Len(t, f.store.Audit(), 3)
}

func TestPlanAllocation_UndatedBatchesLast(t *testing.T) {
	f := newFixture(t)
	undated := f.receive(t, "undated", 5, nil)
	dated := f.receive(t, "dated", 5, f.date(2030, 1, 1))

	plan, err := f.svc.PlanAllocation(context.Background(), testProductID, 7)
	require.NoError(t, err)
	require.Len(t, plan.Lines, 2)
	assert.Equal(t, dated.ID, plan.Lines[0].BatchID)
	assert.Equal(t, undated.ID, plan.Lines[1].BatchID)
	assert.Equal(t, 2, plan.Lines[1].Quantity)
}

func TestPlanAllocation_SameExpiryOldestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.receive(t, "first", 5, f.date(2026, 1, 1))
	f.receive(t, "second", 5, f.date(2026, 1, 1))

	plan, err := f.svc.PlanAllocation(context.Background(), testProductID, 5)
	require.NoError(t, err)
	require.Len(t, plan.Lines, 1)
	assert.Equal(t, first.ID, plan.Lines[0].BatchID)
}

func TestPlanAllocation_SkipsQuarantinedKeepsExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := f.receive(t, "expired", 4, f.date(2025, 1, 1))
	quarantined := f.receive(t, "quarantined", 4, f.date(2024, 12, 1))
	fresh := f.receive(t, "fresh", 4, f.date(2026, 1, 1))

	require.NoError(t, f.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.SetBatchStatus(ctx, quarantined.ID, domain.StatusQuarantined)
	}))

	plan, err := f.svc.PlanAllocation(ctx, testProductID, 8)
	require.NoError(t, err)
	require.Len(t, plan.Lines, 2)
	assert.Equal(t, expired.ID, plan.Lines[0].BatchID)
	assert.Equal(t, fresh.ID, plan.Lines[1].BatchID)

	_, err = f.svc.PlanAllocation(ctx, testProductID, 9)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 8, insufficient.Available)
}

func TestPlanAllocation_Insufficient(t *testing.T) {
	f := newFixture(t)
	f.seedABC(t)

	plan, err := f.svc.PlanAllocation(context.Background(), testProductID, 1000)
	assert.Nil(t, plan)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 35, insufficient.Available)
	assert.Equal(t, 1000, insufficient.Requested)
}

func TestPlanAllocation_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.PlanAllocation(ctx, testProductID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.PlanAllocation(ctx, testProductID, -5)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.PlanAllocation(ctx, "unknown", 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	// no batches at all
	_, err = f.svc.PlanAllocation(ctx, testProductID, 1)
	var insufficient *domain.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 0, insufficient.Available)
}
