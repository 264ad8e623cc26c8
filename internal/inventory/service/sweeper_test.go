package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository/memory"
	"github.com/medflow/pharmacy-inventory/internal/inventory/service"
	"github.com/medflow/pharmacy-inventory/pkg/actor"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarantineExpiredBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	expired := f.receive(t, "expired", 6, f.date(2025, 1, 14))
	today := f.receive(t, "today", 6, f.date(2025, 1, 15))
	undated := f.receive(t, "undated", 6, nil)
	empty := f.receive(t, "empty", 6, f.date(2024, 12, 1))
	_, err := f.svc.AdjustBatch(ctx, empty.ID, 0, "destroyed", testActor)
	require.NoError(t, err)

	report, err := f.svc.Sweeper().QuarantineExpiredBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Quarantined)
	assert.Equal(t, 0, report.Failed)

	got, err := f.svc.GetBatch(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuarantined, got.Status)
	assert.Equal(t, 6, got.QuantityRemaining, "quarantine keeps the quantity")

	for _, id := range []string{today.ID, undated.ID, empty.ID} {
		b, err := f.svc.GetBatch(ctx, id)
		require.NoError(t, err)
		assert.NotEqual(t, domain.StatusQuarantined, b.Status)
	}

	entries, err := f.svc.ListAudit(ctx, domain.AuditFilter{Action: domain.ActionQuarantine})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Delta)
	assert.Equal(t, actor.SystemID, entries[0].ActorID)
	assert.Equal(t, service.QuarantineReason, *entries[0].Reason)

	// quarantined stock still counts towards the aggregate
	f.assertConservation(t)
	f.assertAuditComplete(t)
}

func TestQuarantineExpiredBatches_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "expired", 6, f.date(2025, 1, 1))

	first, err := f.svc.Sweeper().QuarantineExpiredBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Quarantined)

	second, err := f.svc.Sweeper().QuarantineExpiredBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Quarantined)

	entries, err := f.svc.ListAudit(ctx, domain.AuditFilter{Action: domain.ActionQuarantine})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestQuarantinedBatchIsNotSold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "expired", 6, f.date(2025, 1, 1))
	fresh := f.receive(t, "fresh", 6, f.date(2026, 1, 1))

	_, err := f.svc.RunMaintenanceSweep(ctx)
	require.NoError(t, err)

	result, err := f.svc.Sell(ctx, testProductID, 4, "sale-after-sweep", testActor)
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	assert.Equal(t, fresh.ID, result.Batches[0].BatchID)

	_, err = f.svc.Sell(ctx, testProductID, 3, "too-much", testActor)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestPruneAuditLog_RespectsProtectFloor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "A", 1, nil)

	// retention below the floor is raised to the floor
	pruned, err := f.svc.Sweeper().PruneAuditLog(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pruned)

	f.now = f.now.AddDate(0, 0, 29)
	pruned, err = f.svc.Sweeper().PruneAuditLog(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pruned)

	f.now = f.now.AddDate(0, 0, 2)
	pruned, err = f.svc.Sweeper().PruneAuditLog(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pruned)
	assert.Empty(t, f.store.Audit())
}

func TestRunMaintenanceSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receive(t, "old", 2, nil)

	// a year later the receipt above is past the 365 day retention
	f.now = f.now.AddDate(1, 0, 1)
	f.receive(t, "expired", 3, f.date(2025, 6, 1))

	report, err := f.svc.RunMaintenanceSweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Quarantined)
	assert.Equal(t, int64(1), report.Pruned)
	assert.Equal(t, 0, report.Failed)
	assert.Contains(t, f.publisher.Events(), "quarantined")
}

// lockFailingStore fails LockBatch for one batch id and delegates everything else
type lockFailingStore struct {
	*memory.Store
	batchID string
}

func (s *lockFailingStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.Store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(ctx, &lockFailingTx{Tx: tx, batchID: s.batchID})
	})
}

type lockFailingTx struct {
	repository.Tx
	batchID string
}

func (t *lockFailingTx) LockBatch(ctx context.Context, id string) (*domain.Batch, error) {
	if id == t.batchID {
		return nil, errors.New("lock timeout")
	}
	return t.Tx.LockBatch(ctx, id)
}

func TestQuarantineExpiredBatches_FailureDoesNotStopSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stuck := f.receive(t, "stuck", 4, f.date(2025, 1, 2))
	expired := f.receive(t, "expired", 6, f.date(2025, 1, 3))

	clock := service.Clock{Now: func() time.Time { return f.now }, Location: time.UTC}
	sweeper := service.NewSweeper(&lockFailingStore{Store: f.store, batchID: stuck.ID}, f.publisher, clock,
		service.SweeperConfig{RetentionDays: 365, ProtectDays: 30}, logger.Nop())

	report, err := sweeper.QuarantineExpiredBatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Quarantined)
	assert.Equal(t, 1, report.Failed)

	got, err := f.svc.GetBatch(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQuarantined, got.Status)

	got, err = f.svc.GetBatch(ctx, stuck.ID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.StatusQuarantined, got.Status)

	entries, err := f.svc.ListAudit(ctx, domain.AuditFilter{Action: domain.ActionQuarantine})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, expired.ID, *entries[0].BatchID)
	f.assertAuditComplete(t)
}
