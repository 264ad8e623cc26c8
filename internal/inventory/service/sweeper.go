package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medflow/pharmacy-inventory/internal/inventory/domain"
	"github.com/medflow/pharmacy-inventory/internal/inventory/repository"
	"github.com/medflow/pharmacy-inventory/pkg/actor"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// QuarantineReason is recorded on audit entries written by the sweeper
const QuarantineReason = "expired"

// errNoLongerCandidate means the batch changed between listing and locking
var errNoLongerCandidate = errors.New("batch is no longer a quarantine candidate")

// SweeperConfig holds the audit retention settings
type SweeperConfig struct {
	// RetentionDays is the retention window used by Run
	RetentionDays int
	// ProtectDays is the floor below which PruneAuditLog never deletes
	ProtectDays int
}

// Sweeper quarantines expired batches and prunes the audit log
type Sweeper struct {
	store     repository.Store
	publisher EventPublisher
	clock     Clock
	cfg       SweeperConfig
	logger    *logger.Logger
}

// NewSweeper creates a new maintenance sweeper
func NewSweeper(store repository.Store, publisher EventPublisher, clock Clock, cfg SweeperConfig, log *logger.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		publisher: publisherOrNop(publisher),
		clock:     clock,
		cfg:       cfg,
		logger:    log.WithComponent("sweeper"),
	}
}

// QuarantineExpiredBatches marks every expired, non-empty batch as quarantined.
// Each batch is handled in its own transaction; a failure is counted and the
// sweep moves on. Running it twice quarantines nothing the second time.
func (s *Sweeper) QuarantineExpiredBatches(ctx context.Context) (*domain.SweepReport, error) {
	today := s.clock.Today()

	candidates, err := s.store.ListExpiredCandidates(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("list expired batches: %w", err)
	}

	report := &domain.SweepReport{}
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := s.quarantine(ctx, c.ID, c.ProductID, today)
		switch {
		case errors.Is(err, errNoLongerCandidate):
			continue
		case err != nil:
			report.Failed++
			s.logger.Error().Err(err).
				Str("product_id", c.ProductID).
				Str("batch_id", c.ID).
				Msg("failed to quarantine batch")
			continue
		}

		report.Quarantined++
		s.logger.Info().
			Str("product_id", batch.ProductID).
			Str("batch_id", batch.ID).
			Str("batch_number", batch.BatchNumber).
			Int("quantity", batch.QuantityRemaining).
			Msg("batch quarantined")
		s.publisher.PublishBatchQuarantined(ctx, batch)
	}

	return report, nil
}

func (s *Sweeper) quarantine(ctx context.Context, batchID, productID string, today time.Time) (*domain.Batch, error) {
	var batch *domain.Batch
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		if _, err := tx.GetProductForUpdate(ctx, productID); err != nil {
			return err
		}

		b, err := tx.LockBatch(ctx, batchID)
		if err != nil {
			return err
		}
		if b.IsQuarantined() || b.QuantityRemaining == 0 || domain.Classify(b.QuantityRemaining, b.ExpiryDate, today) != domain.StatusExpired {
			return errNoLongerCandidate
		}

		if err := tx.SetBatchStatus(ctx, b.ID, domain.StatusQuarantined); err != nil {
			return err
		}

		entry := domain.NewAuditEntry(b.ProductID, &b.ID, b.QuantityRemaining, b.QuantityRemaining,
			domain.ActionQuarantine, actor.SystemID).WithReason(QuarantineReason)
		if err := tx.InsertAudit(ctx, entry); err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}

		b.Status = domain.StatusQuarantined
		batch = b
		return nil
	})
	return batch, err
}

// PruneAuditLog hard-deletes audit entries older than retentionDays. The configured
// protect floor is never undercut, whatever retentionDays says.
func (s *Sweeper) PruneAuditLog(ctx context.Context, retentionDays int) (int64, error) {
	days := retentionDays
	if days < s.cfg.ProtectDays {
		days = s.cfg.ProtectDays
	}

	cutoff := s.clock.now().AddDate(0, 0, -days)
	pruned, err := s.store.PruneAudit(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit log: %w", err)
	}

	if pruned > 0 {
		s.logger.Info().
			Int64("pruned", pruned).
			Int("retention_days", days).
			Time("cutoff", cutoff).
			Msg("audit log pruned")
	}
	return pruned, nil
}

// Run performs one full maintenance sweep: quarantine, then prune
func (s *Sweeper) Run(ctx context.Context) (*domain.SweepReport, error) {
	report, err := s.QuarantineExpiredBatches(ctx)
	if err != nil {
		return report, err
	}

	pruned, err := s.PruneAuditLog(ctx, s.cfg.RetentionDays)
	if err != nil {
		return report, err
	}
	report.Pruned = pruned

	return report, nil
}
