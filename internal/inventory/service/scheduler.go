package service

import (
	"context"
	"errors"
	"time"

	"github.com/medflow/pharmacy-inventory/pkg/lease"
	"github.com/medflow/pharmacy-inventory/pkg/logger"
)

// SweepLeaseKey is the lease key shared by all replicas
const SweepLeaseKey = "maintenance-sweep"

// SweepScheduler runs the maintenance sweep periodically. Each tick first takes a
// lease so that only one replica sweeps at a time.
type SweepScheduler struct {
	sweeper  *Sweeper
	lease    lease.Lease
	interval time.Duration
	leaseTTL time.Duration
	logger   *logger.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(sweeper *Sweeper, l lease.Lease, interval, leaseTTL time.Duration, log *logger.Logger) *SweepScheduler {
	return &SweepScheduler{
		sweeper:  sweeper,
		lease:    l,
		interval: interval,
		leaseTTL: leaseTTL,
		logger:   log.WithComponent("sweep-scheduler"),
	}
}

// Start starts the scheduler in a background goroutine
func (s *SweepScheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		s.logger.Info().Dur("interval", s.interval).Msg("sweep scheduler started")

		// Run an initial sweep immediately
		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("sweep scheduler stopped")
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine and waits for a running sweep to return
func (s *SweepScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

// RunOnce sweeps if the lease can be taken. It reports whether a sweep ran.
func (s *SweepScheduler) RunOnce(ctx context.Context) bool {
	token, ok, err := s.lease.Acquire(ctx, SweepLeaseKey, s.leaseTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to acquire sweep lease")
		return false
	}
	if !ok {
		s.logger.Debug().Msg("sweep lease held by another replica, skipping")
		return false
	}
	defer func() {
		// release on a fresh context so shutdown does not leave the lease behind
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.lease.Release(releaseCtx, SweepLeaseKey, token); err != nil && !errors.Is(err, lease.ErrNotHeld) {
			s.logger.Warn().Err(err).Msg("failed to release sweep lease")
		}
	}()

	sweepCtx, cancel := context.WithTimeout(ctx, s.leaseTTL)
	defer cancel()

	start := time.Now()
	report, err := s.sweeper.Run(sweepCtx)
	if err != nil {
		s.logger.Error().Err(err).Msg("maintenance sweep failed")
		return true
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("quarantined", report.Quarantined).
		Int("failed", report.Failed).
		Int64("pruned", report.Pruned).
		Msg("maintenance sweep completed")
	return true
}
