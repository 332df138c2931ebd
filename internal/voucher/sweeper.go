package voucher

import (
	"context"
	"log/slog"
	"time"
)

// ExpirySweep is the operation the sweeper drives on each tick
type ExpirySweep interface {
	SweepExpired(ctx context.Context) ([]string, error)
}

// Sweeper periodically transitions due time vouchers to expired in bulk.
// The sweep is an efficiency measure for consumers that query storage
// directly; correctness never depends on it because reads re-evaluate
// expiry themselves.
type Sweeper struct {
	sweep     ExpirySweep
	interval  time.Duration
	logger    *slog.Logger
	onExpired func(ids []string)
}

// NewSweeper creates a sweeper. onExpired may be nil; when set it receives
// the ids transitioned by each sweep (used for event broadcasting).
func NewSweeper(sweep ExpirySweep, interval time.Duration, logger *slog.Logger, onExpired func(ids []string)) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		sweep:     sweep,
		interval:  interval,
		logger:    logger.With(slog.String("component", "expiry_sweeper")),
		onExpired: onExpired,
	}
}

// Run executes the sweep loop until the context is cancelled. The sweep may
// run concurrently with reads; readers snapshot status once per read so a
// mid-query flip from active to expired is harmless.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "expiry sweeper started",
		slog.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expiry sweeper stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	ids, err := s.sweep.SweepExpired(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed",
			slog.String("error", err.Error()),
		)
		return
	}
	if len(ids) > 0 && s.onExpired != nil {
		s.onExpired(ids)
	}
}
