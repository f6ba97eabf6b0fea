package worker

import (
	"context"
	"log/slog"
	"time"
)

const defaultSweepInterval = time.Hour

// OverdueSweeper is the loan engine operation the sweeper drives.
type OverdueSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// Sweeper runs the overdue sweep once at start and then on every tick.
type Sweeper struct {
	loans    OverdueSweeper
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(loans OverdueSweeper, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{loans: loans, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled and then returns nil. A failed sweep is logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "overdue sweeper started", "interval", s.interval)
	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "overdue sweeper stopped")
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	marked, err := s.loans.SweepOverdue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "overdue sweep failed", "marked", marked, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "overdue sweep finished", "marked", marked)
}
