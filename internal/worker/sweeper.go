package worker

import (
	"context"
	"time"

	"marketplace-payments/internal/usecase"

	"go.uber.org/zap"
)

// SweepScheduler drives the sweeper service on a fixed interval. It runs
// once immediately at startup so restarts catch up on anything that came
// due while the process was down.
type SweepScheduler struct {
	sweeper  usecase.SweeperService
	interval time.Duration
	log      *zap.Logger
}

func NewSweepScheduler(sweeper usecase.SweeperService, interval time.Duration, log *zap.Logger) *SweepScheduler {
	return &SweepScheduler{
		sweeper:  sweeper,
		interval: interval,
		log:      log.With(zap.String("worker", "sweep_scheduler")),
	}
}

// Run blocks until ctx is cancelled. Call it from its own goroutine.
func (w *SweepScheduler) Run(ctx context.Context) {
	w.log.Info("Sweep scheduler started", zap.Duration("interval", w.interval))

	w.sweep(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Sweep scheduler stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SweepScheduler) sweep(ctx context.Context) {
	if _, err := w.sweeper.ExpirePendingPayments(ctx); err != nil {
		w.log.Error("Pending payment sweep failed", zap.Error(err))
	}
	if _, err := w.sweeper.ReleaseDueHolds(ctx); err != nil {
		w.log.Error("Hold release sweep failed", zap.Error(err))
	}
}
