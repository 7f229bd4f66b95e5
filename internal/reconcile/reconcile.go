// Package reconcile periodically repairs machine records whose timers were
// lost, e.g. after a failed commit on a completion fire.
package reconcile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"laundry-coordinator/internal/engine"
	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/metrics"
)

// Sweeper is the engine operation the service drives.
type Sweeper interface {
	Sweep(ctx context.Context) (engine.SweepReport, error)
}

type Service struct {
	sweeper Sweeper
	logger  zerolog.Logger
}

func New(sweeper Sweeper) *Service {
	return &Service{sweeper: sweeper, logger: log.WithComponent("reconcile")}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Once(ctx)
		}
	}
}

// Once runs a single sweep and records what it repaired.
func (s *Service) Once(ctx context.Context) engine.SweepReport {
	report, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("sweep failed")
	}
	metrics.RecordRepair("finished_overdue", report.FinishedOverdue)
	metrics.RecordRepair("cleared_stop", report.ClearedStops)
	if report.FinishedOverdue > 0 || report.ClearedStops > 0 {
		s.logger.Info().
			Int("finished_overdue", report.FinishedOverdue).
			Int("cleared_stops", report.ClearedStops).
			Msg("records repaired")
	}
	return report
}
