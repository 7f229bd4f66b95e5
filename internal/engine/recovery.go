package engine

import (
	"context"
	"time"

	"laundry-coordinator/internal/model"
	"laundry-coordinator/internal/scheduler"
)

// RestoreReport counts what Restore did.
type RestoreReport struct {
	Rescheduled int
	Finished    int
}

// Restore re-arms the timers of every Running machine after a restart. A
// cycle whose end already passed is finished right away.
func (e *Engine) Restore(ctx context.Context) (RestoreReport, error) {
	var report RestoreReport
	for _, id := range e.reg.IDs() {
		var finished, rescheduled bool
		_, err := e.apply(ctx, "restore", id, "system", func(m *model.Machine, now time.Time, fx *effects) error {
			if m.Status != model.StatusRunning || m.CurrentUser == nil {
				return nil
			}
			if m.CycleEndAt == nil || !now.Before(*m.CycleEndAt) {
				e.finish(m, now, fx)
				finished = true
				return nil
			}
			fx.schedule = true
			rescheduled = true
			return nil
		})
		if err != nil {
			return report, err
		}
		if finished {
			report.Finished++
		}
		if rescheduled {
			report.Rescheduled++
		}
	}
	e.logger.Info().
		Int("rescheduled", report.Rescheduled).
		Int("finished", report.Finished).
		Msg("timers restored")
	return report, nil
}

// SweepReport counts the repairs made by Sweep.
type SweepReport struct {
	FinishedOverdue int
	ClearedStops    int
}

// Sweep finishes Running machines past their end that have no completion
// timer armed, and drops expired stop proposals. Errors on one machine do not
// stop the sweep; the first is returned.
func (e *Engine) Sweep(ctx context.Context) (SweepReport, error) {
	var (
		report   SweepReport
		firstErr error
	)
	for _, id := range e.reg.IDs() {
		var finished, cleared bool
		_, err := e.apply(ctx, "sweep", id, "system", func(m *model.Machine, now time.Time, fx *effects) error {
			if m.PendingStopUntil != nil && now.After(*m.PendingStopUntil) {
				m.PendingStopUntil = nil
				fx.changed = true
				cleared = true
			}
			if m.Status != model.StatusRunning || m.CurrentUser == nil {
				return nil
			}
			overdue := m.CycleEndAt == nil || !now.Before(*m.CycleEndAt)
			if overdue && !e.timers.Pending(m.ID, m.CycleID, scheduler.KindCompletion) {
				e.finish(m, now, fx)
				finished = true
			}
			return nil
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if cleared {
			report.ClearedStops++
		}
		if finished {
			report.FinishedOverdue++
		}
	}
	return report, firstErr
}
