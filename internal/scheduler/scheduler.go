// Package scheduler keeps the warning and completion timers of running cycles.
//
// The scheduler only delivers fire events. It never decides whether a fire is
// still meaningful: the receiver re-checks the machine record under the
// machine lock and discards fires for cycles that ended or were replaced.
package scheduler

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"laundry-coordinator/internal/clock"
	"laundry-coordinator/internal/log"
)

// Kind identifies one of the two timers of a cycle.
type Kind string

const (
	KindWarning    Kind = "warning"
	KindCompletion Kind = "completion"
)

// FireFunc receives timer fires. It runs on the clock's goroutine.
type FireFunc func(machineID string, cycle uint64, kind Kind)

type cycleTimers struct {
	cycle   uint64
	handles map[Kind]clock.Handle
}

// Scheduler tracks at most one cycle's timers per machine.
type Scheduler struct {
	clock  clock.Clock
	fire   FireFunc
	logger zerolog.Logger

	mu      sync.Mutex
	pending map[string]*cycleTimers
}

// New creates a scheduler that reports fires to fire.
func New(clk clock.Clock, fire FireFunc) *Scheduler {
	return &Scheduler{
		clock:   clk,
		fire:    fire,
		logger:  log.WithComponent("scheduler"),
		pending: make(map[string]*cycleTimers),
	}
}

// Schedule arms the timers of a cycle ending at endAt, replacing whatever was
// armed for the machine. The warning fires lead before endAt and is skipped
// when the remaining time is not longer than lead.
func (s *Scheduler) Schedule(machineID string, cycle uint64, endAt time.Time, lead time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(machineID)

	now := s.clock.Now()
	ct := &cycleTimers{cycle: cycle, handles: make(map[Kind]clock.Handle, 2)}

	if warnAt := endAt.Add(-lead); lead > 0 && warnAt.After(now) {
		ct.handles[KindWarning] = s.clock.AfterFunc(warnAt.Sub(now), s.callback(machineID, cycle, KindWarning))
	}
	ct.handles[KindCompletion] = s.clock.AfterFunc(endAt.Sub(now), s.callback(machineID, cycle, KindCompletion))
	s.pending[machineID] = ct

	s.logger.Debug().
		Str(log.FieldMachineID, machineID).
		Uint64(log.FieldCycle, cycle).
		Time("end_at", endAt).
		Bool("warning", ct.handles[KindWarning] != nil).
		Msg("timers scheduled")
}

// Cancel disarms every timer of the machine and returns how many were stopped
// before firing. A fire that already started is not stopped; its receiver
// sees the updated record and discards it.
func (s *Scheduler) Cancel(machineID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(machineID)
}

func (s *Scheduler) cancelLocked(machineID string) int {
	ct, ok := s.pending[machineID]
	if !ok {
		return 0
	}
	delete(s.pending, machineID)

	stopped := 0
	for _, h := range ct.handles {
		if h.Cancel() {
			stopped++
		}
	}
	return stopped
}

// Pending reports whether a timer of the given kind is armed for the cycle.
func (s *Scheduler) Pending(machineID string, cycle uint64, kind Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ct, ok := s.pending[machineID]
	if !ok || ct.cycle != cycle {
		return false
	}
	_, ok = ct.handles[kind]
	return ok
}

// Stop disarms every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.pending {
		s.cancelLocked(id)
	}
}

func (s *Scheduler) callback(machineID string, cycle uint64, kind Kind) func() {
	return func() {
		s.mu.Lock()
		if ct, ok := s.pending[machineID]; ok && ct.cycle == cycle {
			delete(ct.handles, kind)
			if len(ct.handles) == 0 {
				delete(s.pending, machineID)
			}
		}
		s.mu.Unlock()

		s.fire(machineID, cycle, kind)
	}
}
