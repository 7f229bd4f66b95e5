// Package clock abstracts time so timers can be driven deterministically in tests.
package clock

import (
	"sync"
	"time"
)

// Clock reports the current time and schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Handle
}

// Handle cancels a scheduled callback.
type Handle interface {
	// Cancel reports whether the callback was prevented from running.
	Cancel() bool
}

// Real implements Clock using the standard time package.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Handle {
	return realHandle{t: time.AfterFunc(d, f)}
}

type realHandle struct {
	t *time.Timer
}

func (h realHandle) Cancel() bool { return h.t.Stop() }

// Manual is a Clock whose time only moves when Advance or Set is called.
// Due callbacks run synchronously on the goroutine calling Advance or Set, in
// deadline order. AfterFunc never runs the callback itself, even for d <= 0;
// Advance(0) flushes such callbacks.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers map[int]*manualTimer
}

type manualTimer struct {
	id  int
	at  time.Time
	f   func()
	clk *Manual
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start, timers: make(map[int]*manualTimer)}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Handle {
	m.mu.Lock()
	m.seq++
	t := &manualTimer{id: m.seq, at: m.now.Add(d), f: f, clk: m}
	m.timers[t.id] = t
	m.mu.Unlock()
	return t
}

// Advance moves time forward by d and runs every callback that became due.
// Each callback observes Now() equal to its own deadline.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()
	m.runUntil(target)
}

// Set moves time to t (never backwards) and runs due callbacks.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	target := m.now
	if t.After(target) {
		target = t
	}
	m.mu.Unlock()
	m.runUntil(target)
}

// Pending returns how many callbacks are still scheduled.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// runUntil fires timers due at or before target one at a time, stepping now
// to each deadline first, then settles now at target. Callbacks scheduled
// by a callback inside the window fire in the same call.
func (m *Manual) runUntil(target time.Time) {
	for {
		m.mu.Lock()
		next := m.earliestLocked(target)
		if next == nil {
			if target.After(m.now) {
				m.now = target
			}
			m.mu.Unlock()
			return
		}
		if next.at.After(m.now) {
			m.now = next.at
		}
		delete(m.timers, next.id)
		m.mu.Unlock()

		next.f()
	}
}

func (m *Manual) earliestLocked(target time.Time) *manualTimer {
	var next *manualTimer
	for _, t := range m.timers {
		if t.at.After(target) {
			continue
		}
		if next == nil || t.at.Before(next.at) || (t.at.Equal(next.at) && t.id < next.id) {
			next = t
		}
	}
	return next
}

func (t *manualTimer) Cancel() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	if _, ok := t.clk.timers[t.id]; !ok {
		return false
	}
	delete(t.clk.timers, t.id)
	return true
}
