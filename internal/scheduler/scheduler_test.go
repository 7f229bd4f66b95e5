package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"laundry-coordinator/internal/clock"
)

type fireRecord struct {
	machineID string
	cycle     uint64
	kind      Kind
}

type recorder struct {
	mu    sync.Mutex
	fires []fireRecord
}

func (r *recorder) fire(machineID string, cycle uint64, kind Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fires = append(r.fires, fireRecord{machineID, cycle, kind})
}

func (r *recorder) all() []fireRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]fireRecord, len(r.fires))
	copy(out, r.fires)
	return out
}

func TestScheduler_WarningThenCompletion(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))
	rec := &recorder{}
	s := New(clk, rec.fire)

	s.Schedule("W1", 1, clk.Now().Add(33*time.Minute), 5*time.Minute)
	assert.True(t, s.Pending("W1", 1, KindWarning))
	assert.True(t, s.Pending("W1", 1, KindCompletion))

	clk.Advance(28 * time.Minute)
	assert.Equal(t, []fireRecord{{"W1", 1, KindWarning}}, rec.all())
	assert.False(t, s.Pending("W1", 1, KindWarning))

	clk.Advance(5 * time.Minute)
	assert.Equal(t, []fireRecord{{"W1", 1, KindWarning}, {"W1", 1, KindCompletion}}, rec.all())
	assert.False(t, s.Pending("W1", 1, KindCompletion))
}

func TestScheduler_ShortCycleSkipsWarning(t *testing.T) {
	testCases := []struct {
		name     string
		duration time.Duration
	}{
		{name: "Exactly lead", duration: 5 * time.Minute},
		{name: "Shorter than lead", duration: 3 * time.Minute},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			clk := clock.NewManual(time.Now())
			rec := &recorder{}
			s := New(clk, rec.fire)

			s.Schedule("D1", 7, clk.Now().Add(tc.duration), 5*time.Minute)
			assert.False(t, s.Pending("D1", 7, KindWarning))

			clk.Advance(tc.duration)
			assert.Equal(t, []fireRecord{{"D1", 7, KindCompletion}}, rec.all())
		})
	}
}

func TestScheduler_CancelPreventsFires(t *testing.T) {
	clk := clock.NewManual(time.Now())
	rec := &recorder{}
	s := New(clk, rec.fire)

	s.Schedule("W1", 1, clk.Now().Add(33*time.Minute), 5*time.Minute)
	assert.Equal(t, 2, s.Cancel("W1"))
	assert.Equal(t, 0, s.Cancel("W1"))

	clk.Advance(time.Hour)
	assert.Empty(t, rec.all())
	assert.Equal(t, 0, clk.Pending())
}

func TestScheduler_RescheduleReplacesPreviousCycle(t *testing.T) {
	clk := clock.NewManual(time.Now())
	rec := &recorder{}
	s := New(clk, rec.fire)

	s.Schedule("W1", 1, clk.Now().Add(33*time.Minute), 5*time.Minute)
	clk.Advance(10 * time.Minute)
	s.Schedule("W1", 2, clk.Now().Add(39*time.Minute), 5*time.Minute)

	assert.False(t, s.Pending("W1", 1, KindCompletion))
	clk.Advance(2 * time.Hour)
	assert.Equal(t, []fireRecord{{"W1", 2, KindWarning}, {"W1", 2, KindCompletion}}, rec.all())
}

func TestScheduler_MachinesAreIndependent(t *testing.T) {
	clk := clock.NewManual(time.Now())
	rec := &recorder{}
	s := New(clk, rec.fire)

	s.Schedule("W1", 1, clk.Now().Add(33*time.Minute), 0)
	s.Schedule("D1", 1, clk.Now().Add(35*time.Minute), 0)
	s.Cancel("W1")

	clk.Advance(time.Hour)
	assert.Equal(t, []fireRecord{{"D1", 1, KindCompletion}}, rec.all())
}

func TestScheduler_RealClockStopLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	done := make(chan fireRecord, 1)
	s := New(clock.Real{}, func(machineID string, cycle uint64, kind Kind) {
		done <- fireRecord{machineID, cycle, kind}
	})

	s.Schedule("W1", 1, time.Now().Add(20*time.Millisecond), 0)
	s.Schedule("W2", 1, time.Now().Add(time.Hour), 0)

	select {
	case got := <-done:
		assert.Equal(t, fireRecord{"W1", 1, KindCompletion}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("completion did not fire")
	}
	s.Stop()
	assert.False(t, s.Pending("W2", 1, KindCompletion))
}
