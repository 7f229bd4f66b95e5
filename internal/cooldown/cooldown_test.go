package cooldown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Remaining(t *testing.T) {
	last := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tr := New(200 * time.Second)

	testCases := []struct {
		name      string
		last      *time.Time
		now       time.Time
		remaining time.Duration
	}{
		{name: "Never pinged", last: nil, now: last, remaining: 0},
		{name: "Immediately after", last: &last, now: last, remaining: 200 * time.Second},
		{name: "Within window", last: &last, now: last.Add(5 * time.Second), remaining: 195 * time.Second},
		{name: "Just before window", last: &last, now: last.Add(200*time.Second - time.Millisecond), remaining: time.Millisecond},
		{name: "Exactly at window", last: &last, now: last.Add(200 * time.Second), remaining: 0},
		{name: "Past window", last: &last, now: last.Add(200*time.Second + time.Millisecond), remaining: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.remaining, tr.Remaining(tc.last, tc.now))
			assert.Equal(t, tc.remaining == 0, tr.Allow(tc.last, tc.now))
		})
	}
	assert.Equal(t, 200*time.Second, tr.Window())
}
