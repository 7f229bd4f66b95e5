// Package cooldown gates repeated pings of the same machine.
package cooldown

import "time"

// Tracker decides whether a ping may be sent given the machine's last ping
// time. The timestamp itself lives on the machine record so that it changes
// under the same lock as the machine status.
type Tracker struct {
	window time.Duration
}

// New returns a tracker enforcing window between pings.
func New(window time.Duration) *Tracker {
	return &Tracker{window: window}
}

// Window is the configured minimum gap between pings.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Remaining is how long the caller must still wait; zero means a ping is allowed.
func (t *Tracker) Remaining(lastPingAt *time.Time, now time.Time) time.Duration {
	if lastPingAt == nil {
		return 0
	}
	elapsed := now.Sub(*lastPingAt)
	if elapsed >= t.window {
		return 0
	}
	return t.window - elapsed
}

// Allow reports whether a ping at now is outside the cooldown.
func (t *Tracker) Allow(lastPingAt *time.Time, now time.Time) bool {
	return t.Remaining(lastPingAt, now) == 0
}
