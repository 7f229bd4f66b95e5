package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned for an unknown machine id.
	ErrNotFound = errors.New("machine not found")
	// ErrConflict is returned when a Start finds the machine in use.
	ErrConflict = errors.New("machine is in use")
	// ErrForbidden is returned when the caller may not act on the current cycle.
	ErrForbidden = errors.New("not allowed for this user")
	// ErrInvalidState is returned when the command makes no sense in the current status.
	ErrInvalidState = errors.New("invalid machine state")
	// ErrCooldownActive is matched by *CooldownError.
	ErrCooldownActive = errors.New("ping cooldown active")
	// ErrInvalidDuration is returned for a cycle length not offered by the machine kind.
	ErrInvalidDuration = errors.New("invalid cycle duration")
	// ErrNoPendingStop is returned when a stop is confirmed without a live proposal.
	ErrNoPendingStop = errors.New("no pending stop request")
)

// CooldownError reports how long a pinger must still wait.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s: retry in %s", ErrCooldownActive, e.Remaining.Round(time.Second))
}

// Is makes errors.Is(err, ErrCooldownActive) hold.
func (e *CooldownError) Is(target error) bool {
	return target == ErrCooldownActive
}

// Class names the error for metrics and logs.
func Class(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrCooldownActive):
		return "cooldown"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrNoPendingStop):
		return "no_pending_stop"
	default:
		return "error"
	}
}
