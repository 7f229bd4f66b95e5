package model

import (
	"strconv"
	"time"
)

// Kind distinguishes washers from dryers.
type Kind string

const (
	KindWasher Kind = "Washer"
	KindDryer  Kind = "Dryer"
)

// Status is the lifecycle state of a machine.
type Status string

const (
	StatusAvailable Status = "Available"
	StatusRunning   Status = "Running"
	StatusFinished  Status = "Finished"
)

// Machine is the authoritative record of one washer or dryer.
type Machine struct {
	ID    string `gorm:"primaryKey;size:32"`
	Kind  Kind   `gorm:"size:16;not null"`
	Level string `gorm:"index;size:16;not null"`
	Seq   int    `gorm:"not null"`

	Status      Status  `gorm:"size:16;not null"`
	CurrentUser *string `gorm:"size:64"`
	LastUser    *string `gorm:"size:64"`

	// CycleID increases on every Start; timers carry it so a stale timer can be told apart.
	CycleID          uint64 `gorm:"not null"`
	CycleStartedAt   *time.Time
	CycleEndAt       *time.Time
	LastPingAt       *time.Time
	PendingStopUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Label is the short display name used in messages, e.g. "W1". The level is
// not part of it.
func (m Machine) Label() string {
	prefix := "M"
	switch m.Kind {
	case KindWasher:
		prefix = "W"
	case KindDryer:
		prefix = "D"
	}
	return prefix + strconv.Itoa(m.Seq)
}

// IsOwnedBy reports whether userID holds the current cycle.
func (m Machine) IsOwnedBy(userID string) bool {
	return m.CurrentUser != nil && *m.CurrentUser == userID
}

// Clone returns a deep copy so callers never share pointer fields with the registry.
func (m Machine) Clone() Machine {
	c := m
	c.CurrentUser = cloneString(m.CurrentUser)
	c.LastUser = cloneString(m.LastUser)
	c.CycleStartedAt = cloneTime(m.CycleStartedAt)
	c.CycleEndAt = cloneTime(m.CycleEndAt)
	c.LastPingAt = cloneTime(m.LastPingAt)
	c.PendingStopUntil = cloneTime(m.PendingStopUntil)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
