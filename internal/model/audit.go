package model

import "time"

// AuditEventType names an accountability event.
type AuditEventType string

const (
	AuditForceStop AuditEventType = "FORCE_STOP"
	AuditOverride  AuditEventType = "OVERRIDE"
)

// AuditEntry records a force-stop or override. Entries are append-only.
type AuditEntry struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	EventType       AuditEventType `gorm:"size:32;not null;index" json:"event_type"`
	MachineID       string         `gorm:"size:32;not null;index" json:"machine_id"`
	ActingUserID    string         `gorm:"size:64;not null" json:"acting_user_id"`
	DisplacedUserID *string        `gorm:"size:64" json:"displaced_user_id,omitempty"`
	OccurredAt      time.Time      `gorm:"not null;index" json:"occurred_at"`
}
