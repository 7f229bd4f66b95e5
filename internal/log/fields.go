package log

// Canonical field name constants for structured logging.
const (
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldEvent     = "event"

	FieldMachineID = "machine_id"
	FieldUserID    = "user_id"
	FieldActorID   = "actor_id"
	FieldAction    = "action"
	FieldCycle     = "cycle"
	FieldTimer     = "timer"

	FieldOldState = "old_state"
	FieldNewState = "new_state"
)
