// Package audit records force-stop and override events. Each entry is written
// as a structured audit log line and appended to the store.
package audit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/metrics"
	"laundry-coordinator/internal/model"
)

// Store is the append-only persistence for audit entries.
type Store interface {
	AppendAudit(ctx context.Context, entry model.AuditEntry) error
}

// Sink appends audit entries.
type Sink struct {
	store  Store
	logger zerolog.Logger
}

// NewSink creates a sink with a dedicated "audit" component logger.
func NewSink(store Store) *Sink {
	return &Sink{
		store: store,
		logger: log.WithComponent("audit").With().
			Str("log_type", "audit").
			Logger(),
	}
}

// Append logs the entry and persists it. The log line is written even when
// the store rejects the entry.
func (s *Sink) Append(ctx context.Context, entry model.AuditEntry) error {
	logger := log.WithContext(ctx, s.logger)
	ev := logger.Info().
		Str("audit_id", entry.ID).
		Str("event_type", string(entry.EventType)).
		Str(log.FieldMachineID, entry.MachineID).
		Str(log.FieldActorID, entry.ActingUserID).
		Time("occurred_at", entry.OccurredAt)
	if entry.DisplacedUserID != nil {
		ev.Str("displaced_user_id", *entry.DisplacedUserID)
	}
	ev.Msg("audit event")

	if err := s.store.AppendAudit(ctx, entry); err != nil {
		metrics.RecordAudit(string(entry.EventType), "failed")
		return fmt.Errorf("audit append: %w", err)
	}
	metrics.RecordAudit(string(entry.EventType), "stored")
	return nil
}
