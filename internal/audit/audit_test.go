package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-coordinator/internal/model"
)

type memStore struct {
	mu      sync.Mutex
	entries []model.AuditEntry
	err     error
}

func (m *memStore) AppendAudit(_ context.Context, entry model.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func TestSink_Append(t *testing.T) {
	displaced := "alice"
	entry := model.AuditEntry{
		ID:              "a-1",
		EventType:       model.AuditForceStop,
		MachineID:       "D1",
		ActingUserID:    "bob",
		DisplacedUserID: &displaced,
		OccurredAt:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("stores entry", func(t *testing.T) {
		st := &memStore{}
		sink := NewSink(st)

		require.NoError(t, sink.Append(context.Background(), entry))
		require.Len(t, st.entries, 1)
		assert.Equal(t, entry, st.entries[0])
	})

	t.Run("wraps store failure", func(t *testing.T) {
		boom := errors.New("disk full")
		sink := NewSink(&memStore{err: boom})

		err := sink.Append(context.Background(), entry)
		assert.ErrorIs(t, err, boom)
	})
}
