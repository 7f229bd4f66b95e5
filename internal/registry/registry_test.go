package registry

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
	mu       sync.Mutex
	machines []model.Machine
	saved    []model.Machine
	saveErr  error
}

func (s *memStore) ListMachines(ctx context.Context) ([]model.Machine, error) {
	return s.machines, nil
}

func (s *memStore) SaveMachine(ctx context.Context, m model.Machine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, m)
	return nil
}

func seed() *memStore {
	return &memStore{machines: []model.Machine{
		{ID: "W2", Kind: model.KindWasher, Level: "9", Seq: 2, Status: model.StatusAvailable},
		{ID: "W1", Kind: model.KindWasher, Level: "9", Seq: 1, Status: model.StatusAvailable},
		{ID: "D1", Kind: model.KindDryer, Level: "17", Seq: 1, Status: model.StatusAvailable},
	}}
}

func TestRegistry_LoadAndList(t *testing.T) {
	r, err := New(context.Background(), seed())
	require.NoError(t, err)

	assert.Equal(t, []string{"D1", "W1", "W2"}, r.IDs())

	level9 := r.List("9")
	require.Len(t, level9, 2)
	assert.Equal(t, "W1", level9[0].ID)
	assert.Equal(t, "W2", level9[1].ID)
	assert.Len(t, r.List(""), 3)

	_, err = r.Load("X9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_CommitWritesThrough(t *testing.T) {
	store := seed()
	r, err := New(context.Background(), store)
	require.NoError(t, err)

	l, err := r.Acquire("W1")
	require.NoError(t, err)
	m := l.Machine()
	alice := "alice"
	m.Status = model.StatusRunning
	m.CurrentUser = &alice
	require.NoError(t, l.Commit(context.Background(), m))
	l.Release()
	l.Release()

	got, err := r.Load("W1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRunning, got.Status)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "W1", store.saved[0].ID)

	// Mutating the returned snapshot must not leak into the registry.
	*got.CurrentUser = "mallory"
	again, _ := r.Load("W1")
	assert.Equal(t, "alice", *again.CurrentUser)
}

func TestRegistry_CommitFailureKeepsRecord(t *testing.T) {
	store := seed()
	store.saveErr = errors.New("disk full")
	r, err := New(context.Background(), store)
	require.NoError(t, err)

	l, err := r.Acquire("W1")
	require.NoError(t, err)
	m := l.Machine()
	m.Status = model.StatusRunning
	assert.Error(t, l.Commit(context.Background(), m))
	l.Release()

	got, _ := r.Load("W1")
	assert.Equal(t, model.StatusAvailable, got.Status)
}

func TestRegistry_CommitRejectsForeignRecord(t *testing.T) {
	r, err := New(context.Background(), seed())
	require.NoError(t, err)

	l, err := r.Acquire("W1")
	require.NoError(t, err)
	defer l.Release()
	assert.Error(t, l.Commit(context.Background(), model.Machine{ID: "W2"}))
}

func TestRegistry_SerializesSameMachine(t *testing.T) {
	r, err := New(context.Background(), seed())
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			l, err := r.Acquire("W1")
			if err != nil {
				return
			}
			defer l.Release()
			m := l.Machine()
			m.CycleID++
			_ = l.Commit(context.Background(), m)
		}()
	}
	wg.Wait()

	got, _ := r.Load("W1")
	assert.Equal(t, uint64(workers), got.CycleID, "every increment must be applied exactly once")
}

func TestRegistry_DifferentMachinesDoNotBlock(t *testing.T) {
	r, err := New(context.Background(), seed())
	require.NoError(t, err)

	held, err := r.Acquire("W1")
	require.NoError(t, err)
	defer held.Release()

	done := make(chan struct{})
	go func() {
		l, err := r.Acquire("W2")
		if err == nil {
			l.Release()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring W2 blocked while W1 was held")
	}
}
