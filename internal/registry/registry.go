// Package registry holds the authoritative in-memory machine records. Each
// machine has its own lock; every read-modify-write of a record happens while
// holding it, and committed records are written through to the store.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"laundry-coordinator/internal/model"
)

// ErrNotFound is returned for an unknown machine id.
var ErrNotFound = errors.New("machine not found")

// MachineStore is the persistence the registry writes through to.
type MachineStore interface {
	ListMachines(ctx context.Context) ([]model.Machine, error)
	SaveMachine(ctx context.Context, m model.Machine) error
}

type entry struct {
	mu      sync.Mutex
	machine model.Machine
}

// Registry maps machine id to its current record. The set of ids is fixed at construction.
type Registry struct {
	store   MachineStore
	entries map[string]*entry
	ids     []string
}

// New loads every machine from the store.
func New(ctx context.Context, store MachineStore) (*Registry, error) {
	machines, err := store.ListMachines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load machines: %w", err)
	}
	return newFromMachines(store, machines), nil
}

func newFromMachines(store MachineStore, machines []model.Machine) *Registry {
	r := &Registry{
		store:   store,
		entries: make(map[string]*entry, len(machines)),
		ids:     make([]string, 0, len(machines)),
	}
	for _, m := range machines {
		if _, dup := r.entries[m.ID]; dup {
			continue
		}
		r.entries[m.ID] = &entry{machine: m.Clone()}
		r.ids = append(r.ids, m.ID)
	}
	sort.Strings(r.ids)
	return r
}

// Locked is exclusive access to one machine record. It must be released.
type Locked struct {
	r        *Registry
	e        *entry
	released bool
}

// Acquire locks the machine and returns a handle to its record.
func (r *Registry) Acquire(id string) (*Locked, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	e.mu.Lock()
	return &Locked{r: r, e: e}, nil
}

// Machine returns a copy of the current record.
func (l *Locked) Machine() model.Machine {
	return l.e.machine.Clone()
}

// Commit persists m and makes it the current record. On a store error the
// in-memory record is left unchanged.
func (l *Locked) Commit(ctx context.Context, m model.Machine) error {
	if m.ID != l.e.machine.ID {
		return fmt.Errorf("commit of %q through lock held on %q", m.ID, l.e.machine.ID)
	}
	if err := l.r.store.SaveMachine(ctx, m); err != nil {
		return err
	}
	l.e.machine = m.Clone()
	return nil
}

// Release unlocks the record. Calling it more than once is harmless.
func (l *Locked) Release() {
	if l.released {
		return
	}
	l.released = true
	l.e.mu.Unlock()
}

// Load returns a snapshot of one machine.
func (r *Registry) Load(id string) (model.Machine, error) {
	l, err := r.Acquire(id)
	if err != nil {
		return model.Machine{}, err
	}
	defer l.Release()
	return l.Machine(), nil
}

// IDs returns every machine id in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// List returns snapshots of the machines on a level, ordered by id. An empty
// level returns every machine. Each snapshot is taken under its own lock, so
// the list is per-record consistent only.
func (r *Registry) List(level string) []model.Machine {
	var out []model.Machine
	for _, id := range r.ids {
		e := r.entries[id]
		e.mu.Lock()
		if level == "" || e.machine.Level == level {
			out = append(out, e.machine.Clone())
		}
		e.mu.Unlock()
	}
	return out
}
