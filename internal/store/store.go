// Package store owns the authoritative in-memory task collection for a view
// and reconciles it with the remote gateway.
//
// Every mutation is confirm-then-apply: the collection changes only after the
// gateway reports success. Mutations targeting the same id are serialized, so
// each one reads the state left by the previous one and a stale response can
// never overwrite newer local state. Load is exclusive with all mutations.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tasksync/internal/gateway"
	"tasksync/internal/log"
	"tasksync/internal/task"
)

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("task store closed")

	// ErrInvalidTask is returned when a mutation would hold a task without an
	// id or with an empty title.
	ErrInvalidTask = errors.New("invalid task")
)

// Store holds the ordered task collection. The zero value is not usable; call New.
type Store struct {
	gw gateway.Gateway

	// gate is held shared by mutations for their whole round-trip and
	// exclusively by Load.
	gate sync.RWMutex
	ids  *keyedMutex

	mu      sync.RWMutex
	tasks   []task.Task
	loaded  bool
	loadErr error
	pending map[string]int
	closed  bool
}

// New creates an empty store backed by gw.
func New(gw gateway.Gateway) *Store {
	return &Store{
		gw:      gw,
		ids:     newKeyedMutex(),
		pending: make(map[string]int),
	}
}

// Load fetches the full collection and replaces the held one wholesale.
// On failure the held collection is left untouched and LoadErr reports the cause.
func (s *Store) Load(ctx context.Context) error {
	s.gate.Lock()
	defer s.gate.Unlock()

	if s.isClosed() {
		return ErrClosed
	}

	tasks, err := s.gw.List(ctx)
	if err != nil {
		log.ErrorLog.Printf("failed to load tasks: %v", err)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return ErrClosed
		}
		s.loadErr = err
		return fmt.Errorf("load tasks: %w", err)
	}

	held := dedupe(tasks)
	if len(held) != len(tasks) {
		log.WarningLog.Printf("list returned %d duplicate task ids", len(tasks)-len(held))
	}

	s.mu.Lock()
	// Close may have run while List was in flight.
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.tasks = held
	s.loaded = true
	s.loadErr = nil
	s.mu.Unlock()

	log.DebugLog.Printf("loaded %d tasks", len(held))
	return nil
}

// Insert appends a task returned by a successful create. A task whose id is
// already held replaces the existing entry in place.
func (s *Store) Insert(t task.Task) error {
	if !t.Persisted() || !task.IsValidTitle(t.Title) {
		return fmt.Errorf("insert task %q: %w", t.ID, ErrInvalidTask)
	}

	s.gate.RLock()
	defer s.gate.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if i := s.indexLocked(t.ID); i >= 0 {
		s.tasks[i] = t.Clone()
		return nil
	}
	s.tasks = append(s.tasks, t.Clone())
	return nil
}

// SetCompleted sends the full current record with the new completed flag and
// applies it once the gateway confirms. An id that is not held is a no-op.
func (s *Store) SetCompleted(ctx context.Context, id string, completed bool) error {
	return s.update(ctx, "set completed on", id, func(cur task.Task) task.Task {
		return cur.WithCompleted(completed)
	})
}

// ApplyEdit merges title, description and due date over the held record,
// preserving id, created_at and completed, and applies it once the gateway
// confirms. An id that is not held is a no-op.
func (s *Store) ApplyEdit(ctx context.Context, id, title, description string, due *time.Time) error {
	return s.update(ctx, "edit", id, func(cur task.Task) task.Task {
		return cur.WithEdit(title, description, due)
	})
}

// Remove deletes the task server-side and drops it from the collection once
// the gateway confirms. A NotFoundError from the gateway counts as success.
// An id that is not held is a no-op.
func (s *Store) Remove(ctx context.Context, id string) error {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if _, ok := s.Get(id); !ok {
		log.DebugLog.Printf("remove: task %s not held, skipping", id)
		return nil
	}

	done := s.markPending(id)
	err = s.gw.Delete(ctx, id)
	done()

	if err != nil {
		if !gateway.IsNotFound(err) {
			log.ErrorLog.Printf("failed to delete task %s: %v", id, err)
			return fmt.Errorf("remove task %s: %w", id, err)
		}
		log.WarningLog.Printf("task %s already deleted server-side", id)
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) update(ctx context.Context, op, id string, merge func(task.Task) task.Task) error {
	release, err := s.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	cur, ok := s.Get(id)
	if !ok {
		log.DebugLog.Printf("%s: task %s not held, skipping", op, id)
		return nil
	}

	next := merge(cur)
	if !task.IsValidTitle(next.Title) {
		return fmt.Errorf("%s task %s: title required: %w", op, id, ErrInvalidTask)
	}

	done := s.markPending(id)
	err = s.gw.Update(ctx, next)
	done()

	if err != nil {
		log.ErrorLog.Printf("failed to %s task %s: %v", op, id, err)
		return fmt.Errorf("%s task %s: %w", op, id, err)
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.tasks[i] = next
	}
	s.mu.Unlock()
	return nil
}

// acquire takes the shared gate and the per-id lock, in that order.
func (s *Store) acquire(ctx context.Context, id string) (func(), error) {
	s.gate.RLock()
	if s.isClosed() {
		s.gate.RUnlock()
		return nil, ErrClosed
	}
	unlock, err := s.ids.Lock(ctx, id)
	if err != nil {
		s.gate.RUnlock()
		return nil, err
	}
	return func() {
		unlock()
		s.gate.RUnlock()
	}, nil
}

func (s *Store) markPending(id string) func() {
	s.mu.Lock()
	s.pending[id]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.pending[id]--
		if s.pending[id] <= 0 {
			delete(s.pending, id)
		}
		s.mu.Unlock()
	}
}

// Get returns a copy of the held task with the given id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return task.Task{}, false
}

// At returns the task at the 1-based position pos in collection order.
func (s *Store) At(pos int) (task.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos < 1 || pos > len(s.tasks) {
		return task.Task{}, false
	}
	return s.tasks[pos-1].Clone(), true
}

// Snapshot returns a copy of the held collection in order.
func (s *Store) Snapshot() []task.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of held tasks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Loaded reports whether at least one Load has succeeded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// LoadErr returns the error of the last failed Load, or nil after a success.
func (s *Store) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Pending reports whether a gateway call for id is in flight.
func (s *Store) Pending(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[id] > 0
}

// Close tears the store down. In-flight mutations finish; later calls fail
// with ErrClosed.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.tasks = nil
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// dedupe keeps the first position of every id and the last value seen for it.
func dedupe(tasks []task.Task) []task.Task {
	out := make([]task.Task, 0, len(tasks))
	seen := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if i, ok := seen[t.ID]; ok {
			out[i] = t.Clone()
			continue
		}
		seen[t.ID] = len(out)
		out = append(out, t.Clone())
	}
	return out
}
