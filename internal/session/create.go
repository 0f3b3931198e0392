package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tasksync/internal/log"
	"tasksync/internal/task"
)

// ErrSubmitInFlight is returned by Submit while a previous submit is pending.
// Callers treat it as "ignored".
var ErrSubmitInFlight = errors.New("submit already in flight")

// Creator persists drafts. gateway.Gateway satisfies it.
type Creator interface {
	Create(ctx context.Context, draft task.Draft) (task.Task, error)
}

// Inserter receives newly created tasks. *store.Store satisfies it.
type Inserter interface {
	Insert(t task.Task) error
}

// CreationSession composes and submits a new task.
type CreationSession struct {
	gw   Creator
	coll Inserter

	mu         sync.Mutex
	draft      task.Draft
	submitting bool
}

// NewCreationSession creates an empty creation session.
func NewCreationSession(gw Creator, coll Inserter) *CreationSession {
	return &CreationSession{gw: gw, coll: coll}
}

func (s *CreationSession) SetTitle(title string) {
	s.mu.Lock()
	s.draft.Title = title
	s.mu.Unlock()
}

func (s *CreationSession) SetDescription(description string) {
	s.mu.Lock()
	s.draft.Description = description
	s.mu.Unlock()
}

// SetDueDate sets the draft due date; nil means no deadline.
func (s *CreationSession) SetDueDate(due *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if due == nil {
		s.draft.DueDate = nil
		return
	}
	c := *due
	s.draft.DueDate = &c
}

// Draft returns a copy of the current draft.
func (s *CreationSession) Draft() task.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	if d.DueDate != nil {
		due := *d.DueDate
		d.DueDate = &due
	}
	return d
}

// Submitting reports whether a submit is in flight.
func (s *CreationSession) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// CanSubmit reports whether Submit would reach the gateway.
func (s *CreationSession) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.submitting && s.draft.Valid()
}

// Submit creates the draft with completed=false. On success the draft is
// cleared and the created task is handed to the collection. On failure the
// draft is kept for a retry. The submitting flag is reset in both cases.
func (s *CreationSession) Submit(ctx context.Context) (task.Task, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return task.Task{}, ErrSubmitInFlight
	}
	if !s.draft.Valid() {
		s.mu.Unlock()
		return task.Task{}, ErrTitleRequired
	}
	d := s.draft
	d.Completed = false
	s.submitting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	created, err := s.gw.Create(ctx, d)
	if err != nil {
		log.ErrorLog.Printf("failed to create task %q: %v", d.Title, err)
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.mu.Lock()
	s.draft = task.Draft{}
	s.mu.Unlock()

	if err := s.coll.Insert(created); err != nil {
		log.ErrorLog.Printf("created task %s could not be inserted: %v", created.ID, err)
		return created, fmt.Errorf("insert created task: %w", err)
	}
	return created, nil
}
