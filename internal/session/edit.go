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

var (
	// ErrTitleRequired is returned when a save or submit is attempted with an
	// empty title. The session state is left unchanged.
	ErrTitleRequired = errors.New("title required")

	// ErrBusy is returned while a previous gateway round-trip of the same
	// session is still in flight.
	ErrBusy = errors.New("session busy")

	// ErrTaskGone is returned when the task is no longer in the collection.
	ErrTaskGone = errors.New("task no longer exists")
)

// Collection is the part of the task store an edit session drives.
type Collection interface {
	Get(id string) (task.Task, bool)
	ApplyEdit(ctx context.Context, id, title, description string, due *time.Time) error
	Remove(ctx context.Context, id string) error
}

// EditSession tracks view/edit/delete-confirmation state for one task.
// Sessions of different tasks are independent.
type EditSession struct {
	id   string
	coll Collection

	mu    sync.Mutex
	mode  Mode
	draft task.Draft
	busy  bool
}

// NewEditSession creates a session in ModeViewing for the task with the given id.
func NewEditSession(id string, coll Collection) *EditSession {
	return &EditSession{id: id, coll: coll, mode: ModeViewing}
}

// ID returns the id of the task this session edits.
func (s *EditSession) ID() string { return s.id }

// Mode returns the current mode.
func (s *EditSession) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Busy reports whether a save or delete is in flight.
func (s *EditSession) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Draft returns a copy of the draft. It is only meaningful in ModeEditing.
func (s *EditSession) Draft() task.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.draft
	if d.DueDate != nil {
		due := *d.DueDate
		d.DueDate = &due
	}
	return d
}

// StartEdit enters ModeEditing and seeds the draft from the current task.
func (s *EditSession) StartEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := ApplyTransition(s.mode, StartEdit)
	if err != nil {
		return err
	}
	cur, ok := s.coll.Get(s.id)
	if !ok {
		return fmt.Errorf("edit task %s: %w", s.id, ErrTaskGone)
	}
	s.draft = task.DraftOf(cur)
	s.mode = next
	return nil
}

// SetTitle changes the draft title.
func (s *EditSession) SetTitle(title string) error {
	return s.editDraft(func(d *task.Draft) { d.Title = title })
}

// SetDescription changes the draft description.
func (s *EditSession) SetDescription(description string) error {
	return s.editDraft(func(d *task.Draft) { d.Description = description })
}

// SetDueDate changes the draft due date. nil clears it.
func (s *EditSession) SetDueDate(due *time.Time) error {
	return s.editDraft(func(d *task.Draft) {
		if due == nil {
			d.DueDate = nil
			return
		}
		c := *due
		d.DueDate = &c
	})
}

func (s *EditSession) editDraft(fn func(*task.Draft)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeEditing {
		return fmt.Errorf("%w: draft is only editable in %q, session is %q", ErrInvalidTransition, ModeEditing, s.mode)
	}
	fn(&s.draft)
	return nil
}

// Cancel discards the draft and returns to ModeViewing without a gateway call.
func (s *EditSession) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	next, err := ApplyTransition(s.mode, CancelEdit)
	if err != nil {
		return err
	}
	s.draft = task.Draft{}
	s.mode = next
	return nil
}

// Save applies the draft through the collection. An empty title is a no-op
// returning ErrTitleRequired. If the gateway fails the session stays in
// ModeEditing with the draft intact so the user can retry.
func (s *EditSession) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	next, err := ApplyTransition(s.mode, Save)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.draft.Valid() {
		s.mu.Unlock()
		return ErrTitleRequired
	}
	d := s.draft
	s.busy = true
	s.mu.Unlock()

	err = s.coll.ApplyEdit(ctx, s.id, d.Title, d.Description, d.DueDate)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		log.WarningLog.Printf("save of task %s failed, keeping draft: %v", s.id, err)
		return err
	}
	s.draft = task.Draft{}
	s.mode = next
	return nil
}

// RequestDelete enters ModeConfirmingDelete.
func (s *EditSession) RequestDelete() error {
	return s.transition(RequestDelete)
}

// CancelDelete leaves ModeConfirmingDelete without deleting.
func (s *EditSession) CancelDelete() error {
	return s.transition(CancelDelete)
}

func (s *EditSession) transition(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	next, err := ApplyTransition(s.mode, ev)
	if err != nil {
		return err
	}
	s.mode = next
	return nil
}

// ConfirmDelete removes the task through the collection. On success the
// session reaches the terminal ModeDeleted; on failure it returns to ModeViewing.
func (s *EditSession) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	next, err := ApplyTransition(s.mode, ConfirmDelete)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.busy = true
	s.mu.Unlock()

	err = s.coll.Remove(ctx, s.id)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if err != nil {
		log.WarningLog.Printf("delete of task %s failed: %v", s.id, err)
		s.mode = ModeViewing
		return err
	}
	s.mode = next
	return nil
}
