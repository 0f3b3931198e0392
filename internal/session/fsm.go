// Package session holds the transient per-task edit state machine and the
// creation form state. Sessions own only disposable draft copies; every
// durable change goes through the collection store.
package session

import (
	"errors"
	"fmt"
)

// Mode is the state of a task edit session.
type Mode string

const (
	ModeViewing          Mode = "viewing"
	ModeEditing          Mode = "editing"
	ModeConfirmingDelete Mode = "confirming_delete"
	ModeDeleted          Mode = "deleted"
)

// Event triggers a mode transition.
type Event string

const (
	StartEdit     Event = "start_edit"
	CancelEdit    Event = "cancel_edit"
	Save          Event = "save"
	RequestDelete Event = "request_delete"
	CancelDelete  Event = "cancel_delete"
	ConfirmDelete Event = "confirm_delete"
)

// ErrInvalidTransition is wrapped by every rejected transition.
var ErrInvalidTransition = errors.New("invalid transition")

// transitionTable defines the successful outcome of every valid event.
// Key: current mode → event → new mode. Deleted has no way out.
var transitionTable = map[Mode]map[Event]Mode{
	ModeViewing: {
		StartEdit:     ModeEditing,
		RequestDelete: ModeConfirmingDelete,
	},
	ModeEditing: {
		CancelEdit: ModeViewing,
		Save:       ModeViewing,
	},
	ModeConfirmingDelete: {
		CancelDelete:  ModeViewing,
		ConfirmDelete: ModeDeleted,
	},
}

// ApplyTransition returns the mode reached from current on event.
func ApplyTransition(current Mode, event Event) (Mode, error) {
	events, ok := transitionTable[current]
	if !ok {
		return "", fmt.Errorf("%w: no transitions from %q", ErrInvalidTransition, current)
	}
	next, ok := events[event]
	if !ok {
		return "", fmt.Errorf("%w: %q + %q", ErrInvalidTransition, current, event)
	}
	return next, nil
}
