// Package task defines the task record shared by the gateway, the collection
// store and the edit/creation sessions.
package task

import (
	"strings"
	"time"
)

// Task is a persisted to-do record.
// ID and CreatedAt are assigned by the remote service and never set client-side.
type Task struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time // nil means no deadline
	CreatedAt   time.Time
}

// Draft holds the field values of a task that has not been persisted yet.
type Draft struct {
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
}

// IsValidTitle reports whether title is acceptable for persistence.
// Whitespace-only titles count as empty.
func IsValidTitle(title string) bool {
	return strings.TrimSpace(title) != ""
}

// Valid reports whether the draft may be submitted.
func (d Draft) Valid() bool {
	return IsValidTitle(d.Title)
}

// Persisted reports whether the task carries a server-assigned id.
func (t Task) Persisted() bool {
	return t.ID != ""
}

// HasDescription reports whether the task has a non-empty description.
func (t Task) HasDescription() bool {
	return t.Description != ""
}

// WithCompleted returns a copy of t with only the completed flag changed.
func (t Task) WithCompleted(completed bool) Task {
	t.Completed = completed
	t.DueDate = cloneTime(t.DueDate)
	return t
}

// WithEdit returns a copy of t with title, description and due date replaced.
// ID, CreatedAt and Completed are preserved.
func (t Task) WithEdit(title, description string, due *time.Time) Task {
	t.Title = title
	t.Description = description
	t.DueDate = cloneTime(due)
	return t
}

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.DueDate = cloneTime(t.DueDate)
	return t
}

// Equal reports whether two tasks hold the same field values.
func (t Task) Equal(o Task) bool {
	return t.ID == o.ID &&
		t.Title == o.Title &&
		t.Description == o.Description &&
		t.Completed == o.Completed &&
		timePtrEqual(t.DueDate, o.DueDate) &&
		t.CreatedAt.Equal(o.CreatedAt)
}

// DraftOf returns the mutable fields of t as a draft.
func DraftOf(t Task) Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		DueDate:     cloneTime(t.DueDate),
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
