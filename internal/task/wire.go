package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// timeLayouts are the ISO-8601 shapes accepted from the remote service, most
// specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// ParseTime parses an ISO-8601 timestamp or calendar date.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp: %q", s)
}

// FormatTime formats t for the wire.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type wireTask struct {
	ID          string  `json:"id,omitempty"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date"`
	CreatedAt   *string `json:"created_at,omitempty"`
}

type wireDraft struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"due_date"`
}

// MarshalJSON encodes the full record. A missing due date is written as null,
// never as an empty string.
func (t Task) MarshalJSON() ([]byte, error) {
	desc := t.Description
	w := wireTask{
		ID:          t.ID,
		Title:       t.Title,
		Description: &desc,
		Completed:   t.Completed,
		DueDate:     formatOptional(t.DueDate),
	}
	if !t.CreatedAt.IsZero() {
		s := FormatTime(t.CreatedAt)
		w.CreatedAt = &s
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes a record as sent by the remote service. Null or absent
// description and due_date are accepted.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	out := Task{
		ID:        w.ID,
		Title:     w.Title,
		Completed: w.Completed,
	}
	if w.Description != nil {
		out.Description = *w.Description
	}
	if w.DueDate != nil && *w.DueDate != "" {
		due, err := ParseTime(*w.DueDate)
		if err != nil {
			return fmt.Errorf("due_date: %w", err)
		}
		out.DueDate = &due
	}
	if w.CreatedAt != nil && *w.CreatedAt != "" {
		created, err := ParseTime(*w.CreatedAt)
		if err != nil {
			return fmt.Errorf("created_at: %w", err)
		}
		out.CreatedAt = created
	}

	*t = out
	return nil
}

// MarshalJSON encodes the create payload.
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireDraft{
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		DueDate:     formatOptional(d.DueDate),
	})
}

// UnmarshalJSON decodes a create payload.
func (d *Draft) UnmarshalJSON(data []byte) error {
	var t Task
	if err := t.UnmarshalJSON(data); err != nil {
		return err
	}
	*d = DraftOf(t)
	return nil
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}
