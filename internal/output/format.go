// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"tasksync/internal/task"
)

// DateLayout is how due dates are displayed and parsed from flags.
const DateLayout = "2006-01-02"

// FormatTask formats a task line for the list command.
// Format: "{N:>4}  [x] {TITLE}  (due YYYY-MM-DD)\n"; the due suffix is omitted
// when the task has no due date.
func FormatTask(w io.Writer, num int, t task.Task) {
	fmt.Fprintf(w, "%4d  %s %s%s\n", num, Checkbox(t.Completed), normalizeTitle(t.Title), dueSuffix(t.DueDate))
}

// FormatDetail writes every field of t, one per line. now anchors the
// relative created-at.
func FormatDetail(w io.Writer, t task.Task, now time.Time) {
	fmt.Fprintf(w, "id:          %s\n", t.ID)
	fmt.Fprintf(w, "title:       %s\n", normalizeTitle(t.Title))
	fmt.Fprintf(w, "status:      %s\n", Status(t.Completed))
	if t.HasDescription() {
		fmt.Fprintf(w, "description: %s\n", indentContinuation(t.Description))
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "due:         %s\n", FormatDate(*t.DueDate))
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(w, "created:     %s (%s)\n", t.CreatedAt.UTC().Format(time.RFC3339), humanize.RelTime(t.CreatedAt, now, "ago", "from now"))
	}
}

// Checkbox renders the completion marker.
func Checkbox(completed bool) string {
	if completed {
		return "[x]"
	}
	return "[ ]"
}

// Status renders the completion state as a word.
func Status(completed bool) string {
	if completed {
		return "done"
	}
	return "open"
}

// FormatDate renders a due date as a calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD flag value as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

func dueSuffix(due *time.Time) string {
	if due == nil {
		return ""
	}
	return "  (due " + FormatDate(*due) + ")"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func indentContinuation(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "\n             ")
}
