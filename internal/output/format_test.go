package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/task"
)

func TestFormatTask(t *testing.T) {
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		num  int
		task task.Task
		want string
	}{
		{"open", 1, task.Task{Title: "Buy milk"}, "   1  [ ] Buy milk\n"},
		{"done with due", 12, task.Task{Title: "Pay rent", Completed: true, DueDate: &due}, "  12  [x] Pay rent  (due 2024-02-01)\n"},
		{"blank title", 3, task.Task{Title: "  "}, "   3  [ ] (untitled)\n"},
		{"multiline title", 4, task.Task{Title: "a\nb"}, "   4  [ ] a b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatTask(&buf, tt.num, tt.task)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestFormatDetail(t *testing.T) {
	now := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	tk := task.Task{
		ID:          "1",
		Title:       "Pay rent",
		Description: "landlord\nby transfer",
		DueDate:     &due,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	FormatDetail(&buf, tk, now)

	want := "id:          1\n" +
		"title:       Pay rent\n" +
		"status:      open\n" +
		"description: landlord\n" +
		"             by transfer\n" +
		"due:         2024-02-01\n" +
		"created:     2024-01-01T00:00:00Z (3 days ago)\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatDetail_OmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	FormatDetail(&buf, task.Task{ID: "9", Title: "x", Completed: true}, time.Now())
	assert.Equal(t, "id:          9\ntitle:       x\nstatus:      done\n", buf.String())
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-06-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("June 1st")
	assert.Error(t, err)
}
