package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/task"
)

func formKeys(f *taskForm, s string) {
	for _, r := range s {
		f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestTaskForm_SubmitAllFields(t *testing.T) {
	f := newTaskForm("new task", task.Draft{}, 60)
	formKeys(f, "Pay rent")
	f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyTab})
	formKeys(f, "by transfer")
	f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyTab})
	formKeys(f, "2024-02-01")

	closed := f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, closed)
	assert.True(t, f.IsSubmitted())

	d, err := f.Draft()
	require.NoError(t, err)
	assert.Equal(t, "Pay rent", d.Title)
	assert.Equal(t, "by transfer", d.Description)
	require.NotNil(t, d.DueDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), *d.DueDate)
}

func TestTaskForm_SeededFromDraft(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := newTaskForm("edit task", task.Draft{Title: "a", Description: "b", DueDate: &due}, 60)

	assert.Equal(t, "a", f.titleVal)
	assert.Equal(t, "b", f.descVal)
	assert.Equal(t, "2024-03-01", f.dueVal)
}

func TestTaskForm_BadDueDateStaysOpen(t *testing.T) {
	f := newTaskForm("new task", task.Draft{}, 60)
	formKeys(f, "x")
	f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyTab})
	f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyTab})
	formKeys(f, "tomorrow")

	closed := f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, closed)
	require.Error(t, f.err)
	assert.Contains(t, f.Render(), "invalid date")
}

func TestTaskForm_BlankTitleRejected(t *testing.T) {
	f := newTaskForm("new task", task.Draft{}, 60)
	formKeys(f, "   ")

	assert.False(t, f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter}))
	assert.ErrorIs(t, f.err, errTitleRequired)
}

func TestConfirmDialog(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"y confirms", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'y'}}}, true},
		{"n declines", []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune{'n'}}}, false},
		{"esc declines", []tea.KeyMsg{{Type: tea.KeyEsc}}, false},
		{"enter keeps default", []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConfirmDialog("Pay rent")
			var closed bool
			for _, k := range tt.keys {
				closed = c.HandleKeyPress(k)
			}
			assert.True(t, closed)
			assert.Equal(t, tt.want, c.Confirmed())
		})
	}
}
