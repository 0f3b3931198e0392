package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"tasksync/internal/output"
	"tasksync/internal/task"
)

var errTitleRequired = errors.New("title is required")

// taskForm is a title/description/due form backed by huh.Form. It is used
// for both new tasks and edits.
type taskForm struct {
	form      *huh.Form
	heading   string
	titleVal  string
	descVal   string
	dueVal    string
	err       error
	submitted bool
	canceled  bool
}

func newTaskForm(heading string, draft task.Draft, width int) *taskForm {
	f := &taskForm{
		heading:  heading,
		titleVal: draft.Title,
		descVal:  draft.Description,
	}
	if draft.DueDate != nil {
		f.dueVal = output.FormatDate(*draft.DueDate)
	}

	formWidth := width - 6
	if formWidth < 34 {
		formWidth = 34
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("title").
				Title("title").
				Value(&f.titleVal),
			huh.NewInput().
				Key("description").
				Title("description (optional)").
				Value(&f.descVal),
			huh.NewInput().
				Key("due").
				Title("due (YYYY-MM-DD, optional)").
				Placeholder(output.DateLayout).
				Value(&f.dueVal),
		),
	).
		WithTheme(formTheme()).
		WithWidth(formWidth).
		WithShowHelp(false).
		WithShowErrors(false)

	_ = f.form.Init()
	return f
}

func (f *taskForm) updateForm(msg tea.Msg) {
	updated, _ := f.form.Update(msg)
	if form, ok := updated.(*huh.Form); ok {
		f.form = form
	}
}

// HandleKeyPress processes a key and returns true when the form should close.
// Enter only closes once the fields are valid.
func (f *taskForm) HandleKeyPress(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyEsc:
		f.canceled = true
		return true

	case tea.KeyEnter:
		if _, err := f.Draft(); err != nil {
			f.err = err
			return false
		}
		f.err = nil
		f.submitted = true
		return true

	case tea.KeyTab, tea.KeyDown:
		f.updateForm(huh.NextField())
		return false

	case tea.KeyShiftTab, tea.KeyUp:
		f.updateForm(huh.PrevField())
		return false

	default:
		f.updateForm(msg)
		return false
	}
}

// Draft returns the entered values, or an error naming the invalid field.
func (f *taskForm) Draft() (task.Draft, error) {
	d := task.Draft{
		Title:       strings.TrimSpace(f.titleVal),
		Description: strings.TrimSpace(f.descVal),
	}
	if !d.Valid() {
		return task.Draft{}, errTitleRequired
	}
	if due := strings.TrimSpace(f.dueVal); due != "" {
		t, err := output.ParseDate(due)
		if err != nil {
			return task.Draft{}, err
		}
		d.DueDate = &t
	}
	return d, nil
}

// SetError shows err under the form, e.g. a failed save.
func (f *taskForm) SetError(err error) {
	f.err = err
	f.submitted = false
	f.canceled = false
}

func (f *taskForm) IsSubmitted() bool { return f.submitted }
func (f *taskForm) IsCanceled() bool  { return f.canceled }

// Render returns the styled form.
func (f *taskForm) Render() string {
	content := headerStyle.Render(f.heading) + "\n"
	content += f.form.View() + "\n"
	if f.err != nil {
		content += errorStyle.Render("error: "+f.err.Error()) + "\n"
	}
	content += mutedStyle.Render("tab/↑↓ navigate · enter save · esc cancel")
	return dialogStyle.Render(content)
}

// confirmDialog asks whether to delete a task. y and n answer directly;
// left/right toggle the huh confirm and enter accepts the toggled value.
type confirmDialog struct {
	form     *huh.Form
	title    string
	value    bool
	answered bool
}

func newConfirmDialog(taskTitle string) *confirmDialog {
	c := &confirmDialog{title: taskTitle}
	c.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("delete %q?", taskTitle)).
				Affirmative("delete").
				Negative("keep").
				Value(&c.value),
		),
	).
		WithTheme(formTheme()).
		WithShowHelp(false)
	_ = c.form.Init()
	return c
}

// HandleKeyPress returns true once the user has answered.
func (c *confirmDialog) HandleKeyPress(msg tea.KeyMsg) bool {
	switch {
	case msg.Type == tea.KeyEsc:
		c.value = false
	case msg.Type == tea.KeyEnter:
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && (msg.Runes[0] == 'y' || msg.Runes[0] == 'Y'):
		c.value = true
	case msg.Type == tea.KeyRunes && len(msg.Runes) == 1 && (msg.Runes[0] == 'n' || msg.Runes[0] == 'N'):
		c.value = false
	default:
		updated, _ := c.form.Update(msg)
		if form, ok := updated.(*huh.Form); ok {
			c.form = form
		}
		return false
	}
	c.answered = true
	return true
}

// Confirmed reports whether the answer was yes.
func (c *confirmDialog) Confirmed() bool { return c.answered && c.value }

func (c *confirmDialog) Render() string {
	return dangerDialogStyle.Render(c.form.View() + "\n" + mutedStyle.Render("y delete · n/esc keep"))
}
