// Package tui renders the task collection as an interactive terminal view.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"tasksync/internal/gateway"
	"tasksync/internal/log"
	"tasksync/internal/output"
	"tasksync/internal/session"
	"tasksync/internal/store"
	"tasksync/internal/task"
)

type state int

const (
	stateList state = iota
	// stateCreate is the state when the new-task form is open.
	stateCreate
	// stateEdit is the state when the edit form is open for one task.
	stateEdit
	// stateConfirmDelete is the state when the delete confirmation is shown.
	stateConfirmDelete
)

// Run starts the view and blocks until the user quits or ctx is done.
// The collection is torn down when the view exits.
func Run(ctx context.Context, gw gateway.Gateway) error {
	m := New(ctx, gw)
	defer m.store.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Model is the bubbletea model over one task store.
type Model struct {
	ctx   context.Context
	gw    gateway.Gateway
	store *store.Store

	state  state
	cursor int
	width  int

	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	loading  bool
	showHelp bool
	status   string

	form     *taskForm
	confirm  *confirmDialog
	creation *session.CreationSession
	edit     *session.EditSession
	// sessions holds the edit session per task id, so a save that fails
	// after its form closed can reopen with the draft intact.
	sessions map[string]*session.EditSession
}

// New builds a model with an empty, not yet loaded store.
func New(ctx context.Context, gw gateway.Gateway) *Model {
	st := store.New(gw)
	return &Model{
		ctx:      ctx,
		gw:       gw,
		store:    st,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle)),
		help:     help.New(),
		keys:     DefaultKeyMap(),
		loading:  true,
		creation: session.NewCreationSession(gw, st),
		sessions: make(map[string]*session.EditSession),
	}
}

type loadedMsg struct{ err error }

type createdMsg struct {
	task task.Task
	err  error
}

type savedMsg struct {
	id  string
	err error
}

type toggledMsg struct {
	id  string
	err error
}

type deletedMsg struct {
	id  string
	err error
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadCmd())
}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: m.store.Load(m.ctx)}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.status = "load failed: " + rootCause(msg.err)
		} else {
			m.status = ""
		}
		m.clampCursor()
		return m, nil
	case createdMsg:
		return m.handleCreated(msg)
	case savedMsg:
		return m.handleSaved(msg)
	case toggledMsg:
		if msg.err != nil {
			m.status = "update failed: " + rootCause(msg.err)
		}
		return m, nil
	case deletedMsg:
		// Another task's dialog may have opened while this delete was in flight.
		if m.edit != nil && m.edit.ID() == msg.id {
			m.edit = nil
		}
		if msg.err != nil {
			m.status = "delete failed: " + rootCause(msg.err)
			return m, nil
		}
		delete(m.sessions, msg.id)
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	}
	return m, nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateCreate:
		return m.handleCreateKey(msg)
	case stateEdit:
		return m.handleEditKey(msg)
	case stateConfirmDelete:
		return m.handleConfirmKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.store.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return m, m.loadCmd()
	case key.Matches(msg, m.keys.New):
		if m.creation.Submitting() {
			m.status = "a new task is still being created"
			return m, nil
		}
		m.status = ""
		m.form = newTaskForm("new task", m.creation.Draft(), m.width)
		m.state = stateCreate
	case key.Matches(msg, m.keys.Edit):
		return m.startEdit()
	case key.Matches(msg, m.keys.Toggle):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.toggleCmd(t)
	case key.Matches(msg, m.keys.Delete):
		return m.startDelete()
	}
	return m, nil
}

func (m *Model) handleCreateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.form.HandleKeyPress(msg) {
		return m, nil
	}
	f := m.form
	m.form = nil
	m.state = stateList
	if f.IsCanceled() {
		return m, nil
	}

	d, _ := f.Draft()
	m.creation.SetTitle(d.Title)
	m.creation.SetDescription(d.Description)
	m.creation.SetDueDate(d.DueDate)
	return m, m.createCmd()
}

func (m *Model) createCmd() tea.Cmd {
	cs := m.creation
	return func() tea.Msg {
		t, err := cs.Submit(m.ctx)
		return createdMsg{task: t, err: err}
	}
}

func (m *Model) handleCreated(msg createdMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil && !msg.task.Persisted() {
		if errors.Is(msg.err, session.ErrSubmitInFlight) {
			return m, nil
		}
		// The creation session kept the draft; reopen it for a retry.
		m.form = newTaskForm("new task", m.creation.Draft(), m.width)
		m.form.SetError(fmt.Errorf("create failed: %s", rootCause(msg.err)))
		m.state = stateCreate
		return m, nil
	}
	if msg.err != nil {
		log.WarningLog.Printf("created task %s not shown: %v", msg.task.ID, msg.err)
	}
	m.status = ""
	m.cursor = m.store.Len() - 1
	m.clampCursor()
	return m, nil
}

func (m *Model) sessionFor(id string) *session.EditSession {
	es, ok := m.sessions[id]
	if !ok {
		es = session.NewEditSession(id, m.store)
		m.sessions[id] = es
	}
	return es
}

func (m *Model) startEdit() (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	es := m.sessionFor(t.ID)
	if es.Busy() {
		m.status = "still saving " + t.Title
		return m, nil
	}
	if es.Mode() != session.ModeEditing {
		if err := es.StartEdit(); err != nil {
			m.status = err.Error()
			return m, nil
		}
	}
	m.edit = es
	m.form = newTaskForm("edit task", es.Draft(), m.width)
	m.state = stateEdit
	m.status = ""
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.form.HandleKeyPress(msg) {
		return m, nil
	}
	f, es := m.form, m.edit
	m.form = nil
	m.state = stateList
	if f.IsCanceled() {
		_ = es.Cancel()
		m.edit = nil
		return m, nil
	}

	d, _ := f.Draft()
	_ = es.SetTitle(d.Title)
	_ = es.SetDescription(d.Description)
	_ = es.SetDueDate(d.DueDate)
	return m, func() tea.Msg {
		return savedMsg{id: es.ID(), err: es.Save(m.ctx)}
	}
}

func (m *Model) handleSaved(msg savedMsg) (tea.Model, tea.Cmd) {
	es, ok := m.sessions[msg.id]
	if !ok {
		return m, nil
	}
	if msg.err == nil {
		delete(m.sessions, msg.id)
		return m, nil
	}
	if errors.Is(msg.err, session.ErrBusy) {
		return m, nil
	}
	// Still editing with the draft intact. Reopen unless another dialog is up.
	if m.state != stateList {
		m.status = "save failed: " + rootCause(msg.err)
		return m, nil
	}
	m.edit = es
	m.form = newTaskForm("edit task", es.Draft(), m.width)
	m.form.SetError(fmt.Errorf("save failed: %s", rootCause(msg.err)))
	m.state = stateEdit
	return m, nil
}

func (m *Model) toggleCmd(t task.Task) tea.Cmd {
	return func() tea.Msg {
		return toggledMsg{id: t.ID, err: m.store.SetCompleted(m.ctx, t.ID, !t.Completed)}
	}
}

func (m *Model) startDelete() (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	es := m.sessionFor(t.ID)
	if err := es.RequestDelete(); err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.edit = es
	m.confirm = newConfirmDialog(t.Title)
	m.state = stateConfirmDelete
	m.status = ""
	return m, nil
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.confirm.HandleKeyPress(msg) {
		return m, nil
	}
	confirmed := m.confirm.Confirmed()
	es := m.edit
	m.confirm = nil
	m.state = stateList
	if !confirmed {
		_ = es.CancelDelete()
		m.edit = nil
		return m, nil
	}
	return m, func() tea.Msg {
		return deletedMsg{id: es.ID(), err: es.ConfirmDelete(m.ctx)}
	}
}

func (m *Model) selected() (task.Task, bool) {
	return m.store.At(m.cursor + 1)
}

func (m *Model) clampCursor() {
	if n := m.store.Len(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("tasks"))
	b.WriteString("\n")

	switch {
	case m.loading && !m.store.Loaded():
		b.WriteString(m.spinner.View() + " loading…\n")
	case m.store.Len() == 0 && m.store.LoadErr() == nil:
		b.WriteString(mutedStyle.Render("no tasks yet, press n to add one") + "\n")
	default:
		for i, t := range m.store.Snapshot() {
			b.WriteString(m.renderRow(i, t))
			b.WriteString("\n")
		}
	}

	if m.creation.Submitting() {
		b.WriteString(pendingStyle.Render(m.spinner.View()+" creating…") + "\n")
	}
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status) + "\n")
	}

	switch m.state {
	case stateCreate, stateEdit:
		b.WriteString("\n" + m.form.Render() + "\n")
	case stateConfirmDelete:
		b.WriteString("\n" + m.confirm.Render() + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderRow(i int, t task.Task) string {
	marker := "  "
	if m.store.Pending(t.ID) {
		marker = m.spinner.View() + " "
	}

	title := t.Title
	style := rowStyle
	if t.Completed {
		style = doneStyle
	}
	line := fmt.Sprintf("%s %s", output.Checkbox(t.Completed), style.Render(title))
	if t.DueDate != nil {
		line += "  " + dueStyle.Render("due "+output.FormatDate(*t.DueDate))
	}

	if i == m.cursor && m.state == stateList {
		return marker + selectedStyle.Render(">") + " " + line
	}
	return marker + "  " + line
}

// rootCause trims wrapping context so the status line stays short.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err.Error()
}

var _ tea.Model = (*Model)(nil)
