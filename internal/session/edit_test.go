package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/gateway"
	"tasksync/internal/session"
	"tasksync/internal/store"
	"tasksync/internal/task"
	"tasksync/internal/testutil"
)

var created = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func setup(t *testing.T, tasks ...task.Task) (*testutil.FakeGateway, *store.Store) {
	t.Helper()
	gw := testutil.NewFakeGateway()
	for _, tk := range tasks {
		gw.AddTask(tk)
	}
	s := store.New(gw)
	require.NoError(t, s.Load(context.Background()))
	t.Cleanup(s.Close)
	return gw, s
}

func TestApplyTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    session.Mode
		event   session.Event
		want    session.Mode
		wantErr bool
	}{
		{"view to edit", session.ModeViewing, session.StartEdit, session.ModeEditing, false},
		{"view to confirm", session.ModeViewing, session.RequestDelete, session.ModeConfirmingDelete, false},
		{"edit cancel", session.ModeEditing, session.CancelEdit, session.ModeViewing, false},
		{"edit save", session.ModeEditing, session.Save, session.ModeViewing, false},
		{"confirm cancel", session.ModeConfirmingDelete, session.CancelDelete, session.ModeViewing, false},
		{"confirm delete", session.ModeConfirmingDelete, session.ConfirmDelete, session.ModeDeleted, false},
		{"save while viewing", session.ModeViewing, session.Save, "", true},
		{"delete while editing", session.ModeEditing, session.RequestDelete, "", true},
		{"anything after deleted", session.ModeDeleted, session.StartEdit, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := session.ApplyTransition(tt.from, tt.event)
			if tt.wantErr {
				assert.ErrorIs(t, err, session.ErrInvalidTransition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEditSession_SaveAppliesDraft(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", Completed: true, CreatedAt: created})
	es := session.NewEditSession("1", s)

	require.NoError(t, es.StartEdit())
	assert.Equal(t, session.ModeEditing, es.Mode())
	assert.Equal(t, "Buy milk", es.Draft().Title)

	require.NoError(t, es.SetTitle("Buy oat milk"))
	require.NoError(t, es.SetDescription("2 liters"))
	require.NoError(t, es.SetDueDate(date(2024, 6, 1)))
	require.NoError(t, es.Save(context.Background()))

	assert.Equal(t, session.ModeViewing, es.Mode())
	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Buy oat milk", got.Title)
	assert.Equal(t, "2 liters", got.Description)
	assert.True(t, got.Completed)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(*date(2024, 6, 1)))
	assert.Len(t, gw.CallsTo("update"), 1)
}

func TestEditSession_CancelMakesNoCall(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	es := session.NewEditSession("1", s)

	require.NoError(t, es.StartEdit())
	require.NoError(t, es.SetTitle("Something else"))
	require.NoError(t, es.Cancel())

	assert.Equal(t, session.ModeViewing, es.Mode())
	got, _ := s.Get("1")
	assert.Equal(t, "Buy milk", got.Title)
	assert.Empty(t, gw.CallsTo("update"))
}

func TestEditSession_SaveEmptyTitleIsNoop(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	es := session.NewEditSession("1", s)

	require.NoError(t, es.StartEdit())
	require.NoError(t, es.SetTitle("   "))
	err := es.Save(context.Background())

	assert.ErrorIs(t, err, session.ErrTitleRequired)
	assert.Equal(t, session.ModeEditing, es.Mode())
	assert.Empty(t, gw.CallsTo("update"))
}

func TestEditSession_SaveFailureKeepsDraft(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	gw.UpdateErr = &gateway.TransportError{Op: "update", Err: errors.New("connection refused")}
	es := session.NewEditSession("1", s)

	require.NoError(t, es.StartEdit())
	require.NoError(t, es.SetTitle("Buy bread"))
	err := es.Save(context.Background())

	require.Error(t, err)
	assert.True(t, gateway.IsTransport(err))
	assert.Equal(t, session.ModeEditing, es.Mode())
	assert.Equal(t, "Buy bread", es.Draft().Title)
	got, _ := s.Get("1")
	assert.Equal(t, "Buy milk", got.Title)

	gw.UpdateErr = nil
	require.NoError(t, es.Save(context.Background()))
	got, _ = s.Get("1")
	assert.Equal(t, "Buy bread", got.Title)
}

func TestEditSession_ClearDueDate(t *testing.T) {
	_, s := setup(t, task.Task{ID: "1", Title: "Pay rent", DueDate: date(2024, 3, 1), CreatedAt: created})
	es := session.NewEditSession("1", s)

	require.NoError(t, es.StartEdit())
	require.NoError(t, es.SetDueDate(nil))
	require.NoError(t, es.Save(context.Background()))

	got, _ := s.Get("1")
	assert.Nil(t, got.DueDate)
}

func TestEditSession_DraftOnlyEditableWhileEditing(t *testing.T) {
	_, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	es := session.NewEditSession("1", s)

	assert.ErrorIs(t, es.SetTitle("x"), session.ErrInvalidTransition)
	assert.ErrorIs(t, es.Save(context.Background()), session.ErrInvalidTransition)
}

func TestEditSession_StartEditOnMissingTask(t *testing.T) {
	_, s := setup(t)
	es := session.NewEditSession("42", s)

	err := es.StartEdit()
	assert.ErrorIs(t, err, session.ErrTaskGone)
	assert.Equal(t, session.ModeViewing, es.Mode())
}

func TestEditSession_DeleteFlow(t *testing.T) {
	gw, s := setup(t,
		task.Task{ID: "1", Title: "Buy milk", CreatedAt: created},
		task.Task{ID: "2", Title: "Pay rent", CreatedAt: created},
	)
	es := session.NewEditSession("1", s)

	require.NoError(t, es.RequestDelete())
	assert.Equal(t, session.ModeConfirmingDelete, es.Mode())
	require.NoError(t, es.CancelDelete())
	assert.Equal(t, session.ModeViewing, es.Mode())
	assert.Empty(t, gw.CallsTo("delete"))

	require.NoError(t, es.RequestDelete())
	require.NoError(t, es.ConfirmDelete(context.Background()))
	assert.Equal(t, session.ModeDeleted, es.Mode())
	assert.Equal(t, 1, s.Len())
	_, ok := s.Get("1")
	assert.False(t, ok)

	assert.ErrorIs(t, es.StartEdit(), session.ErrInvalidTransition)
	assert.ErrorIs(t, es.RequestDelete(), session.ErrInvalidTransition)
}

func TestEditSession_DeleteFailureReturnsToViewing(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	gw.DeleteErr = &gateway.TransportError{Op: "delete", StatusCode: 500}
	es := session.NewEditSession("1", s)

	require.NoError(t, es.RequestDelete())
	err := es.ConfirmDelete(context.Background())

	require.Error(t, err)
	assert.Equal(t, session.ModeViewing, es.Mode())
	_, ok := s.Get("1")
	assert.True(t, ok)
}

func TestEditSession_BusyWhileSaving(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	release := make(chan struct{})
	entered := make(chan struct{})
	gw.BeforeUpdate = func(task.Task) {
		close(entered)
		<-release
	}
	es := session.NewEditSession("1", s)
	require.NoError(t, es.StartEdit())
	require.NoError(t, es.SetTitle("Buy bread"))

	done := make(chan error, 1)
	go func() { done <- es.Save(context.Background()) }()
	<-entered

	assert.True(t, es.Busy())
	assert.ErrorIs(t, es.Save(context.Background()), session.ErrBusy)
	assert.ErrorIs(t, es.Cancel(), session.ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, es.Busy())
	assert.Len(t, gw.CallsTo("update"), 1)
}

func TestEditSessions_Independent(t *testing.T) {
	_, s := setup(t,
		task.Task{ID: "1", Title: "Buy milk", CreatedAt: created},
		task.Task{ID: "2", Title: "Pay rent", CreatedAt: created},
	)
	a := session.NewEditSession("1", s)
	b := session.NewEditSession("2", s)

	require.NoError(t, a.StartEdit())
	require.NoError(t, b.RequestDelete())

	assert.Equal(t, session.ModeEditing, a.Mode())
	assert.Equal(t, session.ModeConfirmingDelete, b.Mode())
}
