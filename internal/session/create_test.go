package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/gateway"
	"tasksync/internal/session"
	"tasksync/internal/store"
	"tasksync/internal/task"
	"tasksync/internal/testutil"
)

func TestCreationSession_SubmitAppends(t *testing.T) {
	gw, s := setup(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: created})
	cs := session.NewCreationSession(gw, s)

	cs.SetTitle("Walk dog")
	cs.SetDescription("around the block")
	cs.SetDueDate(date(2024, 5, 1))
	require.True(t, cs.CanSubmit())

	got, err := cs.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2", got.ID)
	assert.False(t, got.Completed)
	assert.Equal(t, task.Draft{}, cs.Draft())
	assert.False(t, cs.Submitting())

	require.Equal(t, 2, s.Len())
	last, ok := s.At(2)
	require.True(t, ok)
	assert.Equal(t, "Walk dog", last.Title)
	assert.Equal(t, "around the block", last.Description)

	calls := gw.CallsTo("create")
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Draft.Completed)
}

func TestCreationSession_EmptyTitleNotSent(t *testing.T) {
	gw, s := setup(t)
	cs := session.NewCreationSession(gw, s)

	cs.SetTitle("  ")
	assert.False(t, cs.CanSubmit())
	_, err := cs.Submit(context.Background())

	assert.ErrorIs(t, err, session.ErrTitleRequired)
	assert.Empty(t, gw.CallsTo("create"))
	assert.Equal(t, 0, s.Len())
}

func TestCreationSession_FailureKeepsDraft(t *testing.T) {
	gw, s := setup(t)
	gw.CreateErr = &gateway.TransportError{Op: "create", Err: errors.New("timeout")}
	cs := session.NewCreationSession(gw, s)

	cs.SetTitle("Walk dog")
	_, err := cs.Submit(context.Background())

	require.Error(t, err)
	assert.True(t, gateway.IsTransport(err))
	assert.Equal(t, "Walk dog", cs.Draft().Title)
	assert.False(t, cs.Submitting())
	assert.Equal(t, 0, s.Len())

	gw.CreateErr = nil
	_, err = cs.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestCreationSession_SecondSubmitIgnoredWhileInFlight(t *testing.T) {
	gw, s := setup(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	gw.BeforeCreate = func(task.Draft) {
		close(entered)
		<-release
	}
	cs := session.NewCreationSession(gw, s)
	cs.SetTitle("Walk dog")

	done := make(chan error, 1)
	go func() {
		_, err := cs.Submit(context.Background())
		done <- err
	}()
	<-entered

	assert.True(t, cs.Submitting())
	assert.False(t, cs.CanSubmit())
	_, err := cs.Submit(context.Background())
	assert.ErrorIs(t, err, session.ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Len(t, gw.CallsTo("create"), 1)
	assert.Equal(t, 1, s.Len())
}

func TestCreationSession_InsertFailureReported(t *testing.T) {
	gw := testutil.NewFakeGateway()
	s := store.New(gw)
	s.Close()
	cs := session.NewCreationSession(gw, s)
	cs.SetTitle("Walk dog")

	got, err := cs.Submit(context.Background())

	require.Error(t, err)
	assert.Equal(t, "1", got.ID)
	assert.Equal(t, task.Draft{}, cs.Draft())
}
