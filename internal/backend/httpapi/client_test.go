package httpapi_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasksync/internal/backend/httpapi"
	"tasksync/internal/devserver"
	"tasksync/internal/gateway"
	"tasksync/internal/store"
	"tasksync/internal/task"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

var _ gateway.Gateway = (*httpapi.Client)(nil)

// newDevClient starts a devserver behind httptest and returns a client for it.
func newDevClient(t *testing.T) *httpapi.Client {
	t.Helper()
	db, err := devserver.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := 0
	srv := devserver.NewServer(db,
		devserver.WithIDs(func() string {
			n++
			return fmt.Sprint(n)
		}),
		devserver.WithClock(func() time.Time {
			return baseTime.Add(time.Duration(n-1) * time.Minute)
		}),
	)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := httpapi.New(ts.URL, httpapi.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c
}

func newStubClient(t *testing.T, h http.HandlerFunc) *httpapi.Client {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := httpapi.New(ts.URL, httpapi.WithHTTPClient(ts.Client()))
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := httpapi.New("ftp://example.com")
	assert.Error(t, err)

	c, err := httpapi.New("")
	require.NoError(t, err)
	assert.Equal(t, httpapi.DefaultBaseURL, c.BaseURL())
}

func TestClient_CreateThenListRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newDevClient(t)

	due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	a, err := c.Create(ctx, task.Draft{Title: "Buy milk"})
	require.NoError(t, err)
	b, err := c.Create(ctx, task.Draft{Title: "Pay rent", Description: "by the 1st", DueDate: &due, Completed: true})
	require.NoError(t, err)

	assert.Equal(t, task.Task{ID: "1", Title: "Buy milk", CreatedAt: baseTime}, a)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, b.Completed, "create always sends completed=false")

	tasks, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.True(t, tasks[0].Equal(a))
	assert.Equal(t, "Pay rent", tasks[1].Title)
	assert.Equal(t, "by the 1st", tasks[1].Description)
	require.NotNil(t, tasks[1].DueDate)
	assert.True(t, tasks[1].DueDate.Equal(due))
	assert.False(t, tasks[1].CreatedAt.IsZero())
}

func TestClient_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	c := newDevClient(t)

	created, err := c.Create(ctx, task.Draft{Title: "Buy milk"})
	require.NoError(t, err)

	require.NoError(t, c.Update(ctx, created.WithCompleted(true)))
	tasks, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Completed)
	assert.Equal(t, created.CreatedAt, tasks[0].CreatedAt)

	require.NoError(t, c.Delete(ctx, created.ID))
	tasks, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestClient_ErrorClassification(t *testing.T) {
	ctx := context.Background()
	c := newDevClient(t)

	_, err := c.Create(ctx, task.Draft{Title: " "})
	assert.True(t, gateway.IsValidation(err), "got %v", err)

	err = c.Update(ctx, task.Task{ID: "missing", Title: "x"})
	assert.True(t, gateway.IsNotFound(err), "got %v", err)

	err = c.Delete(ctx, "missing")
	assert.True(t, gateway.IsNotFound(err), "got %v", err)
}

func TestClient_ServerErrorIsTransport(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database is locked"}`))
	})

	_, err := c.List(context.Background())
	require.Error(t, err)

	var te *gateway.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestClient_ListNotFoundIsTransport(t *testing.T) {
	c := newStubClient(t, http.NotFound)

	_, err := c.List(context.Background())
	assert.True(t, gateway.IsTransport(err), "got %v", err)
	assert.False(t, gateway.IsNotFound(err))
}

func TestClient_UnreachableIsTransport(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := httpapi.New(url)
	require.NoError(t, err)
	_, err = c.List(context.Background())
	assert.True(t, gateway.IsTransport(err), "got %v", err)
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c, err := httpapi.New(ts.URL, httpapi.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.List(context.Background())
	assert.True(t, gateway.IsTransport(err), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_GarbageBodyIsTransport(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := c.List(context.Background())
	assert.True(t, gateway.IsTransport(err), "got %v", err)
}

func TestClient_AcceptsNoContentAndOKOnMutations(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNoContent)
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	})

	require.NoError(t, c.Update(context.Background(), task.Task{ID: "1", Title: "x"}))
	require.NoError(t, c.Delete(context.Background(), "1"))

	status.Store(http.StatusOK)
	require.NoError(t, c.Update(context.Background(), task.Task{ID: "1", Title: "x"}))
	require.NoError(t, c.Delete(context.Background(), "1"))
}

// Store scenarios end-to-end against the dev server.
func TestStoreOverHTTP(t *testing.T) {
	ctx := context.Background()
	c := newDevClient(t)

	s := store.New(c)
	defer s.Close()
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Len())

	created, err := c.Create(ctx, task.Draft{Title: "Buy milk"})
	require.NoError(t, err)
	require.NoError(t, s.Insert(created))

	require.NoError(t, s.SetCompleted(ctx, created.ID, true))
	require.NoError(t, s.ApplyEdit(ctx, created.ID, "Buy bread", "", nil))

	got, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Buy bread", got.Title)
	assert.True(t, got.Completed)

	require.NoError(t, s.Load(ctx))
	reloaded, ok := s.Get(created.ID)
	require.True(t, ok)
	assert.True(t, reloaded.Equal(got))

	require.NoError(t, s.Remove(ctx, created.ID))
	assert.Equal(t, 0, s.Len())
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_TimeoutIsOptIn(t *testing.T) {
	var hasDeadline bool
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		_, hasDeadline = r.Context().Deadline()
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`[]`)),
			Request:    r,
		}, nil
	})}

	c, err := httpapi.New("http://tasks.test", httpapi.WithHTTPClient(hc))
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.False(t, hasDeadline, "no deadline without WithTimeout")

	c, err = httpapi.New("http://tasks.test", httpapi.WithHTTPClient(hc), httpapi.WithTimeout(time.Minute))
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.True(t, hasDeadline)
}

func TestClient_RejectedUpdateIsTransport(t *testing.T) {
	c := newStubClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"title is required"}`))
	})

	err := c.Update(context.Background(), task.Task{ID: "1", Title: "x"})
	assert.True(t, gateway.IsTransport(err), "got %v", err)
	assert.False(t, gateway.IsValidation(err))

	var te *gateway.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusBadRequest, te.StatusCode)
	assert.Contains(t, err.Error(), "title is required")

	_, err = c.Create(context.Background(), task.Draft{Title: "x"})
	assert.True(t, gateway.IsValidation(err), "got %v", err)
}
