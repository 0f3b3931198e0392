// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"tasksync/internal/gateway"
	"tasksync/internal/task"
)

// BaseTime is the created_at assigned to the first task created by a FakeGateway.
// Each later task is one minute newer.
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Call records one gateway invocation.
type Call struct {
	Op    string // "list", "create", "update" or "delete"
	ID    string
	Task  task.Task
	Draft task.Draft
}

// FakeGateway is an in-memory implementation of gateway.Gateway for testing.
type FakeGateway struct {
	mu     sync.Mutex
	tasks  []task.Task
	nextID int
	calls  []Call

	// Error injection for testing
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error

	// Hooks run after the call is recorded and before it resolves, without
	// holding the fake's lock. Tests block in them to keep a call in flight.
	BeforeList   func()
	BeforeCreate func(d task.Draft)
	BeforeUpdate func(t task.Task)
	BeforeDelete func(id string)
}

// NewFakeGateway creates an empty FakeGateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{nextID: 1}
}

// AddTask seeds a task directly into the fake's server-side state.
func (f *FakeGateway) AddTask(t task.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t.Clone())
	if n, err := strconv.Atoi(t.ID); err == nil && n >= f.nextID {
		f.nextID = n + 1
	}
}

// Tasks returns a copy of the server-side state.
func (f *FakeGateway) Tasks() []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]task.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Calls returns the recorded invocations in order.
func (f *FakeGateway) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallsTo returns the recorded invocations of op.
func (f *FakeGateway) CallsTo(op string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (f *FakeGateway) record(c Call) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

// List implements gateway.Gateway.
func (f *FakeGateway) List(ctx context.Context) ([]task.Task, error) {
	f.record(Call{Op: "list"})
	if f.BeforeList != nil {
		f.BeforeList()
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if err := ctx.Err(); err != nil {
		return nil, &gateway.TransportError{Op: "list", Err: err}
	}
	return f.Tasks(), nil
}

// Create implements gateway.Gateway.
func (f *FakeGateway) Create(ctx context.Context, draft task.Draft) (task.Task, error) {
	f.record(Call{Op: "create", Draft: draft})
	if f.BeforeCreate != nil {
		f.BeforeCreate(draft)
	}
	if f.CreateErr != nil {
		return task.Task{}, f.CreateErr
	}
	if !draft.Valid() {
		return task.Task{}, &gateway.ValidationError{Op: "create", Message: "title is required"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n := f.nextID
	f.nextID++
	created := task.Task{
		ID:          strconv.Itoa(n),
		Title:       draft.Title,
		Description: draft.Description,
		Completed:   draft.Completed,
		DueDate:     draft.DueDate,
		CreatedAt:   BaseTime.Add(time.Duration(n-1) * time.Minute),
	}.Clone()
	f.tasks = append(f.tasks, created)
	return created.Clone(), nil
}

// Update implements gateway.Gateway.
func (f *FakeGateway) Update(ctx context.Context, t task.Task) error {
	f.record(Call{Op: "update", ID: t.ID, Task: t.Clone()})
	if f.BeforeUpdate != nil {
		f.BeforeUpdate(t)
	}
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	if !task.IsValidTitle(t.Title) {
		return &gateway.ValidationError{Op: "update", Message: "title is required"}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.tasks {
		if existing.ID == t.ID {
			updated := t.Clone()
			updated.CreatedAt = existing.CreatedAt
			f.tasks[i] = updated
			return nil
		}
	}
	return &gateway.NotFoundError{Op: "update", ID: t.ID}
}

// Delete implements gateway.Gateway.
func (f *FakeGateway) Delete(ctx context.Context, id string) error {
	f.record(Call{Op: "delete", ID: id})
	if f.BeforeDelete != nil {
		f.BeforeDelete(id)
	}
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.tasks {
		if existing.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &gateway.NotFoundError{Op: "delete", ID: id}
}
