// Package gateway defines the backend-agnostic contract for remote task CRUD.
package gateway

import (
	"context"

	"tasksync/internal/task"
)

// Gateway is the boundary to the remote task service.
// The store and sessions never talk to a backend SDK directly.
// Every call is fire-once: no retries, no batching.
type Gateway interface {
	// List returns all tasks in server order.
	List(ctx context.Context) ([]task.Task, error)

	// Create persists a draft and returns the task with server-assigned
	// ID and CreatedAt. A rejected payload is a *ValidationError.
	Create(ctx context.Context, draft task.Draft) (task.Task, error)

	// Update replaces every mutable field of the task identified by t.ID.
	// Partial updates are not supported; callers send the full merged record.
	// Fails with *NotFoundError for an unknown id, otherwise *TransportError.
	Update(ctx context.Context, t task.Task) error

	// Delete removes the task with the given id. Errors are as for Update.
	Delete(ctx context.Context, id string) error
}
