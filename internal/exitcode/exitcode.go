// Package exitcode defines exit codes for the CLI and maps errors onto them.
package exitcode

import (
	"context"
	"errors"

	"tasksync/internal/gateway"
)

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task ref, rejected input).
	UserError = 1

	// AuthError indicates an auth/credentials error.
	AuthError = 2

	// BackendError indicates a backend/API/network error.
	BackendError = 3
)

// ErrAuth marks errors that should exit with AuthError.
var ErrAuth = errors.New("auth error")

// FromError classifies err. A nil error is Success.
func FromError(err error) int {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, ErrAuth), gateway.IsUnauthorized(err):
		return AuthError
	case gateway.IsValidation(err), gateway.IsNotFound(err):
		return UserError
	case gateway.IsTransport(err), errors.Is(err, context.DeadlineExceeded):
		return BackendError
	default:
		return UserError
	}
}
