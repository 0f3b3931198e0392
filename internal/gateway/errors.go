package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is wrapped by a *TransportError when the service rejects
// the client's credentials.
var ErrUnauthorized = errors.New("unauthorized")

// TransportError reports a network failure or a non-success status that is
// not otherwise classified.
type TransportError struct {
	Op         string // "list", "create", "update" or "delete"
	StatusCode int    // 0 when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports that the service rejected the payload.
type ValidationError struct {
	Op      string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: rejected by service", e.Op)
	}
	return fmt.Sprintf("%s: rejected by service: %s", e.Op, e.Message)
}

// NotFoundError reports that the targeted id no longer exists server-side.
type NotFoundError struct {
	Op string
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: task not found: %s", e.Op, e.ID)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is or wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsUnauthorized reports whether err wraps ErrUnauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
