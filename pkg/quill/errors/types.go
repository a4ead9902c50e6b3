package errors

import (
	"errors"
	"fmt"
)

// ErrPreconditionNotMet signals that an extractor's requirement was unmet
// for the current event. Handlers depending on the extraction are skipped
// silently; nothing is logged above debug level.
var ErrPreconditionNotMet = errors.New("precondition not met")

// NotFoundError reports an identity absent from the cache that the external
// client could not supply either.
type NotFoundError struct {
	ID  fmt.Stringer
	Err error
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("accessible %s not found: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("accessible %s not found", e.ID)
}

// Unwrap returns the fetch error, if any.
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// DecodeError indicates a malformed bus message. The pipeline drops the
// message with a warning and continues.
type DecodeError struct {
	Member  string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Member, e.Message, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Member, e.Message)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HandlerError isolates an unexpected failure inside one handler. Only that
// handler's output is lost for the event.
type HandlerError struct {
	Handler string
	Err     error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s: %v", e.Handler, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// InvariantError reports a cache-consistency violation observed during a
// traversal, such as a cycle found while walking ancestors. The traversal
// returns a truncated result; the error never propagates process-wide.
type InvariantError struct {
	Message string
}

// Error implements the error interface.
func (e *InvariantError) Error() string {
	return "cache invariant violation: " + e.Message
}

// EffectorError reports a failure applying a command at an external
// effector. Transient failures are eligible for retry.
type EffectorError struct {
	Effector  string
	Transient bool
	Err       error
}

// Error implements the error interface.
func (e *EffectorError) Error() string {
	return fmt.Sprintf("effector %s: %v", e.Effector, e.Err)
}

// Unwrap returns the underlying error.
func (e *EffectorError) Unwrap() error {
	return e.Err
}
