// Package errors provides quill's error taxonomy, categorization, and
// retry support.
//
// The categories drive recovery policy throughout the daemon:
//   - NotFound and Precondition failures skip the dependent handler and
//     nothing else.
//   - Decode failures drop the input with a warning.
//   - Handler failures are isolated at the per-handler boundary.
//   - Transient effector failures are retried with backoff.
package errors

import (
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: effector timeouts, a busy speech server.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: malformed input, an unknown command kind.
	CategoryPermanent

	// CategoryNotFound indicates an identity was absent from the cache and
	// could not be fetched. Recoverable; the dependent work is skipped.
	CategoryNotFound

	// CategoryPrecondition indicates an extractor's requirement was unmet
	// (for example no focused window). Not an error; a silent skip.
	CategoryPrecondition
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryNotFound:
		return "not_found"
	case CategoryPrecondition:
		return "precondition"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Permanent creates a permanent error.
func Permanent(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryPermanent, context)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	if errors.Is(err, ErrPreconditionNotMet) {
		return CategoryPrecondition
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return CategoryNotFound
	}

	var effErr *EffectorError
	if errors.As(err, &effErr) {
		if effErr.Transient {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	// Decode, handler, and invariant errors do not benefit from retries.
	// Unknown errors are permanent (fail safe).
	return CategoryPermanent
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsNotFound reports whether the error denotes a missing identity.
func IsNotFound(err error) bool {
	return Categorize(err) == CategoryNotFound
}

// IsPrecondition reports whether the error is a silent precondition skip.
func IsPrecondition(err error) bool {
	return Categorize(err) == CategoryPrecondition
}
