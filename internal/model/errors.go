package model

import "fmt"

// ErrorKind is the closed taxonomy from spec.md §7.
type ErrorKind string

const (
	ErrNotFound        ErrorKind = "not_found"
	ErrSchemaViolation ErrorKind = "schema_violation"
	ErrValidation      ErrorKind = "validation"
	ErrNoGraphLoaded   ErrorKind = "no_graph_loaded"
	ErrBatchRejected   ErrorKind = "batch_rejected"
	ErrPersistence     ErrorKind = "persistence"
	ErrUnsupported     ErrorKind = "unsupported"
	ErrInternal        ErrorKind = "internal"
)

// Error is the single error type surfaced across the engine, generator,
// weaver, and dispatcher boundary. Every error the core returns carries one
// of the closed ErrorKind values so transports can map it without
// inspecting message text.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError constructs an *Error of the given kind.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping an existing error.
func Wrap(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the ErrorKind from err, defaulting to ErrInternal for
// errors that did not originate from this package.
func KindOf(err error) ErrorKind {
	var e *Error
	if As(err, &e) {
		return e.Kind
	}
	return ErrInternal
}

// As is a tiny local alias of errors.As to avoid importing "errors" in
// every caller that only wants KindOf.
func As(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
