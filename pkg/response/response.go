package response

import (
	"errors"
)

// Error is an error that carries the HTTP status it should be reported with.
// Details is an optional client-facing explanation.
type Error struct {
	Code    int
	Err     error
	Details string
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on code and message so that a detailed copy of a sentinel still
// satisfies errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{Code: code, Err: errors.New(err)}
}

// WithDetails returns a copy of sentinel carrying details. Errors that are not
// *Error are returned unchanged.
func WithDetails(sentinel error, details string) error {
	var e *Error
	if !errors.As(sentinel, &e) {
		return sentinel
	}
	return &Error{Code: e.Code, Err: e.Err, Details: details}
}
