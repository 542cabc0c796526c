package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that is incomplete or violates bookkeeping rules.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a state conflict: insufficient stock, closed edit window, duplicate key.
	ErrConflict = errors.New("conflict")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrSystemIntegrity indicates the tenant bootstrap is incomplete.
	ErrSystemIntegrity = errors.New("system integrity violated")
)

// Error carries an error kind together with the failing operation.
type Error struct {
	Kind error
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

// Is matches the error kind so callers can use errors.Is(err, shared.ErrConflict).
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds an ErrValidation error.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds an ErrConflict error.
func Conflict(op, format string, args ...any) error {
	return &Error{Kind: ErrConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds an ErrNotFound error.
func NotFound(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Integrity builds an ErrSystemIntegrity error.
func Integrity(op, format string, args ...any) error {
	return &Error{Kind: ErrSystemIntegrity, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to a package sentinel so both errors.Is checks succeed.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}
