// Package errors provides structured errors with stable codes for the
// confset engine. Every failure a command can surface maps to one code,
// which the CLI translates into an exit status.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode identifies an error category with a stable string value.
type ErrorCode string

const (
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// ErrNotFound means a config set or path reference does not exist.
	ErrNotFound ErrorCode = "NOT_FOUND"

	// ErrAlreadyExists means a config set name collides with an existing one.
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// ErrConflict means an operation would overwrite non-symlink data,
	// remove something that is not a symlink, or delete the active set.
	ErrConflict ErrorCode = "CONFLICT"

	// ErrNotManaged means a remove target is absent from the manifest.
	ErrNotManaged ErrorCode = "NOT_MANAGED"

	// ErrCorrupt means a manifest or meta file is unreadable or malformed.
	ErrCorrupt ErrorCode = "CORRUPT"

	// ErrInconsistent means the filesystem and the manifest disagree,
	// typically after an interrupted transaction.
	ErrInconsistent ErrorCode = "INCONSISTENT"

	// ErrIOFailure is an underlying read/write/copy failure.
	ErrIOFailure ErrorCode = "IO_FAILURE"

	// ErrLocked means the repository advisory lock could not be acquired.
	ErrLocked ErrorCode = "LOCKED"
)

// Error is a structured error carrying a code, a message, optional
// key/value details and an optional wrapped cause.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports code equality so errors.Is can match by category.
func (e *Error) Is(target error) bool {
	var targetErr *Error
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates an Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates an Error with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error. Returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail attaches a detail to the error and returns it.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsCode checks whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// CodeOf returns the code carried by err, or ErrUnknown.
func CodeOf(err error) ErrorCode {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return ErrUnknown
}
