package mp

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes contract violations raised by the core.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates a malformed argument, such as an
	// empty destination or a non-finite timer delay.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeOutOfRange indicates a negative timer delay.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeKeyNotFound indicates a read of a missing payload key.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeFieldNotFound indicates a read of an absent state field.
	ErrCodeFieldNotFound ErrorCode = "FIELD_NOT_FOUND"
)

// Error is a contract violation detected by the core.
//
// All errors are synchronous: they are raised at the point of violation and
// propagate out of the callback to the host. The core never retries or
// suppresses them; the host decides what a propagated error means at the
// simulation level (typically marking the process crashed).
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsInvalidArgument reports whether err is an invalid-argument violation.
// Uses errors.As to handle wrapped errors.
func IsInvalidArgument(err error) bool {
	return hasCode(err, ErrCodeInvalidArgument)
}

// IsOutOfRange reports whether err is a negative-delay violation.
func IsOutOfRange(err error) bool {
	return hasCode(err, ErrCodeOutOfRange)
}

// IsKeyNotFound reports whether err is a missing payload key read.
func IsKeyNotFound(err error) bool {
	return hasCode(err, ErrCodeKeyNotFound)
}

// IsFieldNotFound reports whether err is a read of an absent state field.
func IsFieldNotFound(err error) bool {
	return hasCode(err, ErrCodeFieldNotFound)
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func invalidArgumentf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

func outOfRangef(format string, args ...any) *Error {
	return &Error{Code: ErrCodeOutOfRange, Message: fmt.Sprintf(format, args...)}
}

func keyNotFoundf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeKeyNotFound, Message: fmt.Sprintf(format, args...)}
}

func fieldNotFoundf(format string, args ...any) *Error {
	return &Error{Code: ErrCodeFieldNotFound, Message: fmt.Sprintf(format, args...)}
}
