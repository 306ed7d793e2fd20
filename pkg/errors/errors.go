package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss    = New("CACHE_MISS", http.StatusNotFound, "cache miss")

	ErrConcurrentModification = New("CONCURRENT_MODIFICATION", http.StatusConflict, "resource was modified concurrently, retry the request")
)

// Class engine business rule errors.
var (
	ErrInvalidStateTransition = New("INVALID_STATE_TRANSITION", http.StatusConflict, "invalid class status transition")
	ErrEnrollmentClosed       = New("ENROLLMENT_CLOSED", http.StatusPreconditionFailed, "class is not accepting enrollment")
	ErrClassFull              = New("CLASS_FULL", http.StatusConflict, "class is full")
	ErrDuplicateEnrollment    = New("DUPLICATE_ENROLLMENT", http.StatusConflict, "student already enrolled")
	ErrInsufficientCredits    = New("INSUFFICIENT_CREDITS", http.StatusPreconditionFailed, "insufficient meeting credits")
	ErrCreditFloorViolation   = New("CREDIT_FLOOR_VIOLATION", http.StatusPreconditionFailed, "credit total cannot fall below used credits")
	ErrEnrollmentNotActive    = New("ENROLLMENT_NOT_ACTIVE", http.StatusPreconditionFailed, "enrollment is not active")
	ErrUnlockNotAuthorized    = New("UNLOCK_NOT_AUTHORIZED", http.StatusForbidden, "only the class instructor may unlock lessons")
	ErrAlreadyUnlocked        = New("LESSON_ALREADY_UNLOCKED", http.StatusConflict, "lesson already unlocked")
	ErrUnlockLimitExceeded    = New("UNLOCK_LIMIT_EXCEEDED", http.StatusPreconditionFailed, "lesson unlock limit reached")
	ErrUnsupportedClassType   = New("UNSUPPORTED_CLASS_TYPE", http.StatusPreconditionFailed, "operation not supported for class type")
	ErrDuplicateAttendance    = New("DUPLICATE_ATTENDANCE", http.StatusConflict, "attendance already recorded for meeting")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
