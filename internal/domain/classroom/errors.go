package classroom

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrStateTransition      = errors.New("invalid class status transition")
	ErrEnrollmentClosed     = errors.New("class is not accepting enrollment")
	ErrClassFull            = errors.New("class is full")
	ErrDuplicateEnrollment  = errors.New("student already actively enrolled")
	ErrInsufficientCredits  = errors.New("insufficient meeting credits")
	ErrCreditFloorViolation = errors.New("credit total would fall below used credits")
	ErrUnlockNotAuthorized  = errors.New("only the instructor may unlock lessons")
	ErrAlreadyUnlocked      = errors.New("lesson already unlocked")
	ErrUnlockLimitExceeded  = errors.New("lesson unlock limit reached")
	ErrNotFound             = errors.New("not found")
	ErrEnrollmentNotActive  = errors.New("enrollment is not active")
	ErrUnsupportedClassType = errors.New("operation not supported for class type")
	ErrInvalidInput         = errors.New("invalid input")

	// Returned by Repository implementations.
	ErrVersionConflict     = errors.New("class was modified concurrently")
	ErrDuplicateAttendance = errors.New("attendance already recorded for meeting")
)

// Error carries the failing operation and a human readable message for a kind.
type Error struct {
	Op      string
	Kind    error
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("classroom.%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("classroom.%s: %s", e.Op, e.Message)
}

// Unwrap exposes the kind for errors.Is.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op string, kind error, message string) *Error {
	return &Error{Op: op, Kind: kind, Message: message}
}

// KindOf returns the sentinel kind carried by err, or nil when err is not a classroom error.
func KindOf(err error) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return nil
}
