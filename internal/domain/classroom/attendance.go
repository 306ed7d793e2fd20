package classroom

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attendance records a student's presence at one meeting.
// It references its enrollment by id only; the class applies credit effects.
type Attendance struct {
	id             string
	enrollmentID   string
	classID        string
	meetingNumber  int
	meetingDate    time.Time
	status         AttendanceStatus
	creditConsumed bool
	markedBy       string
	markedAt       time.Time
	lastEditedBy   *string
	lastEditedAt   *time.Time
	notes          string
}

// AttendanceSnapshot is the persisted form of an Attendance.
type AttendanceSnapshot struct {
	ID             string
	EnrollmentID   string
	ClassID        string
	MeetingNumber  int
	MeetingDate    time.Time
	Status         AttendanceStatus
	CreditConsumed bool
	MarkedBy       string
	MarkedAt       time.Time
	LastEditedBy   *string
	LastEditedAt   *time.Time
	Notes          string
}

func newAttendance(classID, enrollmentID string, meetingNumber int, meetingDate time.Time, status AttendanceStatus, markedBy, notes string, at time.Time) (*Attendance, error) {
	if meetingNumber < 1 {
		return nil, newError("NewAttendance", ErrInvalidInput, "meeting number must be at least 1")
	}
	if !status.IsValid() {
		return nil, newError("NewAttendance", ErrInvalidInput, fmt.Sprintf("unknown attendance status %q", status))
	}
	markedBy = strings.TrimSpace(markedBy)
	if markedBy == "" {
		return nil, newError("NewAttendance", ErrInvalidInput, "marked by is required")
	}
	if meetingDate.IsZero() {
		meetingDate = at
	}
	return &Attendance{
		id:             uuid.NewString(),
		enrollmentID:   enrollmentID,
		classID:        classID,
		meetingNumber:  meetingNumber,
		meetingDate:    meetingDate,
		status:         status,
		creditConsumed: status.ConsumesCredit(),
		markedBy:       markedBy,
		markedAt:       at,
		notes:          strings.TrimSpace(notes),
	}, nil
}

// RestoreAttendance rebuilds an attendance record from storage.
func RestoreAttendance(s AttendanceSnapshot) (*Attendance, error) {
	if s.ID == "" || s.EnrollmentID == "" || s.ClassID == "" {
		return nil, newError("RestoreAttendance", ErrInvalidInput, "attendance id, enrollment id and class id are required")
	}
	if !s.Status.IsValid() {
		return nil, newError("RestoreAttendance", ErrInvalidInput, fmt.Sprintf("unknown attendance status %q", s.Status))
	}
	if s.CreditConsumed != s.Status.ConsumesCredit() {
		return nil, newError("RestoreAttendance", ErrInvalidInput,
			fmt.Sprintf("credit consumed flag disagrees with status %s", s.Status))
	}
	return &Attendance{
		id:             s.ID,
		enrollmentID:   s.EnrollmentID,
		classID:        s.ClassID,
		meetingNumber:  s.MeetingNumber,
		meetingDate:    s.MeetingDate,
		status:         s.Status,
		creditConsumed: s.CreditConsumed,
		markedBy:       s.MarkedBy,
		markedAt:       s.MarkedAt,
		lastEditedBy:   s.LastEditedBy,
		lastEditedAt:   s.LastEditedAt,
		notes:          s.Notes,
	}, nil
}

// Snapshot returns the persisted form.
func (a *Attendance) Snapshot() AttendanceSnapshot {
	return AttendanceSnapshot{
		ID:             a.id,
		EnrollmentID:   a.enrollmentID,
		ClassID:        a.classID,
		MeetingNumber:  a.meetingNumber,
		MeetingDate:    a.meetingDate,
		Status:         a.status,
		CreditConsumed: a.creditConsumed,
		MarkedBy:       a.markedBy,
		MarkedAt:       a.markedAt,
		LastEditedBy:   a.lastEditedBy,
		LastEditedAt:   a.lastEditedAt,
		Notes:          a.notes,
	}
}

func (a *Attendance) ID() string               { return a.id }
func (a *Attendance) EnrollmentID() string     { return a.enrollmentID }
func (a *Attendance) ClassID() string          { return a.classID }
func (a *Attendance) MeetingNumber() int       { return a.meetingNumber }
func (a *Attendance) MeetingDate() time.Time   { return a.meetingDate }
func (a *Attendance) Status() AttendanceStatus { return a.status }
func (a *Attendance) CreditConsumed() bool     { return a.creditConsumed }
func (a *Attendance) MarkedBy() string         { return a.markedBy }
func (a *Attendance) MarkedAt() time.Time      { return a.markedAt }
func (a *Attendance) LastEditedBy() *string    { return a.lastEditedBy }
func (a *Attendance) LastEditedAt() *time.Time { return a.lastEditedAt }
func (a *Attendance) Notes() string            { return a.notes }

// CreditDeltaFor returns the change to the enrollment's remaining credits that
// moving to newStatus implies: +1 refunds, -1 consumes one more, 0 leaves it.
func (a *Attendance) CreditDeltaFor(newStatus AttendanceStatus) (int, error) {
	if !newStatus.IsValid() {
		return 0, newError("Attendance.CreditDeltaFor", ErrInvalidInput, fmt.Sprintf("unknown attendance status %q", newStatus))
	}
	consumes := newStatus.ConsumesCredit()
	switch {
	case a.creditConsumed && !consumes:
		return 1, nil
	case !a.creditConsumed && consumes:
		return -1, nil
	default:
		return 0, nil
	}
}

// UpdateStatus corrects the recorded status and returns the credit delta the
// caller must apply to the owning enrollment. An empty notes keeps the current notes.
func (a *Attendance) UpdateStatus(newStatus AttendanceStatus, editedBy, notes string) (int, error) {
	delta, err := a.CreditDeltaFor(newStatus)
	if err != nil {
		return 0, err
	}
	editedBy = strings.TrimSpace(editedBy)
	if editedBy == "" {
		return 0, newError("Attendance.UpdateStatus", ErrInvalidInput, "edited by is required")
	}

	now := nowFunc()
	a.status = newStatus
	a.creditConsumed = newStatus.ConsumesCredit()
	a.lastEditedBy = &editedBy
	a.lastEditedAt = &now
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		a.notes = trimmed
	}
	return delta, nil
}
