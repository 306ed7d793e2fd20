package classroom

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enrollment is a student's seat in a class. Only the owning Class mutates it.
type Enrollment struct {
	id          string
	classID     string
	studentID   string
	status      EnrollmentStatus
	credits     MeetingCredit
	enrolledAt  time.Time
	completedAt *time.Time
	withdrawnAt *time.Time
	notes       string
}

// EnrollmentSnapshot is the persisted form of an Enrollment.
type EnrollmentSnapshot struct {
	ID           string
	ClassID      string
	StudentID    string
	Status       EnrollmentStatus
	CreditsTotal int
	CreditsUsed  int
	EnrolledAt   time.Time
	CompletedAt  *time.Time
	WithdrawnAt  *time.Time
	Notes        string
}

func newEnrollment(classID, studentID string, totalCredits int, notes string, at time.Time) (*Enrollment, error) {
	credits, err := NewMeetingCredit(totalCredits, 0)
	if err != nil {
		return nil, err
	}
	return &Enrollment{
		id:         uuid.NewString(),
		classID:    classID,
		studentID:  studentID,
		status:     EnrollmentStatusActive,
		credits:    credits,
		enrolledAt: at,
		notes:      strings.TrimSpace(notes),
	}, nil
}

// RestoreEnrollment rebuilds an enrollment from storage.
func RestoreEnrollment(s EnrollmentSnapshot) (*Enrollment, error) {
	if s.ID == "" || s.ClassID == "" || s.StudentID == "" {
		return nil, newError("RestoreEnrollment", ErrInvalidInput, "enrollment id, class id and student id are required")
	}
	if !s.Status.IsValid() {
		return nil, newError("RestoreEnrollment", ErrInvalidInput, fmt.Sprintf("unknown enrollment status %q", s.Status))
	}
	credits, err := NewMeetingCredit(s.CreditsTotal, s.CreditsUsed)
	if err != nil {
		return nil, err
	}
	return &Enrollment{
		id:          s.ID,
		classID:     s.ClassID,
		studentID:   s.StudentID,
		status:      s.Status,
		credits:     credits,
		enrolledAt:  s.EnrolledAt,
		completedAt: s.CompletedAt,
		withdrawnAt: s.WithdrawnAt,
		notes:       s.Notes,
	}, nil
}

// Snapshot returns the persisted form.
func (e *Enrollment) Snapshot() EnrollmentSnapshot {
	return EnrollmentSnapshot{
		ID:           e.id,
		ClassID:      e.classID,
		StudentID:    e.studentID,
		Status:       e.status,
		CreditsTotal: e.credits.Total(),
		CreditsUsed:  e.credits.Used(),
		EnrolledAt:   e.enrolledAt,
		CompletedAt:  e.completedAt,
		WithdrawnAt:  e.withdrawnAt,
		Notes:        e.notes,
	}
}

func (e *Enrollment) ID() string               { return e.id }
func (e *Enrollment) ClassID() string          { return e.classID }
func (e *Enrollment) StudentID() string        { return e.studentID }
func (e *Enrollment) Status() EnrollmentStatus { return e.status }
func (e *Enrollment) Credits() MeetingCredit   { return e.credits }
func (e *Enrollment) EnrolledAt() time.Time    { return e.enrolledAt }
func (e *Enrollment) CompletedAt() *time.Time  { return e.completedAt }
func (e *Enrollment) WithdrawnAt() *time.Time  { return e.withdrawnAt }
func (e *Enrollment) Notes() string            { return e.notes }

// IsActive reports whether the enrollment still holds a seat.
func (e *Enrollment) IsActive() bool {
	return e.status == EnrollmentStatusActive
}

// HasCreditsRemaining reports whether another meeting can be consumed.
func (e *Enrollment) HasCreditsRemaining() bool {
	return e.credits.HasRemaining()
}

// IsCreditsLow reports whether remaining credits are in (0, threshold].
// A non-positive threshold falls back to DefaultLowCreditThreshold.
func (e *Enrollment) IsCreditsLow(threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultLowCreditThreshold
	}
	return e.credits.IsLow(threshold)
}

func (e *Enrollment) useCredit() error {
	next, err := e.credits.Use()
	if err != nil {
		return err
	}
	e.credits = next
	return nil
}

func (e *Enrollment) refundCredit() error {
	next, err := e.credits.Refund()
	if err != nil {
		return err
	}
	e.credits = next
	return nil
}

// creditsAfter returns the balance a correction delta of -1, 0 or +1 would leave.
func (e *Enrollment) creditsAfter(delta int) (MeetingCredit, error) {
	switch delta {
	case -1:
		return e.credits.Use()
	case 1:
		return e.credits.Refund()
	}
	return e.credits, nil
}

func (e *Enrollment) applyCreditDelta(delta int) error {
	switch delta {
	case -1:
		return e.useCredit()
	case 1:
		return e.refundCredit()
	}
	return nil
}

func (e *Enrollment) addCredits(amount int) error {
	next, err := e.credits.Add(amount)
	if err != nil {
		return err
	}
	e.credits = next
	return nil
}

func (e *Enrollment) adjustCredits(delta int) error {
	next, err := e.credits.Adjust(delta)
	if err != nil {
		return err
	}
	e.credits = next
	return nil
}

func (e *Enrollment) complete(at time.Time) error {
	if !e.IsActive() {
		return newError("Enrollment.Complete", ErrStateTransition,
			fmt.Sprintf("cannot complete enrollment in status %s", e.status))
	}
	e.status = EnrollmentStatusCompleted
	e.completedAt = &at
	return nil
}

func (e *Enrollment) withdraw(at time.Time) error {
	if !e.IsActive() {
		return newError("Enrollment.Withdraw", ErrStateTransition,
			fmt.Sprintf("cannot withdraw enrollment in status %s", e.status))
	}
	e.status = EnrollmentStatusWithdrawn
	e.withdrawnAt = &at
	return nil
}
