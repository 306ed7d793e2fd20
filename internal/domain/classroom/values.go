package classroom

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLowCreditThreshold is the remaining-credit level at which an enrollment is reported as running low.
const DefaultLowCreditThreshold = 3

// ClassType distinguishes multi-student offerings from one-on-one packages.
type ClassType string

const (
	ClassTypeGroup   ClassType = "group"
	ClassTypePrivate ClassType = "private"
)

// IsValid reports whether the type is a known class type.
func (t ClassType) IsValid() bool {
	switch t {
	case ClassTypeGroup, ClassTypePrivate:
		return true
	default:
		return false
	}
}

// ParseClassType converts raw input into a ClassType.
func ParseClassType(raw string) (ClassType, error) {
	t := ClassType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", newError("ParseClassType", ErrInvalidInput, fmt.Sprintf("unknown class type %q", raw))
	}
	return t, nil
}

// ClassStatus is the lifecycle state of a class.
type ClassStatus string

const (
	ClassStatusDraft          ClassStatus = "draft"
	ClassStatusEnrollmentOpen ClassStatus = "enrollment_open"
	ClassStatusActive         ClassStatus = "active"
	ClassStatusCompleted      ClassStatus = "completed"
	ClassStatusCancelled      ClassStatus = "cancelled"
)

// IsValid reports whether the status is a known lifecycle state.
func (s ClassStatus) IsValid() bool {
	switch s {
	case ClassStatusDraft, ClassStatusEnrollmentOpen, ClassStatusActive, ClassStatusCompleted, ClassStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is possible.
func (s ClassStatus) IsTerminal() bool {
	switch s {
	case ClassStatusCompleted, ClassStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether moving from s to next is a legal lifecycle step.
func (s ClassStatus) CanTransitionTo(next ClassStatus) bool {
	switch s {
	case ClassStatusDraft:
		return next == ClassStatusEnrollmentOpen || next == ClassStatusCancelled
	case ClassStatusEnrollmentOpen:
		return next == ClassStatusActive || next == ClassStatusCancelled
	case ClassStatusActive:
		return next == ClassStatusCompleted || next == ClassStatusCancelled
	case ClassStatusCompleted, ClassStatusCancelled:
		return false
	default:
		return false
	}
}

// ParseClassStatus converts raw input into a ClassStatus.
func ParseClassStatus(raw string) (ClassStatus, error) {
	s := ClassStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", newError("ParseClassStatus", ErrInvalidInput, fmt.Sprintf("unknown class status %q", raw))
	}
	return s, nil
}

// EnrollmentStatus is the state of a single student's seat in a class.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
	EnrollmentStatusWithdrawn EnrollmentStatus = "withdrawn"
)

// IsValid reports whether the status is a known enrollment state.
func (s EnrollmentStatus) IsValid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusWithdrawn:
		return true
	default:
		return false
	}
}

// AttendanceStatus records how a student attended a meeting.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// IsValid reports whether the status is a known attendance value.
func (s AttendanceStatus) IsValid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// ConsumesCredit reports whether attendance with this status uses a meeting credit.
func (s AttendanceStatus) ConsumesCredit() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// ParseAttendanceStatus converts raw input into an AttendanceStatus.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	s := AttendanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", newError("ParseAttendanceStatus", ErrInvalidInput, fmt.Sprintf("unknown attendance status %q", raw))
	}
	return s, nil
}

// AdjustmentType classifies a manual credit correction.
type AdjustmentType string

const (
	AdjustmentTypeAddition   AdjustmentType = "addition"
	AdjustmentTypeDeduction  AdjustmentType = "deduction"
	AdjustmentTypeRefund     AdjustmentType = "refund"
	AdjustmentTypeCorrection AdjustmentType = "correction"
)

// IsValid reports whether the type is a known adjustment type.
func (t AdjustmentType) IsValid() bool {
	switch t {
	case AdjustmentTypeAddition, AdjustmentTypeDeduction, AdjustmentTypeRefund, AdjustmentTypeCorrection:
		return true
	default:
		return false
	}
}

// acceptsAmount reports whether the signed amount agrees with the adjustment type.
func (t AdjustmentType) acceptsAmount(amount int) bool {
	if amount == 0 {
		return false
	}
	switch t {
	case AdjustmentTypeAddition, AdjustmentTypeRefund:
		return amount > 0
	case AdjustmentTypeDeduction:
		return amount < 0
	case AdjustmentTypeCorrection:
		return true
	default:
		return false
	}
}

// ParseAdjustmentType converts raw input into an AdjustmentType.
func ParseAdjustmentType(raw string) (AdjustmentType, error) {
	t := AdjustmentType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.IsValid() {
		return "", newError("ParseAdjustmentType", ErrInvalidInput, fmt.Sprintf("unknown adjustment type %q", raw))
	}
	return t, nil
}

// MeetingCredit is an immutable counter of purchased and consumed meetings.
// Every operation returns a new value; the zero value is a valid empty counter.
type MeetingCredit struct {
	total int
	used  int
}

// NewMeetingCredit validates 0 <= used <= total.
func NewMeetingCredit(total, used int) (MeetingCredit, error) {
	if total < 0 || used < 0 {
		return MeetingCredit{}, newError("NewMeetingCredit", ErrInvalidInput, "credit values cannot be negative")
	}
	if used > total {
		return MeetingCredit{}, newError("NewMeetingCredit", ErrCreditFloorViolation,
			fmt.Sprintf("used credits %d exceed total %d", used, total))
	}
	return MeetingCredit{total: total, used: used}, nil
}

// Total returns the purchased meeting count.
func (c MeetingCredit) Total() int { return c.total }

// Used returns the consumed meeting count.
func (c MeetingCredit) Used() int { return c.used }

// Remaining returns total minus used.
func (c MeetingCredit) Remaining() int { return c.total - c.used }

// HasRemaining reports whether at least one credit is left.
func (c MeetingCredit) HasRemaining() bool { return c.Remaining() > 0 }

// IsLow reports whether remaining credits are in (0, threshold].
func (c MeetingCredit) IsLow(threshold int) bool {
	remaining := c.Remaining()
	return remaining > 0 && remaining <= threshold
}

// Use consumes one credit.
func (c MeetingCredit) Use() (MeetingCredit, error) {
	if !c.HasRemaining() {
		return c, newError("MeetingCredit.Use", ErrInsufficientCredits, "no credits remaining")
	}
	return NewMeetingCredit(c.total, c.used+1)
}

// Refund gives back one previously consumed credit.
func (c MeetingCredit) Refund() (MeetingCredit, error) {
	if c.used == 0 {
		return c, newError("MeetingCredit.Refund", ErrInvalidInput, "no consumed credit to refund")
	}
	return NewMeetingCredit(c.total, c.used-1)
}

// Add increases the total by a non-negative amount.
func (c MeetingCredit) Add(amount int) (MeetingCredit, error) {
	if amount < 0 {
		return c, newError("MeetingCredit.Add", ErrInvalidInput, "amount must not be negative")
	}
	return NewMeetingCredit(c.total+amount, c.used)
}

// Adjust changes the total by a signed delta without dropping below used.
func (c MeetingCredit) Adjust(delta int) (MeetingCredit, error) {
	next := c.total + delta
	if next < c.used {
		return c, newError("MeetingCredit.Adjust", ErrCreditFloorViolation,
			fmt.Sprintf("new total %d would fall below used credits %d", next, c.used))
	}
	return NewMeetingCredit(next, c.used)
}

// String implements fmt.Stringer.
func (c MeetingCredit) String() string {
	return fmt.Sprintf("%d/%d", c.used, c.total)
}

const clockLayout = "15:04"

// ScheduleSlot is a recurring weekly meeting window.
type ScheduleSlot struct {
	DayOfWeek time.Weekday `json:"day_of_week"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
}

// NewScheduleSlot builds a validated slot; times use 24h HH:MM.
func NewScheduleSlot(day time.Weekday, start, end string) (ScheduleSlot, error) {
	slot := ScheduleSlot{DayOfWeek: day, StartTime: strings.TrimSpace(start), EndTime: strings.TrimSpace(end)}
	if err := slot.Validate(); err != nil {
		return ScheduleSlot{}, err
	}
	return slot, nil
}

// Validate checks the weekday range and that the window is non-empty.
func (s ScheduleSlot) Validate() error {
	if s.DayOfWeek < time.Sunday || s.DayOfWeek > time.Saturday {
		return newError("ScheduleSlot.Validate", ErrInvalidInput, fmt.Sprintf("invalid day of week %d", s.DayOfWeek))
	}
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return newError("ScheduleSlot.Validate", ErrInvalidInput, fmt.Sprintf("invalid start time %q", s.StartTime))
	}
	end, err := time.Parse(clockLayout, s.EndTime)
	if err != nil {
		return newError("ScheduleSlot.Validate", ErrInvalidInput, fmt.Sprintf("invalid end time %q", s.EndTime))
	}
	if !start.Before(end) {
		return newError("ScheduleSlot.Validate", ErrInvalidInput, "start time must be before end time")
	}
	return nil
}

// Duration returns the length of the meeting window.
func (s ScheduleSlot) Duration() time.Duration {
	start, err := time.Parse(clockLayout, s.StartTime)
	if err != nil {
		return 0
	}
	end, err := time.Parse(clockLayout, s.EndTime)
	if err != nil {
		return 0
	}
	return end.Sub(start)
}
