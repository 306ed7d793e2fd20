package classroom

import "time"

// EventType identifies a domain event raised by the class aggregate.
type EventType string

const (
	EventClassCreated        EventType = "class.created"
	EventEnrollmentOpened    EventType = "class.enrollment_opened"
	EventClassActivated      EventType = "class.activated"
	EventClassCompleted      EventType = "class.completed"
	EventClassCancelled      EventType = "class.cancelled"
	EventMeetingsAdded       EventType = "class.meetings_added"
	EventStudentEnrolled     EventType = "enrollment.student_enrolled"
	EventStudentRemoved      EventType = "enrollment.student_removed"
	EventCreditAdjusted      EventType = "enrollment.credit_adjusted"
	EventCreditsLow          EventType = "enrollment.credits_low"
	EventAttendanceMarked    EventType = "attendance.marked"
	EventAttendanceCorrected EventType = "attendance.corrected"
	EventLessonUnlocked      EventType = "lesson.unlocked"
)

// Event is a fact produced by a successful aggregate operation.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	// AggregateID returns the class id.
	AggregateID() string
	// Payload returns the event data for serialization.
	Payload() map[string]interface{}
}

// BaseEvent holds the fields shared by all class events.
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	ClassID   string    `json:"class_id"`
}

// EventType implements Event.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event.
func (e BaseEvent) AggregateID() string { return e.ClassID }

func newBaseEvent(eventType EventType, classID string, at time.Time) BaseEvent {
	return BaseEvent{Type: eventType, Timestamp: at, ClassID: classID}
}

// ClassCreatedEvent is raised when a class is created in draft.
type ClassCreatedEvent struct {
	BaseEvent
	Name         string
	CourseID     string
	InstructorID string
	ClassType    ClassType
}

// Payload implements Event.
func (e ClassCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":      e.ClassID,
		"name":          e.Name,
		"course_id":     e.CourseID,
		"instructor_id": e.InstructorID,
		"type":          string(e.ClassType),
	}
}

// EnrollmentOpenedEvent is raised when a draft class starts accepting students.
type EnrollmentOpenedEvent struct {
	BaseEvent
	Name string
}

// Payload implements Event.
func (e EnrollmentOpenedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"class_id": e.ClassID, "name": e.Name}
}

// ClassActivatedEvent is raised when a class moves to active.
type ClassActivatedEvent struct {
	BaseEvent
	Name string
}

// Payload implements Event.
func (e ClassActivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"class_id": e.ClassID, "name": e.Name}
}

// ClassCompletedEvent is raised when a class is completed.
type ClassCompletedEvent struct {
	BaseEvent
	Name string
}

// Payload implements Event.
func (e ClassCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"class_id": e.ClassID, "name": e.Name}
}

// ClassCancelledEvent is raised when a class is cancelled.
type ClassCancelledEvent struct {
	BaseEvent
	Name           string
	PreviousStatus ClassStatus
}

// Payload implements Event.
func (e ClassCancelledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":        e.ClassID,
		"name":            e.Name,
		"previous_status": string(e.PreviousStatus),
	}
}

// MeetingsAddedEvent is raised when a private package is extended.
type MeetingsAddedEvent struct {
	BaseEvent
	Count               int
	TotalMeetings       int
	AffectedEnrollments int
}

// Payload implements Event.
func (e MeetingsAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":             e.ClassID,
		"count":                e.Count,
		"total_meetings":       e.TotalMeetings,
		"affected_enrollments": e.AffectedEnrollments,
	}
}

// StudentEnrolledEvent is raised when a student takes a seat.
type StudentEnrolledEvent struct {
	BaseEvent
	StudentID    string
	EnrollmentID string
	TotalCredits int
}

// Payload implements Event.
func (e StudentEnrolledEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":      e.ClassID,
		"student_id":    e.StudentID,
		"enrollment_id": e.EnrollmentID,
		"total_credits": e.TotalCredits,
	}
}

// StudentRemovedEvent is raised when an active enrollment is withdrawn.
type StudentRemovedEvent struct {
	BaseEvent
	StudentID    string
	EnrollmentID string
	Reason       string
}

// Payload implements Event.
func (e StudentRemovedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":      e.ClassID,
		"student_id":    e.StudentID,
		"enrollment_id": e.EnrollmentID,
		"reason":        e.Reason,
	}
}

// AttendanceMarkedEvent is raised for each recorded meeting attendance.
type AttendanceMarkedEvent struct {
	BaseEvent
	EnrollmentID   string
	StudentID      string
	AttendanceID   string
	MeetingNumber  int
	Status         AttendanceStatus
	CreditConsumed bool
}

// Payload implements Event.
func (e AttendanceMarkedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":        e.ClassID,
		"enrollment_id":   e.EnrollmentID,
		"student_id":      e.StudentID,
		"attendance_id":   e.AttendanceID,
		"meeting_number":  e.MeetingNumber,
		"status":          string(e.Status),
		"credit_consumed": e.CreditConsumed,
	}
}

// AttendanceCorrectedEvent is raised when an attendance status is edited.
type AttendanceCorrectedEvent struct {
	BaseEvent
	AttendanceID   string
	EnrollmentID   string
	PreviousStatus AttendanceStatus
	Status         AttendanceStatus
	CreditDelta    int
	EditedBy       string
}

// Payload implements Event.
func (e AttendanceCorrectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":        e.ClassID,
		"attendance_id":   e.AttendanceID,
		"enrollment_id":   e.EnrollmentID,
		"previous_status": string(e.PreviousStatus),
		"status":          string(e.Status),
		"credit_delta":    e.CreditDelta,
		"edited_by":       e.EditedBy,
	}
}

// CreditAdjustedEvent is raised for every manual credit adjustment.
type CreditAdjustedEvent struct {
	BaseEvent
	EnrollmentID   string
	StudentID      string
	AdjustmentID   string
	Amount         int
	AdjustmentType AdjustmentType
	Reason         string
	PreviousTotal  int
	NewTotal       int
}

// Payload implements Event.
func (e CreditAdjustedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":       e.ClassID,
		"enrollment_id":  e.EnrollmentID,
		"student_id":     e.StudentID,
		"adjustment_id":  e.AdjustmentID,
		"amount":         e.Amount,
		"type":           string(e.AdjustmentType),
		"reason":         e.Reason,
		"previous_total": e.PreviousTotal,
		"new_total":      e.NewTotal,
	}
}

// CreditsLowEvent is raised when consumption leaves an enrollment with few credits.
type CreditsLowEvent struct {
	BaseEvent
	EnrollmentID string
	StudentID    string
	Remaining    int
}

// Payload implements Event.
func (e CreditsLowEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":      e.ClassID,
		"enrollment_id": e.EnrollmentID,
		"student_id":    e.StudentID,
		"remaining":     e.Remaining,
	}
}

// LessonUnlockedEvent is raised when the instructor releases a lesson.
type LessonUnlockedEvent struct {
	BaseEvent
	LessonID    string
	UnlockedBy  string
	UnlockCount int
}

// Payload implements Event.
func (e LessonUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"class_id":     e.ClassID,
		"lesson_id":    e.LessonID,
		"unlocked_by":  e.UnlockedBy,
		"unlock_count": e.UnlockCount,
	}
}
