package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Class is a row of the classes table.
type Class struct {
	ID                   string         `db:"id" json:"id"`
	Name                 string         `db:"name" json:"name"`
	CourseID             string         `db:"course_id" json:"course_id"`
	InstructorID         string         `db:"instructor_id" json:"instructor_id"`
	Type                 string         `db:"type" json:"type"`
	Status               string         `db:"status" json:"status"`
	TotalMeetings        int            `db:"total_meetings" json:"total_meetings"`
	MeetingsCompleted    int            `db:"meetings_completed" json:"meetings_completed"`
	MaxStudents          *int           `db:"max_students" json:"max_students,omitempty"`
	Schedule             types.JSONText `db:"schedule" json:"schedule"`
	StartDate            *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate              *time.Time     `db:"end_date" json:"end_date,omitempty"`
	EnrollmentDeadline   *time.Time     `db:"enrollment_deadline" json:"enrollment_deadline,omitempty"`
	ContinuedFromClassID *string        `db:"continued_from_class_id" json:"continued_from_class_id,omitempty"`
	Notes                *string        `db:"notes" json:"notes,omitempty"`
	Version              int            `db:"version" json:"version"`
	CreatedAt            time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	CourseID     string
	InstructorID string
	StudentID    string
	Status       string
	Type         string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// Enrollment is a row of the class_enrollments table.
type Enrollment struct {
	ID           string     `db:"id" json:"id"`
	ClassID      string     `db:"class_id" json:"class_id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	Status       string     `db:"status" json:"status"`
	CreditsTotal int        `db:"credits_total" json:"credits_total"`
	CreditsUsed  int        `db:"credits_used" json:"credits_used"`
	EnrolledAt   time.Time  `db:"enrolled_at" json:"enrolled_at"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	WithdrawnAt  *time.Time `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	Notes        *string    `db:"notes" json:"notes,omitempty"`
}

// Attendance is a row of the class_attendance table.
type Attendance struct {
	ID             string     `db:"id" json:"id"`
	EnrollmentID   string     `db:"enrollment_id" json:"enrollment_id"`
	ClassID        string     `db:"class_id" json:"class_id"`
	MeetingNumber  int        `db:"meeting_number" json:"meeting_number"`
	MeetingDate    time.Time  `db:"meeting_date" json:"meeting_date"`
	Status         string     `db:"status" json:"status"`
	CreditConsumed bool       `db:"credit_consumed" json:"credit_consumed"`
	MarkedBy       string     `db:"marked_by" json:"marked_by"`
	MarkedAt       time.Time  `db:"marked_at" json:"marked_at"`
	LastEditedBy   *string    `db:"last_edited_by" json:"last_edited_by,omitempty"`
	LastEditedAt   *time.Time `db:"last_edited_at" json:"last_edited_at,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
}

// CreditAdjustment is a row of the credit_adjustments table.
type CreditAdjustment struct {
	ID            string    `db:"id" json:"id"`
	EnrollmentID  string    `db:"enrollment_id" json:"enrollment_id"`
	Amount        int       `db:"amount" json:"amount"`
	Type          string    `db:"type" json:"type"`
	Reason        string    `db:"reason" json:"reason"`
	AdjustedBy    string    `db:"adjusted_by" json:"adjusted_by"`
	AdjustedAt    time.Time `db:"adjusted_at" json:"adjusted_at"`
	PreviousTotal int       `db:"previous_total" json:"previous_total"`
	NewTotal      int       `db:"new_total" json:"new_total"`
}

// LessonUnlock is a row of the lesson_unlocks table.
type LessonUnlock struct {
	ID            string    `db:"id" json:"id"`
	ClassID       string    `db:"class_id" json:"class_id"`
	LessonID      string    `db:"lesson_id" json:"lesson_id"`
	UnlockedBy    string    `db:"unlocked_by" json:"unlocked_by"`
	UnlockedAt    time.Time `db:"unlocked_at" json:"unlocked_at"`
	MeetingNumber *int      `db:"meeting_number" json:"meeting_number,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
}
