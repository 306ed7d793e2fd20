package dto

import (
	"time"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
)

// ScheduleSlotPayload is one weekly meeting slot. Times use 24h HH:MM.
type ScheduleSlotPayload struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// CreateClassRequest defines payload for creating a class.
type CreateClassRequest struct {
	Name                 string                `json:"name" validate:"required,max=200"`
	CourseID             string                `json:"courseId" validate:"required"`
	InstructorID         string                `json:"instructorId" validate:"required"`
	Type                 string                `json:"type" validate:"required,oneof=group private"`
	TotalMeetings        int                   `json:"totalMeetings" validate:"min=0"`
	MaxStudents          *int                  `json:"maxStudents" validate:"omitempty,min=1"`
	Schedule             []ScheduleSlotPayload `json:"schedule" validate:"dive"`
	StartDate            *time.Time            `json:"startDate"`
	EndDate              *time.Time            `json:"endDate"`
	EnrollmentDeadline   *time.Time            `json:"enrollmentDeadline"`
	ContinuedFromClassID *string               `json:"continuedFromClassId" validate:"omitempty,uuid"`
	Notes                string                `json:"notes" validate:"max=2000"`
}

// UpdateClassRequest is a partial update; omitted fields are unchanged.
type UpdateClassRequest struct {
	Name               *string               `json:"name" validate:"omitempty,min=1,max=200"`
	MaxStudents        *int                  `json:"maxStudents" validate:"omitempty,min=1"`
	Schedule           []ScheduleSlotPayload `json:"schedule" validate:"omitempty,dive"`
	StartDate          *time.Time            `json:"startDate"`
	EndDate            *time.Time            `json:"endDate"`
	EnrollmentDeadline *time.Time            `json:"enrollmentDeadline"`
	Notes              *string               `json:"notes" validate:"omitempty,max=2000"`
}

// EnrollStudentRequest adds a student to a class.
type EnrollStudentRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	Notes     string `json:"notes" validate:"max=2000"`
}

// MarkAttendanceRequest records attendance for one meeting.
type MarkAttendanceRequest struct {
	EnrollmentID  string     `json:"enrollmentId" validate:"required"`
	MeetingNumber int        `json:"meetingNumber" validate:"required,min=1"`
	MeetingDate   *time.Time `json:"meetingDate"`
	Status        string     `json:"status" validate:"required,oneof=present absent late"`
	Notes         string     `json:"notes" validate:"max=2000"`
}

// CorrectAttendanceRequest changes a recorded attendance status.
type CorrectAttendanceRequest struct {
	Status string `json:"status" validate:"required,oneof=present absent late"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// AdjustCreditsRequest applies a manual credit change.
type AdjustCreditsRequest struct {
	Amount int    `json:"amount" validate:"required"`
	Type   string `json:"type" validate:"required,oneof=addition deduction refund correction"`
	Reason string `json:"reason" validate:"required,max=500"`
}

// UnlockLessonRequest releases a lesson to the class.
type UnlockLessonRequest struct {
	LessonID      string `json:"lessonId" validate:"required"`
	MeetingNumber *int   `json:"meetingNumber" validate:"omitempty,min=1"`
	Notes         string `json:"notes" validate:"max=2000"`
}

// AddMeetingsRequest extends a private class.
type AddMeetingsRequest struct {
	Count int `json:"count" validate:"required,min=1"`
}

// ScheduleSlotResponse mirrors ScheduleSlotPayload.
type ScheduleSlotResponse struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// ClassResponse is the API view of a class. Enrollments and unlocks are only
// present on detail reads.
type ClassResponse struct {
	ID                    string                 `json:"id"`
	Name                  string                 `json:"name"`
	CourseID              string                 `json:"courseId"`
	InstructorID          string                 `json:"instructorId"`
	Type                  string                 `json:"type"`
	Status                string                 `json:"status"`
	TotalMeetings         int                    `json:"totalMeetings"`
	MeetingsCompleted     int                    `json:"meetingsCompleted"`
	MaxStudents           *int                   `json:"maxStudents,omitempty"`
	Schedule              []ScheduleSlotResponse `json:"schedule"`
	StartDate             *time.Time             `json:"startDate,omitempty"`
	EndDate               *time.Time             `json:"endDate,omitempty"`
	EnrollmentDeadline    *time.Time             `json:"enrollmentDeadline,omitempty"`
	ContinuedFromClassID  *string                `json:"continuedFromClassId,omitempty"`
	Notes                 string                 `json:"notes,omitempty"`
	Version               int                    `json:"version"`
	ActiveEnrollmentCount *int                   `json:"activeEnrollmentCount,omitempty"`
	UnlockCount           *int                   `json:"unlockCount,omitempty"`
	Enrollments           []EnrollmentResponse   `json:"enrollments,omitempty"`
	LessonUnlocks         []LessonUnlockResponse `json:"lessonUnlocks,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

// EnrollmentResponse is the API view of an enrollment.
type EnrollmentResponse struct {
	ID               string     `json:"id"`
	ClassID          string     `json:"classId"`
	StudentID        string     `json:"studentId"`
	Status           string     `json:"status"`
	CreditsTotal     int        `json:"creditsTotal"`
	CreditsUsed      int        `json:"creditsUsed"`
	CreditsRemaining int        `json:"creditsRemaining"`
	EnrolledAt       time.Time  `json:"enrolledAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	WithdrawnAt      *time.Time `json:"withdrawnAt,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// AttendanceResponse is the API view of an attendance record.
type AttendanceResponse struct {
	ID             string     `json:"id"`
	EnrollmentID   string     `json:"enrollmentId"`
	ClassID        string     `json:"classId"`
	MeetingNumber  int        `json:"meetingNumber"`
	MeetingDate    time.Time  `json:"meetingDate"`
	Status         string     `json:"status"`
	CreditConsumed bool       `json:"creditConsumed"`
	MarkedBy       string     `json:"markedBy"`
	MarkedAt       time.Time  `json:"markedAt"`
	LastEditedBy   *string    `json:"lastEditedBy,omitempty"`
	LastEditedAt   *time.Time `json:"lastEditedAt,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// CreditAdjustmentResponse is the API view of a credit adjustment.
type CreditAdjustmentResponse struct {
	ID            string    `json:"id"`
	EnrollmentID  string    `json:"enrollmentId"`
	Amount        int       `json:"amount"`
	Type          string    `json:"type"`
	Reason        string    `json:"reason"`
	AdjustedBy    string    `json:"adjustedBy"`
	AdjustedAt    time.Time `json:"adjustedAt"`
	PreviousTotal int       `json:"previousTotal"`
	NewTotal      int       `json:"newTotal"`
}

// LessonUnlockResponse is the API view of a lesson unlock.
type LessonUnlockResponse struct {
	ID            string    `json:"id"`
	ClassID       string    `json:"classId"`
	LessonID      string    `json:"lessonId"`
	UnlockedBy    string    `json:"unlockedBy"`
	UnlockedAt    time.Time `json:"unlockedAt"`
	MeetingNumber *int      `json:"meetingNumber,omitempty"`
	Notes         string    `json:"notes,omitempty"`
}

// AttendanceResult is returned after marking or correcting attendance.
type AttendanceResult struct {
	Attendance  AttendanceResponse `json:"attendance"`
	Enrollment  EnrollmentResponse `json:"enrollment"`
	CreditDelta int                `json:"creditDelta"`
}

// CreditAdjustmentResult is returned after adjusting credits.
type CreditAdjustmentResult struct {
	Adjustment CreditAdjustmentResponse `json:"adjustment"`
	Enrollment EnrollmentResponse       `json:"enrollment"`
}

// NewClassResponse maps the aggregate. withChildren controls detail fields.
func NewClassResponse(c *classroom.Class, withChildren bool) ClassResponse {
	slots := c.Schedule()
	schedule := make([]ScheduleSlotResponse, 0, len(slots))
	for _, slot := range slots {
		schedule = append(schedule, ScheduleSlotResponse{
			DayOfWeek: int(slot.DayOfWeek),
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
		})
	}
	resp := ClassResponse{
		ID:                   c.ID(),
		Name:                 c.Name(),
		CourseID:             c.CourseID(),
		InstructorID:         c.InstructorID(),
		Type:                 string(c.Type()),
		Status:               string(c.Status()),
		TotalMeetings:        c.TotalMeetings(),
		MeetingsCompleted:    c.MeetingsCompleted(),
		MaxStudents:          c.MaxStudents(),
		Schedule:             schedule,
		StartDate:            c.StartDate(),
		EndDate:              c.EndDate(),
		EnrollmentDeadline:   c.EnrollmentDeadline(),
		ContinuedFromClassID: c.ContinuedFromClassID(),
		Notes:                c.Notes(),
		Version:              c.Version(),
		CreatedAt:            c.CreatedAt(),
		UpdatedAt:            c.UpdatedAt(),
	}
	if !withChildren {
		return resp
	}
	active := c.ActiveEnrollmentCount()
	unlocks := c.UnlockCount()
	resp.ActiveEnrollmentCount = &active
	resp.UnlockCount = &unlocks
	resp.Enrollments = NewEnrollmentResponses(c.Enrollments())
	for _, u := range c.LessonUnlocks() {
		resp.LessonUnlocks = append(resp.LessonUnlocks, NewLessonUnlockResponse(u))
	}
	return resp
}

// NewEnrollmentResponse maps an enrollment.
func NewEnrollmentResponse(e *classroom.Enrollment) EnrollmentResponse {
	credits := e.Credits()
	return EnrollmentResponse{
		ID:               e.ID(),
		ClassID:          e.ClassID(),
		StudentID:        e.StudentID(),
		Status:           string(e.Status()),
		CreditsTotal:     credits.Total(),
		CreditsUsed:      credits.Used(),
		CreditsRemaining: credits.Remaining(),
		EnrolledAt:       e.EnrolledAt(),
		CompletedAt:      e.CompletedAt(),
		WithdrawnAt:      e.WithdrawnAt(),
		Notes:            e.Notes(),
	}
}

// NewEnrollmentResponses maps a slice of enrollments.
func NewEnrollmentResponses(enrollments []*classroom.Enrollment) []EnrollmentResponse {
	items := make([]EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		items = append(items, NewEnrollmentResponse(e))
	}
	return items
}

// NewAttendanceResponse maps an attendance record.
func NewAttendanceResponse(a *classroom.Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:             a.ID(),
		EnrollmentID:   a.EnrollmentID(),
		ClassID:        a.ClassID(),
		MeetingNumber:  a.MeetingNumber(),
		MeetingDate:    a.MeetingDate(),
		Status:         string(a.Status()),
		CreditConsumed: a.CreditConsumed(),
		MarkedBy:       a.MarkedBy(),
		MarkedAt:       a.MarkedAt(),
		LastEditedBy:   a.LastEditedBy(),
		LastEditedAt:   a.LastEditedAt(),
		Notes:          a.Notes(),
	}
}

// NewCreditAdjustmentResponse maps a credit adjustment.
func NewCreditAdjustmentResponse(a *classroom.CreditAdjustment) CreditAdjustmentResponse {
	return CreditAdjustmentResponse{
		ID:            a.ID(),
		EnrollmentID:  a.EnrollmentID(),
		Amount:        a.Amount(),
		Type:          string(a.Type()),
		Reason:        a.Reason(),
		AdjustedBy:    a.AdjustedBy(),
		AdjustedAt:    a.AdjustedAt(),
		PreviousTotal: a.PreviousTotal(),
		NewTotal:      a.NewTotal(),
	}
}

// NewLessonUnlockResponse maps a lesson unlock.
func NewLessonUnlockResponse(u *classroom.LessonUnlock) LessonUnlockResponse {
	return LessonUnlockResponse{
		ID:            u.ID(),
		ClassID:       u.ClassID(),
		LessonID:      u.LessonID(),
		UnlockedBy:    u.UnlockedBy(),
		UnlockedAt:    u.UnlockedAt(),
		MeetingNumber: u.MeetingNumber(),
		Notes:         u.Notes(),
	}
}

// RosterExport is a rendered class roster ready to be sent as a download.
type RosterExport struct {
	Filename    string
	ContentType string
	Body        []byte
}
