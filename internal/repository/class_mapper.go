package repository

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/internal/models"
)

func classToRow(c *classroom.Class) (models.Class, error) {
	s := c.Snapshot()
	schedule := s.Schedule
	if schedule == nil {
		schedule = []classroom.ScheduleSlot{}
	}
	raw, err := json.Marshal(schedule)
	if err != nil {
		return models.Class{}, fmt.Errorf("marshal class schedule: %w", err)
	}
	return models.Class{
		ID:                   s.ID,
		Name:                 s.Name,
		CourseID:             s.CourseID,
		InstructorID:         s.InstructorID,
		Type:                 string(s.Type),
		Status:               string(s.Status),
		TotalMeetings:        s.TotalMeetings,
		MeetingsCompleted:    s.MeetingsCompleted,
		MaxStudents:          s.MaxStudents,
		Schedule:             types.JSONText(raw),
		StartDate:            s.StartDate,
		EndDate:              s.EndDate,
		EnrollmentDeadline:   s.EnrollmentDeadline,
		ContinuedFromClassID: s.ContinuedFromClassID,
		Notes:                optionalString(s.Notes),
		Version:              s.Version,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}, nil
}

func classFromRows(row models.Class, enrollmentRows []models.Enrollment, unlockRows []models.LessonUnlock) (*classroom.Class, error) {
	var schedule []classroom.ScheduleSlot
	if len(row.Schedule) > 0 {
		if err := row.Schedule.Unmarshal(&schedule); err != nil {
			return nil, fmt.Errorf("unmarshal schedule for class %s: %w", row.ID, err)
		}
	}

	enrollments := make([]*classroom.Enrollment, 0, len(enrollmentRows))
	for _, er := range enrollmentRows {
		e, err := enrollmentFromRow(er)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	unlocks := make([]*classroom.LessonUnlock, 0, len(unlockRows))
	for _, ur := range unlockRows {
		u, err := classroom.RestoreLessonUnlock(classroom.LessonUnlockSnapshot{
			ID:            ur.ID,
			ClassID:       ur.ClassID,
			LessonID:      ur.LessonID,
			UnlockedBy:    ur.UnlockedBy,
			UnlockedAt:    ur.UnlockedAt,
			MeetingNumber: ur.MeetingNumber,
			Notes:         derefString(ur.Notes),
		})
		if err != nil {
			return nil, err
		}
		unlocks = append(unlocks, u)
	}

	return classroom.RestoreClass(classroom.ClassSnapshot{
		ID:                   row.ID,
		Name:                 row.Name,
		CourseID:             row.CourseID,
		InstructorID:         row.InstructorID,
		Type:                 classroom.ClassType(row.Type),
		Status:               classroom.ClassStatus(row.Status),
		TotalMeetings:        row.TotalMeetings,
		MeetingsCompleted:    row.MeetingsCompleted,
		MaxStudents:          row.MaxStudents,
		Schedule:             schedule,
		StartDate:            row.StartDate,
		EndDate:              row.EndDate,
		EnrollmentDeadline:   row.EnrollmentDeadline,
		ContinuedFromClassID: row.ContinuedFromClassID,
		Notes:                derefString(row.Notes),
		Version:              row.Version,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}, enrollments, unlocks)
}

func enrollmentToRow(e *classroom.Enrollment) models.Enrollment {
	s := e.Snapshot()
	return models.Enrollment{
		ID:           s.ID,
		ClassID:      s.ClassID,
		StudentID:    s.StudentID,
		Status:       string(s.Status),
		CreditsTotal: s.CreditsTotal,
		CreditsUsed:  s.CreditsUsed,
		EnrolledAt:   s.EnrolledAt,
		CompletedAt:  s.CompletedAt,
		WithdrawnAt:  s.WithdrawnAt,
		Notes:        optionalString(s.Notes),
	}
}

func enrollmentFromRow(row models.Enrollment) (*classroom.Enrollment, error) {
	return classroom.RestoreEnrollment(classroom.EnrollmentSnapshot{
		ID:           row.ID,
		ClassID:      row.ClassID,
		StudentID:    row.StudentID,
		Status:       classroom.EnrollmentStatus(row.Status),
		CreditsTotal: row.CreditsTotal,
		CreditsUsed:  row.CreditsUsed,
		EnrolledAt:   row.EnrolledAt,
		CompletedAt:  row.CompletedAt,
		WithdrawnAt:  row.WithdrawnAt,
		Notes:        derefString(row.Notes),
	})
}

func unlockToRow(u *classroom.LessonUnlock) models.LessonUnlock {
	s := u.Snapshot()
	return models.LessonUnlock{
		ID:            s.ID,
		ClassID:       s.ClassID,
		LessonID:      s.LessonID,
		UnlockedBy:    s.UnlockedBy,
		UnlockedAt:    s.UnlockedAt,
		MeetingNumber: s.MeetingNumber,
		Notes:         optionalString(s.Notes),
	}
}

func attendanceToRow(a *classroom.Attendance) models.Attendance {
	s := a.Snapshot()
	return models.Attendance{
		ID:             s.ID,
		EnrollmentID:   s.EnrollmentID,
		ClassID:        s.ClassID,
		MeetingNumber:  s.MeetingNumber,
		MeetingDate:    s.MeetingDate,
		Status:         string(s.Status),
		CreditConsumed: s.CreditConsumed,
		MarkedBy:       s.MarkedBy,
		MarkedAt:       s.MarkedAt,
		LastEditedBy:   s.LastEditedBy,
		LastEditedAt:   s.LastEditedAt,
		Notes:          optionalString(s.Notes),
	}
}

func attendanceFromRow(row models.Attendance) (*classroom.Attendance, error) {
	return classroom.RestoreAttendance(classroom.AttendanceSnapshot{
		ID:             row.ID,
		EnrollmentID:   row.EnrollmentID,
		ClassID:        row.ClassID,
		MeetingNumber:  row.MeetingNumber,
		MeetingDate:    row.MeetingDate,
		Status:         classroom.AttendanceStatus(row.Status),
		CreditConsumed: row.CreditConsumed,
		MarkedBy:       row.MarkedBy,
		MarkedAt:       row.MarkedAt,
		LastEditedBy:   row.LastEditedBy,
		LastEditedAt:   row.LastEditedAt,
		Notes:          derefString(row.Notes),
	})
}

func adjustmentToRow(c *classroom.CreditAdjustment) models.CreditAdjustment {
	s := c.Snapshot()
	return models.CreditAdjustment{
		ID:            s.ID,
		EnrollmentID:  s.EnrollmentID,
		Amount:        s.Amount,
		Type:          string(s.Type),
		Reason:        s.Reason,
		AdjustedBy:    s.AdjustedBy,
		AdjustedAt:    s.AdjustedAt,
		PreviousTotal: s.PreviousTotal,
		NewTotal:      s.NewTotal,
	}
}

func adjustmentFromRow(row models.CreditAdjustment) (*classroom.CreditAdjustment, error) {
	return classroom.RestoreCreditAdjustment(classroom.CreditAdjustmentSnapshot{
		ID:            row.ID,
		EnrollmentID:  row.EnrollmentID,
		Amount:        row.Amount,
		Type:          classroom.AdjustmentType(row.Type),
		Reason:        row.Reason,
		AdjustedBy:    row.AdjustedBy,
		AdjustedAt:    row.AdjustedAt,
		PreviousTotal: row.PreviousTotal,
		NewTotal:      row.NewTotal,
	})
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
