package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/internal/models"
)

var classRowColumns = []string{"id", "name", "course_id", "instructor_id", "type", "status", "total_meetings", "meetings_completed", "max_students", "schedule", "start_date", "end_date", "enrollment_deadline", "continued_from_class_id", "notes", "version", "created_at", "updated_at"}

func newClassRepoMock(t *testing.T) (*ClassRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewClassRepository(sqlx.NewDb(db, "sqlmock")), mock, func() { db.Close() }
}

func restoredGroupClass(t *testing.T, status classroom.ClassStatus, version int) *classroom.Class {
	t.Helper()
	max := 10
	now := time.Now().UTC()
	class, err := classroom.RestoreClass(classroom.ClassSnapshot{
		ID:            "class-1",
		Name:          "Conversation A1",
		CourseID:      "course-1",
		InstructorID:  "instructor-1",
		Type:          classroom.ClassTypeGroup,
		Status:        status,
		TotalMeetings: 12,
		MaxStudents:   &max,
		Version:       version,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil, nil)
	require.NoError(t, err)
	return class
}

func TestClassRepositoryFindByIDNotFound(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(classRowColumns))

	_, err := repo.FindByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, classroom.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByIDWithEnrollments(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow("class-1", "Conversation A1", "course-1", "instructor-1", "group", "active", 12, 3, 10,
				[]byte(`[{"day_of_week":1,"start_time":"09:00","end_time":"10:30"}]`),
				nil, nil, nil, nil, nil, 4, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_enrollments WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "student_id", "status", "credits_total", "credits_used", "enrolled_at", "completed_at", "withdrawn_at", "notes"}).
			AddRow("enr-1", "class-1", "student-1", "active", 12, 3, now, nil, nil, nil))
	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_unlocks WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "class_id", "lesson_id", "unlocked_by", "unlocked_at", "meeting_number", "notes"}).
			AddRow("unl-1", "class-1", "lesson-1", "instructor-1", now, 2, nil))

	class, err := repo.FindByIDWithEnrollments(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, 4, class.Version())
	assert.Equal(t, 3, class.MeetingsCompleted())
	require.Len(t, class.Schedule(), 1)
	assert.Equal(t, time.Monday, class.Schedule()[0].DayOfWeek)
	require.Len(t, class.Enrollments(), 1)
	assert.Equal(t, 9, class.Enrollments()[0].Credits().Remaining())
	assert.True(t, class.IsLessonUnlocked("lesson-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListAppliesFilters(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE 1=1 AND instructor_id = $1 AND status = $2 ORDER BY name ASC LIMIT 5 OFFSET 5")).
		WithArgs("instructor-1", "active").
		WillReturnRows(sqlmock.NewRows(classRowColumns).
			AddRow("class-1", "Conversation A1", "course-1", "instructor-1", "group", "active", 12, 0, nil, []byte(`[]`), nil, nil, nil, nil, nil, 1, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes WHERE 1=1 AND instructor_id = $1 AND status = $2")).
		WithArgs("instructor-1", "active").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	classes, total, err := repo.List(context.Background(), models.ClassFilter{
		InstructorID: "instructor-1",
		Status:       "active",
		Page:         2,
		PageSize:     5,
		SortBy:       "name",
		SortOrder:    "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	require.Len(t, classes, 1)
	assert.Equal(t, "class-1", classes[0].ID())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositorySaveChangesInsertsNewClass(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	class, err := classroom.NewClass(classroom.NewClassParams{
		Name:          "Private B2",
		CourseID:      "course-2",
		InstructorID:  "instructor-1",
		Type:          classroom.ClassTypePrivate,
		TotalMeetings: 8,
	})
	require.NoError(t, err)
	_, err = class.EnrollStudent("student-1", "")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO class_enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveChanges(context.Background(), ClassChanges{Class: class}))
	assert.Equal(t, 1, class.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryInsertsZeroMeetingContinuation(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	previous := "0b8f5e3c-52a4-4f0e-9d55-6a1f3c2e7b10"
	class, err := classroom.NewClass(classroom.NewClassParams{
		Name:                 "Placement",
		CourseID:             "course-3",
		InstructorID:         "instructor-2",
		Type:                 classroom.ClassTypeGroup,
		TotalMeetings:        0,
		ContinuedFromClassID: &previous,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO classes").
		WithArgs(class.ID(), "Placement", "course-3", "instructor-2", "group", "draft", 0, 0,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			&previous, sqlmock.AnyArg(), 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), class))
	assert.Equal(t, 1, class.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryMalformedIDIsNotFound(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	malformed := &pq.Error{Code: invalidTextRepresentation, Message: `invalid input syntax for type uuid: "not-a-uuid"`}
	mock.ExpectQuery(regexp.QuoteMeta("FROM classes WHERE id = $1")).
		WithArgs("not-a-uuid").
		WillReturnError(malformed)
	mock.ExpectQuery(regexp.QuoteMeta("FROM class_attendance WHERE id = $1")).
		WithArgs("not-a-uuid").
		WillReturnError(malformed)

	_, err := repo.FindByIDWithEnrollments(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, classroom.ErrNotFound)
	_, err = repo.FindAttendanceByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, classroom.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositorySaveChangesWritesAuditRows(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	class := restoredGroupClass(t, classroom.ClassStatusEnrollmentOpen, 2)
	enrollment, err := class.EnrollStudent("student-1", "")
	require.NoError(t, err)
	attendance, err := class.MarkAttendance(classroom.MarkAttendanceParams{
		EnrollmentID:  enrollment.ID(),
		MeetingNumber: 1,
		Status:        classroom.AttendanceStatusPresent,
		MarkedBy:      "instructor-1",
	})
	require.NoError(t, err)
	adjustment, err := class.AdjustCredits(enrollment.ID(), 2, classroom.AdjustmentTypeAddition, "bonus", "admin-1")
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET")).
		WithArgs(sqlmock.AnyArg(), "enrollment_open", 12, 1, 10, sqlmock.AnyArg(), nil, nil, nil, nil, sqlmock.AnyArg(), "class-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO class_enrollments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO class_attendance").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO credit_adjustments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err = repo.SaveChanges(context.Background(), ClassChanges{
		Class:       class,
		Attendance:  []*classroom.Attendance{attendance},
		Adjustments: []*classroom.CreditAdjustment{adjustment},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, class.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositorySaveChangesVersionConflict(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	class := restoredGroupClass(t, classroom.ClassStatusDraft, 5)
	require.NoError(t, class.OpenEnrollment())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Save(context.Background(), class)
	require.Error(t, err)
	assert.ErrorIs(t, err, classroom.ErrVersionConflict)
	assert.Equal(t, 5, class.Version())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryTranslatesUniqueViolations(t *testing.T) {
	repo, mock, cleanup := newClassRepoMock(t)
	defer cleanup()

	class := restoredGroupClass(t, classroom.ClassStatusEnrollmentOpen, 1)
	enrollment, err := class.EnrollStudent("student-1", "")
	require.NoError(t, err)
	attendance, err := class.MarkAttendance(classroom.MarkAttendanceParams{
		EnrollmentID:  enrollment.ID(),
		MeetingNumber: 1,
		Status:        classroom.AttendanceStatusAbsent,
		MarkedBy:      "instructor-1",
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO class_attendance").
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: attendanceMeetingConstraint})
	mock.ExpectRollback()

	err = repo.SaveAttendance(context.Background(), attendance)
	require.Error(t, err)
	assert.ErrorIs(t, err, classroom.ErrDuplicateAttendance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateWriteError(t *testing.T) {
	err := translateWriteError("save enrollment", &pq.Error{Code: uniqueViolation, Constraint: activeEnrollmentConstraint})
	assert.ErrorIs(t, err, classroom.ErrDuplicateEnrollment)

	err = translateWriteError("save lesson unlock", &pq.Error{Code: uniqueViolation, Constraint: unlockLessonConstraint})
	assert.ErrorIs(t, err, classroom.ErrAlreadyUnlocked)

	err = translateWriteError("save enrollment", &pq.Error{Code: "23503"})
	assert.NotErrorIs(t, err, classroom.ErrDuplicateEnrollment)
	assert.Contains(t, err.Error(), "save enrollment")
}
