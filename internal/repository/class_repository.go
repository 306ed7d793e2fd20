package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/internal/models"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"

	activeEnrollmentConstraint  = "class_enrollments_active_student_key"
	attendanceMeetingConstraint = "class_attendance_enrollment_meeting_key"
	unlockLessonConstraint      = "lesson_unlocks_class_lesson_key"
)

const classColumns = `id, name, course_id, instructor_id, type, status, total_meetings, meetings_completed, max_students, schedule, start_date, end_date, enrollment_deadline, continued_from_class_id, notes, version, created_at, updated_at`

const enrollmentColumns = `id, class_id, student_id, status, credits_total, credits_used, enrolled_at, completed_at, withdrawn_at, notes`

const attendanceColumns = `id, enrollment_id, class_id, meeting_number, meeting_date, status, credit_consumed, marked_by, marked_at, last_edited_by, last_edited_at, notes`

const adjustmentColumns = `id, enrollment_id, amount, type, reason, adjusted_by, adjusted_at, previous_total, new_total`

const unlockColumns = `id, class_id, lesson_id, unlocked_by, unlocked_at, meeting_number, notes`

// ClassChanges groups the aggregate with the audit rows produced by the same use case.
type ClassChanges struct {
	Class       *classroom.Class
	Attendance  []*classroom.Attendance
	Adjustments []*classroom.CreditAdjustment
}

// ClassRepository persists the class aggregate and its audit trail.
type ClassRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*ClassRepository)(nil)

// NewClassRepository constructs a new class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching filter criteria without their children.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]*classroom.Class, int, error) {
	base := "FROM classes WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("id IN (SELECT class_id FROM class_enrollments WHERE student_id = $%d)", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d)", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"name":       true,
		"status":     true,
		"start_date": true,
		"created_at": true,
		"updated_at": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", classColumns, base, sortBy, order, size, offset)
	var rows []models.Class
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	classes := make([]*classroom.Class, 0, len(rows))
	for _, row := range rows {
		class, err := classFromRows(row, nil, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("restore class %s: %w", row.ID, err)
		}
		classes = append(classes, class)
	}
	return classes, total, nil
}

// FindByID returns the class row only.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*classroom.Class, error) {
	row, err := r.findRow(ctx, id)
	if err != nil {
		return nil, err
	}
	return classFromRows(*row, nil, nil)
}

// FindByIDWithEnrollments loads the class together with its enrollments and lesson unlocks.
func (r *ClassRepository) FindByIDWithEnrollments(ctx context.Context, id string) (*classroom.Class, error) {
	row, err := r.findRow(ctx, id)
	if err != nil {
		return nil, err
	}

	var enrollments []models.Enrollment
	enrollmentQuery := fmt.Sprintf("SELECT %s FROM class_enrollments WHERE class_id = $1 ORDER BY enrolled_at ASC", enrollmentColumns)
	if err := r.db.SelectContext(ctx, &enrollments, enrollmentQuery, id); err != nil {
		return nil, fmt.Errorf("load class enrollments: %w", err)
	}

	var unlocks []models.LessonUnlock
	unlockQuery := fmt.Sprintf("SELECT %s FROM lesson_unlocks WHERE class_id = $1 ORDER BY unlocked_at ASC", unlockColumns)
	if err := r.db.SelectContext(ctx, &unlocks, unlockQuery, id); err != nil {
		return nil, fmt.Errorf("load lesson unlocks: %w", err)
	}

	return classFromRows(*row, enrollments, unlocks)
}

func (r *ClassRepository) findRow(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var row models.Class
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("class %s: %w", id, classroom.ErrNotFound)
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &row, nil
}

// FindAttendanceByID loads a single attendance record.
func (r *ClassRepository) FindAttendanceByID(ctx context.Context, id string) (*classroom.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM class_attendance WHERE id = $1", attendanceColumns)
	var row models.Attendance
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMalformedID(err) {
			return nil, fmt.Errorf("attendance %s: %w", id, classroom.ErrNotFound)
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return attendanceFromRow(row)
}

// ListAttendanceByEnrollment returns attendance ordered by meeting number.
func (r *ClassRepository) ListAttendanceByEnrollment(ctx context.Context, enrollmentID string) ([]*classroom.Attendance, error) {
	query := fmt.Sprintf("SELECT %s FROM class_attendance WHERE enrollment_id = $1 ORDER BY meeting_number ASC", attendanceColumns)
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	records := make([]*classroom.Attendance, 0, len(rows))
	for _, row := range rows {
		record, err := attendanceFromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// ListCreditAdjustmentsByEnrollment returns the adjustment trail, oldest first.
func (r *ClassRepository) ListCreditAdjustmentsByEnrollment(ctx context.Context, enrollmentID string) ([]*classroom.CreditAdjustment, error) {
	query := fmt.Sprintf("SELECT %s FROM credit_adjustments WHERE enrollment_id = $1 ORDER BY adjusted_at ASC", adjustmentColumns)
	var rows []models.CreditAdjustment
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list credit adjustments: %w", err)
	}
	records := make([]*classroom.CreditAdjustment, 0, len(rows))
	for _, row := range rows {
		record, err := adjustmentFromRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Save persists the class row with all enrollments and lesson unlocks.
func (r *ClassRepository) Save(ctx context.Context, class *classroom.Class) error {
	return r.SaveChanges(ctx, ClassChanges{Class: class})
}

// SaveAttendance persists an attendance record on its own.
func (r *ClassRepository) SaveAttendance(ctx context.Context, attendance *classroom.Attendance) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		return upsertAttendance(ctx, tx, attendance)
	})
}

// SaveCreditAdjustment persists an adjustment record on its own.
func (r *ClassRepository) SaveCreditAdjustment(ctx context.Context, adjustment *classroom.CreditAdjustment) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		return insertAdjustment(ctx, tx, adjustment)
	})
}

// SaveChanges writes the aggregate and the audit rows in a single transaction.
// The class row is guarded by its version; a stale aggregate yields ErrVersionConflict
// and nothing is written.
func (r *ClassRepository) SaveChanges(ctx context.Context, changes ClassChanges) error {
	if changes.Class == nil {
		return fmt.Errorf("save class: class is nil")
	}
	var nextVersion int
	err := r.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		nextVersion, err = writeClass(ctx, tx, changes.Class)
		if err != nil {
			return err
		}
		for _, e := range changes.Class.Enrollments() {
			if err := upsertEnrollment(ctx, tx, e); err != nil {
				return err
			}
		}
		for _, u := range changes.Class.LessonUnlocks() {
			if err := insertUnlock(ctx, tx, u); err != nil {
				return err
			}
		}
		for _, a := range changes.Attendance {
			if err := upsertAttendance(ctx, tx, a); err != nil {
				return err
			}
		}
		for _, adj := range changes.Adjustments {
			if err := insertAdjustment(ctx, tx, adj); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	changes.Class.SetVersion(nextVersion)
	return nil
}

func (r *ClassRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin class tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit class tx: %w", err)
	}
	return nil
}

func writeClass(ctx context.Context, tx *sqlx.Tx, class *classroom.Class) (int, error) {
	row, err := classToRow(class)
	if err != nil {
		return 0, err
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = row.UpdatedAt
	}

	if row.Version == 0 {
		row.Version = 1
		const insert = `INSERT INTO classes (id, name, course_id, instructor_id, type, status, total_meetings, meetings_completed, max_students, schedule, start_date, end_date, enrollment_deadline, continued_from_class_id, notes, version, created_at, updated_at)
VALUES (:id, :name, :course_id, :instructor_id, :type, :status, :total_meetings, :meetings_completed, :max_students, :schedule, :start_date, :end_date, :enrollment_deadline, :continued_from_class_id, :notes, :version, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, row); err != nil {
			return 0, fmt.Errorf("insert class: %w", err)
		}
		return row.Version, nil
	}

	const update = `UPDATE classes SET name = $1, status = $2, total_meetings = $3, meetings_completed = $4, max_students = $5, schedule = $6, start_date = $7, end_date = $8, enrollment_deadline = $9, notes = $10, updated_at = $11, version = version + 1
WHERE id = $12 AND version = $13`
	result, err := tx.ExecContext(ctx, update,
		row.Name, row.Status, row.TotalMeetings, row.MeetingsCompleted, row.MaxStudents, row.Schedule,
		row.StartDate, row.EndDate, row.EnrollmentDeadline, row.Notes, row.UpdatedAt,
		row.ID, row.Version,
	)
	if err != nil {
		return 0, fmt.Errorf("update class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update class rows affected: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("class %s at version %d: %w", row.ID, row.Version, classroom.ErrVersionConflict)
	}
	return row.Version + 1, nil
}

func upsertEnrollment(ctx context.Context, tx *sqlx.Tx, e *classroom.Enrollment) error {
	const query = `INSERT INTO class_enrollments (id, class_id, student_id, status, credits_total, credits_used, enrolled_at, completed_at, withdrawn_at, notes)
VALUES (:id, :class_id, :student_id, :status, :credits_total, :credits_used, :enrolled_at, :completed_at, :withdrawn_at, :notes)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, credits_total = EXCLUDED.credits_total, credits_used = EXCLUDED.credits_used, completed_at = EXCLUDED.completed_at, withdrawn_at = EXCLUDED.withdrawn_at, notes = EXCLUDED.notes`
	if _, err := tx.NamedExecContext(ctx, query, enrollmentToRow(e)); err != nil {
		return translateWriteError("save enrollment", err)
	}
	return nil
}

func insertUnlock(ctx context.Context, tx *sqlx.Tx, u *classroom.LessonUnlock) error {
	const query = `INSERT INTO lesson_unlocks (id, class_id, lesson_id, unlocked_by, unlocked_at, meeting_number, notes)
VALUES (:id, :class_id, :lesson_id, :unlocked_by, :unlocked_at, :meeting_number, :notes)
ON CONFLICT (id) DO NOTHING`
	if _, err := tx.NamedExecContext(ctx, query, unlockToRow(u)); err != nil {
		return translateWriteError("save lesson unlock", err)
	}
	return nil
}

func upsertAttendance(ctx context.Context, tx *sqlx.Tx, a *classroom.Attendance) error {
	const query = `INSERT INTO class_attendance (id, enrollment_id, class_id, meeting_number, meeting_date, status, credit_consumed, marked_by, marked_at, last_edited_by, last_edited_at, notes)
VALUES (:id, :enrollment_id, :class_id, :meeting_number, :meeting_date, :status, :credit_consumed, :marked_by, :marked_at, :last_edited_by, :last_edited_at, :notes)
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, credit_consumed = EXCLUDED.credit_consumed, last_edited_by = EXCLUDED.last_edited_by, last_edited_at = EXCLUDED.last_edited_at, notes = EXCLUDED.notes`
	if _, err := tx.NamedExecContext(ctx, query, attendanceToRow(a)); err != nil {
		return translateWriteError("save attendance", err)
	}
	return nil
}

func insertAdjustment(ctx context.Context, tx *sqlx.Tx, adj *classroom.CreditAdjustment) error {
	const query = `INSERT INTO credit_adjustments (id, enrollment_id, amount, type, reason, adjusted_by, adjusted_at, previous_total, new_total)
VALUES (:id, :enrollment_id, :amount, :type, :reason, :adjusted_by, :adjusted_at, :previous_total, :new_total)`
	if _, err := tx.NamedExecContext(ctx, query, adjustmentToRow(adj)); err != nil {
		return translateWriteError("save credit adjustment", err)
	}
	return nil
}

// isMalformedID reports whether postgres rejected an id that is not a valid uuid.
func isMalformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}

// translateWriteError maps unique violations guarding aggregate invariants to domain kinds.
func translateWriteError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		switch pqErr.Constraint {
		case activeEnrollmentConstraint:
			return fmt.Errorf("%s: %w", op, classroom.ErrDuplicateEnrollment)
		case attendanceMeetingConstraint:
			return fmt.Errorf("%s: %w", op, classroom.ErrDuplicateAttendance)
		case unlockLessonConstraint:
			return fmt.Errorf("%s: %w", op, classroom.ErrAlreadyUnlocked)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
