package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/internal/dto"
	"github.com/noah-isme/class-engine-api/internal/models"
	"github.com/noah-isme/class-engine-api/internal/repository"
	appErrors "github.com/noah-isme/class-engine-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]*classroom.Class, int, error)
	FindByIDWithEnrollments(ctx context.Context, id string) (*classroom.Class, error)
	FindAttendanceByID(ctx context.Context, id string) (*classroom.Attendance, error)
	ListAttendanceByEnrollment(ctx context.Context, enrollmentID string) ([]*classroom.Attendance, error)
	ListCreditAdjustmentsByEnrollment(ctx context.Context, enrollmentID string) ([]*classroom.CreditAdjustment, error)
	SaveChanges(ctx context.Context, changes repository.ClassChanges) error
}

// ClassServiceConfig tunes optional behaviour of ClassService.
type ClassServiceConfig struct {
	CacheTTL           time.Duration
	LowCreditThreshold int
}

// ClassService runs class use cases: load the aggregate, apply one operation,
// persist it with its audit rows, then publish the drained events.
type ClassService struct {
	repo      classRepository
	publisher classroom.EventPublisher
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ClassServiceConfig
}

// NewClassService constructs ClassService.
func NewClassService(repo classRepository, publisher classroom.EventPublisher, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg ClassServiceConfig) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{
		repo:      repo,
		publisher: publisher,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// List returns classes with pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]dto.ClassResponse, *models.Pagination, error) {
	if filter.Status != "" {
		if _, err := classroom.ParseClassStatus(filter.Status); err != nil {
			return nil, nil, mapClassError(err, "invalid status filter")
		}
	}
	if filter.Type != "" {
		if _, err := classroom.ParseClassType(filter.Type); err != nil {
			return nil, nil, mapClassError(err, "invalid type filter")
		}
	}

	start := time.Now()
	classes, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("classes_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}

	items := make([]dto.ClassResponse, 0, len(classes))
	for _, class := range classes {
		items = append(items, dto.NewClassResponse(class, false))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns the class with enrollments and unlocks, served from cache when
// enabled. The flag reports a cache hit.
func (s *ClassService) Get(ctx context.Context, id string) (*dto.ClassResponse, bool, error) {
	key := classCacheKey(id)
	var cached dto.ClassResponse
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	class, err := s.load(ctx, id)
	if err != nil {
		return nil, false, err
	}
	resp := dto.NewClassResponse(class, true)
	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache class detail", zap.String("class_id", id), zap.Error(err))
	}
	return &resp, false, nil
}

// Create validates the payload and stores a new draft class.
func (s *ClassService) Create(ctx context.Context, req dto.CreateClassRequest) (*dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	schedule, err := toScheduleSlots(req.Schedule)
	if err != nil {
		return nil, mapClassError(err, "invalid schedule")
	}

	class, err := classroom.NewClass(classroom.NewClassParams{
		Name:                 req.Name,
		CourseID:             req.CourseID,
		InstructorID:         req.InstructorID,
		Type:                 classroom.ClassType(strings.ToLower(req.Type)),
		TotalMeetings:        req.TotalMeetings,
		MaxStudents:          req.MaxStudents,
		Schedule:             schedule,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		EnrollmentDeadline:   req.EnrollmentDeadline,
		ContinuedFromClassID: req.ContinuedFromClassID,
		Notes:                req.Notes,
	})
	if err != nil {
		return nil, s.reject("create", err, "invalid class")
	}
	if err := s.persist(ctx, "create", repository.ClassChanges{Class: class}); err != nil {
		return nil, err
	}
	s.logger.Info("class created", zap.String("class_id", class.ID()), zap.String("type", string(class.Type())))
	resp := dto.NewClassResponse(class, true)
	return &resp, nil
}

// UpdateDetails applies a partial update.
func (s *ClassService) UpdateDetails(ctx context.Context, id string, req dto.UpdateClassRequest) (*dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	var schedule []classroom.ScheduleSlot
	if req.Schedule != nil {
		slots, err := toScheduleSlots(req.Schedule)
		if err != nil {
			return nil, mapClassError(err, "invalid schedule")
		}
		schedule = slots
		if schedule == nil {
			schedule = []classroom.ScheduleSlot{}
		}
	}

	class, err := s.execute(ctx, "update_details", id, func(class *classroom.Class, _ *repository.ClassChanges) error {
		return class.UpdateDetails(classroom.UpdateDetailsParams{
			Name:               req.Name,
			MaxStudents:        req.MaxStudents,
			Schedule:           schedule,
			StartDate:          req.StartDate,
			EndDate:            req.EndDate,
			EnrollmentDeadline: req.EnrollmentDeadline,
			Notes:              req.Notes,
		})
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewClassResponse(class, true)
	return &resp, nil
}

// OpenEnrollment moves a draft class to enrollment_open.
func (s *ClassService) OpenEnrollment(ctx context.Context, id string) (*dto.ClassResponse, error) {
	return s.transition(ctx, "open_enrollment", id, (*classroom.Class).OpenEnrollment)
}

// Activate starts a class that is open for enrollment.
func (s *ClassService) Activate(ctx context.Context, id string) (*dto.ClassResponse, error) {
	return s.transition(ctx, "activate", id, (*classroom.Class).Activate)
}

// Complete finishes an active class and its active enrollments.
func (s *ClassService) Complete(ctx context.Context, id string) (*dto.ClassResponse, error) {
	return s.transition(ctx, "complete", id, (*classroom.Class).Complete)
}

// Cancel cancels a class that has not finished.
func (s *ClassService) Cancel(ctx context.Context, id string) (*dto.ClassResponse, error) {
	return s.transition(ctx, "cancel", id, (*classroom.Class).Cancel)
}

func (s *ClassService) transition(ctx context.Context, op, id string, apply func(*classroom.Class) error) (*dto.ClassResponse, error) {
	class, err := s.execute(ctx, op, id, func(class *classroom.Class, _ *repository.ClassChanges) error {
		return apply(class)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("class status changed", zap.String("class_id", id), zap.String("status", string(class.Status())))
	resp := dto.NewClassResponse(class, true)
	return &resp, nil
}

// EnrollStudent gives a student a seat.
func (s *ClassService) EnrollStudent(ctx context.Context, classID string, req dto.EnrollStudentRequest) (*dto.EnrollmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	var enrollment *classroom.Enrollment
	_, err := s.execute(ctx, "enroll_student", classID, func(class *classroom.Class, _ *repository.ClassChanges) error {
		var err error
		enrollment, err = class.EnrollStudent(req.StudentID, req.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewEnrollmentResponse(enrollment)
	return &resp, nil
}

// RemoveStudent withdraws the student's active enrollment.
func (s *ClassService) RemoveStudent(ctx context.Context, classID, studentID, reason string) error {
	_, err := s.execute(ctx, "remove_student", classID, func(class *classroom.Class, _ *repository.ClassChanges) error {
		return class.RemoveStudent(studentID, reason)
	})
	return err
}

// ListEnrollments returns every enrollment of the class, active or not.
func (s *ClassService) ListEnrollments(ctx context.Context, classID string) ([]dto.EnrollmentResponse, error) {
	class, err := s.load(ctx, classID)
	if err != nil {
		return nil, err
	}
	return dto.NewEnrollmentResponses(class.Enrollments()), nil
}

// MarkAttendance records a meeting for an enrollment; actorID becomes markedBy.
func (s *ClassService) MarkAttendance(ctx context.Context, classID, actorID string, req dto.MarkAttendanceRequest) (*dto.AttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	var meetingDate time.Time
	if req.MeetingDate != nil {
		meetingDate = *req.MeetingDate
	}

	var attendance *classroom.Attendance
	class, err := s.execute(ctx, "mark_attendance", classID, func(class *classroom.Class, changes *repository.ClassChanges) error {
		var err error
		attendance, err = class.MarkAttendance(classroom.MarkAttendanceParams{
			EnrollmentID:  req.EnrollmentID,
			MeetingNumber: req.MeetingNumber,
			MeetingDate:   meetingDate,
			Status:        classroom.AttendanceStatus(strings.ToLower(req.Status)),
			MarkedBy:      actorID,
			Notes:         req.Notes,
		})
		if err != nil {
			return err
		}
		changes.Attendance = append(changes.Attendance, attendance)
		return nil
	})
	if err != nil {
		return nil, err
	}

	delta := 0
	if attendance.CreditConsumed() {
		delta = -1
	}
	return &dto.AttendanceResult{
		Attendance:  dto.NewAttendanceResponse(attendance),
		Enrollment:  dto.NewEnrollmentResponse(class.FindEnrollment(attendance.EnrollmentID())),
		CreditDelta: delta,
	}, nil
}

// CorrectAttendance changes a recorded status and applies the credit delta.
func (s *ClassService) CorrectAttendance(ctx context.Context, classID, attendanceID, actorID string, req dto.CorrectAttendanceRequest) (*dto.AttendanceResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	start := time.Now()
	attendance, err := s.repo.FindAttendanceByID(ctx, attendanceID)
	s.metrics.ObserveDBQuery("attendance_find", time.Since(start))
	if err != nil {
		return nil, mapClassError(err, "failed to load attendance")
	}

	var delta int
	class, err := s.execute(ctx, "correct_attendance", classID, func(class *classroom.Class, changes *repository.ClassChanges) error {
		var err error
		delta, err = class.CorrectAttendance(attendance, classroom.AttendanceStatus(strings.ToLower(req.Status)), actorID, req.Notes)
		if err != nil {
			return err
		}
		changes.Attendance = append(changes.Attendance, attendance)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.AttendanceResult{
		Attendance:  dto.NewAttendanceResponse(attendance),
		Enrollment:  dto.NewEnrollmentResponse(class.FindEnrollment(attendance.EnrollmentID())),
		CreditDelta: delta,
	}, nil
}

// ListAttendance returns the attendance trail of an enrollment in the class.
func (s *ClassService) ListAttendance(ctx context.Context, classID, enrollmentID string) ([]dto.AttendanceResponse, error) {
	if err := s.ensureEnrollment(ctx, classID, enrollmentID); err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := s.repo.ListAttendanceByEnrollment(ctx, enrollmentID)
	s.metrics.ObserveDBQuery("attendance_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	items := make([]dto.AttendanceResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewAttendanceResponse(record))
	}
	return items, nil
}

// AdjustCredits applies a manual credit change; actorID becomes adjustedBy.
func (s *ClassService) AdjustCredits(ctx context.Context, classID, enrollmentID, actorID string, req dto.AdjustCreditsRequest) (*dto.CreditAdjustmentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid credit adjustment payload")
	}
	adjustmentType, err := classroom.ParseAdjustmentType(req.Type)
	if err != nil {
		return nil, mapClassError(err, "invalid adjustment type")
	}

	var adjustment *classroom.CreditAdjustment
	class, err := s.execute(ctx, "adjust_credits", classID, func(class *classroom.Class, changes *repository.ClassChanges) error {
		var err error
		adjustment, err = class.AdjustCredits(enrollmentID, req.Amount, adjustmentType, req.Reason, actorID)
		if err != nil {
			return err
		}
		changes.Adjustments = append(changes.Adjustments, adjustment)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("credits adjusted",
		zap.String("class_id", classID),
		zap.String("enrollment_id", enrollmentID),
		zap.Int("amount", adjustment.Amount()),
		zap.String("adjusted_by", actorID),
	)
	return &dto.CreditAdjustmentResult{
		Adjustment: dto.NewCreditAdjustmentResponse(adjustment),
		Enrollment: dto.NewEnrollmentResponse(class.FindEnrollment(enrollmentID)),
	}, nil
}

// ListCreditAdjustments returns the adjustment trail of an enrollment in the class.
func (s *ClassService) ListCreditAdjustments(ctx context.Context, classID, enrollmentID string) ([]dto.CreditAdjustmentResponse, error) {
	if err := s.ensureEnrollment(ctx, classID, enrollmentID); err != nil {
		return nil, err
	}
	start := time.Now()
	records, err := s.repo.ListCreditAdjustmentsByEnrollment(ctx, enrollmentID)
	s.metrics.ObserveDBQuery("credit_adjustments_list", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list credit adjustments")
	}
	items := make([]dto.CreditAdjustmentResponse, 0, len(records))
	for _, record := range records {
		items = append(items, dto.NewCreditAdjustmentResponse(record))
	}
	return items, nil
}

// UnlockLesson releases a lesson; only the class instructor may do so.
func (s *ClassService) UnlockLesson(ctx context.Context, classID, actorID string, req dto.UnlockLessonRequest) (*dto.LessonUnlockResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson unlock payload")
	}
	var unlock *classroom.LessonUnlock
	_, err := s.execute(ctx, "unlock_lesson", classID, func(class *classroom.Class, _ *repository.ClassChanges) error {
		var err error
		unlock, err = class.UnlockLesson(req.LessonID, actorID, req.MeetingNumber, req.Notes)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewLessonUnlockResponse(unlock)
	return &resp, nil
}

// AddMeetings extends a private class and its active enrollments.
func (s *ClassService) AddMeetings(ctx context.Context, classID string, req dto.AddMeetingsRequest) (*dto.ClassResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid meetings payload")
	}
	class, err := s.execute(ctx, "add_meetings", classID, func(class *classroom.Class, _ *repository.ClassChanges) error {
		return class.AddMeetings(req.Count)
	})
	if err != nil {
		return nil, err
	}
	resp := dto.NewClassResponse(class, true)
	return &resp, nil
}

// execute loads the class with its children, applies fn and persists the result.
// Nothing is written and no event is published when fn fails.
func (s *ClassService) execute(ctx context.Context, op, classID string, fn func(*classroom.Class, *repository.ClassChanges) error) (*classroom.Class, error) {
	class, err := s.load(ctx, classID)
	if err != nil {
		return nil, err
	}
	changes := repository.ClassChanges{Class: class}
	if err := fn(class, &changes); err != nil {
		return nil, s.reject(op, err, "class operation rejected")
	}
	if err := s.persist(ctx, op, changes); err != nil {
		return nil, err
	}
	return class, nil
}

func (s *ClassService) load(ctx context.Context, classID string) (*classroom.Class, error) {
	start := time.Now()
	class, err := s.repo.FindByIDWithEnrollments(ctx, classID)
	s.metrics.ObserveDBQuery("class_load", time.Since(start))
	if err != nil {
		return nil, mapClassError(err, "failed to load class")
	}
	class.SetLowCreditThreshold(s.cfg.LowCreditThreshold)
	return class, nil
}

func (s *ClassService) ensureEnrollment(ctx context.Context, classID, enrollmentID string) error {
	class, err := s.load(ctx, classID)
	if err != nil {
		return err
	}
	if class.FindEnrollment(enrollmentID) == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// persist saves the changes, drops the cached detail and publishes the drained events.
func (s *ClassService) persist(ctx context.Context, op string, changes repository.ClassChanges) error {
	start := time.Now()
	err := s.repo.SaveChanges(ctx, changes)
	s.metrics.ObserveDBQuery("class_save", time.Since(start))
	if err != nil {
		if errors.Is(err, classroom.ErrVersionConflict) {
			s.metrics.RecordVersionConflict(op)
			s.logger.Warn("class version conflict", zap.String("op", op), zap.String("class_id", changes.Class.ID()))
		}
		return mapClassError(err, "failed to save class")
	}

	classID := changes.Class.ID()
	if err := s.cache.Invalidate(ctx, classCacheKey(classID)); err != nil {
		s.logger.Warn("invalidate class cache", zap.String("class_id", classID), zap.Error(err))
	}

	events := changes.Class.PullEvents()
	if s.publisher == nil || len(events) == 0 {
		return nil
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("publish class events",
			zap.String("op", op),
			zap.String("class_id", classID),
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
	return nil
}

func (s *ClassService) reject(op string, err error, fallback string) error {
	appErr := mapClassError(err, fallback)
	if appErr.Status < 500 {
		s.metrics.RecordRuleViolation(op, appErr.Code)
	}
	return appErr
}

func classCacheKey(classID string) string {
	return fmt.Sprintf("classes:detail:%s", strings.ReplaceAll(classID, ":", "|"))
}

func toScheduleSlots(payload []dto.ScheduleSlotPayload) ([]classroom.ScheduleSlot, error) {
	if len(payload) == 0 {
		return nil, nil
	}
	slots := make([]classroom.ScheduleSlot, 0, len(payload))
	for _, p := range payload {
		slot, err := classroom.NewScheduleSlot(time.Weekday(p.DayOfWeek), p.StartTime, p.EndTime)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

var classErrorMapping = []struct {
	kind error
	base *appErrors.Error
}{
	{classroom.ErrNotFound, appErrors.ErrNotFound},
	{classroom.ErrInvalidInput, appErrors.ErrValidation},
	{classroom.ErrStateTransition, appErrors.ErrInvalidStateTransition},
	{classroom.ErrEnrollmentClosed, appErrors.ErrEnrollmentClosed},
	{classroom.ErrClassFull, appErrors.ErrClassFull},
	{classroom.ErrDuplicateEnrollment, appErrors.ErrDuplicateEnrollment},
	{classroom.ErrInsufficientCredits, appErrors.ErrInsufficientCredits},
	{classroom.ErrCreditFloorViolation, appErrors.ErrCreditFloorViolation},
	{classroom.ErrEnrollmentNotActive, appErrors.ErrEnrollmentNotActive},
	{classroom.ErrUnlockNotAuthorized, appErrors.ErrUnlockNotAuthorized},
	{classroom.ErrAlreadyUnlocked, appErrors.ErrAlreadyUnlocked},
	{classroom.ErrUnlockLimitExceeded, appErrors.ErrUnlockLimitExceeded},
	{classroom.ErrUnsupportedClassType, appErrors.ErrUnsupportedClassType},
	{classroom.ErrDuplicateAttendance, appErrors.ErrDuplicateAttendance},
	{classroom.ErrVersionConflict, appErrors.ErrConcurrentModification},
}

// mapClassError translates domain and repository errors into API errors.
func mapClassError(err error, fallback string) *appErrors.Error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range classErrorMapping {
		if !errors.Is(err, m.kind) {
			continue
		}
		message := m.base.Message
		var domainErr *classroom.Error
		if errors.As(err, &domainErr) && domainErr.Message != "" {
			message = domainErr.Message
		}
		return appErrors.Wrap(err, m.base.Code, m.base.Status, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}
