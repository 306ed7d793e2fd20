package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/class-engine-api/internal/domain/classroom"
	"github.com/noah-isme/class-engine-api/internal/dto"
	"github.com/noah-isme/class-engine-api/internal/models"
	"github.com/noah-isme/class-engine-api/internal/repository"
	appErrors "github.com/noah-isme/class-engine-api/pkg/errors"
)

type storedClass struct {
	class       classroom.ClassSnapshot
	enrollments []classroom.EnrollmentSnapshot
	unlocks     []classroom.LessonUnlockSnapshot
}

// classStoreFake keeps snapshots so every load rebuilds a fresh aggregate.
type classStoreFake struct {
	mu          sync.Mutex
	classes     map[string]storedClass
	attendance  map[string]classroom.AttendanceSnapshot
	adjustments map[string][]classroom.CreditAdjustmentSnapshot
	saveErr     error
	saves       int
}

func newClassStoreFake() *classStoreFake {
	return &classStoreFake{
		classes:     map[string]storedClass{},
		attendance:  map[string]classroom.AttendanceSnapshot{},
		adjustments: map[string][]classroom.CreditAdjustmentSnapshot{},
	}
}

func (f *classStoreFake) List(ctx context.Context, filter models.ClassFilter) ([]*classroom.Class, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*classroom.Class
	for _, stored := range f.classes {
		if filter.InstructorID != "" && stored.class.InstructorID != filter.InstructorID {
			continue
		}
		class, err := classroom.RestoreClass(stored.class, nil, nil)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, class)
	}
	return items, len(items), nil
}

func (f *classStoreFake) FindByIDWithEnrollments(ctx context.Context, id string) (*classroom.Class, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.classes[id]
	if !ok {
		return nil, fmt.Errorf("class %s: %w", id, classroom.ErrNotFound)
	}
	enrollments := make([]*classroom.Enrollment, 0, len(stored.enrollments))
	for _, snap := range stored.enrollments {
		e, err := classroom.RestoreEnrollment(snap)
		if err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	unlocks := make([]*classroom.LessonUnlock, 0, len(stored.unlocks))
	for _, snap := range stored.unlocks {
		u, err := classroom.RestoreLessonUnlock(snap)
		if err != nil {
			return nil, err
		}
		unlocks = append(unlocks, u)
	}
	return classroom.RestoreClass(stored.class, enrollments, unlocks)
}

func (f *classStoreFake) FindAttendanceByID(ctx context.Context, id string) (*classroom.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap, ok := f.attendance[id]
	if !ok {
		return nil, fmt.Errorf("attendance %s: %w", id, classroom.ErrNotFound)
	}
	return classroom.RestoreAttendance(snap)
}

func (f *classStoreFake) ListAttendanceByEnrollment(ctx context.Context, enrollmentID string) ([]*classroom.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*classroom.Attendance
	for _, snap := range f.attendance {
		if snap.EnrollmentID != enrollmentID {
			continue
		}
		a, err := classroom.RestoreAttendance(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (f *classStoreFake) ListCreditAdjustmentsByEnrollment(ctx context.Context, enrollmentID string) ([]*classroom.CreditAdjustment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var items []*classroom.CreditAdjustment
	for _, snap := range f.adjustments[enrollmentID] {
		a, err := classroom.RestoreCreditAdjustment(snap)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}

func (f *classStoreFake) SaveChanges(ctx context.Context, changes repository.ClassChanges) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	class := changes.Class
	if existing, ok := f.classes[class.ID()]; ok && existing.class.Version != class.Version() {
		return fmt.Errorf("class %s: %w", class.ID(), classroom.ErrVersionConflict)
	}

	next := class.Version() + 1
	stored := storedClass{class: class.Snapshot()}
	stored.class.Version = next
	for _, e := range class.Enrollments() {
		stored.enrollments = append(stored.enrollments, e.Snapshot())
	}
	for _, u := range class.LessonUnlocks() {
		stored.unlocks = append(stored.unlocks, u.Snapshot())
	}
	f.classes[class.ID()] = stored
	for _, a := range changes.Attendance {
		f.attendance[a.ID()] = a.Snapshot()
	}
	for _, adj := range changes.Adjustments {
		f.adjustments[adj.EnrollmentID()] = append(f.adjustments[adj.EnrollmentID()], adj.Snapshot())
	}
	f.saves++
	class.SetVersion(next)
	return nil
}

type publisherFake struct {
	mu     sync.Mutex
	events []classroom.Event
	err    error
}

func (p *publisherFake) Publish(ctx context.Context, events ...classroom.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *publisherFake) types() []classroom.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]classroom.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

func (p *publisherFake) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type cacheRepoFake struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newCacheRepoFake() *cacheRepoFake {
	return &cacheRepoFake{entries: map[string][]byte{}}
}

func (c *cacheRepoFake) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheRepoFake) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheRepoFake) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *cacheRepoFake) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

type classServiceFixture struct {
	svc       *ClassService
	store     *classStoreFake
	publisher *publisherFake
	cache     *cacheRepoFake
}

func newClassServiceFixture(t *testing.T) classServiceFixture {
	t.Helper()
	store := newClassStoreFake()
	publisher := &publisherFake{}
	cacheRepo := newCacheRepoFake()
	metrics := NewMetricsService()
	cache := NewCacheService(cacheRepo, metrics, time.Minute, zap.NewNop(), true)
	svc := NewClassService(store, publisher, cache, metrics, nil, zap.NewNop(), ClassServiceConfig{})
	return classServiceFixture{svc: svc, store: store, publisher: publisher, cache: cacheRepo}
}

func (f classServiceFixture) createPrivate(t *testing.T, meetings int) *dto.ClassResponse {
	t.Helper()
	class, err := f.svc.Create(context.Background(), dto.CreateClassRequest{
		Name:          "Piano 1:1",
		CourseID:      "course-1",
		InstructorID:  "instructor-1",
		Type:          "private",
		TotalMeetings: meetings,
	})
	require.NoError(t, err)
	return class
}

func requireAppError(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %T", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.Status)
}

func TestClassServiceCreateAndGet(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, dto.CreateClassRequest{
		Name:          "Conversation A1",
		CourseID:      "course-1",
		InstructorID:  "instructor-1",
		Type:          "group",
		TotalMeetings: 12,
		MaxStudents:   intPointer(8),
		Schedule:      []dto.ScheduleSlotPayload{{DayOfWeek: 1, StartTime: "09:00", EndTime: "10:30"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, []classroom.EventType{classroom.EventClassCreated}, f.publisher.types())

	got, hit, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, created.ID, got.ID)
	require.Len(t, got.Schedule, 1)
	assert.Equal(t, "09:00", got.Schedule[0].StartTime)
	assert.True(t, f.cache.has(classCacheKey(created.ID)))
}

func TestClassServiceCreateValidation(t *testing.T) {
	f := newClassServiceFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateClassRequest{Name: "No type", CourseID: "c", InstructorID: "t"})
	requireAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)

	_, err = f.svc.Create(context.Background(), dto.CreateClassRequest{
		Name:         "Bad slot",
		CourseID:     "c",
		InstructorID: "t",
		Type:         "group",
		Schedule:     []dto.ScheduleSlotPayload{{DayOfWeek: 2, StartTime: "11:00", EndTime: "10:00"}},
	})
	requireAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)
	assert.Zero(t, f.store.saves)
}

func TestClassServiceGetNotFound(t *testing.T) {
	f := newClassServiceFixture(t)
	_, _, err := f.svc.Get(context.Background(), "missing")
	requireAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)
}

func TestClassServiceAttendanceConsumesCredits(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 10)

	enrollment, err := f.svc.EnrollStudent(ctx, class.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Equal(t, 10, enrollment.CreditsRemaining)
	f.publisher.reset()

	result, err := f.svc.MarkAttendance(ctx, class.ID, "instructor-1", dto.MarkAttendanceRequest{
		EnrollmentID:  enrollment.ID,
		MeetingNumber: 1,
		Status:        "present",
	})
	require.NoError(t, err)
	assert.True(t, result.Attendance.CreditConsumed)
	assert.Equal(t, "instructor-1", result.Attendance.MarkedBy)
	assert.Equal(t, 9, result.Enrollment.CreditsRemaining)
	assert.Equal(t, -1, result.CreditDelta)
	assert.Equal(t, []classroom.EventType{classroom.EventAttendanceMarked}, f.publisher.types())

	absent, err := f.svc.MarkAttendance(ctx, class.ID, "instructor-1", dto.MarkAttendanceRequest{
		EnrollmentID:  enrollment.ID,
		MeetingNumber: 2,
		Status:        "absent",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, absent.Enrollment.CreditsRemaining)
	assert.Zero(t, absent.CreditDelta)

	trail, err := f.svc.ListAttendance(ctx, class.ID, enrollment.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 2)
}

func TestClassServiceCorrectAttendanceRefundsCredit(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 5)
	enrollment, err := f.svc.EnrollStudent(ctx, class.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)
	marked, err := f.svc.MarkAttendance(ctx, class.ID, "instructor-1", dto.MarkAttendanceRequest{
		EnrollmentID:  enrollment.ID,
		MeetingNumber: 1,
		Status:        "present",
	})
	require.NoError(t, err)
	f.publisher.reset()

	corrected, err := f.svc.CorrectAttendance(ctx, class.ID, marked.Attendance.ID, "admin-1", dto.CorrectAttendanceRequest{Status: "absent", Notes: "was sick"})
	require.NoError(t, err)
	assert.Equal(t, 1, corrected.CreditDelta)
	assert.Equal(t, 5, corrected.Enrollment.CreditsRemaining)
	assert.False(t, corrected.Attendance.CreditConsumed)
	require.NotNil(t, corrected.Attendance.LastEditedBy)
	assert.Equal(t, "admin-1", *corrected.Attendance.LastEditedBy)
	assert.Equal(t, []classroom.EventType{classroom.EventAttendanceCorrected}, f.publisher.types())

	stored, err := f.store.FindAttendanceByID(ctx, marked.Attendance.ID)
	require.NoError(t, err)
	assert.Equal(t, classroom.AttendanceStatusAbsent, stored.Status())
}

func TestClassServiceCorrectAttendanceOtherClass(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	first := f.createPrivate(t, 5)
	second := f.createPrivate(t, 5)
	enrollment, err := f.svc.EnrollStudent(ctx, first.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)
	marked, err := f.svc.MarkAttendance(ctx, first.ID, "instructor-1", dto.MarkAttendanceRequest{
		EnrollmentID:  enrollment.ID,
		MeetingNumber: 1,
		Status:        "late",
	})
	require.NoError(t, err)

	_, err = f.svc.CorrectAttendance(ctx, second.ID, marked.Attendance.ID, "admin-1", dto.CorrectAttendanceRequest{Status: "absent"})
	requireAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)
}

func TestClassServiceRuleViolationsMapToCodes(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()

	group, err := f.svc.Create(ctx, dto.CreateClassRequest{
		Name: "Group", CourseID: "course-1", InstructorID: "instructor-1", Type: "group", TotalMeetings: 4, MaxStudents: intPointer(1),
	})
	require.NoError(t, err)
	savesBefore := f.store.saves
	f.publisher.reset()

	_, err = f.svc.EnrollStudent(ctx, group.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	requireAppError(t, err, appErrors.ErrEnrollmentClosed.Code, http.StatusPreconditionFailed)
	assert.Equal(t, savesBefore, f.store.saves)
	assert.Empty(t, f.publisher.types())

	_, err = f.svc.AddMeetings(ctx, group.ID, dto.AddMeetingsRequest{Count: 2})
	requireAppError(t, err, appErrors.ErrUnsupportedClassType.Code, http.StatusPreconditionFailed)

	_, err = f.svc.Activate(ctx, group.ID)
	requireAppError(t, err, appErrors.ErrInvalidStateTransition.Code, http.StatusConflict)

	_, err = f.svc.OpenEnrollment(ctx, group.ID)
	require.NoError(t, err)
	_, err = f.svc.EnrollStudent(ctx, group.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)
	_, err = f.svc.EnrollStudent(ctx, group.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	requireAppError(t, err, appErrors.ErrDuplicateEnrollment.Code, http.StatusConflict)
	_, err = f.svc.EnrollStudent(ctx, group.ID, dto.EnrollStudentRequest{StudentID: "student-2"})
	requireAppError(t, err, appErrors.ErrClassFull.Code, http.StatusConflict)
}

func TestClassServiceAdjustCredits(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 10)
	enrollment, err := f.svc.EnrollStudent(ctx, class.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)

	_, err = f.svc.AdjustCredits(ctx, class.ID, enrollment.ID, "admin-1", dto.AdjustCreditsRequest{Amount: 3, Type: "addition"})
	requireAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)

	result, err := f.svc.AdjustCredits(ctx, class.ID, enrollment.ID, "admin-1", dto.AdjustCreditsRequest{Amount: 3, Type: "addition", Reason: "make-up"})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Adjustment.PreviousTotal)
	assert.Equal(t, 13, result.Adjustment.NewTotal)
	assert.Equal(t, "admin-1", result.Adjustment.AdjustedBy)
	assert.Equal(t, 13, result.Enrollment.CreditsTotal)

	_, err = f.svc.AdjustCredits(ctx, class.ID, enrollment.ID, "admin-1", dto.AdjustCreditsRequest{Amount: -14, Type: "deduction", Reason: "oops"})
	requireAppError(t, err, appErrors.ErrCreditFloorViolation.Code, http.StatusPreconditionFailed)

	trail, err := f.svc.ListCreditAdjustments(ctx, class.ID, enrollment.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "make-up", trail[0].Reason)

	_, err = f.svc.ListCreditAdjustments(ctx, class.ID, "unknown")
	requireAppError(t, err, appErrors.ErrNotFound.Code, http.StatusNotFound)
}

func TestClassServiceUnlockLesson(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 1)

	_, err := f.svc.UnlockLesson(ctx, class.ID, "someone-else", dto.UnlockLessonRequest{LessonID: "lesson-1"})
	requireAppError(t, err, appErrors.ErrUnlockNotAuthorized.Code, http.StatusForbidden)

	unlock, err := f.svc.UnlockLesson(ctx, class.ID, "instructor-1", dto.UnlockLessonRequest{LessonID: "lesson-1"})
	require.NoError(t, err)
	assert.Equal(t, "lesson-1", unlock.LessonID)

	_, err = f.svc.UnlockLesson(ctx, class.ID, "instructor-1", dto.UnlockLessonRequest{LessonID: "lesson-1"})
	requireAppError(t, err, appErrors.ErrAlreadyUnlocked.Code, http.StatusConflict)

	_, err = f.svc.UnlockLesson(ctx, class.ID, "instructor-1", dto.UnlockLessonRequest{LessonID: "lesson-2"})
	requireAppError(t, err, appErrors.ErrUnlockLimitExceeded.Code, http.StatusPreconditionFailed)
}

func TestClassServiceVersionConflict(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 4)
	f.publisher.reset()

	f.store.saveErr = fmt.Errorf("class %s: %w", class.ID, classroom.ErrVersionConflict)
	_, err := f.svc.EnrollStudent(ctx, class.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	requireAppError(t, err, appErrors.ErrConcurrentModification.Code, http.StatusConflict)
	assert.Empty(t, f.publisher.types())
}

func TestClassServicePublishFailureKeepsWrite(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 4)
	f.publisher.err = errors.New("broker down")

	enrollment, err := f.svc.EnrollStudent(ctx, class.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)

	enrollments, err := f.svc.ListEnrollments(ctx, class.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, enrollment.ID, enrollments[0].ID)
}

func TestClassServiceWriteInvalidatesCache(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 4)

	_, hit, err := f.svc.Get(ctx, class.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	require.True(t, f.cache.has(classCacheKey(class.ID)))

	_, hit, err = f.svc.Get(ctx, class.ID)
	require.NoError(t, err)
	assert.True(t, hit)

	_, err = f.svc.AddMeetings(ctx, class.ID, dto.AddMeetingsRequest{Count: 2})
	require.NoError(t, err)
	assert.False(t, f.cache.has(classCacheKey(class.ID)))

	got, hit, err := f.svc.Get(ctx, class.ID)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 6, got.TotalMeetings)
}

func TestClassServiceLifecycle(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class, err := f.svc.Create(ctx, dto.CreateClassRequest{
		Name: "Group", CourseID: "course-1", InstructorID: "instructor-1", Type: "group", TotalMeetings: 4,
	})
	require.NoError(t, err)

	_, err = f.svc.OpenEnrollment(ctx, class.ID)
	require.NoError(t, err)
	_, err = f.svc.EnrollStudent(ctx, class.ID, dto.EnrollStudentRequest{StudentID: "student-1"})
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, class.ID)
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, class.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	require.NotNil(t, done.EndDate)
	require.Len(t, done.Enrollments, 1)
	assert.Equal(t, "completed", done.Enrollments[0].Status)

	_, err = f.svc.Cancel(ctx, class.ID)
	requireAppError(t, err, appErrors.ErrInvalidStateTransition.Code, http.StatusConflict)
}

func TestClassServiceUpdateDetails(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	class := f.createPrivate(t, 4)

	name := "Piano advanced"
	updated, err := f.svc.UpdateDetails(ctx, class.ID, dto.UpdateClassRequest{
		Name:        &name,
		MaxStudents: intPointer(5),
		Schedule:    []dto.ScheduleSlotPayload{{DayOfWeek: 3, StartTime: "15:00", EndTime: "16:00"}},
	})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	require.NotNil(t, updated.MaxStudents)
	assert.Equal(t, 1, *updated.MaxStudents)
	assert.Len(t, updated.Schedule, 1)
}

func TestClassServiceListFilters(t *testing.T) {
	f := newClassServiceFixture(t)
	ctx := context.Background()
	f.createPrivate(t, 4)

	items, pagination, err := f.svc.List(ctx, models.ClassFilter{InstructorID: "instructor-1"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, err = f.svc.List(ctx, models.ClassFilter{Status: "paused"})
	requireAppError(t, err, appErrors.ErrValidation.Code, http.StatusBadRequest)
}

func TestMapClassError(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{fmt.Errorf("load: %w", classroom.ErrNotFound), appErrors.ErrNotFound.Code, http.StatusNotFound},
		{fmt.Errorf("save: %w", classroom.ErrDuplicateAttendance), appErrors.ErrDuplicateAttendance.Code, http.StatusConflict},
		{fmt.Errorf("save: %w", classroom.ErrVersionConflict), appErrors.ErrConcurrentModification.Code, http.StatusConflict},
		{appErrors.ErrForbidden, appErrors.ErrForbidden.Code, http.StatusForbidden},
		{errors.New("boom"), appErrors.ErrInternal.Code, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got := mapClassError(tc.err, "fallback")
		assert.Equal(t, tc.code, got.Code, tc.err.Error())
		assert.Equal(t, tc.status, got.Status, tc.err.Error())
	}
}

func intPointer(v int) *int {
	return &v
}
