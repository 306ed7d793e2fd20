package classroom

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var nowFunc = func() time.Time { return time.Now().UTC() }

// Class is the aggregate root owning enrollments and lesson unlocks.
// Every mutating method validates completely before changing state, so a
// failed call leaves the class untouched and raises no event.
type Class struct {
	id                   string
	name                 string
	courseID             string
	instructorID         string
	classType            ClassType
	status               ClassStatus
	totalMeetings        int
	meetingsCompleted    int
	maxStudents          *int
	schedule             []ScheduleSlot
	startDate            *time.Time
	endDate              *time.Time
	enrollmentDeadline   *time.Time
	continuedFromClassID *string
	notes                string
	version              int
	createdAt            time.Time
	updatedAt            time.Time

	enrollments []*Enrollment
	unlocks     []*LessonUnlock

	lowCreditThreshold int
	events             []Event
}

// NewClassParams holds the inputs for creating a class.
type NewClassParams struct {
	Name                 string
	CourseID             string
	InstructorID         string
	Type                 ClassType
	TotalMeetings        int
	MaxStudents          *int
	Schedule             []ScheduleSlot
	StartDate            *time.Time
	EndDate              *time.Time
	EnrollmentDeadline   *time.Time
	ContinuedFromClassID *string
	Notes                string
}

// ClassSnapshot is the persisted form of the class row.
type ClassSnapshot struct {
	ID                   string
	Name                 string
	CourseID             string
	InstructorID         string
	Type                 ClassType
	Status               ClassStatus
	TotalMeetings        int
	MeetingsCompleted    int
	MaxStudents          *int
	Schedule             []ScheduleSlot
	StartDate            *time.Time
	EndDate              *time.Time
	EnrollmentDeadline   *time.Time
	ContinuedFromClassID *string
	Notes                string
	Version              int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// MarkAttendanceParams holds the inputs for recording attendance.
type MarkAttendanceParams struct {
	EnrollmentID  string
	MeetingNumber int
	MeetingDate   time.Time
	Status        AttendanceStatus
	MarkedBy      string
	Notes         string
}

// UpdateDetailsParams is a partial update; nil fields are left unchanged.
type UpdateDetailsParams struct {
	Name               *string
	MaxStudents        *int
	Schedule           []ScheduleSlot
	StartDate          *time.Time
	EndDate            *time.Time
	EnrollmentDeadline *time.Time
	Notes              *string
}

// NewClass creates a draft class and raises ClassCreated.
func NewClass(p NewClassParams) (*Class, error) {
	const op = "NewClass"
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, newError(op, ErrInvalidInput, "name is required")
	}
	if strings.TrimSpace(p.CourseID) == "" {
		return nil, newError(op, ErrInvalidInput, "course id is required")
	}
	if strings.TrimSpace(p.InstructorID) == "" {
		return nil, newError(op, ErrInvalidInput, "instructor id is required")
	}
	if !p.Type.IsValid() {
		return nil, newError(op, ErrInvalidInput, fmt.Sprintf("unknown class type %q", p.Type))
	}
	if p.TotalMeetings < 0 {
		return nil, newError(op, ErrInvalidInput, "total meetings cannot be negative")
	}
	if err := validateSchedule(op, p.Schedule); err != nil {
		return nil, err
	}
	if err := validateDates(op, p.StartDate, p.EndDate); err != nil {
		return nil, err
	}

	maxStudents := p.MaxStudents
	if p.Type == ClassTypePrivate {
		maxStudents = intPtr(1)
	} else if maxStudents != nil {
		if *maxStudents < 1 {
			return nil, newError(op, ErrInvalidInput, "max students must be at least 1")
		}
		maxStudents = intPtr(*maxStudents)
	}

	now := nowFunc()
	c := &Class{
		id:                   uuid.NewString(),
		name:                 name,
		courseID:             strings.TrimSpace(p.CourseID),
		instructorID:         strings.TrimSpace(p.InstructorID),
		classType:            p.Type,
		status:               ClassStatusDraft,
		totalMeetings:        p.TotalMeetings,
		maxStudents:          maxStudents,
		schedule:             append([]ScheduleSlot(nil), p.Schedule...),
		startDate:            p.StartDate,
		endDate:              p.EndDate,
		enrollmentDeadline:   p.EnrollmentDeadline,
		continuedFromClassID: p.ContinuedFromClassID,
		notes:                strings.TrimSpace(p.Notes),
		createdAt:            now,
		updatedAt:            now,
	}
	c.raise(ClassCreatedEvent{
		BaseEvent:    newBaseEvent(EventClassCreated, c.id, now),
		Name:         c.name,
		CourseID:     c.courseID,
		InstructorID: c.instructorID,
		ClassType:    c.classType,
	})
	return c, nil
}

// RestoreClass rebuilds the aggregate from storage without raising events.
// Pass nil children when only the class row was loaded.
func RestoreClass(s ClassSnapshot, enrollments []*Enrollment, unlocks []*LessonUnlock) (*Class, error) {
	const op = "RestoreClass"
	if s.ID == "" {
		return nil, newError(op, ErrInvalidInput, "class id is required")
	}
	if !s.Type.IsValid() {
		return nil, newError(op, ErrInvalidInput, fmt.Sprintf("unknown class type %q", s.Type))
	}
	if !s.Status.IsValid() {
		return nil, newError(op, ErrInvalidInput, fmt.Sprintf("unknown class status %q", s.Status))
	}
	maxStudents := s.MaxStudents
	if s.Type == ClassTypePrivate {
		maxStudents = intPtr(1)
	}
	for _, e := range enrollments {
		if e.ClassID() != s.ID {
			return nil, newError(op, ErrInvalidInput, fmt.Sprintf("enrollment %s belongs to class %s", e.ID(), e.ClassID()))
		}
	}
	for _, u := range unlocks {
		if u.ClassID() != s.ID {
			return nil, newError(op, ErrInvalidInput, fmt.Sprintf("lesson unlock %s belongs to class %s", u.ID(), u.ClassID()))
		}
	}
	return &Class{
		id:                   s.ID,
		name:                 s.Name,
		courseID:             s.CourseID,
		instructorID:         s.InstructorID,
		classType:            s.Type,
		status:               s.Status,
		totalMeetings:        s.TotalMeetings,
		meetingsCompleted:    s.MeetingsCompleted,
		maxStudents:          maxStudents,
		schedule:             append([]ScheduleSlot(nil), s.Schedule...),
		startDate:            s.StartDate,
		endDate:              s.EndDate,
		enrollmentDeadline:   s.EnrollmentDeadline,
		continuedFromClassID: s.ContinuedFromClassID,
		notes:                s.Notes,
		version:              s.Version,
		createdAt:            s.CreatedAt,
		updatedAt:            s.UpdatedAt,
		enrollments:          append([]*Enrollment(nil), enrollments...),
		unlocks:              append([]*LessonUnlock(nil), unlocks...),
	}, nil
}

// Snapshot returns the persisted form of the class row.
func (c *Class) Snapshot() ClassSnapshot {
	return ClassSnapshot{
		ID:                   c.id,
		Name:                 c.name,
		CourseID:             c.courseID,
		InstructorID:         c.instructorID,
		Type:                 c.classType,
		Status:               c.status,
		TotalMeetings:        c.totalMeetings,
		MeetingsCompleted:    c.meetingsCompleted,
		MaxStudents:          c.maxStudents,
		Schedule:             append([]ScheduleSlot(nil), c.schedule...),
		StartDate:            c.startDate,
		EndDate:              c.endDate,
		EnrollmentDeadline:   c.enrollmentDeadline,
		ContinuedFromClassID: c.continuedFromClassID,
		Notes:                c.notes,
		Version:              c.version,
		CreatedAt:            c.createdAt,
		UpdatedAt:            c.updatedAt,
	}
}

// EnrollStudent gives the student a seat with credits equal to totalMeetings.
func (c *Class) EnrollStudent(studentID, notes string) (*Enrollment, error) {
	const op = "EnrollStudent"
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return nil, newError(op, ErrInvalidInput, "student id is required")
	}

	now := nowFunc()
	switch c.classType {
	case ClassTypeGroup:
		if c.status != ClassStatusEnrollmentOpen {
			return nil, newError(op, ErrEnrollmentClosed, fmt.Sprintf("group class is %s", c.status))
		}
		if c.enrollmentDeadline != nil && now.After(*c.enrollmentDeadline) {
			return nil, newError(op, ErrEnrollmentClosed, "enrollment deadline has passed")
		}
	case ClassTypePrivate:
		if c.status.IsTerminal() {
			return nil, newError(op, ErrEnrollmentClosed, fmt.Sprintf("private class is %s", c.status))
		}
	}

	if c.ActiveEnrollmentFor(studentID) != nil {
		return nil, newError(op, ErrDuplicateEnrollment, fmt.Sprintf("student %s already enrolled", studentID))
	}
	if c.maxStudents != nil && c.ActiveEnrollmentCount() >= *c.maxStudents {
		return nil, newError(op, ErrClassFull, fmt.Sprintf("class holds at most %d students", *c.maxStudents))
	}

	enrollment, err := newEnrollment(c.id, studentID, c.totalMeetings, notes, now)
	if err != nil {
		return nil, err
	}
	c.enrollments = append(c.enrollments, enrollment)
	c.touch(now)
	c.raise(StudentEnrolledEvent{
		BaseEvent:    newBaseEvent(EventStudentEnrolled, c.id, now),
		StudentID:    studentID,
		EnrollmentID: enrollment.ID(),
		TotalCredits: enrollment.Credits().Total(),
	})
	return enrollment, nil
}

// RemoveStudent withdraws the student's active enrollment.
func (c *Class) RemoveStudent(studentID, reason string) error {
	enrollment := c.ActiveEnrollmentFor(strings.TrimSpace(studentID))
	if enrollment == nil {
		return newError("RemoveStudent", ErrNotFound, fmt.Sprintf("no active enrollment for student %s", studentID))
	}
	now := nowFunc()
	if err := enrollment.withdraw(now); err != nil {
		return err
	}
	c.touch(now)
	c.raise(StudentRemovedEvent{
		BaseEvent:    newBaseEvent(EventStudentRemoved, c.id, now),
		StudentID:    enrollment.StudentID(),
		EnrollmentID: enrollment.ID(),
		Reason:       strings.TrimSpace(reason),
	})
	return nil
}

// MarkAttendance records a meeting and consumes a credit for present or late.
func (c *Class) MarkAttendance(p MarkAttendanceParams) (*Attendance, error) {
	const op = "MarkAttendance"
	enrollment := c.FindEnrollment(p.EnrollmentID)
	if enrollment == nil {
		return nil, newError(op, ErrNotFound, fmt.Sprintf("enrollment %s not found", p.EnrollmentID))
	}
	if !enrollment.IsActive() {
		return nil, newError(op, ErrEnrollmentNotActive, fmt.Sprintf("enrollment %s is %s", enrollment.ID(), enrollment.Status()))
	}

	now := nowFunc()
	attendance, err := newAttendance(c.id, enrollment.ID(), p.MeetingNumber, p.MeetingDate, p.Status, p.MarkedBy, p.Notes, now)
	if err != nil {
		return nil, err
	}
	if attendance.CreditConsumed() {
		if err := enrollment.useCredit(); err != nil {
			return nil, err
		}
	}
	if p.MeetingNumber > c.meetingsCompleted {
		c.meetingsCompleted = p.MeetingNumber
	}
	c.touch(now)
	c.raise(AttendanceMarkedEvent{
		BaseEvent:      newBaseEvent(EventAttendanceMarked, c.id, now),
		EnrollmentID:   enrollment.ID(),
		StudentID:      enrollment.StudentID(),
		AttendanceID:   attendance.ID(),
		MeetingNumber:  attendance.MeetingNumber(),
		Status:         attendance.Status(),
		CreditConsumed: attendance.CreditConsumed(),
	})
	if attendance.CreditConsumed() {
		c.raiseIfCreditsLow(enrollment, now)
	}
	return attendance, nil
}

// CorrectAttendance changes a recorded status and applies the resulting credit
// delta to the owning enrollment. It returns the delta that was applied.
func (c *Class) CorrectAttendance(attendance *Attendance, newStatus AttendanceStatus, editedBy, notes string) (int, error) {
	const op = "CorrectAttendance"
	if attendance == nil || attendance.ClassID() != c.id {
		return 0, newError(op, ErrNotFound, "attendance not found in class")
	}
	enrollment := c.FindEnrollment(attendance.EnrollmentID())
	if enrollment == nil {
		return 0, newError(op, ErrNotFound, fmt.Sprintf("enrollment %s not found", attendance.EnrollmentID()))
	}

	delta, err := attendance.CreditDeltaFor(newStatus)
	if err != nil {
		return 0, err
	}
	if _, err := enrollment.creditsAfter(delta); err != nil {
		return 0, err
	}

	previous := attendance.Status()
	if _, err := attendance.UpdateStatus(newStatus, editedBy, notes); err != nil {
		return 0, err
	}
	if err := enrollment.applyCreditDelta(delta); err != nil {
		return 0, err
	}

	now := nowFunc()
	c.touch(now)
	c.raise(AttendanceCorrectedEvent{
		BaseEvent:      newBaseEvent(EventAttendanceCorrected, c.id, now),
		AttendanceID:   attendance.ID(),
		EnrollmentID:   enrollment.ID(),
		PreviousStatus: previous,
		Status:         newStatus,
		CreditDelta:    delta,
		EditedBy:       strings.TrimSpace(editedBy),
	})
	if delta < 0 {
		c.raiseIfCreditsLow(enrollment, now)
	}
	return delta, nil
}

// AdjustCredits applies a signed change to an enrollment's total credits and
// returns the audit record.
func (c *Class) AdjustCredits(enrollmentID string, amount int, adjustmentType AdjustmentType, reason, adjustedBy string) (*CreditAdjustment, error) {
	enrollment := c.FindEnrollment(enrollmentID)
	if enrollment == nil {
		return nil, newError("AdjustCredits", ErrNotFound, fmt.Sprintf("enrollment %s not found", enrollmentID))
	}

	adjustment, err := NewCreditAdjustment(NewCreditAdjustmentParams{
		EnrollmentID:  enrollment.ID(),
		Amount:        amount,
		Type:          adjustmentType,
		Reason:        reason,
		AdjustedBy:    adjustedBy,
		PreviousTotal: enrollment.Credits().Total(),
	})
	if err != nil {
		return nil, err
	}
	if err := enrollment.adjustCredits(amount); err != nil {
		return nil, err
	}

	now := nowFunc()
	c.touch(now)
	c.raise(CreditAdjustedEvent{
		BaseEvent:      newBaseEvent(EventCreditAdjusted, c.id, now),
		EnrollmentID:   enrollment.ID(),
		StudentID:      enrollment.StudentID(),
		AdjustmentID:   adjustment.ID(),
		Amount:         adjustment.Amount(),
		AdjustmentType: adjustment.Type(),
		Reason:         adjustment.Reason(),
		PreviousTotal:  adjustment.PreviousTotal(),
		NewTotal:       adjustment.NewTotal(),
	})
	return adjustment, nil
}

// UnlockLesson releases a lesson. Only the instructor may unlock, each lesson
// once, and never more lessons than meetings.
func (c *Class) UnlockLesson(lessonID, unlockedBy string, meetingNumber *int, notes string) (*LessonUnlock, error) {
	const op = "UnlockLesson"
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return nil, newError(op, ErrInvalidInput, "lesson id is required")
	}
	if strings.TrimSpace(unlockedBy) != c.instructorID {
		return nil, newError(op, ErrUnlockNotAuthorized, fmt.Sprintf("user %s is not the class instructor", unlockedBy))
	}
	if c.IsLessonUnlocked(lessonID) {
		return nil, newError(op, ErrAlreadyUnlocked, fmt.Sprintf("lesson %s already unlocked", lessonID))
	}
	if len(c.unlocks) >= c.totalMeetings {
		return nil, newError(op, ErrUnlockLimitExceeded, fmt.Sprintf("all %d lessons already unlocked", c.totalMeetings))
	}

	now := nowFunc()
	unlock, err := newLessonUnlock(c.id, lessonID, c.instructorID, meetingNumber, notes, now)
	if err != nil {
		return nil, err
	}
	c.unlocks = append(c.unlocks, unlock)
	c.touch(now)
	c.raise(LessonUnlockedEvent{
		BaseEvent:   newBaseEvent(EventLessonUnlocked, c.id, now),
		LessonID:    lessonID,
		UnlockedBy:  c.instructorID,
		UnlockCount: len(c.unlocks),
	})
	return unlock, nil
}

// AddMeetings extends a private class and grants the credits to every active enrollment.
func (c *Class) AddMeetings(count int) error {
	const op = "AddMeetings"
	if c.classType != ClassTypePrivate {
		return newError(op, ErrUnsupportedClassType, "meetings can only be added to private classes")
	}
	if count <= 0 {
		return newError(op, ErrInvalidInput, "count must be positive")
	}

	active := c.ActiveEnrollments()
	for _, e := range active {
		if err := e.addCredits(count); err != nil {
			return err
		}
	}
	c.totalMeetings += count

	now := nowFunc()
	c.touch(now)
	c.raise(MeetingsAddedEvent{
		BaseEvent:           newBaseEvent(EventMeetingsAdded, c.id, now),
		Count:               count,
		TotalMeetings:       c.totalMeetings,
		AffectedEnrollments: len(active),
	})
	return nil
}

// OpenEnrollment moves a draft class to enrollment_open.
func (c *Class) OpenEnrollment() error {
	now, err := c.transition("OpenEnrollment", ClassStatusEnrollmentOpen)
	if err != nil {
		return err
	}
	c.raise(EnrollmentOpenedEvent{BaseEvent: newBaseEvent(EventEnrollmentOpened, c.id, now), Name: c.name})
	return nil
}

// Activate moves a class from enrollment_open to active.
func (c *Class) Activate() error {
	now, err := c.transition("Activate", ClassStatusActive)
	if err != nil {
		return err
	}
	c.raise(ClassActivatedEvent{BaseEvent: newBaseEvent(EventClassActivated, c.id, now), Name: c.name})
	return nil
}

// Complete closes an active class, stamps the end date and completes every active enrollment.
func (c *Class) Complete() error {
	now, err := c.transition("Complete", ClassStatusCompleted)
	if err != nil {
		return err
	}
	c.endDate = &now
	for _, e := range c.ActiveEnrollments() {
		if err := e.complete(now); err != nil {
			return err
		}
	}
	c.raise(ClassCompletedEvent{BaseEvent: newBaseEvent(EventClassCompleted, c.id, now), Name: c.name})
	return nil
}

// Cancel stops a class from any non-terminal status. Enrollments keep their state.
func (c *Class) Cancel() error {
	previous := c.status
	now, err := c.transition("Cancel", ClassStatusCancelled)
	if err != nil {
		return err
	}
	c.raise(ClassCancelledEvent{
		BaseEvent:      newBaseEvent(EventClassCancelled, c.id, now),
		Name:           c.name,
		PreviousStatus: previous,
	})
	return nil
}

// UpdateDetails applies a partial update. MaxStudents is ignored for private classes.
func (c *Class) UpdateDetails(p UpdateDetailsParams) error {
	const op = "UpdateDetails"
	name := c.name
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
		if name == "" {
			return newError(op, ErrInvalidInput, "name cannot be empty")
		}
	}

	maxStudents := c.maxStudents
	if p.MaxStudents != nil && c.classType == ClassTypeGroup {
		if *p.MaxStudents < 1 {
			return newError(op, ErrInvalidInput, "max students must be at least 1")
		}
		if active := c.ActiveEnrollmentCount(); *p.MaxStudents < active {
			return newError(op, ErrInvalidInput,
				fmt.Sprintf("max students %d is below the %d active enrollments", *p.MaxStudents, active))
		}
		maxStudents = intPtr(*p.MaxStudents)
	}

	schedule := c.schedule
	if p.Schedule != nil {
		if err := validateSchedule(op, p.Schedule); err != nil {
			return err
		}
		schedule = append([]ScheduleSlot(nil), p.Schedule...)
	}

	startDate, endDate := c.startDate, c.endDate
	if p.StartDate != nil {
		startDate = p.StartDate
	}
	if p.EndDate != nil {
		endDate = p.EndDate
	}
	if err := validateDates(op, startDate, endDate); err != nil {
		return err
	}

	c.name = name
	c.maxStudents = maxStudents
	c.schedule = schedule
	c.startDate = startDate
	c.endDate = endDate
	if p.EnrollmentDeadline != nil {
		c.enrollmentDeadline = p.EnrollmentDeadline
	}
	if p.Notes != nil {
		c.notes = strings.TrimSpace(*p.Notes)
	}
	c.touch(nowFunc())
	return nil
}

// PullEvents returns buffered events in the order they were raised and clears the buffer.
func (c *Class) PullEvents() []Event {
	events := c.events
	c.events = nil
	return events
}

func (c *Class) ID() string                     { return c.id }
func (c *Class) Name() string                   { return c.name }
func (c *Class) CourseID() string               { return c.courseID }
func (c *Class) InstructorID() string           { return c.instructorID }
func (c *Class) Type() ClassType                { return c.classType }
func (c *Class) Status() ClassStatus            { return c.status }
func (c *Class) TotalMeetings() int             { return c.totalMeetings }
func (c *Class) MeetingsCompleted() int         { return c.meetingsCompleted }
func (c *Class) StartDate() *time.Time          { return c.startDate }
func (c *Class) EndDate() *time.Time            { return c.endDate }
func (c *Class) EnrollmentDeadline() *time.Time { return c.enrollmentDeadline }
func (c *Class) ContinuedFromClassID() *string  { return c.continuedFromClassID }
func (c *Class) Notes() string                  { return c.notes }
func (c *Class) Version() int                   { return c.version }
func (c *Class) CreatedAt() time.Time           { return c.createdAt }
func (c *Class) UpdatedAt() time.Time           { return c.updatedAt }

// MaxStudents returns the seat cap, or nil when uncapped.
func (c *Class) MaxStudents() *int {
	if c.maxStudents == nil {
		return nil
	}
	return intPtr(*c.maxStudents)
}

// Schedule returns a copy of the weekly slots.
func (c *Class) Schedule() []ScheduleSlot {
	return append([]ScheduleSlot(nil), c.schedule...)
}

// SetLowCreditThreshold changes the remaining-credit level that raises CreditsLow.
// Non-positive values restore DefaultLowCreditThreshold.
func (c *Class) SetLowCreditThreshold(threshold int) {
	c.lowCreditThreshold = threshold
}

// SetVersion records the persisted version after a successful save.
func (c *Class) SetVersion(version int) {
	c.version = version
}

// Enrollments returns every enrollment regardless of status.
func (c *Class) Enrollments() []*Enrollment {
	return append([]*Enrollment(nil), c.enrollments...)
}

// ActiveEnrollments returns enrollments currently holding a seat.
func (c *Class) ActiveEnrollments() []*Enrollment {
	var active []*Enrollment
	for _, e := range c.enrollments {
		if e.IsActive() {
			active = append(active, e)
		}
	}
	return active
}

// ActiveEnrollmentCount returns the number of occupied seats.
func (c *Class) ActiveEnrollmentCount() int {
	count := 0
	for _, e := range c.enrollments {
		if e.IsActive() {
			count++
		}
	}
	return count
}

// FindEnrollment looks an enrollment up by id.
func (c *Class) FindEnrollment(enrollmentID string) *Enrollment {
	for _, e := range c.enrollments {
		if e.id == enrollmentID {
			return e
		}
	}
	return nil
}

// ActiveEnrollmentFor returns the student's active enrollment, if any.
func (c *Class) ActiveEnrollmentFor(studentID string) *Enrollment {
	for _, e := range c.enrollments {
		if e.studentID == studentID && e.IsActive() {
			return e
		}
	}
	return nil
}

// LessonUnlocks returns the unlocks in the order they were made.
func (c *Class) LessonUnlocks() []*LessonUnlock {
	return append([]*LessonUnlock(nil), c.unlocks...)
}

// UnlockCount returns how many lessons have been released.
func (c *Class) UnlockCount() int {
	return len(c.unlocks)
}

// IsLessonUnlocked reports whether lessonID was already released.
func (c *Class) IsLessonUnlocked(lessonID string) bool {
	for _, u := range c.unlocks {
		if u.lessonID == lessonID {
			return true
		}
	}
	return false
}

func (c *Class) transition(op string, next ClassStatus) (time.Time, error) {
	if !c.status.CanTransitionTo(next) {
		return time.Time{}, newError(op, ErrStateTransition, fmt.Sprintf("cannot move class from %s to %s", c.status, next))
	}
	now := nowFunc()
	c.status = next
	c.touch(now)
	return now, nil
}

func (c *Class) raiseIfCreditsLow(e *Enrollment, at time.Time) {
	if !e.IsCreditsLow(c.lowCreditThreshold) {
		return
	}
	c.raise(CreditsLowEvent{
		BaseEvent:    newBaseEvent(EventCreditsLow, c.id, at),
		EnrollmentID: e.ID(),
		StudentID:    e.StudentID(),
		Remaining:    e.Credits().Remaining(),
	})
}

func (c *Class) raise(event Event) {
	c.events = append(c.events, event)
}

func (c *Class) touch(at time.Time) {
	c.updatedAt = at
}

func validateSchedule(op string, slots []ScheduleSlot) error {
	for i, slot := range slots {
		if err := slot.Validate(); err != nil {
			return newError(op, ErrInvalidInput, fmt.Sprintf("schedule slot %d: %v", i, err))
		}
	}
	return nil
}

func validateDates(op string, start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return newError(op, ErrInvalidInput, "end date cannot be before start date")
	}
	return nil
}

func intPtr(v int) *int {
	return &v
}
