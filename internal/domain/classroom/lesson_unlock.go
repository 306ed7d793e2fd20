package classroom

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// LessonUnlock is an immutable record of a lesson released to a class.
type LessonUnlock struct {
	id            string
	classID       string
	lessonID      string
	unlockedBy    string
	unlockedAt    time.Time
	meetingNumber *int
	notes         string
}

// LessonUnlockSnapshot is the persisted form of a LessonUnlock.
type LessonUnlockSnapshot struct {
	ID            string
	ClassID       string
	LessonID      string
	UnlockedBy    string
	UnlockedAt    time.Time
	MeetingNumber *int
	Notes         string
}

func newLessonUnlock(classID, lessonID, unlockedBy string, meetingNumber *int, notes string, at time.Time) (*LessonUnlock, error) {
	if meetingNumber != nil && *meetingNumber < 1 {
		return nil, newError("NewLessonUnlock", ErrInvalidInput, "meeting number must be at least 1")
	}
	return &LessonUnlock{
		id:            uuid.NewString(),
		classID:       classID,
		lessonID:      lessonID,
		unlockedBy:    unlockedBy,
		unlockedAt:    at,
		meetingNumber: meetingNumber,
		notes:         strings.TrimSpace(notes),
	}, nil
}

// RestoreLessonUnlock rebuilds an unlock from storage.
func RestoreLessonUnlock(s LessonUnlockSnapshot) (*LessonUnlock, error) {
	if s.ID == "" || s.ClassID == "" || s.LessonID == "" {
		return nil, newError("RestoreLessonUnlock", ErrInvalidInput, "unlock id, class id and lesson id are required")
	}
	return &LessonUnlock{
		id:            s.ID,
		classID:       s.ClassID,
		lessonID:      s.LessonID,
		unlockedBy:    s.UnlockedBy,
		unlockedAt:    s.UnlockedAt,
		meetingNumber: s.MeetingNumber,
		notes:         s.Notes,
	}, nil
}

// Snapshot returns the persisted form.
func (u *LessonUnlock) Snapshot() LessonUnlockSnapshot {
	return LessonUnlockSnapshot{
		ID:            u.id,
		ClassID:       u.classID,
		LessonID:      u.lessonID,
		UnlockedBy:    u.unlockedBy,
		UnlockedAt:    u.unlockedAt,
		MeetingNumber: u.meetingNumber,
		Notes:         u.notes,
	}
}

func (u *LessonUnlock) ID() string            { return u.id }
func (u *LessonUnlock) ClassID() string       { return u.classID }
func (u *LessonUnlock) LessonID() string      { return u.lessonID }
func (u *LessonUnlock) UnlockedBy() string    { return u.unlockedBy }
func (u *LessonUnlock) UnlockedAt() time.Time { return u.unlockedAt }
func (u *LessonUnlock) MeetingNumber() *int   { return u.meetingNumber }
func (u *LessonUnlock) Notes() string         { return u.notes }
