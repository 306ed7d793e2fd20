package classroom

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassStatusTransitions(t *testing.T) {
	cases := []struct {
		from ClassStatus
		to   ClassStatus
		ok   bool
	}{
		{ClassStatusDraft, ClassStatusEnrollmentOpen, true},
		{ClassStatusDraft, ClassStatusActive, false},
		{ClassStatusDraft, ClassStatusCancelled, true},
		{ClassStatusEnrollmentOpen, ClassStatusActive, true},
		{ClassStatusEnrollmentOpen, ClassStatusCompleted, false},
		{ClassStatusActive, ClassStatusCompleted, true},
		{ClassStatusActive, ClassStatusCancelled, true},
		{ClassStatusActive, ClassStatusDraft, false},
		{ClassStatusCompleted, ClassStatusCancelled, false},
		{ClassStatusCancelled, ClassStatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
	assert.True(t, ClassStatusCompleted.IsTerminal())
	assert.True(t, ClassStatusCancelled.IsTerminal())
	assert.False(t, ClassStatusActive.IsTerminal())
}

func TestParseEnums(t *testing.T) {
	ct, err := ParseClassType(" Private ")
	require.NoError(t, err)
	assert.Equal(t, ClassTypePrivate, ct)

	_, err = ParseClassType("workshop")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	st, err := ParseAttendanceStatus("LATE")
	require.NoError(t, err)
	assert.True(t, st.ConsumesCredit())
	assert.False(t, AttendanceStatusAbsent.ConsumesCredit())

	_, err = ParseAdjustmentType("bonus")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = ParseClassStatus("archived")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestMeetingCreditOperations(t *testing.T) {
	_, err := NewMeetingCredit(2, 3)
	assert.True(t, errors.Is(err, ErrCreditFloorViolation))
	_, err = NewMeetingCredit(-1, 0)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	credit, err := NewMeetingCredit(2, 0)
	require.NoError(t, err)

	used, err := credit.Use()
	require.NoError(t, err)
	assert.Equal(t, 1, used.Used())
	assert.Equal(t, 0, credit.Used(), "original value must not change")

	used, err = used.Use()
	require.NoError(t, err)
	_, err = used.Use()
	assert.True(t, errors.Is(err, ErrInsufficientCredits))

	refunded, err := used.Refund()
	require.NoError(t, err)
	assert.Equal(t, 1, refunded.Remaining())

	_, err = credit.Refund()
	assert.True(t, errors.Is(err, ErrInvalidInput))

	added, err := credit.Add(3)
	require.NoError(t, err)
	assert.Equal(t, 5, added.Total())
	_, err = credit.Add(-1)
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = used.Adjust(-1)
	assert.True(t, errors.Is(err, ErrCreditFloorViolation))
	adjusted, err := used.Adjust(4)
	require.NoError(t, err)
	assert.Equal(t, 6, adjusted.Total())
	assert.Equal(t, "2/6", adjusted.String())
}

func TestMeetingCreditIsLow(t *testing.T) {
	cases := []struct {
		total, used int
		low         bool
	}{
		{10, 7, true},
		{10, 9, true},
		{10, 10, false},
		{10, 6, false},
		{0, 0, false},
	}
	for _, tc := range cases {
		credit, err := NewMeetingCredit(tc.total, tc.used)
		require.NoError(t, err)
		assert.Equal(t, tc.low, credit.IsLow(DefaultLowCreditThreshold), "%d/%d", tc.used, tc.total)
	}
}

func TestScheduleSlot(t *testing.T) {
	slot, err := NewScheduleSlot(time.Monday, "09:00", "10:30")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, slot.Duration())

	_, err = NewScheduleSlot(time.Monday, "10:30", "09:00")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewScheduleSlot(time.Weekday(9), "09:00", "10:00")
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = NewScheduleSlot(time.Friday, "9am", "10:00")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestErrorKindOf(t *testing.T) {
	err := newError("EnrollStudent", ErrClassFull, "class holds at most 2 students")
	assert.Equal(t, "classroom.EnrollStudent: class holds at most 2 students", err.Error())
	assert.Equal(t, ErrClassFull, KindOf(err))
	assert.Nil(t, KindOf(errors.New("plain")))
}
