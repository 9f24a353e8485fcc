package timeslot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReservation struct {
	id       string
	interval Interval
}

func (f fakeReservation) ReservationID() string         { return f.id }
func (f fakeReservation) ReservationInterval() Interval { return f.interval }

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, Clock(570), c)

	c, err = ParseClock("14:05:00")
	require.NoError(t, err)
	assert.Equal(t, "14:05", c.String())

	for _, raw := range []string{"", "9", "24:00", "10:60", "ab:cd", "10:00:99"} {
		_, err := ParseClock(raw)
		assert.Error(t, err, raw)
	}
}

func TestClockScanAndJSON(t *testing.T) {
	var c Clock
	require.NoError(t, c.Scan([]byte("08:15:00")))
	assert.Equal(t, MustClock("08:15"), c)

	require.NoError(t, c.Scan(time.Date(0, 1, 1, 17, 45, 0, 0, time.UTC)))
	assert.Equal(t, "17:45", c.String())

	raw, err := json.Marshal(MustClock("07:05"))
	require.NoError(t, err)
	assert.JSONEq(t, `"07:05"`, string(raw))

	var decoded Clock
	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &decoded))
}

func TestIntervalOverlapHalfOpen(t *testing.T) {
	existing := Weekly(1, MustClock("09:00"), MustClock("10:00"))

	assert.True(t, existing.Overlaps(Weekly(1, MustClock("09:30"), MustClock("10:30"))))
	assert.True(t, existing.Overlaps(Weekly(1, MustClock("08:00"), MustClock("11:00"))))
	assert.True(t, existing.Overlaps(Weekly(1, MustClock("09:15"), MustClock("09:45"))))

	assert.False(t, existing.Overlaps(Weekly(1, MustClock("10:00"), MustClock("11:00"))), "touching end boundary")
	assert.False(t, existing.Overlaps(Weekly(1, MustClock("08:00"), MustClock("09:00"))), "touching start boundary")
	assert.False(t, existing.Overlaps(Weekly(2, MustClock("09:30"), MustClock("10:30"))), "different weekday")
}

func TestIntervalZeroLengthNeverOverlaps(t *testing.T) {
	existing := Weekly(3, MustClock("09:00"), MustClock("10:00"))
	empty := Weekly(3, MustClock("09:30"), MustClock("09:30"))

	assert.False(t, existing.Overlaps(empty))
	assert.False(t, empty.Overlaps(existing))
	assert.ErrorIs(t, empty.Validate(), ErrEmptyInterval)
}

func TestIntervalDatedRequiresSameDate(t *testing.T) {
	monday, err := ParseDate("2026-10-19")
	require.NoError(t, err)
	nextMonday, err := ParseDate("2026-10-26")
	require.NoError(t, err)

	a := Dated(monday, MustClock("09:00"), MustClock("10:00"))
	b := Dated(nextMonday, MustClock("09:00"), MustClock("10:00"))
	assert.Equal(t, 1, a.DayOfWeek)
	assert.False(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(Dated(monday, MustClock("09:59"), MustClock("11:00"))))

	recurring := Weekly(1, MustClock("09:30"), MustClock("10:30"))
	assert.True(t, recurring.Overlaps(b), "recurring slots occupy every matching weekday")
}

func TestIntervalValidate(t *testing.T) {
	assert.ErrorIs(t, Weekly(0, 60, 120).Validate(), ErrInvalidDay)
	assert.ErrorIs(t, Weekly(8, 60, 120).Validate(), ErrInvalidDay)
	assert.ErrorIs(t, Weekly(1, 120, 60).Validate(), ErrEmptyInterval)
	assert.NoError(t, Weekly(7, 60, 120).Validate())

	sunday, err := ParseDate("2026-10-18")
	require.NoError(t, err)
	mismatched := Interval{DayOfWeek: 1, Date: &sunday, Start: 60, End: 120}
	assert.ErrorIs(t, mismatched.Validate(), ErrDayMismatch)
}

func TestDetectExcludesSelfAndReturnsRows(t *testing.T) {
	rows := []fakeReservation{
		{id: "a", interval: Weekly(1, MustClock("09:00"), MustClock("10:00"))},
		{id: "b", interval: Weekly(1, MustClock("10:00"), MustClock("11:00"))},
		{id: "c", interval: Weekly(1, MustClock("09:45"), MustClock("10:15"))},
	}
	candidate := Weekly(1, MustClock("09:30"), MustClock("10:05"))

	hits := Detect(rows, candidate, "")
	require.Len(t, hits, 3)

	hits = Detect(rows, candidate, "c")
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].id)
	assert.Equal(t, "b", hits[1].id)

	assert.Empty(t, Detect(rows, Weekly(1, MustClock("11:00"), MustClock("12:00")), ""))
}

func TestDescribe(t *testing.T) {
	rows := []fakeReservation{{id: "e1", interval: Weekly(2, MustClock("09:00"), MustClock("10:00"))}}
	conflicts := Describe(DimensionFaculty, KindTimetableEntry, rows)
	require.Len(t, conflicts, 1)
	assert.Equal(t, DimensionFaculty, conflicts[0].Dimension)
	assert.Equal(t, "e1", conflicts[0].WithID)

	raw, err := json.Marshal(conflicts[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"dimension":"faculty","kind":"timetable_entry","with_id":"e1","day_of_week":2,"start_time":"09:00","end_time":"10:00"}`, string(raw))

	assert.Nil(t, Describe[fakeReservation](DimensionFaculty, KindTimetableEntry, nil))
}
