package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDirection(t *testing.T) {
	day := func(hour int) time.Time {
		return time.Date(2025, 6, 10, hour, 30, 0, 0, time.UTC)
	}

	cases := []struct {
		hour        int
		direction   string
		sessionDate string
	}{
		{5, "in", "2025-06-10"},
		{10, "in", "2025-06-10"},
		{15, "in", "2025-06-10"},
		{16, "out", "2025-06-10"},
		{23, "out", "2025-06-10"},
		{0, "out", "2025-06-09"},
		{4, "out", "2025-06-09"},
	}
	for _, tc := range cases {
		direction, sessionDate := ClassifyDirection(day(tc.hour), DefaultEntryStartHour, DefaultEntryEndHour)
		assert.Equal(t, tc.direction, direction, "hour %d", tc.hour)
		assert.Equal(t, tc.sessionDate, sessionDate, "hour %d", tc.hour)
	}
}

func TestSessionTracker_CountsUniqueTags(t *testing.T) {
	s := NewSessionTracker(time.UTC, 5, 16)
	s.now = func() time.Time {
		return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, "in", s.Record("A"))
	assert.Equal(t, "in", s.Record("B"))
	assert.Equal(t, "in", s.Record("A"), "repeat passings do not inflate the count")

	assert.Equal(t, 2, s.UniqueEntries())
	assert.Equal(t, 0, s.UniqueExits())
}

func TestSessionTracker_DirectionsAreIndependent(t *testing.T) {
	s := NewSessionTracker(time.UTC, 5, 16)

	s.now = func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) }
	s.Record("A")

	s.now = func() time.Time { return time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC) }
	s.Record("A")
	s.Record("B")

	assert.Equal(t, 1, s.UniqueEntries())
	assert.Equal(t, 2, s.UniqueExits())
}

func TestSessionTracker_RollsOverAtSessionBoundary(t *testing.T) {
	s := NewSessionTracker(time.UTC, 5, 16)

	s.now = func() time.Time { return time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC) }
	s.Record("A")
	s.Record("B")
	assert.Equal(t, 2, s.UniqueEntries())

	// Next morning the set resets before the new tag lands.
	s.now = func() time.Time { return time.Date(2025, 6, 11, 7, 0, 0, 0, time.UTC) }
	s.Record("C")
	assert.Equal(t, 1, s.UniqueEntries())
}

func TestSessionTracker_NightExitsShareSession(t *testing.T) {
	s := NewSessionTracker(time.UTC, 5, 16)

	// Evening exits and the following small-hours exits belong together.
	s.now = func() time.Time { return time.Date(2025, 6, 10, 22, 0, 0, 0, time.UTC) }
	s.Record("A")

	s.now = func() time.Time { return time.Date(2025, 6, 11, 2, 0, 0, 0, time.UTC) }
	s.Record("B")

	assert.Equal(t, 2, s.UniqueExits())
}
