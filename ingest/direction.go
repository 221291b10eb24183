package ingest

import (
	"sync"
	"time"
)

// Defaults for the barn gate schedule. Cattle head out to pasture through
// the gate between 05:00 and 16:00 local time.
const (
	DefaultGateTimezone   = "Asia/Kolkata"
	DefaultEntryStartHour = 5
	DefaultEntryEndHour   = 16
)

// ClassifyDirection maps a gate passing time to a movement direction and
// the grazing session day it belongs to. Hours in [entryStart, entryEnd)
// are entries; everything else is an exit, and exits before entryStart
// belong to the previous day's session.
func ClassifyDirection(t time.Time, entryStart, entryEnd int) (direction string, sessionDate string) {
	hour := t.Hour()
	day := t.Format("2006-01-02")
	if hour >= entryStart && hour < entryEnd {
		return "in", day
	}
	if hour >= entryEnd {
		return "out", day
	}
	return "out", t.AddDate(0, 0, -1).Format("2006-01-02")
}

// SessionTracker counts unique animals per direction within a grazing
// session. When a passing lands in a new session date for its direction,
// that direction's set is reset before the tag is added, so counts roll
// over at the session boundary without a timer.
type SessionTracker struct {
	mu         sync.Mutex
	loc        *time.Location
	now        func() time.Time
	entryStart int
	entryEnd   int

	inTags  map[string]struct{}
	outTags map[string]struct{}
	inDate  string
	outDate string
}

// NewSessionTracker creates a tracker for the given barn-local timezone
// and entry window. A nil location falls back to DefaultGateTimezone (UTC
// if that fails to load); a degenerate window falls back to the defaults.
func NewSessionTracker(loc *time.Location, entryStart, entryEnd int) *SessionTracker {
	if loc == nil {
		var err error
		loc, err = time.LoadLocation(DefaultGateTimezone)
		if err != nil {
			loc = time.UTC
		}
	}
	if entryEnd <= entryStart {
		entryStart = DefaultEntryStartHour
		entryEnd = DefaultEntryEndHour
	}
	return &SessionTracker{
		loc:        loc,
		now:        time.Now,
		entryStart: entryStart,
		entryEnd:   entryEnd,
		inTags:     make(map[string]struct{}),
		outTags:    make(map[string]struct{}),
	}
}

// Record classifies the passing happening now and adds the tag to the
// session's unique set for that direction. It returns the direction.
func (s *SessionTracker) Record(rfidTag string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	direction, sessionDate := ClassifyDirection(s.now().In(s.loc), s.entryStart, s.entryEnd)
	switch direction {
	case "in":
		if s.inDate != sessionDate {
			s.inTags = make(map[string]struct{})
			s.inDate = sessionDate
		}
		s.inTags[rfidTag] = struct{}{}
	case "out":
		if s.outDate != sessionDate {
			s.outTags = make(map[string]struct{})
			s.outDate = sessionDate
		}
		s.outTags[rfidTag] = struct{}{}
	}
	return direction
}

// UniqueEntries returns the number of distinct animals that entered during
// the current session.
func (s *SessionTracker) UniqueEntries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inTags)
}

// UniqueExits returns the number of distinct animals that exited during
// the current session.
func (s *SessionTracker) UniqueExits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outTags)
}
