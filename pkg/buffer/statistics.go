package buffer

import (
	"sync/atomic"
	"time"
)

// Statistics counts buffer activity. The telemetry rings overwrite old
// readings continuously, so the drop and overflow counters are the main
// signal for how far a window has churned. All methods are safe for
// concurrent use.
type Statistics struct {
	writes    atomic.Int64
	reads     atomic.Int64
	peeks     atomic.Int64
	overflows atomic.Int64
	drops     atomic.Int64

	currentSize atomic.Int64
	maxSize     atomic.Int64

	// Unix nanoseconds, atomic so Reset does not race readers.
	startNanos atomic.Int64
}

// NewStatistics creates a tracker with the uptime clock started now.
func NewStatistics() *Statistics {
	s := &Statistics{}
	s.startNanos.Store(time.Now().UnixNano())
	return s
}

// Write records a buffer write.
func (s *Statistics) Write() { s.writes.Add(1) }

// Read records a destructive read.
func (s *Statistics) Read() { s.reads.Add(1) }

// Peek records a non-destructive read.
func (s *Statistics) Peek() { s.peeks.Add(1) }

// Overflow records a write that found the buffer full.
func (s *Statistics) Overflow() { s.overflows.Add(1) }

// Drop records an item discarded by the overflow policy.
func (s *Statistics) Drop() { s.drops.Add(1) }

// UpdateSize records the current item count and tracks the high-water
// mark.
func (s *Statistics) UpdateSize(size int64) {
	s.currentSize.Store(size)
	for {
		max := s.maxSize.Load()
		if size <= max || s.maxSize.CompareAndSwap(max, size) {
			return
		}
	}
}

// Writes returns the total write count.
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Reads returns the total destructive read count.
func (s *Statistics) Reads() int64 { return s.reads.Load() }

// Peeks returns the total non-destructive read count.
func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// Overflows returns how many writes found the buffer full.
func (s *Statistics) Overflows() int64 { return s.overflows.Load() }

// Drops returns how many items the overflow policy discarded.
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// CurrentSize returns the item count as of the last size update.
func (s *Statistics) CurrentSize() int64 { return s.currentSize.Load() }

// MaxSize returns the most items the buffer has ever held.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }

// Throughput returns average writes per second since the tracker
// started.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Writes()) / elapsed.Seconds()
}

// DropRate returns the fraction of writes that ended in a drop, 0 to 1.
func (s *Statistics) DropRate() float64 {
	writes := s.Writes()
	if writes == 0 {
		return 0
	}
	return float64(s.Drops()) / float64(writes)
}

// Utilization returns the filled fraction of the given capacity, 0 to 1.
func (s *Statistics) Utilization(capacity int64) float64 {
	if capacity == 0 {
		return 0
	}
	return float64(s.CurrentSize()) / float64(capacity)
}

// Uptime returns how long the tracker has been running.
func (s *Statistics) Uptime() time.Duration {
	return time.Duration(time.Now().UnixNano() - s.startNanos.Load())
}

// Reset zeroes every counter and restarts the uptime clock.
func (s *Statistics) Reset() {
	s.writes.Store(0)
	s.reads.Store(0)
	s.peeks.Store(0)
	s.overflows.Store(0)
	s.drops.Store(0)
	s.currentSize.Store(0)
	s.maxSize.Store(0)
	s.startNanos.Store(time.Now().UnixNano())
}

// StatsSummary is a point-in-time snapshot of the counters, shaped for
// JSON status endpoints.
type StatsSummary struct {
	Writes      int64         `json:"writes"`
	Reads       int64         `json:"reads"`
	Peeks       int64         `json:"peeks"`
	Overflows   int64         `json:"overflows"`
	Drops       int64         `json:"drops"`
	CurrentSize int64         `json:"current_size"`
	MaxSize     int64         `json:"max_size"`
	Throughput  float64       `json:"throughput"`
	DropRate    float64       `json:"drop_rate"`
	Uptime      time.Duration `json:"uptime"`
}

// Summary snapshots all counters at once.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Writes:      s.Writes(),
		Reads:       s.Reads(),
		Peeks:       s.Peeks(),
		Overflows:   s.Overflows(),
		Drops:       s.Drops(),
		CurrentSize: s.CurrentSize(),
		MaxSize:     s.MaxSize(),
		Throughput:  s.Throughput(),
		DropRate:    s.DropRate(),
		Uptime:      s.Uptime(),
	}
}
