// Package buffer provides a generic, thread-safe circular buffer used for
// bounded telemetry history.
//
// The buffer keeps the most recent N items per stream:
//   - DropOldest (the default) evicts the oldest reading when full
//   - DropNewest discards incoming items when full
//   - Statistics always enabled for observability
//   - Optional Prometheus metrics integration via functional options
//
// History consumers never drain the buffer; Snapshot, Recent and Latest
// provide non-destructive views so API reads leave the retained window
// intact.
package buffer

// Buffer represents a generic buffer interface that all buffer implementations must satisfy.
// The buffer is parameterized by item type T for type safety.
type Buffer[T any] interface {
	// Write adds an item to the buffer. Returns an error if the operation fails.
	// Behavior depends on the overflow policy when buffer is full.
	Write(item T) error

	// Read retrieves and removes the oldest item from the buffer.
	// Returns the item and true if successful, zero value and false if buffer is empty.
	Read() (T, bool)

	// Peek retrieves the oldest item without removing it from the buffer.
	Peek() (T, bool)

	// Latest retrieves the most recently written item without removing it.
	Latest() (T, bool)

	// Recent returns up to n of the most recently written items in
	// chronological order, without removing them.
	Recent(n int) []T

	// Snapshot returns all buffered items in chronological order, without
	// removing them.
	Snapshot() []T

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	Capacity() int

	// IsFull returns true if the buffer is at maximum capacity.
	IsFull() bool

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics

	// Close shuts down the buffer and releases any resources.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops new items when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called when an item is dropped due to overflow policy.
// It receives the item that was dropped.
type DropCallback[T any] func(item T)

// NewCircularBuffer creates a new circular buffer with the specified capacity and options.
// Stats are ALWAYS collected for observability. Metrics are optional via WithMetrics().
// Returns an error if metrics registration fails when metrics are requested.
// Capacity is required - all other configuration is via functional options.
func NewCircularBuffer[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	opts := applyOptions(options...)
	return newCircularBuffer(capacity, opts)
}
