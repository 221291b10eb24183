// Package buffer provides thread-safe circular buffers with configurable
// overflow policies, built-in statistics tracking, and optional Prometheus
// metrics integration.
//
// # Overview
//
// The buffer package backs the bounded per-stream telemetry history: each
// stream keeps its most recent N readings, with the oldest reading evicted
// in O(1) when a new one arrives at capacity. Buffers are generic,
// thread-safe, and observable through always-on statistics.
//
// # Quick Start
//
// Basic buffer creation:
//
//	buf, err := buffer.NewCircularBuffer[telemetry.SensorReading](100)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Append a reading
//	err = buf.Write(reading)
//
//	// Non-destructive views for API reads
//	latest, ok := buf.Latest()
//	lastTen := buf.Recent(10)
//	all := buf.Snapshot()
//
// With overflow policy and metrics:
//
//	buf, err := buffer.NewCircularBuffer[telemetry.GateEvent](200,
//		buffer.WithOverflowPolicy[telemetry.GateEvent](buffer.DropOldest),
//		buffer.WithMetrics[telemetry.GateEvent](registry, "gate_history"),
//	)
//
// # Overflow Policies
//
//   - DropOldest: Remove oldest item to make room (default, used by history)
//   - DropNewest: Reject new items when full
//
// # Observability Architecture
//
// The buffer implements a dual-tracking pattern:
//
// Statistics (Always On):
//   - Tracks all operations using atomic counters
//   - Zero configuration required
//   - Available via buf.Stats()
//   - Provides computed metrics (throughput, drop rate, utilization)
//   - No external dependencies
//
// Prometheus Metrics (Optional):
//   - Enabled via WithMetrics() option
//   - Exports to Prometheus for time-series monitoring
//   - Includes component labels for instance identification
//
// Statistics stay independent of Prometheus so they remain available for
// debugging and tests even when metrics are disabled; the extra atomic
// increment per operation is negligible at telemetry rates.
//
// # Thread Safety
//
// All buffer operations are thread-safe for concurrent use:
//   - The single ingest writer appends under an exclusive lock
//   - API readers take a read lock, so Snapshot, Recent, Latest and Peek
//     from concurrent HTTP handlers do not block each other
//   - Statistics use atomic operations (lock-free)
//
// # Performance Characteristics
//
//   - Write / Read / Peek / Latest: O(1)
//   - Recent(n): O(n), Snapshot: O(size); both copy into a fresh slice so
//     callers never alias internal storage
//   - Pre-allocated circular array, no allocations on the write path
package buffer
