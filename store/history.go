// Package store holds the in-memory read state the gateway serves: bounded
// recent history per telemetry stream and the per-animal registry.
package store

import (
	"github.com/abhishekp4512/CattleNet/errors"
	"github.com/abhishekp4512/CattleNet/metric"
	"github.com/abhishekp4512/CattleNet/pkg/buffer"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

// HistoryConfig sets the ring capacity for each stream.
type HistoryConfig struct {
	SensorCapacity      int
	EnvironmentCapacity int
	GateCapacity        int
	FeedCapacity        int

	// MetricsRegistry is optional; when set, each ring exports buffer
	// metrics under its stream name.
	MetricsRegistry *metric.MetricsRegistry
}

// DefaultHistoryConfig mirrors the capacities the dashboards were built
// around.
func DefaultHistoryConfig() HistoryConfig {
	return HistoryConfig{
		SensorCapacity:      100,
		EnvironmentCapacity: 50,
		GateCapacity:        200,
		FeedCapacity:        100,
	}
}

// History retains the most recent records per stream in fixed-size rings.
// Appends evict the oldest record once a ring is full; reads never consume.
type History struct {
	sensors     buffer.Buffer[telemetry.SensorReading]
	environment buffer.Buffer[telemetry.EnvironmentalReading]
	gate        buffer.Buffer[telemetry.GateEvent]
	feed        buffer.Buffer[telemetry.FeedReport]
}

// NewHistory creates the per-stream rings.
func NewHistory(cfg HistoryConfig) (*History, error) {
	sensors, err := newRing[telemetry.SensorReading](cfg.SensorCapacity, cfg.MetricsRegistry, "history_sensor")
	if err != nil {
		return nil, errors.WrapInvalid(err, "History", "NewHistory", "create sensor ring")
	}
	environment, err := newRing[telemetry.EnvironmentalReading](cfg.EnvironmentCapacity, cfg.MetricsRegistry, "history_environment")
	if err != nil {
		return nil, errors.WrapInvalid(err, "History", "NewHistory", "create environment ring")
	}
	gate, err := newRing[telemetry.GateEvent](cfg.GateCapacity, cfg.MetricsRegistry, "history_gate")
	if err != nil {
		return nil, errors.WrapInvalid(err, "History", "NewHistory", "create gate ring")
	}
	feed, err := newRing[telemetry.FeedReport](cfg.FeedCapacity, cfg.MetricsRegistry, "history_feed")
	if err != nil {
		return nil, errors.WrapInvalid(err, "History", "NewHistory", "create feed ring")
	}

	return &History{
		sensors:     sensors,
		environment: environment,
		gate:        gate,
		feed:        feed,
	}, nil
}

func newRing[T any](capacity int, registry *metric.MetricsRegistry, name string) (buffer.Buffer[T], error) {
	opts := []buffer.Option[T]{
		buffer.WithOverflowPolicy[T](buffer.DropOldest),
	}
	if registry != nil {
		opts = append(opts, buffer.WithMetrics[T](registry, name))
	}
	return buffer.NewCircularBuffer[T](capacity, opts...)
}

// AppendSensor records a sensor reading.
func (h *History) AppendSensor(r telemetry.SensorReading) error {
	return h.sensors.Write(r)
}

// AppendEnvironment records an environmental reading.
func (h *History) AppendEnvironment(r telemetry.EnvironmentalReading) error {
	return h.environment.Write(r)
}

// AppendGate records a gate event.
func (h *History) AppendGate(e telemetry.GateEvent) error {
	return h.gate.Write(e)
}

// AppendFeed records a feed report.
func (h *History) AppendFeed(r telemetry.FeedReport) error {
	return h.feed.Write(r)
}

// LatestSensor returns the most recent sensor reading, if any.
func (h *History) LatestSensor() (telemetry.SensorReading, bool) {
	return h.sensors.Latest()
}

// LatestEnvironment returns the most recent environmental reading, if any.
func (h *History) LatestEnvironment() (telemetry.EnvironmentalReading, bool) {
	return h.environment.Latest()
}

// LatestGate returns the most recent gate event, if any.
func (h *History) LatestGate() (telemetry.GateEvent, bool) {
	return h.gate.Latest()
}

// LatestFeed returns the most recent feed report, if any.
func (h *History) LatestFeed() (telemetry.FeedReport, bool) {
	return h.feed.Latest()
}

// RecentSensors returns up to n recent sensor readings, oldest first.
func (h *History) RecentSensors(n int) []telemetry.SensorReading {
	return h.sensors.Recent(n)
}

// RecentEnvironment returns up to n recent environmental readings, oldest first.
func (h *History) RecentEnvironment(n int) []telemetry.EnvironmentalReading {
	return h.environment.Recent(n)
}

// RecentGate returns up to n recent gate events, oldest first.
func (h *History) RecentGate(n int) []telemetry.GateEvent {
	return h.gate.Recent(n)
}

// RecentFeed returns up to n recent feed reports, oldest first.
func (h *History) RecentFeed(n int) []telemetry.FeedReport {
	return h.feed.Recent(n)
}

// SensorSnapshot returns all retained sensor readings, oldest first.
func (h *History) SensorSnapshot() []telemetry.SensorReading {
	return h.sensors.Snapshot()
}

// EnvironmentSnapshot returns all retained environmental readings, oldest first.
func (h *History) EnvironmentSnapshot() []telemetry.EnvironmentalReading {
	return h.environment.Snapshot()
}

// GateSnapshot returns all retained gate events, oldest first.
func (h *History) GateSnapshot() []telemetry.GateEvent {
	return h.gate.Snapshot()
}

// FeedSnapshot returns all retained feed reports, oldest first.
func (h *History) FeedSnapshot() []telemetry.FeedReport {
	return h.feed.Snapshot()
}

// SensorCount returns the number of sensor readings currently retained.
func (h *History) SensorCount() int { return h.sensors.Size() }

// EnvironmentCount returns the number of environmental readings currently retained.
func (h *History) EnvironmentCount() int { return h.environment.Size() }

// GateCount returns the number of gate events currently retained.
func (h *History) GateCount() int { return h.gate.Size() }

// FeedCount returns the number of feed reports currently retained.
func (h *History) FeedCount() int { return h.feed.Size() }
