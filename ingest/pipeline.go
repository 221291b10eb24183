package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/abhishekp4512/CattleNet/config"
	"github.com/abhishekp4512/CattleNet/metric"
	"github.com/abhishekp4512/CattleNet/store"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

// Document collections for persisted records.
const (
	CollectionSensor      = "sensor_data"
	CollectionEnvironment = "environmental_data"
	CollectionGate        = "gate_data"
	CollectionFeed        = "feed_monitor"
)

const serviceName = "ingest"

// DocumentSink persists normalized records. Writes are best effort; the
// pipeline logs failures and keeps going.
type DocumentSink interface {
	Insert(ctx context.Context, collection string, doc any) error
}

// EventSink receives normalized events for downstream delivery.
type EventSink interface {
	Publish(ctx context.Context, kind telemetry.Kind, payload any) error
}

// Pipeline drives a raw bus message through routing, normalization,
// filtering, classification, in-memory state, persistence and fan-out.
// Handle serializes internally, so per-topic subscriptions can share one
// Pipeline without racing on the dedup set or session state.
type Pipeline struct {
	mu sync.Mutex

	log        *slog.Logger
	normalizer *Normalizer
	dedup      *Deduper
	detector   *Detector
	sessions   *SessionTracker
	history    *store.History
	registry   *store.Registry

	docs    DocumentSink
	events  EventSink
	metrics *metric.Metrics

	writeTimeout time.Duration

	lastResult   telemetry.AnomalyResult
	hasResult    bool
	messageCount int64
}

// PipelineOptions collects the pipeline's collaborators. History and
// Registry are required; DocumentSink, EventSink, Metrics and Logger may
// be nil.
type PipelineOptions struct {
	Config   *config.Config
	History  *store.History
	Registry *store.Registry
	Docs     DocumentSink
	Events   EventSink
	Metrics  *metric.Metrics
	Logger   *slog.Logger
}

// NewPipeline wires a Pipeline from configuration.
func NewPipeline(opts PipelineOptions) *Pipeline {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{}
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	metrics := opts.Metrics
	if metrics == nil {
		// Unregistered collectors so callers without a registry still work.
		metrics = metric.NewMetrics()
	}

	loc := cfg.GateLocation()
	gate := cfg.Ingest.Gate
	writeTimeout := cfg.DocStore.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}

	return &Pipeline{
		log:          log.With("component", serviceName),
		normalizer:   NewNormalizer(cfg.Ingest.SensorAliases, loc),
		dedup:        NewDeduper(cfg.Ingest.DedupCapacity),
		detector:     NewDetector(cfg.Ingest.Anomaly.Seed),
		sessions:     NewSessionTracker(loc, gate.EntryStartHour, gate.EntryEndHour),
		history:      opts.History,
		registry:     opts.Registry,
		docs:         opts.Docs,
		events:       opts.Events,
		metrics:      metrics,
		writeTimeout: writeTimeout,
	}
}

// Handle processes one raw bus message. It never returns an error to the
// bus layer; malformed or unwanted messages are counted and dropped so a
// misbehaving sensor cannot stall the subscription.
func (p *Pipeline) Handle(ctx context.Context, topic string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	p.messageCount++

	kind, ok := Route(topic)
	if !ok {
		p.metrics.RecordMessageDropped(serviceName, "unknown_topic")
		return
	}
	p.metrics.RecordMessageReceived(serviceName, string(kind))

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		p.log.Warn("discarding malformed payload", "topic", topic, "error", err)
		p.metrics.RecordMessageDropped(serviceName, "parse_error")
		return
	}

	switch kind {
	case telemetry.KindSensor:
		p.handleSensor(ctx, topic, payload)
	case telemetry.KindEnvironment:
		p.handleEnvironment(ctx, payload)
	case telemetry.KindGate:
		p.handleGate(ctx, payload)
	case telemetry.KindFeed:
		p.handleFeed(ctx, topic, payload)
	case telemetry.KindHealth:
		p.log.Debug("device health report", "topic", topic, "payload", string(data))
	}

	p.metrics.RecordProcessingDuration(serviceName, string(kind), time.Since(start))
}

func (p *Pipeline) handleSensor(ctx context.Context, topic string, payload map[string]any) {
	reading := p.normalizer.Sensor(topic, payload)
	result := p.detector.Detect(reading.Features())
	p.lastResult = result
	p.hasResult = true

	if err := p.history.AppendSensor(reading); err != nil {
		p.log.Warn("sensor history write failed", "error", err)
	}

	p.persist(ctx, CollectionSensor, struct {
		telemetry.SensorReading
		Prediction    string  `json:"prediction"`
		Confidence    float64 `json:"confidence"`
		ActivityLevel float64 `json:"activity_level"`
	}{reading, result.Prediction, result.Confidence, result.ActivityLevel})

	p.emit(ctx, telemetry.KindSensor, telemetry.SensorUpdate{
		Data:              reading,
		Prediction:        result.Prediction,
		Confidence:        result.Confidence,
		ImportantFeatures: result.ImportantFeatures,
		ActivityLevel:     result.ActivityLevel,
	})
	p.metrics.RecordMessageProcessed(serviceName, string(telemetry.KindSensor), "ok")
}

func (p *Pipeline) handleEnvironment(ctx context.Context, payload map[string]any) {
	reading := p.normalizer.Environment(payload)

	if err := p.history.AppendEnvironment(reading); err != nil {
		p.log.Warn("environment history write failed", "error", err)
	}

	p.persist(ctx, CollectionEnvironment, reading)
	p.emit(ctx, telemetry.KindEnvironment, telemetry.EnvironmentUpdate{Data: reading})
	p.metrics.RecordMessageProcessed(serviceName, string(telemetry.KindEnvironment), "ok")
}

func (p *Pipeline) handleGate(ctx context.Context, payload map[string]any) {
	event, ok := p.normalizer.Gate(payload)
	if !ok {
		// Idle gate beacon with no tag.
		p.metrics.RecordMessageDropped(serviceName, "no_rfid")
		return
	}

	event.Direction = p.sessions.Record(event.RFIDTag)
	p.registry.RecordGateEvent(event)

	if err := p.history.AppendGate(event); err != nil {
		p.log.Warn("gate history write failed", "error", err)
	}

	p.persist(ctx, CollectionGate, event)

	update := telemetry.GateUpdate{Data: event}
	if profile, ok := p.registry.Get(event.RFIDTag); ok {
		update.Registry = &profile
	}
	p.emit(ctx, telemetry.KindGate, update)
	p.metrics.RecordMessageProcessed(serviceName, string(telemetry.KindGate), "ok")
}

func (p *Pipeline) handleFeed(ctx context.Context, topic string, payload map[string]any) {
	report, rawTS, cattleID, ok := p.normalizer.Feed(payload)
	if !ok {
		p.metrics.RecordMessageDropped(serviceName, "invalid_feed")
		return
	}

	if p.dedup.Seen(topic, rawTS, cattleID) {
		p.metrics.RecordMessageDropped(serviceName, "duplicate")
		return
	}

	if err := p.history.AppendFeed(report); err != nil {
		p.log.Warn("feed history write failed", "error", err)
	}

	p.persist(ctx, CollectionFeed, report)
	p.emit(ctx, telemetry.KindFeed, telemetry.FeedUpdate{Data: report})
	p.metrics.RecordMessageProcessed(serviceName, string(telemetry.KindFeed), "ok")
}

// persist writes a document with a bounded timeout. Failures are logged
// and dropped; persistence never blocks the pipeline.
func (p *Pipeline) persist(ctx context.Context, collection string, doc any) {
	if p.docs == nil {
		return
	}
	writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
	defer cancel()
	if err := p.docs.Insert(writeCtx, collection, doc); err != nil {
		p.log.Warn("document write failed", "collection", collection, "error", err)
		p.metrics.RecordError(serviceName, "docstore_write")
	}
}

func (p *Pipeline) emit(ctx context.Context, kind telemetry.Kind, payload any) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, kind, payload); err != nil {
		p.log.Warn("event publish failed", "kind", kind, "error", err)
		p.metrics.RecordError(serviceName, "fanout_publish")
	}
}

// LatestPrediction returns the most recent movement classification, if
// any reading has been scored yet.
func (p *Pipeline) LatestPrediction() (telemetry.AnomalyResult, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastResult, p.hasResult
}

// MessageCount returns the total number of bus messages seen, including
// dropped ones.
func (p *Pipeline) MessageCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.messageCount
}

// Sessions exposes the gate session tracker for read-side statistics.
func (p *Pipeline) Sessions() *SessionTracker {
	return p.sessions
}
