// Package fanout delivers normalized telemetry to downstream consumers
// over bus subjects and a WebSocket bridge. Delivery is at most once; a
// slow or broken consumer never backs up the pipeline.
package fanout

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/abhishekp4512/CattleNet/errors"
	"github.com/abhishekp4512/CattleNet/metric"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

// Sink receives normalized events.
type Sink interface {
	Publish(ctx context.Context, kind telemetry.Kind, payload any) error
}

// Bus is the subset of the bus client the publisher needs.
type Bus interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// DefaultSubjectPrefix is prepended to the event kind to form the
// publication subject, e.g. "cattlenet.events.sensor".
const DefaultSubjectPrefix = "cattlenet.events"

// Publisher forwards events to bus subjects named "<prefix>.<kind>".
type Publisher struct {
	bus     Bus
	prefix  string
	log     *slog.Logger
	metrics *metric.Metrics
}

// NewPublisher creates a Publisher. Metrics and logger may be nil.
func NewPublisher(bus Bus, prefix string, metrics *metric.Metrics, log *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = metric.NewMetrics()
	}
	return &Publisher{
		bus:     bus,
		prefix:  prefix,
		log:     log.With("component", "fanout"),
		metrics: metrics,
	}
}

// Publish marshals the payload and sends it on the kind's subject.
func (p *Publisher) Publish(ctx context.Context, kind telemetry.Kind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.WrapInvalid(err, "Publisher", "Publish", "marshal event")
	}

	subject := p.prefix + "." + string(kind)
	if err := p.bus.Publish(ctx, subject, data); err != nil {
		return errors.WrapTransient(err, "Publisher", "Publish", "publish "+subject)
	}

	p.metrics.RecordMessagePublished("fanout", subject)
	return nil
}

// Tee fans an event out to every sink. Each sink gets the event even
// when an earlier one fails; the first error is returned.
type Tee []Sink

// Publish sends the event to all sinks.
func (t Tee) Publish(ctx context.Context, kind telemetry.Kind, payload any) error {
	var first error
	for _, sink := range t {
		if err := sink.Publish(ctx, kind, payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}
