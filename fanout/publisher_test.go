package fanout

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekp4512/CattleNet/telemetry"
)

type fakeBus struct {
	subjects []string
	frames   [][]byte
	err      error
}

func (f *fakeBus) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subject)
	f.frames = append(f.frames, data)
	return nil
}

func TestPublisher_SubjectPerKind(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "cattlenet.events", nil, nil)
	ctx := context.Background()

	update := telemetry.SensorUpdate{
		Data:       telemetry.SensorReading{CattleID: "E3882528", AccX: 1.5},
		Prediction: "Normal",
		Confidence: 90,
	}
	require.NoError(t, p.Publish(ctx, telemetry.KindSensor, update))
	require.NoError(t, p.Publish(ctx, telemetry.KindGate, telemetry.GateUpdate{}))

	require.Equal(t, []string{"cattlenet.events.sensor", "cattlenet.events.gate"}, bus.subjects)

	var decoded telemetry.SensorUpdate
	require.NoError(t, json.Unmarshal(bus.frames[0], &decoded))
	assert.Equal(t, "E3882528", decoded.Data.CattleID)
	assert.Equal(t, "Normal", decoded.Prediction)
}

func TestPublisher_DefaultPrefix(t *testing.T) {
	bus := &fakeBus{}
	p := NewPublisher(bus, "", nil, nil)

	require.NoError(t, p.Publish(context.Background(), telemetry.KindFeed, telemetry.FeedUpdate{}))
	assert.Equal(t, []string{DefaultSubjectPrefix + ".feed"}, bus.subjects)
}

func TestPublisher_BusErrorIsReturned(t *testing.T) {
	bus := &fakeBus{err: errors.New("connection lost")}
	p := NewPublisher(bus, "", nil, nil)

	err := p.Publish(context.Background(), telemetry.KindSensor, telemetry.SensorUpdate{})
	assert.Error(t, err)
}

type countingSink struct {
	calls int
	err   error
}

func (c *countingSink) Publish(context.Context, telemetry.Kind, any) error {
	c.calls++
	return c.err
}

func TestTee_DeliversToAllSinksDespiteFailure(t *testing.T) {
	failing := &countingSink{err: errors.New("down")}
	healthy := &countingSink{}

	tee := Tee{failing, healthy}
	err := tee.Publish(context.Background(), telemetry.KindSensor, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls, "later sinks still receive the event")
}
