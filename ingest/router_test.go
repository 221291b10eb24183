package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhishekp4512/CattleNet/telemetry"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		topic string
		kind  telemetry.Kind
		ok    bool
	}{
		{"farm/environment", telemetry.KindEnvironment, true},
		{"farm/gate", telemetry.KindGate, true},
		{"farm/feed_monitor", telemetry.KindFeed, true},
		{"farm/sensor1", telemetry.KindSensor, true},
		{"farm/sensor2", telemetry.KindSensor, true},
		{"cattle/sensors/unit7/data", telemetry.KindSensor, true},
		{"cattle/health", telemetry.KindHealth, true},
		{"device/health/unit7", telemetry.KindHealth, true},
		{"weather/forecast", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		kind, ok := Route(tc.topic)
		assert.Equal(t, tc.ok, ok, "topic %q", tc.topic)
		assert.Equal(t, tc.kind, kind, "topic %q", tc.topic)
	}
}

func TestRoute_FixedTopicsWinOverCollarPattern(t *testing.T) {
	// "farm/gate" contains "farm/" but must never route as a collar.
	kind, ok := Route("farm/gate")
	assert.True(t, ok)
	assert.Equal(t, telemetry.KindGate, kind)
}
