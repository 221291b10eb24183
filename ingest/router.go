package ingest

import (
	"strings"

	"github.com/abhishekp4512/CattleNet/telemetry"
)

// Route maps a bus topic to the record kind its payloads carry. Exact
// matches for the fixed station topics win over the broader collar
// patterns, so "farm/gate" never routes as a collar reading. Unrecognized
// topics return false and are dropped.
func Route(topic string) (telemetry.Kind, bool) {
	switch topic {
	case "farm/environment":
		return telemetry.KindEnvironment, true
	case "farm/gate":
		return telemetry.KindGate, true
	case "farm/feed_monitor":
		return telemetry.KindFeed, true
	}
	if strings.Contains(topic, "farm/") || strings.Contains(topic, "sensors") {
		return telemetry.KindSensor, true
	}
	if strings.Contains(topic, "health") {
		return telemetry.KindHealth, true
	}
	return "", false
}
