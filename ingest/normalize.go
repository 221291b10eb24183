// Package ingest implements the telemetry pipeline: topic routing, tolerant
// payload normalization, feed deduplication, gate direction classification,
// and movement anomaly scoring.
package ingest

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abhishekp4512/CattleNet/pkg/timestamp"
	"github.com/abhishekp4512/CattleNet/telemetry"
)

// Normalizer converts raw JSON payloads into canonical records. Field
// sensors disagree on key names, so every field is resolved through an
// ordered alias chain with a zero default.
type Normalizer struct {
	aliases map[string]string // sensor unit id -> RFID tag
	loc     *time.Location
	now     func() time.Time
}

// NewNormalizer creates a Normalizer. The alias map links sensor unit ids
// to RFID tags so collar readings and gate passings resolve to the same
// animal. A nil location falls back to UTC.
func NewNormalizer(aliases map[string]string, loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		aliases: aliases,
		loc:     loc,
		now:     time.Now,
	}
}

// Sensor normalizes a movement reading. The animal id comes from the topic
// and is run through the sensor alias map.
func (n *Normalizer) Sensor(topic string, payload map[string]any) telemetry.SensorReading {
	cattleID := n.cattleIDFromTopic(topic)
	if mapped, ok := n.aliases[cattleID]; ok {
		cattleID = mapped
	}

	return telemetry.SensorReading{
		Timestamp:   n.displayTime(payload["timestamp"]),
		CattleID:    cattleID,
		AccX:        floatField(payload, []string{"acc_x", "ax"}, []string{"accelerometer", "x"}),
		AccY:        floatField(payload, []string{"acc_y", "ay"}, []string{"accelerometer", "y"}),
		AccZ:        floatField(payload, []string{"acc_z", "az"}, []string{"accelerometer", "z"}),
		GyroX:       floatField(payload, []string{"gyro_x", "gx"}, []string{"gyroscope", "x"}),
		GyroY:       floatField(payload, []string{"gyro_y", "gy"}, []string{"gyroscope", "y"}),
		GyroZ:       floatField(payload, []string{"gyro_z", "gz"}, []string{"gyroscope", "z"}),
		Temperature: floatField(payload, []string{"temperature", "temp", "t"}),
	}
}

// Environment normalizes a barn-environment reading. Day/night comes from
// the payload when present, otherwise from the light sensor (ldr > 500 is
// day).
func (n *Normalizer) Environment(payload map[string]any) telemetry.EnvironmentalReading {
	ldr := int(floatField(payload, []string{"ldrValue", "ldr_value", "ldr"}))

	dayNight := dayNightField(payload)
	if dayNight == "" {
		if ldr > 500 {
			dayNight = "day"
		} else {
			dayNight = "night"
		}
	}

	return telemetry.EnvironmentalReading{
		Timestamp:      n.displayTime(payload["timestamp"]),
		LDRValue:       ldr,
		EnvTemperature: floatField(payload, []string{"temperature", "dht11_temp", "env_temp"}),
		Humidity:       floatField(payload, []string{"humidity", "dht11_humidity"}),
		CattlePresence: presenceField(payload),
		DayNight:       dayNight,
		Zone:           stringField(payload, "zone"),
	}
}

// Gate normalizes a gate passing. Messages without an RFID tag (idle gate
// beacons) return false and are dropped without error. Direction is left
// blank; the caller classifies it.
func (n *Normalizer) Gate(payload map[string]any) (telemetry.GateEvent, bool) {
	rfid := strings.TrimSpace(stringField(payload, "rfidTag", "rfid_tag", "rfid"))
	if rfid == "" {
		return telemetry.GateEvent{}, false
	}

	status := stringField(payload, "gateStatus", "gate_status", "status")
	if status == "" {
		status = "unknown"
	}

	return telemetry.GateEvent{
		Timestamp:  n.displayTime(payload["timestamp"]),
		RFIDTag:    rfid,
		Weight:     floatField(payload, []string{"weight", "loadCell", "load_cell"}),
		GateStatus: status,
		Direction:  "",
		CattleID:   rfid,
	}, true
}

// statusNoCattle is the status a feed station reports when its RFID
// reader saw nothing. The same spelling doubles as a placeholder id.
const statusNoCattle = "no_cattle_detected"

// Placeholder ids a feed station emits instead of a real animal.
// rejectedFeedIDs are structural rejects regardless of the rest of the
// payload; idleFeedIDs are rejected only when the payload carries no
// consumption either. This is the complete list; the filters below do
// not spell ids anywhere else.
var (
	rejectedFeedIDs = map[string]struct{}{"": {}, "no cattle": {}, "none": {}}
	idleFeedIDs     = map[string]struct{}{"unknown": {}, statusNoCattle: {}}
)

// rejectFeedID applies the placeholder-id filter.
func rejectFeedID(id string, feedConsumed float64) bool {
	lower := strings.ToLower(id)
	if _, ok := rejectedFeedIDs[lower]; ok {
		return true
	}
	if _, ok := idleFeedIDs[lower]; ok {
		return feedConsumed <= 0
	}
	return false
}

// Feed normalizes a feed-station payload. It returns the report, the raw
// payload timestamp and cattle id used for deduplication, and false when
// the payload is structurally filtered (idle beacons, placeholder ids,
// unknown shapes).
func (n *Normalizer) Feed(payload map[string]any) (telemetry.FeedReport, string, string, bool) {
	if stringField(payload, "status") == statusNoCattle {
		return telemetry.FeedReport{}, "", "", false
	}

	// An absent id defaults to "unknown" and may still pass with real
	// consumption. A present-but-empty id is a structural reject.
	cattleID, hasID := idField(payload, "cattleID", "cattle_id", "cattleName")
	if !hasID {
		cattleID = "unknown"
	}
	rawTS := rawTimestamp(payload["timestamp"], n.now)
	feedConsumed := floatField(payload, []string{"feedConsumed", "feed_consumed"})

	if rejectFeedID(cattleID, feedConsumed) {
		return telemetry.FeedReport{}, "", "", false
	}

	// Feed reports are stamped with processing time, not the payload time.
	formatted := n.now().In(n.loc).Format(timestamp.DisplayLayout)

	switch {
	case hasID:
		activity := telemetry.FeedActivity{
			CattleID:     cattleID,
			RFID:         cattleID,
			FeedConsumed: feedConsumed,
			WaterPresent: truthyField(payload, "waterStatus", "water_present"),
			Timestamp:    formatted,
		}
		return telemetry.FeedReport{
			Timestamp:        formatted,
			TotalFeed:        feedConsumed,
			TotalWater:       0,
			AvgFeedPerCattle: feedConsumed,
			RecentActivity:   []telemetry.FeedActivity{activity},
		}, rawTS, cattleID, true

	case hasAny(payload, "total_feed", "recent_activity"):
		raw, _ := payload["recent_activity"].([]any)
		activities := make([]telemetry.FeedActivity, 0, len(raw))
		for _, entry := range raw {
			act, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			id := stringField(act, "cattle_id", "rfid", "rfid_tag")
			if id == "" {
				id = "unknown"
			}
			rfid := stringField(act, "rfid", "rfid_tag", "cattle_id")
			if rfid == "" {
				rfid = "unknown"
			}
			activities = append(activities, telemetry.FeedActivity{
				CattleID:     id,
				RFID:         rfid,
				FeedConsumed: floatField(act, []string{"feed_consumed"}),
				WaterPresent: truthyField(act, "water_present"),
				Timestamp:    formatted,
			})
		}
		return telemetry.FeedReport{
			Timestamp:         formatted,
			TotalFeed:         floatField(payload, []string{"total_feed"}),
			TotalWater:        floatField(payload, []string{"total_water"}),
			AvgFeedPerCattle:  floatField(payload, []string{"avg_feed_per_cattle"}),
			AvgWaterPerCattle: floatField(payload, []string{"avg_water_per_cattle"}),
			RecentActivity:    activities,
		}, rawTS, cattleID, true
	}

	return telemetry.FeedReport{}, "", "", false
}

// cattleIDFromTopic extracts the unit id from topics shaped like
// "farm/<id>" or "cattle/sensors/<id>/data".
func (n *Normalizer) cattleIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	switch {
	case strings.Contains(topic, "farm/"):
		if len(parts) > 1 {
			return parts[1]
		}
		return "sensor1"
	case strings.Contains(topic, "sensors"):
		if len(parts) > 2 {
			return parts[2]
		}
	}
	return "unknown"
}

// displayTime converts a payload timestamp to the canonical display form in
// the configured location, falling back to processing time.
func (n *Normalizer) displayTime(value any) string {
	ms := timestamp.Parse(value)
	if ms == 0 {
		ms = timestamp.ToUnixMs(n.now())
	}
	return timestamp.DisplayIn(ms, n.loc)
}

// rawTimestamp returns the payload timestamp exactly as received, for use
// in dedup keys. Absent timestamps take the processing time so retries of
// the same payload still collide.
func rawTimestamp(value any, now func() time.Time) string {
	if value == nil {
		return now().Format(time.RFC3339)
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}

// floatField resolves a value through ordered alias chains. Flat chains are
// tried first, then nested paths (e.g. accelerometer.x). Unparseable or
// absent values yield 0.
func floatField(m map[string]any, flat []string, nested ...[]string) float64 {
	for _, key := range flat {
		if v, ok := m[key]; ok {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	for _, path := range nested {
		if v, ok := nestedValue(m, path); ok {
			if f, ok := toFloat(v); ok {
				return f
			}
		}
	}
	return 0
}

func nestedValue(m map[string]any, path []string) (any, bool) {
	var current any = m
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// stringField returns the first non-empty string found under the keys.
func stringField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// idField returns the value under the first key that exists in the map,
// along with whether any key was present at all. Unlike stringField, a
// present key wins even when its value is empty, so a blank id is
// reported as present rather than skipped over.
func idField(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			s, _ := v.(string)
			return s, true
		}
	}
	return "", false
}

// truthyField interprets mixed-type boolean flags: real bools pass through,
// non-empty strings and non-zero numbers count as true.
func truthyField(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			return val
		case string:
			return val != ""
		case float64:
			return val != 0
		}
	}
	return false
}

// presenceField accepts the two shapes the presence sensor publishes: the
// literal string "Cattle detected" or a bare boolean.
func presenceField(m map[string]any) bool {
	v, ok := m["cattlePresence"]
	if !ok {
		v, ok = m["cattle_presence"]
	}
	if !ok {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return val == "Cattle detected"
	}
	return false
}

// dayNightField reads an explicit day/night marker when the payload has
// one. "day", "true", "1" and a bare true mean day; any other present
// value is night.
func dayNightField(m map[string]any) string {
	for _, key := range []string{"isDay", "dayNight", "day_night"} {
		v, ok := m[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case bool:
			if val {
				return "day"
			}
			return "night"
		case string:
			if val == "" {
				continue
			}
			switch strings.ToLower(val) {
			case "day", "true", "1":
				return "day"
			default:
				return "night"
			}
		case float64:
			if val == 1 {
				return "day"
			}
			return "night"
		}
	}
	return ""
}

func hasAny(m map[string]any, keys ...string) bool {
	for _, key := range keys {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}
