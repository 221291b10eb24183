// Package timestamp provides standardized Unix timestamp handling utilities.
//
// This package uses int64 milliseconds as the canonical timestamp format to
// eliminate timestamp parsing bugs and provide consistent behavior across the
// codebase. All timestamps are stored as milliseconds since Unix epoch (UTC).
//
// Telemetry payloads carry timestamps in a handful of shapes: ISO-8601
// strings (with or without a trailing "Z"), the plain "2006-01-02 15:04:05"
// display form, Unix seconds, or Unix milliseconds. Parse accepts all of
// them; OrNow falls back to the processing clock when a payload carries
// nothing usable.
//
// Zero Value Semantics:
//   - A timestamp value of 0 means "not set" or "unknown"
//   - Functions handle zero values gracefully, returning appropriate defaults
package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the canonical human-readable form used in stored
// documents and API responses.
const DisplayLayout = "2006-01-02 15:04:05"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns zero time if timestamp is 0.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Display converts Unix milliseconds to the canonical display form in UTC.
// Returns empty string if timestamp is 0.
func Display(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).UTC().Format(DisplayLayout)
}

// DisplayIn converts Unix milliseconds to the canonical display form in the
// given location. A nil location falls back to UTC.
func DisplayIn(ms int64, loc *time.Location) string {
	if ms == 0 {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format(DisplayLayout)
}

// stringLayouts are tried in order for string input. The Z-less variants
// cover devices that strip the zone suffix before publishing.
var stringLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	DisplayLayout,
}

// Parse converts various timestamp formats to Unix milliseconds.
// Supports:
//   - int64 / float64 (assumed milliseconds if > 1e12, otherwise seconds)
//   - string (ISO-8601 with or without zone, display layout, numeric string)
//   - time.Time
//   - nil/zero values (returns 0)
//
// Returns 0 for invalid input or parsing errors.
func Parse(input any) int64 {
	if input == nil {
		return 0
	}

	switch v := input.(type) {
	case int64:
		if v == 0 {
			return 0
		}
		if v > 1e12 {
			return v
		}
		return v * 1000

	case float64:
		if v == 0 {
			return 0
		}
		if v > 1e12 {
			return int64(v)
		}
		return int64(v * 1000)

	case int:
		return Parse(int64(v))

	case int32:
		return Parse(int64(v))

	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0
		}

		for _, layout := range stringLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return ToUnixMs(t)
			}
		}

		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			return Parse(ts)
		}
		if ts, err := strconv.ParseFloat(v, 64); err == nil {
			return Parse(ts)
		}

		return 0

	case time.Time:
		return ToUnixMs(v)

	case *time.Time:
		if v == nil {
			return 0
		}
		return ToUnixMs(*v)

	default:
		return 0
	}
}

// OrNow parses the input and falls back to the current clock when the input
// is missing or unparseable. Ingested readings always end up with a usable
// timestamp.
func OrNow(input any) int64 {
	if ms := Parse(input); ms != 0 {
		return ms
	}
	return Now()
}

// IsZero checks if a timestamp is unset (zero).
func IsZero(ms int64) bool {
	return ms == 0
}

// Since returns the duration since the given timestamp.
// Returns 0 if timestamp is zero.
func Since(ms int64) time.Duration {
	if ms == 0 {
		return 0
	}
	return time.Since(time.UnixMilli(ms))
}

// Between returns the duration between two timestamps.
// Returns 0 if either timestamp is zero.
func Between(start, end int64) time.Duration {
	if start == 0 || end == 0 {
		return 0
	}
	return time.UnixMilli(end).Sub(time.UnixMilli(start))
}
