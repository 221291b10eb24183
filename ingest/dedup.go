package ingest

// DefaultDedupCapacity bounds the feed dedup set. Feed stations republish
// the same reading on reconnect, so a modest window catches the repeats.
const DefaultDedupCapacity = 500

type dedupKey struct {
	topic     string
	timestamp string
	cattleID  string
}

// Deduper suppresses repeated feed payloads keyed by topic, raw payload
// timestamp and cattle id. When the set outgrows its capacity it is
// cleared wholesale and reseeded with the triggering key, trading a brief
// duplicate window for bounded memory. Not safe for concurrent use; the
// pipeline serializes calls.
type Deduper struct {
	seen     map[dedupKey]struct{}
	capacity int
}

// NewDeduper creates a Deduper. A capacity <= 0 uses the default.
func NewDeduper(capacity int) *Deduper {
	if capacity <= 0 {
		capacity = DefaultDedupCapacity
	}
	return &Deduper{
		seen:     make(map[dedupKey]struct{}),
		capacity: capacity,
	}
}

// Seen reports whether the key was already recorded. New keys are recorded
// as a side effect.
func (d *Deduper) Seen(topic, rawTimestamp, cattleID string) bool {
	key := dedupKey{topic: topic, timestamp: rawTimestamp, cattleID: cattleID}
	if _, ok := d.seen[key]; ok {
		return true
	}
	d.seen[key] = struct{}{}
	if len(d.seen) > d.capacity {
		d.seen = make(map[dedupKey]struct{})
		d.seen[key] = struct{}{}
	}
	return false
}

// Len returns the number of tracked keys.
func (d *Deduper) Len() int {
	return len(d.seen)
}
