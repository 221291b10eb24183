package ingest

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduper_SuppressesRepeats(t *testing.T) {
	d := NewDeduper(10)

	assert.False(t, d.Seen("farm/feed_monitor", "2025-06-01T08:00:00Z", "E3882528"))
	assert.True(t, d.Seen("farm/feed_monitor", "2025-06-01T08:00:00Z", "E3882528"))
}

func TestDeduper_KeyComponentsAreIndependent(t *testing.T) {
	d := NewDeduper(10)

	assert.False(t, d.Seen("farm/feed_monitor", "ts1", "A"))
	assert.False(t, d.Seen("farm/feed_monitor", "ts2", "A"), "different timestamp is a new reading")
	assert.False(t, d.Seen("farm/feed_monitor", "ts1", "B"), "different animal is a new reading")
	assert.False(t, d.Seen("other/topic", "ts1", "A"), "different topic is a new reading")
}

func TestDeduper_OverflowClearsAndReseeds(t *testing.T) {
	d := NewDeduper(5)

	for i := 0; i < 5; i++ {
		assert.False(t, d.Seen("farm/feed_monitor", fmt.Sprintf("ts%d", i), "A"))
	}
	assert.Equal(t, 5, d.Len())

	// The sixth key trips the cap: the set is wiped and reseeded with it.
	assert.False(t, d.Seen("farm/feed_monitor", "ts5", "A"))
	assert.Equal(t, 1, d.Len())

	// The reseeded key is still remembered; the wiped ones are not.
	assert.True(t, d.Seen("farm/feed_monitor", "ts5", "A"))
	assert.False(t, d.Seen("farm/feed_monitor", "ts0", "A"))
}

func TestDeduper_DefaultCapacity(t *testing.T) {
	d := NewDeduper(0)
	for i := 0; i < DefaultDedupCapacity; i++ {
		d.Seen("farm/feed_monitor", fmt.Sprintf("ts%d", i), "A")
	}
	assert.Equal(t, DefaultDedupCapacity, d.Len())

	d.Seen("farm/feed_monitor", "overflow", "A")
	assert.Equal(t, 1, d.Len())
}
