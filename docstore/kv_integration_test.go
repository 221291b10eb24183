//go:build integration

package docstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekp4512/CattleNet/natsclient"
)

func TestKVWriter_InsertRoundtrip(t *testing.T) {
	testClient := natsclient.NewTestClient(t, natsclient.WithDocStoreDefaults())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w := NewKVWriter(testClient.Client, "cattlenet_test", nil)

	doc := map[string]any{
		"cattle_id":   "E3882528",
		"acc_x":       1.5,
		"temperature": 38.6,
	}
	require.NoError(t, w.Insert(ctx, "sensor_data", doc))
	require.NoError(t, w.Insert(ctx, "sensor_data", doc))

	bucket, err := testClient.GetKVBucket(ctx, "cattlenet_test_sensor_data")
	require.NoError(t, err)

	keys, err := bucket.Keys(ctx)
	require.NoError(t, err)
	// Two documents plus the meta record.
	assert.Len(t, keys, 3)

	meta, err := bucket.Get(ctx, "meta")
	require.NoError(t, err)

	var bookkeeping map[string]any
	require.NoError(t, json.Unmarshal(meta.Value(), &bookkeeping))
	assert.Equal(t, 2.0, bookkeeping["insert_count"])
	assert.NotEmpty(t, bookkeeping["last_insert"])
}

func TestKVWriter_CollectionsGetSeparateBuckets(t *testing.T) {
	testClient := natsclient.NewTestClient(t, natsclient.WithDocStoreDefaults())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	w := NewKVWriter(testClient.Client, "cattlenet_test", nil)

	require.NoError(t, w.Insert(ctx, "sensor_data", map[string]any{"a": 1}))
	require.NoError(t, w.Insert(ctx, "gate_data", map[string]any{"b": 2}))

	_, err := testClient.GetKVBucket(ctx, "cattlenet_test_sensor_data")
	assert.NoError(t, err)
	_, err = testClient.GetKVBucket(ctx, "cattlenet_test_gate_data")
	assert.NoError(t, err)
}
