//go:build integration

package natsclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKVStore_ErrorBoundaries drives the CAS helpers through the failure
// modes a busy farm deployment hits: oversized documents, interleaved
// writers bumping the same meta counter, deadlines, and malformed JSON.
func TestKVStore_ErrorBoundaries(t *testing.T) {
	// Real NATS via testcontainer.
	testClient := NewTestClient(t, WithKV())
	client := testClient.Client

	ctx := context.Background()
	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      "cattle-documents-errors",
		Description: "Failure-mode scenarios over telemetry documents",
	})
	require.NoError(t, err)

	t.Run("value_size_limits", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 3
			opts.RetryDelay = 10 * time.Millisecond
			opts.Timeout = time.Second
			opts.MaxValueSize = 100
		})

		// A sensor document padded past the configured limit.
		largeValue := make([]byte, 200)
		for i := range largeValue {
			largeValue[i] = 'x'
		}

		err := kv.UpdateWithRetry(ctx, "sensor.oversized", func(_ []byte) ([]byte, error) {
			return largeValue, nil
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "value size validation failed")
		assert.Contains(t, err.Error(), "exceeds maximum")

		// A document exactly at the limit still lands.
		limitValue := make([]byte, 100)
		err = kv.UpdateWithRetry(ctx, "sensor.at-limit", func(_ []byte) ([]byte, error) {
			return limitValue, nil
		})
		assert.NoError(t, err)
	})

	t.Run("update_function_errors", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		expectedErr := errors.New("profile rebuild failed")
		err := kv.UpdateWithRetry(ctx, "profile.COW-001", func(_ []byte) ([]byte, error) {
			return nil, expectedErr
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "update function error")
		assert.Contains(t, err.Error(), "profile rebuild failed")
	})

	t.Run("concurrent_updates_stress", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 20
			opts.RetryDelay = 5 * time.Millisecond
			opts.Timeout = 5 * time.Second
			opts.UseExponentialBackoff = true
			opts.MaxRetryDelay = 100 * time.Millisecond
		})

		// Insert counters get bumped by every station handler, so the CAS
		// loop has to absorb heavy contention without losing increments.
		err := kv.UpdateWithRetry(ctx, "meta.insert_count", func(_ []byte) ([]byte, error) {
			return []byte("0"), nil
		})
		require.NoError(t, err)

		const numGoroutines = 10
		const incrementsPerGoroutine = 5
		var wg sync.WaitGroup

		successCount := int32(0)
		failCount := int32(0)

		for i := 0; i < numGoroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < incrementsPerGoroutine; j++ {
					err := kv.UpdateWithRetry(ctx, "meta.insert_count", func(current []byte) ([]byte, error) {
						var val int
						if len(current) > 0 {
							fmt.Sscanf(string(current), "%d", &val)
						}
						val++
						return []byte(fmt.Sprintf("%d", val)), nil
					})
					if err == nil {
						atomic.AddInt32(&successCount, 1)
					} else {
						atomic.AddInt32(&failCount, 1)
						t.Logf("writer %d increment %d failed: %v", id, j, err)
					}
				}
			}(i)
		}

		wg.Wait()

		entry, err := kv.Get(ctx, "meta.insert_count")
		require.NoError(t, err)

		var finalCount int
		fmt.Sscanf(string(entry.Value), "%d", &finalCount)

		expectedCount := numGoroutines * incrementsPerGoroutine
		assert.Equal(t, expectedCount, finalCount, "insert counter lost increments")
		assert.Equal(t, int32(expectedCount), successCount, "not all updates succeeded")
		assert.Equal(t, int32(0), failCount, "some updates failed")
	})

	t.Run("timeout_behavior", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 1
			opts.RetryDelay = time.Millisecond
			opts.Timeout = 1 * time.Nanosecond
		})

		err := kv.UpdateWithRetry(ctx, "sensor.deadline", func(_ []byte) ([]byte, error) {
			return []byte(`{"temperature":38.5}`), nil
		})

		assert.Error(t, err)
		assert.True(t,
			errors.Is(err, context.DeadlineExceeded) ||
				strings.Contains(err.Error(), "deadline exceeded"),
			"expected deadline exceeded error, got: %v", err)
	})

	t.Run("nil_and_empty_values", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		err := kv.UpdateWithRetry(ctx, "tombstone.nil", func(_ []byte) ([]byte, error) {
			return nil, nil
		})
		assert.NoError(t, err)

		entry, err := kv.Get(ctx, "tombstone.nil")
		require.NoError(t, err)
		assert.Equal(t, 0, len(entry.Value))

		err = kv.UpdateWithRetry(ctx, "tombstone.empty", func(_ []byte) ([]byte, error) {
			return []byte{}, nil
		})
		assert.NoError(t, err)

		entry, err = kv.Get(ctx, "tombstone.empty")
		require.NoError(t, err)
		assert.Equal(t, 0, len(entry.Value))

		// A profile can be blanked out after being written.
		err = kv.UpdateWithRetry(ctx, "profile.COW-009", func(_ []byte) ([]byte, error) {
			return []byte(`{"latest_weight":410}`), nil
		})
		require.NoError(t, err)

		err = kv.UpdateWithRetry(ctx, "profile.COW-009", func(current []byte) ([]byte, error) {
			assert.Equal(t, `{"latest_weight":410}`, string(current))
			return nil, nil
		})
		assert.NoError(t, err)
	})

	t.Run("max_retries_exhaustion", func(t *testing.T) {
		kv := client.NewKVStore(bucket, func(opts *KVOptions) {
			opts.MaxRetries = 2
			opts.RetryDelay = 5 * time.Millisecond
			opts.Timeout = time.Second
		})

		_, err := bucket.Create(ctx, "profile.contended", []byte(`{"seen":1}`))
		require.NoError(t, err)

		// A background writer keeps the revision moving so every CAS
		// attempt conflicts.
		stopConflicts := make(chan struct{})
		go func() {
			ticker := time.NewTicker(2 * time.Millisecond)
			defer ticker.Stop()
			counter := 2
			for {
				select {
				case <-stopConflicts:
					return
				case <-ticker.C:
					bucket.Put(ctx, "profile.contended", []byte(fmt.Sprintf(`{"seen":%d}`, counter)))
					counter++
				}
			}
		}()

		err = kv.UpdateWithRetry(ctx, "profile.contended", func(_ []byte) ([]byte, error) {
			time.Sleep(10 * time.Millisecond)
			return []byte(`{"seen":-1}`), nil
		})

		close(stopConflicts)

		assert.Error(t, err)
		assert.True(t,
			errors.Is(err, ErrKVMaxRetriesExceeded) ||
				strings.Contains(err.Error(), "max retries exceeded"),
			"expected max retries error, got: %v", err)
	})

	t.Run("invalid_json_handling", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		// A truncated document written by something other than the pipeline.
		_, err := bucket.Put(ctx, "meta.corrupt", []byte("{invalid json}"))
		require.NoError(t, err)

		err = kv.UpdateJSON(ctx, "meta.corrupt", func(_ map[string]any) error {
			t.Fatal("UpdateJSON must not invoke the mutator on unparseable data")
			return nil
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unmarshal")
	})

	t.Run("update_deleted_key", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		_, err := bucket.Create(ctx, "profile.culled", []byte(`{"latest_weight":390}`))
		require.NoError(t, err)

		err = bucket.Delete(ctx, "profile.culled")
		require.NoError(t, err)

		// A reading for a deleted animal starts its profile over.
		err = kv.UpdateWithRetry(ctx, "profile.culled", func(current []byte) ([]byte, error) {
			assert.Nil(t, current, "deleted key should present as nil")
			return []byte(`{"latest_weight":395}`), nil
		})
		assert.NoError(t, err)

		entry, err := kv.Get(ctx, "profile.culled")
		require.NoError(t, err)
		assert.Equal(t, `{"latest_weight":395}`, string(entry.Value))
	})

	t.Run("panic_recovery", func(t *testing.T) {
		kv := client.NewKVStore(bucket)

		// Panics in the mutator must surface to the caller, not vanish
		// inside the retry loop.
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()

			return kv.UpdateWithRetry(ctx, "profile.broken", func(_ []byte) ([]byte, error) {
				panic("mutator blew up")
			})
		}()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	})
}
