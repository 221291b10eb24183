package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTL_SetGet(t *testing.T) {
	c := NewTTL[string](context.Background(), time.Minute, 0)

	c.Set("a", "one")
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "one", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTL_Expiry(t *testing.T) {
	c := NewTTL[int](context.Background(), 10*time.Millisecond, 0)

	c.Set("k", 42)
	_, ok := c.Get("k")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire after its ttl")
	assert.Equal(t, 0, c.Size())
}

func TestTTL_Replace(t *testing.T) {
	c := NewTTL[int](context.Background(), time.Minute, 0)

	c.Set("k", 1)
	c.Set("k", 2)
	v, _ := c.Get("k")
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Size())
}

func TestTTL_DeleteAndClear(t *testing.T) {
	c := NewTTL[int](context.Background(), time.Minute, 0)

	c.Set("a", 1)
	c.Set("b", 2)
	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestTTL_Stats(t *testing.T) {
	c := NewTTL[int](context.Background(), time.Minute, 0)

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestTTL_EvictionCallback(t *testing.T) {
	var mu sync.Mutex
	var evicted []string

	c := NewTTL[int](context.Background(), 10*time.Millisecond, 0,
		WithEvictionCallback[int](func(key string, _ int) {
			mu.Lock()
			evicted = append(evicted, key)
			mu.Unlock()
		}))

	c.Set("k", 1)
	time.Sleep(20 * time.Millisecond)
	c.Get("k")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"k"}, evicted)
}

func TestTTL_JanitorSweeps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewTTL[int](ctx, 10*time.Millisecond, 5*time.Millisecond)
	c.Set("k", 1)

	assert.Eventually(t, func() bool {
		return c.Size() == 0
	}, time.Second, 5*time.Millisecond, "janitor should sweep the expired entry")
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestTTL_ConcurrentAccess(t *testing.T) {
	c := NewTTL[int](context.Background(), time.Minute, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("shared", n)
				c.Get("shared")
			}
		}(i)
	}
	wg.Wait()

	_, ok := c.Get("shared")
	assert.True(t, ok)
}
