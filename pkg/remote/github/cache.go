package github

import (
	"context"
	"sync"

	"gitlab.com/tozd/go/errors"
)

// future holds one in-flight or settled fetch. Waiters block on ready.
type future[V any] struct {
	ready chan struct{}
	val   V
	err   error
}

// cache memoizes fetches by key with in-flight deduplication: concurrent
// callers for the same key share one fetch. Settled errors are memoized
// like values, so a key is fetched at most once per cache lifetime unless
// evicted.
type cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*future[V]
}

func newCache[V any]() *cache[V] {
	return &cache[V]{entries: map[string]*future[V]{}}
}

// do returns the memoized value for key, running fetch if this is the first
// caller. Waiting on another caller's fetch respects ctx.
func (c *cache[V]) do(ctx context.Context, key string, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	if f, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.ready:
			return f.val, f.err
		case <-ctx.Done():
			var zero V
			return zero, errors.Errorf("waiting for in-flight fetch: %w", ctx.Err())
		}
	}

	f := &future[V]{ready: make(chan struct{})}
	c.entries[key] = f
	c.mu.Unlock()

	f.val, f.err = fetch()
	close(f.ready)
	return f.val, f.err
}

// evict drops the entry for key so the next do re-fetches.
func (c *cache[V]) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
