package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/kdgregory/readthrough/internal/keylock"
	"github.com/kdgregory/readthrough/internal/util"
)

// cache implements Cache: a bounded LRU store plus a mode-specific miss
// path selected once at construction.
type cache[K comparable, V any] struct {
	st      *store[K, V]
	loader  Loader[K, V]
	metrics Metrics
	closed  atomic.Bool

	// miss is the Concurrency-specific load path, bound in New.
	miss func(ctx context.Context, k K) (V, error)

	// Coordination state: keys is set under ByKey, serial under
	// SingleThreaded; both are nil under None.
	keys   *keylock.Table[K]
	serial *semaphore.Weighted

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_          util.CacheLinePad
	loads      util.PaddedAtomicInt64
	loadErrors util.PaddedAtomicInt64
}

// New constructs a cache with the provided Options.
// Defaults:
//   - Concurrency zero value -> ByKey
//   - nil Metrics            -> NoopMetrics
//
// New panics on Capacity < 1, a nil Loader, or an unrecognized Concurrency
// value: all three are programmer errors, surfaced at construction.
func New[K comparable, V any](opt Options[K, V]) Cache[K, V] {
	if opt.Capacity < 1 {
		panic("cache: Capacity must be >= 1")
	}
	if opt.Loader == nil {
		panic("cache: Loader is required")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}

	c := &cache[K, V]{
		st:      newStore[K, V](opt.Capacity, opt.OnEvict, opt.Metrics),
		loader:  opt.Loader,
		metrics: opt.Metrics,
	}
	switch opt.Concurrency {
	case ByKey:
		c.keys = keylock.New[K]()
		c.miss = c.missByKey
	case None:
		c.miss = c.load
	case SingleThreaded:
		c.serial = semaphore.NewWeighted(1)
		c.miss = c.missSerial
	default:
		panic(fmt.Sprintf("cache: unrecognized Concurrency value %d", int(opt.Concurrency)))
	}

	// return pointer-to-impl as the interface (avoids unexported-return lint)
	return c
}

// ---- Cache[K,V] implementation ----

// Retrieve returns the value for k, loading it on miss per the configured
// Concurrency mode.
func (c *cache[K, V]) Retrieve(ctx context.Context, k K) (V, error) {
	if c.closed.Load() {
		var zero V
		return zero, ErrClosed
	}
	// fast path
	if v, ok := c.st.get(k); ok {
		return v, nil
	}
	return c.miss(ctx, k)
}

// Get returns the cached value for k without invoking the Loader.
func (c *cache[K, V]) Get(k K) (V, bool) {
	if c.closed.Load() {
		var zero V
		return zero, false
	}
	return c.st.get(k)
}

// Remove deletes k if present and returns true on success.
func (c *cache[K, V]) Remove(k K) bool {
	if c.closed.Load() {
		return false
	}
	return c.st.remove(k)
}

// Size returns the current number of cached entries.
func (c *cache[K, V]) Size() int {
	return c.st.size()
}

// Clear empties the cache. In-flight Retrieve calls past their cache check
// still complete and commit their result afterward.
func (c *cache[K, V]) Clear() {
	c.st.clear()
}

// Stats returns a snapshot of the activity counters.
func (c *cache[K, V]) Stats() Stats {
	return Stats{
		Hits:       c.st.hits.Load(),
		Misses:     c.st.misses.Load(),
		Evictions:  c.st.evicts.Load(),
		Loads:      c.loads.Load(),
		LoadErrors: c.loadErrors.Load(),
	}
}

// Close marks the cache as closed. Future Retrieve calls return ErrClosed.
func (c *cache[K, V]) Close() error {
	c.closed.Store(true)
	return nil
}

// ---- miss paths ----

// missByKey serializes loads per key. Holding the key's lock, it rechecks
// the store: a goroutine that queued behind the loading goroutine finds the
// committed value and returns it without running the Loader, so T concurrent
// misses for one key produce exactly one Loader invocation.
func (c *cache[K, V]) missByKey(ctx context.Context, k K) (V, error) {
	if err := c.keys.Acquire(ctx, k); err != nil {
		var zero V
		return zero, &waitError{cause: err}
	}
	defer c.keys.Release(k)

	if v, ok := c.st.recheck(k); ok {
		return v, nil
	}
	return c.load(ctx, k)
}

// missSerial serializes the entire load path across all keys: at most one
// Loader invocation runs at a time for this cache instance.
func (c *cache[K, V]) missSerial(ctx context.Context, k K) (V, error) {
	if err := c.serial.Acquire(ctx, 1); err != nil {
		var zero V
		return zero, &waitError{cause: err}
	}
	defer c.serial.Release(1)

	if v, ok := c.st.recheck(k); ok {
		return v, nil
	}
	return c.load(ctx, k)
}

// load runs the Loader outside any internal lock and commits the result.
// The value returned to the caller is whatever the store retains: if a
// racing goroutine (None mode) committed first, its value wins and ours is
// discarded. A Loader error propagates unchanged and caches nothing.
func (c *cache[K, V]) load(ctx context.Context, k K) (V, error) {
	start := time.Now()
	v, err := c.loader(ctx, k)
	c.metrics.Load(time.Since(start), err)
	if err != nil {
		c.loadErrors.Add(1)
		var zero V
		return zero, err
	}
	c.loads.Add(1)
	return c.st.commit(k, v), nil
}
