package cache

import (
	"context"
)

// Concurrency selects how concurrent Retrieve calls that miss on the same
// key are coordinated while the Loader runs.
type Concurrency int

const (
	// ByKey serializes loads per key: at most one Loader invocation is in
	// flight for a given key at any instant, while unrelated keys load
	// concurrently. Lock entries are reference-counted and discarded as
	// soon as no goroutine holds or awaits them. This is the default.
	ByKey Concurrency = iota

	// None performs no coordination. Concurrent misses for the same key may
	// each run the Loader; whichever result is committed first is retained
	// and returned to every caller, later results are discarded.
	None

	// SingleThreaded serializes the entire load path across all keys: at
	// most one Loader invocation runs at any time for this cache instance.
	// Use when the Loader itself is not safe for concurrent invocation.
	SingleThreaded
)

// String returns a stable name for the mode (used in logs and the bench tool).
func (c Concurrency) String() string {
	switch c {
	case ByKey:
		return "by-key"
	case None:
		return "none"
	case SingleThreaded:
		return "single-threaded"
	default:
		return "unknown"
	}
}

// Loader produces the value for a key on a cache miss. It must behave as a
// pure function of the key for caching to be meaningful; it may block, and
// it may return an error (in which case nothing is cached). Unless the cache
// runs in SingleThreaded mode, the Loader must be safe for concurrent use.
type Loader[K comparable, V any] func(ctx context.Context, k K) (V, error)

// Options configures the cache. Capacity and Loader are required; the
// remaining fields have usable zero values, with defaults applied in New():
//   - Concurrency zero value => ByKey
//   - nil Metrics            => NoopMetrics
type Options[K comparable, V any] struct {
	// Capacity is the maximum number of live entries; must be >= 1.
	// When an insert would exceed it, the least-recently-used entry is
	// evicted first.
	Capacity int

	// Loader fetches a value on cache miss. Required.
	Loader Loader[K, V]

	// Concurrency selects the miss-coordination mode (default ByKey).
	Concurrency Concurrency

	// OnEvict is called for every capacity eviction, under the store lock;
	// keep callbacks lightweight. Not called by Remove or Clear.
	OnEvict func(k K, v V)

	// Metrics receives hit/miss/evict/size/load signals. Nil => NoopMetrics.
	Metrics Metrics
}
