// Package cache provides a generic, bounded, read-through LRU cache.
//
// A cache is built around a caller-supplied Loader: on a miss, Retrieve
// invokes the Loader to produce the missing value and stores it for future
// lookups. Callers never insert values directly. When the entry count would
// exceed Capacity, the least-recently-used entry is evicted.
//
// # Design
//
//   - Storage: a map[K]*node for lookups and an intrusive MRU↔LRU doubly
//     linked list for recency, both guarded by a single mutex. All store
//     operations are O(1); the mutex is never held across a Loader call,
//     so slow loads do not block unrelated hits.
//
//   - Concurrency modes: Options.Concurrency controls how concurrent misses
//     for the same key are coordinated. ByKey (the default) serializes loads
//     per key through a reference-counted lock table; unrelated keys load in
//     parallel and a queued goroutine picks up the committed value instead
//     of loading again. SingleThreaded serializes every load through one
//     cache-wide lock, for Loaders that are not safe for concurrent use.
//     None skips coordination entirely: racing loads may run redundantly,
//     but only the first committed result is retained and every caller
//     observes it.
//
//   - Cancellation: lock waits are context-aware. A caller canceled while
//     waiting on another goroutine's in-flight load gets an error matching
//     both ErrWaitCanceled and the context error, distinct from a Loader
//     failure. The Loader receives the caller's context and is otherwise
//     responsible for its own timeouts.
//
//   - Failures: a Loader error propagates to the caller unchanged and
//     nothing is cached, so the next Retrieve for that key tries again.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Size/Load signals.
//     NoopMetrics is the default; a Prometheus adapter lives in
//     metrics/prom. Stats() exposes the same counters programmatically.
//
// # Basic usage
//
//	c := cache.New[string, string](cache.Options[string, string]{
//	    Capacity: 1024,
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        // e.g. fetch from DB
//	        return "v:" + k, nil
//	    },
//	})
//	defer c.Close()
//
//	v, err := c.Retrieve(context.Background(), "key")
//
// # Choosing a mode
//
//	// Loader hits a remote service: dedupe concurrent fetches per key.
//	cache.Options[string, []byte]{Capacity: 10_000} // ByKey is the default
//
//	// Loader is cheap and idempotent: skip coordination overhead.
//	cache.Options[string, []byte]{Capacity: 10_000, Concurrency: cache.None}
//
//	// Loader wraps a non-thread-safe client: one load at a time.
//	cache.Options[string, []byte]{Capacity: 10_000, Concurrency: cache.SingleThreaded}
package cache
