package cache

import (
	"context"
)

// Cache is a bounded, read-through, least-recently-used key/value cache.
// All methods are safe for concurrent use by multiple goroutines.
//
// Values are produced exclusively by the configured Loader: callers never
// insert values directly. Typical operation cost is amortized O(1) — a map
// lookup plus constant-time list adjustments under the store lock. The
// loader itself always runs outside the store lock.
type Cache[K comparable, V any] interface {
	// Retrieve returns the value for k, invoking the Loader on a miss
	// according to the configured Concurrency mode. On a hit the entry is
	// promoted to most-recently-used.
	//
	// A Loader error propagates unchanged and caches nothing; the next
	// Retrieve for k runs the Loader again. If ctx is done while this call
	// is blocked waiting on another goroutine's in-flight load, Retrieve
	// returns an error matching both ErrWaitCanceled and ctx.Err().
	Retrieve(ctx context.Context, k K) (V, error)

	// Get returns the cached value for k and a presence flag. It never
	// invokes the Loader. On hit, the entry is promoted to MRU.
	Get(k K) (V, bool)

	// Remove deletes k if present and returns true on success.
	Remove(k K) bool

	// Size returns the current number of cached entries.
	Size() int

	// Clear empties the cache. Retrieve calls already past their cache
	// check are unaffected: they complete and commit their result afterward.
	Clear()

	// Stats returns a snapshot of the activity counters.
	Stats() Stats

	// Close marks the cache as closed. Subsequent Retrieve calls return
	// ErrClosed; Get reports a miss. Current implementation is a soft close
	// and returns nil.
	Close() error
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	Hits       int64  // lookups satisfied from the cache
	Misses     int64  // lookups that fell through to the load path
	Evictions  uint64 // entries removed to satisfy the capacity bound
	Loads      int64  // Loader invocations that returned a value
	LoadErrors int64  // Loader invocations that returned an error
}
