// Package keylock provides a reference-counted table of per-key exclusive
// locks with context-aware acquisition.
package keylock

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Table hands out one exclusive lock per key. Unrelated keys never block
// each other; goroutines contending for the same key queue on a shared
// entry. Entries are created lazily on first use and discarded as soon as
// no goroutine holds or awaits them, so the table's footprint is bounded by
// the number of in-flight keys, not by the keyspace.
//
// The refcount covers both holders and waiters and is only touched under
// the table mutex, so an entry is never discarded while a goroutine still
// references it and a fresh entry is only ever created when no prior entry
// for that key survives.
type Table[K comparable] struct {
	mu    sync.Mutex
	locks map[K]*lock
}

// lock pairs a binary semaphore with the number of goroutines that hold or
// await it. The semaphore (rather than sync.Mutex) makes the wait
// cancellable via context.
type lock struct {
	sem  *semaphore.Weighted
	refs int
}

// New returns an empty lock table.
func New[K comparable]() *Table[K] {
	return &Table[K]{locks: make(map[K]*lock)}
}

// Acquire blocks until the calling goroutine holds the lock for k, or ctx is
// done. On error the lock is not held and the entry's refcount has been
// rolled back.
func (t *Table[K]) Acquire(ctx context.Context, k K) error {
	t.mu.Lock()
	l := t.locks[k]
	if l == nil {
		l = &lock{sem: semaphore.NewWeighted(1)}
		t.locks[k] = l
	}
	l.refs++
	t.mu.Unlock()

	if err := l.sem.Acquire(ctx, 1); err != nil {
		t.unref(k, l)
		return err
	}
	return nil
}

// Release drops the lock for k. It must only be called by a goroutine whose
// Acquire(k) succeeded.
func (t *Table[K]) Release(k K) {
	t.mu.Lock()
	l := t.locks[k]
	t.mu.Unlock()
	if l == nil {
		panic("keylock: Release without matching Acquire")
	}
	l.sem.Release(1)
	t.unref(k, l)
}

// Len reports the number of live lock entries (keys with holders or waiters).
func (t *Table[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.locks)
}

// unref drops one reference and discards the entry once nobody holds or
// awaits it.
func (t *Table[K]) unref(k K, l *lock) {
	t.mu.Lock()
	defer t.mu.Unlock()

	l.refs--
	if l.refs == 0 && t.locks[k] == l {
		delete(t.locks, k)
	}
}
