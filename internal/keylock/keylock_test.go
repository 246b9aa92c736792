package keylock

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Acquire/Release round-trip: the entry exists while held and is discarded
// once nobody holds or awaits it.
func TestTable_AcquireRelease(t *testing.T) {
	t.Parallel()

	tab := New[string]()
	ctx := context.Background()

	require.NoError(t, tab.Acquire(ctx, "a"))
	assert.Equal(t, 1, tab.Len())

	tab.Release("a")
	assert.Equal(t, 0, tab.Len(), "entry must be discarded at refcount zero")
}

// The lock is exclusive per key: a critical section counter must never
// observe two holders.
func TestTable_MutualExclusion(t *testing.T) {
	t.Parallel()

	tab := New[string]()
	ctx := context.Background()

	var inside atomic.Int64
	var overlapped atomic.Bool

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				if err := tab.Acquire(ctx, "k"); err != nil {
					return err
				}
				if inside.Add(1) > 1 {
					overlapped.Store(true)
				}
				inside.Add(-1)
				tab.Release("k")
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.False(t, overlapped.Load(), "two goroutines held the same key lock")
	assert.Equal(t, 0, tab.Len())
}

// Unrelated keys never block each other: with "a" held, "b" is acquirable
// within a short context deadline.
func TestTable_IndependentKeys(t *testing.T) {
	t.Parallel()

	tab := New[string]()
	require.NoError(t, tab.Acquire(context.Background(), "a"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tab.Acquire(ctx, "b"), "b must not queue behind a")

	tab.Release("a")
	tab.Release("b")
	assert.Equal(t, 0, tab.Len())
}

// A canceled waiter gets the context error, rolls back its reference, and
// leaves the holder untouched.
func TestTable_CancelWhileWaiting(t *testing.T) {
	t.Parallel()

	tab := New[string]()
	require.NoError(t, tab.Acquire(context.Background(), "a"))

	ctx, cancel := context.WithCancel(context.Background())
	waiter := make(chan error, 1)
	go func() {
		waiter <- tab.Acquire(ctx, "a")
	}()

	time.Sleep(10 * time.Millisecond) // let the waiter block
	cancel()

	err := <-waiter
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, tab.Len(), "holder's entry must survive the canceled wait")

	// The holder is unaffected and the entry still tears down cleanly.
	tab.Release("a")
	assert.Equal(t, 0, tab.Len())
}

// Release without a matching Acquire is a programmer error.
func TestTable_ReleaseWithoutAcquirePanics(t *testing.T) {
	t.Parallel()

	tab := New[string]()
	assert.Panics(t, func() { tab.Release("nope") })
}

// Churn: heavy concurrent acquire/release over a small keyspace must leave
// the table empty (no leaked entries, no stuck refcounts).
func TestTable_ConcurrentChurn(t *testing.T) {
	t.Parallel()

	tab := New[string]()
	ctx := context.Background()

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for i := 0; i < 500; i++ {
				k := "k:" + strconv.Itoa(i%7)
				if err := tab.Acquire(ctx, k); err != nil {
					return err
				}
				tab.Release(k)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 0, tab.Len())
}
