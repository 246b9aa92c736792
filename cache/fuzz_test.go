package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
)

// Fuzz basic Retrieve/Remove semantics under arbitrary string inputs.
// Guards against panics and ensures the read-through invariants hold.
// NOTE: We cap key/value lengths to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzCache_RetrieveRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		// Cap lengths to keep memory bounded during fuzzing.
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		var calls atomic.Int64
		want := v + ":" + k
		c := New[string, string](Options[string, string]{
			Capacity: 16,
			Loader: func(_ context.Context, k string) (string, error) {
				calls.Add(1)
				return v + ":" + k, nil
			},
		})
		t.Cleanup(func() { _ = c.Close() })

		ctx := context.Background()

		// Miss -> load; the result must round-trip.
		got, err := c.Retrieve(ctx, k)
		if err != nil || got != want {
			t.Fatalf("first Retrieve: got %q err=%v, want %q", got, err, want)
		}
		// Hit -> same value, no second load.
		if got2, err := c.Retrieve(ctx, k); err != nil || got2 != want {
			t.Fatalf("second Retrieve: got %q err=%v", got2, err)
		}
		if calls.Load() != 1 {
			t.Fatalf("loader ran %d times for a hit", calls.Load())
		}

		// Remove must delete and return true once.
		if !c.Remove(k) {
			t.Fatal("Remove must return true")
		}
		if _, ok := c.Get(k); ok {
			t.Fatal("key must be absent after Remove")
		}

		// After removal, Retrieve loads again.
		if got3, err := c.Retrieve(ctx, k); err != nil || got3 != want {
			t.Fatalf("Retrieve after Remove: got %q err=%v", got3, err)
		}
		if calls.Load() != 2 {
			t.Fatalf("loader ran %d times, want 2", calls.Load())
		}
	})
}
