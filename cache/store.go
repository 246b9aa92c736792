package cache

import (
	"sync"

	"github.com/kdgregory/readthrough/internal/util"
)

// store is the bounded LRU map behind the cache: a map[K]*node for lookups
// plus an intrusive doubly linked list for recency (head=MRU, tail=LRU),
// both guarded by a single mutex.
//
// The mutex is held only for the brief check/commit/evict operations, never
// across a Loader call, so a slow load does not block unrelated hits.
type store[K comparable, V any] struct {
	// ---- guarded by mu ----
	mu   sync.Mutex
	m    map[K]*node[K, V]
	head *node[K, V] // MRU
	tail *node[K, V] // LRU
	len  int
	cap  int

	onEvict func(k K, v V)
	metrics Metrics

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

func newStore[K comparable, V any](capacity int, onEvict func(k K, v V), m Metrics) *store[K, V] {
	return &store[K, V]{
		m:       make(map[K]*node[K, V], capacity),
		cap:     capacity,
		onEvict: onEvict,
		metrics: m,
	}
}

// get returns the value for k and promotes the entry to MRU on hit.
func (s *store[K, V]) get(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		s.misses.Add(1)
		s.metrics.Miss()
		var zero V
		return zero, false
	}
	s.moveToFront(n)
	s.hits.Add(1)
	s.metrics.Hit()
	return n.val, true
}

// recheck is the double-check performed after acquiring a load lock: like
// get, but a miss is not counted again (the fast path already counted it).
func (s *store[K, V]) recheck(k K) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		var zero V
		return zero, false
	}
	s.moveToFront(n)
	s.hits.Add(1)
	s.metrics.Hit()
	return n.val, true
}

// commit stores a freshly loaded value for k, evicting the LRU entry if the
// capacity bound would be exceeded, and returns the value now cached for k.
//
// If another goroutine committed a value for k first, that existing value is
// returned and v is discarded: the first successful completion wins, so every
// caller observes the single retained value.
func (s *store[K, V]) commit(k K, v V) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[k]; ok {
		s.moveToFront(n)
		return n.val
	}

	n := &node[K, V]{key: k, val: v}
	s.m[k] = n
	s.insertFront(n)

	for s.len > s.cap {
		tail := s.tail
		if tail == nil {
			break
		}
		s.evictNode(tail)
	}
	s.metrics.Size(s.len)
	return v
}

// remove deletes an entry by key. Returns true if the entry existed.
// Explicit removal is not counted as an eviction.
func (s *store[K, V]) remove(k K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[k]
	if !ok {
		return false
	}
	s.removeNode(n)
	delete(s.m, k)
	s.metrics.Size(s.len)
	return true
}

// size returns the number of resident entries.
func (s *store[K, V]) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.len
}

// clear drops every entry. OnEvict callbacks are not fired: the caller asked
// for the state to go away, nothing was pushed out by capacity pressure.
func (s *store[K, V]) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m = make(map[K]*node[K, V], s.cap)
	s.head, s.tail = nil, nil
	s.len = 0
	s.metrics.Size(0)
}

// -------------------- internals (mu held) --------------------

// insertFront inserts n at MRU in O(1).
func (s *store[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

// moveToFront promotes n to MRU in O(1).
func (s *store[K, V]) moveToFront(n *node[K, V]) {
	if n == s.head {
		return
	}
	// detach
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	// insert at head
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

// removeNode removes n from the list and updates counters in O(1).
func (s *store[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
}

// evictNode removes the node, updates metrics/counters, and calls onEvict.
func (s *store[K, V]) evictNode(n *node[K, V]) {
	s.removeNode(n)
	delete(s.m, n.key)
	s.evicts.Add(1)
	s.metrics.Evict()
	if cb := s.onEvict; cb != nil {
		// Called under the store lock; callbacks must stay lightweight.
		cb(n.key, n.val)
	}
}
