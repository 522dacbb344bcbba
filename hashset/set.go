// Package hashset implements an open hash set over allocator-backed slot
// arrays, with a single-writer path and a lock-free multi-lane insertion
// path.
//
// Keys live in a flat item array; bucket chains and free lists are both
// threaded through one dual-purpose next array of slot indices. The
// concurrent path shares only three things across lanes: the bucket-chain
// head words (CAS), one atomic high-water counter for unclaimed slots
// (fetch-add), and the per-lane free-list heads (CAS, with cross-lane
// stealing guarded by a drain sentinel). No lock is ever taken.
package hashset

import (
	"fmt"
	"hash/maphash"
	"iter"
	"math/bits"
	"sync/atomic"

	"github.com/hupe1980/slotted"
	"github.com/hupe1980/slotted/alloc"
	"github.com/hupe1980/slotted/guard"
)

const (
	// none is the sentinel meaning "no slot" in chains and free lists.
	none = int32(-1)
	// draining marks a lane's free-list head while the lane batch-claims
	// fresh slots; stealers must not pop past it.
	draining = int32(-2)
	// claimBatch is how many fresh slots a lane claims from the shared
	// counter at once.
	claimBatch = 16
)

// laneFreeList is one lane's free-list head, padded to its own cache line so
// lanes do not false-share.
type laneFreeList struct {
	head atomic.Int32
	_    [60]byte
}

// Set is an open hash set with bucket-chained slot indices.
//
// TryAdd, Remove, Reallocate, Clear, Len, Items and ToSlice are
// single-writer operations: concurrent calls from more than one lane are
// undefined behavior the caller must prevent. Writers obtained from Writer
// provide the lock-free multi-lane insertion path; Contains is safe
// concurrently with lane writers.
type Set[K comparable] struct {
	alloc alloc.Allocator
	guard guard.Guard

	items   []K
	next    []int32
	buckets []int32

	bucketMask uint64
	capacity   int

	// allocated is the high-water count of slots ever claimed. Batched
	// claims may push it past capacity; indexes at or beyond capacity are
	// never used and Reallocate clamps it back.
	allocated atomic.Int64

	lanes []laneFreeList
	seed  maphash.Seed

	released bool
}

type options struct {
	guard guard.Guard
	lanes int
}

// Option is a configuration option for Set.
type Option func(*options)

// WithGuard sets the access guard. Defaults to guard.Bounds.
func WithGuard(g guard.Guard) Option {
	return func(o *options) {
		if g != nil {
			o.guard = g
		}
	}
}

// WithLanes fixes the upper bound on concurrent writer lanes. Defaults to 1.
func WithLanes(n int) Option {
	return func(o *options) {
		o.lanes = n
	}
}

// New creates a Set with the given key capacity. The bucket count is the
// next power of two at or above twice the capacity. The allocator must be
// non-nil and capacity positive; validation fails before any allocation.
//
// With a Mapped allocator, K must not contain Go pointers.
func New[K comparable](a alloc.Allocator, capacity int, opts ...Option) (*Set[K], error) {
	if a == nil {
		return nil, slotted.ErrInvalidAllocator
	}
	if capacity <= 0 {
		return nil, &slotted.ErrInvalidCapacity{Capacity: capacity}
	}

	o := options{guard: guard.Bounds, lanes: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lanes < 1 {
		return nil, slotted.ErrInvalidLane
	}

	s := &Set[K]{
		alloc: a,
		guard: o.guard,
		lanes: make([]laneFreeList, o.lanes),
		seed:  maphash.MakeSeed(),
	}
	for i := range s.lanes {
		s.lanes[i].head.Store(none)
	}

	if err := s.allocateBuffers(capacity); err != nil {
		return nil, err
	}

	return s, nil
}

// allocateBuffers installs fresh item/next/bucket buffers for capacity,
// leaving any previous buffers untouched on error.
func (s *Set[K]) allocateBuffers(capacity int) error {
	bucketCount := nextPowerOfTwo(2 * capacity)

	items, err := alloc.MakeSlice[K](s.alloc, capacity)
	if err != nil {
		return err
	}
	next, err := alloc.MakeSlice[int32](s.alloc, capacity)
	if err != nil {
		_ = alloc.FreeSlice(s.alloc, items)
		return err
	}
	buckets, err := alloc.MakeSlice[int32](s.alloc, bucketCount)
	if err != nil {
		_ = alloc.FreeSlice(s.alloc, items)
		_ = alloc.FreeSlice(s.alloc, next)
		return err
	}
	for i := range buckets {
		buckets[i] = none
	}

	s.items = items
	s.next = next
	s.buckets = buckets
	s.bucketMask = uint64(bucketCount - 1)
	s.capacity = capacity
	return nil
}

// Lanes returns the configured lane count.
func (s *Set[K]) Lanes() int { return len(s.lanes) }

// Cap returns the key capacity.
func (s *Set[K]) Cap() int { return s.capacity }

func (s *Set[K]) bucketIndex(k K) uint64 {
	return maphash.Comparable(s.seed, k) & s.bucketMask
}

// chainContains walks a bucket chain from head looking for k. Loads are
// atomic so the walk is safe concurrently with lane writers.
func (s *Set[K]) chainContains(head int32, k K) bool {
	for i := head; i != none; i = atomic.LoadInt32(&s.next[i]) {
		if s.items[i] == k {
			return true
		}
	}
	return false
}

// TryAdd inserts k on the single-writer path. It returns false if k is
// already present. When no free slot exists the set doubles its capacity.
func (s *Set[K]) TryAdd(k K) (bool, error) {
	if s.released {
		return false, slotted.ErrReleased
	}
	s.guard.Writable()

	b := s.bucketIndex(k)
	if s.chainContains(s.buckets[b], k) {
		return false, nil
	}

	idx, ok := s.popFree(0)
	if !ok {
		n := s.allocated.Load()
		if n >= int64(s.capacity) {
			if err := s.Reallocate(2 * s.capacity); err != nil {
				return false, err
			}
			b = s.bucketIndex(k)
			n = s.allocated.Load()
		}
		idx = int32(n)
		s.allocated.Store(n + 1)
	}

	s.items[idx] = k
	s.next[idx] = s.buckets[b]
	s.buckets[b] = idx
	return true, nil
}

// Contains reports whether k is in the set. Safe concurrently with lane
// writers.
func (s *Set[K]) Contains(k K) bool {
	if s.released {
		panic(slotted.ErrReleased)
	}
	s.guard.Readable()

	b := s.bucketIndex(k)
	return s.chainContains(atomic.LoadInt32(&s.buckets[b]), k)
}

// Remove deletes k on the single-writer path, returning whether it was
// present. The freed slot is pushed onto lane 0's free list.
func (s *Set[K]) Remove(k K) (bool, error) {
	if s.released {
		return false, slotted.ErrReleased
	}
	s.guard.Writable()

	b := s.bucketIndex(k)
	prev := none
	for i := s.buckets[b]; i != none; i = s.next[i] {
		if s.items[i] == k {
			if prev == none {
				s.buckets[b] = s.next[i]
			} else {
				s.next[prev] = s.next[i]
			}
			var zero K
			s.items[i] = zero
			s.pushFree(0, i)
			return true, nil
		}
		prev = i
	}
	return false, nil
}

// Reallocate moves the set to buffers sized for newCapacity, which must not
// be below the current capacity. Item and next arrays are copied verbatim —
// free-listed slots included, so every lane's free list survives — and every
// bucket chain is rebuilt under the new mask. Single-writer.
func (s *Set[K]) Reallocate(newCapacity int) error {
	if s.released {
		return slotted.ErrReleased
	}
	s.guard.Writable()
	if newCapacity < s.capacity {
		return &slotted.ErrInvalidCapacity{Capacity: newCapacity}
	}

	oldItems, oldNext, oldBuckets := s.items, s.next, s.buckets
	oldCapacity := s.capacity

	if err := s.allocateBuffers(newCapacity); err != nil {
		return err
	}

	copy(s.items, oldItems)
	copy(s.next, oldNext)

	// Slots claimed past the old capacity were never usable; the fresh tail
	// starts right after the old capacity.
	if s.allocated.Load() > int64(oldCapacity) {
		s.allocated.Store(int64(oldCapacity))
	}

	// Rebuild each chain by walking the old buckets and pushing every slot
	// under the new mask. Free-list links are untouched: free slots are not
	// chained in any bucket.
	for b := range oldBuckets {
		for i := oldBuckets[b]; i != none; {
			nx := oldNext[i]
			nb := s.bucketIndex(s.items[i])
			s.next[i] = s.buckets[nb]
			s.buckets[nb] = i
			i = nx
		}
	}

	var firstErr error
	if err := alloc.FreeSlice(s.alloc, oldItems); err != nil {
		firstErr = err
	}
	if err := alloc.FreeSlice(s.alloc, oldNext); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := alloc.FreeSlice(s.alloc, oldBuckets); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Len returns the number of keys. Single-writer; do not call concurrently
// with lane writers.
func (s *Set[K]) Len() int {
	if s.released {
		panic(slotted.ErrReleased)
	}
	s.guard.Readable()

	count := 0
	for b := range s.buckets {
		for i := s.buckets[b]; i != none; i = s.next[i] {
			count++
		}
	}
	return count
}

// Items returns an iterator over the keys in unspecified order.
// Single-writer; do not iterate concurrently with lane writers.
func (s *Set[K]) Items() iter.Seq[K] {
	return func(yield func(K) bool) {
		if s.released {
			panic(slotted.ErrReleased)
		}
		s.guard.Readable()

		for b := range s.buckets {
			for i := s.buckets[b]; i != none; i = s.next[i] {
				if !yield(s.items[i]) {
					return
				}
			}
		}
	}
}

// ToSlice returns the keys in unspecified order. Single-writer.
func (s *Set[K]) ToSlice() []K {
	out := make([]K, 0, s.capacity)
	for k := range s.Items() {
		out = append(out, k)
	}
	return out
}

// Clear drops all keys and resets every free list. Single-writer.
func (s *Set[K]) Clear() {
	if s.released {
		panic(slotted.ErrReleased)
	}
	s.guard.Writable()

	for i := range s.buckets {
		s.buckets[i] = none
	}
	for i := range s.lanes {
		s.lanes[i].head.Store(none)
	}
	s.allocated.Store(0)
}

// Release frees the item, next and bucket buffers. The set must not be used
// afterwards; a second Release returns ErrReleased.
func (s *Set[K]) Release() error {
	if s.released {
		return slotted.ErrReleased
	}

	var firstErr error
	if err := alloc.FreeSlice(s.alloc, s.items); err != nil {
		firstErr = err
	}
	if err := alloc.FreeSlice(s.alloc, s.next); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := alloc.FreeSlice(s.alloc, s.buckets); err != nil && firstErr == nil {
		firstErr = err
	}
	s.items = nil
	s.next = nil
	s.buckets = nil
	s.capacity = 0
	s.released = true
	return firstErr
}

func (s *Set[K]) String() string {
	return fmt.Sprintf("hashset.Set{cap: %d, buckets: %d, lanes: %d, allocated: %d}",
		s.capacity, len(s.buckets), len(s.lanes), s.allocated.Load())
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
