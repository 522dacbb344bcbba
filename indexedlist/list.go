// Package indexedlist implements a doubly linked list whose nodes live in a
// densely packed slot array.
//
// Links are integer slot indices into parallel next/prev arrays, never
// addresses, so the structure cannot dangle: every link is an offset
// validated against capacity. Live nodes always occupy the slot prefix
// [0, Len); Remove keeps the prefix dense by moving the last live slot into
// the gap. A generation counter invalidates every outstanding cursor on
// structural mutation, because compaction can silently repoint a slot index
// at a different logical node.
package indexedlist

import (
	"fmt"

	"github.com/hupe1980/slotted"
	"github.com/hupe1980/slotted/alloc"
	"github.com/hupe1980/slotted/guard"
)

// none is the sentinel slot index meaning "no node".
const none = int32(-1)

// List is a doubly linked list over parallel index arrays.
// All methods assume exclusive access.
type List[T any] struct {
	alloc alloc.Allocator
	guard guard.Guard

	values []T
	next   []int32
	prev   []int32

	head, tail int32
	length     int
	capacity   int

	// generation starts at 1 and increases on every structural mutation;
	// cursors capture it at creation.
	generation uint64

	released bool
}

type options struct {
	guard guard.Guard
}

// Option is a configuration option for List.
type Option func(*options)

// WithGuard sets the access guard. Defaults to guard.Bounds.
func WithGuard(g guard.Guard) Option {
	return func(o *options) {
		if g != nil {
			o.guard = g
		}
	}
}

// New creates an empty List with the given slot capacity. The allocator must
// be non-nil and capacity positive; validation fails before any allocation.
func New[T any](a alloc.Allocator, capacity int, opts ...Option) (*List[T], error) {
	if a == nil {
		return nil, slotted.ErrInvalidAllocator
	}
	if capacity <= 0 {
		return nil, &slotted.ErrInvalidCapacity{Capacity: capacity}
	}

	o := options{guard: guard.Bounds}
	for _, opt := range opts {
		opt(&o)
	}

	l := &List[T]{
		alloc:      a,
		guard:      o.guard,
		head:       none,
		tail:       none,
		generation: 1,
	}

	if err := l.reallocate(capacity); err != nil {
		return nil, err
	}

	return l, nil
}

// NewFromSlice creates a List holding the elements of elems in order.
// Physical slot index equals logical position until the first structural
// mutation, so At is valid immediately.
func NewFromSlice[T any](a alloc.Allocator, elems []T, opts ...Option) (*List[T], error) {
	capacity := len(elems)
	if capacity == 0 {
		capacity = 1
	}

	l, err := New[T](a, capacity, opts...)
	if err != nil {
		return nil, err
	}

	copy(l.values, elems)
	for i := range elems {
		l.next[i] = int32(i + 1)
		l.prev[i] = int32(i - 1)
	}
	if len(elems) > 0 {
		l.next[len(elems)-1] = none
		l.head = 0
		l.tail = int32(len(elems) - 1)
	}
	l.length = len(elems)
	return l, nil
}

// Len returns the number of live nodes.
func (l *List[T]) Len() int { return l.length }

// Cap returns the slot capacity.
func (l *List[T]) Cap() int { return l.capacity }

// IsEmpty reports whether the list holds no nodes.
func (l *List[T]) IsEmpty() bool { return l.length == 0 }

// Head returns a cursor at the first node; the cursor is invalid when the
// list is empty.
func (l *List[T]) Head() Cursor[T] {
	if l.head == none {
		return Cursor[T]{}
	}
	return Cursor[T]{list: l, index: l.head, gen: l.generation}
}

// Tail returns a cursor at the last node; the cursor is invalid when the
// list is empty.
func (l *List[T]) Tail() Cursor[T] {
	if l.tail == none {
		return Cursor[T]{}
	}
	return Cursor[T]{list: l, index: l.tail, gen: l.generation}
}

// PushBack appends v and returns its cursor. O(1) amortized.
func (l *List[T]) PushBack(v T) (Cursor[T], error) {
	if l.released {
		return Cursor[T]{}, slotted.ErrReleased
	}
	l.guard.Writable()

	if err := l.grow(); err != nil {
		return Cursor[T]{}, err
	}

	i := int32(l.length)
	l.values[i] = v
	l.prev[i] = l.tail
	l.next[i] = none
	if l.tail != none {
		l.next[l.tail] = i
	} else {
		l.head = i
	}
	l.tail = i
	l.length++
	return Cursor[T]{list: l, index: i, gen: l.generation}, nil
}

// PushFront prepends v and returns its cursor. O(1) amortized.
func (l *List[T]) PushFront(v T) (Cursor[T], error) {
	if l.released {
		return Cursor[T]{}, slotted.ErrReleased
	}
	l.guard.Writable()

	if err := l.grow(); err != nil {
		return Cursor[T]{}, err
	}

	i := int32(l.length)
	l.values[i] = v
	l.next[i] = l.head
	l.prev[i] = none
	if l.head != none {
		l.prev[l.head] = i
	} else {
		l.tail = i
	}
	l.head = i
	l.length++
	return Cursor[T]{list: l, index: i, gen: l.generation}, nil
}

// InsertAfter splices v in after the node at c. O(1) amortized.
func (l *List[T]) InsertAfter(c Cursor[T], v T) (Cursor[T], error) {
	if l.released {
		return Cursor[T]{}, slotted.ErrReleased
	}
	l.guard.Writable()
	if !l.owns(c) {
		return Cursor[T]{}, slotted.ErrInvalidCursor
	}
	if c.index == l.tail {
		return l.PushBack(v)
	}

	if err := l.grow(); err != nil {
		return Cursor[T]{}, err
	}

	i := int32(l.length)
	after := l.next[c.index]
	l.values[i] = v
	l.prev[i] = c.index
	l.next[i] = after
	l.next[c.index] = i
	l.prev[after] = i
	l.length++
	return Cursor[T]{list: l, index: i, gen: l.generation}, nil
}

// InsertBefore splices v in before the node at c. O(1) amortized.
func (l *List[T]) InsertBefore(c Cursor[T], v T) (Cursor[T], error) {
	if l.released {
		return Cursor[T]{}, slotted.ErrReleased
	}
	l.guard.Writable()
	if !l.owns(c) {
		return Cursor[T]{}, slotted.ErrInvalidCursor
	}
	if c.index == l.head {
		return l.PushFront(v)
	}

	if err := l.grow(); err != nil {
		return Cursor[T]{}, err
	}

	i := int32(l.length)
	before := l.prev[c.index]
	l.values[i] = v
	l.next[i] = c.index
	l.prev[i] = before
	l.prev[c.index] = i
	l.next[before] = i
	l.length++
	return Cursor[T]{list: l, index: i, gen: l.generation}, nil
}

// Remove unlinks the node at c. If the removed slot is not the last live
// slot, the last live slot is moved into the gap so live data stays packed
// in [0, Len); every cursor issued earlier becomes invalid. O(1).
func (l *List[T]) Remove(c Cursor[T]) error {
	if l.released {
		return slotted.ErrReleased
	}
	l.guard.Writable()
	if !l.owns(c) {
		return slotted.ErrInvalidCursor
	}

	i := c.index

	// Unlink from the chain.
	p, n := l.prev[i], l.next[i]
	if p != none {
		l.next[p] = n
	} else {
		l.head = n
	}
	if n != none {
		l.prev[n] = p
	} else {
		l.tail = p
	}

	// Compact: move the last live slot into the gap and rewrite every
	// reference to its old index. The removed slot is already unlinked, so
	// the moved slot's neighbors can no longer reference i.
	last := int32(l.length - 1)
	if i != last {
		l.values[i] = l.values[last]
		l.next[i] = l.next[last]
		l.prev[i] = l.prev[last]
		if l.prev[last] != none {
			l.next[l.prev[last]] = i
		} else {
			l.head = i
		}
		if l.next[last] != none {
			l.prev[l.next[last]] = i
		} else {
			l.tail = i
		}
	}

	var zero T
	l.values[last] = zero
	l.length--
	l.generation++
	return nil
}

// Clear drops all nodes without freeing slots. Every cursor issued earlier
// becomes invalid.
func (l *List[T]) Clear() {
	if l.released {
		panic(slotted.ErrReleased)
	}
	l.guard.Writable()
	l.head = none
	l.tail = none
	l.length = 0
	l.generation++
}

// At returns the value in physical slot i. Physical slot equals logical
// position only immediately after NewFromSlice or Defragment; between
// structural mutations the mapping is arbitrary.
func (l *List[T]) At(i int) T {
	if l.released {
		panic(slotted.ErrReleased)
	}
	l.guard.Readable()
	l.guard.Index(i, l.length)
	return l.values[i]
}

// Set overwrites the value in physical slot i. See At for when physical
// slots are meaningful.
func (l *List[T]) Set(i int, v T) {
	if l.released {
		panic(slotted.ErrReleased)
	}
	l.guard.Writable()
	l.guard.Index(i, l.length)
	l.values[i] = v
}

// ToSlice returns the values in head-to-tail order.
func (l *List[T]) ToSlice() []T {
	if l.released {
		panic(slotted.ErrReleased)
	}
	l.guard.Readable()

	out := make([]T, 0, l.length)
	for i := l.head; i != none; i = l.next[i] {
		out = append(out, l.values[i])
	}
	return out
}

// Release frees the value and link arrays. The list must not be used
// afterwards; a second Release returns ErrReleased.
func (l *List[T]) Release() error {
	if l.released {
		return slotted.ErrReleased
	}

	var firstErr error
	if err := alloc.FreeSlice(l.alloc, l.values); err != nil {
		firstErr = err
	}
	if err := alloc.FreeSlice(l.alloc, l.next); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := alloc.FreeSlice(l.alloc, l.prev); err != nil && firstErr == nil {
		firstErr = err
	}
	l.values = nil
	l.next = nil
	l.prev = nil
	l.head = none
	l.tail = none
	l.length = 0
	l.capacity = 0
	l.released = true
	return firstErr
}

func (l *List[T]) String() string {
	return fmt.Sprintf("indexedlist.List{len: %d, cap: %d, gen: %d}", l.length, l.capacity, l.generation)
}

// owns reports whether c is a live cursor of this list.
func (l *List[T]) owns(c Cursor[T]) bool {
	return c.list == l && c.gen == l.generation && c.index >= 0 && int(c.index) < l.length
}

// grow doubles capacity when the slot prefix is exhausted.
func (l *List[T]) grow() error {
	if l.length < l.capacity {
		return nil
	}
	return l.reallocate(l.capacity * 2)
}

// reallocate moves the three parallel arrays to buffers of the given
// capacity. Slot indices are stable across reallocation.
func (l *List[T]) reallocate(capacity int) error {
	if capacity < l.length {
		return &slotted.ErrInvalidCapacity{Capacity: capacity}
	}

	values, err := alloc.MakeSlice[T](l.alloc, capacity)
	if err != nil {
		return err
	}
	next, err := alloc.MakeSlice[int32](l.alloc, capacity)
	if err != nil {
		_ = alloc.FreeSlice(l.alloc, values)
		return err
	}
	prev, err := alloc.MakeSlice[int32](l.alloc, capacity)
	if err != nil {
		_ = alloc.FreeSlice(l.alloc, values)
		_ = alloc.FreeSlice(l.alloc, next)
		return err
	}

	copy(values, l.values)
	copy(next, l.next)
	copy(prev, l.prev)

	var firstErr error
	if l.values != nil {
		firstErr = alloc.FreeSlice(l.alloc, l.values)
	}
	if l.next != nil {
		if err := alloc.FreeSlice(l.alloc, l.next); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if l.prev != nil {
		if err := alloc.FreeSlice(l.alloc, l.prev); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	l.values = values
	l.next = next
	l.prev = prev
	l.capacity = capacity
	return firstErr
}
