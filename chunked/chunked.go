// Package chunked implements a growable array stored as fixed-size chunks.
//
// Elements live in chunks obtained from an explicit allocator; a chunk-handle
// array addresses them. Capacity grows and shrinks in chunk-sized increments,
// so growth never moves existing elements and shrinking frees whole chunks
// immediately. Chunk-partitioned iteration (Ranges) yields per-chunk
// sub-ranges, which lets disjoint parallel lanes each process a pre-declared
// index range without per-element division.
package chunked

import (
	"fmt"

	"github.com/hupe1980/slotted"
	"github.com/hupe1980/slotted/alloc"
	"github.com/hupe1980/slotted/guard"
)

// minChunkHandles is the minimum capacity of the chunk-handle array.
const minChunkHandles = 64

// Array is a dynamic array of fixed-size chunks.
//
// All methods assume exclusive access unless the caller has partitioned
// [0, Len) into disjoint declared ranges; lanes may then mutate their own
// range concurrently through At/Set/Ranges with no coordination.
type Array[T any] struct {
	alloc alloc.Allocator
	guard guard.Guard

	// chunks is the handle array. Its length is the handle capacity; only
	// the first chunksLen entries hold allocated chunks. The handle array
	// itself is heap-managed because slice headers carry Go pointers and
	// must stay visible to the GC.
	chunks    [][]T
	chunksLen int

	chunkLen int
	length   int
	capacity int
	released bool
}

type options struct {
	guard guard.Guard
}

// Option is a configuration option for Array.
type Option func(*options)

// WithGuard sets the access guard. Defaults to guard.Bounds.
func WithGuard(g guard.Guard) Option {
	return func(o *options) {
		if g != nil {
			o.guard = g
		}
	}
}

// New creates an Array with the given chunk length and element capacity.
// Capacity is rounded up to the next multiple of chunkLength. The allocator
// must be non-nil and both sizes positive; validation fails before any
// allocation.
func New[T any](a alloc.Allocator, chunkLength, capacity int, opts ...Option) (*Array[T], error) {
	if a == nil {
		return nil, slotted.ErrInvalidAllocator
	}
	if chunkLength <= 0 {
		return nil, &slotted.ErrInvalidCapacity{Capacity: chunkLength}
	}
	if capacity <= 0 {
		return nil, &slotted.ErrInvalidCapacity{Capacity: capacity}
	}

	o := options{guard: guard.Bounds}
	for _, opt := range opts {
		opt(&o)
	}

	arr := &Array[T]{
		alloc:    a,
		guard:    o.guard,
		chunkLen: chunkLength,
	}

	if err := arr.SetCapacity(capacity); err != nil {
		return nil, err
	}

	return arr, nil
}

// Len returns the number of live elements.
func (a *Array[T]) Len() int { return a.length }

// Cap returns the element capacity, always a multiple of ChunkLength.
func (a *Array[T]) Cap() int { return a.capacity }

// ChunkLength returns the fixed number of elements per chunk.
func (a *Array[T]) ChunkLength() int { return a.chunkLen }

// IsEmpty reports whether the array holds no elements.
func (a *Array[T]) IsEmpty() bool { return a.length == 0 }

// SetCapacity grows or shrinks the array to hold at least n elements,
// rounded up to the next multiple of ChunkLength. Growing allocates and
// zero-fills new chunks; the handle array doubles (minimum 64 entries) only
// when the needed chunk count exceeds its current capacity. Shrinking frees
// trailing chunks immediately and truncates Len to the new capacity.
func (a *Array[T]) SetCapacity(n int) error {
	if a.released {
		return slotted.ErrReleased
	}
	if n < 0 {
		return &slotted.ErrInvalidCapacity{Capacity: n}
	}

	chunksNeeded := (n + a.chunkLen - 1) / a.chunkLen

	switch {
	case chunksNeeded > a.chunksLen:
		if chunksNeeded > len(a.chunks) {
			handleCap := len(a.chunks) * 2
			if handleCap < minChunkHandles {
				handleCap = minChunkHandles
			}
			if handleCap < chunksNeeded {
				handleCap = chunksNeeded
			}
			grown := make([][]T, handleCap)
			copy(grown, a.chunks)
			a.chunks = grown
		}
		for i := a.chunksLen; i < chunksNeeded; i++ {
			chunk, err := alloc.MakeSlice[T](a.alloc, a.chunkLen)
			if err != nil {
				// Roll back chunks allocated by this call.
				for j := a.chunksLen; j < i; j++ {
					_ = alloc.FreeSlice(a.alloc, a.chunks[j])
					a.chunks[j] = nil
				}
				return err
			}
			a.chunks[i] = chunk
		}
	case chunksNeeded < a.chunksLen:
		for i := chunksNeeded; i < a.chunksLen; i++ {
			if err := alloc.FreeSlice(a.alloc, a.chunks[i]); err != nil {
				return err
			}
			a.chunks[i] = nil
		}
	}

	a.chunksLen = chunksNeeded
	a.capacity = chunksNeeded * a.chunkLen
	if a.length > a.capacity {
		a.length = a.capacity
	}
	return nil
}

// Append adds v at index Len. A full array at least doubles its capacity,
// still in whole chunks. O(1) amortized.
func (a *Array[T]) Append(v T) error {
	if a.released {
		return slotted.ErrReleased
	}
	a.guard.Writable()

	if a.length == a.capacity {
		target := a.length + 1
		if doubled := 2 * a.capacity; doubled > target {
			target = doubled
		}
		if err := a.SetCapacity(target); err != nil {
			return err
		}
	}

	a.chunks[a.length/a.chunkLen][a.length%a.chunkLen] = v
	a.length++
	return nil
}

// Insert places v at index i, shifting subsequent elements forward by one.
// i == Len appends. O(N) in elements after i.
func (a *Array[T]) Insert(i int, v T) error {
	if a.released {
		return slotted.ErrReleased
	}
	a.guard.Writable()
	if i < 0 || i > a.length {
		return &slotted.ErrOutOfRange{Index: i, Length: a.length + 1}
	}

	if a.length == 0 {
		return a.Append(v)
	}

	// Grow by duplicating the last element, then shift the tail forward.
	if err := a.Append(*a.elem(a.length - 1)); err != nil {
		return err
	}
	for j := a.length - 2; j > i; j-- {
		*a.elem(j) = *a.elem(j - 1)
	}
	*a.elem(i) = v
	return nil
}

// RemoveAt removes the element at index i, shifting subsequent elements back
// by one. O(N) in elements after i.
func (a *Array[T]) RemoveAt(i int) error {
	if a.released {
		return slotted.ErrReleased
	}
	a.guard.Writable()
	if i < 0 || i >= a.length {
		return &slotted.ErrOutOfRange{Index: i, Length: a.length}
	}

	for j := i; j < a.length-1; j++ {
		*a.elem(j) = *a.elem(j + 1)
	}
	var zero T
	*a.elem(a.length - 1) = zero
	a.length--
	return nil
}

// RemoveAtSwapBack removes the element at index i by overwriting it with the
// last element. O(1); reorders elements.
func (a *Array[T]) RemoveAtSwapBack(i int) error {
	if a.released {
		return slotted.ErrReleased
	}
	a.guard.Writable()
	if i < 0 || i >= a.length {
		return &slotted.ErrOutOfRange{Index: i, Length: a.length}
	}

	var zero T
	*a.elem(i) = *a.elem(a.length - 1)
	*a.elem(a.length - 1) = zero
	a.length--
	return nil
}

// At returns the element at index i. O(1).
func (a *Array[T]) At(i int) T {
	if a.released {
		panic(slotted.ErrReleased)
	}
	a.guard.Readable()
	a.guard.Index(i, a.length)
	return a.chunks[i/a.chunkLen][i%a.chunkLen]
}

// Set overwrites the element at index i. O(1).
func (a *Array[T]) Set(i int, v T) {
	if a.released {
		panic(slotted.ErrReleased)
	}
	a.guard.Writable()
	a.guard.Index(i, a.length)
	a.chunks[i/a.chunkLen][i%a.chunkLen] = v
}

// Clear drops all elements without changing capacity or freeing chunks.
func (a *Array[T]) Clear() {
	if a.released {
		panic(slotted.ErrReleased)
	}
	a.guard.Writable()
	a.length = 0
}

// Release frees every chunk and the handle array. The array must not be used
// afterwards; a second Release returns ErrReleased.
func (a *Array[T]) Release() error {
	if a.released {
		return slotted.ErrReleased
	}

	var firstErr error
	for i := 0; i < a.chunksLen; i++ {
		if err := alloc.FreeSlice(a.alloc, a.chunks[i]); err != nil && firstErr == nil {
			firstErr = err
		}
		a.chunks[i] = nil
	}
	a.chunks = nil
	a.chunksLen = 0
	a.length = 0
	a.capacity = 0
	a.released = true
	return firstErr
}

// Stats describes the array's current shape.
type Stats struct {
	Length      int
	Capacity    int
	ChunkLength int
	Chunks      int
	HandleSlots int
}

// Stats returns the current array statistics.
func (a *Array[T]) Stats() Stats {
	return Stats{
		Length:      a.length,
		Capacity:    a.capacity,
		ChunkLength: a.chunkLen,
		Chunks:      a.chunksLen,
		HandleSlots: len(a.chunks),
	}
}

func (a *Array[T]) String() string {
	s := a.Stats()
	return fmt.Sprintf("chunked.Array{len: %d, cap: %d, chunks: %d×%d, handles: %d}",
		s.Length, s.Capacity, s.Chunks, s.ChunkLength, s.HandleSlots)
}

// elem returns a pointer to the element at index i without guard checks.
func (a *Array[T]) elem(i int) *T {
	return &a.chunks[i/a.chunkLen][i%a.chunkLen]
}
