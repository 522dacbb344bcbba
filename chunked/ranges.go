package chunked

import (
	"iter"

	"github.com/hupe1980/slotted"
)

// Range is one per-chunk sub-range produced by chunk-partitioned iteration.
//
// Slice aliases the chunk's storage, so elements can be read and written in
// place; Base+From+j is the global index of Slice[j].
type Range[T any] struct {
	// Chunk is the index of the chunk this range falls in.
	Chunk int
	// From and To are the inclusive element bounds within the chunk.
	From, To int
	// Base is the global index of the chunk's first element.
	Base int
	// Slice is the chunk storage for [From, To].
	Slice []T
}

// Ranges produces the per-chunk sub-ranges covering the inclusive global
// index range [start, end]: the chunk containing start yields
// [start%ChunkLength, ChunkLength-1], the chunk containing end yields
// [0, end%ChunkLength], and every whole chunk in between yields its full
// range. An end before start yields nothing and performs no index checks.
// The sequence is finite and restartable; iterating never divides per
// element.
func (a *Array[T]) Ranges(start, end int) iter.Seq[Range[T]] {
	return func(yield func(Range[T]) bool) {
		if a.released {
			panic(slotted.ErrReleased)
		}
		a.guard.Readable()
		if end < start {
			return
		}
		a.guard.Index(start, a.length)
		a.guard.Index(end, a.length)

		firstChunk := start / a.chunkLen
		lastChunk := end / a.chunkLen
		for c := firstChunk; c <= lastChunk; c++ {
			from, to := 0, a.chunkLen-1
			if c == firstChunk {
				from = start % a.chunkLen
			}
			if c == lastChunk {
				to = end % a.chunkLen
			}
			r := Range[T]{
				Chunk: c,
				From:  from,
				To:    to,
				Base:  c * a.chunkLen,
				Slice: a.chunks[c][from : to+1],
			}
			if !yield(r) {
				return
			}
		}
	}
}
