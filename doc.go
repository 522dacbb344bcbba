// Package slotted provides manually-managed, slot-indexed collections for
// allocation-free hot loops.
//
// Three independent containers share one pattern: element storage lives in
// buffers obtained from an explicit alloc.Allocator, element identity is an
// integer slot index (never a Go pointer), and the caller controls lifetime
// with an explicit Release call.
//
//   - chunked.Array: a growable array of fixed-size chunks with
//     chunk-partitioned iteration for cache-friendly and parallel-range
//     access.
//   - indexedlist.List: a doubly linked list over parallel index arrays with
//     O(1) insert/remove, dense slot packing, and generation-checked cursors.
//   - hashset.Set: an open hash set with bucket-chained slot indices and a
//     lock-free multi-lane insertion path.
//
// # Quick start
//
//	a := alloc.NewHeap()
//	arr, _ := chunked.New[int](a, 4, 4)
//	for i := range 10 {
//	    _ = arr.Append(i)
//	}
//	for r := range arr.Ranges(0, arr.Len()-1) {
//	    for j := range r.Slice {
//	        r.Slice[j] *= 2
//	    }
//	}
//	_ = arr.Release()
//
// # Ownership model
//
// Containers never spawn goroutines and never retry or recover internally.
// Single-writer entry points assume exclusive access; the hash set's lane
// writers are the only lock-free multi-producer surface. Every container is
// destroyed by an explicit Release that frees every buffer it owns; using a
// container after Release is a caller error surfaced as ErrReleased.
//
// This package holds the shared error taxonomy and the slog-based Logger;
// the containers live in their subpackages.
package slotted
