package alloc

import (
	"unsafe"
)

// Alignment is the byte alignment of every Heap buffer (one cache line).
const Alignment = 64

// Heap is a make-based allocator. Buffers are zeroed, 64-byte aligned and
// reclaimed by the garbage collector; Free only severs the reference.
// Use Heap when element types contain Go pointers.
type Heap struct{}

// NewHeap creates a new Heap allocator.
func NewHeap() *Heap {
	return &Heap{}
}

// Alloc returns a zeroed byte slice of the given size with 64-byte alignment.
// The returned slice is guaranteed to start at a memory address divisible by 64.
//
// Note: This allocates slightly more memory than requested to ensure
// alignment. The underlying array is kept alive by the returned slice.
func (h *Heap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	// Allocate size + alignment so an aligned offset always exists.
	buf := make([]byte, size+Alignment)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for alignment
	addr := uintptr(ptr)
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size)], nil
}

// Free is a no-op; heap buffers are garbage-collected.
func (h *Heap) Free(buf []byte) error {
	return nil
}
