package alloc

import (
	"unsafe"

	"github.com/hupe1980/slotted"
)

// Allocator grants and reclaims raw buffers.
//
// Alloc returns a zeroed buffer of at least size bytes, aligned to at least
// 8 bytes. Free releases a buffer previously returned by Alloc on the same
// allocator; passing any other slice is a caller error.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte) error
}

// MakeSlice allocates a zeroed []T of length n from a.
//
// The slice aliases allocator memory: it must be returned with FreeSlice on
// the same allocator and must not be appended beyond its capacity. With a
// Mapped allocator, T must not contain Go pointers.
func MakeSlice[T any](a Allocator, n int) ([]T, error) {
	if a == nil {
		return nil, slotted.ErrInvalidAllocator
	}
	if n <= 0 {
		return nil, nil
	}

	var zero T
	size := n * int(unsafe.Sizeof(zero))

	buf, err := a.Alloc(size)
	if err != nil {
		return nil, err
	}

	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), n), nil //nolint:gosec // typed view over allocator memory
}

// FreeSlice returns a slice obtained from MakeSlice to its allocator.
func FreeSlice[T any](a Allocator, s []T) error {
	if a == nil {
		return slotted.ErrInvalidAllocator
	}
	if len(s) == 0 {
		return nil
	}

	var zero T
	size := len(s) * int(unsafe.Sizeof(zero))

	buf := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), size) //nolint:gosec // reverse of MakeSlice
	return a.Free(buf)
}
