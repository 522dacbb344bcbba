package slotted

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAllocator is returned when a container is constructed with a
	// nil allocator.
	ErrInvalidAllocator = errors.New("slotted: invalid allocator")

	// ErrReleased is returned (or raised by accessors) when a container is
	// used after Release, including a second Release.
	ErrReleased = errors.New("slotted: use after release")

	// ErrFull is returned by the hash set's concurrent insertion path when no
	// slot can be claimed from the shared counter, the lane's own free list,
	// or any other lane's free list. The caller must pre-size the set before
	// scheduling concurrent work.
	ErrFull = errors.New("slotted: container full")

	// ErrInvalidCursor is returned when an operation receives a cursor whose
	// captured generation no longer matches its list, or that never pointed
	// at a live slot.
	ErrInvalidCursor = errors.New("slotted: invalid cursor")

	// ErrInvalidLane is returned when a lane index is outside the lane count
	// the container was configured with.
	ErrInvalidLane = errors.New("slotted: invalid lane")

	// ErrNotReadable is raised by guards that forbid reads.
	ErrNotReadable = errors.New("slotted: read not permitted")

	// ErrNotWritable is raised by guards that forbid writes.
	ErrNotWritable = errors.New("slotted: write not permitted")
)

// ErrInvalidCapacity indicates a non-positive capacity or chunk length at
// construction, or an invalid target capacity on resize. Construction fails
// before any allocation takes place.
type ErrInvalidCapacity struct {
	Capacity int
}

func (e *ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("slotted: invalid capacity: %d", e.Capacity)
}

// ErrOutOfRange indicates an index outside [0, Length).
type ErrOutOfRange struct {
	Index  int
	Length int
}

func (e *ErrOutOfRange) Error() string {
	return fmt.Sprintf("slotted: index %d out of range [0, %d)", e.Index, e.Length)
}

// ErrOutOfDeclaredRange indicates an index outside the caller-declared
// partition range a lane was handed before scheduling.
type ErrOutOfDeclaredRange struct {
	Index int
	Start int
	End   int
}

func (e *ErrOutOfDeclaredRange) Error() string {
	return fmt.Sprintf("slotted: index %d outside declared range [%d, %d)", e.Index, e.Start, e.End)
}
