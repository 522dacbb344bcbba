// Package alloc provides the explicit allocators backing every slotted
// container.
//
// Containers never call make for element storage; they request zeroed raw
// buffers from an Allocator and free them immediately when capacity shrinks
// or the container is released. Two implementations are provided:
//
//   - Heap: make-based, 64-byte aligned, garbage-collected. Free is a no-op.
//     Safe for element types that contain Go pointers.
//   - Mapped: one anonymous memory mapping per buffer, off-heap and
//     invisible to the garbage collector. Element types stored in Mapped
//     buffers must not contain Go pointers.
//
// MakeSlice and FreeSlice provide typed views over raw buffers.
package alloc
