// Package mmap provides anonymous memory mappings for off-heap buffers.
//
// Mappings are invisible to the Go garbage collector: buffers returned by
// MapAnon must never hold Go pointers, and every mapping must be closed
// explicitly. The package exists so that alloc.Mapped can hand out zeroed,
// page-aligned buffers without adding GC pressure.
package mmap
