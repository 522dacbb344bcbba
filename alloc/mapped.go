package alloc

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/hupe1980/slotted"
	"github.com/hupe1980/slotted/internal/mmap"
)

// MemoryAcquirer is an interface for acquiring memory from a budget before
// it is mapped. resource.Controller implements it.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

// Stats tracks Mapped memory usage metrics.
type Stats struct {
	BytesReserved uint64 // Current: bytes held in live mappings
	ActiveBuffers uint64 // Current: live buffer count
	TotalAllocs   uint64 // Historical: total allocations
	TotalFrees    uint64 // Historical: total frees
}

type atomicStats struct {
	BytesReserved atomic.Uint64
	ActiveBuffers atomic.Uint64
	TotalAllocs   atomic.Uint64
	TotalFrees    atomic.Uint64
}

// Mapped is an off-heap allocator backed by one anonymous memory mapping per
// buffer. Buffers are zeroed and page-aligned, and each Free returns its
// pages to the OS immediately, so shrinking a container gives memory back
// right away instead of waiting for a GC cycle.
//
// Mapped memory is invisible to the garbage collector: element types stored
// in Mapped buffers must not contain Go pointers.
//
// Alloc and Free are safe for concurrent use.
type Mapped struct {
	mu             sync.Mutex
	mappings       map[uintptr]*mmap.Mapping
	acquirer       MemoryAcquirer
	acquireTimeout time.Duration
	logger         *slotted.Logger
	stats          atomicStats
}

// MappedOption is a configuration option for Mapped.
type MappedOption func(*Mapped)

// WithAcquirer sets the memory acquirer consulted before every mapping.
func WithAcquirer(acquirer MemoryAcquirer) MappedOption {
	return func(m *Mapped) {
		m.acquirer = acquirer
	}
}

// WithAcquireTimeout bounds how long Alloc waits on the memory acquirer.
// Zero (the default) lets the acquirer block as long as its own policy
// allows, e.g. while a paced reservation drains.
func WithAcquireTimeout(d time.Duration) MappedOption {
	return func(m *Mapped) {
		m.acquireTimeout = d
	}
}

// WithLogger sets a logger for allocation events (Debug level).
func WithLogger(logger *slotted.Logger) MappedOption {
	return func(m *Mapped) {
		m.logger = logger
	}
}

// NewMapped creates a new Mapped allocator.
func NewMapped(opts ...MappedOption) *Mapped {
	m := &Mapped{
		mappings: make(map[uintptr]*mmap.Mapping),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Alloc maps a zeroed anonymous buffer of the given size.
func (m *Mapped) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}

	if m.acquirer != nil {
		ctx := context.Background()
		if m.acquireTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.acquireTimeout)
			defer cancel()
		}
		if err := m.acquirer.AcquireMemory(ctx, int64(size)); err != nil {
			return nil, err
		}
	}

	mapping, err := mmap.MapAnon(size)
	if err != nil {
		if m.acquirer != nil {
			m.acquirer.ReleaseMemory(int64(size))
		}
		return nil, fmt.Errorf("alloc: failed to map anonymous memory: %w", err)
	}

	data := mapping.Bytes()

	m.mu.Lock()
	m.mappings[uintptr(unsafe.Pointer(&data[0]))] = mapping
	m.mu.Unlock()

	m.stats.BytesReserved.Add(uint64(size))
	m.stats.ActiveBuffers.Add(1)
	m.stats.TotalAllocs.Add(1)

	if m.logger != nil {
		m.logger.WithBytes(int64(size)).Debug("mapped buffer")
	}

	return data, nil
}

// Free unmaps a buffer previously returned by Alloc.
func (m *Mapped) Free(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	key := uintptr(unsafe.Pointer(&buf[0]))

	m.mu.Lock()
	mapping, ok := m.mappings[key]
	if ok {
		delete(m.mappings, key)
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("alloc: buffer does not belong to this allocator")
	}

	size := mapping.Size()
	if err := mapping.Close(); err != nil {
		return fmt.Errorf("alloc: failed to unmap buffer: %w", err)
	}

	if m.acquirer != nil {
		m.acquirer.ReleaseMemory(int64(size))
	}

	m.stats.BytesReserved.Add(^uint64(size - 1))
	m.stats.ActiveBuffers.Add(^uint64(0))
	m.stats.TotalFrees.Add(1)

	if m.logger != nil {
		m.logger.WithBytes(int64(size)).Debug("unmapped buffer")
	}

	return nil
}

// Close unmaps every live buffer. Buffers handed out earlier become invalid.
func (m *Mapped) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for key, mapping := range m.mappings {
		size := mapping.Size()
		if err := mapping.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		if m.acquirer != nil {
			m.acquirer.ReleaseMemory(int64(size))
		}
		m.stats.BytesReserved.Add(^uint64(size - 1))
		m.stats.ActiveBuffers.Add(^uint64(0))
		delete(m.mappings, key)
	}

	return firstErr
}

// Stats returns the current allocator statistics.
func (m *Mapped) Stats() Stats {
	return Stats{
		BytesReserved: m.stats.BytesReserved.Load(),
		ActiveBuffers: m.stats.ActiveBuffers.Load(),
		TotalAllocs:   m.stats.TotalAllocs.Load(),
		TotalFrees:    m.stats.TotalFrees.Load(),
	}
}

func (m *Mapped) String() string {
	stats := m.Stats()
	return fmt.Sprintf(
		"Mapped{buffers: %d, reserved: %.2f MB, allocs: %d, frees: %d}",
		stats.ActiveBuffers,
		float64(stats.BytesReserved)/(1024*1024),
		stats.TotalAllocs,
		stats.TotalFrees,
	)
}
