// Package guard provides the pluggable precondition facade called at every
// container entry point.
//
// A Guard decides how much checking a container performs on its hot paths.
// Production callers with exclusively-owned containers can pass Nop to
// compile every check down to an empty method; tests and parallel schedulers
// use Bounds or Declared to enforce index and partition contracts.
//
// Violations panic with the typed errors of the root slotted package, so a
// recovered panic can be matched with errors.As.
package guard

import (
	"github.com/hupe1980/slotted"
)

// Guard checks container access preconditions. Implementations must be safe
// for concurrent use; all methods either return normally or panic.
type Guard interface {
	// Readable panics if reads are not permitted.
	Readable()
	// Writable panics if writes are not permitted.
	Writable()
	// Index panics if i is outside [0, length).
	Index(i, length int)
}

// Nop performs no checks.
var Nop Guard = nopGuard{}

type nopGuard struct{}

func (nopGuard) Readable()      {}
func (nopGuard) Writable()      {}
func (nopGuard) Index(_, _ int) {}

// Bounds checks index bounds only. It is the default guard of every
// container.
var Bounds Guard = boundsGuard{}

type boundsGuard struct{}

func (boundsGuard) Readable() {}
func (boundsGuard) Writable() {}

func (boundsGuard) Index(i, length int) {
	if i < 0 || i >= length {
		panic(&slotted.ErrOutOfRange{Index: i, Length: length})
	}
}

// Declared returns a guard enforcing the declared-range contract: indexes
// must fall inside the half-open partition [start, end) a lane was handed
// before scheduling, in addition to regular bounds.
func Declared(start, end int) Guard {
	return declaredGuard{start: start, end: end}
}

type declaredGuard struct {
	start, end int
}

func (declaredGuard) Readable() {}
func (declaredGuard) Writable() {}

func (g declaredGuard) Index(i, length int) {
	if i < 0 || i >= length {
		panic(&slotted.ErrOutOfRange{Index: i, Length: length})
	}
	if i < g.start || i >= g.end {
		panic(&slotted.ErrOutOfDeclaredRange{Index: i, Start: g.start, End: g.end})
	}
}

// ReadOnly wraps g so that writes panic with slotted.ErrNotWritable.
func ReadOnly(g Guard) Guard {
	return readOnlyGuard{inner: g}
}

type readOnlyGuard struct {
	inner Guard
}

func (g readOnlyGuard) Readable() { g.inner.Readable() }

func (g readOnlyGuard) Writable() {
	panic(slotted.ErrNotWritable)
}

func (g readOnlyGuard) Index(i, length int) { g.inner.Index(i, length) }
