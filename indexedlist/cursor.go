package indexedlist

// Cursor identifies one logical node of a List at one generation.
//
// A cursor is valid iff its captured generation still matches the list's
// generation and its slot index lies in [0, Len). Every structural mutation
// (Remove, Clear, Defragment) increments the generation and so invalidates
// every previously issued cursor — including cursors whose raw slot index
// happens to remain in range, because compaction can repoint a slot at a
// different logical node.
//
// The zero Cursor is invalid.
type Cursor[T any] struct {
	list  *List[T]
	index int32
	gen   uint64
}

// Valid reports whether the cursor still identifies a live node.
func (c Cursor[T]) Valid() bool {
	return c.list != nil && !c.list.released && c.gen == c.list.generation &&
		c.index >= 0 && int(c.index) < c.list.length
}

// Value returns the node's value; ok is false for an invalid cursor.
func (c Cursor[T]) Value() (T, bool) {
	if !c.Valid() {
		var zero T
		return zero, false
	}
	return c.list.values[c.index], true
}

// Set overwrites the node's value; it reports whether the cursor was valid.
// Overwriting a value is not a structural mutation and invalidates nothing.
func (c Cursor[T]) Set(v T) bool {
	if !c.Valid() {
		return false
	}
	c.list.guard.Writable()
	c.list.values[c.index] = v
	return true
}

// Next returns a cursor at the following node, or an invalid cursor at the
// end of the list.
func (c Cursor[T]) Next() Cursor[T] {
	if !c.Valid() {
		return Cursor[T]{}
	}
	n := c.list.next[c.index]
	if n == none {
		return Cursor[T]{}
	}
	return Cursor[T]{list: c.list, index: n, gen: c.gen}
}

// Prev returns a cursor at the preceding node, or an invalid cursor at the
// start of the list.
func (c Cursor[T]) Prev() Cursor[T] {
	if !c.Valid() {
		return Cursor[T]{}
	}
	p := c.list.prev[c.index]
	if p == none {
		return Cursor[T]{}
	}
	return Cursor[T]{list: c.list, index: p, gen: c.gen}
}

// Index returns the physical slot index the cursor points at, or -1 for an
// invalid cursor. Slot indices are only meaningful until the next structural
// mutation.
func (c Cursor[T]) Index() int {
	if !c.Valid() {
		return -1
	}
	return int(c.index)
}
