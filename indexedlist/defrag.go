package indexedlist

import (
	"github.com/hupe1980/slotted"
)

// Defragment relocates nodes so that physical slot index equals logical
// position, walking the logical order from the head and swapping each node
// forward into place (never backward — the prefix already processed is
// final). Afterwards the links are rewritten sequentially: next[i] = i+1,
// prev[i] = i-1, head = 0, tail = Len-1. This makes At(i) random access by
// logical position valid until the next structural mutation. O(N); every
// cursor issued earlier becomes invalid.
func (l *List[T]) Defragment() {
	if l.released {
		panic(slotted.ErrReleased)
	}
	l.guard.Writable()

	cur := l.head
	for p := int32(0); int(p) < l.length; p++ {
		if cur != p {
			l.swapSlots(p, cur)
			cur = p
		}
		cur = l.next[cur]
	}

	// Canonical sequential links.
	for i := 0; i < l.length; i++ {
		l.next[i] = int32(i + 1)
		l.prev[i] = int32(i - 1)
	}
	if l.length > 0 {
		l.next[l.length-1] = none
		l.head = 0
		l.tail = int32(l.length - 1)
	} else {
		l.head = none
		l.tail = none
	}

	l.generation++
}

// swapSlots exchanges the nodes in slots a and b, keeping the chain, head
// and tail coherent. a and b must be distinct live slots.
func (l *List[T]) swapSlots(a, b int32) {
	l.values[a], l.values[b] = l.values[b], l.values[a]

	an, ap := l.next[a], l.prev[a]
	bn, bp := l.next[b], l.prev[b]

	switch {
	case an == b: // a immediately precedes b
		l.next[a], l.prev[a] = bn, b
		l.next[b], l.prev[b] = a, ap
	case bn == a: // b immediately precedes a
		l.next[b], l.prev[b] = an, a
		l.next[a], l.prev[a] = b, bp
	default:
		l.next[a], l.prev[a] = bn, bp
		l.next[b], l.prev[b] = an, ap
	}

	if l.prev[a] != none {
		l.next[l.prev[a]] = a
	} else {
		l.head = a
	}
	if l.next[a] != none {
		l.prev[l.next[a]] = a
	} else {
		l.tail = a
	}
	if l.prev[b] != none {
		l.next[l.prev[b]] = b
	} else {
		l.head = b
	}
	if l.next[b] != none {
		l.prev[l.next[b]] = b
	} else {
		l.tail = b
	}
}
