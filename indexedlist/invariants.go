package indexedlist

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// CheckInvariants verifies the list's structural invariants: the forward
// walk from head visits exactly the slots [0, Len) once each and ends at
// tail, every link is mirrored by its neighbor, and the reverse walk is the
// forward walk reversed. Intended for tests and debugging; O(N).
func (l *List[T]) CheckInvariants() error {
	if l.released {
		return fmt.Errorf("indexedlist: released")
	}

	seen := roaring.New()
	count := 0
	last := none
	for i := l.head; i != none; i = l.next[i] {
		if i < 0 || int(i) >= l.length {
			return fmt.Errorf("indexedlist: link to slot %d outside live prefix [0, %d)", i, l.length)
		}
		if seen.Contains(uint32(i)) {
			return fmt.Errorf("indexedlist: cycle at slot %d", i)
		}
		seen.Add(uint32(i))

		if l.prev[i] != last {
			return fmt.Errorf("indexedlist: slot %d prev is %d, want %d", i, l.prev[i], last)
		}
		last = i
		count++
		if count > l.length {
			return fmt.Errorf("indexedlist: forward walk exceeds length %d", l.length)
		}
	}

	if count != l.length {
		return fmt.Errorf("indexedlist: forward walk visited %d slots, want %d", count, l.length)
	}
	if last != l.tail {
		return fmt.Errorf("indexedlist: forward walk ended at slot %d, tail is %d", last, l.tail)
	}
	// Every visited slot was distinct and inside [0, Len), so cardinality
	// Len means the live prefix is exactly [0, Len).
	if seen.GetCardinality() != uint64(l.length) {
		return fmt.Errorf("indexedlist: %d distinct slots visited, want %d", seen.GetCardinality(), l.length)
	}

	return nil
}
