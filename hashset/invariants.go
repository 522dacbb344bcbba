package hashset

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
)

// CheckInvariants verifies the slot-partition invariant: every slot index in
// [0, min(allocated, capacity)) is on exactly one lane's free list or in
// exactly one bucket chain, and every chained slot hashes to the bucket
// holding it. Intended for tests and debugging; call it only while no lane
// writer is running. O(capacity + buckets).
func (s *Set[K]) CheckInvariants() error {
	if s.released {
		return fmt.Errorf("hashset: released")
	}

	limit := s.allocated.Load()
	if limit > int64(s.capacity) {
		limit = int64(s.capacity)
	}

	seen := roaring.New()

	mark := func(i int32, where string) error {
		if i < 0 || int64(i) >= limit {
			return fmt.Errorf("hashset: %s references slot %d outside [0, %d)", where, i, limit)
		}
		if seen.Contains(uint32(i)) {
			return fmt.Errorf("hashset: slot %d reachable twice (via %s)", i, where)
		}
		seen.Add(uint32(i))
		return nil
	}

	for lane := range s.lanes {
		head := s.lanes[lane].head.Load()
		if head == draining {
			return fmt.Errorf("hashset: lane %d free list left mid-drain", lane)
		}
		for i := head; i != none; i = s.next[i] {
			if err := mark(i, fmt.Sprintf("lane %d free list", lane)); err != nil {
				return err
			}
		}
	}

	for b := range s.buckets {
		for i := s.buckets[b]; i != none; i = s.next[i] {
			if err := mark(i, fmt.Sprintf("bucket %d", b)); err != nil {
				return err
			}
			if got := s.bucketIndex(s.items[i]); got != uint64(b) {
				return fmt.Errorf("hashset: slot %d in bucket %d, key hashes to bucket %d", i, b, got)
			}
		}
	}

	if seen.GetCardinality() != uint64(limit) {
		return fmt.Errorf("hashset: %d slots reachable, want %d", seen.GetCardinality(), limit)
	}

	return nil
}
