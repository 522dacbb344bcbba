package hashset

import (
	"runtime"
	"sync/atomic"

	"github.com/hupe1980/slotted"
)

// Writer is one lane's handle onto the lock-free insertion path. Each lane
// must use its own Writer; two lanes sharing a Writer is undefined behavior.
type Writer[K comparable] struct {
	set  *Set[K]
	lane int
}

// Writer returns the insertion handle for the given lane.
func (s *Set[K]) Writer(lane int) (*Writer[K], error) {
	if s.released {
		return nil, slotted.ErrReleased
	}
	if lane < 0 || lane >= len(s.lanes) {
		return nil, slotted.ErrInvalidLane
	}
	return &Writer[K]{set: s, lane: lane}, nil
}

// Lane returns the writer's lane index.
func (w *Writer[K]) Lane() int { return w.lane }

// TryAdd inserts k on the lock-free multi-lane path. It returns false if k
// is already present (including when a racing lane inserts it first), and
// ErrFull if no slot can be claimed from the lane's own free list, the
// shared unclaimed tail, or any other lane's free list. The set never grows
// on this path; pre-size it before scheduling concurrent work.
//
// Once a slot has been claimed the insertion runs to completion; the
// operation must not be abandoned mid-flight or free-list and bucket
// bookkeeping across lanes would desynchronize.
func (w *Writer[K]) TryAdd(k K) (bool, error) {
	s := w.set
	if s.released {
		return false, slotted.ErrReleased
	}
	s.guard.Writable()

	b := s.bucketIndex(k)
	if s.chainContains(atomic.LoadInt32(&s.buckets[b]), k) {
		return false, nil
	}

	idx, err := s.claimSlot(w.lane)
	if err != nil {
		return false, err
	}
	s.items[idx] = k

	for {
		head := atomic.LoadInt32(&s.buckets[b])
		// A racing lane may have inserted the same key since the last look.
		if s.chainContains(head, k) {
			s.pushFree(w.lane, idx)
			return false, nil
		}
		atomic.StoreInt32(&s.next[idx], head)
		if atomic.CompareAndSwapInt32(&s.buckets[b], head, idx) {
			return true, nil
		}
	}
}

// claimSlot obtains a free slot index for lane: first from the lane's own
// free list, then by a batched claim from the shared unclaimed tail, and
// finally by stealing from other lanes' free lists. ErrFull when every
// source is exhausted.
func (s *Set[K]) claimSlot(lane int) (int32, error) {
	for {
		if idx, ok := s.popFree(lane); ok {
			return idx, nil
		}

		idx, ok, contended := s.batchClaim(lane)
		if ok {
			return idx, nil
		}
		if contended {
			// Entries landed on our list between the empty check and the
			// drain mark; pop again.
			continue
		}

		if idx, ok := s.steal(lane); ok {
			return idx, nil
		}
		return 0, slotted.ErrFull
	}
}

// popFree pops the head of lane's free list. It contends only with stealers.
func (s *Set[K]) popFree(lane int) (int32, bool) {
	h := &s.lanes[lane].head
	for {
		old := h.Load()
		if old == none {
			return 0, false
		}
		next := atomic.LoadInt32(&s.next[old])
		if h.CompareAndSwap(old, next) {
			return old, true
		}
	}
}

// pushFree pushes idx onto lane's own free list. Only the owning lane
// pushes, so the head can never be mid-drain here.
func (s *Set[K]) pushFree(lane int, idx int32) {
	h := &s.lanes[lane].head
	for {
		old := h.Load()
		atomic.StoreInt32(&s.next[idx], old)
		if h.CompareAndSwap(old, idx) {
			return
		}
	}
}

// batchClaim marks lane's empty free list as draining, claims up to
// claimBatch fresh slots from the shared counter, keeps one and parks the
// rest on the lane's free list. contended reports that the empty->draining
// mark failed because a stealer raced us, in which case the caller should
// retry its own pop first.
func (s *Set[K]) batchClaim(lane int) (idx int32, ok bool, contended bool) {
	h := &s.lanes[lane].head
	if !h.CompareAndSwap(none, draining) {
		return 0, false, true
	}

	begin := s.allocated.Add(claimBatch) - claimBatch
	usable := int64(s.capacity) - begin
	if usable <= 0 {
		h.Store(none)
		return 0, false, false
	}
	if usable > claimBatch {
		usable = claimBatch
	}

	// Chain the surplus slots into a private stack before publishing it.
	for i := begin + 1; i < begin+usable; i++ {
		link := int32(i + 1)
		if i+1 >= begin+usable {
			link = none
		}
		atomic.StoreInt32(&s.next[i], link)
	}

	if usable > 1 {
		h.Store(int32(begin + 1))
	} else {
		h.Store(none)
	}
	return int32(begin), true, false
}

// steal scans the other lanes' free lists for a slot. A lane that is
// mid-drain is revisited after a yield; the scan only gives up once a full
// pass sees every other lane empty and not draining.
func (s *Set[K]) steal(self int) (int32, bool) {
	for {
		sawDrain := false
		for j := range s.lanes {
			if j == self {
				continue
			}
			h := &s.lanes[j].head
			for {
				old := h.Load()
				if old == draining {
					sawDrain = true
					break
				}
				if old == none {
					break
				}
				next := atomic.LoadInt32(&s.next[old])
				if h.CompareAndSwap(old, next) {
					return old, true
				}
			}
		}
		if !sawDrain {
			return 0, false
		}
		runtime.Gosched()
	}
}
