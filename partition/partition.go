// Package partition splits an index space into disjoint declared ranges and
// fans lanes out over them.
//
// The containers themselves never schedule work; a caller that wants
// parallel mutation of a chunked.Array partitions [0, Len) here, declares
// one range per lane before scheduling, and lets each lane touch only its
// own range. Ranges are half-open and pairwise disjoint, so no coordination
// between lanes is needed.
package partition

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Range is a half-open [Start, End) slice of an index space.
type Range struct {
	Start, End int
}

// Len returns the number of indexes in the range.
func (r Range) Len() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no indexes.
func (r Range) IsEmpty() bool { return r.End <= r.Start }

// Contains reports whether i falls inside the range.
func (r Range) Contains(i int) bool { return i >= r.Start && i < r.End }

// Split partitions [0, length) into parts disjoint, covering, near-equal
// ranges. The first length%parts ranges are one longer than the rest; with
// parts > length the surplus ranges are empty. A non-positive parts is
// treated as 1 and a negative length as 0.
func Split(length, parts int) []Range {
	if parts <= 0 {
		parts = 1
	}
	if length < 0 {
		length = 0
	}

	base := length / parts
	extra := length % parts

	ranges := make([]Range, parts)
	start := 0
	for i := range ranges {
		size := base
		if i < extra {
			size++
		}
		ranges[i] = Range{Start: start, End: start + size}
		start += size
	}
	return ranges
}

// Run splits [0, length) into parts ranges and invokes fn once per
// non-empty range, each on its own lane. It returns the first error and
// cancels the remaining lanes' context.
func Run(ctx context.Context, length, parts int, fn func(ctx context.Context, r Range) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range Split(length, parts) {
		if r.IsEmpty() {
			continue
		}
		g.Go(func() error {
			return fn(ctx, r)
		})
	}
	return g.Wait()
}
