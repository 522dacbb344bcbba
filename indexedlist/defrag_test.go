package indexedlist

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotted/alloc"
)

func TestList_Defragment(t *testing.T) {
	t.Run("restores slot order", func(t *testing.T) {
		l, err := New[int](alloc.NewHeap(), 4)
		require.NoError(t, err)
		defer l.Release()

		// Build 0..3 with slots out of logical order: PushFront lands the
		// head in the highest slot.
		for _, v := range []int{1, 2, 3} {
			_, err := l.PushBack(v)
			require.NoError(t, err)
		}
		_, err = l.PushFront(0)
		require.NoError(t, err)

		require.NotEqual(t, 0, l.Head().Index(), "head starts out of place")

		l.Defragment()

		assert.Equal(t, []int{0, 1, 2, 3}, l.ToSlice())
		for i := 0; i < 4; i++ {
			assert.Equal(t, i, l.At(i), "physical slot equals logical position")
		}
		assert.Equal(t, 0, l.Head().Index())
		assert.Equal(t, 3, l.Tail().Index())
		require.NoError(t, l.CheckInvariants())
	})

	t.Run("empty list", func(t *testing.T) {
		l, err := New[int](alloc.NewHeap(), 4)
		require.NoError(t, err)
		defer l.Release()

		assert.NotPanics(t, func() { l.Defragment() })
		require.NoError(t, l.CheckInvariants())
	})

	t.Run("already ordered", func(t *testing.T) {
		l, err := NewFromSlice(alloc.NewHeap(), []int{1, 2, 3})
		require.NoError(t, err)
		defer l.Release()

		l.Defragment()

		assert.Equal(t, []int{1, 2, 3}, l.ToSlice())
		require.NoError(t, l.CheckInvariants())
	})

	t.Run("after random churn", func(t *testing.T) {
		rng := rand.New(rand.NewSource(1))

		l, err := New[int](alloc.NewHeap(), 8)
		require.NoError(t, err)
		defer l.Release()

		for i := 0; i < 200; i++ {
			switch {
			case l.Len() > 0 && rng.Intn(3) == 0:
				// Remove a random node by walking from the head.
				c := l.Head()
				for s := rng.Intn(l.Len()); s > 0; s-- {
					c = c.Next()
				}
				require.NoError(t, l.Remove(c))
			case rng.Intn(2) == 0:
				_, err := l.PushFront(i)
				require.NoError(t, err)
			default:
				_, err := l.PushBack(i)
				require.NoError(t, err)
			}
		}

		want := l.ToSlice()
		l.Defragment()

		assert.Equal(t, want, l.ToSlice(), "defragment preserves logical order")
		for i, v := range want {
			assert.Equal(t, v, l.At(i))
		}
		require.NoError(t, l.CheckInvariants())
	})

	t.Run("adjacent swaps", func(t *testing.T) {
		// Two nodes whose physical slots are each other's logical positions
		// exercise the adjacent cases of the node swap.
		l, err := New[int](alloc.NewHeap(), 2)
		require.NoError(t, err)
		defer l.Release()

		_, err = l.PushBack(2)
		require.NoError(t, err)
		_, err = l.PushFront(1)
		require.NoError(t, err)

		l.Defragment()

		assert.Equal(t, []int{1, 2}, l.ToSlice())
		assert.Equal(t, 1, l.At(0))
		assert.Equal(t, 2, l.At(1))
		require.NoError(t, l.CheckInvariants())
	})
}
