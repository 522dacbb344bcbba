package chunked

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/slotted"
	"github.com/hupe1980/slotted/alloc"
	"github.com/hupe1980/slotted/guard"
)

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 10)
		require.NoError(t, err)
		defer arr.Release()

		assert.Equal(t, 0, arr.Len())
		assert.Equal(t, 12, arr.Cap(), "capacity rounds up to whole chunks")
		assert.Equal(t, 4, arr.ChunkLength())
		assert.True(t, arr.IsEmpty())
	})

	t.Run("nil allocator", func(t *testing.T) {
		_, err := New[int](nil, 4, 10)
		require.ErrorIs(t, err, slotted.ErrInvalidAllocator)
	})

	t.Run("invalid chunk length", func(t *testing.T) {
		_, err := New[int](alloc.NewHeap(), 0, 10)
		var ice *slotted.ErrInvalidCapacity
		require.ErrorAs(t, err, &ice)
		assert.Equal(t, 0, ice.Capacity)
	})

	t.Run("invalid capacity", func(t *testing.T) {
		_, err := New[int](alloc.NewHeap(), 4, -1)
		var ice *slotted.ErrInvalidCapacity
		require.ErrorAs(t, err, &ice)
	})
}

func TestArray_Append(t *testing.T) {
	t.Run("grows in whole chunks", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 4)
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 10; i++ {
			require.NoError(t, arr.Append(i))
		}

		assert.Equal(t, 10, arr.Len())
		assert.Equal(t, 16, arr.Cap())
		assert.Equal(t, 7, arr.At(7))
		for i := 0; i < 10; i++ {
			assert.Equal(t, i, arr.At(i))
		}
	})

	t.Run("capacity stays a chunk multiple", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 3, 1)
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 50; i++ {
			require.NoError(t, arr.Append(i))
			assert.Zero(t, arr.Cap()%arr.ChunkLength())
			assert.GreaterOrEqual(t, arr.Cap(), arr.Len())
		}
	})
}

func TestArray_GrowthCost(t *testing.T) {
	m := alloc.NewMapped()
	defer m.Close()

	arr, err := New[int64](m, 128, 128)
	require.NoError(t, err)
	defer arr.Release()

	// Appends below capacity never touch the allocator.
	before := m.Stats().TotalAllocs
	for i := 0; i < 128; i++ {
		require.NoError(t, arr.Append(int64(i)))
	}
	assert.Equal(t, before, m.Stats().TotalAllocs)

	// The overflowing append allocates, and only then.
	require.NoError(t, arr.Append(128))
	after := m.Stats().TotalAllocs
	assert.Greater(t, after, before)
	assert.Zero(t, arr.Cap()%arr.ChunkLength())

	for i := 129; i < 256; i++ {
		require.NoError(t, arr.Append(int64(i)))
	}
	assert.Equal(t, after, m.Stats().TotalAllocs, "appends within capacity stay allocation-free")
}

func TestArray_SetCapacity(t *testing.T) {
	t.Run("shrink frees chunks and truncates", func(t *testing.T) {
		m := alloc.NewMapped()
		defer m.Close()

		arr, err := New[int64](m, 4, 16)
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 16; i++ {
			require.NoError(t, arr.Append(int64(i)))
		}

		buffers := m.Stats().ActiveBuffers
		require.NoError(t, arr.SetCapacity(6))

		assert.Equal(t, 8, arr.Cap())
		assert.Equal(t, 8, arr.Len(), "length truncates to the new capacity")
		assert.Equal(t, buffers-2, m.Stats().ActiveBuffers, "trailing chunks are freed immediately")
		for i := 0; i < 8; i++ {
			assert.Equal(t, int64(i), arr.At(i))
		}
	})

	t.Run("grow preserves elements", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 4)
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 4; i++ {
			require.NoError(t, arr.Append(i))
		}
		require.NoError(t, arr.SetCapacity(100))

		assert.Equal(t, 100, arr.Cap())
		assert.Equal(t, 4, arr.Len())
		for i := 0; i < 4; i++ {
			assert.Equal(t, i, arr.At(i))
		}
	})

	t.Run("negative capacity", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 4)
		require.NoError(t, err)
		defer arr.Release()

		var ice *slotted.ErrInvalidCapacity
		require.ErrorAs(t, arr.SetCapacity(-1), &ice)
	})
}

func TestArray_Insert(t *testing.T) {
	tests := []struct {
		name  string
		seed  []int
		index int
		value int
		want  []int
	}{
		{"front", []int{1, 2, 3}, 0, 0, []int{0, 1, 2, 3}},
		{"middle", []int{1, 2, 4, 5}, 2, 3, []int{1, 2, 3, 4, 5}},
		{"end", []int{1, 2, 3}, 3, 4, []int{1, 2, 3, 4}},
		{"empty", nil, 0, 7, []int{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arr, err := New[int](alloc.NewHeap(), 2, 4)
			require.NoError(t, err)
			defer arr.Release()

			for _, v := range tt.seed {
				require.NoError(t, arr.Append(v))
			}
			require.NoError(t, arr.Insert(tt.index, tt.value))

			require.Equal(t, len(tt.want), arr.Len())
			for i, want := range tt.want {
				assert.Equal(t, want, arr.At(i))
			}
		})
	}

	t.Run("out of range", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 2, 4)
		require.NoError(t, err)
		defer arr.Release()

		var oor *slotted.ErrOutOfRange
		require.ErrorAs(t, arr.Insert(1, 0), &oor)
		require.ErrorAs(t, arr.Insert(-1, 0), &oor)
	})

	t.Run("shifts across chunk boundaries", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 4)
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 9; i++ {
			require.NoError(t, arr.Append(i * 10))
		}
		require.NoError(t, arr.Insert(1, 5))

		want := []int{0, 5, 10, 20, 30, 40, 50, 60, 70, 80}
		for i, v := range want {
			assert.Equal(t, v, arr.At(i))
		}
	})
}

func TestArray_RemoveAt(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 3, 9)
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 9; i++ {
			require.NoError(t, arr.Append(i))
		}
		require.NoError(t, arr.RemoveAt(4))

		want := []int{0, 1, 2, 3, 5, 6, 7, 8}
		require.Equal(t, len(want), arr.Len())
		for i, v := range want {
			assert.Equal(t, v, arr.At(i))
		}
	})

	t.Run("out of range", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 3, 3)
		require.NoError(t, err)
		defer arr.Release()

		var oor *slotted.ErrOutOfRange
		require.ErrorAs(t, arr.RemoveAt(0), &oor)
	})
}

func TestArray_RemoveAtSwapBack(t *testing.T) {
	arr, err := New[int](alloc.NewHeap(), 3, 6)
	require.NoError(t, err)
	defer arr.Release()

	for i := 0; i < 5; i++ {
		require.NoError(t, arr.Append(i))
	}
	require.NoError(t, arr.RemoveAtSwapBack(1))

	assert.Equal(t, 4, arr.Len())
	assert.Equal(t, 4, arr.At(1), "last element moved into the gap")
	assert.Equal(t, []int{0, 4, 2, 3}, collect(arr))
}

func TestArray_InsertRemoveRoundTrip(t *testing.T) {
	arr, err := New[int](alloc.NewHeap(), 4, 4)
	require.NoError(t, err)
	defer arr.Release()

	for i := 0; i < 20; i++ {
		require.NoError(t, arr.Append(i))
	}
	// Insert then remove at the same index restores the original order.
	require.NoError(t, arr.Insert(7, -1))
	require.NoError(t, arr.RemoveAt(7))

	require.Equal(t, 20, arr.Len())
	for i := 0; i < 20; i++ {
		assert.Equal(t, i, arr.At(i))
	}
}

func TestArray_Guard(t *testing.T) {
	t.Run("bounds", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 4)
		require.NoError(t, err)
		defer arr.Release()

		require.NoError(t, arr.Append(1))

		assert.PanicsWithError(t, "slotted: index 1 out of range [0, 1)", func() {
			arr.At(1)
		})
		assert.PanicsWithError(t, "slotted: index -1 out of range [0, 1)", func() {
			arr.Set(-1, 0)
		})
	})

	t.Run("declared range", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 8, WithGuard(guard.Declared(2, 6)))
		require.NoError(t, err)
		defer arr.Release()

		for i := 0; i < 8; i++ {
			require.NoError(t, arr.Append(i))
		}

		assert.NotPanics(t, func() { arr.Set(2, 20) })
		assert.NotPanics(t, func() { arr.Set(5, 50) })
		assert.PanicsWithError(t, "slotted: index 6 outside declared range [2, 6)", func() {
			arr.At(6)
		})
	})

	t.Run("read only", func(t *testing.T) {
		arr, err := New[int](alloc.NewHeap(), 4, 4, WithGuard(guard.ReadOnly(guard.Bounds)))
		require.NoError(t, err)
		defer arr.Release()

		assert.PanicsWithError(t, slotted.ErrNotWritable.Error(), func() {
			_ = arr.Append(1)
		})
	})
}

func TestArray_Clear(t *testing.T) {
	arr, err := New[int](alloc.NewHeap(), 4, 8)
	require.NoError(t, err)
	defer arr.Release()

	for i := 0; i < 6; i++ {
		require.NoError(t, arr.Append(i))
	}
	arr.Clear()

	assert.Equal(t, 0, arr.Len())
	assert.Equal(t, 8, arr.Cap(), "clear keeps capacity")
}

func TestArray_Release(t *testing.T) {
	m := alloc.NewMapped()
	defer m.Close()

	arr, err := New[int64](m, 4, 16)
	require.NoError(t, err)

	require.NoError(t, arr.Release())
	assert.Zero(t, m.Stats().ActiveBuffers, "release returns every chunk")

	require.ErrorIs(t, arr.Release(), slotted.ErrReleased)
	require.ErrorIs(t, arr.Append(1), slotted.ErrReleased)
	require.ErrorIs(t, arr.SetCapacity(8), slotted.ErrReleased)
	assert.PanicsWithError(t, slotted.ErrReleased.Error(), func() {
		arr.At(0)
	})
}

func TestArray_Stats(t *testing.T) {
	arr, err := New[int](alloc.NewHeap(), 4, 10)
	require.NoError(t, err)
	defer arr.Release()

	require.NoError(t, arr.Append(1))

	s := arr.Stats()
	assert.Equal(t, 1, s.Length)
	assert.Equal(t, 12, s.Capacity)
	assert.Equal(t, 4, s.ChunkLength)
	assert.Equal(t, 3, s.Chunks)
	assert.Equal(t, minChunkHandles, s.HandleSlots)
	assert.Contains(t, arr.String(), "chunked.Array")
}

func collect(arr *Array[int]) []int {
	out := make([]int, 0, arr.Len())
	for i := 0; i < arr.Len(); i++ {
		out = append(out, arr.At(i))
	}
	return out
}

func BenchmarkArray_Append(b *testing.B) {
	arr, err := New[int64](alloc.NewHeap(), 1024, 1024)
	if err != nil {
		b.Fatal(err)
	}
	defer arr.Release()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := arr.Append(int64(i)); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkArray_At(b *testing.B) {
	arr, err := New[int64](alloc.NewHeap(), 1024, 1<<16)
	if err != nil {
		b.Fatal(err)
	}
	defer arr.Release()
	for i := 0; i < 1<<16; i++ {
		_ = arr.Append(int64(i))
	}

	b.ResetTimer()
	var sink int64
	for i := 0; i < b.N; i++ {
		sink += arr.At(i & (1<<16 - 1))
	}
	_ = sink
}
