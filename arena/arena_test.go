package arena_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vorjdux/monocoque/arena"
)

func TestAllocMutFreezeRoundTrip(t *testing.T) {
	a := arena.New(4096)
	slab, err := a.AllocMut(5)
	require.NoError(t, err)

	copy(slab.AsUninitSlice(), []byte("hello"))
	slab.SetInitLen(5)

	v := slab.Freeze()
	require.Equal(t, "hello", string(v.Bytes()))
}

func TestSetInitLenPastCapacityPanics(t *testing.T) {
	a := arena.New(64)
	slab, err := a.AllocMut(4)
	require.NoError(t, err)
	require.Panics(t, func() { slab.SetInitLen(5) })
}

func TestViewCloneIndependentRelease(t *testing.T) {
	a := arena.New(64)
	slab, err := a.AllocMut(3)
	require.NoError(t, err)
	slab.SetInitLen(3)
	v1 := slab.Freeze()
	v2 := v1.Clone()

	v1.Release()
	// v2 keeps its own reference, and its length, after v1 is released.
	require.Equal(t, v1.Len(), v2.Len())
	v2.Release()
}

func TestSegmentedBufferSplitAcrossSegments(t *testing.T) {
	var sb arena.SegmentedBuffer
	sb.Push(arena.NewViewFromBytes([]byte("abc")))
	sb.Push(arena.NewViewFromBytes([]byte("def")))

	require.Equal(t, 6, sb.Len())
	got := sb.SplitTo(4)
	require.Equal(t, "abcd", string(got.Bytes()))
	require.Equal(t, 2, sb.Len())

	rest := sb.SplitTo(2)
	require.Equal(t, "ef", string(rest.Bytes()))
	require.Equal(t, 0, sb.Len())
}

func TestSegmentedBufferPeekDoesNotConsume(t *testing.T) {
	var sb arena.SegmentedBuffer
	sb.Push(arena.NewViewFromBytes([]byte("hello world")))

	require.Equal(t, []byte("hello"), sb.Peek(5))
	require.Equal(t, 11, sb.Len())
	sb.Consume(5)
	require.Equal(t, 6, sb.Len())
}
