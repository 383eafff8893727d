package dictcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedArrayInsertGetRemove(t *testing.T) {
	arena := newMemArena()
	a, err := newFixedArray(arena)
	require.NoError(t, err)

	for i, v := range []uint64{10, 20, 30} {
		_, err := a.InsertAt(i, v)
		require.NoError(t, err)
	}
	require.Equal(t, 3, a.Len())
	got, err := a.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint64(20), got)

	_, err = a.RemoveAt(0)
	require.NoError(t, err)
	require.Equal(t, 2, a.Len())
	got, err = a.Get(0)
	require.NoError(t, err)
	require.Equal(t, uint64(20), got)
}

func TestFixedArrayRoundTripsThroughArena(t *testing.T) {
	arena := newMemArena()
	a, err := newFixedArray(arena)
	require.NoError(t, err)
	_, err = a.InsertAt(0, 7)
	require.NoError(t, err)

	loaded, err := loadFixedArray(arena, a.ref)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.Len())
	v, err := loaded.Get(0)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)
}

func TestStringArrayInsertGetRemove(t *testing.T) {
	arena := newMemArena()
	a, err := newStringArray(arena)
	require.NoError(t, err)

	for i, v := range []string{"alpha", "beta", "gamma"} {
		_, err := a.InsertAt(i, v)
		require.NoError(t, err)
	}
	got, err := a.Get(2)
	require.NoError(t, err)
	require.Equal(t, "gamma", got)

	_, err = a.RemoveAt(1)
	require.NoError(t, err)
	got, err = a.Get(1)
	require.NoError(t, err)
	require.Equal(t, "gamma", got)
}

func TestMixedArrayInsertGetSet(t *testing.T) {
	arena := newMemArena()
	a, err := newMixedArray(arena)
	require.NoError(t, err)

	_, err = a.InsertAt(0, MixedInt(1))
	require.NoError(t, err)
	_, err = a.InsertAt(1, MixedString("two"))
	require.NoError(t, err)

	_, err = a.Set(0, MixedInt(42))
	require.NoError(t, err)

	v, err := a.Get(0)
	require.NoError(t, err)
	n, _ := v.AsInt()
	require.Equal(t, int64(42), n)

	v, err = a.Get(1)
	require.NoError(t, err)
	s, _ := v.AsString()
	require.Equal(t, "two", s)
}

func TestMixedArrayRoundTripsThroughArena(t *testing.T) {
	arena := newMemArena()
	a, err := newMixedArray(arena)
	require.NoError(t, err)
	_, err = a.InsertAt(0, MixedDouble(3.5))
	require.NoError(t, err)

	loaded, err := loadMixedArray(arena, a.ref)
	require.NoError(t, err)
	v, err := loaded.Get(0)
	require.NoError(t, err)
	d, _ := v.AsDouble()
	require.Equal(t, 3.5, d)
}

func TestOutOfRangeAccessReturnsErrIndexOutOfRange(t *testing.T) {
	arena := newMemArena()
	a, err := newFixedArray(arena)
	require.NoError(t, err)
	_, err = a.Get(0)
	require.ErrorIs(t, err, errIndexOutOfRange)
}
