package dictcore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFreelist(t *testing.T, sysPageSize uint32) *freelist {
	t.Helper()
	dir := t.TempDir()
	f := newFreelist(filepath.Join(dir, "test.freelist"), sysPageSize)
	require.NoError(t, f.init())
	t.Cleanup(func() { _ = f.close() })
	return f
}

// TestFreelistPushPopIsMinHeapOrder regresses a bug where pushPageId always
// wrote the new entry into the heap's root slot instead of its actual leaf
// slot, corrupting every push past the first. A small sysPageSize packs many
// freelist pages into the fixed-size backing file, so pushing enough ids
// spans several of them.
func TestFreelistPushPopIsMinHeapOrder(t *testing.T) {
	f := newTestFreelist(t, 64)

	ids := []uint64{50, 10, 90, 20, 80, 30, 70, 40, 60, 5, 95, 15, 85, 25, 75}
	for _, v := range ids {
		require.NoError(t, f.pushOne(createPageIdFromUint64(v)))
	}

	var popped []uint64
	for {
		p, found, err := f.popOne()
		require.NoError(t, err)
		if !found {
			break
		}
		popped = append(popped, p.ToUint64())
	}

	require.Len(t, popped, len(ids))
	for i := 1; i < len(popped); i++ {
		require.LessOrEqual(t, popped[i-1], popped[i])
	}

	want := append([]uint64(nil), ids...)
	for i := 0; i < len(want); i++ {
		for j := i + 1; j < len(want); j++ {
			if want[j] < want[i] {
				want[i], want[j] = want[j], want[i]
			}
		}
	}
	require.Equal(t, want, popped)
}

func TestFreelistPushBeyondOnePage(t *testing.T) {
	f := newTestFreelist(t, 64)

	const n = 200
	for i := uint64(0); i < n; i++ {
		require.NoError(t, f.pushOne(createPageIdFromUint64(n-i)))
	}

	seen := make(map[uint64]bool, n)
	for i := 0; i < n; i++ {
		p, found, err := f.popOne()
		require.NoError(t, err)
		require.True(t, found)
		require.False(t, seen[p.ToUint64()], "page id %d popped more than once", p.ToUint64())
		seen[p.ToUint64()] = true
	}
	require.Len(t, seen, n)

	_, found, err := f.popOne()
	require.NoError(t, err)
	require.False(t, found)
}
