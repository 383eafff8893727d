package dictcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHash63Stability(t *testing.T) {
	a, err := hash63(MixedString("alpha"))
	require.NoError(t, err)
	b, err := hash63(MixedString("alpha"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestHash63MaskedTo63Bits(t *testing.T) {
	v, err := hash63(MixedInt(123456789))
	require.NoError(t, err)
	require.LessOrEqual(t, v, slotMask)
}

func TestHash63DistinctKeysLikelyDistinctSlots(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := int64(0); i < 256; i++ {
		slot, err := hash63(MixedInt(i))
		require.NoError(t, err)
		seen[slot] = true
	}
	require.Greater(t, len(seen), 250)
}

func TestHash63RejectsUnsupportedKind(t *testing.T) {
	_, err := hash63(MixedBool(true))
	require.Error(t, err)
	require.True(t, IsKind(err, ErrNotImplemented))
}
