package dictcore

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMixedCompareOrderClasses(t *testing.T) {
	ordered := []Mixed{
		MixedNull(),
		MixedBool(false),
		MixedInt(5),
		MixedString("a"),
		MixedBinary([]byte{1}),
		MixedTimestamp(time.Unix(100, 0)),
		MixedObjectID(ObjectID{1}),
		MixedUUID(uuid.Nil),
		MixedTypedLink(ObjLink{Table: 1, Key: 1}),
	}
	for i := 0; i < len(ordered)-1; i++ {
		require.Negative(t, ordered[i].Compare(ordered[i+1]), "index %d", i)
		require.Positive(t, ordered[i+1].Compare(ordered[i]), "index %d", i)
	}
}

func TestMixedCompareCrossNumeric(t *testing.T) {
	require.Zero(t, MixedInt(3).Compare(MixedDouble(3.0)))
	require.Negative(t, MixedInt(2).Compare(MixedFloat(2.5)))
	require.Positive(t, MixedDouble(10).Compare(MixedDecimal(big.NewRat(9, 1))))
}

func TestMixedEqual(t *testing.T) {
	require.True(t, MixedInt(4).Equal(MixedDouble(4)))
	require.False(t, MixedInt(4).Equal(MixedString("4")))
	require.True(t, MixedString("x").Equal(MixedString("x")))
	require.True(t, MixedNull().Equal(MixedNull()))
}

func TestMixedAsLinkUnresolved(t *testing.T) {
	link := ObjLink{Table: 2, Key: ObjKeyUnresolved}
	v := MixedTypedLink(link)
	got, ok := v.AsLink()
	require.True(t, ok)
	require.True(t, got.IsUnresolved())
}

func TestMixedIsNull(t *testing.T) {
	require.True(t, MixedNull().IsNull())
	require.False(t, MixedInt(0).IsNull())
}
