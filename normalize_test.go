package dictcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	opposite    TableKey
	validKeys   map[ObjKey]bool
	validateErr error
}

func (r *fakeResolver) Validate(link ObjLink) error { return r.validateErr }
func (r *fakeResolver) IsValid(table TableKey, key ObjKey) bool {
	return r.validKeys[key]
}
func (r *fakeResolver) OppositeTable(ColKey) TableKey { return r.opposite }

func TestNormalizeWriteNullRejectedWhenNotNullable(t *testing.T) {
	_, err := normalizeWrite(MixedNull(), ValueTypeInt, false, 0, &fakeResolver{})
	require.Error(t, err)
	require.True(t, IsKind(err, ErrTypeMismatch))
}

func TestNormalizeWriteNullAllowedWhenNullable(t *testing.T) {
	v, err := normalizeWrite(MixedNull(), ValueTypeInt, true, 0, &fakeResolver{})
	require.NoError(t, err)
	require.True(t, v.IsNull())
}

func TestNormalizeWriteTypeMismatch(t *testing.T) {
	_, err := normalizeWrite(MixedString("x"), ValueTypeInt, false, 0, &fakeResolver{})
	require.Error(t, err)
	require.True(t, IsKind(err, ErrTypeMismatch))
}

func TestNormalizeWriteLinkRewritesUntypedToTyped(t *testing.T) {
	resolver := &fakeResolver{opposite: 9, validKeys: map[ObjKey]bool{42: true}}
	v, err := normalizeWrite(MixedUntypedLink(42), ValueTypeLink, false, 0, resolver)
	require.NoError(t, err)
	link, ok := v.AsLink()
	require.True(t, ok)
	require.Equal(t, TableKey(9), link.Table)
	require.Equal(t, ObjKey(42), link.Key)
}

func TestNormalizeWriteLinkRejectsOutOfRangeTarget(t *testing.T) {
	resolver := &fakeResolver{opposite: 9, validKeys: map[ObjKey]bool{}}
	_, err := normalizeWrite(MixedUntypedLink(42), ValueTypeLink, false, 0, resolver)
	require.Error(t, err)
	require.True(t, IsKind(err, ErrTargetOutOfRange))
}

func TestNormalizeWriteLinkRejectsWrongTable(t *testing.T) {
	resolver := &fakeResolver{opposite: 9}
	_, err := normalizeWrite(MixedTypedLink(ObjLink{Table: 3, Key: 1}), ValueTypeLink, false, 0, resolver)
	require.Error(t, err)
	require.True(t, IsKind(err, ErrWrongObjectType))
}

func TestNormalizeReadUnwrapsLinkColumnTypedLink(t *testing.T) {
	value := MixedTypedLink(ObjLink{Table: 5, Key: 11})
	got := normalizeRead(value, ValueTypeLink)
	key, ok := got.AsLink()
	require.True(t, ok)
	require.Equal(t, ObjKey(11), key.Key)
}

func TestNormalizeReadUnresolvedLinkBecomesNull(t *testing.T) {
	value := MixedTypedLink(ObjLink{Table: 5, Key: ObjKeyUnresolved})
	got := normalizeRead(value, ValueTypeMixed)
	require.True(t, got.IsNull())
}

func TestValidateKeyStringRejectsDollarPrefixAndDot(t *testing.T) {
	require.Error(t, validateKey(MixedString("$oops"), KeyTypeString))
	require.Error(t, validateKey(MixedString("a.b"), KeyTypeString))
	require.NoError(t, validateKey(MixedString("ok"), KeyTypeString))
}

func TestValidateKeyTypeMismatch(t *testing.T) {
	err := validateKey(MixedInt(1), KeyTypeString)
	require.Error(t, err)
	require.True(t, IsKind(err, ErrCollectionTypeMismatch))
}
