package dictcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testParent is a recording Parent test double: every replication/backlink
// call is appended to a log so tests can assert on mutation order, and
// validity is toggled via live to exercise DetachedAccessor.
type testParent struct {
	live        bool
	opposite    TableKey
	validObjs   map[ObjKey]bool
	nextKey     ObjKey
	inserts     []string
	backlinkLog []string
	rootPresent bool
	rootLog     []bool
}

func newTestParent() *testParent {
	return &testParent{live: true, opposite: 3, validObjs: map[ObjKey]bool{}}
}

func (p *testParent) Validate(link ObjLink) error { return nil }
func (p *testParent) IsValid(table TableKey, key ObjKey) bool {
	return p.validObjs[key]
}
func (p *testParent) OppositeTable(ColKey) TableKey { return p.opposite }

func (p *testParent) ReplaceBacklink(col ColKey, old, new ObjLink, cascade *CascadeState) (bool, error) {
	p.backlinkLog = append(p.backlinkLog, "replace")
	return false, nil
}
func (p *testParent) RemoveBacklink(col ColKey, link ObjLink, cascade *CascadeState) (bool, error) {
	p.backlinkLog = append(p.backlinkLog, "remove")
	return false, nil
}
func (p *testParent) RemoveRecursive(cascade *CascadeState) error { return nil }

func (p *testParent) DictionaryInsert(col ColKey, ndx int, key, value Mixed) {
	p.inserts = append(p.inserts, "insert")
}
func (p *testParent) DictionarySet(col ColKey, ndx int, key, value Mixed) {
	p.inserts = append(p.inserts, "set")
}
func (p *testParent) DictionaryErase(col ColKey, ndx int, key Mixed) {
	p.inserts = append(p.inserts, "erase")
}

func (p *testParent) SetDictionaryRoot(col ColKey, present bool) error {
	p.rootPresent = present
	p.rootLog = append(p.rootLog, present)
	return nil
}

func (p *testParent) IsAttached() bool { return p.live }
func (p *testParent) CreateObject(table TableKey) (ObjKey, error) {
	p.nextKey++
	p.validObjs[p.nextKey] = true
	return p.nextKey, nil
}
func (p *testParent) CreateLinkedObject(table TableKey) (ObjKey, error) {
	return p.CreateObject(table)
}

func newIntDict(t *testing.T, parent Parent) *Dictionary {
	t.Helper()
	d, err := NewDictionary(1, KeyTypeInt, ValueTypeInt, false, parent, Config{})
	require.NoError(t, err)
	return d
}

func TestDictionaryInsertAndGet(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	ndx, inserted, err := d.Insert(MixedInt(1), MixedInt(100))
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, 0, ndx)

	v, err := d.Get(MixedInt(1))
	require.NoError(t, err)
	got, _ := v.AsInt()
	require.Equal(t, int64(100), got)
	require.Equal(t, 1, d.Size())
	require.Equal(t, uint64(1), d.ContentVersion())
}

func TestDictionaryInsertDuplicateKeyUpdates(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, inserted, err := d.Insert(MixedInt(1), MixedInt(100))
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = d.Insert(MixedInt(1), MixedInt(200))
	require.NoError(t, err)
	require.False(t, inserted)
	require.Equal(t, 1, d.Size())

	v, err := d.Get(MixedInt(1))
	require.NoError(t, err)
	got, _ := v.AsInt()
	require.Equal(t, int64(200), got)
	require.Equal(t, []string{"insert", "set"}, p.inserts)
}

func TestDictionaryGetMissingIsKeyNotFound(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, err := d.Get(MixedInt(9))
	require.Error(t, err)
	require.True(t, IsKind(err, ErrKeyNotFound))
}

func TestDictionaryTryGetMissingIsNotError(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, ok, err := d.TryGet(MixedInt(9))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDictionaryIndexInsertsNullOnMiss(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	v, err := d.Index(MixedInt(5))
	require.NoError(t, err)
	require.True(t, v.IsNull())
	require.Equal(t, 1, d.Size())
}

func TestDictionaryContains(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, _, err := d.Insert(MixedInt(1), MixedInt(1))
	require.NoError(t, err)
	ok, err := d.Contains(MixedInt(1))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = d.Contains(MixedInt(2))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDictionaryFindReturnsMinusOneOnMiss(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	ndx, err := d.Find(MixedInt(1))
	require.NoError(t, err)
	require.Equal(t, -1, ndx)
}

func TestDictionaryEraseRemovesEntryAndEmitsEvents(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, _, err := d.Insert(MixedInt(1), MixedInt(1))
	require.NoError(t, err)
	require.NoError(t, d.Erase(MixedInt(1)))
	require.Equal(t, 0, d.Size())
	_, ok, err := d.TryGet(MixedInt(1))
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{"insert", "erase"}, p.inserts)
}

func TestDictionaryEraseMissingIsError(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	err := d.Erase(MixedInt(1))
	require.Error(t, err)
	require.True(t, IsKind(err, ErrKeyNotFound))
}

func TestDictionaryClearRemovesEverythingAndDropsTree(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	for i := int64(0); i < 10; i++ {
		_, _, err := d.Insert(MixedInt(i), MixedInt(i))
		require.NoError(t, err)
	}
	require.NoError(t, d.Clear())
	require.Equal(t, 0, d.Size())
	_, err := d.Get(MixedInt(0))
	require.Error(t, err)
}

func TestDictionaryRegistersAndUnlinksRootRef(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	require.False(t, p.rootPresent)

	_, _, err := d.Insert(MixedInt(1), MixedInt(100))
	require.NoError(t, err)
	require.True(t, p.rootPresent)

	_, _, err = d.Insert(MixedInt(2), MixedInt(200))
	require.NoError(t, err)
	require.Equal(t, []bool{true}, p.rootLog)

	require.NoError(t, d.Clear())
	require.False(t, p.rootPresent)
	require.Equal(t, []bool{true, false}, p.rootLog)
}

func TestDictionaryNullifyOverwritesInPlace(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, _, err := d.Insert(MixedInt(1), MixedInt(100))
	require.NoError(t, err)
	require.NoError(t, d.Nullify(MixedInt(1)))
	v, err := d.Get(MixedInt(1))
	require.NoError(t, err)
	require.True(t, v.IsNull())
	require.Equal(t, 1, d.Size())
}

func TestDictionaryMinMaxSumAvg(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	for _, v := range []int64{3, 1, 4, 1, 5} {
		_, _, err := d.Insert(MixedInt(v), MixedInt(v))
		require.NoError(t, err)
	}
	mn, err := d.Min()
	require.NoError(t, err)
	mnv, _ := mn.AsInt()
	require.Equal(t, int64(1), mnv)

	mx, err := d.Max()
	require.NoError(t, err)
	mxv, _ := mx.AsInt()
	require.Equal(t, int64(5), mxv)

	sum, count, err := d.Sum()
	require.NoError(t, err)
	// key 1 is inserted twice; the second insert is an update, so four
	// entries (3, 1, 4, 5) remain.
	require.Equal(t, 4, count)
	sv, _ := sum.AsInt()
	require.Equal(t, int64(13), sv)

	avg, count, err := d.Avg()
	require.NoError(t, err)
	require.Equal(t, 4, count)
	av, _ := avg.AsDouble()
	require.Equal(t, 3.25, av)
}

func TestDictionaryFindAny(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, _, err := d.Insert(MixedInt(1), MixedInt(42))
	require.NoError(t, err)
	_, _, err = d.Insert(MixedInt(2), MixedInt(99))
	require.NoError(t, err)
	ndx, err := d.FindAny(MixedInt(99))
	require.NoError(t, err)
	require.GreaterOrEqual(t, ndx, 0)

	ndx, err = d.FindAny(MixedInt(1234))
	require.NoError(t, err)
	require.Equal(t, -1, ndx)
}

func TestDictionaryDetachedAccessorFailsEveryOp(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	p.live = false
	_, err := d.Get(MixedInt(1))
	require.Error(t, err)
	require.True(t, IsKind(err, ErrDetachedAccessor))
}

func TestDictionaryRejectsWrongKeyType(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, _, err := d.Insert(MixedString("nope"), MixedInt(1))
	require.Error(t, err)
	require.True(t, IsKind(err, ErrCollectionTypeMismatch))
}

func TestDictionaryInsertLinkedObjectRequiresLinkType(t *testing.T) {
	p := newTestParent()
	d := newIntDict(t, p)
	_, err := d.InsertLinkedObject(MixedInt(1))
	require.Error(t, err)
	require.True(t, IsKind(err, ErrTypeMismatch))
}

func TestDictionaryInsertLinkedObjectCreatesAndLinks(t *testing.T) {
	p := newTestParent()
	d, err := NewDictionary(1, KeyTypeInt, ValueTypeLink, false, p, Config{})
	require.NoError(t, err)
	link, err := d.InsertLinkedObject(MixedInt(1))
	require.NoError(t, err)
	require.Equal(t, p.opposite, link.Table)

	v, err := d.Get(MixedInt(1))
	require.NoError(t, err)
	got, ok := v.AsLink()
	require.True(t, ok)
	require.Equal(t, link.Key, got.Key)
}
