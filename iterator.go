package dictcore

// Iterator is a stable handle to one (key, value) pair's absolute position
// in a Dictionary's traversal order. It is a value type; positions shift
// under concurrent mutation of the same dictionary the way a plain index
// would, so callers that need a stable reference across mutations should
// re-resolve by key instead of holding an Iterator.
type Iterator struct {
	dict *Dictionary
	ndx  int
}

// Begin returns an Iterator over the first entry, or an invalid one if the
// dictionary is empty.
func (d *Dictionary) Begin() Iterator { return Iterator{dict: d, ndx: 0} }

// At returns an Iterator over the entry at absolute position ndx.
func (d *Dictionary) At(ndx int) Iterator { return Iterator{dict: d, ndx: ndx} }

// Valid reports whether the iterator currently refers to an in-range entry.
func (it Iterator) Valid() bool {
	return it.dict != nil && it.ndx >= 0 && it.ndx < it.dict.Size()
}

// Next advances the iterator by one position and reports whether the
// result is still valid.
func (it Iterator) Next() (Iterator, bool) {
	n := Iterator{dict: it.dict, ndx: it.ndx + 1}
	return n, n.Valid()
}

// Pair reads the (key, value) pair the iterator refers to.
func (it Iterator) Pair() (key, value Mixed, err error) {
	return it.dict.GetPair(it.ndx)
}

// LinkValues is a read-only adapter over a Link-typed Dictionary's value
// column, filtering out null and unresolved entries — the view the object
// store walks when it needs every object a dictionary currently points at
// (e.g. before deleting the object that owns it). Supplemented from
// original_source/src/realm/dictionary.cpp's link-column iteration, which
// the distilled spec omitted.
type LinkValues struct {
	dict *Dictionary
}

// LinkValuesOf builds a LinkValues view over d, which must declare
// ValueTypeLink.
func LinkValuesOf(d *Dictionary) (*LinkValues, error) {
	if d.valueType != ValueTypeLink {
		return nil, newDictError("linkValues", ErrTypeMismatch, nil)
	}
	return &LinkValues{dict: d}, nil
}

// Len returns the dictionary's total entry count, including null/unresolved
// slots that At will skip.
func (lv *LinkValues) Len() int { return lv.dict.Size() }

// At returns the object key at position i, or ok=false if that entry is
// null or points at a tombstoned object.
func (lv *LinkValues) At(i int) (ObjKey, bool, error) {
	_, value, err := lv.dict.GetPair(i)
	if err != nil {
		return 0, false, err
	}
	link, ok := value.AsLink()
	if !ok {
		return 0, false, nil
	}
	if link.IsUnresolved() {
		return 0, false, nil
	}
	return link.Key, true, nil
}

// Each visits every resolved link in traversal order, stopping early if
// visit returns false.
func (lv *LinkValues) Each(visit func(ObjKey) bool) error {
	for i := 0; i < lv.Len(); i++ {
		key, ok, err := lv.At(i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !visit(key) {
			return nil
		}
	}
	return nil
}
