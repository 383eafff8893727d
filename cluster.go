package dictcore

import "sort"

// keyColumn abstracts the user-key column of a Cluster: either a fixedArray
// (declared key type Int) or a stringArray (declared key type String). Kept
// behind an interface so Cluster itself does not need to branch on KeyType
// everywhere it touches the key column.
type keyColumn interface {
	len() int
	get(i int) (Mixed, error)
	insertAt(i int, k Mixed) (bool, error)
	set(i int, k Mixed) (bool, error)
	removeAt(i int) (bool, error)
	ref() uint64
}

type intKeyColumn struct{ a *fixedArray }

func (c *intKeyColumn) len() int { return c.a.Len() }
func (c *intKeyColumn) get(i int) (Mixed, error) {
	v, err := c.a.Get(i)
	if err != nil {
		return Mixed{}, err
	}
	return MixedInt(int64(v)), nil
}
func (c *intKeyColumn) insertAt(i int, k Mixed) (bool, error) {
	v, _ := k.AsInt()
	return c.a.InsertAt(i, uint64(v))
}
func (c *intKeyColumn) set(i int, k Mixed) (bool, error) {
	v, _ := k.AsInt()
	return c.a.Set(i, uint64(v))
}
func (c *intKeyColumn) removeAt(i int) (bool, error) { return c.a.RemoveAt(i) }
func (c *intKeyColumn) ref() uint64                  { return c.a.ref }

type stringKeyColumn struct{ a *stringArray }

func (c *stringKeyColumn) len() int { return c.a.Len() }
func (c *stringKeyColumn) get(i int) (Mixed, error) {
	v, err := c.a.Get(i)
	if err != nil {
		return Mixed{}, err
	}
	return MixedString(v), nil
}
func (c *stringKeyColumn) insertAt(i int, k Mixed) (bool, error) {
	v, _ := k.AsString()
	return c.a.InsertAt(i, v)
}
func (c *stringKeyColumn) set(i int, k Mixed) (bool, error) {
	v, _ := k.AsString()
	return c.a.Set(i, v)
}
func (c *stringKeyColumn) removeAt(i int) (bool, error) { return c.a.RemoveAt(i) }
func (c *stringKeyColumn) ref() uint64                  { return c.a.ref }

// Cluster is a leaf of the ClusterTree: three parallel arrays of equal
// length holding (slot_id, user_key, value) triples, sorted ascending by
// slot id. It is the unit the arena actually owns; the tree's internal
// routing nodes above it live in process memory (see DESIGN.md OQ-4).
type Cluster struct {
	slotIds *fixedArray
	keys    keyColumn
	values  *mixedArray
}

func newCluster(arena Arena, keyType KeyType) (*Cluster, error) {
	slotIds, err := newFixedArray(arena)
	if err != nil {
		return nil, err
	}
	var kc keyColumn
	switch keyType {
	case KeyTypeInt:
		a, err := newFixedArray(arena)
		if err != nil {
			return nil, err
		}
		kc = &intKeyColumn{a: a}
	case KeyTypeString:
		a, err := newStringArray(arena)
		if err != nil {
			return nil, err
		}
		kc = &stringKeyColumn{a: a}
	}
	values, err := newMixedArray(arena)
	if err != nil {
		return nil, err
	}
	return &Cluster{slotIds: slotIds, keys: kc, values: values}, nil
}

func (c *Cluster) Len() int { return c.slotIds.Len() }

// Ref returns the slot-id array's current arena ref. That ref changes
// whenever the array is reallocated to hold a larger encoding (see
// arrayHandle.commit), so it is not stable across inserts.
func (c *Cluster) Ref() uint64 { return c.slotIds.ref }

// find returns the index of slotID via binary search over the sorted slot
// array, and whether it was found. If not found, idx is the insertion point.
func (c *Cluster) find(slotID uint64) (idx int, found bool) {
	n := c.Len()
	idx = sort.Search(n, func(i int) bool {
		v, _ := c.slotIds.Get(i)
		return v >= slotID
	})
	if idx < n {
		v, _ := c.slotIds.Get(idx)
		if v == slotID {
			return idx, true
		}
	}
	return idx, false
}

func (c *Cluster) SlotAt(i int) (uint64, error)  { return c.slotIds.Get(i) }
func (c *Cluster) KeyAt(i int) (Mixed, error)    { return c.keys.get(i) }
func (c *Cluster) ValueAt(i int) (Mixed, error)  { return c.values.Get(i) }

func (c *Cluster) SetValueAt(i int, v Mixed) error {
	_, err := c.values.Set(i, v)
	return err
}

func (c *Cluster) InsertAt(i int, slotID uint64, key, value Mixed) error {
	if _, err := c.slotIds.InsertAt(i, slotID); err != nil {
		return err
	}
	if _, err := c.keys.insertAt(i, key); err != nil {
		return err
	}
	if _, err := c.values.InsertAt(i, value); err != nil {
		return err
	}
	return nil
}

func (c *Cluster) RemoveAt(i int) error {
	if _, err := c.slotIds.RemoveAt(i); err != nil {
		return err
	}
	if _, err := c.keys.removeAt(i); err != nil {
		return err
	}
	if _, err := c.values.RemoveAt(i); err != nil {
		return err
	}
	return nil
}

// splitOff removes and returns every entry from index mid onward, leaving c
// with [0, mid).
func (c *Cluster) splitOff(mid int) (*Cluster, error) {
	n := c.Len()
	right, err := newCluster(c.arenaOf(), c.keyKindOf())
	if err != nil {
		return nil, err
	}
	for i := mid; i < n; i++ {
		slot, _ := c.SlotAt(i)
		key, _ := c.KeyAt(i)
		val, _ := c.ValueAt(i)
		if err = right.InsertAt(right.Len(), slot, key, val); err != nil {
			return nil, err
		}
	}
	for i := n - 1; i >= mid; i-- {
		if err = c.RemoveAt(i); err != nil {
			return nil, err
		}
	}
	return right, nil
}

func (c *Cluster) arenaOf() Arena {
	return c.slotIds.arena
}

func (c *Cluster) keyKindOf() KeyType {
	if _, ok := c.keys.(*intKeyColumn); ok {
		return KeyTypeInt
	}
	return KeyTypeString
}
