package dictcore

import (
	"errors"
	"log/slog"
)

// Dictionary is the public façade (C4): an accessor bound to a parent
// object's column, orchestrating the slot deriver, cluster tree and value
// normalizer, and driving backlinks/replication/content-versioning.
type Dictionary struct {
	col       ColKey
	keyType   KeyType
	valueType ValueType
	nullable  bool
	parent    Parent
	arena     Arena
	order     int
	logger    *slog.Logger

	tree    *ClusterTree
	version uint64
}

// NewDictionary constructs a handle. The underlying Cluster Tree is not
// created yet — it materializes lazily on first write (spec §4.4 "Lazy
// creation").
func NewDictionary(col ColKey, keyType KeyType, valueType ValueType, nullable bool, parent Parent, cfg Config) (*Dictionary, error) {
	arena, err := cfg.resolveArena()
	if err != nil {
		return nil, err
	}
	return &Dictionary{
		col:       col,
		keyType:   keyType,
		valueType: valueType,
		nullable:  nullable,
		parent:    parent,
		arena:     arena,
		order:     cfg.resolveOrder(),
		logger:    cfg.resolveLogger(),
	}, nil
}

func (d *Dictionary) checkLive() error {
	if !d.parent.IsAttached() {
		return newDictError("dictionary", ErrDetachedAccessor, nil)
	}
	return nil
}

// Size returns 0 if the tree has never been created, else the tree's size.
func (d *Dictionary) Size() int {
	if d.tree == nil {
		return 0
	}
	return d.tree.Size()
}

// ContentVersion returns the monotonic counter bumped on every mutation.
func (d *Dictionary) ContentVersion() uint64 { return d.version }

func (d *Dictionary) ensureTree() error {
	if d.tree != nil {
		return nil
	}
	d.tree = newClusterTree(d.arena, d.keyType, d.order, d.logger)
	if err := d.parent.SetDictionaryRoot(d.col, true); err != nil {
		d.tree = nil
		return err
	}
	return nil
}

func (d *Dictionary) deriveSlot(key Mixed) (uint64, error) {
	slot, err := hash63(key)
	if err != nil {
		return 0, err
	}
	return slot, nil
}

// Insert validates and normalizes (k, v), lazily creates the tree, and
// either inserts a new entry or overwrites an existing one (duplicate-key
// update). Returns the entry's position and whether it was newly inserted.
func (d *Dictionary) Insert(key, value Mixed) (ndx int, inserted bool, err error) {
	if err = d.checkLive(); err != nil {
		return 0, false, err
	}
	norm, err := normalizeWrite(value, d.valueType, d.nullable, d.col, d.parent)
	if err != nil {
		return 0, false, err
	}
	return d.insertNormalized(key, norm)
}

func (d *Dictionary) insertNormalized(key, norm Mixed) (ndx int, inserted bool, err error) {
	if err = validateKey(key, d.keyType); err != nil {
		return 0, false, err
	}
	slot, err := d.deriveSlot(key)
	if err != nil {
		return 0, false, err
	}
	if err = d.ensureTree(); err != nil {
		return 0, false, err
	}

	var oldValue Mixed
	inserted = true
	if err = d.tree.Insert(slot, key, norm); err != nil {
		if !errors.Is(err, errSlotAlreadyUsed) {
			return 0, false, err
		}
		// SlotAlreadyUsed is always caught here and converted to an update.
		oldValue, err = d.tree.SetValue(slot, norm)
		if err != nil {
			return 0, false, err
		}
		inserted = false
	}

	ndx, err = d.tree.GetNdx(slot)
	if err != nil {
		return 0, false, err
	}
	if err = d.maintainBacklinksOnWrite(oldValue, norm, inserted); err != nil {
		return ndx, inserted, err
	}
	if inserted {
		d.parent.DictionaryInsert(d.col, ndx, key, norm)
	} else {
		d.parent.DictionarySet(d.col, ndx, key, norm)
	}
	d.version++
	return ndx, inserted, nil
}

func (d *Dictionary) maintainBacklinksOnWrite(old, new Mixed, wasInsert bool) error {
	var oldLink, newLink ObjLink
	var haveOld, haveNew bool
	if !wasInsert {
		oldLink, haveOld = old.AsLink()
	}
	newLink, haveNew = new.AsLink()
	if !haveOld && !haveNew {
		return nil
	}
	if haveOld && haveNew && oldLink == newLink {
		return nil
	}
	cascade := &CascadeState{}
	recurse, err := d.parent.ReplaceBacklink(d.col, oldLink, newLink, cascade)
	if err != nil {
		return err
	}
	if recurse {
		return d.parent.RemoveRecursive(cascade)
	}
	return nil
}

// Get fails KeyNotFound if the key is absent (including when the tree has
// never been created).
func (d *Dictionary) Get(key Mixed) (Mixed, error) {
	value, ok, err := d.TryGet(key)
	if err != nil {
		return Mixed{}, err
	}
	if !ok {
		return Mixed{}, newDictError("get", ErrKeyNotFound, nil)
	}
	return value, nil
}

// TryGet returns ok=false instead of an error when key is absent.
func (d *Dictionary) TryGet(key Mixed) (Mixed, bool, error) {
	if err := d.checkLive(); err != nil {
		return Mixed{}, false, err
	}
	if err := validateKey(key, d.keyType); err != nil {
		return Mixed{}, false, err
	}
	if d.tree == nil {
		return Mixed{}, false, nil
	}
	slot, err := d.deriveSlot(key)
	if err != nil {
		return Mixed{}, false, err
	}
	_, value, ok, err := d.tree.TryGet(slot)
	if err != nil {
		return Mixed{}, false, err
	}
	if !ok {
		return Mixed{}, false, nil
	}
	return normalizeRead(value, d.valueType), true, nil
}

// Index implements operator[]: read-or-insert-null.
func (d *Dictionary) Index(key Mixed) (Mixed, error) {
	value, ok, err := d.TryGet(key)
	if err != nil {
		return Mixed{}, err
	}
	if ok {
		return value, nil
	}
	// The miss placeholder is null regardless of the column's declared
	// nullability: normalizeWrite's nullable gate governs values a caller
	// supplies, not this sentinel "absent" marker, so route around it.
	if _, _, err = d.insertNormalized(key, MixedNull()); err != nil {
		return Mixed{}, err
	}
	return MixedNull(), nil
}

func (d *Dictionary) Contains(key Mixed) (bool, error) {
	_, ok, err := d.TryGet(key)
	return ok, err
}

// Find returns the entry's absolute position, or -1 if absent (the "end
// iterator" case).
func (d *Dictionary) Find(key Mixed) (int, error) {
	if err := d.checkLive(); err != nil {
		return -1, err
	}
	if err := validateKey(key, d.keyType); err != nil {
		return -1, err
	}
	if d.tree == nil {
		return -1, nil
	}
	slot, err := d.deriveSlot(key)
	if err != nil {
		return -1, err
	}
	ndx, err := d.tree.GetNdx(slot)
	if errors.Is(err, errSlotNotFound) {
		return -1, nil
	}
	if err != nil {
		return -1, err
	}
	return ndx, nil
}

// Erase removes key's entry: the existing value's backlink is cleared
// (cascading if it was the object's last strong reference), a replication
// erase event is emitted, and only then is the tree entry removed.
func (d *Dictionary) Erase(key Mixed) error {
	if err := d.checkLive(); err != nil {
		return err
	}
	if err := validateKey(key, d.keyType); err != nil {
		return err
	}
	if d.tree == nil {
		return newDictError("erase", ErrKeyNotFound, nil)
	}
	slot, err := d.deriveSlot(key)
	if err != nil {
		return err
	}
	_, value, err := d.tree.Get(slot)
	if err != nil {
		return newDictError("erase", ErrKeyNotFound, err)
	}
	ndx, err := d.tree.GetNdx(slot)
	if err != nil {
		return err
	}
	if err = d.clearBacklinkFor(value); err != nil {
		return err
	}
	d.parent.DictionaryErase(d.col, ndx, key)
	if _, _, err = d.tree.Erase(slot); err != nil {
		return err
	}
	d.version++
	return nil
}

func (d *Dictionary) clearBacklinkFor(value Mixed) error {
	link, ok := value.AsLink()
	if !ok || link.IsUnresolved() {
		return nil
	}
	cascade := &CascadeState{}
	recurse, err := d.parent.RemoveBacklink(d.col, link, cascade)
	if err != nil {
		return err
	}
	if recurse {
		return d.parent.RemoveRecursive(cascade)
	}
	return nil
}

// Clear removes every entry, clearing backlinks along the way, then drops
// the tree itself (root reference unlinked).
func (d *Dictionary) Clear() error {
	if err := d.checkLive(); err != nil {
		return err
	}
	if d.tree == nil {
		return nil
	}
	cascade := &CascadeState{}
	needsRecurse := false
	ndx := 0
	walkErr := d.tree.Traverse(func(c *Cluster) bool {
		for i := 0; i < c.Len(); i++ {
			key, kerr := c.KeyAt(i)
			if kerr != nil {
				return false
			}
			val, verr := c.ValueAt(i)
			if verr != nil {
				return false
			}
			if link, ok := val.AsLink(); ok && !link.IsUnresolved() {
				recurse, berr := d.parent.RemoveBacklink(d.col, link, cascade)
				if berr != nil {
					return false
				}
				needsRecurse = needsRecurse || recurse
			}
			d.parent.DictionaryErase(d.col, ndx, key)
			ndx++
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}
	if needsRecurse {
		if err := d.parent.RemoveRecursive(cascade); err != nil {
			return err
		}
	}
	if err := d.parent.SetDictionaryRoot(d.col, false); err != nil {
		return err
	}
	d.tree = nil
	d.version++
	return nil
}

// Nullify overwrites an entry's value with null without touching backlinks
// or cascade state — used by the object store when the referenced object is
// deleted out from under this dictionary.
func (d *Dictionary) Nullify(key Mixed) error {
	if err := d.checkLive(); err != nil {
		return err
	}
	if d.tree == nil {
		return newDictError("nullify", ErrKeyNotFound, nil)
	}
	slot, err := d.deriveSlot(key)
	if err != nil {
		return err
	}
	if _, err = d.tree.SetValue(slot, MixedNull()); err != nil {
		return newDictError("nullify", ErrKeyNotFound, err)
	}
	ndx, err := d.tree.GetNdx(slot)
	if err != nil {
		return err
	}
	d.parent.DictionarySet(d.col, ndx, key, MixedNull())
	d.version++
	return nil
}

func (d *Dictionary) aggregate(kind aggKind) (Mixed, int, error) {
	if d.tree == nil {
		acc := newAccumulator(kind, d.valueType)
		return acc.Result(), 0, nil
	}
	return d.tree.Aggregate(kind, d.valueType)
}

func (d *Dictionary) Min() (Mixed, error)     { v, _, err := d.aggregate(aggMin); return v, err }
func (d *Dictionary) Max() (Mixed, error)     { v, _, err := d.aggregate(aggMax); return v, err }
func (d *Dictionary) Sum() (Mixed, int, error) { return d.aggregate(aggSum) }
func (d *Dictionary) Avg() (Mixed, int, error) { return d.aggregate(aggAvg) }

// FindAny linearly scans every value in traversal order, returning the
// first absolute position equal to value, or -1.
func (d *Dictionary) FindAny(value Mixed) (int, error) {
	if d.tree == nil {
		return -1, nil
	}
	found := -1
	count := 0
	err := d.tree.Traverse(func(c *Cluster) bool {
		for i := 0; i < c.Len(); i++ {
			v, verr := c.ValueAt(i)
			if verr != nil {
				return false
			}
			if v.Equal(value) {
				found = count + i
				return false
			}
		}
		count += c.Len()
		return true
	})
	if err != nil {
		return -1, err
	}
	return found, nil
}

// FindAnyKey derives key's slot and returns its position, or -1 on a miss —
// the one place an internal SlotNotFound is silently translated rather than
// propagated.
func (d *Dictionary) FindAnyKey(key Mixed) (int, error) {
	return d.Find(key)
}

// GetPair returns the (key, value) pair at absolute position ndx in
// traversal order, with read-path normalization applied to the value.
func (d *Dictionary) GetPair(ndx int) (key, value Mixed, err error) {
	if d.tree == nil {
		return Mixed{}, Mixed{}, newDictError("getPair", ErrIndexOutOfRange, nil)
	}
	_, key, value, err = d.tree.GetByIndex(ndx)
	if err != nil {
		return Mixed{}, Mixed{}, newDictError("getPair", ErrIndexOutOfRange, err)
	}
	return key, normalizeRead(value, d.valueType), nil
}

// InsertLinkedObject creates a new object in the column's opposite table
// and inserts a link to it under key in one call, for Link-typed
// dictionaries. Supplemented from original_source/src/realm/dictionary.cpp's
// create_and_insert_linked_object.
func (d *Dictionary) InsertLinkedObject(key Mixed) (ObjLink, error) {
	if d.valueType != ValueTypeLink {
		return ObjLink{}, newDictError("insertLinkedObject", ErrTypeMismatch, nil)
	}
	table := d.parent.OppositeTable(d.col)
	objKey, err := d.parent.CreateLinkedObject(table)
	if err != nil {
		return ObjLink{}, err
	}
	link := ObjLink{Table: table, Key: objKey}
	if _, _, err = d.Insert(key, MixedTypedLink(link)); err != nil {
		return ObjLink{}, err
	}
	return link, nil
}
