package dictcore

// Arena is the allocator the cluster tree stores its Clusters through. It is
// consumed, not owned: the dictionary allocates refs but the arena's
// lifetime is the enclosing database's.
type Arena interface {
	Alloc(size int) (ref uint64, err error)
	Free(ref uint64) error
	Deref(ref uint64) ([]byte, error)
	// WriteBack persists bytes previously obtained from Deref for ref.
	// Callers must not retain the slice returned by Deref across calls that
	// might reallocate it; WriteBack is how in-place edits are flushed.
	WriteBack(ref uint64, data []byte) error
	Close() error
}

// ObjectResolver answers validity and schema questions about the enclosing
// object store, consumed by the value normalizer (C3) when validating links.
type ObjectResolver interface {
	Validate(link ObjLink) error
	IsValid(table TableKey, key ObjKey) bool
	OppositeTable(col ColKey) TableKey
}

// CascadeState accumulates objects whose strong-referenced owner has been
// removed and which must themselves be removed recursively. It is opaque to
// the dictionary; it only ever forwards one through BacklinkSink calls.
type CascadeState struct {
	// Pending holds links discovered during this cascade that the caller's
	// object store should visit with RemoveRecursive.
	Pending []ObjLink
}

// BacklinkSink is the reverse-reference bookkeeping the enclosing object
// store provides; the dictionary calls it whenever a link-typed entry is
// inserted, overwritten or removed.
type BacklinkSink interface {
	ReplaceBacklink(col ColKey, old, new ObjLink, cascade *CascadeState) (recurse bool, err error)
	RemoveBacklink(col ColKey, link ObjLink, cascade *CascadeState) (recurse bool, err error)
	RemoveRecursive(cascade *CascadeState) error
}

// ReplicationSink receives one event per mutation, in mutation order.
type ReplicationSink interface {
	DictionaryInsert(col ColKey, ndx int, key, value Mixed)
	DictionarySet(col ColKey, ndx int, key, value Mixed)
	DictionaryErase(col ColKey, ndx int, key Mixed)
}

// RootRefSink is the column-slot handshake for the dictionary's tree root:
// SetDictionaryRoot is called once when the tree is lazily created and once
// more when it is cleared, the single helper method the parent's object
// column goes through to record/unlink that ref, per spec's ownership-edge
// note. Since internal routing nodes are in-memory only (DESIGN.md OQ-4),
// there is no persisted arena ref to register, only the presence flag the
// column slot reduces to.
type RootRefSink interface {
	SetDictionaryRoot(col ColKey, present bool) error
}

// Parent bundles the collaborators a Dictionary Handle needs from its
// enclosing object, plus a liveness check used to surface DetachedAccessor.
// Implementations model this as a lookup handle (table key + object key)
// rather than a raw pointer.
type Parent interface {
	ObjectResolver
	BacklinkSink
	ReplicationSink
	RootRefSink
	// IsAttached reports whether the owning object is still live. Insert,
	// Get, TryGet, Index, Contains, Find, FindAnyKey, Erase, Clear and
	// Nullify check it first and fail DetachedAccessor if not;
	// InsertLinkedObject checks it only in its final Insert, after the target
	// object has been created. Size, ContentVersion, Min, Max, Sum, Avg,
	// FindAny, GetPair, the iterators and the sort helpers do not check it.
	// Named distinctly from ObjectResolver.IsValid (a different
	// signature) since Go interface embedding cannot merge two methods that
	// share a name but disagree on signature.
	IsAttached() bool
	// CreateObject / CreateLinkedObject back Dictionary.InsertLinkedObject.
	CreateObject(table TableKey) (ObjKey, error)
	CreateLinkedObject(table TableKey) (ObjKey, error)
}
