package dictcore

import "sync"

// memArena is a process-local Arena good enough for tests and for
// Dictionaries that never need to outlive the process. Grounded on
// yash7xm-RelixDB's closure-over-a-map in-memory page store: a plain map
// keyed by a monotonically increasing ref, guarded by one mutex since the
// dictionary itself performs no locking (see spec's concurrency model).
type memArena struct {
	mu      sync.Mutex
	slots   map[uint64][]byte
	nextRef uint64
}

func newMemArena() *memArena {
	return &memArena{slots: make(map[uint64][]byte), nextRef: 1}
}

func (a *memArena) Alloc(size int) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref := a.nextRef
	a.nextRef++
	a.slots[ref] = make([]byte, size)
	return ref, nil
}

func (a *memArena) Free(ref uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.slots, ref)
	return nil
}

func (a *memArena) Deref(ref uint64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.slots[ref]
	if !ok {
		return nil, newDictError("deref", ErrIndexOutOfRange, errSlotNotFound)
	}
	return b, nil
}

func (a *memArena) WriteBack(ref uint64, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.slots[ref]; !ok {
		return newDictError("writeBack", ErrIndexOutOfRange, errSlotNotFound)
	}
	a.slots[ref] = data
	return nil
}

func (a *memArena) Close() error { return nil }

var _ Arena = (*memArena)(nil)

// pageBackedArena adapts mmapArena (storage.go) to the Arena interface: a
// ref is a pageId's uint64 form, and Alloc/Deref/WriteBack round-trip
// through one page each, matching the single-page-per-value simplification
// documented in storage.go and DESIGN.md.
type pageBackedArena struct {
	m *mmapArena
}

// NewFileArena opens (creating if necessary) an mmap-backed Arena rooted at
// path, optionally encrypting pages at rest when cipher is non-nil.
func NewFileArena(path string, cipher Cipher) (Arena, error) {
	m := newMMapArena(path, cipher)
	if err := m.init(); err != nil {
		return nil, err
	}
	return &pageBackedArena{m: m}, nil
}

func (p *pageBackedArena) Alloc(size int) (uint64, error) {
	ids, err := p.m.allocPage(1)
	if err != nil {
		return 0, err
	}
	if size > p.m.pageDataSize() {
		_ = p.m.freePage(ids)
		return 0, newDictError("alloc", ErrIndexOutOfRange, errOutOfMemory)
	}
	return ids[0].ToUint64(), nil
}

func (p *pageBackedArena) Free(ref uint64) error {
	return p.m.freePage([]pageId{createPageIdFromUint64(ref)})
}

func (p *pageBackedArena) Deref(ref uint64) ([]byte, error) {
	return p.m.readPageData(createPageIdFromUint64(ref))
}

func (p *pageBackedArena) WriteBack(ref uint64, data []byte) error {
	return p.m.writePageData(createPageIdFromUint64(ref), data)
}

func (p *pageBackedArena) Close() error {
	return p.m.close()
}

var _ Arena = (*pageBackedArena)(nil)
