package dictcore

import "encoding/binary"

// arrayHandle is embedded by every leaf array kind: a ref into an Arena plus
// the arena it belongs to. Every mutating operation re-encodes its whole
// backing buffer and reallocates when the encoding grows past the current
// page, reporting moved=true so the owning Cluster can update its stored
// ref — the Go-level equivalent of the "parent update needed" signal spec.md
// §6 asks leaf array primitives to report.
type arrayHandle struct {
	arena Arena
	ref   uint64
}

func (h *arrayHandle) commit(encoded []byte) (moved bool, err error) {
	cur, err := h.arena.Deref(h.ref)
	if err != nil {
		return false, err
	}
	if len(encoded) <= len(cur) {
		return false, h.arena.WriteBack(h.ref, encoded)
	}
	newRef, err := h.arena.Alloc(len(encoded))
	if err != nil {
		return false, err
	}
	if err = h.arena.WriteBack(newRef, encoded); err != nil {
		return false, err
	}
	_ = h.arena.Free(h.ref)
	h.ref = newRef
	return true, nil
}

// fixedArray is a dense array of fixed-width uint64 slots, used for the
// cluster's slot-id column and for Int user keys.
type fixedArray struct {
	arrayHandle
	vals []uint64
}

func newFixedArray(arena Arena) (*fixedArray, error) {
	ref, err := arena.Alloc(4)
	if err != nil {
		return nil, err
	}
	if err = arena.WriteBack(ref, binary.BigEndian.AppendUint32(nil, 0)); err != nil {
		return nil, err
	}
	return &fixedArray{arrayHandle: arrayHandle{arena: arena, ref: ref}}, nil
}

func loadFixedArray(arena Arena, ref uint64) (*fixedArray, error) {
	raw, err := arena.Deref(ref)
	if err != nil {
		return nil, err
	}
	a := &fixedArray{arrayHandle: arrayHandle{arena: arena, ref: ref}}
	a.decode(raw)
	return a, nil
}

func (a *fixedArray) decode(raw []byte) {
	n := binary.BigEndian.Uint32(raw)
	a.vals = make([]uint64, n)
	for i := uint32(0); i < n; i++ {
		a.vals[i] = binary.BigEndian.Uint64(raw[4+i*8:])
	}
}

func (a *fixedArray) encode() []byte {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(a.vals)))
	for _, v := range a.vals {
		buf = binary.BigEndian.AppendUint64(buf, v)
	}
	return buf
}

func (a *fixedArray) Len() int { return len(a.vals) }

func (a *fixedArray) Get(i int) (uint64, error) {
	if i < 0 || i >= len(a.vals) {
		return 0, errIndexOutOfRange
	}
	return a.vals[i], nil
}

func (a *fixedArray) Set(i int, v uint64) (bool, error) {
	if i < 0 || i >= len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals[i] = v
	return a.commit(a.encode())
}

func (a *fixedArray) InsertAt(i int, v uint64) (bool, error) {
	if i < 0 || i > len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals = append(a.vals, 0)
	copy(a.vals[i+1:], a.vals[i:])
	a.vals[i] = v
	return a.commit(a.encode())
}

func (a *fixedArray) RemoveAt(i int) (bool, error) {
	if i < 0 || i >= len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals = append(a.vals[:i], a.vals[i+1:]...)
	return a.commit(a.encode())
}

// stringArray is a dense array of length-prefixed UTF-8 strings, used for
// String user keys.
type stringArray struct {
	arrayHandle
	vals []string
}

func newStringArray(arena Arena) (*stringArray, error) {
	ref, err := arena.Alloc(4)
	if err != nil {
		return nil, err
	}
	if err = arena.WriteBack(ref, binary.BigEndian.AppendUint32(nil, 0)); err != nil {
		return nil, err
	}
	return &stringArray{arrayHandle: arrayHandle{arena: arena, ref: ref}}, nil
}

func loadStringArray(arena Arena, ref uint64) (*stringArray, error) {
	raw, err := arena.Deref(ref)
	if err != nil {
		return nil, err
	}
	a := &stringArray{arrayHandle: arrayHandle{arena: arena, ref: ref}}
	a.decode(raw)
	return a, nil
}

func (a *stringArray) decode(raw []byte) {
	n := binary.BigEndian.Uint32(raw)
	a.vals = make([]string, n)
	off := 4
	for i := uint32(0); i < n; i++ {
		l := binary.BigEndian.Uint32(raw[off:])
		off += 4
		a.vals[i] = string(raw[off : off+int(l)])
		off += int(l)
	}
}

func (a *stringArray) encode() []byte {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(a.vals)))
	for _, s := range a.vals {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

func (a *stringArray) Len() int { return len(a.vals) }

func (a *stringArray) Get(i int) (string, error) {
	if i < 0 || i >= len(a.vals) {
		return "", errIndexOutOfRange
	}
	return a.vals[i], nil
}

func (a *stringArray) Set(i int, v string) (bool, error) {
	if i < 0 || i >= len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals[i] = v
	return a.commit(a.encode())
}

func (a *stringArray) InsertAt(i int, v string) (bool, error) {
	if i < 0 || i > len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals = append(a.vals, "")
	copy(a.vals[i+1:], a.vals[i:])
	a.vals[i] = v
	return a.commit(a.encode())
}

func (a *stringArray) RemoveAt(i int) (bool, error) {
	if i < 0 || i >= len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals = append(a.vals[:i], a.vals[i+1:]...)
	return a.commit(a.encode())
}

// mixedArray is a dense array of tagged-union Mixed values, used for the
// cluster's value column.
type mixedArray struct {
	arrayHandle
	vals []Mixed
	codec mixedCodec
}

func newMixedArray(arena Arena) (*mixedArray, error) {
	ref, err := arena.Alloc(4)
	if err != nil {
		return nil, err
	}
	if err = arena.WriteBack(ref, binary.BigEndian.AppendUint32(nil, 0)); err != nil {
		return nil, err
	}
	return &mixedArray{arrayHandle: arrayHandle{arena: arena, ref: ref}}, nil
}

func loadMixedArray(arena Arena, ref uint64) (*mixedArray, error) {
	raw, err := arena.Deref(ref)
	if err != nil {
		return nil, err
	}
	a := &mixedArray{arrayHandle: arrayHandle{arena: arena, ref: ref}}
	if err = a.decode(raw); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *mixedArray) decode(raw []byte) error {
	n := binary.BigEndian.Uint32(raw)
	a.vals = make([]Mixed, n)
	off := 4
	for i := uint32(0); i < n; i++ {
		l := binary.BigEndian.Uint32(raw[off:])
		off += 4
		var m Mixed
		if err := a.codec.Unmarshal(raw[off:off+int(l)], &m); err != nil {
			return err
		}
		a.vals[i] = m
		off += int(l)
	}
	return nil
}

func (a *mixedArray) encode() ([]byte, error) {
	buf := binary.BigEndian.AppendUint32(nil, uint32(len(a.vals)))
	for i := range a.vals {
		enc, err := a.codec.Marshal(&a.vals[i])
		if err != nil {
			return nil, err
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(enc)))
		buf = append(buf, enc...)
	}
	return buf, nil
}

func (a *mixedArray) Len() int { return len(a.vals) }

func (a *mixedArray) Get(i int) (Mixed, error) {
	if i < 0 || i >= len(a.vals) {
		return Mixed{}, errIndexOutOfRange
	}
	return a.vals[i], nil
}

func (a *mixedArray) Set(i int, v Mixed) (bool, error) {
	if i < 0 || i >= len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals[i] = v
	enc, err := a.encode()
	if err != nil {
		return false, err
	}
	return a.commit(enc)
}

func (a *mixedArray) InsertAt(i int, v Mixed) (bool, error) {
	if i < 0 || i > len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals = append(a.vals, Mixed{})
	copy(a.vals[i+1:], a.vals[i:])
	a.vals[i] = v
	enc, err := a.encode()
	if err != nil {
		return false, err
	}
	return a.commit(enc)
}

func (a *mixedArray) RemoveAt(i int) (bool, error) {
	if i < 0 || i >= len(a.vals) {
		return false, errIndexOutOfRange
	}
	a.vals = append(a.vals[:i], a.vals[i+1:]...)
	enc, err := a.encode()
	if err != nil {
		return false, err
	}
	return a.commit(enc)
}
