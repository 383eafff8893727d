package dictcore

import (
	"encoding/binary"
	"hash/maphash"
)

// KeyType constrains the runtime type a Dictionary Handle accepts as a user
// key. Only Int and String keys can be hashed into a slot id.
type KeyType uint8

const (
	KeyTypeInt KeyType = iota
	KeyTypeString
)

// slotSeed is fixed once per process so that hash63 is stable within one
// running arena. See DESIGN.md Open Question OQ-1 for why this reading of
// "bytewise stable across runs" was chosen over a persisted maphash seed.
var slotSeed = maphash.MakeSeed()

const slotMask = uint64(0x7FFF_FFFF_FFFF_FFFF)

// hash63 derives the cluster tree's internal 63-bit non-negative slot id
// from a user key. Only Int and String keys are supported; any other Mixed
// kind is rejected with NotImplemented, matching the declared-key-type
// restriction in the data model.
func hash63(key Mixed) (uint64, error) {
	var h maphash.Hash
	h.SetSeed(slotSeed)
	switch key.Kind() {
	case KindInt:
		var buf [8]byte
		v, _ := key.AsInt()
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	case KindString:
		s, _ := key.AsString()
		h.WriteString(s)
	default:
		return 0, newDictError("deriveSlot", ErrNotImplemented, nil)
	}
	return h.Sum64() & slotMask, nil
}
