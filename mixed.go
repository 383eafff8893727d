package dictcore

import (
	"bytes"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Kind tags the variant carried by a Mixed value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDouble
	KindDecimal
	KindString
	KindBinary
	KindTimestamp
	KindObjectID
	KindUUID
	KindTypedLink
	KindUntypedLink
)

// ObjKey identifies an object within a table. A negative value has no
// meaning; ObjKeyUnresolved marks a link whose target has been tombstoned.
type ObjKey int64

// ObjKeyUnresolved is the sentinel ObjKey carried by a link whose target no
// longer exists. Reads through such a link are filtered to null by the value
// normalizer (C3); the entry itself is retained.
const ObjKeyUnresolved ObjKey = -1

// TableKey identifies a table within the enclosing object store.
type TableKey uint32

// ColKey identifies a column (and therefore a Dictionary Handle's position)
// within its owning table.
type ColKey uint64

// ObjLink is a typed reference to another object: table plus object key.
type ObjLink struct {
	Table TableKey
	Key   ObjKey
}

// IsUnresolved reports whether the link's target has been tombstoned.
func (l ObjLink) IsUnresolved() bool {
	return l.Key == ObjKeyUnresolved
}

// ObjectID is a 12-byte identifier, mirrored after Mongo-style object ids.
type ObjectID [12]byte

// Mixed is a tagged union over every scalar and link type the dictionary can
// store as a value. Zero value is KindNull.
type Mixed struct {
	kind   Kind
	b      bool
	i      int64
	f32    float32
	f64    float64
	dec    *big.Rat
	s      string
	bin    []byte
	ts     time.Time
	oid    ObjectID
	uid    uuid.UUID
	link   ObjLink
}

func MixedNull() Mixed                     { return Mixed{kind: KindNull} }
func MixedBool(v bool) Mixed                { return Mixed{kind: KindBool, b: v} }
func MixedInt(v int64) Mixed                { return Mixed{kind: KindInt, i: v} }
func MixedFloat(v float32) Mixed            { return Mixed{kind: KindFloat, f32: v} }
func MixedDouble(v float64) Mixed           { return Mixed{kind: KindDouble, f64: v} }
func MixedDecimal(v *big.Rat) Mixed         { return Mixed{kind: KindDecimal, dec: v} }
func MixedString(v string) Mixed            { return Mixed{kind: KindString, s: v} }
func MixedBinary(v []byte) Mixed            { return Mixed{kind: KindBinary, bin: v} }
func MixedTimestamp(v time.Time) Mixed      { return Mixed{kind: KindTimestamp, ts: v} }
func MixedObjectID(v ObjectID) Mixed        { return Mixed{kind: KindObjectID, oid: v} }
func MixedUUID(v uuid.UUID) Mixed           { return Mixed{kind: KindUUID, uid: v} }
func MixedTypedLink(v ObjLink) Mixed        { return Mixed{kind: KindTypedLink, link: v} }
func MixedUntypedLink(key ObjKey) Mixed     { return Mixed{kind: KindUntypedLink, link: ObjLink{Key: key}} }

func (m Mixed) Kind() Kind   { return m.kind }
func (m Mixed) IsNull() bool { return m.kind == KindNull }

func (m Mixed) AsBool() (bool, bool)       { return m.b, m.kind == KindBool }
func (m Mixed) AsInt() (int64, bool)       { return m.i, m.kind == KindInt }
func (m Mixed) AsFloat() (float32, bool)   { return m.f32, m.kind == KindFloat }
func (m Mixed) AsDouble() (float64, bool)  { return m.f64, m.kind == KindDouble }
func (m Mixed) AsDecimal() (*big.Rat, bool) {
	return m.dec, m.kind == KindDecimal
}
func (m Mixed) AsString() (string, bool)     { return m.s, m.kind == KindString }
func (m Mixed) AsBinary() ([]byte, bool)     { return m.bin, m.kind == KindBinary }
func (m Mixed) AsTimestamp() (time.Time, bool) {
	return m.ts, m.kind == KindTimestamp
}
func (m Mixed) AsObjectID() (ObjectID, bool) { return m.oid, m.kind == KindObjectID }
func (m Mixed) AsUUID() (uuid.UUID, bool)    { return m.uid, m.kind == KindUUID }
func (m Mixed) AsLink() (ObjLink, bool) {
	return m.link, m.kind == KindTypedLink || m.kind == KindUntypedLink
}

// isNumeric reports whether the variant participates in cross-numeric
// comparison and the sum/avg accumulators.
func (m Mixed) isNumeric() bool {
	switch m.kind {
	case KindInt, KindFloat, KindDouble, KindDecimal:
		return true
	default:
		return false
	}
}

// numeric widens any numeric variant to a float64 for comparison and
// accumulation. Decimal is widened via big.Rat's own float64 conversion,
// which loses precision at the extremes; this matches sum/avg's own
// already-lossy float-widening contract (see accumulate.go).
func (m Mixed) numeric() float64 {
	switch m.kind {
	case KindInt:
		return float64(m.i)
	case KindFloat:
		return float64(m.f32)
	case KindDouble:
		return m.f64
	case KindDecimal:
		if m.dec == nil {
			return 0
		}
		f, _ := m.dec.Float64()
		return f
	default:
		return 0
	}
}

// orderClass places a Kind into the total cross-type order documented in
// DESIGN.md (Open Question OQ-2):
//
//	null < bool < numeric(int/float/double/decimal) < string < binary <
//	timestamp < objectid < uuid < link(typed/untyped)
func (k Kind) orderClass() int {
	switch k {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat, KindDouble, KindDecimal:
		return 2
	case KindString:
		return 4
	case KindBinary:
		return 5
	case KindTimestamp:
		return 6
	case KindObjectID:
		return 7
	case KindUUID:
		return 8
	case KindTypedLink, KindUntypedLink:
		return 9
	default:
		return 10
	}
}

// Compare imposes the total order used by sort/distinct and min/max tie
// breaking. Returns -1, 0 or 1. Numeric variants compare across sub-kinds by
// widened value; every other class compares only within itself (cross-class
// comparisons fall back to orderClass ordering).
func (a Mixed) Compare(b Mixed) int {
	ca, cb := a.kind.orderClass(), b.kind.orderClass()
	if ca != cb {
		if ca < cb {
			return -1
		}
		return 1
	}
	switch ca {
	case 0:
		return 0
	case 1:
		if a.b == b.b {
			return 0
		}
		if !a.b {
			return -1
		}
		return 1
	case 2:
		av, bv := a.numeric(), b.numeric()
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case 4:
		return stringCompare(a.s, b.s)
	case 5:
		return bytes.Compare(a.bin, b.bin)
	case 6:
		switch {
		case a.ts.Before(b.ts):
			return -1
		case a.ts.After(b.ts):
			return 1
		default:
			return 0
		}
	case 7:
		return bytes.Compare(a.oid[:], b.oid[:])
	case 8:
		return bytes.Compare(a.uid[:], b.uid[:])
	case 9:
		return linkCompare(a.link, b.link)
	default:
		return 0
	}
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func linkCompare(a, b ObjLink) int {
	if a.Table != b.Table {
		if a.Table < b.Table {
			return -1
		}
		return 1
	}
	if a.Key != b.Key {
		if a.Key < b.Key {
			return -1
		}
		return 1
	}
	return 0
}

// Equal defines structural equality for every variant pair: byte-wise for
// string/binary, cross-numeric for numeric kinds, structural for links.
func (a Mixed) Equal(b Mixed) bool {
	if a.kind != b.kind {
		if a.isNumeric() && b.isNumeric() {
			return a.numeric() == b.numeric()
		}
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindInt, KindFloat, KindDouble, KindDecimal:
		return a.numeric() == b.numeric()
	case KindString:
		return a.s == b.s
	case KindBinary:
		return bytes.Equal(a.bin, b.bin)
	case KindTimestamp:
		return a.ts.Equal(b.ts)
	case KindObjectID:
		return a.oid == b.oid
	case KindUUID:
		return a.uid == b.uid
	case KindTypedLink, KindUntypedLink:
		return a.link == b.link
	default:
		return false
	}
}
