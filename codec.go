package dictcore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
)

var (
	_ Codec[[]byte] = new(BytesCodec)
	_ Codec[string] = new(JsonTypeCodec[string])
)

// Codec is the generic marshal/unmarshal boundary between in-memory values
// and the bytes a leaf array or arena page stores.
type Codec[T any] interface {
	Unmarshal(data []byte, v *T) error
	Marshal(v *T) ([]byte, error)
}

type BytesCodec struct{}

func (BytesCodec) Unmarshal(data []byte, v *[]byte) error { *v = data; return nil }
func (BytesCodec) Marshal(v *[]byte) ([]byte, error)      { return *v, nil }

type Uint64Codec struct{}

func (Uint64Codec) Unmarshal(data []byte, v *uint64) error {
	*v = binary.BigEndian.Uint64(data)
	return nil
}

func (Uint64Codec) Marshal(v *uint64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, *v), nil
}

type JsonTypeCodec[T any] struct{}

func (JsonTypeCodec[T]) Unmarshal(data []byte, v *T) error { return json.Unmarshal(data, v) }
func (JsonTypeCodec[T]) Marshal(v *T) ([]byte, error)      { return json.Marshal(v) }

// mixedCodec is a self-describing tag+payload encoding for Mixed values,
// used by mixedArray to serialize a Cluster's value array into arena bytes.
// Variable-width payloads (string/binary/decimal) are length-prefixed.
type mixedCodec struct{}

func (mixedCodec) Marshal(v *Mixed) ([]byte, error) {
	buf := []byte{byte(v.Kind())}
	switch v.Kind() {
	case KindNull:
	case KindBool:
		b, _ := v.AsBool()
		if b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInt:
		i, _ := v.AsInt()
		buf = binary.BigEndian.AppendUint64(buf, uint64(i))
	case KindFloat:
		f, _ := v.AsFloat()
		buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(f))
	case KindDouble:
		d, _ := v.AsDouble()
		buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(d))
	case KindDecimal:
		dec, _ := v.AsDecimal()
		s := "0"
		if dec != nil {
			s = dec.RatString()
		}
		buf = appendLenPrefixed(buf, []byte(s))
	case KindString:
		s, _ := v.AsString()
		buf = appendLenPrefixed(buf, []byte(s))
	case KindBinary:
		b, _ := v.AsBinary()
		buf = appendLenPrefixed(buf, b)
	case KindTimestamp:
		ts, _ := v.AsTimestamp()
		enc, err := ts.MarshalBinary()
		if err != nil {
			return nil, err
		}
		buf = appendLenPrefixed(buf, enc)
	case KindObjectID:
		oid, _ := v.AsObjectID()
		buf = append(buf, oid[:]...)
	case KindUUID:
		uid, _ := v.AsUUID()
		buf = append(buf, uid[:]...)
	case KindTypedLink, KindUntypedLink:
		link, _ := v.AsLink()
		buf = binary.BigEndian.AppendUint32(buf, uint32(link.Table))
		buf = binary.BigEndian.AppendUint64(buf, uint64(link.Key))
	default:
		return nil, fmt.Errorf("dictcore: cannot encode mixed kind %d", v.Kind())
	}
	return buf, nil
}

func (mixedCodec) Unmarshal(data []byte, v *Mixed) error {
	if len(data) == 0 {
		return fmt.Errorf("dictcore: empty mixed encoding")
	}
	kind := Kind(data[0])
	rest := data[1:]
	switch kind {
	case KindNull:
		*v = MixedNull()
	case KindBool:
		*v = MixedBool(rest[0] == 1)
	case KindInt:
		*v = MixedInt(int64(binary.BigEndian.Uint64(rest)))
	case KindFloat:
		*v = MixedFloat(math.Float32frombits(binary.BigEndian.Uint32(rest)))
	case KindDouble:
		*v = MixedDouble(math.Float64frombits(binary.BigEndian.Uint64(rest)))
	case KindDecimal:
		s, _ := readLenPrefixed(rest)
		r := new(big.Rat)
		if _, ok := r.SetString(string(s)); !ok {
			return fmt.Errorf("dictcore: invalid decimal encoding %q", s)
		}
		*v = MixedDecimal(r)
	case KindString:
		s, _ := readLenPrefixed(rest)
		*v = MixedString(string(s))
	case KindBinary:
		b, _ := readLenPrefixed(rest)
		*v = MixedBinary(append([]byte(nil), b...))
	case KindTimestamp:
		enc, _ := readLenPrefixed(rest)
		var ts time.Time
		if err := ts.UnmarshalBinary(enc); err != nil {
			return err
		}
		*v = MixedTimestamp(ts)
	case KindObjectID:
		var oid ObjectID
		copy(oid[:], rest)
		*v = MixedObjectID(oid)
	case KindUUID:
		id, err := uuid.FromBytes(rest[:16])
		if err != nil {
			return err
		}
		*v = MixedUUID(id)
	case KindTypedLink:
		table := TableKey(binary.BigEndian.Uint32(rest))
		key := ObjKey(binary.BigEndian.Uint64(rest[4:]))
		*v = MixedTypedLink(ObjLink{Table: table, Key: key})
	case KindUntypedLink:
		key := ObjKey(binary.BigEndian.Uint64(rest[4:]))
		*v = MixedUntypedLink(key)
	default:
		return fmt.Errorf("dictcore: unknown mixed kind tag %d", kind)
	}
	return nil
}

func appendLenPrefixed(buf, v []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(v)))
	return append(buf, v...)
}

func readLenPrefixed(data []byte) ([]byte, []byte) {
	n := binary.BigEndian.Uint32(data)
	return data[4 : 4+n], data[4+n:]
}
