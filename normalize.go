package dictcore

import "strings"

// declaredKind maps a non-Link, non-Mixed ValueType to the Kind a stored
// value must carry.
func declaredKind(vt ValueType) (Kind, bool) {
	switch vt {
	case ValueTypeInt:
		return KindInt, true
	case ValueTypeFloat:
		return KindFloat, true
	case ValueTypeDouble:
		return KindDouble, true
	case ValueTypeDecimal:
		return KindDecimal, true
	case ValueTypeBool:
		return KindBool, true
	case ValueTypeString:
		return KindString, true
	case ValueTypeBinary:
		return KindBinary, true
	case ValueTypeTimestamp:
		return KindTimestamp, true
	case ValueTypeObjectID:
		return KindObjectID, true
	case ValueTypeUUID:
		return KindUUID, true
	default:
		return 0, false
	}
}

// normalizeWrite enforces the write-path value contract (spec §4.3) before
// any tree mutation: nullability, link rewriting/validation, and plain
// type-compatibility for every other declared type.
func normalizeWrite(value Mixed, declared ValueType, nullable bool, col ColKey, resolver ObjectResolver) (Mixed, error) {
	if value.IsNull() {
		if !nullable {
			return Mixed{}, newDictError("insert", ErrTypeMismatch, nil)
		}
		return value, nil
	}
	switch declared {
	case ValueTypeLink:
		switch value.Kind() {
		case KindTypedLink:
			link, _ := value.AsLink()
			if link.Table != resolver.OppositeTable(col) {
				return Mixed{}, newDictError("insert", ErrWrongObjectType, nil)
			}
			return value, nil
		case KindUntypedLink:
			link, _ := value.AsLink()
			opposite := resolver.OppositeTable(col)
			if !link.IsUnresolved() && !resolver.IsValid(opposite, link.Key) {
				return Mixed{}, newDictError("insert", ErrTargetOutOfRange, nil)
			}
			return MixedTypedLink(ObjLink{Table: opposite, Key: link.Key}), nil
		default:
			return Mixed{}, newDictError("insert", ErrTypeMismatch, nil)
		}
	case ValueTypeMixed:
		if value.Kind() == KindTypedLink || value.Kind() == KindUntypedLink {
			link, _ := value.AsLink()
			if !link.IsUnresolved() {
				if err := resolver.Validate(link); err != nil {
					return Mixed{}, newDictError("insert", ErrTargetOutOfRange, err)
				}
			}
		}
		return value, nil
	default:
		want, ok := declaredKind(declared)
		if !ok || value.Kind() != want {
			return Mixed{}, newDictError("insert", ErrTypeMismatch, nil)
		}
		return value, nil
	}
}

// normalizeRead applies the read-path filtering (spec §4.3): unresolved
// typed-links become null, and a Link-column's typed-link is unwrapped to
// its bare object key since the table is implicit from the column.
func normalizeRead(value Mixed, declared ValueType) Mixed {
	if value.Kind() == KindTypedLink || value.Kind() == KindUntypedLink {
		link, _ := value.AsLink()
		if link.IsUnresolved() {
			return MixedNull()
		}
	}
	if declared == ValueTypeLink && value.Kind() == KindTypedLink {
		link, _ := value.AsLink()
		return MixedUntypedLink(link.Key)
	}
	return value
}

// validateKey enforces the key-side contract applied at insert and erase:
// runtime type must match the declared key type, and string keys may not
// begin with "$" or contain ".".
func validateKey(key Mixed, declaredKeyType KeyType) error {
	switch declaredKeyType {
	case KeyTypeInt:
		if key.Kind() != KindInt {
			return newDictError("key", ErrCollectionTypeMismatch, nil)
		}
	case KeyTypeString:
		if key.Kind() != KindString {
			return newDictError("key", ErrCollectionTypeMismatch, nil)
		}
		s, _ := key.AsString()
		if strings.HasPrefix(s, "$") || strings.Contains(s, ".") {
			return newDictError("key", ErrInvalidKey, nil)
		}
	}
	return nil
}
