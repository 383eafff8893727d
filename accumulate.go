package dictcore

// ValueType names the scalar/link type a Dictionary Handle declares for its
// values. It governs both write-path type checking (normalize.go) and which
// accumulator specialization sum/avg dispatch to.
type ValueType uint8

const (
	ValueTypeInt ValueType = iota
	ValueTypeFloat
	ValueTypeDouble
	ValueTypeDecimal
	ValueTypeBool
	ValueTypeString
	ValueTypeBinary
	ValueTypeTimestamp
	ValueTypeObjectID
	ValueTypeUUID
	ValueTypeLink
	ValueTypeMixed
)

type aggKind uint8

const (
	aggMin aggKind = iota
	aggMax
	aggSum
	aggAvg
)

// accumulator implements a single accumulate(value) -> took_it capability,
// parameterized over {Int, Float, Double, Mixed} by the declared value type
// rather than as four near-duplicate scans (see DESIGN.md, C2).
type accumulator struct {
	kind       aggKind
	declared   ValueType
	count      int
	sumInt     int64
	sumF32     float32
	sumF64     float64
	extreme    Mixed
	hasExtreme bool
}

func newAccumulator(kind aggKind, declared ValueType) *accumulator {
	return &accumulator{kind: kind, declared: declared}
}

// Take attempts to fold v into the running result, reporting whether it
// participated (non-null, type-compatible).
func (a *accumulator) Take(v Mixed) bool {
	if v.IsNull() {
		return false
	}
	switch a.kind {
	case aggMin:
		if !a.hasExtreme || v.Compare(a.extreme) < 0 {
			a.extreme, a.hasExtreme = v, true
		}
		a.count++
		return true
	case aggMax:
		if !a.hasExtreme || v.Compare(a.extreme) > 0 {
			a.extreme, a.hasExtreme = v, true
		}
		a.count++
		return true
	case aggSum, aggAvg:
		if !v.isNumeric() {
			return false
		}
		switch a.declared {
		case ValueTypeInt:
			iv, _ := v.AsInt()
			a.sumInt += iv
		case ValueTypeFloat:
			fv, _ := v.AsFloat()
			a.sumF32 += fv
		default:
			a.sumF64 += v.numeric()
		}
		a.count++
		return true
	default:
		return false
	}
}

func (a *accumulator) Count() int { return a.count }

// Result renders the accumulated state as a Mixed value, typed per the
// declared value type for sum/avg. min/max return the null sentinel for an
// empty scan; sum-of-int returns 0, matching the documented boundary
// behavior for empty dictionaries.
func (a *accumulator) Result() Mixed {
	switch a.kind {
	case aggMin, aggMax:
		if !a.hasExtreme {
			return MixedNull()
		}
		return a.extreme
	case aggSum:
		return a.sumAsMixed()
	case aggAvg:
		if a.count == 0 {
			return MixedNull()
		}
		return a.avgAsMixed()
	default:
		return MixedNull()
	}
}

func (a *accumulator) sumAsMixed() Mixed {
	switch a.declared {
	case ValueTypeInt:
		return MixedInt(a.sumInt)
	case ValueTypeFloat:
		return MixedFloat(a.sumF32)
	default:
		return MixedDouble(a.sumF64)
	}
}

func (a *accumulator) avgAsMixed() Mixed {
	switch a.declared {
	case ValueTypeInt:
		return MixedDouble(float64(a.sumInt) / float64(a.count))
	case ValueTypeFloat:
		return MixedFloat(a.sumF32 / float32(a.count))
	default:
		return MixedDouble(a.sumF64 / float64(a.count))
	}
}

// Aggregate scans every Cluster's value column through a fresh accumulator
// of the given kind, dispatched per declared. Used by ClusterTree's
// min/max/sum/avg and, transitively, by the façade.
func (t *ClusterTree) Aggregate(kind aggKind, declared ValueType) (result Mixed, count int, err error) {
	acc := newAccumulator(kind, declared)
	err = t.Traverse(func(c *Cluster) bool {
		for i := 0; i < c.Len(); i++ {
			v, verr := c.ValueAt(i)
			if verr != nil {
				err = verr
				return false
			}
			acc.Take(v)
		}
		return true
	})
	if err != nil {
		return Mixed{}, 0, err
	}
	return acc.Result(), acc.Count(), nil
}
