package dictcore

import "sort"

// Sort reorders idxVec, a caller-owned vector of absolute positions (e.g.
// 0..Size()-1 on first use, or a previously filtered subset), by this
// dictionary's values under Mixed.Compare. asc selects ascending order.
func (d *Dictionary) Sort(idxVec []int, asc bool) error {
	var sortErr error
	sort.SliceStable(idxVec, func(i, j int) bool {
		_, vi, err := d.GetPair(idxVec[i])
		if err != nil {
			sortErr = err
			return false
		}
		_, vj, err := d.GetPair(idxVec[j])
		if err != nil {
			sortErr = err
			return false
		}
		c := vi.Compare(vj)
		if asc {
			return c < 0
		}
		return c > 0
	})
	return sortErr
}

// SortKeys is Sort's key-side counterpart, ordering idxVec by this
// dictionary's keys rather than its values.
func (d *Dictionary) SortKeys(idxVec []int, asc bool) error {
	var sortErr error
	sort.SliceStable(idxVec, func(i, j int) bool {
		ki, _, err := d.GetPair(idxVec[i])
		if err != nil {
			sortErr = err
			return false
		}
		kj, _, err := d.GetPair(idxVec[j])
		if err != nil {
			sortErr = err
			return false
		}
		c := ki.Compare(kj)
		if asc {
			return c < 0
		}
		return c > 0
	})
	return sortErr
}

// Distinct sorts idxVec ascending, collapses runs of Equal values down to
// their first occurrence, then re-sorts the survivors per asc.
func (d *Dictionary) Distinct(idxVec []int, asc bool) ([]int, error) {
	if err := d.Sort(idxVec, true); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(idxVec))
	var prev Mixed
	havePrev := false
	for _, idx := range idxVec {
		_, v, err := d.GetPair(idx)
		if err != nil {
			return nil, err
		}
		if havePrev && v.Equal(prev) {
			continue
		}
		out = append(out, idx)
		prev, havePrev = v, true
	}
	if !asc {
		if err := d.Sort(out, false); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DistinctKeys is a no-op: a Dictionary's keys are already unique by
// construction (one slot per key), so every position is distinct.
func (d *Dictionary) DistinctKeys(idxVec []int) []int {
	return idxVec
}
