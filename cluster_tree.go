package dictcore

import (
	"log/slog"
	"sort"
)

// internalNode is an in-memory routing node of the ClusterTree. Only
// Clusters (leaves) are arena-referenced; internal nodes are plain Go
// structs that live only as long as the ClusterTree value and are never
// persisted or rebuilt from an existing arena (see DESIGN.md Open Question
// OQ-4). seps[i] is the smallest slot id reachable through children[i+1].
type internalNode struct {
	children []interface{} // *internalNode or *Cluster
	seps     []uint64
}

func (n *internalNode) childIndex(slotID uint64) int {
	return sort.Search(len(n.seps), func(i int) bool { return n.seps[i] > slotID })
}

// ClusterTree is the slot-id-keyed B+-tree described as C2: insert, get,
// erase, positional access and full-scan aggregates over Clusters. Split
// logic is ported from the teacher's btree_disk.go doPut/splitNode; erase is
// deliberately not rebalancing (see DESIGN.md OQ-4) — it only collapses a
// routing node that degenerates to a single child after a leaf empties out.
type ClusterTree struct {
	arena   Arena
	keyType KeyType
	order   int
	root    interface{}
	size    int
	logger  *slog.Logger
}

func newClusterTree(arena Arena, keyType KeyType, order int, logger *slog.Logger) *ClusterTree {
	if order < 3 {
		order = 3
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClusterTree{arena: arena, keyType: keyType, order: order, logger: logger}
}

func (t *ClusterTree) Size() int { return t.size }

func (t *ClusterTree) ensureRoot() error {
	if t.root != nil {
		return nil
	}
	leaf, err := newCluster(t.arena, t.keyType)
	if err != nil {
		return err
	}
	t.root = leaf
	return nil
}

// Insert adds a new entry. Returns errSlotAlreadyUsed (uncaught at this
// layer — the façade converts it to an update) if slotID is already
// present.
func (t *ClusterTree) Insert(slotID uint64, key, value Mixed) error {
	if err := t.ensureRoot(); err != nil {
		return err
	}
	newRoot, err := t.insert(t.root, slotID, key, value)
	if err != nil {
		return err
	}
	if newRoot != t.root {
		t.logger.Debug("cluster tree root split", slog.Uint64("slot", slotID))
	}
	t.root = newRoot
	return nil
}

func (t *ClusterTree) insert(node interface{}, slotID uint64, key, value Mixed) (interface{}, error) {
	switch n := node.(type) {
	case *Cluster:
		idx, found := n.find(slotID)
		if found {
			return node, errSlotAlreadyUsed
		}
		if err := n.InsertAt(idx, slotID, key, value); err != nil {
			return node, err
		}
		t.size++
		if n.Len() > t.order {
			left, right, sep, err := t.splitLeaf(n)
			if err != nil {
				return node, err
			}
			return &internalNode{children: []interface{}{left, right}, seps: []uint64{sep}}, nil
		}
		return node, nil
	case *internalNode:
		ci := n.childIndex(slotID)
		newChild, err := t.insert(n.children[ci], slotID, key, value)
		if err != nil {
			return node, err
		}
		if newChild != n.children[ci] {
			sub := newChild.(*internalNode)
			n.children[ci] = sub.children[0]
			n.children = append(n.children, nil)
			copy(n.children[ci+2:], n.children[ci+1:])
			n.children[ci+1] = sub.children[1]
			n.seps = append(n.seps, 0)
			copy(n.seps[ci+1:], n.seps[ci:])
			n.seps[ci] = sub.seps[0]
		}
		if len(n.children) > t.order {
			left, right, sep := t.splitInternal(n)
			return &internalNode{children: []interface{}{left, right}, seps: []uint64{sep}}, nil
		}
		return node, nil
	default:
		return node, newDictError("insert", ErrNotImplemented, nil)
	}
}

func (t *ClusterTree) splitLeaf(c *Cluster) (left, right *Cluster, sep uint64, err error) {
	mid := c.Len() / 2
	right, err = c.splitOff(mid)
	if err != nil {
		return nil, nil, 0, err
	}
	sep, err = right.SlotAt(0)
	if err != nil {
		return nil, nil, 0, err
	}
	return c, right, sep, nil
}

// splitInternal copies into fresh backing arrays rather than re-slicing n's
// own children/seps: a re-sliced left half would keep n's full capacity and
// alias right's elements, so a later append into left (the splice at
// insert's internalNode case above) would silently overwrite right's first
// child/separator.
func (t *ClusterTree) splitInternal(n *internalNode) (left, right *internalNode, sep uint64) {
	mid := len(n.children) / 2
	left = &internalNode{
		children: append([]interface{}(nil), n.children[:mid]...),
		seps:     append([]uint64(nil), n.seps[:mid-1]...),
	}
	right = &internalNode{
		children: append([]interface{}(nil), n.children[mid:]...),
		seps:     append([]uint64(nil), n.seps[mid:]...),
	}
	sep = n.seps[mid-1]
	return
}

// locate descends to the leaf that would hold slotID.
func (t *ClusterTree) locate(slotID uint64) (*Cluster, int, bool) {
	node := t.root
	for {
		switch n := node.(type) {
		case nil:
			return nil, 0, false
		case *Cluster:
			idx, found := n.find(slotID)
			return n, idx, found
		case *internalNode:
			node = n.children[n.childIndex(slotID)]
		}
	}
}

func (t *ClusterTree) Get(slotID uint64) (key, value Mixed, err error) {
	leaf, idx, found := t.locate(slotID)
	if !found {
		return Mixed{}, Mixed{}, errSlotNotFound
	}
	key, err = leaf.KeyAt(idx)
	if err != nil {
		return Mixed{}, Mixed{}, err
	}
	value, err = leaf.ValueAt(idx)
	return
}

func (t *ClusterTree) TryGet(slotID uint64) (key, value Mixed, ok bool, err error) {
	leaf, idx, found := t.locate(slotID)
	if !found {
		return Mixed{}, Mixed{}, false, nil
	}
	key, err = leaf.KeyAt(idx)
	if err != nil {
		return Mixed{}, Mixed{}, false, err
	}
	value, err = leaf.ValueAt(idx)
	if err != nil {
		return Mixed{}, Mixed{}, false, err
	}
	return key, value, true, nil
}

// SetValue overwrites the value at slotID in place (used by the façade's
// duplicate-key update path) and returns the old value.
func (t *ClusterTree) SetValue(slotID uint64, value Mixed) (old Mixed, err error) {
	leaf, idx, found := t.locate(slotID)
	if !found {
		return Mixed{}, errSlotNotFound
	}
	old, err = leaf.ValueAt(idx)
	if err != nil {
		return Mixed{}, err
	}
	return old, leaf.SetValueAt(idx, value)
}

// GetNdx returns slotID's absolute position in traversal (ascending
// slot-id) order.
func (t *ClusterTree) GetNdx(slotID uint64) (int, error) {
	leaf, idx, found := t.locate(slotID)
	if !found {
		return 0, errSlotNotFound
	}
	count := 0
	done := false
	err := t.Traverse(func(c *Cluster) bool {
		if c == leaf {
			count += idx
			done = true
			return false
		}
		count += c.Len()
		return true
	})
	if err != nil {
		return 0, err
	}
	if !done {
		return 0, errSlotNotFound
	}
	return count, nil
}

// GetByIndex returns the (slot_id, key, value) triple at absolute position
// ndx in traversal order.
func (t *ClusterTree) GetByIndex(ndx int) (slotID uint64, key, value Mixed, err error) {
	if ndx < 0 || ndx >= t.size {
		return 0, Mixed{}, Mixed{}, errIndexOutOfRange
	}
	remaining := ndx
	found := false
	terr := t.Traverse(func(c *Cluster) bool {
		if remaining < c.Len() {
			slotID, _ = c.SlotAt(remaining)
			key, _ = c.KeyAt(remaining)
			value, _ = c.ValueAt(remaining)
			found = true
			return false
		}
		remaining -= c.Len()
		return true
	})
	if terr != nil {
		return 0, Mixed{}, Mixed{}, terr
	}
	if !found {
		return 0, Mixed{}, Mixed{}, errIndexOutOfRange
	}
	return slotID, key, value, nil
}

// Traverse visits every Cluster in ascending slot-id (DFS) order, stopping
// early if visit returns false.
func (t *ClusterTree) Traverse(visit func(c *Cluster) bool) error {
	var walk func(node interface{}) bool
	walk = func(node interface{}) bool {
		switch n := node.(type) {
		case nil:
			return true
		case *Cluster:
			return visit(n)
		case *internalNode:
			for _, ch := range n.children {
				if !walk(ch) {
					return false
				}
			}
			return true
		default:
			return true
		}
	}
	walk(t.root)
	return nil
}

// Erase removes slotID's entry. Deletion is simplified per DESIGN.md OQ-4:
// no borrow/merge rebalancing, only collapsing a node that has become
// completely empty or degenerates to a single child.
func (t *ClusterTree) Erase(slotID uint64) (key, value Mixed, err error) {
	if t.root == nil {
		return Mixed{}, Mixed{}, errSlotNotFound
	}
	var st stack
	node := t.root
	for {
		switch n := node.(type) {
		case *Cluster:
			idx, found := n.find(slotID)
			if !found {
				return Mixed{}, Mixed{}, errSlotNotFound
			}
			key, err = n.KeyAt(idx)
			if err != nil {
				return Mixed{}, Mixed{}, err
			}
			value, err = n.ValueAt(idx)
			if err != nil {
				return Mixed{}, Mixed{}, err
			}
			if err = n.RemoveAt(idx); err != nil {
				return Mixed{}, Mixed{}, err
			}
			t.size--
			t.collapseIfEmpty(&st, n)
			return key, value, nil
		case *internalNode:
			ci := n.childIndex(slotID)
			st.push(stackElement{node: n, tag: uint64(ci)})
			node = n.children[ci]
		default:
			return Mixed{}, Mixed{}, errSlotNotFound
		}
	}
}

func (t *ClusterTree) collapseIfEmpty(st *stack, leaf *Cluster) {
	if leaf.Len() > 0 {
		return
	}
	frame := st.pop()
	parent, ok := frame.node.(*internalNode)
	if !ok {
		// leaf was the root; leave it in place, empty.
		return
	}
	ci := int(frame.tag)
	parent.children = append(parent.children[:ci], parent.children[ci+1:]...)
	// seps[i] is the smallest slot id reachable through children[i+1], so
	// removing children[ci] retires the separator that pointed at it:
	// seps[ci-1] for ci>0, or seps[0] for ci==0 (it described the new
	// leftmost child, which needs no separator).
	sepIdx := ci - 1
	if sepIdx < 0 {
		sepIdx = 0
	}
	parent.seps = append(parent.seps[:sepIdx], parent.seps[sepIdx+1:]...)
	if len(parent.children) != 1 {
		return
	}
	only := parent.children[0]
	grand := st.peek()
	if gp, ok := grand.node.(*internalNode); ok {
		gp.children[grand.tag] = only
		return
	}
	t.root = only
}
