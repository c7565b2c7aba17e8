package amt

import (
	"math/bits"

	"github.com/polkax/go-ipld-tries/cid"
	"golang.org/x/exp/slices"
)

const (
	width         = 8
	bitsPerSubkey = 3
)

// child is one compact-array slot: either a Link to an unmaterialized node
// or, once touched, a cached Ptr to the decoded Node. Exactly one of the
// two is meaningful at a time: a materialized slot keeps node non-nil and
// its link stale until the next flush recomputes it.
type child struct {
	link cid.Cid
	node *Node
}

// Node is one level of the trie: at height 0 leafs holds values directly;
// at height > 0 branches holds one entry per set bitmap bit, each pointing
// at a child subtree.
type Node struct {
	bitmap   byte
	branches []*child
	leafs    []interface{}
}

func newNode() *Node { return &Node{} }

func (n *Node) isEmpty() bool { return n.bitmap == 0 }

// compactIndex returns the position within branches/leafs that bit i of
// bitmap occupies, per popcount(bitmap & ((1<<i)-1)).
func compactIndex(bitmap byte, i uint) int {
	return bits.OnesCount8(bitmap & byte((1<<i)-1))
}

func subIndex(key uint64, depth uint64) uint {
	return uint((key >> (bitsPerSubkey * depth)) & (width - 1))
}

func insertInterfaceAt(s []interface{}, i int, v interface{}) []interface{} {
	return slices.Insert(s, i, v)
}

func removeInterfaceAt(s []interface{}, i int) []interface{} {
	return slices.Delete(s, i, i+1)
}

func insertChildAt(s []*child, i int, v *child) []*child {
	return slices.Insert(s, i, v)
}

func removeChildAt(s []*child, i int) []*child {
	return slices.Delete(s, i, i+1)
}

// materialize loads c's child node from store if it has not been touched
// yet. The in-place upgrade from Link to Ptr is safe only under the tree's
// single-writer ownership.
func (c *child) materialize(store loader) error {
	if c.node != nil {
		return nil
	}
	node, err := loadNode(store, c.link)
	if err != nil {
		return err
	}
	c.node = node
	return nil
}

// set inserts or overwrites key at the subtree rooted at n, depth levels
// above the leaves. It reports whether this was a new key.
func (n *Node) set(store loader, depth uint64, key uint64, val interface{}) (bool, error) {
	idx := subIndex(key, depth)
	bit := byte(1) << idx
	ci := compactIndex(n.bitmap, idx)

	if depth == 0 {
		if n.bitmap&bit != 0 {
			n.leafs[ci] = val
			return false, nil
		}
		n.leafs = insertInterfaceAt(n.leafs, ci, val)
		n.bitmap |= bit
		return true, nil
	}

	if n.bitmap&bit == 0 {
		n.branches = insertChildAt(n.branches, ci, &child{node: newNode()})
		n.bitmap |= bit
	} else if err := n.branches[ci].materialize(store); err != nil {
		return false, err
	}
	return n.branches[ci].node.set(store, depth-1, key, val)
}

func (n *Node) get(store loader, depth uint64, key uint64) (interface{}, error) {
	idx := subIndex(key, depth)
	bit := byte(1) << idx
	if n.bitmap&bit == 0 {
		return nil, &ErrNotFound{Key: key}
	}
	ci := compactIndex(n.bitmap, idx)
	if depth == 0 {
		return n.leafs[ci], nil
	}
	if err := n.branches[ci].materialize(store); err != nil {
		return nil, err
	}
	return n.branches[ci].node.get(store, depth-1, key)
}

func (n *Node) del(store loader, depth uint64, key uint64) error {
	idx := subIndex(key, depth)
	bit := byte(1) << idx
	if n.bitmap&bit == 0 {
		return &ErrNotFound{Key: key}
	}
	ci := compactIndex(n.bitmap, idx)

	if depth == 0 {
		n.leafs = removeInterfaceAt(n.leafs, ci)
		n.bitmap &^= bit
		return nil
	}

	c := n.branches[ci]
	if err := c.materialize(store); err != nil {
		return err
	}
	if err := c.node.del(store, depth-1, key); err != nil {
		return err
	}
	if c.node.isEmpty() {
		n.branches = removeChildAt(n.branches, ci)
		n.bitmap &^= bit
	}
	return nil
}

// flush persists every dirty (materialized) child of n, depth levels above
// the leaves, replacing each with a fresh Link. n itself is left for the
// caller to persist (or, at the tree root, to embed in the outer triple).
func (n *Node) flush(store saver, depth uint64) error {
	if depth == 0 {
		return nil
	}
	for _, c := range n.branches {
		if c.node == nil {
			continue
		}
		if err := c.node.flush(store, depth-1); err != nil {
			return err
		}
		link, err := putNode(store, c.node)
		if err != nil {
			return err
		}
		c.link = link
		c.node = nil
	}
	return nil
}

func (n *Node) forEach(store loader, depth uint64, prefix uint64, fn func(uint64, interface{}) error) error {
	if depth == 0 {
		li := 0
		for i := uint(0); i < width; i++ {
			if n.bitmap&(1<<i) == 0 {
				continue
			}
			if err := fn(prefix|uint64(i), n.leafs[li]); err != nil {
				return err
			}
			li++
		}
		return nil
	}
	ci := 0
	for i := uint(0); i < width; i++ {
		if n.bitmap&(1<<i) == 0 {
			continue
		}
		c := n.branches[ci]
		if err := c.materialize(store); err != nil {
			return err
		}
		childPrefix := prefix | (uint64(i) << (bitsPerSubkey * depth))
		if err := c.node.forEach(store, depth-1, childPrefix, fn); err != nil {
			return err
		}
		ci++
	}
	return nil
}
