package hamt

import (
	"math/big"
	"sort"

	"github.com/polkax/go-ipld-tries/cid"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"
)

// arrayWidth is the maximum number of entries a bucket holds before it
// splits into a subshard.
const arrayWidth = 3

type pointerKind int

const (
	pointerLink pointerKind = iota
	pointerBucket
)

// kv is one bucket entry.
type kv struct {
	key   string
	value interface{}
}

// Pointer is one compact-array slot: either a Link to an unmaterialized
// subshard, or a Bucket of up to arrayWidth sorted key/value pairs.
type Pointer struct {
	kind       pointerKind
	link       cid.Cid
	cachedNode *Node
	bucket     []kv
}

func (p *Pointer) materialize(store loader) error {
	if p.kind != pointerLink || p.cachedNode != nil {
		return nil
	}
	n, err := loadNode(store, p.link)
	if err != nil {
		return err
	}
	p.cachedNode = n
	return nil
}

// Node is one level of the trie: bitfield marks which of the 2^bit_width
// slots are occupied, pointers is the compact array mirroring its
// population count.
type Node struct {
	bitfield *big.Int
	pointers []*Pointer
}

func newEmptyNode() *Node { return &Node{bitfield: new(big.Int)} }

func (n *Node) size() int { return len(n.pointers) }

// popcountBelow returns the number of set bits in bitfield strictly below
// position idx, i.e. the compact index that bit idx occupies.
func popcountBelow(bitfield *big.Int, idx uint64) int {
	count := 0
	for i := uint64(0); i < idx; i++ {
		if bitfield.Bit(int(i)) != 0 {
			count++
		}
	}
	return count
}

func insertPointerAt(s []*Pointer, i int, v *Pointer) []*Pointer {
	return slices.Insert(s, i, v)
}

func removePointerAt(s []*Pointer, i int) []*Pointer {
	return slices.Delete(s, i, i+1)
}

func (n *Node) find(store loader, bitWidth uint, hb *hashBits, key string) (interface{}, error) {
	idx, err := hb.next()
	if err != nil {
		return nil, err
	}
	if n.bitfield.Bit(int(idx)) == 0 {
		return nil, &ErrNotFound{Key: key}
	}
	ci := popcountBelow(n.bitfield, idx)
	p := n.pointers[ci]
	switch p.kind {
	case pointerBucket:
		for _, e := range p.bucket {
			if e.key == key {
				return e.value, nil
			}
		}
		return nil, &ErrNotFound{Key: key}
	default:
		if err := p.materialize(store); err != nil {
			return nil, err
		}
		return p.cachedNode.find(store, bitWidth, hb, key)
	}
}

func (n *Node) set(store Store, bitWidth uint, hb *hashBits, key string, val interface{}) (bool, error) {
	idx, err := hb.next()
	if err != nil {
		return false, err
	}

	if n.bitfield.Bit(int(idx)) == 0 {
		ci := popcountBelow(n.bitfield, idx)
		n.bitfield.SetBit(n.bitfield, int(idx), 1)
		n.pointers = insertPointerAt(n.pointers, ci, &Pointer{kind: pointerBucket, bucket: []kv{{key: key, value: val}}})
		return true, nil
	}

	ci := popcountBelow(n.bitfield, idx)
	p := n.pointers[ci]
	switch p.kind {
	case pointerLink:
		if err := p.materialize(store); err != nil {
			return false, err
		}
		return p.cachedNode.set(store, bitWidth, hb, key, val)
	default:
		for i, e := range p.bucket {
			if e.key == key {
				p.bucket[i].value = val
				return false, nil
			}
		}
		if len(p.bucket) < arrayWidth {
			p.bucket = append(p.bucket, kv{key: key, value: val})
			sortBucket(p.bucket)
			return true, nil
		}
		return true, n.splitBucket(store, bitWidth, hb.consumed, ci, p, key, val)
	}
}

// splitBucket replaces an overflowing bucket with a link to a fresh
// subshard, re-inserting every existing entry plus the new one using hash
// cursors that share the current consumed-bits offset, so colliding
// prefixes land consistently in the new level.
func (n *Node) splitBucket(store Store, bitWidth uint, consumed uint, ci int, p *Pointer, key string, val interface{}) error {
	sub := newEmptyNode()
	entries := make([]kv, len(p.bucket), len(p.bucket)+1)
	copy(entries, p.bucket)
	entries = append(entries, kv{key: key, value: val})

	for _, e := range entries {
		subHb := newHashBitsAt(hashKey(e.key), bitWidth, consumed)
		if _, err := sub.set(store, bitWidth, subHb, e.key, e.value); err != nil {
			return err
		}
	}

	link, err := putNode(store, sub)
	if err != nil {
		return err
	}
	n.pointers[ci] = &Pointer{kind: pointerLink, link: link, cachedNode: sub}
	return nil
}

func (n *Node) del(store Store, bitWidth uint, hb *hashBits, key string) error {
	idx, err := hb.next()
	if err != nil {
		return err
	}
	if n.bitfield.Bit(int(idx)) == 0 {
		return &ErrNotFound{Key: key}
	}
	ci := popcountBelow(n.bitfield, idx)
	p := n.pointers[ci]
	switch p.kind {
	case pointerLink:
		if err := p.materialize(store); err != nil {
			return err
		}
		if err := p.cachedNode.del(store, bitWidth, hb, key); err != nil {
			return err
		}
		return n.cleanChild(ci, idx)
	default:
		pos := -1
		for i, e := range p.bucket {
			if e.key == key {
				pos = i
				break
			}
		}
		if pos == -1 {
			return &ErrNotFound{Key: key}
		}
		p.bucket = append(p.bucket[:pos], p.bucket[pos+1:]...)
		if len(p.bucket) == 0 {
			n.pointers = removePointerAt(n.pointers, ci)
			n.bitfield.SetBit(n.bitfield, int(idx), 0)
		}
		return nil
	}
}

// cleanChild applies the post-delete collapse rule to the child at compact
// index ci (bitmap position idx): a child with no pointers is corrupt; a
// single-bucket child is lifted in place; a small all-bucket child is
// concatenated into one bucket here; anything else is left alone.
func (n *Node) cleanChild(ci int, idx uint64) error {
	child := n.pointers[ci].cachedNode
	switch size := child.size(); {
	case size == 0:
		return &ErrInvalidFormat{}
	case size == 1:
		only := child.pointers[0]
		if only.kind == pointerBucket {
			n.pointers[ci] = &Pointer{kind: pointerBucket, bucket: append([]kv{}, only.bucket...)}
		}
		return nil
	case size <= arrayWidth:
		merged := make([]kv, 0, size*arrayWidth)
		for _, cp := range child.pointers {
			if cp.kind == pointerLink {
				return nil
			}
			merged = append(merged, cp.bucket...)
		}
		if len(merged) > arrayWidth {
			return nil
		}
		sortBucket(merged)
		n.pointers[ci] = &Pointer{kind: pointerBucket, bucket: merged}
		return nil
	default:
		return nil
	}
}

func sortBucket(b []kv) {
	sort.Slice(b, func(i, j int) bool { return b[i].key < b[j].key })
}

// flush persists every dirty child, replacing it with a fresh Link. Every
// child's failure is collected rather than aborting the rest of the fan-out,
// so a single bad subshard doesn't leave its siblings unflushed.
func (n *Node) flush(store saver) error {
	var errs error
	for _, p := range n.pointers {
		if p.kind != pointerLink || p.cachedNode == nil {
			continue
		}
		if err := p.cachedNode.flush(store); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		link, err := putNode(store, p.cachedNode)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		p.link = link
		p.cachedNode = nil
	}
	return errs
}

func (n *Node) checkSize(store loader) (uint64, error) {
	var total uint64
	for _, p := range n.pointers {
		if p.kind != pointerLink {
			continue
		}
		child := p.cachedNode
		if child == nil {
			loaded, err := loadNode(store, p.link)
			if err != nil {
				return 0, err
			}
			child = loaded
		}
		sub, err := child.checkSize(store)
		if err != nil {
			return 0, err
		}
		total += sub
	}
	val, err := encodeNodeValue(n)
	if err != nil {
		return 0, err
	}
	raw, err := cborEncode(val)
	if err != nil {
		return 0, err
	}
	return total + uint64(len(raw)), nil
}

func (n *Node) deepCopy() *Node {
	cp := &Node{bitfield: new(big.Int).Set(n.bitfield)}
	cp.pointers = make([]*Pointer, len(n.pointers))
	for i, p := range n.pointers {
		np := &Pointer{kind: p.kind, link: p.link}
		if p.kind == pointerBucket {
			np.bucket = append([]kv{}, p.bucket...)
		}
		if p.cachedNode != nil {
			np.cachedNode = p.cachedNode.deepCopy()
		}
		cp.pointers[i] = np
	}
	return cp
}
