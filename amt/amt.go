// Package amt implements the Array Mapped Trie: a persistent,
// copy-on-write, width-8 trie keyed by unsigned 64-bit integers and backed
// by a content-addressed block store.
package amt

import (
	"fmt"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	"github.com/polkax/go-ipld-tries/ipld"
	logging "github.com/ipfs/go-log/v2"
	mh "github.com/multiformats/go-multihash"
	"go.uber.org/multierr"
)

var log = logging.Logger("amt")

// Amt is an Array Mapped Trie handle. The zero value is not usable; build
// one with New or Load.
type Amt struct {
	height uint64
	count  uint64
	root   *Node
	store  Store
}

// New builds an empty AMT over store.
func New(store Store) *Amt {
	return &Amt{root: newNode(), store: store}
}

// Load decodes the (height, count, root-node) triple at c and returns a
// tree handle over it.
func Load(c cid.Cid, store Store) (*Amt, error) {
	b, err := store.Get(c)
	if err != nil {
		return nil, err
	}
	val, err := ipld.DecodeCBOR(b.RawData())
	if err != nil {
		return nil, err
	}
	arr, ok := val.([]interface{})
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("amt: malformed root tuple")
	}
	height, err := asUint64(arr[0])
	if err != nil {
		return nil, fmt.Errorf("amt: root height: %w", err)
	}
	count, err := asUint64(arr[1])
	if err != nil {
		return nil, fmt.Errorf("amt: root count: %w", err)
	}
	root, err := decodeNodeValue(arr[2])
	if err != nil {
		return nil, err
	}
	return &Amt{height: height, count: count, root: root, store: store}, nil
}

func asUint64(v interface{}) (uint64, error) {
	switch x := v.(type) {
	case int64:
		return uint64(x), nil
	case uint64:
		return x, nil
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

// Height reports the tree's current height.
func (a *Amt) Height() uint64 { return a.height }

// Count reports the number of keys currently stored.
func (a *Amt) Count() uint64 { return a.count }

// Set inserts or overwrites key, growing the tree if key exceeds its
// current capacity.
func (a *Amt) Set(key uint64, val interface{}) error {
	if err := a.growForKey(key); err != nil {
		return err
	}
	isNew, err := a.root.set(a.store, a.height, key, val)
	if err != nil {
		return err
	}
	if isNew {
		a.count++
	}
	return nil
}

// growForKey extends the tree's height until key fits, flushing and
// wrapping the current root under a fresh single-branch root each step.
func (a *Amt) growForKey(key uint64) error {
	overflow := key >> (bitsPerSubkey * (a.height + 1))
	for overflow != 0 {
		if !a.root.isEmpty() {
			if err := a.root.flush(a.store, a.height); err != nil {
				return err
			}
			link, err := putNode(a.store, a.root)
			if err != nil {
				return err
			}
			wrapped := newNode()
			wrapped.bitmap = 1
			wrapped.branches = []*child{{link: link}}
			a.root = wrapped
		}
		overflow >>= bitsPerSubkey
		a.height++
	}
	return nil
}

// Get returns the value stored at key, or ErrNotFound.
func (a *Amt) Get(key uint64) (interface{}, error) {
	if key>>(bitsPerSubkey*(a.height+1)) != 0 {
		return nil, &ErrNotFound{Key: key}
	}
	return a.root.get(a.store, a.height, key)
}

// Delete removes key, or returns ErrNotFound. The tree collapses its root
// downward while it has a single, empty-height-spanning branch.
func (a *Amt) Delete(key uint64) error {
	if key>>(bitsPerSubkey*(a.height+1)) != 0 {
		return &ErrNotFound{Key: key}
	}
	if err := a.root.del(a.store, a.height, key); err != nil {
		return err
	}
	a.count--
	for a.height > 0 && a.root.bitmap == 1 {
		c := a.root.branches[0]
		if err := c.materialize(a.store); err != nil {
			return err
		}
		a.root = c.node
		a.height--
	}
	return nil
}

// BatchSet sets list[i] at key i for every index in list. A failure at one
// index does not abort the rest of the batch; every per-key error is
// collected and returned together.
func (a *Amt) BatchSet(list []interface{}) error {
	var errs error
	for i, v := range list {
		if err := a.Set(uint64(i), v); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("amt: batch set key %d: %w", i, err))
		}
	}
	return errs
}

// ForEach visits every key in ascending order, materializing children on
// demand.
func (a *Amt) ForEach(fn func(key uint64, val interface{}) error) error {
	return a.root.forEach(a.store, a.height, 0, fn)
}

// Subtract removes from a every key present in other. A key present in
// other but absent from a is not an error.
func (a *Amt) Subtract(other *Amt) error {
	return other.ForEach(func(k uint64, _ interface{}) error {
		err := a.Delete(k)
		if _, notFound := err.(*ErrNotFound); notFound {
			return nil
		}
		return err
	})
}

// Flush serializes the tree, persisting every dirty node and returning the
// CID of the outer (height, count, root-node) triple.
func (a *Amt) Flush() (cid.Cid, error) {
	if err := a.root.flush(a.store, a.height); err != nil {
		return cid.Undef, err
	}
	rootVal, err := encodeNodeValue(a.root)
	if err != nil {
		return cid.Undef, err
	}
	raw, err := ipld.EncodeCBOR([]interface{}{int64(a.height), int64(a.count), rootVal})
	if err != nil {
		return cid.Undef, err
	}
	digest, err := mh.Sum(raw, nodeHash, -1)
	if err != nil {
		return cid.Undef, err
	}
	c := cid.NewCidV1(cid.DagCBOR, digest)
	b, err := block.NewWithCID(raw, c)
	if err != nil {
		return cid.Undef, err
	}
	if err := a.store.Put(b); err != nil {
		return cid.Undef, err
	}
	log.Debugw("flushed amt root", "cid", c, "height", a.height, "count", a.count)
	return c, nil
}

// Iterator is a cursor over a snapshot of the tree's entries, in ascending
// key order.
type Iterator struct {
	entries []kv
	pos     int
}

type kv struct {
	key uint64
	val interface{}
}

// Iterator builds an ascending-order cursor over the tree's current
// contents. It snapshots the key/value pairs up front, so subsequent
// mutation of the tree does not affect an in-progress iteration.
func (a *Amt) Iterator() (*Iterator, error) {
	it := &Iterator{}
	err := a.ForEach(func(k uint64, v interface{}) error {
		it.entries = append(it.entries, kv{key: k, val: v})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Next advances the cursor, returning false once exhausted.
func (it *Iterator) Next() bool {
	if it.pos >= len(it.entries) {
		return false
	}
	it.pos++
	return true
}

// Key and Value return the current entry; valid only after a Next that
// returned true.
func (it *Iterator) Key() uint64        { return it.entries[it.pos-1].key }
func (it *Iterator) Value() interface{} { return it.entries[it.pos-1].val }
