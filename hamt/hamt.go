// Package hamt implements the Hash Array Mapped Trie: a persistent,
// copy-on-write trie keyed by the hash of an arbitrary byte-string key,
// backed by a content-addressed block store.
package hamt

import (
	"fmt"

	"github.com/polkax/go-ipld-tries/cid"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("hamt")

const defaultBitWidth = 8

// Hamt is a Hash Array Mapped Trie handle. Build one with New or Load.
type Hamt struct {
	bitWidth uint
	root     *Node
	store    Store
}

// Option configures New/Load. BitWidth sets the number of hash bits
// consumed per level; it must be in [1, 8] and defaults to 8.
type Option func(*Hamt)

// BitWidth overrides the default 8-bit-per-level addressing width.
func BitWidth(bits uint) Option {
	return func(h *Hamt) { h.bitWidth = bits }
}

// New builds an empty HAMT over store.
func New(store Store, opts ...Option) (*Hamt, error) {
	h := &Hamt{bitWidth: defaultBitWidth, root: newEmptyNode(), store: store}
	for _, opt := range opts {
		opt(h)
	}
	if h.bitWidth < 1 || h.bitWidth > 8 {
		return nil, fmt.Errorf("hamt: bit_width must be in [1,8], got %d", h.bitWidth)
	}
	return h, nil
}

// Load decodes the root node at c and returns a tree handle over it.
func Load(c cid.Cid, store Store, opts ...Option) (*Hamt, error) {
	root, err := loadNode(store, c)
	if err != nil {
		return nil, err
	}
	h := &Hamt{bitWidth: defaultBitWidth, root: root, store: store}
	for _, opt := range opts {
		opt(h)
	}
	if h.bitWidth < 1 || h.bitWidth > 8 {
		return nil, fmt.Errorf("hamt: bit_width must be in [1,8], got %d", h.bitWidth)
	}
	return h, nil
}

// BitWidthOf reports the tree's configured bit width.
func (h *Hamt) BitWidthOf() uint { return h.bitWidth }

// Find looks up key, returning ErrNotFound if absent.
func (h *Hamt) Find(key string) (interface{}, error) {
	return h.root.find(h.store, h.bitWidth, newHashBits(hashKey(key), h.bitWidth), key)
}

// Set inserts or overwrites key.
func (h *Hamt) Set(key string, val interface{}) error {
	_, err := h.root.set(h.store, h.bitWidth, newHashBits(hashKey(key), h.bitWidth), key, val)
	return err
}

// Delete removes key, or returns ErrNotFound.
func (h *Hamt) Delete(key string) error {
	return h.root.del(h.store, h.bitWidth, newHashBits(hashKey(key), h.bitWidth), key)
}

// Flush persists every dirty node and returns the root's CID.
func (h *Hamt) Flush() (cid.Cid, error) {
	if err := h.root.flush(h.store); err != nil {
		return cid.Undef, err
	}
	c, err := putNode(h.store, h.root)
	if err != nil {
		return cid.Undef, err
	}
	log.Debugw("flushed hamt root", "cid", c, "bit_width", h.bitWidth)
	return c, nil
}

// CheckSize returns the cumulative encoded size, in bytes, of every block
// reachable from the tree's current root.
func (h *Hamt) CheckSize() (uint64, error) {
	return h.root.checkSize(h.store)
}

// DeepCopy returns a structural copy of the tree: the bitfield, every
// pointer's data, and every cached child are all duplicated, so mutating
// the copy never affects the original (or vice versa). A link whose child
// has not been loaded is shared by value only (CIDs are immutable), not
// duplicated as a node.
func (h *Hamt) DeepCopy() *Hamt {
	return &Hamt{bitWidth: h.bitWidth, root: h.root.deepCopy(), store: h.store}
}
