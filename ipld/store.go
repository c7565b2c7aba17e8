package ipld

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	logging "github.com/ipfs/go-log/v2"
	cbg "github.com/whyrusleeping/cbor-gen"
	mh "github.com/multiformats/go-multihash"
	"github.com/petar/GoLLRB/llrb"
)

var log = logging.Logger("ipldcbor")

// DefaultMultihash is the hash algorithm CborIpldStore.Put uses when a
// value carries no HasCid override: Blake2b-256, matching the default the
// trees themselves serialize internal nodes under.
var DefaultMultihash uint64 = mh.BLAKE2B_MIN + 31

// DefaultCodec is the multicodec CborIpldStore.Put mints CIDs under by
// default.
const DefaultCodec = cid.DagCBOR

// Blocks is the capability a CborIpldStore needs from its underlying
// storage: fetch a block by CID, or persist one.
type Blocks interface {
	Get(c cid.Cid) (*block.Block, error)
	Put(b *block.Block) error
}

// HasCid is the capability a Put argument may expose to override the
// default codec/hash: a value that already knows its own CID (typically
// because it wraps a Node) determines the codec and hash algorithm used
// to persist it, rather than falling back to DagCBOR/Blake2b-256.
type HasCid interface {
	Cid() cid.Cid
}

// ErrNotFound is returned by an in-memory Blocks implementation when a CID
// is absent.
type ErrNotFound struct{ Cid cid.Cid }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("ipld: block not found: %s", e.Cid) }

// blockItem adapts a stored block to llrb.Item, ordered by CID key bytes so
// that the store can be walked in a stable, deterministic order.
type blockItem struct {
	key string
	blk *block.Block
}

func (a *blockItem) Less(than llrb.Item) bool { return a.key < than.(*blockItem).key }

// MemBlocks is a simple in-memory Blocks implementation, sufficient for
// tests and for trees that don't need persistence across process restarts.
// It is safe for concurrent use. Blocks are kept in an ordered tree rather
// than a plain map so that a full walk (e.g. for debugging or export) sees
// a stable, reproducible ordering instead of Go's randomized map order.
type MemBlocks struct {
	mu     sync.RWMutex
	blocks *llrb.LLRB
}

// NewMemBlocks constructs an empty in-memory block store.
func NewMemBlocks() *MemBlocks {
	return &MemBlocks{blocks: llrb.New()}
}

func (m *MemBlocks) Get(c cid.Cid) (*block.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item := m.blocks.Get(&blockItem{key: c.KeyString()})
	if item == nil {
		return nil, &ErrNotFound{Cid: c}
	}
	return item.(*blockItem).blk, nil
}

func (m *MemBlocks) Put(b *block.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks.ReplaceOrInsert(&blockItem{key: b.Cid().KeyString(), blk: b})
	return nil
}

// Size returns the length in bytes of the block addressed by c, or
// ErrNotFound if it is absent.
func (m *MemBlocks) Size(c cid.Cid) (int, error) {
	b, err := m.Get(c)
	if err != nil {
		return 0, err
	}
	return len(b.RawData()), nil
}

// Len returns the total number of blocks held.
func (m *MemBlocks) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks.Len()
}

// Each walks every stored block in ascending CID-key order, stopping early
// if fn returns false.
func (m *MemBlocks) Each(fn func(*block.Block) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.blocks.AscendGreaterOrEqual(&blockItem{key: ""}, func(i llrb.Item) bool {
		return fn(i.(*blockItem).blk)
	})
}

// CborIpldStore is the get/put layer over a Blocks source: Get CBOR-decodes
// a fetched block into a caller-supplied destination, Put CBOR-encodes a
// value, hashes it, stores the block, and returns its CID.
type CborIpldStore struct {
	Blocks Blocks
}

// NewCborIpldStore wraps an existing Blocks implementation.
func NewCborIpldStore(bs Blocks) *CborIpldStore { return &CborIpldStore{Blocks: bs} }

// Get fetches the block addressed by c and decodes it into out, which must
// be a pointer. A destination implementing cbg.CBORUnmarshaler (a type with
// a generated fixed-schema decoder) is fed the raw bytes directly, skipping
// the generic reflective CBOR walk; anything else goes through DecodeCBOR.
func (s *CborIpldStore) Get(c cid.Cid, out interface{}) error {
	b, err := s.Blocks.Get(c)
	if err != nil {
		return err
	}
	if um, ok := out.(cbg.CBORUnmarshaler); ok {
		return um.UnmarshalCBOR(bytes.NewReader(b.RawData()))
	}
	decoded, err := DecodeCBOR(b.RawData())
	if err != nil {
		return err
	}
	return assignDecoded(decoded, out)
}

// assignDecoded writes a DecodeCBOR result into a destination pointer. Only
// *interface{} destinations, which receive the generic value tree, are
// supported; any other destination type is an error.
func assignDecoded(decoded interface{}, out interface{}) error {
	switch dst := out.(type) {
	case *interface{}:
		*dst = decoded
		return nil
	default:
		return fmt.Errorf("ipld: unsupported Get destination %T", out)
	}
}

// Put encodes value, hashes it (Blake2b-256/DagCBOR by default, or the
// codec/hash the value's HasCid prefix names when it implements HasCid),
// stores the resulting block, and returns its CID. A value implementing
// cbg.CBORMarshaler (a type with a generated fixed-schema encoder) is
// encoded through that instead of the generic reflective CBOR walk.
func (s *CborIpldStore) Put(value interface{}) (cid.Cid, error) {
	codec := Codec(DefaultCodec)
	hashAlgo := uint64(DefaultMultihash)
	var expected cid.Cid
	if hc, ok := value.(HasCid); ok {
		expected = hc.Cid()
		if expected.Defined() {
			prefix := expected.Prefix()
			codec = Codec(prefix.Codec)
			hashAlgo = prefix.MhType
		}
	}

	raw, err := marshalPutValue(value)
	if err != nil {
		return cid.Undef, err
	}
	digest, err := mh.Sum(raw, hashAlgo, -1)
	if err != nil {
		return cid.Undef, fmt.Errorf("ipld: hashing put value: %w", err)
	}
	var c cid.Cid
	if hashAlgo == mh.SHA2_256 && Codec(codec) == cid.DagProtobuf {
		c, err = cid.NewCidV0(digest)
		if err != nil {
			return cid.Undef, err
		}
	} else {
		c = cid.NewCidV1(cid.Codec(codec), digest)
	}

	if expected.Defined() && !expected.Equals(c) {
		panic(fmt.Sprintf("ipld: put computed cid %s does not match value's expected cid %s", c, expected))
	}

	b, err := block.NewWithCID(raw, c)
	if err != nil {
		return cid.Undef, err
	}
	if err := s.Blocks.Put(b); err != nil {
		return cid.Undef, err
	}
	log.Debugw("put block", "cid", c, "bytes", len(raw))
	return c, nil
}

// Codec is a local alias so Put can stay agnostic of the cid package's
// exported Codec type name colliding with this file's local variable.
type Codec = cid.Codec

// marshalPutValue encodes value for Put: the generated-encoder fast path
// when available, the generic canonical CBOR walk otherwise.
func marshalPutValue(value interface{}) ([]byte, error) {
	if m, ok := value.(cbg.CBORMarshaler); ok {
		var buf bytes.Buffer
		if err := m.MarshalCBOR(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return EncodeCBOR(demoteWholeFloats(value))
}
