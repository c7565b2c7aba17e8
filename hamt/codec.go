package hamt

import (
	"fmt"
	"math/big"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	"github.com/polkax/go-ipld-tries/ipld"
	mh "github.com/multiformats/go-multihash"
)

type loader interface {
	Get(c cid.Cid) (*block.Block, error)
}

type saver interface {
	Put(b *block.Block) error
}

// Store is the capability set a HAMT needs from its block source.
type Store interface {
	loader
	saver
}

const nodeHash = mh.BLAKE2B_MIN + 31

func cborEncode(v interface{}) ([]byte, error) { return ipld.EncodeCBOR(v) }

// bitfieldBytes renders bitfield as the minimal big-endian byte string the
// spec requires: no leading zero bytes, the empty string for zero.
func bitfieldBytes(bitfield *big.Int) []byte {
	return bitfield.Bytes()
}

func bitfieldFromBytes(b []byte) *big.Int {
	return new(big.Int).SetBytes(b)
}

// encodeNodeValue renders a Node as the CBOR tuple (bitfield bytes,
// pointers), where each pointer is a single-key map: "0" → Link, or
// "1" → array of (key, value-bytes) tuples. Per spec, each bucket value is
// itself CBOR-encoded to a byte string before being placed in the tuple,
// rather than embedded as a native CBOR value, matching the reference
// KV{key: String, value: Bytes} shape.
func encodeNodeValue(n *Node) (interface{}, error) {
	pointers := make([]interface{}, len(n.pointers))
	for i, p := range n.pointers {
		switch p.kind {
		case pointerLink:
			if p.cachedNode != nil {
				return nil, fmt.Errorf("hamt: cannot serialize a node with an unflushed child at pointer %d", i)
			}
			pointers[i] = map[string]interface{}{"0": ipld.Link(p.link)}
		case pointerBucket:
			kvs := make([]interface{}, len(p.bucket))
			for j, e := range p.bucket {
				valueBytes, err := ipld.EncodeCBOR(ipld.DemoteWholeFloats(e.value))
				if err != nil {
					return nil, fmt.Errorf("hamt: encoding bucket value for %q: %w", e.key, err)
				}
				kvs[j] = []interface{}{e.key, valueBytes}
			}
			pointers[i] = map[string]interface{}{"1": kvs}
		}
	}
	return []interface{}{bitfieldBytes(n.bitfield), pointers}, nil
}

func decodeNodeValue(v interface{}) (*Node, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 2 {
		return nil, fmt.Errorf("hamt: malformed node tuple")
	}
	bfBytes, ok := arr[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("hamt: malformed bitfield")
	}
	rawPointers, ok := arr[1].([]interface{})
	if !ok {
		return nil, fmt.Errorf("hamt: malformed pointers")
	}

	n := &Node{bitfield: bitfieldFromBytes(bfBytes)}
	n.pointers = make([]*Pointer, len(rawPointers))
	for i, raw := range rawPointers {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("hamt: pointer %d is not a map", i)
		}
		if linkRaw, ok := m["0"]; ok {
			link, ok := linkRaw.(ipld.Link)
			if !ok {
				return nil, fmt.Errorf("hamt: pointer %d link is not a cid", i)
			}
			n.pointers[i] = &Pointer{kind: pointerLink, link: link.AsCid()}
			continue
		}
		kvsRaw, ok := m["1"]
		if !ok {
			return nil, fmt.Errorf("hamt: pointer %d has neither \"0\" nor \"1\"", i)
		}
		kvsArr, ok := kvsRaw.([]interface{})
		if !ok {
			return nil, fmt.Errorf("hamt: pointer %d bucket is not an array", i)
		}
		bucket := make([]kv, len(kvsArr))
		for j, rawKV := range kvsArr {
			pair, ok := rawKV.([]interface{})
			if !ok || len(pair) != 2 {
				return nil, fmt.Errorf("hamt: pointer %d entry %d is malformed", i, j)
			}
			key, ok := pair[0].(string)
			if !ok {
				return nil, fmt.Errorf("hamt: pointer %d entry %d key is not a string", i, j)
			}
			valueBytes, ok := pair[1].([]byte)
			if !ok {
				return nil, fmt.Errorf("hamt: pointer %d entry %d value is not bytes", i, j)
			}
			value, err := ipld.DecodeCBOR(valueBytes)
			if err != nil {
				return nil, fmt.Errorf("hamt: decoding bucket value for %q: %w", key, err)
			}
			bucket[j] = kv{key: key, value: value}
		}
		n.pointers[i] = &Pointer{kind: pointerBucket, bucket: bucket}
	}
	return n, nil
}

func putNode(store saver, n *Node) (cid.Cid, error) {
	val, err := encodeNodeValue(n)
	if err != nil {
		return cid.Undef, err
	}
	raw, err := ipld.EncodeCBOR(val)
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
	if err := store.Put(b); err != nil {
		return cid.Undef, err
	}
	return c, nil
}

func loadNode(store loader, c cid.Cid) (*Node, error) {
	b, err := store.Get(c)
	if err != nil {
		return nil, err
	}
	val, err := ipld.DecodeCBOR(b.RawData())
	if err != nil {
		return nil, err
	}
	return decodeNodeValue(val)
}
