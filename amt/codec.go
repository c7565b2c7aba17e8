package amt

import (
	"fmt"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	"github.com/polkax/go-ipld-tries/ipld"
	mh "github.com/multiformats/go-multihash"
)

// loader is the read half of the block source a tree needs: fetch a block
// by CID, surfacing absence as whatever error the store chooses.
type loader interface {
	Get(c cid.Cid) (*block.Block, error)
}

// saver is the write half: persist a block, idempotently for equal CIDs.
type saver interface {
	Put(b *block.Block) error
}

// Store is the full capability set a tree needs from its block source.
type Store interface {
	loader
	saver
}

// nodeHash is the hash algorithm internal AMT node blocks are addressed
// under, matching the module-wide default for tree nodes.
const nodeHash = mh.BLAKE2B_MIN + 31

// encodeNodeValue renders a Node into the generic cborish tuple the spec
// describes: (bitmap byte string, branches as an array of links, leafs as
// an array of values). Branches MUST all be Link at this point; flush
// enforces that invariant before this is ever called on a dirty node.
func encodeNodeValue(n *Node) (interface{}, error) {
	links := make([]interface{}, len(n.branches))
	for i, c := range n.branches {
		if c.node != nil {
			return nil, fmt.Errorf("amt: cannot serialize a node with an unflushed child at branch %d", i)
		}
		links[i] = ipld.Link(c.link)
	}
	leafs := make([]interface{}, len(n.leafs))
	copy(leafs, n.leafs)
	return []interface{}{[]byte{n.bitmap}, links, leafs}, nil
}

func decodeNodeValue(v interface{}) (*Node, error) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return nil, fmt.Errorf("amt: malformed node tuple")
	}
	bitmapBytes, ok := arr[0].([]byte)
	if !ok || len(bitmapBytes) != 1 {
		return nil, fmt.Errorf("amt: malformed node bitmap")
	}
	links, ok := arr[1].([]interface{})
	if !ok {
		return nil, fmt.Errorf("amt: malformed node branches")
	}
	leafs, ok := arr[2].([]interface{})
	if !ok {
		return nil, fmt.Errorf("amt: malformed node leafs")
	}

	n := &Node{bitmap: bitmapBytes[0]}
	if len(links) > 0 {
		n.branches = make([]*child, len(links))
		for i, raw := range links {
			link, ok := raw.(ipld.Link)
			if !ok {
				return nil, fmt.Errorf("amt: branch %d is not a link", i)
			}
			n.branches[i] = &child{link: link.AsCid()}
		}
	}
	n.leafs = leafs
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
