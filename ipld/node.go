package ipld

import (
	"strconv"
	"strings"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	mh "github.com/multiformats/go-multihash"
)

// Node wraps a decoded value together with the block it was built from (or
// would serialize to), plus a precomputed path/link index so that Tree and
// Links don't have to re-walk the value on every call.
type Node struct {
	obj   interface{}
	block *block.Block
	paths []string
	links map[string]cid.Cid
}

// FromObject serializes an arbitrary cborish value to CBOR, hashes it under
// hash, and wraps the result as a Node addressed by a V1 DagCBOR CID.
func FromObject(obj interface{}, hash uint64) (*Node, error) {
	raw, err := EncodeCBOR(demoteWholeFloats(obj))
	if err != nil {
		return nil, err
	}
	digest, err := mh.Sum(raw, hash, -1)
	if err != nil {
		return nil, errDecodef("hashing object: %s", err)
	}
	c := cid.NewCidV1(cid.DagCBOR, digest)
	b, err := block.NewWithCID(raw, c)
	if err != nil {
		return nil, err
	}
	return newNode(obj, b)
}

// FromBlock decodes a block's raw bytes as CBOR and wraps the result,
// reusing the block's own CID rather than recomputing one.
func FromBlock(b *block.Block) (*Node, error) {
	obj, err := DecodeCBOR(b.RawData())
	if err != nil {
		return nil, err
	}
	return newNode(obj, b)
}

// FromJSON decodes a JSON document and wraps it exactly as FromObject would.
func FromJSON(data []byte, hash uint64) (*Node, error) {
	obj, err := DecodeJSON(data)
	if err != nil {
		return nil, err
	}
	return FromObject(obj, hash)
}

// FromCBOR decodes raw CBOR bytes and wraps them as a Node addressed by a
// freshly computed V1 DagCBOR CID under hash.
func FromCBOR(data []byte, hash uint64) (*Node, error) {
	obj, err := DecodeCBOR(data)
	if err != nil {
		return nil, err
	}
	digest, err := mh.Sum(data, hash, -1)
	if err != nil {
		return nil, errDecodef("hashing cbor bytes: %s", err)
	}
	c := cid.NewCidV1(cid.DagCBOR, digest)
	b, err := block.NewWithCID(data, c)
	if err != nil {
		return nil, err
	}
	return newNode(obj, b)
}

func newNode(obj interface{}, b *block.Block) (*Node, error) {
	n := &Node{obj: obj, block: b, links: map[string]cid.Cid{}}
	n.indexTree()
	return n, nil
}

// Cid returns the node's CID.
func (n *Node) Cid() cid.Cid { return n.block.Cid() }

// RawData returns the node's CBOR-encoded bytes.
func (n *Node) RawData() []byte { return n.block.RawData() }

// Block returns the node's underlying block.
func (n *Node) Block() *block.Block { return n.block }

// ToCBOR re-encodes the node's decoded value to canonical CBOR bytes. For a
// node built via FromBlock/FromCBOR the result equals RawData only when those
// bytes were already canonical and held no whole-number floats.
func (n *Node) ToCBOR() ([]byte, error) { return EncodeCBOR(demoteWholeFloats(n.obj)) }

// ToJSON renders the node's value to canonical JSON bytes.
func (n *Node) ToJSON() ([]byte, error) { return ToJSON(n.obj) }

// Resolve walks path through the node's value. If a Link is encountered
// before the path is exhausted, it returns that link with the remaining
// (including current) segments. Otherwise it returns the terminal value; if
// that value is itself a Link, it is still returned as a Link.
func (n *Node) Resolve(path []string) (ResolveResult, error) {
	cur := n.obj
	for i, seg := range path {
		if link, ok := cur.(Link); ok {
			return ResolveResult{IsLink: true, Link: cid.Cid(link), Remainder: path[i:]}, nil
		}
		switch x := cur.(type) {
		case map[string]interface{}:
			next, ok := x[seg]
			if !ok {
				return ResolveResult{}, errNoSuchLink(seg)
			}
			cur = next
		case []interface{}:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(x) {
				return ResolveResult{}, errNoSuchLink(seg)
			}
			cur = x[idx]
		default:
			return ResolveResult{}, errNoLinks(seg)
		}
	}
	if link, ok := cur.(Link); ok {
		return ResolveResult{IsLink: true, Link: cid.Cid(link), Remainder: nil}, nil
	}
	return ResolveResult{Value: cur}, nil
}

// ResolveLink is Resolve constrained to terminate at a Link: a terminal
// non-Link value is a ErrNonLink error.
func (n *Node) ResolveLink(path []string) (cid.Cid, []string, error) {
	res, err := n.Resolve(path)
	if err != nil {
		return cid.Undef, nil, err
	}
	if !res.IsLink {
		return cid.Undef, nil, &Error{Kind: ErrNonLink}
	}
	return res.Link, res.Remainder, nil
}

// Tree returns the subset of the node's precomputed path index that starts
// with prefix, with the prefix and any leading "/" stripped and empty
// results dropped. If depth >= 0, a path is included only when it has at
// most depth components below prefix; a path with more components than
// that is omitted entirely rather than truncated, so depth never produces
// a truncated duplicate of a deeper path. Order matches the depth-first
// traversal that built the index.
func (n *Node) Tree(prefix string, depth int) []string {
	var out []string
	for _, p := range n.paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		rest = strings.TrimPrefix(rest, "/")
		if rest == "" {
			continue
		}
		if depth >= 0 {
			parts := strings.Split(rest, "/")
			if len(parts) > depth {
				continue
			}
		}
		out = append(out, rest)
	}
	return out
}

// indexTree walks n.obj once, recording every traversable path (the
// depth-first visiting order) and every Link's path, so that Tree and bulk
// link enumeration don't re-walk the value.
func (n *Node) indexTree() {
	n.paths = nil
	n.links = map[string]cid.Cid{}
	n.walk("", n.obj)
}

func (n *Node) walk(path string, v interface{}) {
	if path != "" {
		n.paths = append(n.paths, path)
	}
	switch x := v.(type) {
	case Link:
		if path != "" {
			n.links[path] = cid.Cid(x)
		}
	case map[string]interface{}:
		for _, k := range sortedKeys(x) {
			n.walk(joinPath(path, k), x[k])
		}
	case []interface{}:
		for i, sub := range x {
			n.walk(joinPath(path, strconv.Itoa(i)), sub)
		}
	}
}

func joinPath(base, seg string) string {
	if base == "" {
		return seg
	}
	return base + "/" + seg
}

// Links returns every link found during the node's indexing pass.
func (n *Node) Links() map[string]cid.Cid { return n.links }
