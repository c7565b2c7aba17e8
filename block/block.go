// Package block implements the (cid, raw_bytes) pair that every higher
// layer in this module reads and writes: IPLD nodes, the CBOR store, and
// both tries ultimately bottom out in Blocks.
package block

import (
	"fmt"

	"github.com/polkax/go-ipld-tries/cid"
	mh "github.com/multiformats/go-multihash"
)

// WrongHash is returned by NewWithCID when the supplied CID does not match
// the hash of the given bytes.
type WrongHash struct {
	Expected cid.Cid
	Actual   cid.Cid
}

func (e *WrongHash) Error() string {
	return fmt.Sprintf("block: hash mismatch, expected %s, got %s", e.Expected, e.Actual)
}

// Block pairs raw bytes with the CID that addresses them. No method modifies
// a Block after construction; RawData returns the stored slice uncopied.
type Block struct {
	cid     cid.Cid
	rawData []byte
}

// New hashes data under hashAlgo and wraps it in a Block addressed by the
// resulting CID. A V0 CID is produced for sha2-256; any other algorithm
// produces a V1 CID under the DagCBOR codec, since raw bytes passed here
// are assumed to already be a CBOR encoding (the common case in this
// module — callers needing a different codec should use NewWithCID).
func New(data []byte, hashAlgo uint64) (*Block, error) {
	digest, err := mh.Sum(data, hashAlgo, -1)
	if err != nil {
		return nil, fmt.Errorf("block: hashing: %w", err)
	}
	var c cid.Cid
	if hashAlgo == mh.SHA2_256 {
		c, err = cid.NewCidV0(digest)
		if err != nil {
			return nil, err
		}
	} else {
		c = cid.NewCidV1(cid.DagCBOR, digest)
	}
	return &Block{cid: c, rawData: data}, nil
}

// NewWithCID wraps data in a Block addressed by an explicit CID, verifying
// that the CID's prefix actually hashes to these bytes. A mismatch is a
// fatal construction error: it almost always means corrupted or
// adversarial input, not a recoverable condition.
func NewWithCID(data []byte, c cid.Cid) (*Block, error) {
	recomputed, err := c.Prefix().Sum(data)
	if err != nil {
		return nil, fmt.Errorf("block: recomputing hash: %w", err)
	}
	if !recomputed.Equals(c) {
		return nil, &WrongHash{Expected: c, Actual: recomputed}
	}
	return &Block{cid: c, rawData: data}, nil
}

// Cid returns the block's CID.
func (b *Block) Cid() cid.Cid { return b.cid }

// RawData returns the block's raw bytes. Callers must not mutate the
// returned slice.
func (b *Block) RawData() []byte { return b.rawData }

func (b *Block) String() string {
	return fmt.Sprintf("[Block %s]", b.cid)
}
