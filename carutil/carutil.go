// Package carutil archives a flushed tree's blocks to a CAR (Content
// Addressable aRchive) file, and re-imports one into a fresh in-memory
// store. This is a local, synchronous file operation over the same Blocks
// abstraction the rest of the module uses, not a network transport.
package carutil

import (
	"context"
	"fmt"

	extcid "github.com/ipfs/go-cid"
	blocks "github.com/ipfs/go-block-format"
	carblockstore "github.com/ipld/go-car/v2/blockstore"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	"github.com/polkax/go-ipld-tries/ipld"
)

// BlockSource is the capability Export needs to enumerate every block a
// store currently holds. *ipld.MemBlocks satisfies it.
type BlockSource interface {
	Each(fn func(*block.Block) bool)
}

// toExternal converts this module's Cid to the github.com/ipfs/go-cid type
// go-car operates on. Both wrap the same varint-framed byte encoding, so the
// conversion is a round-trip through Bytes/Cast rather than a reinterpret.
func toExternal(c cid.Cid) (extcid.Cid, error) {
	return extcid.Cast(c.Bytes())
}

// fromExternal is toExternal's inverse.
func fromExternal(c extcid.Cid) (cid.Cid, error) {
	return cid.Cast(c.Bytes())
}

// blockAdapter satisfies github.com/ipfs/go-block-format's Block interface
// over one of this module's own blocks, so it can be handed to go-car's
// blockstore without copying the payload.
type blockAdapter struct {
	c    extcid.Cid
	data []byte
}

func (a blockAdapter) Cid() extcid.Cid { return a.c }
func (a blockAdapter) RawData() []byte { return a.data }
func (a blockAdapter) String() string  { return a.c.String() }
func (a blockAdapter) Loggable() map[string]interface{} {
	return map[string]interface{}{"block": a.c.String()}
}

var _ blocks.Block = blockAdapter{}

// Export writes every block src currently holds to a CAR file at path, with
// root named as the archive's single root CID (typically a tree's most
// recently flushed root).
func Export(ctx context.Context, path string, root cid.Cid, src BlockSource) error {
	extRoot, err := toExternal(root)
	if err != nil {
		return fmt.Errorf("carutil: converting root cid: %w", err)
	}

	bs, err := carblockstore.OpenReadWrite(path, []extcid.Cid{extRoot})
	if err != nil {
		return fmt.Errorf("carutil: opening car for write: %w", err)
	}

	var putErr error
	src.Each(func(b *block.Block) bool {
		ec, cerr := toExternal(b.Cid())
		if cerr != nil {
			putErr = cerr
			return false
		}
		if cerr := bs.Put(ctx, blockAdapter{c: ec, data: b.RawData()}); cerr != nil {
			putErr = cerr
			return false
		}
		return true
	})
	if putErr != nil {
		_ = bs.Finalize()
		return fmt.Errorf("carutil: writing block: %w", putErr)
	}

	return bs.Finalize()
}

// ExportAMT archives an AMT's backing store. It is Export under a name that
// mirrors the module's tree-specific export entry points; the underlying
// operation does not distinguish an AMT's blocks from a HAMT's.
func ExportAMT(ctx context.Context, path string, root cid.Cid, src BlockSource) error {
	return Export(ctx, path, root, src)
}

// ExportHAMT archives a HAMT's backing store.
func ExportHAMT(ctx context.Context, path string, root cid.Cid, src BlockSource) error {
	return Export(ctx, path, root, src)
}

// Import reads a CAR file at path into a fresh in-memory store, returning
// the store and the archive's root CIDs (in the order the CAR lists them).
func Import(ctx context.Context, path string) (*ipld.MemBlocks, []cid.Cid, error) {
	bs, err := carblockstore.OpenReadOnly(path)
	if err != nil {
		return nil, nil, fmt.Errorf("carutil: opening car for read: %w", err)
	}
	defer bs.Close()

	extRoots, err := bs.Roots()
	if err != nil {
		return nil, nil, fmt.Errorf("carutil: reading roots: %w", err)
	}
	roots := make([]cid.Cid, len(extRoots))
	for i, ec := range extRoots {
		roots[i], err = fromExternal(ec)
		if err != nil {
			return nil, nil, fmt.Errorf("carutil: converting root %d: %w", i, err)
		}
	}

	keys, err := bs.AllKeysChan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("carutil: listing blocks: %w", err)
	}

	dst := ipld.NewMemBlocks()
	for ec := range keys {
		raw, err := bs.Get(ctx, ec)
		if err != nil {
			return nil, nil, fmt.Errorf("carutil: reading block %s: %w", ec, err)
		}
		c, err := fromExternal(ec)
		if err != nil {
			return nil, nil, fmt.Errorf("carutil: converting block cid: %w", err)
		}
		b, err := block.NewWithCID(raw.RawData(), c)
		if err != nil {
			return nil, nil, fmt.Errorf("carutil: rehashing block %s: %w", c, err)
		}
		if err := dst.Put(b); err != nil {
			return nil, nil, err
		}
	}

	return dst, roots, nil
}
