// Package ipldtries provides content-addressed storage primitives and two
// persistent trie implementations for the InterPlanetary Linked Data model:
//
//   - cid: content identifiers and multihash prefixes
//   - block: a (CID, raw bytes) pair with hash verification
//   - ipld: the CBOR value model, a generic Node wrapper, and a block store
//   - amt: an Array Mapped Trie keyed by uint64
//   - hamt: a Hash Array Mapped Trie keyed by byte-string keys
//   - store: a caching decorator over a block store
//   - carutil: CAR (Content Addressable aRchive) file export/import
package ipldtries
