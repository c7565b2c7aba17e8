package hamt

import (
	"github.com/spaolacci/murmur3"
)

// hashKey returns the low 64 bits of the Murmur3-128 hash of key's UTF-8
// bytes, the addressable hash space HashBits cursors consume from. murmur3's
// Sum128 returns (h1, h2); the reference implementation keeps h1 (the bytes
// at offset [8..16) of the 128-bit digest), so that is the word retained
// here.
func hashKey(key string) uint64 {
	h1, _ := murmur3.Sum128([]byte(key))
	return h1
}

// hashBits is a cursor over a 64-bit hash, consuming bitWidth bits at a
// time, most-significant-first. Exhaustion reports ErrMaxDepth.
type hashBits struct {
	value    uint64
	consumed uint
	bitWidth uint
}

func newHashBits(value uint64, bitWidth uint) *hashBits {
	return &hashBits{value: value, bitWidth: bitWidth}
}

// newHashBitsAt builds a cursor pre-advanced to consumed bits, used when a
// bucket split re-inserts existing entries: every entry's cursor must share
// the same consumed offset as the level the split happened at, so that
// colliding hash prefixes land in the same subshard slot consistently.
func newHashBitsAt(value uint64, bitWidth uint, consumed uint) *hashBits {
	return &hashBits{value: value, bitWidth: bitWidth, consumed: consumed}
}

func (h *hashBits) next() (uint64, error) {
	if h.consumed+h.bitWidth > 64 {
		return 0, &ErrMaxDepth{}
	}
	shift := 64 - h.consumed - h.bitWidth
	mask := (uint64(1) << h.bitWidth) - 1
	val := (h.value >> shift) & mask
	h.consumed += h.bitWidth
	return val, nil
}
