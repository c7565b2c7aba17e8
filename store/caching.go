// Package store provides decorators over the ipld.Blocks capability: a
// striped in-process read cache, and (in carutil) archival export/import.
package store

import (
	"sync"

	"github.com/cespare/xxhash"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	"github.com/polkax/go-ipld-tries/ipld"
)

// shardCount is the number of independent cache shards CachingBlocks
// stripes across. Each shard has its own lock, so concurrent Gets for CIDs
// that hash to different shards never contend.
const shardCount = 64

type shard struct {
	mu    sync.RWMutex
	cache map[string]*block.Block
}

// CachingBlocks wraps an ipld.Blocks source with a bounded-free, striped
// in-process cache: a Get hit never touches the underlying store, and a Put
// populates the cache alongside writing through.
type CachingBlocks struct {
	underlying ipld.Blocks
	shards     [shardCount]*shard
}

// NewCachingBlocks wraps underlying with a fresh, empty cache.
func NewCachingBlocks(underlying ipld.Blocks) *CachingBlocks {
	cb := &CachingBlocks{underlying: underlying}
	for i := range cb.shards {
		cb.shards[i] = &shard{cache: make(map[string]*block.Block)}
	}
	return cb
}

// shardFor picks the cache shard for key by its xxhash, striping load across
// shards without needing the caller's CID to carry any particular structure.
func (cb *CachingBlocks) shardFor(key string) *shard {
	return cb.shards[xxhash.Sum64([]byte(key))%shardCount]
}

// Get returns the cached block for c if present, else fetches it from the
// underlying store and caches it before returning.
func (cb *CachingBlocks) Get(c cid.Cid) (*block.Block, error) {
	key := c.KeyString()
	sh := cb.shardFor(key)

	sh.mu.RLock()
	if b, ok := sh.cache[key]; ok {
		sh.mu.RUnlock()
		return b, nil
	}
	sh.mu.RUnlock()

	b, err := cb.underlying.Get(c)
	if err != nil {
		return nil, err
	}

	sh.mu.Lock()
	sh.cache[key] = b
	sh.mu.Unlock()
	return b, nil
}

// Put writes b through to the underlying store and primes the cache with
// it, so a Get immediately following a Put never round-trips.
func (cb *CachingBlocks) Put(b *block.Block) error {
	if err := cb.underlying.Put(b); err != nil {
		return err
	}
	key := b.Cid().KeyString()
	sh := cb.shardFor(key)
	sh.mu.Lock()
	sh.cache[key] = b
	sh.mu.Unlock()
	return nil
}

// Evict drops c from the cache, if present, without touching the
// underlying store. Useful for tests that want to force a subsequent Get to
// miss.
func (cb *CachingBlocks) Evict(c cid.Cid) {
	key := c.KeyString()
	sh := cb.shardFor(key)
	sh.mu.Lock()
	delete(sh.cache, key)
	sh.mu.Unlock()
}

// Len reports the total number of blocks currently cached across all
// shards.
func (cb *CachingBlocks) Len() int {
	n := 0
	for _, sh := range cb.shards {
		sh.mu.RLock()
		n += len(sh.cache)
		sh.mu.RUnlock()
	}
	return n
}
