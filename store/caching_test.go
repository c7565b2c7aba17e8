package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/ipld"
	"github.com/polkax/go-ipld-tries/store"
)

func TestCachingBlocksGetMissPopulatesCache(t *testing.T) {
	mem := ipld.NewMemBlocks()
	b, err := block.New([]byte("hello"), ipld.DefaultMultihash)
	require.NoError(t, err)
	require.NoError(t, mem.Put(b))

	cache := store.NewCachingBlocks(mem)
	got, err := cache.Get(b.Cid())
	require.NoError(t, err)
	require.Equal(t, b.RawData(), got.RawData())
	require.Equal(t, 1, cache.Len())
}

func TestCachingBlocksPutPrimesCache(t *testing.T) {
	mem := ipld.NewMemBlocks()
	cache := store.NewCachingBlocks(mem)

	b, err := block.New([]byte("world"), ipld.DefaultMultihash)
	require.NoError(t, err)
	require.NoError(t, cache.Put(b))
	require.Equal(t, 1, cache.Len())

	cache.Evict(b.Cid())
	require.Equal(t, 0, cache.Len())

	got, err := cache.Get(b.Cid())
	require.NoError(t, err)
	require.Equal(t, b.RawData(), got.RawData())
}

func TestCachingBlocksPropagatesNotFound(t *testing.T) {
	mem := ipld.NewMemBlocks()
	cache := store.NewCachingBlocks(mem)

	b, err := block.New([]byte("ghost"), ipld.DefaultMultihash)
	require.NoError(t, err)

	_, err = cache.Get(b.Cid())
	require.Error(t, err)
}
