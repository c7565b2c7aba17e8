package hamt_test

import (
	"fmt"
	"testing"

	"github.com/polkax/go-ipld-tries/hamt"
	"github.com/polkax/go-ipld-tries/ipld"
	"github.com/stretchr/testify/require"
)

func TestSetFindDelete(t *testing.T) {
	store := ipld.NewMemBlocks()
	tree, err := hamt.New(store)
	require.NoError(t, err)

	require.NoError(t, tree.Set("alpha", 1))
	require.NoError(t, tree.Set("beta", 2))

	v, err := tree.Find("alpha")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	require.NoError(t, tree.Delete("alpha"))
	_, err = tree.Find("alpha")
	require.Error(t, err)

	v, err = tree.Find("beta")
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestOverwriteDoesNotDuplicate(t *testing.T) {
	store := ipld.NewMemBlocks()
	tree, err := hamt.New(store)
	require.NoError(t, err)

	require.NoError(t, tree.Set("k", "v1"))
	require.NoError(t, tree.Set("k", "v2"))

	v, err := tree.Find("k")
	require.NoError(t, err)
	require.Equal(t, "v2", v)
}

func TestBucketSplitsOnOverflow(t *testing.T) {
	store := ipld.NewMemBlocks()
	tree, err := hamt.New(store)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, tree.Set(fmt.Sprintf("key-%03d", i), i))
	}
	for i := 0; i < 50; i++ {
		v, err := tree.Find(fmt.Sprintf("key-%03d", i))
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
}

func TestFlushAndLoadRoundTrip(t *testing.T) {
	store := ipld.NewMemBlocks()
	tree, err := hamt.New(store)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		require.NoError(t, tree.Set(fmt.Sprintf("k%d", i), i))
	}

	c, err := tree.Flush()
	require.NoError(t, err)

	loaded, err := hamt.Load(c, store)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		v, err := loaded.Find(fmt.Sprintf("k%d", i))
		require.NoError(t, err)
		require.EqualValues(t, i, v)
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	store := ipld.NewMemBlocks()
	tree, err := hamt.New(store)
	require.NoError(t, err)
	require.NoError(t, tree.Set("a", 1))

	clone := tree.DeepCopy()
	require.NoError(t, clone.Set("a", 2))

	v, err := tree.Find("a")
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, err = clone.Find("a")
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestCheckSizeIsPositiveAfterFlush(t *testing.T) {
	store := ipld.NewMemBlocks()
	tree, err := hamt.New(store)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		require.NoError(t, tree.Set(fmt.Sprintf("size-%d", i), i))
	}
	_, err = tree.Flush()
	require.NoError(t, err)

	size, err := tree.CheckSize()
	require.NoError(t, err)
	require.Greater(t, size, uint64(0))
}

func TestRejectsOutOfRangeBitWidth(t *testing.T) {
	store := ipld.NewMemBlocks()
	_, err := hamt.New(store, hamt.BitWidth(9))
	require.Error(t, err)
}
