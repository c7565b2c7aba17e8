package ipld_test

import (
	"encoding/hex"
	"testing"

	"github.com/polkax/go-ipld-tries/cid"
	"github.com/polkax/go-ipld-tries/ipld"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func TestFromObjectRoundTripsThroughBlock(t *testing.T) {
	n, err := ipld.FromObject(map[string]interface{}{"name": "foo"}, mh.SHA2_256)
	require.NoError(t, err)

	back, err := ipld.FromBlock(n.Block())
	require.NoError(t, err)
	require.True(t, n.Cid().Equals(back.Cid()))
}

func TestResolveWalksMapAndList(t *testing.T) {
	n, err := ipld.FromObject(map[string]interface{}{
		"a": []interface{}{"zero", "one", "two"},
	}, mh.SHA2_256)
	require.NoError(t, err)

	res, err := n.Resolve([]string{"a", "1"})
	require.NoError(t, err)
	require.Equal(t, "one", res.Value)
}

func TestResolveStopsAtLink(t *testing.T) {
	inner, err := ipld.FromObject("leaf", mh.SHA2_256)
	require.NoError(t, err)

	outer, err := ipld.FromObject(map[string]interface{}{
		"bar": ipld.Link(inner.Cid()),
	}, mh.SHA2_256)
	require.NoError(t, err)

	res, err := outer.Resolve([]string{"bar"})
	require.NoError(t, err)
	require.True(t, res.IsLink)
	require.True(t, res.Link.Equals(inner.Cid()))

	c, remainder, err := outer.ResolveLink([]string{"bar"})
	require.NoError(t, err)
	require.Empty(t, remainder)
	require.True(t, c.Equals(inner.Cid()))
}

func TestResolveMissingKey(t *testing.T) {
	n, err := ipld.FromObject(map[string]interface{}{"a": 1}, mh.SHA2_256)
	require.NoError(t, err)

	_, err = n.Resolve([]string{"missing"})
	require.Error(t, err)
}

func TestJSONLinkRoundTrip(t *testing.T) {
	inner, err := ipld.FromObject("leaf", mh.SHA2_256)
	require.NoError(t, err)

	obj := map[string]interface{}{"bar": ipld.Link(inner.Cid())}
	j, err := ipld.ToJSON(obj)
	require.NoError(t, err)

	decoded, err := ipld.DecodeJSON(j)
	require.NoError(t, err)

	m, ok := decoded.(map[string]interface{})
	require.True(t, ok)
	link, ok := m["bar"].(ipld.Link)
	require.True(t, ok)
	require.True(t, inner.Cid().Equals(link.AsCid()))
}

func TestCborIpldStorePutGet(t *testing.T) {
	store := ipld.NewCborIpldStore(ipld.NewMemBlocks())

	c, err := store.Put(map[string]interface{}{"hello": "world"})
	require.NoError(t, err)

	var out interface{}
	err = store.Get(c, &out)
	require.NoError(t, err)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "world", m["hello"])
}

func TestTreeListsPaths(t *testing.T) {
	n, err := ipld.FromObject(map[string]interface{}{
		"a": map[string]interface{}{"b": 1, "c": 2},
	}, mh.SHA2_256)
	require.NoError(t, err)

	paths := n.Tree("", -1)
	require.Contains(t, paths, "a")
	require.Contains(t, paths, "a/b")
	require.Contains(t, paths, "a/c")
}

func TestTreeRespectsNonNegativeDepth(t *testing.T) {
	n, err := ipld.FromObject(map[string]interface{}{
		"a": map[string]interface{}{
			"b": map[string]interface{}{"c": 1},
		},
		"top": 1,
	}, mh.SHA2_256)
	require.NoError(t, err)

	depth0 := n.Tree("", 0)
	require.Empty(t, depth0)

	depth1 := n.Tree("", 1)
	require.ElementsMatch(t, []string{"a", "top"}, depth1)
	require.NotContains(t, depth1, "a/b")

	depth2 := n.Tree("", 2)
	require.Contains(t, depth2, "a")
	require.Contains(t, depth2, "a/b")
	require.NotContains(t, depth2, "a/b/c")

	unlimited := n.Tree("", -1)
	require.Contains(t, unlimited, "a/b/c")
}

// The following three tests pin the exact spec §8 concrete scenarios for
// the CBOR value model and node wrapper.

func TestSpecScenario5EmptyString(t *testing.T) {
	n, err := ipld.FromObject("", mh.SHA2_256)
	require.NoError(t, err)
	require.Equal(t, "bafyreiengp2sbi6ez34a2jctv34bwyjl7yoliteleaswgcwtqzrhmpyt2m", n.Cid().String())
}

func TestSpecScenario6MapWithLink(t *testing.T) {
	digest, err := mh.Sum([]byte("something"), mh.SHA2_256, -1)
	require.NoError(t, err)
	inner := cid.NewCidV1(cid.Raw, digest)

	n, err := ipld.FromObject(map[string]interface{}{
		"name": "foo",
		"bar":  ipld.Link(inner),
	}, mh.SHA2_256)
	require.NoError(t, err)
	require.Equal(t, "bafyreib4hmpkwa7zyzoxmpwykof6k7akxnvmsn23oiubsey4e2tf6gqlui", n.Cid().String())

	link, remainder, err := n.ResolveLink([]string{"bar"})
	require.NoError(t, err)
	require.Empty(t, remainder)
	require.True(t, link.Equals(inner))
}

func TestSpecScenario7CanonicalCBORHex(t *testing.T) {
	raw, err := ipld.EncodeCBOR(map[string]interface{}{
		"zebra": "seven",
		"dog":   int64(15),
		"cats":  1.519,
		"whale": "never",
		"cat":   true,
	})
	require.NoError(t, err)
	require.Equal(t,
		"a563636174f563646f670f6463617473fb3ff84dd2f1a9fbe7657768616c65656e65766572657a6562726165736576656e",
		hex.EncodeToString(raw))
}
