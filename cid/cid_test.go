package cid_test

import (
	"testing"

	"github.com/polkax/go-ipld-tries/cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func TestV0RoundTrip(t *testing.T) {
	digest, err := mh.Sum([]byte("hello world"), mh.SHA2_256, -1)
	require.NoError(t, err)

	c, err := cid.NewCidV0(digest)
	require.NoError(t, err)
	require.Equal(t, cid.V0, c.Version())
	require.Equal(t, cid.DagProtobuf, c.Type())

	str := c.String()
	require.Len(t, str, 46)
	require.True(t, str[:2] == "Qm")

	parsed, err := cid.Parse(str)
	require.NoError(t, err)
	require.True(t, c.Equals(parsed))
}

func TestV1RoundTrip(t *testing.T) {
	digest, err := mh.Sum([]byte("hello world"), mh.SHA2_256, -1)
	require.NoError(t, err)

	c := cid.NewCidV1(cid.DagCBOR, digest)
	require.Equal(t, cid.V1, c.Version())
	require.Equal(t, cid.DagCBOR, c.Type())

	str := c.String()
	parsed, err := cid.Parse(str)
	require.NoError(t, err)
	require.True(t, c.Equals(parsed))
	require.Equal(t, cid.DagCBOR, parsed.Type())
}

func TestParseStripsIpfsPathPrefix(t *testing.T) {
	digest, err := mh.Sum([]byte("hello world"), mh.SHA2_256, -1)
	require.NoError(t, err)
	c, err := cid.NewCidV0(digest)
	require.NoError(t, err)

	parsed, err := cid.Parse("/ipfs/" + c.String())
	require.NoError(t, err)
	require.True(t, c.Equals(parsed))
}

func TestCastRejectsTruncatedBytes(t *testing.T) {
	_, err := cid.Cast([]byte{0x01, 0x71})
	require.Error(t, err)
}

func TestPrefixSumRejectsNonConformingV0(t *testing.T) {
	prefix := cid.NewPrefixV1(cid.DagProtobuf, mh.SHA2_256)
	prefix.Version = cid.V0
	prefix.MhType = mh.SHA2_512
	_, err := prefix.Sum([]byte("data"))
	require.Error(t, err)
}

func TestPrefixRoundTripsThroughSum(t *testing.T) {
	prefix := cid.NewPrefixV1(cid.Raw, mh.SHA2_256)
	c, err := prefix.Sum([]byte("some data"))
	require.NoError(t, err)

	got := c.Prefix()
	require.Equal(t, prefix.Version, got.Version)
	require.Equal(t, prefix.Codec, got.Codec)
	require.Equal(t, prefix.MhType, got.MhType)
}

func TestUndef(t *testing.T) {
	require.False(t, cid.Undef.Defined())
	require.Equal(t, "undef", cid.Undef.String())
	require.Nil(t, cid.Undef.Bytes())
}

func TestRegisterCodec(t *testing.T) {
	cid.RegisterCodec(cid.Codec(0x9999), "test-codec")
	require.Equal(t, "test-codec", cid.Codec(0x9999).String())
}
