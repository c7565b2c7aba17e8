package block_test

import (
	"testing"

	"github.com/polkax/go-ipld-tries/block"
	"github.com/polkax/go-ipld-tries/cid"
	mh "github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/require"
)

func TestNewProducesV0ForSha256(t *testing.T) {
	b, err := block.New([]byte("hello world"), mh.SHA2_256)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), b.RawData())
	require.True(t, b.Cid().Defined())
	require.Equal(t, cid.V0, b.Cid().Version())
}

func TestNewWithCIDAccepts(t *testing.T) {
	data := []byte("hello world")
	b1, err := block.New(data, mh.SHA2_256)
	require.NoError(t, err)

	b2, err := block.NewWithCID(data, b1.Cid())
	require.NoError(t, err)
	require.True(t, b1.Cid().Equals(b2.Cid()))
}

func TestNewWithCIDRejectsBitFlip(t *testing.T) {
	data := []byte("hello world")
	b1, err := block.New(data, mh.SHA2_256)
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[0] ^= 0x01

	_, err = block.NewWithCID(flipped, b1.Cid())
	require.Error(t, err)
	var wrongHash *block.WrongHash
	require.ErrorAs(t, err, &wrongHash)
}
