package cid

import (
	mh "github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
)

// Prefix captures every piece of CID metadata except the digest itself:
// enough to recompute a CID of the same shape from new bytes via Sum.
type Prefix struct {
	Version  Version
	Codec    Codec
	MhType   uint64
	MhLength int
}

// NewPrefixV0 builds the canonical V0 prefix for a hash algorithm.
func NewPrefixV0(mhType uint64) Prefix {
	return Prefix{Version: V0, Codec: DagProtobuf, MhType: mhType, MhLength: -1}
}

// NewPrefixV1 builds a V1 prefix for the given codec and hash algorithm,
// using the hash's default digest length.
func NewPrefixV1(codec Codec, mhType uint64) Prefix {
	return Prefix{Version: V1, Codec: codec, MhType: mhType, MhLength: -1}
}

// Sum hashes data under the prefix's algorithm and assembles a CID of the
// prefix's version and codec. A V0 prefix whose algorithm is not
// SHA2-256/32-bytes is rejected: CIDv0 has no way to express anything else.
func (p Prefix) Sum(data []byte) (Cid, error) {
	if p.Version == V0 && (p.MhType != mh.SHA2_256 || (p.MhLength != 32 && p.MhLength != -1)) {
		return Undef, &Error{Kind: ErrInvalidV0Prefix}
	}
	digest, err := mh.Sum(data, p.MhType, p.MhLength)
	if err != nil {
		return Undef, errParsingf("hashing under prefix: %s", err)
	}
	switch p.Version {
	case V0:
		return newV0(digest)
	case V1:
		return newV1(p.Codec, digest), nil
	default:
		return Undef, &Error{Kind: ErrInvalidCidVersion, Raw: uint64(p.Version)}
	}
}

// Bytes encodes the prefix as varint(version) || varint(codec) ||
// varint(mh-type) || varint(mh-length), mirroring the CID byte framing
// itself but without a digest.
func (p Prefix) Bytes() []byte {
	buf := varint.ToUvarint(uint64(p.Version))
	buf = append(buf, varint.ToUvarint(uint64(p.Codec))...)
	buf = append(buf, varint.ToUvarint(p.MhType)...)
	buf = append(buf, varint.ToUvarint(uint64(p.MhLength))...)
	return buf
}

// PrefixFromBytes is the inverse of Prefix.Bytes for a prefix with an
// explicit MhLength. A MhLength of -1 is encoded by Bytes as 2^64-1, which
// does not fit the 63-bit varint this reader accepts, so it is rejected.
func PrefixFromBytes(buf []byte) (Prefix, error) {
	rawVersion, n, err := varint.FromUvarint(buf)
	if err != nil {
		return Prefix{}, errParsingf("reading prefix version: %s", err)
	}
	buf = buf[n:]
	rawCodec, n, err := varint.FromUvarint(buf)
	if err != nil {
		return Prefix{}, errParsingf("reading prefix codec: %s", err)
	}
	buf = buf[n:]
	mhType, n, err := varint.FromUvarint(buf)
	if err != nil {
		return Prefix{}, errParsingf("reading prefix hash type: %s", err)
	}
	buf = buf[n:]
	mhLen, _, err := varint.FromUvarint(buf)
	if err != nil {
		return Prefix{}, errParsingf("reading prefix hash length: %s", err)
	}

	version, err := versionFromByte(byte(rawVersion))
	if err != nil {
		return Prefix{}, err
	}
	codec, err := codecFromCode(rawCodec)
	if err != nil {
		return Prefix{}, err
	}
	return Prefix{Version: version, Codec: codec, MhType: mhType, MhLength: int(mhLen)}, nil
}
