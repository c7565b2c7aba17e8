package cid

import (
	"strings"

	mbase "github.com/multiformats/go-multibase"
	mh "github.com/multiformats/go-multihash"
	"github.com/multiformats/go-varint"
)

// Cid is an immutable content identifier. Its zero value is Undef, the
// invalid CID returned alongside errors. The internal representation is the
// CID's raw binary form so that equality and map-keying are cheap string
// comparisons, mirroring how the wire format is laid out: a V0 CID's
// internal bytes are exactly its multihash, a V1 CID's are
// varint(version) || varint(codec) || multihash.
type Cid struct {
	str string
}

// Undef is the zero-value, invalid CID. String renders it as "undef";
// StringOfBase reports an error; Bytes returns nil.
var Undef = Cid{}

// Defined reports whether c holds an actual identifier.
func (c Cid) Defined() bool { return c.str != "" }

func newV0(digest mh.Multihash) (Cid, error) {
	if !isV0Binary(digest) {
		return Undef, &Error{Kind: ErrInvalidCidV0, Algo: uint64(digest[0]), Length: len(digest)}
	}
	return Cid{str: string(digest)}, nil
}

func newV1(codec Codec, digest mh.Multihash) Cid {
	hashLen := varint.UvarintSize(uint64(V1)) + varint.UvarintSize(uint64(codec)) + len(digest)
	buf := make([]byte, 0, hashLen)
	buf = append(buf, varint.ToUvarint(uint64(V1))...)
	buf = append(buf, varint.ToUvarint(uint64(codec))...)
	buf = append(buf, digest...)
	return Cid{str: string(buf)}
}

// NewCidV0 builds the legacy CIDv0 form: a bare sha2-256 multihash,
// implicitly DagProtobuf-coded.
func NewCidV0(digest mh.Multihash) (Cid, error) { return newV0(digest) }

// NewCidV1 builds a CIDv1 from an explicit codec and digest.
func NewCidV1(codec Codec, digest mh.Multihash) Cid { return newV1(codec, digest) }

// Parse decodes a CID from either its string form (multibase-prefixed for
// V1, bare base58btc for V0) or its raw binary form, accepting an optional
// leading "/ipfs/" path segment the way gateway-style inputs carry one.
func Parse(v interface{}) (Cid, error) {
	switch x := v.(type) {
	case string:
		return decodeString(x)
	case []byte:
		return Cast(x)
	case Cid:
		return x, nil
	default:
		return Undef, errParsingf("can't parse %T as cid", v)
	}
}

func decodeString(v string) (Cid, error) {
	if strings.HasPrefix(v, "/ipfs/") {
		v = v[len("/ipfs/"):]
	}
	if isV0String(v) {
		digest, err := mh.FromB58String(v)
		if err != nil {
			return Undef, errParsingf("decoding v0 base58: %s", err)
		}
		return newV0(digest)
	}
	_, data, err := mbase.Decode(v)
	if err != nil {
		return Undef, errParsingf("decoding multibase: %s", err)
	}
	return Cast(data)
}

// Cast parses a CID from its raw binary form (no multibase envelope).
func Cast(data []byte) (Cid, error) {
	if isV0Binary(data) {
		if _, err := mh.Cast(data); err != nil {
			return Undef, errParsingf("casting v0 digest: %s", err)
		}
		return Cid{str: string(data)}, nil
	}

	rawVersion, n, err := varint.FromUvarint(data)
	if err != nil {
		return Undef, errParsingf("reading cid version: %s", err)
	}
	version, err := versionFromByte(byte(rawVersion))
	if err != nil {
		return Undef, err
	}
	rest := data[n:]

	rawCodec, n, err := varint.FromUvarint(rest)
	if err != nil {
		return Undef, errParsingf("reading cid codec: %s", err)
	}
	if _, err := codecFromCode(rawCodec); err != nil {
		return Undef, err
	}
	rest = rest[n:]

	if _, err := mh.Cast(rest); err != nil {
		return Undef, errParsingf("casting cid digest: %s", err)
	}
	_ = version
	return Cid{str: string(data)}, nil
}

// Version reports whether c is a V0 or V1 identifier.
func (c Cid) Version() Version {
	if isV0Binary([]byte(c.str)) {
		return V0
	}
	return V1
}

// Type reports the multicodec under which c's bytes should be interpreted.
// V0 CIDs are always DagProtobuf.
func (c Cid) Type() Codec {
	if c.Version() == V0 {
		return DagProtobuf
	}
	rawVersion, n, _ := varint.FromUvarint([]byte(c.str))
	_ = rawVersion
	rawCodec, _, _ := varint.FromUvarint([]byte(c.str)[n:])
	return Codec(rawCodec)
}

// Hash returns the multihash digest c addresses.
func (c Cid) Hash() mh.Multihash {
	if c.Version() == V0 {
		return mh.Multihash(c.str)
	}
	rawVersion, n, _ := varint.FromUvarint([]byte(c.str))
	_ = rawVersion
	rest := []byte(c.str)[n:]
	_, n2, _ := varint.FromUvarint(rest)
	return mh.Multihash(rest[n2:])
}

// Prefix extracts the metadata needed to Sum another CID of the same shape.
func (c Cid) Prefix() Prefix {
	decoded, err := mh.Decode(c.Hash())
	if err != nil {
		return Prefix{}
	}
	return Prefix{Version: c.Version(), Codec: c.Type(), MhType: decoded.Code, MhLength: decoded.Length}
}

// Bytes returns the raw binary encoding of c (no multibase envelope).
func (c Cid) Bytes() []byte {
	if !c.Defined() {
		return nil
	}
	return []byte(c.str)
}

// Equals reports whether two CIDs address the same content under the same
// codec and version.
func (c Cid) Equals(o Cid) bool { return c.str == o.str }

// KeyString returns a value suitable for use as a Go map key, identical to
// the CID's raw bytes reinterpreted as a string.
func (c Cid) KeyString() string { return c.str }

// String renders c in its canonical textual form: bare base58btc for V0,
// multibase-prefixed base32 for V1.
func (c Cid) String() string {
	if !c.Defined() {
		return "undef"
	}
	if c.Version() == V0 {
		return mh.Multihash(c.str).B58String()
	}
	str, err := mbase.Encode(mbase.Base32, []byte(c.str))
	if err != nil {
		panic("cid: unreachable: base32 encoding never fails: " + err.Error())
	}
	return str
}

// StringOfBase renders c's V1 form under an explicit multibase encoding. V0
// CIDs have no multibase envelope and are rendered the same regardless of
// the requested base.
func (c Cid) StringOfBase(base mbase.Encoding) (string, error) {
	if !c.Defined() {
		return "", errParsing("cannot encode undef cid")
	}
	if c.Version() == V0 {
		return mh.Multihash(c.str).B58String(), nil
	}
	return mbase.Encode(base, []byte(c.str))
}
