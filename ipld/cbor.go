package ipld

import (
	"bytes"
	"fmt"

	"github.com/polkax/go-ipld-tries/cid"
	refmt "github.com/polydawn/refmt"
	"github.com/polydawn/refmt/cbor"
	"github.com/polydawn/refmt/obj/atlas"
)

// linkAtlasEntry teaches refmt how to marshal/unmarshal Link as CBOR tag 42
// around a byte string prefixed with the 0x00 identity-multibase byte, the
// encoding go-ipld-cbor itself uses for CID-valued links.
var linkAtlasEntry = atlas.BuildEntry(Link{}).
	UseTag(42).
	Transform().
	TransformMarshal(atlas.MakeMarshalTransformFunc(linkToBytes)).
	TransformUnmarshal(atlas.MakeUnmarshalTransformFunc(bytesToLink)).
	Complete()

// cborAtlas is the process-wide codec description: the Link transform plus
// RFC 7049 canonical map-key ordering (shorter keys first, lexicographic
// among equal lengths) required for deterministic, content-addressed CBOR.
var cborAtlas = atlas.MustBuild(linkAtlasEntry).
	WithMapMorphism(atlas.MapMorphism{KeySortMode: atlas.KeySortMode_RFC7049})

func linkToBytes(l Link) ([]byte, error) {
	c := cid.Cid(l)
	if !c.Defined() {
		return nil, fmt.Errorf("ipld: cannot encode an undefined link")
	}
	return append([]byte{0}, c.Bytes()...), nil
}

func bytesToLink(b []byte) (Link, error) {
	if len(b) == 0 || b[0] != 0 {
		return Link(cid.Undef), &cid.Error{Kind: cid.ErrInvalidBinaryMultibasePrefix}
	}
	c, err := cid.Cast(b[1:])
	if err != nil {
		return Link(cid.Undef), errDecodef("casting link cid: %s", err)
	}
	return Link(c), nil
}

// EncodeCBOR serializes a cborish value tree (as produced by linkifyJSON, or
// built directly with Link/int64/map[string]interface{}/etc.) to canonical
// CBOR bytes.
func EncodeCBOR(v interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	marshaller := refmt.NewMarshallerAtlased(cbor.EncodeOptions{}, buf, cborAtlas)
	if err := marshaller.Marshal(v); err != nil {
		return nil, fmt.Errorf("ipld: cbor encode: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeCBOR parses CBOR bytes into a generic cborish value tree:
// map[string]interface{}, []interface{}, string, []byte, bool, int64,
// uint64, float64, Link, or nil.
func DecodeCBOR(data []byte) (interface{}, error) {
	var out interface{}
	unmarshaller := refmt.NewUnmarshallerAtlased(cbor.DecodeOptions{}, bytes.NewReader(data), cborAtlas)
	if err := unmarshaller.Unmarshal(&out); err != nil {
		return nil, fmt.Errorf("ipld: cbor decode: %w", err)
	}
	return out, nil
}
