package ipld

import (
	"sort"

	"github.com/polkax/go-ipld-tries/cid"
)

// Link is a CBOR-tag-42 / JSON-{"/": ...} reference to another block. It is
// the only IPLD value kind a plain map/slice/scalar Go value cannot
// represent on its own, so it gets a distinct wrapper type.
type Link cid.Cid

// AsCid unwraps a Link to the cid.Cid it wraps.
func (l Link) AsCid() cid.Cid { return cid.Cid(l) }

// Value is the dynamic IPLD value model used throughout this package. A
// Value is always one of: nil, bool, int64, uint64, float64, []byte,
// string, []interface{}, map[string]interface{}, or Link. Lists and maps
// nest recursively over the same set.
type Value = interface{}

// linkKey is the single map key that, alone in a map, marks that map as
// the JSON rendering of a Link.
const linkKey = "/"

// linkifyJSON walks a freshly json.Unmarshal-ed value tree and rewrites
// every single-key {"/": "<cid>"} map into a Link. Numbers are left as
// float64: JSON ingest always prefers Float over Integer, so no numeric
// conversion happens here.
func linkifyJSON(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case map[string]interface{}:
		if len(x) == 1 {
			if raw, ok := x[linkKey]; ok {
				s, ok := raw.(string)
				if !ok {
					return nil, &Error{Kind: ErrNonStringLink}
				}
				c, err := cid.Parse(s)
				if err != nil {
					return nil, errDecodef("parsing link cid %q: %s", s, err)
				}
				return Link(c), nil
			}
		}
		out := make(map[string]interface{}, len(x))
		for k, sub := range x {
			converted, err := linkifyJSON(sub)
			if err != nil {
				return nil, err
			}
			out[k] = converted
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, sub := range x {
			converted, err := linkifyJSON(sub)
			if err != nil {
				return nil, err
			}
			out[i] = converted
		}
		return out, nil
	default:
		return v, nil
	}
}

// DemoteWholeFloats is the exported form of demoteWholeFloats, for packages
// outside ipld (e.g. hamt's bucket-value encoding) that need the same
// float/int canonicalization before calling EncodeCBOR.
func DemoteWholeFloats(v interface{}) interface{} { return demoteWholeFloats(v) }

// demoteWholeFloats walks a value tree about to be CBOR-encoded and
// rewrites any float64 with a zero fractional part to int64
// (hack_convert_float_to_int): canonical CBOR encodes such values as
// integers, never as floats, to match the existing corpus's wire format.
func demoteWholeFloats(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, sub := range x {
			out[k] = demoteWholeFloats(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, sub := range x {
			out[i] = demoteWholeFloats(sub)
		}
		return out
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
		return x
	default:
		return v
	}
}

// toJsonish is the inverse of linkifyJSON, used before JSON emission: Link
// becomes a {"/": "<cid>"} map, and integers become floats
// (hack_convert_int_to_float) so that numeric literals in the emitted JSON
// always carry a decimal point, matching the external JSON producer this
// format interchanges with.
func toJsonish(v interface{}) interface{} {
	switch x := v.(type) {
	case Link:
		return map[string]interface{}{linkKey: cid.Cid(x).String()}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, sub := range x {
			out[k] = toJsonish(sub)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, sub := range x {
			out[i] = toJsonish(sub)
		}
		return out
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	default:
		return v
	}
}

// sortedKeys returns a map's keys in canonical CBOR map order: shorter keys
// first, lexicographic among equal lengths.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
