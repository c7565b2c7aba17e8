package cid

// Version distinguishes the two CID encodings in use: V0 is the legacy
// bare-multihash form pinned to DagProtobuf/SHA2-256, V1 is the general
// multibase-prefixed, multicodec-tagged form.
type Version uint64

const (
	V0 Version = 0
	V1 Version = 1
)

func versionFromByte(raw byte) (Version, error) {
	switch raw {
	case 0:
		return V0, nil
	case 1:
		return V1, nil
	default:
		return 0, &Error{Kind: ErrInvalidCidVersion, Raw: uint64(raw)}
	}
}

// isV0String reports whether data looks like a base58btc-encoded CIDv0: a
// 46 character string starting with "Qm", the fixed shape of a sha2-256
// multihash under base58.
func isV0String(data string) bool {
	return len(data) == 46 && data[:2] == "Qm"
}

// isV0Binary reports whether data is the raw (unprefixed) multihash form of
// a CIDv0: a 34 byte sha2-256 multihash, which always starts with 0x12 0x20.
func isV0Binary(data []byte) bool {
	return len(data) == 34 && data[0] == 0x12 && data[1] == 0x20
}
