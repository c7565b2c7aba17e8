package cid

import "fmt"

// ErrorKind enumerates the CID error taxonomy from the error handling design.
type ErrorKind int

const (
	// ErrInvalidCidV0 is returned when a V0 prefix does not carry a SHA2-256/32-byte hash.
	ErrInvalidCidV0 ErrorKind = iota
	// ErrInvalidCidVersion is returned when a CID's version byte is neither 0 nor 1.
	ErrInvalidCidVersion
	// ErrUnknownCodec is returned when a codec code has no registered name.
	ErrUnknownCodec
	// ErrUnknownHash is returned when a multihash code cannot be decoded.
	ErrUnknownHash
	// ErrParsingError wraps a lower-level multibase/multihash/varint failure.
	ErrParsingError
	// ErrInvalidBinaryMultibasePrefix is returned by the CBOR link decoder.
	ErrInvalidBinaryMultibasePrefix
	// ErrInvalidV0Prefix is returned when Prefix.Sum is asked to mint a non-conforming V0 CID.
	ErrInvalidV0Prefix
)

// Error is the unified CID error type. Only the fields relevant to Kind are populated.
type Error struct {
	Kind   ErrorKind
	Algo   uint64
	Length int
	Raw    uint64
	Detail string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrInvalidCidV0:
		return fmt.Sprintf("invalid CIDv0 prefix: hash algorithm %d, length %d", e.Algo, e.Length)
	case ErrInvalidCidVersion:
		return fmt.Sprintf("invalid cid version: %d", e.Raw)
	case ErrUnknownCodec:
		return fmt.Sprintf("unknown codec: 0x%x", e.Raw)
	case ErrUnknownHash:
		return fmt.Sprintf("unknown multihash code: 0x%x", e.Raw)
	case ErrParsingError:
		return fmt.Sprintf("cid parsing error: %s", e.Detail)
	case ErrInvalidBinaryMultibasePrefix:
		return "invalid binary multibase prefix on cid link"
	case ErrInvalidV0Prefix:
		return "invalid V0 prefix: must be sha2-256 with a 32 byte digest"
	default:
		return "unknown cid error"
	}
}

func errParsing(detail string) *Error {
	return &Error{Kind: ErrParsingError, Detail: detail}
}

func errParsingf(format string, args ...interface{}) *Error {
	return errParsing(fmt.Sprintf(format, args...))
}
