package ipld

import (
	"fmt"

	"github.com/polkax/go-ipld-tries/cid"
)

// ErrorKind enumerates the codec-level error taxonomy: everything that can
// go wrong walking or decoding an IPLD value tree.
type ErrorKind int

const (
	// ErrNonStringLink is returned when a single-key "/" map's value is not a string.
	ErrNonStringLink ErrorKind = iota
	// ErrNoSuchLink is returned when a path segment has no matching map key.
	ErrNoSuchLink
	// ErrNoLinks is returned when a path segment is applied to a non-traversable value.
	ErrNoLinks
	// ErrNonLink is returned when ResolveLink's path terminates at a non-Link value.
	ErrNonLink
	// ErrDecodeError wraps a lower-level CBOR/JSON decode failure.
	ErrDecodeError
)

// Error is the unified codec error type.
type Error struct {
	Kind    ErrorKind
	Segment string
	Detail  string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrNonStringLink:
		return "ipld: link object's \"/\" value is not a string"
	case ErrNoSuchLink:
		return fmt.Sprintf("ipld: no such link: %q", e.Segment)
	case ErrNoLinks:
		return fmt.Sprintf("ipld: cannot traverse into non-map/list value at %q", e.Segment)
	case ErrNonLink:
		return "ipld: path resolved to a non-link value"
	case ErrDecodeError:
		return fmt.Sprintf("ipld: decode error: %s", e.Detail)
	default:
		return "ipld: unknown error"
	}
}

func errNoSuchLink(segment string) *Error { return &Error{Kind: ErrNoSuchLink, Segment: segment} }
func errNoLinks(segment string) *Error    { return &Error{Kind: ErrNoLinks, Segment: segment} }
func errDecode(detail string) *Error      { return &Error{Kind: ErrDecodeError, Detail: detail} }
func errDecodef(format string, args ...interface{}) *Error {
	return errDecode(fmt.Sprintf(format, args...))
}

// ResolveResult is what Resolve returns: either a terminal value, or a Link
// together with the path segments still unconsumed at the point the link
// was encountered.
type ResolveResult struct {
	Value     interface{}
	Link      cid.Cid
	IsLink    bool
	Remainder []string
}
