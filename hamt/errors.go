package hamt

import "fmt"

// ErrNotFound is returned by Find/Delete when key has no entry.
type ErrNotFound struct{ Key string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("hamt: not found: %q", e.Key) }

// ErrMaxDepth is returned when a HashBits cursor runs out of hash bits:
// a 64-bit hash addresses at most 64/bit_width levels.
type ErrMaxDepth struct{}

func (e *ErrMaxDepth) Error() string { return "hamt: max depth exceeded" }

// ErrInvalidFormat indicates a corrupt tree: a child node collapsed to zero
// pointers without its parent having removed the link.
type ErrInvalidFormat struct{}

func (e *ErrInvalidFormat) Error() string { return "hamt: invalid format: empty child node" }
