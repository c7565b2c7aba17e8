package amt

import "fmt"

// ErrNotFound is returned by Get/Delete when the key has no entry.
type ErrNotFound struct{ Key uint64 }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("amt: not found: %d", e.Key) }

// ErrNoNodeForIndex indicates a corrupt node: a compact index pointed past
// the end of its backing slice.
type ErrNoNodeForIndex struct{ Index int }

func (e *ErrNoNodeForIndex) Error() string {
	return fmt.Sprintf("amt: no node for compact index %d", e.Index)
}
