// Package testutil provides fixture generators for the trie test suites:
// random byte payloads, unique string keys, and a fresh in-memory block
// store, so large-N property-style tests don't hand-roll their own.
package testutil

import (
	"bytes"

	"github.com/google/uuid"
	random "github.com/jbenet/go-random"

	"github.com/polkax/go-ipld-tries/ipld"
)

var seedSeq int64

// RandomBytes returns n pseudorandom bytes. Each call advances the seed
// sequence, so successive calls never repeat a fixture within a process.
func RandomBytes(n int64) []byte {
	var buf bytes.Buffer
	_ = random.WritePseudoRandomBytes(n, &buf, seedSeq)
	seedSeq++
	return buf.Bytes()
}

// RandomKey returns a fresh UUID-derived string key, suitable as a HAMT key
// in tests that need guaranteed-unique, non-sequential keys.
func RandomKey() string {
	return uuid.New().String()
}

// RandomKeys returns n fresh, distinct UUID-derived keys.
func RandomKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = RandomKey()
	}
	return keys
}

// NewStore returns a fresh in-memory block store, ready for an AMT or HAMT
// under test to read and write through.
func NewStore() *ipld.MemBlocks {
	return ipld.NewMemBlocks()
}
