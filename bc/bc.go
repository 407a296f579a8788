// Package bc implements the two interchangeable compressed encodings of the
// double array's (BASE, CHECK) pair described in spec §4.6: a "pointer"
// format that XOR-compresses BASE against a parent's BASE with overflow
// chaining, and a "bytes" format using Direct-Access Codes for O(1) random
// access without delta chasing. Both expose the same read interface, chosen
// once per dictionary instance and held as a Store value for the trie
// façade's lifetime — Go disallows generic methods on interfaces, which
// would make iterator-returning façade methods impossible to express
// against a monomorphized type parameter, so dispatch happens once at
// Build/Deserialize time rather than per call.
package bc

import "xcdat/bitvector"

// Store is the read interface both BC encodings implement. A Dictionary
// picks one implementation once, at construction, and holds it as this
// interface value for its lifetime.
type Store interface {
	BaseAt(i uint64) uint64
	CheckAt(i uint64) uint64
	IsLeaf(i uint64) bool
	IsUsed(i uint64) bool
	MemoryBytes() uint64
	Encode() []byte
}

// RawArrays is the uncompressed (BASE, CHECK) pair the double-array builder
// produces, plus the auxiliary bit vectors and parent map every format
// needs to compress or decompress it.
type RawArrays struct {
	Base   []uint64
	Check  []uint64
	Used   []bool
	Parent []uint64 // Parent[i] = trie node that owns slot i as a child; undefined for i==0 (root).

	// Leaf is shared, not duplicated per format: the trie's leaf bit
	// vector, already built by the double-array core.
	Leaf *bitvector.BitVector
}

var _ Store = (*PointerStore)(nil)
var _ Store = (*BytesStore)(nil)
