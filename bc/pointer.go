package bc

import (
	"xcdat/bitvector"
	"xcdat/intvector"
	"xcdat/wire"
)

// shortWidth bounds how large a XOR delta may be before it must overflow
// into the full-width side table. 24 bits covers the common case of a
// child allocated close to its parent's BASE by the greedy free-slot scan
// (spec §4.5). A leaf's BASE is a tail-blob byte offset rather than a trie
// slot; it is XORed against the parent's BASE like any other entry and
// overflows only when that XOR reaches 2^24.
const shortWidth = 24

// PointerStore is BC Format P: CHECK stored directly (rank-compacted over
// used slots), BASE stored as a XOR delta against the parent's BASE when it
// fits in shortWidth bits, else as a raw value in an overflow table
// indexed by rank of the overflow flag bit vector.
type PointerStore struct {
	used  *bitvector.BitVector
	leaf  *bitvector.BitVector
	check *intvector.Vector

	baseDelta *intvector.Vector
	overflow  *bitvector.BitVector
	overflowV *intvector.Vector

	// parent maps slot id -> owning trie node id. Owned by the façade, not
	// this store: decode needs the same table regardless of BC format, so
	// it is built once by the caller and shared rather than duplicated
	// into each format's own serialized block.
	parent *intvector.Vector
}

// BuildPointer compresses raw into Format P. parent is the façade's node
// id -> parent id side table (spec §9's "compact parent-id side table"),
// needed here too since BaseAt's delta-chasing walks the same chain decode
// does.
func BuildPointer(raw RawArrays, parent *intvector.Vector) *PointerStore {
	n := uint64(len(raw.Base))
	usedB := bitvector.NewBuilderSize(n)
	for i, u := range raw.Used {
		usedB.SetBit(uint64(i), u)
	}
	used := bitvector.Build(usedB, true)

	numUsed := used.NumOnes()
	checkB := intvector.NewBuilderCap(int(numUsed))
	deltaB := intvector.NewBuilderCap(int(numUsed))
	overflowB := bitvector.NewBuilder()
	overflowVB := intvector.NewBuilderCap(int(numUsed) / 8)

	for i := uint64(0); i < n; i++ {
		if !raw.Used[i] {
			continue
		}
		checkB.PushBack(raw.Check[i])

		isOverflow := i == 0 // root has no parent to delta against
		var delta uint64
		if !isOverflow {
			p := raw.Parent[i]
			delta = raw.Base[i] ^ raw.Base[p]
			if delta >= (uint64(1) << shortWidth) {
				isOverflow = true
			}
		}
		overflowB.PushBack(isOverflow)
		if isOverflow {
			overflowVB.PushBack(raw.Base[i])
			deltaB.PushBack(0)
		} else {
			deltaB.PushBack(delta)
		}
	}

	return &PointerStore{
		used:      used,
		leaf:      raw.Leaf,
		check:     checkB.Build(0),
		baseDelta: deltaB.Build(shortWidth),
		overflow:  bitvector.Build(overflowB, true),
		overflowV: overflowVB.Build(0),
		parent:    parent,
	}
}

// BaseAt reconstructs BASE[i], recursing through parent bases when i's
// entry is a short delta (spec §4.6: "chains longer links through an
// overflow table").
func (s *PointerStore) BaseAt(i uint64) uint64 {
	idx := s.used.Rank(i)
	oidx := s.overflow.Rank(idx)
	if s.overflow.Access(idx) {
		return s.overflowV.Get(oidx)
	}
	delta := s.baseDelta.Get(idx)
	parentID := s.parent.Get(i)
	return s.BaseAt(parentID) ^ delta
}

// CheckAt returns CHECK[i].
func (s *PointerStore) CheckAt(i uint64) uint64 {
	return s.check.Get(s.used.Rank(i))
}

// IsLeaf delegates to the shared leaf bit vector.
func (s *PointerStore) IsLeaf(i uint64) bool { return s.leaf.Access(i) }

// IsUsed reports whether slot i holds a live node.
func (s *PointerStore) IsUsed(i uint64) bool { return s.used.Access(i) }

// MemoryBytes returns the approximate footprint in bytes, excluding the
// parent table (attributed once, by the façade, not per format).
func (s *PointerStore) MemoryBytes() uint64 {
	return s.used.MemoryBytes() + s.check.MemoryBytes() + s.baseDelta.MemoryBytes() +
		s.overflow.MemoryBytes() + s.overflowV.MemoryBytes()
}

// Encode serializes the format-P-specific sub-components of the bc_store
// block. Neither the shared leaf bit vector nor the parent table travel
// here: both are serialized once by the façade (leaf_bits, parent blocks)
// since decode needs the parent table under either BC format.
func (s *PointerStore) Encode() []byte {
	var out []byte
	out = wire.AppendBlock(out, s.used.Encode())
	out = wire.AppendBlock(out, s.check.Encode())
	out = wire.AppendBlock(out, s.baseDelta.Encode())
	out = wire.AppendBlock(out, s.overflow.Encode())
	out = wire.AppendBlock(out, s.overflowV.Encode())
	return out
}

// DecodePointer parses a PointerStore from its wire form, given the leaf
// bit vector and parent table decoded separately from the image's
// leaf_bits and parent blocks.
func DecodePointer(data []byte, leaf *bitvector.BitVector, parent *intvector.Vector) (*PointerStore, error) {
	off := 0
	var blk []byte
	var err error

	blk, off, err = wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	used, err := bitvector.DecodeView(blk)
	if err != nil {
		return nil, err
	}

	blk, off, err = wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	check, err := intvector.DecodeView(blk)
	if err != nil {
		return nil, err
	}

	blk, off, err = wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	baseDelta, err := intvector.DecodeView(blk)
	if err != nil {
		return nil, err
	}

	blk, off, err = wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	overflow, err := bitvector.DecodeView(blk)
	if err != nil {
		return nil, err
	}

	blk, _, err = wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	overflowV, err := intvector.DecodeView(blk)
	if err != nil {
		return nil, err
	}

	return &PointerStore{
		used:      used,
		leaf:      leaf,
		check:     check,
		baseDelta: baseDelta,
		overflow:  overflow,
		overflowV: overflowV,
		parent:    parent,
	}, nil
}
