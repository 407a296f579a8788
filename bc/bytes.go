package bc

import (
	"xcdat/bitvector"
	"xcdat/wire"
)

// BytesStore is BC Format B: BASE and CHECK stored directly (no delta) as
// Direct-Access Code sequences, rank-compacted over used slots exactly like
// Format P's CHECK column. Unlike PointerStore, BaseAt never recurses
// through a parent chain.
type BytesStore struct {
	used     *bitvector.BitVector
	leaf     *bitvector.BitVector
	baseDAC  *DAC
	checkDAC *DAC
}

// BuildBytes compresses raw into Format B.
func BuildBytes(raw RawArrays) *BytesStore {
	n := uint64(len(raw.Base))
	usedB := bitvector.NewBuilderSize(n)
	for i, u := range raw.Used {
		usedB.SetBit(uint64(i), u)
	}
	used := bitvector.Build(usedB, true)

	baseVals := make([]uint64, 0, used.NumOnes())
	checkVals := make([]uint64, 0, used.NumOnes())
	for i := uint64(0); i < n; i++ {
		if !raw.Used[i] {
			continue
		}
		baseVals = append(baseVals, raw.Base[i])
		checkVals = append(checkVals, raw.Check[i])
	}

	return &BytesStore{
		used:     used,
		leaf:     raw.Leaf,
		baseDAC:  BuildDAC(baseVals),
		checkDAC: BuildDAC(checkVals),
	}
}

// BaseAt returns BASE[i] directly from the DAC, no parent chasing needed.
func (s *BytesStore) BaseAt(i uint64) uint64 {
	return s.baseDAC.Get(s.used.Rank(i))
}

// CheckAt returns CHECK[i].
func (s *BytesStore) CheckAt(i uint64) uint64 {
	return s.checkDAC.Get(s.used.Rank(i))
}

// IsLeaf delegates to the shared leaf bit vector.
func (s *BytesStore) IsLeaf(i uint64) bool { return s.leaf.Access(i) }

// IsUsed reports whether slot i holds a live node.
func (s *BytesStore) IsUsed(i uint64) bool { return s.used.Access(i) }

// MemoryBytes returns the approximate footprint in bytes.
func (s *BytesStore) MemoryBytes() uint64 {
	return s.used.MemoryBytes() + s.baseDAC.MemoryBytes() + s.checkDAC.MemoryBytes()
}

// Encode serializes the format-B-specific sub-components of the bc_store
// block; the shared leaf bit vector travels separately, as in Format P.
func (s *BytesStore) Encode() []byte {
	var out []byte
	out = wire.AppendBlock(out, s.used.Encode())
	out = wire.AppendBlock(out, s.baseDAC.Encode())
	out = wire.AppendBlock(out, s.checkDAC.Encode())
	return out
}

// DecodeBytes parses a BytesStore from its wire form, given the leaf bit
// vector decoded separately from the image's leaf_bits block.
func DecodeBytes(data []byte, leaf *bitvector.BitVector) (*BytesStore, error) {
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
	baseDAC, err := DecodeDAC(blk)
	if err != nil {
		return nil, err
	}

	blk, _, err = wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	checkDAC, err := DecodeDAC(blk)
	if err != nil {
		return nil, err
	}

	return &BytesStore{used: used, leaf: leaf, baseDAC: baseDAC, checkDAC: checkDAC}, nil
}
