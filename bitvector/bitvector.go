// Package bitvector implements a packed bit sequence with O(1) rank and
// near-O(1) select, following the rank9-style layout described in
// original_source/include/xcdat/bit_vector.hpp: bits in 64-bit words,
// least-significant-bit first, with an 8-word (512-bit) block carrying an
// absolute rank and seven packed 9-bit sub-ranks.
package bitvector

import (
	"math/bits"

	"xcdat/wire"
)

const (
	wordBits = 64
	// blockWords is the number of 64-bit words per rank block (512 bits).
	blockWords = 8
	// selectSampleRate is the number of set bits between select hints.
	selectSampleRate = 1024
)

// Builder accumulates bits before freezing them into a BitVector.
// Grounded on bit_vector.hpp's nested `builder` class: push_back, resize,
// operator[], set_bit.
type Builder struct {
	words []uint64
	size  uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewBuilderSize returns a Builder pre-sized to hold size bits, all zero.
func NewBuilderSize(size uint64) *Builder {
	b := &Builder{}
	b.Resize(size)
	return b
}

func wordsForBits(n uint64) uint64 {
	return (n + wordBits - 1) / wordBits
}

// PushBack appends one bit.
func (b *Builder) PushBack(x bool) {
	if b.size%wordBits == 0 {
		b.words = append(b.words, 0)
	}
	if x {
		b.SetBit(b.size, true)
	}
	b.size++
}

// Resize grows or shrinks the builder to exactly size bits; new bits are 0.
func (b *Builder) Resize(size uint64) {
	nw := wordsForBits(size)
	if nw > uint64(len(b.words)) {
		b.words = append(b.words, make([]uint64, nw-uint64(len(b.words)))...)
	} else {
		b.words = b.words[:nw]
	}
	b.size = size
}

// Get returns the bit at position i.
func (b *Builder) Get(i uint64) bool {
	return b.words[i/wordBits]&(uint64(1)<<(i%wordBits)) != 0
}

// SetBit sets (or clears) the bit at position i.
func (b *Builder) SetBit(i uint64, x bool) {
	if x {
		b.words[i/wordBits] |= uint64(1) << (i % wordBits)
	} else {
		b.words[i/wordBits] &^= uint64(1) << (i % wordBits)
	}
}

// Size returns the number of bits currently held.
func (b *Builder) Size() uint64 {
	return b.size
}

// BitVector is a frozen, queryable bit sequence with rank/select hints.
// A BitVector is immutable and safe for concurrent readers once built.
type BitVector struct {
	words   []uint64
	size    uint64
	numOnes uint64

	// rankAbs and rankPacked hold, per block of blockWords words, the
	// absolute popcount at the block's start and seven packed 9-bit sub-ranks for
	// words 1..7 of the block (word 0's sub-rank is always 0, implicit).
	// A trailing sentinel block simplifies boundary arithmetic exactly as
	// bit_vector.hpp describes.
	rankAbs    []uint64
	rankPacked []uint64

	// selectHints[k] holds the rank-block index containing the
	// (k*selectSampleRate+1)-th set bit, enabling select to binary-search
	// a narrow window of rankAbs instead of the whole vector.
	selectHints []uint32
	hasSelect   bool
}

// Build freezes b into a BitVector. enableSelect controls whether select
// hints are built; rank hints are always built since every component of
// the dictionary relies on rank.
func Build(b *Builder, enableSelect bool) *BitVector {
	bv := &BitVector{
		words: append([]uint64(nil), b.words...),
		size:  b.size,
	}
	bv.buildRankHints()
	if enableSelect {
		bv.buildSelectHints()
		bv.hasSelect = true
	}
	return bv
}

func (bv *BitVector) numBlocks() int {
	return (len(bv.words) + blockWords - 1) / blockWords
}

func (bv *BitVector) buildRankHints() {
	nb := bv.numBlocks()
	bv.rankAbs = make([]uint64, nb+1)
	bv.rankPacked = make([]uint64, nb+1)

	var abs uint64
	for blk := 0; blk < nb; blk++ {
		bv.rankAbs[blk] = abs
		var packed uint64
		var sub uint64
		for w := 0; w < blockWords; w++ {
			idx := blk*blockWords + w
			if w > 0 {
				// Sub-rank for word w (1..7) occupies bits
				// [(7-w)*9 .. (8-w)*9).
				shift := uint((blockWords - 1 - w) * 9)
				packed |= sub << shift
			}
			var wv uint64
			if idx < len(bv.words) {
				wv = bv.words[idx]
			}
			sub += uint64(bits.OnesCount64(wv))
		}
		bv.rankPacked[blk] = packed
		abs += sub
	}
	// Sentinel block.
	bv.rankAbs[nb] = abs
	bv.numOnes = abs
}

func (bv *BitVector) buildSelectHints() {
	if bv.numOnes == 0 {
		return
	}
	nb := bv.numBlocks()
	hints := make([]uint32, 0, bv.numOnes/selectSampleRate+2)
	next := uint64(1) // 1-based rank of the next sampled set bit
	for blk := 0; blk < nb; blk++ {
		for next <= bv.rankAbs[blk+1] {
			hints = append(hints, uint32(blk))
			next += selectSampleRate
		}
	}
	bv.selectHints = hints
}

// Size returns the number of bits.
func (bv *BitVector) Size() uint64 { return bv.size }

// NumBits is an alias for Size, matching original_source's bit_vector API
// surface (num_bits()/num_ones()).
func (bv *BitVector) NumBits() uint64 { return bv.size }

// NumOnes returns the total number of set bits.
func (bv *BitVector) NumOnes() uint64 { return bv.numOnes }

// MemoryBytes returns the approximate number of bytes this vector occupies,
// including rank/select hints.
func (bv *BitVector) MemoryBytes() uint64 {
	n := uint64(len(bv.words))*8 + uint64(len(bv.rankAbs))*8 + uint64(len(bv.rankPacked))*8
	n += uint64(len(bv.selectHints)) * 4
	return n
}

// Access returns the bit at position i. i must be < Size(); out-of-range
// access is a caller bug (spec §4.8/§4.1 failure semantics).
func (bv *BitVector) Access(i uint64) bool {
	return bv.words[i/wordBits]&(uint64(1)<<(i%wordBits)) != 0
}

func subRank(packed uint64, word int) uint64 {
	if word == 0 {
		return 0
	}
	shift := uint((blockWords - 1 - word) * 9)
	return (packed >> shift) & 0x1FF
}

// Rank returns |{j < i : B[j] = 1}|. Rank(Size()) returns the total
// popcount.
func (bv *BitVector) Rank(i uint64) uint64 {
	w := i / wordBits
	r := i % wordBits
	blk := int(w / blockWords)
	sub := int(w % blockWords)

	total := bv.rankAbs[blk] + subRank(bv.rankPacked[blk], sub)
	if r > 0 {
		var wv uint64
		if int(w) < len(bv.words) {
			wv = bv.words[w]
		}
		mask := uint64(1)<<r - 1
		total += uint64(bits.OnesCount64(wv & mask))
	}
	return total
}

// Select returns the position of the (k+1)-th set bit (k is zero-based).
// Select requires the BitVector to have been built with select hints
// enabled.
func (bv *BitVector) Select(k uint64) uint64 {
	target := k + 1 // 1-based popcount target

	lo, hi := 0, bv.numBlocks()
	if bv.hasSelect && len(bv.selectHints) > 0 {
		sampleIdx := k / selectSampleRate
		if int(sampleIdx) < len(bv.selectHints) {
			lo = int(bv.selectHints[sampleIdx])
		}
		if int(sampleIdx+1) < len(bv.selectHints) {
			hi = int(bv.selectHints[sampleIdx+1]) + 1
		}
	}

	// Binary-search rankAbs for the last block whose absolute rank is
	// strictly less than target.
	for lo < hi {
		mid := (lo + hi) / 2
		if bv.rankAbs[mid+1] < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	blk := lo

	remaining := target - bv.rankAbs[blk]
	// Scan the block's words using the packed sub-ranks to find the word,
	// then a byte-wise popcount ladder within the word.
	word := blockWords - 1
	for wI := 1; wI < blockWords; wI++ {
		if subRank(bv.rankPacked[blk], wI) >= remaining {
			word = wI - 1
			break
		}
	}
	remaining -= subRank(bv.rankPacked[blk], word)

	wordIdx := blk*blockWords + word
	var wv uint64
	if wordIdx < len(bv.words) {
		wv = bv.words[wordIdx]
	}
	pos := selectInWord(wv, remaining)
	return uint64(wordIdx)*wordBits + pos
}

// selectInWord returns the position within a 64-bit word of the rank-th
// (1-based) set bit, via a byte-wise popcount ladder.
func selectInWord(w uint64, rank uint64) uint64 {
	for byteIdx := 0; byteIdx < 8; byteIdx++ {
		b := (w >> (byteIdx * 8)) & 0xFF
		c := uint64(bits.OnesCount8(uint8(b)))
		if c >= rank {
			for bit := 0; bit < 8; bit++ {
				if b&(1<<bit) != 0 {
					rank--
					if rank == 0 {
						return uint64(byteIdx*8 + bit)
					}
				}
			}
		}
		rank -= c
	}
	return 64 // unreachable for valid rank
}

// Encode serializes the BitVector to its wire form: size, word count,
// words, rank-hint arrays, and (if present) select hints. The caller wraps
// this in a length-prefixed, 8-byte-aligned outer block (spec §6).
func (bv *BitVector) Encode() []byte {
	var out []byte
	head := make([]byte, 24)
	wire.PutU64(head[0:8], bv.size)
	wire.PutU64(head[8:16], uint64(len(bv.words)))
	wire.PutU64(head[16:24], uint64(len(bv.rankAbs)))
	out = append(out, head...)
	out = append(out, wire.WordsToBytes(bv.words)...)
	out = append(out, wire.WordsToBytes(bv.rankAbs)...)
	out = append(out, wire.WordsToBytes(bv.rankPacked)...)

	selFlag := byte(0)
	if bv.hasSelect {
		selFlag = 1
	}
	out = append(out, selFlag)
	out = append(out, make([]byte, 7)...) // pad flag to 8 bytes
	countBuf := make([]byte, 8)
	wire.PutU64(countBuf, uint64(len(bv.selectHints)))
	out = append(out, countBuf...)
	out = append(out, wire.U32sToBytes(bv.selectHints)...)
	return out
}

// DecodeView reinterprets a previously-Encoded byte slice as a BitVector
// without copying: the returned BitVector's word and hint arrays alias
// data directly. This is the primitive both DeserializeOwned (over an
// owned copy of the whole image) and DeserializeBorrowed (over the
// caller's mmap) use.
func DecodeView(data []byte) (*BitVector, error) {
	if len(data) < 24 {
		return nil, wire.ErrCorrupt
	}
	size := wire.GetU64(data[0:8])
	numWords := int(wire.GetU64(data[8:16]))
	numRankBlocks := int(wire.GetU64(data[16:24]))
	off := 24

	wordsBytes, off2 := data[off:off+numWords*8], off+numWords*8
	off = off2
	rankAbsBytes, off2 := data[off:off+numRankBlocks*8], off+numRankBlocks*8
	off = off2
	rankPackedBytes, off2 := data[off:off+numRankBlocks*8], off+numRankBlocks*8
	off = off2
	if off+8 > len(data) {
		return nil, wire.ErrCorrupt
	}
	hasSelect := data[off] != 0
	off += 8
	if off+8 > len(data) {
		return nil, wire.ErrCorrupt
	}
	selCount := int(wire.GetU64(data[off : off+8]))
	off += 8
	selBytes := data[off : off+selCount*4]

	bv := &BitVector{
		size:       size,
		words:      wire.BytesToWords(wordsBytes),
		rankAbs:    wire.BytesToWords(rankAbsBytes),
		rankPacked: wire.BytesToWords(rankPackedBytes),
		hasSelect:  hasSelect,
	}
	if hasSelect {
		bv.selectHints = wire.BytesToU32s(selBytes)
	}
	if len(bv.rankAbs) > 0 {
		bv.numOnes = bv.rankAbs[len(bv.rankAbs)-1]
	}
	return bv, nil
}
