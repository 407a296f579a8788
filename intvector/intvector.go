// Package intvector implements a fixed-width packed array of unsigned
// integers, as described in spec §4.2: width chosen at build time as
// ceil(log2(max_value+1)), read with at most two word reads plus a
// shift+mask. Used by the BC-store pointer format and the dictionary's
// parent side table.
package intvector

import (
	"math/bits"

	"xcdat/wire"
)

const wordBits = 64

// Vector is a fixed-width packed integer array. Immutable after Build.
type Vector struct {
	words []uint64
	width uint8
	size  uint64
}

// Builder accumulates values before a width is chosen and the vector is
// packed.
type Builder struct {
	values []uint64
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// NewBuilderCap returns an empty Builder with capacity hint n.
func NewBuilderCap(n int) *Builder {
	return &Builder{values: make([]uint64, 0, n)}
}

// PushBack appends one value.
func (b *Builder) PushBack(v uint64) {
	b.values = append(b.values, v)
}

// Len returns the number of accumulated values.
func (b *Builder) Len() int { return len(b.values) }

// WidthFor returns ceil(log2(maxValue+1)), clamped to at least 1.
func WidthFor(maxValue uint64) uint8 {
	if maxValue == 0 {
		return 1
	}
	w := bits.Len64(maxValue)
	return uint8(w)
}

// Build packs the accumulated values into a Vector using the minimum width
// that can represent the largest value (or width, if explicitly larger).
func (b *Builder) Build(width uint8) *Vector {
	var maxV uint64
	for _, v := range b.values {
		if v > maxV {
			maxV = v
		}
	}
	if want := WidthFor(maxV); want > width {
		width = want
	}
	if width == 0 {
		width = 1
	}

	v := &Vector{width: width, size: uint64(len(b.values))}
	nwords := (uint64(len(b.values))*uint64(width) + wordBits - 1) / wordBits
	v.words = make([]uint64, nwords+1) // +1 guard word for the two-word read
	for i, val := range b.values {
		v.set(uint64(i), val)
	}
	return v
}

func (v *Vector) set(i uint64, val uint64) {
	bitPos := i * uint64(v.width)
	w := bitPos / wordBits
	off := bitPos % wordBits
	mask := (uint64(1)<<v.width - 1)
	if v.width == 64 {
		mask = ^uint64(0)
	}
	val &= mask

	v.words[w] |= val << off
	if off+uint64(v.width) > wordBits {
		v.words[w+1] |= val >> (wordBits - off)
	}
}

// Get returns the value at index i.
func (v *Vector) Get(i uint64) uint64 {
	bitPos := i * uint64(v.width)
	w := bitPos / wordBits
	off := bitPos % wordBits
	mask := (uint64(1)<<v.width - 1)
	if v.width == 64 {
		mask = ^uint64(0)
	}

	lo := v.words[w] >> off
	if off+uint64(v.width) > wordBits && w+1 < uint64(len(v.words)) {
		lo |= v.words[w+1] << (wordBits - off)
	}
	return lo & mask
}

// Len returns the number of stored values.
func (v *Vector) Len() uint64 { return v.size }

// Width returns the per-element bit width.
func (v *Vector) Width() uint8 { return v.width }

// MemoryBytes returns the approximate footprint in bytes.
func (v *Vector) MemoryBytes() uint64 {
	return uint64(len(v.words)) * 8
}

// Encode serializes the Vector to its wire form: width, logical length,
// word count, and the packed words themselves.
func (v *Vector) Encode() []byte {
	head := make([]byte, 24)
	head[0] = v.width
	wire.PutU64(head[8:16], v.size)
	wire.PutU64(head[16:24], uint64(len(v.words)))
	out := append([]byte(nil), head...)
	out = append(out, wire.WordsToBytes(v.words)...)
	return out
}

// DecodeView reinterprets a previously-Encoded byte slice as a Vector
// without copying: the returned Vector's backing words alias data
// directly, enabling zero-copy borrowed/mmap loads.
func DecodeView(data []byte) (*Vector, error) {
	if len(data) < 24 {
		return nil, wire.ErrCorrupt
	}
	width := data[0]
	size := wire.GetU64(data[8:16])
	numWords := int(wire.GetU64(data[16:24]))
	if 24+numWords*8 > len(data) {
		return nil, wire.ErrCorrupt
	}
	words := wire.BytesToWords(data[24 : 24+numWords*8])
	return &Vector{words: words, width: width, size: size}, nil
}
