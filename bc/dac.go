package bc

import (
	"xcdat/bitvector"
	"xcdat/wire"
)

// DAC is a Direct-Access Code sequence (spec §4.6 Format B / GLOSSARY):
// level 0 holds the low byte of every value plus a continuation bit; level
// L holds the (L+1)-th byte of only the values whose level L-1
// continuation bit was set. Random access at position i walks the
// continuation bit vectors with rank queries, giving O(1) expected access
// (O(levels) worst case, levels ≤ ceil(bits/8)).
type DAC struct {
	byteLevels []byte                 // concatenated per-level byte arrays
	levelStart []int                   // byteLevels[levelStart[l]:levelStart[l+1]] is level l
	cont       []*bitvector.BitVector // continuation bit vector per level (nil for the last level)
}

// BuildDAC encodes values into a DAC.
func BuildDAC(values []uint64) *DAC {
	d := &DAC{levelStart: []int{0}}
	cur := values
	for len(cur) > 0 {
		n := len(cur)
		lvlBytes := make([]byte, n)
		contB := bitvector.NewBuilderSize(uint64(n))
		next := make([]uint64, 0, n)
		anyMore := false
		for i, v := range cur {
			lvlBytes[i] = byte(v & 0xFF)
			rem := v >> 8
			if rem != 0 {
				contB.SetBit(uint64(i), true)
				next = append(next, rem)
				anyMore = true
			}
		}
		d.byteLevels = append(d.byteLevels, lvlBytes...)
		d.levelStart = append(d.levelStart, len(d.byteLevels))
		if anyMore {
			d.cont = append(d.cont, bitvector.Build(contB, true))
			cur = next
		} else {
			d.cont = append(d.cont, nil)
			cur = nil
		}
	}
	return d
}

// Get decodes the value at position i.
func (d *DAC) Get(i uint64) uint64 {
	var value uint64
	pos := i
	for lvl := 0; lvl < len(d.cont); lvl++ {
		b := d.byteLevels[d.levelStart[lvl]+int(pos)]
		value |= uint64(b) << (8 * lvl)
		c := d.cont[lvl]
		if c == nil || !c.Access(pos) {
			return value
		}
		pos = c.Rank(pos)
	}
	return value
}

// Levels returns the number of byte levels, for diagnostics/testing.
func (d *DAC) Levels() int { return len(d.cont) }

// Encode serializes the DAC: level boundaries, the concatenated level
// bytes, and one nested block per continuation bit vector (an empty block
// marks the terminal level's absent continuation vector).
func (d *DAC) Encode() []byte {
	head := make([]byte, 8)
	wire.PutU32(head[0:4], uint32(len(d.cont)))
	wire.PutU32(head[4:8], uint32(len(d.levelStart)))
	out := append([]byte(nil), head...)

	lsBytes := make([]byte, len(d.levelStart)*4)
	for i, v := range d.levelStart {
		wire.PutU32(lsBytes[i*4:i*4+4], uint32(v))
	}
	out = wire.AppendBlock(out, lsBytes)
	out = wire.AppendBlock(out, d.byteLevels)
	for _, c := range d.cont {
		if c == nil {
			out = wire.AppendBlock(out, nil)
		} else {
			out = wire.AppendBlock(out, c.Encode())
		}
	}
	return out
}

// DecodeDAC parses a DAC from its wire form, aliasing the continuation bit
// vectors and the byte-level array directly into data.
func DecodeDAC(data []byte) (*DAC, error) {
	if len(data) < 8 {
		return nil, wire.ErrCorrupt
	}
	numLevels := int(wire.GetU32(data[0:4]))
	numStarts := int(wire.GetU32(data[4:8]))
	off := 8

	lsBytes, off, err := wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}
	if len(lsBytes) != numStarts*4 {
		return nil, wire.ErrCorrupt
	}
	levelStart := make([]int, numStarts)
	for i := range levelStart {
		levelStart[i] = int(wire.GetU32(lsBytes[i*4 : i*4+4]))
	}

	byteLevels, off, err := wire.ReadBlock(data, off)
	if err != nil {
		return nil, err
	}

	cont := make([]*bitvector.BitVector, numLevels)
	for i := 0; i < numLevels; i++ {
		var blk []byte
		blk, off, err = wire.ReadBlock(data, off)
		if err != nil {
			return nil, err
		}
		if len(blk) == 0 {
			cont[i] = nil
			continue
		}
		cont[i], err = bitvector.DecodeView(blk)
		if err != nil {
			return nil, err
		}
	}

	return &DAC{byteLevels: byteLevels, levelStart: levelStart, cont: cont}, nil
}

// MemoryBytes returns the approximate footprint in bytes.
func (d *DAC) MemoryBytes() uint64 {
	n := uint64(len(d.byteLevels))
	for _, c := range d.cont {
		if c != nil {
			n += c.MemoryBytes()
		}
	}
	return n
}
