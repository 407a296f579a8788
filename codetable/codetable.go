// Package codetable implements the 256→σ+1 byte code table of spec §4.4: a
// bijection between raw byte values and a compacted alphabet, ordered
// most-frequent-first so XOR-compressed BASE deltas stay small, with code 0
// reserved as the leaf/terminator sentinel.
package codetable

import (
	"slices"

	"xcdat/wire"
)

// Table maps raw byte values to compact codes 1..σ (0 is the sentinel) and
// back.
type Table struct {
	encode [256]uint16 // byte value -> code (never 0; unused bytes get codes above σ)
	decode []byte      // code (1-based via decode[code-1]) -> byte value
	sigma  int
}

// Build constructs a Table from the byte-frequency histogram of a key set.
// Bytes are ordered most-frequent-first (ties broken by byte value for
// determinism); bytes with zero frequency still receive an arbitrary code
// so every possible input byte can be encoded, but are placed after all
// observed bytes (spec I6: "extended arbitrarily for unused bytes").
func Build(freq [256]uint64) *Table {
	order := make([]int, 256)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if freq[a] != freq[b] {
			if freq[a] > freq[b] {
				return -1
			}
			return 1
		}
		return a - b
	})

	t := &Table{decode: make([]byte, 0, 256)}
	sigma := 0
	for _, b := range freq {
		if b > 0 {
			sigma++
		}
	}
	t.sigma = sigma

	for code, b := range order {
		t.encode[b] = uint16(code + 1)
		t.decode = append(t.decode, byte(b))
	}
	return t
}

// BuildFromKeys is a convenience wrapper that computes the byte-frequency
// histogram over a set of sorted keys (non-terminator bytes only) and
// builds the Table from it.
func BuildFromKeys(keys [][]byte) *Table {
	var freq [256]uint64
	for _, k := range keys {
		for _, b := range k {
			freq[b]++
		}
	}
	return Build(freq)
}

// Sigma returns the number of actually-used distinct byte values.
func (t *Table) Sigma() int { return t.sigma }

// Encode returns the compact code (1..256) for a raw byte value. Unused
// bytes still decode/encode consistently (I6) even though they never
// appear in practice.
func (t *Table) Encode(b byte) uint16 {
	return t.encode[b]
}

// Decode returns the raw byte value for a compact code (1-based).
func (t *Table) Decode(code uint16) byte {
	return t.decode[code-1]
}

// MemoryBytes returns the approximate footprint in bytes.
func (t *Table) MemoryBytes() uint64 {
	return uint64(len(t.encode))*2 + uint64(len(t.decode))
}

// WidthBits returns ceil(log2(sigma+1)), the width needed to store a CHECK
// value (codes 0..sigma).
func (t *Table) WidthBits() uint8 {
	n := t.sigma + 1
	w := uint8(0)
	for (1 << w) < n {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// Encode serializes the Table to its wire form. Only decode (code order ->
// byte value) needs to survive the round trip; the encode side is a pure
// function of it and is rebuilt on load.
func (t *Table) Encode() []byte {
	head := make([]byte, 8)
	wire.PutU32(head[0:4], uint32(t.sigma))
	wire.PutU32(head[4:8], uint32(len(t.decode)))
	out := append([]byte(nil), head...)
	out = append(out, t.decode...)
	for len(out)%8 != 0 {
		out = append(out, 0)
	}
	return out
}

// Decode parses a Table from its wire form, built by Encode. Unlike the
// bit vector and int vector decoders this always copies: the decode slice
// is tiny (at most 256 bytes) and the encode array must be rebuilt
// regardless, so there is nothing to gain from aliasing data.
func Decode(data []byte) (*Table, error) {
	if len(data) < 8 {
		return nil, wire.ErrCorrupt
	}
	sigma := int(wire.GetU32(data[0:4]))
	n := int(wire.GetU32(data[4:8]))
	if 8+n > len(data) {
		return nil, wire.ErrCorrupt
	}
	t := &Table{sigma: sigma, decode: append([]byte(nil), data[8:8+n]...)}
	for code, b := range t.decode {
		t.encode[b] = uint16(code + 1)
	}
	return t, nil
}
