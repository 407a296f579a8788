// Package tail implements the out-of-band suffix store of spec §4.3: a
// byte blob holding the tails of minimal-prefix-trie leaves, plus a
// mechanism to find suffix boundaries — either a one-byte sentinel
// terminator (non-binary mode) or a parallel marker bit vector (binary
// mode, needed when keys may themselves contain zero bytes).
package tail

import (
	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/zeebo/xxh3"

	"xcdat/bitvector"
)

// Builder accumulates suffixes during construction, sharing storage when a
// new suffix is found to be the trailing bytes of one already written
// (spec §4.3's "common-suffix sharing" optimisation; the exact heuristic is
// unspecified, so any policy including none is correct — this one is
// grounded on the teacher's general preference for hash-bucketed indices
// plus an exact-match radix structure rather than a full suffix
// automaton).
type Builder struct {
	binary bool
	blob   []byte
	marker *bitvector.Builder // only used when binary

	// hashIndex buckets candidate offsets by a hash of the suffix's
	// trailing bytes (spec §4.3: "behind a hash of the first few bytes").
	hashIndex map[uint64][]offsetLen
	// written indexes every suffix written so far, keyed by its bytes
	// reversed, so that WalkPrefix on a reversed candidate finds any
	// already-written suffix that ends with the candidate.
	written *iradix.Tree
}

type offsetLen struct {
	offset uint64
	length uint32
}

// NewBuilder returns an empty Builder. binary selects the marker-bit-vector
// variant (required whenever any key may contain a zero byte).
func NewBuilder(binary bool) *Builder {
	b := &Builder{
		binary:    binary,
		hashIndex: make(map[uint64][]offsetLen),
		written:   iradix.New(),
	}
	if binary {
		b.marker = bitvector.NewBuilder()
	}
	return b
}

func reverseBytes(s []byte) []byte {
	r := make([]byte, len(s))
	for i, b := range s {
		r[len(s)-1-i] = b
	}
	return r
}

// suffixHashKey hashes the trailing min(len(s), 8) bytes of s, per spec
// §4.3's "hash of the first few bytes" — here the bytes nearest the shared
// end, since sharing requires exact suffix equality.
func suffixHashKey(s []byte) uint64 {
	k := len(s)
	if k > 8 {
		k = 8
	}
	return xxh3.Hash(s[len(s)-k:])
}

// findShared looks for an already-written suffix that ends with s, and
// returns the offset at which s's bytes begin within that suffix's run.
// ok is false if no sharing candidate was found.
func (b *Builder) findShared(s []byte) (offset uint64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}
	h := suffixHashKey(s)
	for _, cand := range b.hashIndex[h] {
		if cand.length < uint32(len(s)) {
			continue
		}
		start := cand.offset + uint64(cand.length) - uint64(len(s))
		if string(b.blob[start:start+uint64(len(s))]) == string(s) {
			return start, true
		}
	}

	// Fall back to the exact radix index: any previously written suffix
	// whose reversed form has reverse(s) as a prefix ends with s.
	found := false
	var foundOffset uint64
	var foundLen uint32
	b.written.Root().WalkPrefix(reverseBytes(s), func(k []byte, v interface{}) bool {
		ol := v.(offsetLen)
		found = true
		foundOffset = ol.offset + uint64(ol.length) - uint64(len(s))
		foundLen = ol.length
		return true // stop after first match
	})
	_ = foundLen
	if found {
		return foundOffset, true
	}
	return 0, false
}

// Append writes suffix s (possibly sharing storage with an earlier
// suffix) and returns the byte offset at which it begins.
func (b *Builder) Append(s []byte) uint64 {
	if b.binary && len(s) == 0 {
		// An empty suffix occupies no bytes and no marker bit; an offset
		// past any blob end makes Fetch report it as empty.
		return ^uint64(0)
	}
	if off, ok := b.findShared(s); ok {
		return off
	}

	off := uint64(len(b.blob))
	b.blob = append(b.blob, s...)
	if !b.binary {
		b.blob = append(b.blob, 0) // sentinel terminator
	} else {
		for i := 0; i < len(s)-1; i++ {
			b.marker.PushBack(false)
		}
		if len(s) > 0 {
			b.marker.PushBack(true)
		}
	}

	ol := offsetLen{offset: off, length: uint32(len(s))}
	h := suffixHashKey(s)
	b.hashIndex[h] = append(b.hashIndex[h], ol)
	b.written, _, _ = b.written.Insert(reverseBytes(s), ol)
	return off
}

// Store is the frozen, queryable tail blob.
type Store struct {
	binary bool
	blob   []byte
	marker *bitvector.BitVector // nil unless binary
}

// Build freezes a Builder into a Store.
func (b *Builder) Build() *Store {
	s := &Store{binary: b.binary, blob: b.blob}
	if b.binary {
		s.marker = bitvector.Build(b.marker, true)
	}
	return s
}

// Fetch returns the suffix bytes starting at offset.
func (s *Store) Fetch(offset uint64) []byte {
	if !s.binary {
		end := offset
		for end < uint64(len(s.blob)) && s.blob[end] != 0 {
			end++
		}
		return s.blob[offset:end]
	}
	if offset >= uint64(len(s.blob)) {
		return []byte{} // empty suffix: nothing was written for it
	}
	// Binary mode: the suffix runs until (and including) the next set
	// marker bit, found via rank/select: the marker's rank at offset gives
	// the index of the previous boundary; select(rank) gives the position
	// of the next one, inclusive.
	r := s.marker.Rank(offset)
	end := s.marker.Select(r) + 1
	return s.blob[offset:end]
}

// CompareResult reports the outcome of matching a query remainder against
// a stored suffix, per spec §4.3.
type CompareResult struct {
	Matched          bool // the common prefix of input and suffix matched fully
	ExhaustedInput   bool // the input remainder was fully consumed
	ReachedSuffixEnd bool // the stored suffix was fully consumed
}

// Compare matches remainder against the suffix stored at offset.
func (s *Store) Compare(offset uint64, remainder []byte) CompareResult {
	suffix := s.Fetch(offset)
	n := len(remainder)
	if len(suffix) < n {
		n = len(suffix)
	}
	for i := 0; i < n; i++ {
		if remainder[i] != suffix[i] {
			return CompareResult{Matched: false}
		}
	}
	return CompareResult{
		Matched:          true,
		ExhaustedInput:   n == len(remainder),
		ReachedSuffixEnd: n == len(suffix),
	}
}

// IsBinary reports whether this store uses the marker-bit-vector variant.
func (s *Store) IsBinary() bool { return s.binary }

// Bytes returns the raw tail blob (including sentinel bytes in non-binary
// mode), for serialization.
func (s *Store) Bytes() []byte { return s.blob }

// Marker returns the marker bit vector, or nil in non-binary mode.
func (s *Store) Marker() *bitvector.BitVector { return s.marker }

// FromParts reconstructs a Store from its serialized components (used by
// Deserialize).
func FromParts(binary bool, blob []byte, marker *bitvector.BitVector) *Store {
	return &Store{binary: binary, blob: blob, marker: marker}
}

// MemoryBytes returns the approximate footprint in bytes.
func (s *Store) MemoryBytes() uint64 {
	n := uint64(len(s.blob))
	if s.marker != nil {
		n += s.marker.MemoryBytes()
	}
	return n
}
