package bitvector

import (
	"encoding/base64"
	"math/rand"
	"testing"

	bits "github.com/siongui/go-succinct-data-structure-trie/reference"
)

// TestRankAgainstSuccinctBitString cross-checks Rank at byte boundaries
// against github.com/siongui/go-succinct-data-structure-trie's reference
// BitString, the structure succinct_bit_vector/succinct_trie_test.go
// exercises in the teacher. The two implementations pack bits within a byte
// in different orders, so only byte-aligned rank queries (where the answer
// is just the sum of whole-byte popcounts, independent of intra-byte
// ordering) are comparable across them.
func TestRankAgainstSuccinctBitString(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	raw := make([]byte, 257)
	rng.Read(raw)

	bs := &bits.BitString{}
	bs.Init(base64.URLEncoding.EncodeToString(raw))

	b := NewBuilderSize(uint64(len(raw)) * 8)
	for i := range raw {
		for j := 0; j < 8; j++ {
			bit := (raw[i]>>uint(j))&1 != 0
			b.SetBit(uint64(i*8+j), bit)
		}
	}
	bv := Build(b, true)

	for numBytes := 0; numBytes <= len(raw); numBytes += 7 {
		pos := uint(numBytes * 8)
		want := bs.Count(0, pos)
		got := bv.Rank(uint64(pos))
		if uint64(want) != got {
			t.Fatalf("byte boundary %d: Rank got %d want %d", numBytes, got, want)
		}
	}
}
