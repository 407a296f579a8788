package bitvector

import (
	"math/rand"
	"testing"

	"github.com/hillbig/rsdic"
)

// Cross-checks BitVector against github.com/hillbig/rsdic, the same
// reference structure succinct_bit_vector/benchmark_test.go benchmarks
// against, to catch rank/select disagreements a unit test over synthetic
// data might miss.
func TestAgainstRSDic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const size = 50000

	b := NewBuilderSize(size)
	rs := rsdic.New()
	for i := uint64(0); i < size; i++ {
		bit := rng.Float32() < 0.35
		b.SetBit(i, bit)
		rs.PushBack(bit)
	}
	bv := Build(b, true)

	if bv.NumOnes() != rs.Rank(size, true) {
		t.Fatalf("NumOnes mismatch: got %d want %d", bv.NumOnes(), rs.Rank(size, true))
	}
	for i := uint64(0); i < size; i += 37 {
		if bv.Access(i) != rs.Bit(i) {
			t.Fatalf("Access(%d) mismatch", i)
		}
		if bv.Rank(i) != rs.Rank(i, true) {
			t.Fatalf("Rank(%d) mismatch: got %d want %d", i, bv.Rank(i), rs.Rank(i, true))
		}
	}
	total := bv.NumOnes()
	for k := uint64(0); k < total; k += 13 {
		if bv.Select(k) != rs.Select(k, true) {
			t.Fatalf("Select(%d) mismatch: got %d want %d", k, bv.Select(k), rs.Select(k, true))
		}
	}
}

func BenchmarkBitVector_Rank(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	const size = 100000
	bb := NewBuilderSize(size)
	for i := uint64(0); i < size; i++ {
		bb.SetBit(i, rng.Float32() < 0.3)
	}
	bv := Build(bb, true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bv.Rank(uint64(i % size))
	}
}

func BenchmarkBitVector_Select(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	const size = 100000
	bb := NewBuilderSize(size)
	for i := uint64(0); i < size; i++ {
		bb.SetBit(i, rng.Float32() < 0.3)
	}
	bv := Build(bb, true)
	total := bv.NumOnes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if total > 0 {
			bv.Select(uint64(i) % total)
		}
	}
}
