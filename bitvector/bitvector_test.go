package bitvector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankSelectAgainstNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, size := range []uint64{0, 1, 63, 64, 65, 511, 512, 513, 4096, 10007} {
		size := size
		t.Run("", func(t *testing.T) {
			b := NewBuilderSize(size)
			naive := make([]bool, size)
			for i := uint64(0); i < size; i++ {
				bit := rng.Float32() < 0.3
				b.SetBit(i, bit)
				naive[i] = bit
			}
			bv := Build(b, true)
			assert.Equal(t, size, bv.Size())

			var wantOnes uint64
			ranks := make([]uint64, size+1)
			for i := uint64(0); i < size; i++ {
				ranks[i] = wantOnes
				if naive[i] {
					wantOnes++
				}
			}
			ranks[size] = wantOnes
			assert.Equal(t, wantOnes, bv.NumOnes())

			for i := uint64(0); i < size; i++ {
				require.Equal(t, naive[i], bv.Access(i), "Access(%d)", i)
				require.Equal(t, ranks[i], bv.Rank(i), "Rank(%d)", i)
			}
			assert.Equal(t, ranks[size], bv.Rank(size))

			var k uint64
			for i := uint64(0); i < size; i++ {
				if naive[i] {
					require.Equal(t, i, bv.Select(k), "Select(%d)", k)
					k++
				}
			}
		})
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	b := NewBuilderSize(1000)
	rng := rand.New(rand.NewSource(2))
	for i := uint64(0); i < 1000; i++ {
		b.SetBit(i, rng.Float32() < 0.4)
	}
	bv := Build(b, true)

	data := bv.Encode()
	got, err := DecodeView(data)
	require.NoError(t, err)
	assert.Equal(t, bv.Size(), got.Size())
	assert.Equal(t, bv.NumOnes(), got.NumOnes())
	for i := uint64(0); i < bv.Size(); i++ {
		require.Equal(t, bv.Access(i), got.Access(i))
		require.Equal(t, bv.Rank(i), got.Rank(i))
	}
	for k := uint64(0); k < bv.NumOnes(); k++ {
		require.Equal(t, bv.Select(k), got.Select(k))
	}
}

func TestDecodeViewRejectsTruncated(t *testing.T) {
	_, err := DecodeView([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestEmptyBitVector(t *testing.T) {
	bv := Build(NewBuilder(), true)
	assert.Equal(t, uint64(0), bv.Size())
	assert.Equal(t, uint64(0), bv.NumOnes())
	assert.Equal(t, uint64(0), bv.Rank(0))
}
