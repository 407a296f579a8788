package codetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFromKeysBijection(t *testing.T) {
	keys := [][]byte{[]byte("banana"), []byte("band"), []byte("can"), []byte("cane")}
	table := BuildFromKeys(keys)

	// Every one of the 256 possible byte values must have a real, non-zero
	// code, and decoding that code must return the original byte (I6).
	seen := make(map[uint16]bool)
	for b := 0; b < 256; b++ {
		code := table.Encode(byte(b))
		require.NotZero(t, code, "byte %d got sentinel code 0", b)
		require.False(t, seen[code], "code %d reused", code)
		seen[code] = true
		require.Equal(t, byte(b), table.Decode(code))
	}
}

func TestSigmaCountsOnlyObservedBytes(t *testing.T) {
	keys := [][]byte{[]byte("aab"), []byte("abb")}
	table := BuildFromKeys(keys)
	// observed bytes: 'a', 'b' -> sigma == 2
	assert.Equal(t, 2, table.Sigma())
}

func TestFrequencyOrdering(t *testing.T) {
	// 'a' appears far more often than 'z'; a should get a lower (more
	// compact) code than z so XOR deltas built on it stay small.
	var keys [][]byte
	for i := 0; i < 100; i++ {
		keys = append(keys, []byte{'a'})
	}
	keys = append(keys, []byte{'z'})
	table := BuildFromKeys(keys)
	assert.Less(t, table.Encode('a'), table.Encode('z'))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	keys := [][]byte{[]byte("hello"), []byte("help"), []byte("world")}
	table := BuildFromKeys(keys)

	got, err := Decode(table.Encode())
	require.NoError(t, err)
	assert.Equal(t, table.Sigma(), got.Sigma())
	for b := 0; b < 256; b++ {
		require.Equal(t, table.Encode(byte(b)), got.Encode(byte(b)))
	}
}

func TestDecodeRejectsTruncated(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestWidthBits(t *testing.T) {
	var keys [][]byte
	for b := 0; b < 10; b++ {
		keys = append(keys, []byte{byte(b)})
	}
	table := BuildFromKeys(keys)
	// sigma=10, codes 0..10 need ceil(log2(11)) = 4 bits
	assert.Equal(t, uint8(4), table.WidthBits())
}
