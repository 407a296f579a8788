package dtrie

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func byteKeys(ss ...string) [][]byte {
	out := make([][]byte, len(ss))
	for i, s := range ss {
		out[i] = []byte(s)
	}
	return out
}

func TestBuildBasicInvariants(t *testing.T) {
	keys := byteKeys("an", "ant", "ants", "bee", "bees")
	res, err := Build(keys, false)
	require.NoError(t, err)

	assert.Equal(t, uint64(len(keys)), res.NumKeys)
	assert.Equal(t, uint64(len("bees")), res.MaxLength)
	// Every key must have exactly one terminal-rank carrier (I3): total set
	// bits in terminal equals the number of keys.
	assert.Equal(t, uint64(len(keys)), res.Terminal.NumOnes())
}

func TestLeafRedirectNodeIsAlsoTerminal(t *testing.T) {
	// A single key sharing no branch point with any other key redirects to
	// the tail store (minimal-prefix policy) and must also be terminal,
	// since no other node carries its terminal rank.
	keys := byteKeys("unique")
	res, err := Build(keys, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Terminal.NumOnes())
	assert.Equal(t, uint64(1), res.Raw.Leaf.NumOnes())
}

func TestEmptyKeySet(t *testing.T) {
	res, err := Build(nil, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.NumKeys)
	assert.GreaterOrEqual(t, res.NumNodes, uint64(1)) // root slot always allocated
}

func TestEmptyStringKeyIsTerminalAtRoot(t *testing.T) {
	keys := byteKeys("", "a", "ab")
	res, err := Build(keys, false)
	require.NoError(t, err)
	assert.True(t, res.Terminal.Access(0))
}

func TestBinaryModeHandlesZeroBytes(t *testing.T) {
	keys := [][]byte{{'a', 0, 'b'}, {'a', 0, 'c'}}
	res, err := Build(keys, true)
	require.NoError(t, err)
	assert.True(t, res.BinaryMode)
	assert.True(t, res.Tail.IsBinary())
}
