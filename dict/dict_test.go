package dict

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	iradix "github.com/hashicorp/go-immutable-radix"
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

var sampleKeys = byteKeys(
	"an", "ant", "antler", "ants", "bee", "bees", "beetle", "cat", "cats",
	"dog", "doge", "dogs", "zebra", "zebras",
)

func buildBoth(t *testing.T, keys [][]byte) (*Dictionary, *Dictionary) {
	t.Helper()
	p, err := BuildPointer(keys, DefaultOptions())
	require.NoError(t, err)
	b, err := BuildBytes(keys, DefaultOptions())
	require.NoError(t, err)
	return p, b
}

// S1: every built key looks up to a distinct id and decodes back to itself.
func TestLookupDecodeRoundTrip(t *testing.T) {
	p, b := buildBoth(t, sampleKeys)
	for _, d := range []*Dictionary{p, b} {
		seen := make(map[uint64]bool)
		for _, k := range sampleKeys {
			id, ok := d.Lookup(k)
			require.True(t, ok, "lookup %q", k)
			require.False(t, seen[id], "duplicate id %d for %q", id, k)
			seen[id] = true
			require.Equal(t, k, d.Decode(id), "decode(%d)", id)
		}
		assert.Equal(t, uint64(len(sampleKeys)), d.NumKeys())
	}
}

// S2: keys never inserted must not be found.
func TestLookupAbsentKeys(t *testing.T) {
	p, b := buildBoth(t, sampleKeys)
	absent := byteKeys("ann", "a", "beeswax", "z", "zeb", "catsup", "doggo", "")
	for _, d := range []*Dictionary{p, b} {
		for _, k := range absent {
			_, ok := d.Lookup(k)
			assert.False(t, ok, "unexpected hit for %q", k)
		}
	}
}

// S3: both BC formats must agree on every lookup and decode.
func TestFormatsAgree(t *testing.T) {
	p, b := buildBoth(t, sampleKeys)
	for _, k := range sampleKeys {
		pid, pok := p.Lookup(k)
		bid, bok := b.Lookup(k)
		require.Equal(t, pok, bok, "key %q", k)
		require.True(t, pok)
		require.Equal(t, k, p.Decode(pid))
		require.Equal(t, k, b.Decode(bid))
	}
}

// S4: serialize then deserialize (owned and borrowed) preserves behaviour.
func TestSerializeDeserializeRoundTrip(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)

	var buf bytes.Buffer
	n, err := p.Serialize(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	owned, err := DeserializeOwned(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	borrowed, err := DeserializeBorrowed(buf.Bytes())
	require.NoError(t, err)

	for _, d := range []*Dictionary{owned, borrowed} {
		assert.Equal(t, p.NumKeys(), d.NumKeys())
		assert.Equal(t, p.MaxLength(), d.MaxLength())
		for _, k := range sampleKeys {
			id, ok := d.Lookup(k)
			require.True(t, ok, "lookup %q after round trip", k)
			require.Equal(t, k, d.Decode(id))
		}
	}
}

// S5: an image with a corrupted header is rejected, not silently accepted.
func TestDeserializeRejectsCorruptImage(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	var buf bytes.Buffer
	_, err := p.Serialize(&buf)
	require.NoError(t, err)

	corrupt := append([]byte(nil), buf.Bytes()...)
	corrupt[0] ^= 0xFF
	_, err = DeserializeOwned(bytes.NewReader(corrupt))
	assert.Error(t, err)

	_, err = DeserializeOwned(bytes.NewReader(buf.Bytes()[:4]))
	assert.Error(t, err)
}

// S6: strict validation rejects unsorted or duplicate input.
func TestStrictValidation(t *testing.T) {
	_, err := BuildPointer(byteKeys("b", "a"), DefaultOptions())
	assert.Error(t, err)

	_, err = BuildPointer(byteKeys("a", "a"), DefaultOptions())
	assert.Error(t, err)

	_, err = BuildPointer(byteKeys("a", "b"), Options{Strict: false})
	assert.NoError(t, err)
}

// S7: binary-mode keys containing zero bytes round-trip correctly.
func TestBinaryModeKeys(t *testing.T) {
	keys := [][]byte{{0, 1}, {0, 1, 0}, {1}, {1, 2}}
	d, err := BuildPointer(keys, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, d.BinaryMode())

	for _, k := range keys {
		id, ok := d.Lookup(k)
		require.True(t, ok, "lookup %v", k)
		require.Equal(t, k, d.Decode(id))
	}

	var buf bytes.Buffer
	_, err = d.Serialize(&buf)
	require.NoError(t, err)
	got, err := DeserializeOwned(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	for _, k := range keys {
		id, ok := got.Lookup(k)
		require.True(t, ok)
		require.Equal(t, k, got.Decode(id))
	}
}

// P1: PrefixIterator yields exactly the stored keys that are prefixes of
// the query, shortest first.
func TestPrefixIterator(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	it := p.PrefixIterator([]byte("antlers"))
	var got [][]byte
	for it.Next() {
		got = append(got, p.Decode(it.Hit().ID))
	}
	assert.Equal(t, byteKeys("an", "ant", "antler"), got)
}

func TestPrefixIteratorNoMatches(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	it := p.PrefixIterator([]byte("xyz"))
	assert.False(t, it.Next())
}

func TestPrefixIteratorExactKey(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	it := p.PrefixIterator([]byte("ants"))
	var got [][]byte
	for it.Next() {
		got = append(got, p.Decode(it.Hit().ID))
	}
	assert.Equal(t, byteKeys("an", "ant", "ants"), got)
}

// P4/P5: PredictiveIterator/EnumerativeIterator enumerate in lexicographic
// order by original byte value, cross-checked against an independent radix
// tree built over the same keys.
func radixSortedKeys(keys [][]byte) [][]byte {
	tree := iradix.New()
	for _, k := range keys {
		tree, _, _ = tree.Insert(k, struct{}{})
	}
	var out [][]byte
	tree.Root().Walk(func(k []byte, v interface{}) bool {
		out = append(out, append([]byte(nil), k...))
		return false
	})
	return out
}

func TestEnumerativeIteratorMatchesRadixOrder(t *testing.T) {
	p, b := buildBoth(t, sampleKeys)
	want := radixSortedKeys(sampleKeys)
	for _, d := range []*Dictionary{p, b} {
		it := d.EnumerativeIterator()
		var got [][]byte
		for it.Next() {
			got = append(got, append([]byte(nil), it.Key()...))
		}
		assert.Equal(t, want, got)
	}
}

func TestPredictiveIteratorMatchesPrefixSubset(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)

	var want [][]byte
	for _, k := range radixSortedKeys(sampleKeys) {
		if bytes.HasPrefix(k, []byte("do")) {
			want = append(want, k)
		}
	}

	it := p.PredictiveIterator([]byte("do"))
	var got [][]byte
	for it.Next() {
		got = append(got, append([]byte(nil), it.Key()...))
	}
	assert.Equal(t, want, got)
}

func TestPredictiveIteratorNoMatches(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	it := p.PredictiveIterator([]byte("xyz"))
	assert.False(t, it.Next())
}

func TestPredictiveIteratorIntoLeafSuffix(t *testing.T) {
	// "antler" is the only key starting with "antl"; the walk must land
	// inside the leaf holding its tail suffix and still yield exactly one
	// result.
	p, _ := buildBoth(t, sampleKeys)
	it := p.PredictiveIterator([]byte("antl"))
	require.True(t, it.Next())
	assert.Equal(t, []byte("antler"), it.Key())
	assert.False(t, it.Next())
}

// P8: random subsets of a larger key set still satisfy lookup/decode/
// enumeration invariants — a property-style fuzz rather than a fixed table.
func TestRandomKeySets(t *testing.T) {
	rng := rand.New(rand.NewSource(123))
	alphabet := "abcdefghij"
	for trial := 0; trial < 20; trial++ {
		n := 5 + rng.Intn(60)
		seen := make(map[string]bool)
		var keys [][]byte
		for len(keys) < n {
			l := 1 + rng.Intn(8)
			buf := make([]byte, l)
			for i := range buf {
				buf[i] = alphabet[rng.Intn(len(alphabet))]
			}
			s := string(buf)
			if seen[s] {
				continue
			}
			seen[s] = true
			keys = append(keys, buf)
		}
		sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i], keys[j]) < 0 })

		d, err := BuildPointer(keys, DefaultOptions())
		require.NoError(t, err)

		ids := make(map[uint64]bool)
		for _, k := range keys {
			id, ok := d.Lookup(k)
			require.True(t, ok, "trial %d: lookup %q", trial, k)
			require.False(t, ids[id])
			ids[id] = true
			require.Equal(t, k, d.Decode(id))
		}

		it := d.EnumerativeIterator()
		var got [][]byte
		for it.Next() {
			got = append(got, append([]byte(nil), it.Key()...))
		}
		require.Equal(t, keys, got, "trial %d enumeration order", trial)
	}
}

func TestMemoryBreakdownSumsToTotal(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	report := p.MemoryBreakdown()
	var sum uint64
	for _, c := range report.Children {
		sum += c.TotalBytes
	}
	assert.Equal(t, p.MemoryBytes(), sum)
	assert.Equal(t, p.MemoryBytes(), report.TotalBytes)
}

func TestStringAndAccessors(t *testing.T) {
	p, _ := buildBoth(t, sampleKeys)
	assert.Contains(t, p.String(), "xcdat.Dictionary")
	assert.Greater(t, p.AlphabetSize(), 0)
	assert.Equal(t, uint64(len("beetle")), p.MaxLength())
	assert.False(t, p.BinaryMode())
}

func TestEmptyDictionary(t *testing.T) {
	d, err := BuildPointer(nil, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), d.NumKeys())
	_, ok := d.Lookup([]byte("anything"))
	assert.False(t, ok)
	it := d.EnumerativeIterator()
	assert.False(t, it.Next())
}

func TestSingleEmptyKey(t *testing.T) {
	d, err := BuildPointer(byteKeys(""), DefaultOptions())
	require.NoError(t, err)
	id, ok := d.Lookup([]byte(""))
	require.True(t, ok)
	assert.Equal(t, []byte(""), d.Decode(id))
}
