// Package dict implements the trie façade of spec §4.7: it ties the bit
// vector, code table, tail store and compressed BC store together into
// lookup, decode, and the three iterator flavours, and serializes the
// whole assembly to the fixed image layout of spec §6.
package dict

import (
	"bytes"
	"io"

	"xcdat/bc"
	"xcdat/bitvector"
	"xcdat/codetable"
	"xcdat/dtrie"
	"xcdat/errutil"
	"xcdat/intvector"
	"xcdat/statreport"
	"xcdat/tail"
	"xcdat/wire"

	"github.com/dustin/go-humanize"
)

// Options configures Build.
type Options struct {
	// Strict runs the O(N*L) sorted/unique validation pass of spec §4.10
	// before construction begins. Defaults to true; set false only when
	// the caller has already guaranteed the precondition and wants to
	// skip the pass.
	Strict bool
}

// DefaultOptions returns the recommended Options (Strict validation on).
func DefaultOptions() Options {
	return Options{Strict: true}
}

// Dictionary is the built, read-only, freely-shareable compressed string
// dictionary. Its BC-store format is fixed at construction (or load) time
// and held as a bc.Store interface value for the dictionary's lifetime —
// chosen once here rather than re-dispatched per access, per spec §9's
// static-polymorphism note.
type Dictionary struct {
	store     bc.Store
	format    wire.FormatTag
	terminal  *bitvector.BitVector
	leaf      *bitvector.BitVector
	tailStore *tail.Store
	codeTable *codetable.Table
	parent    *intvector.Vector

	numKeys      uint64
	maxLength    uint64
	numNodes     uint64
	alphabetSize int
	binaryMode   bool
}

func validateSortedUnique(keys [][]byte) error {
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) >= 0 {
			return errutil.ErrInputNotSorted
		}
	}
	return nil
}

func detectBinary(keys [][]byte) bool {
	for _, k := range keys {
		for _, b := range k {
			if b == 0 {
				return true
			}
		}
	}
	return false
}

func buildTrie(keys [][]byte, opts Options) (*dtrie.Result, error) {
	if opts.Strict {
		if err := validateSortedUnique(keys); err != nil {
			return nil, err
		}
	}
	return dtrie.Build(keys, detectBinary(keys))
}

// buildParent constructs the node id -> parent id side table shared by
// decode and (for Format P) the store's own BaseAt delta-chasing — built
// once here rather than duplicated per format, per spec §9.
func buildParent(res *dtrie.Result) *intvector.Vector {
	parentB := intvector.NewBuilderCap(len(res.Raw.Parent))
	for _, p := range res.Raw.Parent {
		parentB.PushBack(p)
	}
	return parentB.Build(intvector.WidthFor(res.NumNodes))
}

func assemble(res *dtrie.Result, store bc.Store, tag wire.FormatTag, parent *intvector.Vector) *Dictionary {
	return &Dictionary{
		store:        store,
		format:       tag,
		terminal:     res.Terminal,
		leaf:         res.Raw.Leaf,
		tailStore:    res.Tail,
		codeTable:    res.CodeTable,
		parent:       parent,
		numKeys:      res.NumKeys,
		maxLength:    res.MaxLength,
		numNodes:     res.NumNodes,
		alphabetSize: res.CodeTable.Sigma(),
		binaryMode:   res.BinaryMode,
	}
}

// BuildPointer builds a Dictionary over sorted, distinct keys using BC
// Format P (pointer/XOR-delta).
func BuildPointer(keys [][]byte, opts Options) (*Dictionary, error) {
	res, err := buildTrie(keys, opts)
	if err != nil {
		return nil, err
	}
	parent := buildParent(res)
	return assemble(res, bc.BuildPointer(res.Raw, parent), wire.FormatPointer, parent), nil
}

// BuildBytes builds a Dictionary over sorted, distinct keys using BC
// Format B (bytes/DAC).
func BuildBytes(keys [][]byte, opts Options) (*Dictionary, error) {
	res, err := buildTrie(keys, opts)
	if err != nil {
		return nil, err
	}
	parent := buildParent(res)
	return assemble(res, bc.BuildBytes(res.Raw), wire.FormatBytes, parent), nil
}

// NumKeys returns the number of distinct keys stored.
func (d *Dictionary) NumKeys() uint64 { return d.numKeys }

// MaxLength returns the length, in bytes, of the longest stored key.
func (d *Dictionary) MaxLength() uint64 { return d.maxLength }

// AlphabetSize returns σ, the number of distinct byte values actually used.
func (d *Dictionary) AlphabetSize() int { return d.alphabetSize }

// BinaryMode reports whether the dictionary uses the marker-bit-vector
// tail variant (required when any key contains a zero byte).
func (d *Dictionary) BinaryMode() bool { return d.binaryMode }

// MemoryBytes returns the dictionary's total in-memory footprint.
func (d *Dictionary) MemoryBytes() uint64 {
	return d.store.MemoryBytes() + d.terminal.MemoryBytes() + d.leaf.MemoryBytes() +
		d.tailStore.MemoryBytes() + d.codeTable.MemoryBytes() + d.parent.MemoryBytes()
}

// MemoryBreakdown returns a per-component attribution of MemoryBytes, per
// spec §4.11.
func (d *Dictionary) MemoryBreakdown() statreport.Report {
	return statreport.WithChildren("dictionary",
		statreport.New("bc_store", d.store.MemoryBytes()),
		statreport.New("terminal_bits", d.terminal.MemoryBytes()),
		statreport.New("leaf_bits", d.leaf.MemoryBytes()),
		statreport.New("tail_store", d.tailStore.MemoryBytes()),
		statreport.New("code_table", d.codeTable.MemoryBytes()),
		statreport.New("parent", d.parent.MemoryBytes()),
	)
}

// String returns a one-line human-readable summary.
func (d *Dictionary) String() string {
	return "xcdat.Dictionary{keys=" + humanize.Comma(int64(d.numKeys)) +
		", bytes=" + humanize.Bytes(d.MemoryBytes()) + "}"
}

// Lookup implements spec §4.7's lookup(key) algorithm.
func (d *Dictionary) Lookup(key []byte) (uint64, bool) {
	v := uint64(0)
	for i := 0; i < len(key); i++ {
		if d.store.IsLeaf(v) {
			offset := d.store.BaseAt(v)
			cmp := d.tailStore.Compare(offset, key[i:])
			if cmp.Matched && cmp.ExhaustedInput && cmp.ReachedSuffixEnd {
				return d.terminal.Rank(v), true
			}
			return 0, false
		}
		code := d.codeTable.Encode(key[i])
		cand := d.store.BaseAt(v) ^ uint64(code)
		if !d.isRealChild(cand, code) {
			return 0, false
		}
		v = cand
	}
	if d.store.IsLeaf(v) {
		offset := d.store.BaseAt(v)
		if len(d.tailStore.Fetch(offset)) == 0 {
			return d.terminal.Rank(v), true
		}
		return 0, false
	}
	if d.terminal.Access(v) {
		return d.terminal.Rank(v), true
	}
	return 0, false
}

func (d *Dictionary) isRealChild(cand uint64, code uint16) bool {
	return cand < d.numNodes && d.store.IsUsed(cand) && d.store.CheckAt(cand) == uint64(code)
}

// Decode implements spec §4.7's decode(id) algorithm: select the terminal
// node, walk CHECK up to the root collecting edge labels via the
// construction-time parent side table, then append the tail suffix if the
// node is a leaf.
func (d *Dictionary) Decode(id uint64) []byte {
	v := d.terminal.Select(id)

	var suffix []byte
	if d.store.IsLeaf(v) {
		suffix = d.tailStore.Fetch(d.store.BaseAt(v))
	}

	var rev []byte
	for cur := v; cur != 0; {
		rev = append(rev, d.codeTable.Decode(uint16(d.store.CheckAt(cur))))
		cur = d.parent.Get(cur)
	}

	out := make([]byte, 0, len(rev)+len(suffix))
	for i := len(rev) - 1; i >= 0; i-- {
		out = append(out, rev[i])
	}
	out = append(out, suffix...)
	return out
}

// Serialize writes the dictionary's image to w per spec §6's fixed layout,
// and returns the number of bytes written.
func (d *Dictionary) Serialize(w io.Writer) (int64, error) {
	var total int64

	n, err := wire.WriteHeader(w, wire.Header{Tag: d.format, BinaryMode: d.binaryMode})
	total += n
	if err != nil {
		return total, err
	}

	scalars := make([]byte, 24)
	wire.PutU64(scalars[0:8], d.numKeys)
	wire.PutU64(scalars[8:16], d.maxLength)
	wire.PutU64(scalars[16:24], uint64(d.alphabetSize))
	sn, err := w.Write(scalars)
	total += int64(sn)
	if err != nil {
		return total, err
	}

	blocks := [][]byte{
		d.codeTable.Encode(),
		d.store.Encode(),
		d.terminal.Encode(),
		d.leaf.Encode(),
		d.parent.Encode(),
		d.tailStore.Bytes(),
	}
	if d.binaryMode {
		blocks = append(blocks, d.tailStore.Marker().Encode())
	}
	for _, blk := range blocks {
		bn, err := wire.WriteBlock(w, blk)
		total += bn
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// DeserializeOwned reads a full image from r into an owned buffer and
// decodes a Dictionary over it.
func DeserializeOwned(r io.Reader) (*Dictionary, error) {
	image, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return decodeImage(image)
}

// DeserializeBorrowed decodes a Dictionary whose arrays alias image
// directly (zero-copy); the caller must keep image alive for the
// dictionary's lifetime.
func DeserializeBorrowed(image []byte) (*Dictionary, error) {
	return decodeImage(image)
}

// decodeImage is the single decode path shared by DeserializeOwned and
// DeserializeBorrowed (spec P7/P8): both produce an image byte slice
// (copied or borrowed) and alias into it identically from here on.
func decodeImage(image []byte) (*Dictionary, error) {
	hdr, off, err := wire.ReadHeader(image)
	if err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	if off+24 > len(image) {
		return nil, errutil.ErrImageCorrupt
	}
	numKeys := wire.GetU64(image[off : off+8])
	maxLength := wire.GetU64(image[off+8 : off+16])
	alphabetSize := wire.GetU64(image[off+16 : off+24])
	off += 24

	var blk []byte
	next := func() error {
		blk, off, err = wire.ReadBlock(image, off)
		return err
	}

	if err := next(); err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	ct, err := codetable.Decode(blk)
	if err != nil {
		return nil, errutil.ErrImageCorrupt
	}

	if err := next(); err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	bcBlock := blk

	if err := next(); err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	terminal, err := bitvector.DecodeView(blk)
	if err != nil {
		return nil, errutil.ErrImageCorrupt
	}

	if err := next(); err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	leaf, err := bitvector.DecodeView(blk)
	if err != nil {
		return nil, errutil.ErrImageCorrupt
	}

	if err := next(); err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	parentVec, err := intvector.DecodeView(blk)
	if err != nil {
		return nil, errutil.ErrImageCorrupt
	}

	if err := next(); err != nil {
		return nil, errutil.ErrImageCorrupt
	}
	tailBytes := blk

	var marker *bitvector.BitVector
	if hdr.BinaryMode {
		if err := next(); err != nil {
			return nil, errutil.ErrImageCorrupt
		}
		marker, err = bitvector.DecodeView(blk)
		if err != nil {
			return nil, errutil.ErrImageCorrupt
		}
	}
	tailStore := tail.FromParts(hdr.BinaryMode, tailBytes, marker)

	var store bc.Store
	switch hdr.Tag {
	case wire.FormatPointer:
		store, err = bc.DecodePointer(bcBlock, leaf, parentVec)
	case wire.FormatBytes:
		store, err = bc.DecodeBytes(bcBlock, leaf)
	default:
		return nil, errutil.ErrImageCorrupt
	}
	if err != nil {
		return nil, errutil.ErrImageCorrupt
	}

	numNodes := leaf.NumBits()

	return &Dictionary{
		store:        store,
		format:       hdr.Tag,
		terminal:     terminal,
		leaf:         leaf,
		tailStore:    tailStore,
		codeTable:    ct,
		parent:       parentVec,
		numKeys:      numKeys,
		maxLength:    maxLength,
		numNodes:     numNodes,
		alphabetSize: int(alphabetSize),
		binaryMode:   hdr.BinaryMode,
	}, nil
}
