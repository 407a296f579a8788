// Package dtrie implements the sorted-keys double-array construction of
// spec §4.5: a classic free-slot-list build that places each node's
// children in a shared BASE/CHECK array by XOR-searching for an offset
// that leaves every child slot free, redirecting single-key subtries to a
// tail store (the minimal-prefix discipline), and producing the raw
// (BASE, CHECK, used, parent) arrays plus the terminator and leaf bit
// vectors the rest of the dictionary compresses and queries.
package dtrie

import (
	"xcdat/bc"
	"xcdat/bitvector"
	"xcdat/codetable"
	"xcdat/errutil"
	"xcdat/tail"

	"slices"
)

// maxNodeID bounds the double array's id space; exceeding it is the
// InputTooLarge condition of spec §7/§4.8.
const maxNodeID = 1 << 40

const chunkSize = 256
const noFree = -1

// builder holds the raw, mutable arrays during construction. Frozen into
// bc.RawArrays plus bit vectors once the recursive build completes.
type builder struct {
	base, check, parent []uint64
	used                []bool
	isLeaf              []bool
	isTerminal          []bool

	freeNext, freePrev []int64
	freeHead, freeTail int64
	usedBase           map[uint64]bool // BASE values already given to a node

	codeTable *codetable.Table
	tailB     *tail.Builder
}

func newBuilder(ct *codetable.Table, binaryMode bool) *builder {
	b := &builder{freeHead: noFree, freeTail: noFree, usedBase: make(map[uint64]bool), codeTable: ct, tailB: tail.NewBuilder(binaryMode)}
	if err := b.ensureCapacity(1); err != nil {
		errutil.FatalIf(err) // capacity 1 can never exceed maxNodeID
	}
	b.used[0] = true
	b.removeFree(0)
	return b
}

func (b *builder) ensureCapacity(n uint64) error {
	old := uint64(len(b.used))
	if n <= old {
		return nil
	}
	newCap := old
	for newCap < n {
		newCap += chunkSize
	}
	if newCap > maxNodeID {
		return errutil.ErrInputTooLarge
	}
	grow := newCap - old
	b.base = append(b.base, make([]uint64, grow)...)
	b.check = append(b.check, make([]uint64, grow)...)
	b.parent = append(b.parent, make([]uint64, grow)...)
	b.used = append(b.used, make([]bool, grow)...)
	b.isLeaf = append(b.isLeaf, make([]bool, grow)...)
	b.isTerminal = append(b.isTerminal, make([]bool, grow)...)
	b.freeNext = append(b.freeNext, make([]int64, grow)...)
	b.freePrev = append(b.freePrev, make([]int64, grow)...)
	for i := old; i < newCap; i++ {
		b.pushFreeTail(i)
	}
	return nil
}

func (b *builder) pushFreeTail(i uint64) {
	b.freeNext[i] = noFree
	b.freePrev[i] = b.freeTail
	if b.freeTail != noFree {
		b.freeNext[b.freeTail] = int64(i)
	} else {
		b.freeHead = int64(i)
	}
	b.freeTail = int64(i)
}

func (b *builder) removeFree(i uint64) {
	p, n := b.freePrev[i], b.freeNext[i]
	if p != noFree {
		b.freeNext[p] = n
	} else {
		b.freeHead = n
	}
	if n != noFree {
		b.freePrev[n] = p
	} else {
		b.freeTail = p
	}
}

// findBase searches the free-slot list for an offset x such that x XOR
// code is free for every code in labels (ascending). Per spec §4.5 step 3,
// the search starts from the first free slot whose index exceeds the
// smallest child label and accepts the first viable x, which is what
// keeps the resulting BASE values — and hence the XOR deltas Format P
// exploits — small.
func (b *builder) findBase(labels []uint64) (uint64, error) {
	for {
		for f := b.freeHead; f != noFree; f = b.freeNext[f] {
			if uint64(f) < labels[0] {
				continue
			}
			x := uint64(f) ^ labels[0]
			if b.usedBase[x] {
				continue // CHECK holds only the label, so BASE values must be unique
			}
			ok := true
			for _, c := range labels {
				cand := x ^ c
				if err := b.ensureCapacity(cand + 1); err != nil {
					return 0, err
				}
				if b.used[cand] {
					ok = false
					break
				}
			}
			if ok {
				b.usedBase[x] = true
				return x, nil
			}
		}
		if err := b.ensureCapacity(uint64(len(b.used)) + chunkSize); err != nil {
			return 0, err
		}
	}
}

type group struct {
	label  byte
	lo, hi int
}

// partitionByByte groups keys[lo:hi] — all of which have length > depth —
// into contiguous runs sharing the same byte at position depth. Sorted
// input guarantees the byte at a fixed column is non-decreasing across the
// range, so one linear scan suffices (spec §4.5 step 1).
func partitionByByte(keys [][]byte, lo, hi, depth int) []group {
	var groups []group
	i := lo
	for i < hi {
		label := keys[i][depth]
		j := i + 1
		for j < hi && keys[j][depth] == label {
			j++
		}
		groups = append(groups, group{label: label, lo: i, hi: j})
		i = j
	}
	return groups
}

type buildCtx struct {
	keys [][]byte
	b    *builder
	err  error
}

func (c *buildCtx) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// buildNode implements spec §4.5's per-node build step.
func (c *buildCtx) buildNode(v uint64, lo, hi, depth int) {
	if c.err != nil {
		return
	}
	if lo >= hi {
		return
	}
	if hi-lo == 1 {
		// Minimal-prefix policy: a single remaining key redirects to the
		// tail store instead of continuing to branch (spec §4.5 step 2);
		// the suffix is empty when the key ends exactly here.
		// The redirected key has no other node to carry its terminal rank,
		// so the leaf itself is marked terminal (I3: exactly one terminal
		// node per input key).
		suffix := c.keys[lo][depth:]
		off := c.b.tailB.Append(suffix)
		c.b.isLeaf[v] = true
		c.b.isTerminal[v] = true
		c.b.base[v] = off
		return
	}
	if len(c.keys[lo]) == depth {
		c.b.isTerminal[v] = true
		lo++
	}

	groups := partitionByByte(c.keys, lo, hi, depth)
	labels := make([]uint64, len(groups))
	for i, g := range groups {
		labels[i] = uint64(c.b.codeTable.Encode(g.label))
	}
	// Sort groups by code value ascending: codes are frequency-ordered,
	// not byte-ordered, so the byte-sorted groups need re-sorting before
	// findBase (which assumes labels[0] is the smallest).
	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if labels[a] < labels[b] {
			return -1
		}
		if labels[a] > labels[b] {
			return 1
		}
		return 0
	})
	sortedGroups := make([]group, len(groups))
	sortedLabels := make([]uint64, len(groups))
	for i, o := range order {
		sortedGroups[i] = groups[o]
		sortedLabels[i] = labels[o]
	}

	x, err := c.b.findBase(sortedLabels)
	if err != nil {
		c.fail(err)
		return
	}
	c.b.base[v] = x
	childIDs := make([]uint64, len(sortedGroups))
	for i, code := range sortedLabels {
		cid := x ^ code
		c.b.removeFree(cid)
		c.b.used[cid] = true
		c.b.check[cid] = code
		c.b.parent[cid] = v
		childIDs[i] = cid
	}
	for i, g := range sortedGroups {
		c.buildNode(childIDs[i], g.lo, g.hi, depth+1)
	}
}

// Result is the frozen output of Build: everything the BC-store compressor
// and the trie façade need.
type Result struct {
	Raw        bc.RawArrays
	Terminal   *bitvector.BitVector
	Tail       *tail.Store
	CodeTable  *codetable.Table
	NumNodes   uint64
	NumKeys    uint64
	MaxLength  uint64
	BinaryMode bool
}

// Build runs the full double-array construction over sorted, distinct
// keys. binaryMode selects the tail store's marker-bit-vector variant,
// required whenever a key contains a zero byte.
func Build(keys [][]byte, binaryMode bool) (*Result, error) {
	ct := codetable.BuildFromKeys(keys)
	b := newBuilder(ct, binaryMode)

	ctx := &buildCtx{keys: keys, b: b}
	if len(keys) > 0 {
		ctx.buildNode(0, 0, len(keys), 0)
	}
	if ctx.err != nil {
		return nil, ctx.err
	}

	leafB := bitvector.NewBuilderSize(uint64(len(b.used)))
	terminalB := bitvector.NewBuilderSize(uint64(len(b.used)))
	for i := 0; i < len(b.used); i++ {
		leafB.SetBit(uint64(i), b.isLeaf[i])
		terminalB.SetBit(uint64(i), b.isTerminal[i])
	}
	leafBV := bitvector.Build(leafB, true)
	terminalBV := bitvector.Build(terminalB, true)

	raw := bc.RawArrays{
		Base:   b.base,
		Check:  b.check,
		Used:   b.used,
		Parent: b.parent,
		Leaf:   leafBV,
	}

	var maxLen int
	for _, k := range keys {
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}

	return &Result{
		Raw:        raw,
		Terminal:   terminalBV,
		Tail:       b.tailB.Build(),
		CodeTable:  ct,
		NumNodes:   uint64(len(b.used)),
		NumKeys:    uint64(len(keys)),
		MaxLength:  uint64(maxLen),
		BinaryMode: binaryMode,
	}, nil
}
