package dict

// Iterators follow the Fresh -> Active -> Exhausted state machine of spec
// §4.7: Next() returns true while there is a current item, false the first
// time (and every time after) the walk runs dry. Grounded on the teacher's
// trie/zft.Iterator and SortedIterator: a small owned traversal stack plus
// a "finished" flag, no hidden goroutine.

// PrefixHit is one match yielded by a PrefixIterator.
type PrefixHit struct {
	ID       uint64
	Consumed int
}

// PrefixIterator walks a dictionary along a query key and yields every
// stored key that is a prefix of it, in order of increasing length
// (spec §4.7 prefix_iterator). The full walk is bounded by len(key), so it
// is resolved eagerly at construction; Next() just steps through the
// result — behaviourally identical to a lazy one-step-at-a-time walk since
// nothing else can invalidate a built dictionary's state.
type PrefixIterator struct {
	hits []PrefixHit
	pos  int
}

// PrefixIterator constructs the iterator for prefix_iterator(key).
func (d *Dictionary) PrefixIterator(key []byte) *PrefixIterator {
	it := &PrefixIterator{pos: -1}

	v := uint64(0)
	for i := 0; i <= len(key); i++ {
		if i == len(key) {
			if d.store.IsLeaf(v) {
				if len(d.tailStore.Fetch(d.store.BaseAt(v))) == 0 {
					it.hits = append(it.hits, PrefixHit{ID: d.terminal.Rank(v), Consumed: i})
				}
			} else if d.terminal.Access(v) {
				it.hits = append(it.hits, PrefixHit{ID: d.terminal.Rank(v), Consumed: i})
			}
			break
		}

		if d.store.IsLeaf(v) {
			offset := d.store.BaseAt(v)
			cmp := d.tailStore.Compare(offset, key[i:])
			if cmp.Matched && cmp.ReachedSuffixEnd {
				consumed := i + len(d.tailStore.Fetch(offset))
				it.hits = append(it.hits, PrefixHit{ID: d.terminal.Rank(v), Consumed: consumed})
			}
			break
		}
		if d.terminal.Access(v) {
			it.hits = append(it.hits, PrefixHit{ID: d.terminal.Rank(v), Consumed: i})
		}

		code := d.codeTable.Encode(key[i])
		cand := d.store.BaseAt(v) ^ uint64(code)
		if !d.isRealChild(cand, code) {
			break
		}
		v = cand
	}
	return it
}

// Next advances to the next match, returning false once exhausted.
func (it *PrefixIterator) Next() bool {
	if it.pos+1 >= len(it.hits) {
		return false
	}
	it.pos++
	return true
}

// Hit returns the current match; valid only after Next returns true.
func (it *PrefixIterator) Hit() PrefixHit { return it.hits[it.pos] }

// predictiveFrame is one stack entry of the descendant-enumeration DFS: the
// trie node, the next candidate byte label to try as a child (0..256, 256
// meaning exhausted), and the path length in effect for this node so
// backtracking can truncate the shared path buffer.
type predictiveFrame struct {
	node     uint64
	nextByte int
	reported bool
	pathLen  int
}

// PredictiveIterator performs an in-order depth-first enumeration of every
// stored key starting with a given prefix (spec §4.7 predictive_iterator),
// visiting children in ascending original-byte order by probing candidate
// labels 0..255 through the BASE XOR lookup.
type PredictiveIterator struct {
	d    *Dictionary
	path []byte

	// landedLeaf: the prefix walk ended inside (or exactly at) a leaf, so
	// the descendant set is exactly one key — the leaf's own.
	landedLeaf bool
	leafNode   uint64
	leafPrefix []byte
	leafDone   bool

	stack []predictiveFrame

	ok      bool
	curID   uint64
	curKey  []byte
	started bool
}

// locatePredictive walks key through the trie, allowing the walk to end
// partway into a leaf's tail suffix (spec: "including matching into a
// leaf's tail prefix"). ok is false if key cannot be a prefix of any
// stored key.
func (d *Dictionary) locatePredictive(key []byte) (v uint64, landedLeaf bool, prefix []byte, ok bool) {
	v = 0
	i := 0
	for i < len(key) {
		if d.store.IsLeaf(v) {
			offset := d.store.BaseAt(v)
			cmp := d.tailStore.Compare(offset, key[i:])
			if !cmp.Matched {
				return 0, false, nil, false
			}
			if cmp.ReachedSuffixEnd && !cmp.ExhaustedInput {
				return 0, false, nil, false
			}
			return v, true, key[:i], true
		}
		code := d.codeTable.Encode(key[i])
		cand := d.store.BaseAt(v) ^ uint64(code)
		if !d.isRealChild(cand, code) {
			return 0, false, nil, false
		}
		v = cand
		i++
	}
	if d.store.IsLeaf(v) {
		return v, true, key, true
	}
	return v, false, key, true
}

// PredictiveIterator constructs the iterator for predictive_iterator(key).
func (d *Dictionary) PredictiveIterator(key []byte) *PredictiveIterator {
	v, landed, prefix, ok := d.locatePredictive(key)
	it := &PredictiveIterator{d: d}
	if !ok {
		return it
	}
	if landed {
		it.landedLeaf = true
		it.leafNode = v
		it.leafPrefix = append([]byte(nil), prefix...)
		return it
	}
	it.path = append([]byte(nil), prefix...)
	it.stack = []predictiveFrame{{node: v, nextByte: 0, pathLen: len(it.path)}}
	return it
}

// EnumerativeIterator is predictive_iterator with an empty prefix: a full
// traversal of every stored key in lexicographic order (spec §4.7
// enumerative_iterator).
func (d *Dictionary) EnumerativeIterator() *PredictiveIterator {
	return d.PredictiveIterator(nil)
}

// Next advances to the next descendant, returning false once exhausted.
func (it *PredictiveIterator) Next() bool {
	if it.landedLeaf {
		if it.leafDone {
			return false
		}
		it.leafDone = true
		offset := it.d.store.BaseAt(it.leafNode)
		suffix := it.d.tailStore.Fetch(offset)
		full := make([]byte, 0, len(it.leafPrefix)+len(suffix))
		full = append(full, it.leafPrefix...)
		full = append(full, suffix...)
		it.curID = it.d.terminal.Rank(it.leafNode)
		it.curKey = full
		return true
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if !top.reported {
			top.reported = true
			if it.d.terminal.Access(top.node) {
				it.curID = it.d.terminal.Rank(top.node)
				it.curKey = append([]byte(nil), it.path[:top.pathLen]...)
				return true
			}
		}

		advanced := false
		for top.nextByte < 256 {
			b := byte(top.nextByte)
			top.nextByte++
			code := it.d.codeTable.Encode(b)
			cand := it.d.store.BaseAt(top.node) ^ uint64(code)
			if !it.d.isRealChild(cand, code) {
				continue
			}

			it.path = append(it.path[:top.pathLen], b)
			if it.d.store.IsLeaf(cand) {
				offset := it.d.store.BaseAt(cand)
				suffix := it.d.tailStore.Fetch(offset)
				full := make([]byte, 0, len(it.path)+len(suffix))
				full = append(full, it.path...)
				full = append(full, suffix...)
				it.curID = it.d.terminal.Rank(cand)
				it.curKey = full
				return true
			}

			it.stack = append(it.stack, predictiveFrame{node: cand, nextByte: 0, pathLen: len(it.path)})
			advanced = true
			break
		}
		if advanced {
			continue
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	return false
}

// ID returns the current item's id; valid only after Next returns true.
func (it *PredictiveIterator) ID() uint64 { return it.curID }

// Key returns the current item's full key; valid only after Next returns
// true. The returned slice is not reused by the iterator — unlike the
// design note's "views into the buffer are invalidated on advance"
// caveat, each yielded key here is a fresh allocation, since predictive
// enumeration already allocates a slice per candidate during the walk.
func (it *PredictiveIterator) Key() []byte { return it.curKey }
