package deflate

import (
	"container/heap"
	"math/bits"
	"sync"
)

// litBufSize bounds how many (literal-or-length, distance) entries a block
// may tally before the driver must flush it. At 31 bits for the worst
// static-coded symbol, a full buffer's payload stays under pendingBufferSize
// even before the cheaper dynamic encoding is considered.
const litBufSize = 1 << 14

// huffmanCoder tallies literal/length/distance symbols for the block
// currently being assembled, and on flush chooses among stored, static, and
// dynamic Huffman encodings by comparing their exact bit costs, per spec.md
// §4.3. It owns no window bytes itself: flushBlock/flushStoredBlock are
// handed the window slice they need to read from.
type huffmanCoder struct {
	litFreq  [maxNumLit]uint32
	distFreq [maxNumDist]uint32

	// Parallel buffers: distBuf[i]==0 means litBuf[i] is a literal byte;
	// otherwise litBuf[i] is a match length and distBuf[i] its distance.
	litBuf  [litBufSize]uint16
	distBuf [litBufSize]uint16
	n       int
}

func (h *huffmanCoder) reset() {
	h.litFreq = [maxNumLit]uint32{}
	h.distFreq = [maxNumDist]uint32{}
	h.n = 0
}

func (h *huffmanCoder) isFull() bool {
	return h.n >= litBufSize
}

func (h *huffmanCoder) tallyLit(b byte) bool {
	h.litBuf[h.n] = uint16(b)
	h.distBuf[h.n] = 0
	h.n++
	h.litFreq[b]++
	return h.isFull()
}

func (h *huffmanCoder) tallyDist(distance, length int) bool {
	h.litBuf[h.n] = uint16(length)
	h.distBuf[h.n] = uint16(distance)
	h.n++
	sym, _, _ := lengthSymbol(length)
	h.litFreq[sym]++
	dsym, _, _ := distSymbol(distance)
	h.distFreq[dsym]++
	return h.isFull()
}

// --- canonical Huffman construction -----------------------------------

// huffLeaf and huffHeapItem form a minimal binary tree used only to derive
// each leaf's unbounded code length; the actual length-limiting and
// canonical code assignment happens afterward, independent of the tree's
// shape.
type huffLeaf struct {
	sym  int
	freq uint32
}

type huffHeapItem struct {
	freq        uint32
	order       uint32 // tie-break: insertion order, for determinism
	left, right *huffHeapItem
	leafSym     int // valid when isLeaf
	isLeaf      bool
}

type huffHeap []*huffHeapItem

func (h huffHeap) Len() int { return len(h) }
func (h huffHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].order < h[j].order
}
func (h huffHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *huffHeap) Push(x any)        { *h = append(*h, x.(*huffHeapItem)) }
func (h *huffHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// rawCodeLengths computes, for each leaf with freq>0, its depth in a
// standard (unbounded) Huffman tree built from the given frequencies.
// Ties are broken by ascending symbol order for determinism.
func rawCodeLengths(freq []uint32) (lengths []int, leaves []huffLeaf) {
	h := &huffHeap{}
	var order uint32
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		leaves = append(leaves, huffLeaf{sym: sym, freq: f})
		heap.Push(h, &huffHeapItem{freq: f, order: order, isLeaf: true, leafSym: sym})
		order++
	}

	lengths = make([]int, len(freq))

	switch len(leaves) {
	case 0:
		return lengths, leaves
	case 1:
		lengths[leaves[0].sym] = 1
		return lengths, leaves
	}

	for h.Len() > 1 {
		a := heap.Pop(h).(*huffHeapItem)
		b := heap.Pop(h).(*huffHeapItem)
		parent := &huffHeapItem{freq: a.freq + b.freq, order: order, left: a, right: b}
		order++
		heap.Push(h, parent)
	}
	root := heap.Pop(h).(*huffHeapItem)

	var walk func(n *huffHeapItem, d int)
	walk = func(n *huffHeapItem, d int) {
		if n.isLeaf {
			if d == 0 {
				d = 1 // a single surviving leaf at the root: degenerate case
			}
			lengths[n.leafSym] = d
			return
		}
		walk(n.left, d+1)
		walk(n.right, d+1)
	}
	walk(root, 0)

	return lengths, leaves
}

// limitCodeLengths bounds the lengths rawCodeLengths produced to maxBits,
// preserving a valid (Kraft-satisfying) prefix code. It uses the
// redistribution step of zlib's trees.c gen_bitlen, repeated until the
// Kraft sum is back to 1, to compute the corrected per-length symbol
// counts, then assigns the corrected length
// profile to leaves ordered by ascending frequency (smallest frequency
// gets the longest code) rather than replaying zlib's heap-traversal
// order — any assignment monotonic in frequency yields a valid,
// near-optimal length-limited code, and spec.md's Non-goals explicitly
// disclaim bit-exact reproduction of any particular reference encoder.
func limitCodeLengths(lengths []int, leaves []huffLeaf, maxBits int) {
	if len(leaves) == 0 {
		return
	}
	if len(leaves) == 1 {
		lengths[leaves[0].sym] = 1
		return
	}

	var blCount [64]int
	for _, lf := range leaves {
		l := lengths[lf.sym]
		if l > maxBits {
			l = maxBits
		}
		blCount[l]++
	}

	// Capping over-fills the code space; excess is the Kraft sum above 1 in
	// units of 2^-maxBits, and each redistribution step frees one unit.
	excess := -(1 << maxBits)
	for bits := 1; bits <= maxBits; bits++ {
		excess += blCount[bits] << (maxBits - bits)
	}
	for excess > 0 {
		bits := maxBits - 1
		for blCount[bits] == 0 {
			bits--
		}
		blCount[bits]--
		blCount[bits+1] += 2
		blCount[maxBits]--
		excess--
	}

	sortedLeaves := make([]huffLeaf, len(leaves))
	copy(sortedLeaves, leaves)
	// Stable ascending sort by frequency (insertion sort: alphabets here
	// are at most 286 entries, so this is cheap and keeps the tie-break on
	// symbol order the same as rawCodeLengths used).
	for i := 1; i < len(sortedLeaves); i++ {
		for j := i; j > 0 && sortedLeaves[j].freq < sortedLeaves[j-1].freq; j-- {
			sortedLeaves[j], sortedLeaves[j-1] = sortedLeaves[j-1], sortedLeaves[j]
		}
	}

	pos := 0
	for bits := maxBits; bits >= 1; bits-- {
		for n := blCount[bits]; n > 0; n-- {
			lengths[sortedLeaves[pos].sym] = bits
			pos++
		}
	}
}

// canonicalCodes assigns canonical Huffman codes from a length array,
// following RFC 1951 §3.2.2's algorithm (bl_count / next_code), the same
// counting logic the teacher's huffmanDecoder.init (internal/flate) uses
// to rebuild codes on the decode side. The returned codes are bit-reversed
// relative to their canonical integer value, ready to hand to
// pendingBuffer.writeBits, which always emits the low-order bits of its
// argument first: RFC 1951 §3.1.1 packs a Huffman code's most-significant
// bit first, so reversal here is what makes that true once writeBits's
// LSB-first emission runs over it — exactly the inverse of the
// bits.Reverse16 step the teacher's huffSym performs when reading a code
// back out of an LSB-first bitstream.
func canonicalCodes(lengths []int, maxBits int) []uint16 {
	var blCount [64]int
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
		}
	}

	var nextCode [65]int
	code := 0
	for bits := 1; bits <= maxBits; bits++ {
		code = (code + blCount[bits-1]) << 1
		nextCode[bits] = code
	}

	codes := make([]uint16, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		c := nextCode[l]
		nextCode[l]++
		codes[sym] = bits.Reverse16(uint16(c)) >> (16 - uint(l))
	}
	return codes
}

// forceMinCodes guarantees at least two nonzero-length codes per alphabet,
// the same floor zlib's build_tree enforces: a block that used no distances
// still transmits a well-formed (if never-referenced) two-entry distance
// tree, which every inflater accepts, where an empty or one-deep-beyond-one
// tree is rejected by some.
func forceMinCodes(lengths []int) {
	used, single := 0, -1
	for sym, l := range lengths {
		if l != 0 {
			used++
			single = sym
		}
	}
	switch used {
	case 0:
		lengths[0] = 1
		lengths[1] = 1
	case 1:
		lengths[single] = 1
		if single == 0 {
			lengths[1] = 1
		} else {
			lengths[0] = 1
		}
	}
}

// buildLengthLimited runs the full length-limited canonical construction
// for one alphabet: raw tree, length limiting, degenerate-tree padding,
// canonical code assignment.
func buildLengthLimited(freq []uint32, maxBits int) (lengths []int, codes []uint16) {
	lengths, leaves := rawCodeLengths(freq)
	limitCodeLengths(lengths, leaves, maxBits)
	forceMinCodes(lengths)
	codes = canonicalCodes(lengths, maxBits)
	return
}

// --- static (fixed) tables, computed once -------------------------------

var (
	staticInit        sync.Once
	staticLitLengths  []int
	staticLitCodes    []uint16
	staticDistLengths []int
	staticDistCodes   []uint16
)

func initStaticTables() {
	staticInit.Do(func() {
		lit := fixedLiteralLengths()
		staticLitLengths = lit[:]
		staticLitCodes = canonicalCodes(staticLitLengths, maxBLBits)

		dist := fixedDistLengths()
		staticDistLengths = dist[:]
		staticDistCodes = canonicalCodes(staticDistLengths, maxBLBits)
	})
}
