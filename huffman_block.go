package deflate

import "log/slog"

// Block-type tags for the 2-bit BTYPE field, RFC 1951 §3.2.3.
const (
	btypeStored  = 0
	btypeStatic  = 1
	btypeDynamic = 2
)

// clToken is one step of the RLE encoding of a code-length sequence, RFC
// 1951 §3.2.7: either a literal code length (sym in 0..15) or one of the
// three repeat codes (16/17/18) with its extra-bit count value.
type clToken struct {
	sym   uint8
	extra uint16
}

func clExtraBits(sym uint8) uint {
	switch sym {
	case repeat3_6:
		return 2
	case repeatZ3_10:
		return 3
	case repeatZ11_138:
		return 7
	default:
		return 0
	}
}

// scanTree runs RFC 1951 §3.2.7's run-length pass over a code-length
// sequence, the same scan zlib's trees.c performs twice (once to tally
// code-length-alphabet frequencies, once to emit); here one scan serves
// both: buildDynamicTables tallies the frequencies from the returned tokens
// and writeTree emits the same tokens.
func scanTree(lengths []int) []clToken {
	n := len(lengths)
	if n == 0 {
		return nil
	}
	ext := make([]int, n+1)
	copy(ext, lengths)
	ext[n] = -1 // sentinel: never equal to a real code length

	var tokens []clToken
	prevLen := -1
	nextLen := ext[0]
	count := 0
	maxCount, minCount := 7, 4
	if nextLen == 0 {
		maxCount, minCount = 138, 3
	}

	for i := 0; i < n; i++ {
		curLen := nextLen
		nextLen = ext[i+1]
		count++
		if count < maxCount && curLen == nextLen {
			continue
		}
		switch {
		case count < minCount:
			for ; count > 0; count-- {
				tokens = append(tokens, clToken{sym: uint8(curLen)})
			}
		case curLen != 0:
			if curLen != prevLen {
				tokens = append(tokens, clToken{sym: uint8(curLen)})
				count--
			}
			tokens = append(tokens, clToken{sym: repeat3_6, extra: uint16(count - 3)})
		case count <= 10:
			tokens = append(tokens, clToken{sym: repeatZ3_10, extra: uint16(count - 3)})
		default:
			tokens = append(tokens, clToken{sym: repeatZ11_138, extra: uint16(count - 11)})
		}
		count = 0
		prevLen = curLen
		switch {
		case nextLen == 0:
			maxCount, minCount = 138, 3
		case curLen == nextLen:
			maxCount, minCount = 6, 3
		default:
			maxCount, minCount = 7, 4
		}
	}
	return tokens
}

// blockSymbolBits sums the bit cost of every tallied entry plus the
// end-of-block marker, under the given code-length assignment. Used both
// to cost a candidate block type and, once chosen, nowhere else: emission
// walks the same buffers again in writeSymbols so it can also write extra
// bits inline.
func blockSymbolBits(h *huffmanCoder, litLengths, distLengths []int) int {
	total := litLengths[endOfBlock]
	for i := 0; i < h.n; i++ {
		if h.distBuf[i] == 0 {
			total += litLengths[h.litBuf[i]]
			continue
		}
		lsym, leb, _ := lengthSymbol(int(h.litBuf[i]))
		dsym, deb, _ := distSymbol(int(h.distBuf[i]))
		total += litLengths[lsym] + int(leb)
		total += distLengths[dsym] + int(deb)
	}
	return total
}

func writeSymbols(pb *pendingBuffer, h *huffmanCoder, litLengths, distLengths []int, litCodes, distCodes []uint16) {
	for i := 0; i < h.n; i++ {
		if h.distBuf[i] == 0 {
			sym := h.litBuf[i]
			pb.writeBits(uint32(litCodes[sym]), uint(litLengths[sym]))
			continue
		}
		length := int(h.litBuf[i])
		dist := int(h.distBuf[i])
		lsym, leb, lev := lengthSymbol(length)
		pb.writeBits(uint32(litCodes[lsym]), uint(litLengths[lsym]))
		if leb > 0 {
			pb.writeBits(uint32(lev), uint(leb))
		}
		dsym, deb, dev := distSymbol(dist)
		pb.writeBits(uint32(distCodes[dsym]), uint(distLengths[dsym]))
		if deb > 0 {
			pb.writeBits(uint32(dev), uint(deb))
		}
	}
}

// dynamicTables holds everything needed to both cost and, if chosen, emit
// a dynamic-Huffman block for the symbols currently tallied in h.
type dynamicTables struct {
	litLengths, distLengths   []int
	litCodes, distCodes       []uint16
	clLengths                 []int
	clCodes                   []uint16
	tokens                    []clToken
	hlitCount, hdistCount     int
	hclenCount                int
}

func buildDynamicTables(h *huffmanCoder) *dynamicTables {
	d := &dynamicTables{}
	d.litLengths, d.litCodes = buildLengthLimited(h.litFreq[:], maxBLBits)
	d.distLengths, d.distCodes = buildLengthLimited(h.distFreq[:], maxBLBits)

	d.hlitCount = 257
	for i := maxNumLit - 1; i >= 257; i-- {
		if d.litLengths[i] != 0 {
			d.hlitCount = i + 1
			break
		}
	}
	d.hdistCount = 1
	for i := maxNumDist - 1; i >= 1; i-- {
		if d.distLengths[i] != 0 {
			d.hdistCount = i + 1
			break
		}
	}

	combined := make([]int, 0, d.hlitCount+d.hdistCount)
	combined = append(combined, d.litLengths[:d.hlitCount]...)
	combined = append(combined, d.distLengths[:d.hdistCount]...)
	d.tokens = scanTree(combined)

	var clFreq [numCLCodes]uint32
	for _, t := range d.tokens {
		clFreq[t.sym]++
	}
	d.clLengths, d.clCodes = buildLengthLimited(clFreq[:], maxCLBits)

	d.hclenCount = 4
	for i := numCLCodes - 1; i >= 4; i-- {
		if d.clLengths[codeOrder[i]] != 0 {
			d.hclenCount = i + 1
			break
		}
	}
	return d
}

func (d *dynamicTables) treeBits() int {
	total := 5 + 5 + 4 + 3*d.hclenCount
	for _, t := range d.tokens {
		total += d.clLengths[t.sym] + int(clExtraBits(t.sym))
	}
	return total
}

func (d *dynamicTables) writeTree(pb *pendingBuffer) {
	pb.writeBits(uint32(d.hlitCount-257), 5)
	pb.writeBits(uint32(d.hdistCount-1), 5)
	pb.writeBits(uint32(d.hclenCount-4), 4)
	for i := 0; i < d.hclenCount; i++ {
		pb.writeBits(uint32(d.clLengths[codeOrder[i]]), 3)
	}
	for _, t := range d.tokens {
		pb.writeBits(uint32(d.clCodes[t.sym]), uint(d.clLengths[t.sym]))
		if eb := clExtraBits(t.sym); eb > 0 {
			pb.writeBits(uint32(t.extra), eb)
		}
	}
}

func blockHeader(isLast bool, btype int) uint32 {
	h := uint32(btype) << 1
	if isLast {
		h |= 1
	}
	return h
}

// flushBlock chooses among stored, static, and dynamic encodings for the
// symbols tallied so far by comparing their exact encoded bit length, per
// spec.md §4.3, emits the winner, and clears the tally buffers.
func (h *huffmanCoder) flushBlock(pb *pendingBuffer, window []byte, blockStart, length int, isLast bool) {
	initStaticTables()
	h.litFreq[endOfBlock]++

	dyn := buildDynamicTables(h)
	dynamicBits := 3 + dyn.treeBits() + blockSymbolBits(h, dyn.litLengths, dyn.distLengths)
	staticBits := 3 + blockSymbolBits(h, staticLitLengths, staticDistLengths)
	storedPad := (8 - (int(pb.bitCount)+3)%8) % 8
	storedBits := 3 + storedPad + 32 + length*8

	// Stored is only eligible when the block's source bytes still sit in
	// the window (blockStart can go negative after a slide) and fit the
	// 16-bit LEN field.
	canStore := length <= maxBlockSize && blockStart >= 0

	switch {
	case canStore && storedBits <= staticBits && storedBits <= dynamicBits:
		slog.Debug("blockType", "btype", "stored", "bytes", length, "last", isLast)
		h.flushStoredBlock(pb, window, blockStart, length, isLast)
	case staticBits <= dynamicBits:
		slog.Debug("blockType", "btype", "static", "bytes", length, "bits", staticBits, "last", isLast)
		pb.writeBits(blockHeader(isLast, btypeStatic), 3)
		writeSymbols(pb, h, staticLitLengths, staticDistLengths, staticLitCodes, staticDistCodes)
		pb.writeBits(uint32(staticLitCodes[endOfBlock]), uint(staticLitLengths[endOfBlock]))
		h.reset()
	default:
		slog.Debug("blockType", "btype", "dynamic", "bytes", length, "bits", dynamicBits, "last", isLast)
		pb.writeBits(blockHeader(isLast, btypeDynamic), 3)
		dyn.writeTree(pb)
		writeSymbols(pb, h, dyn.litLengths, dyn.distLengths, dyn.litCodes, dyn.distCodes)
		pb.writeBits(uint32(dyn.litCodes[endOfBlock]), uint(dyn.litLengths[endOfBlock]))
		h.reset()
	}
}

// flushStoredBlock forces a stored (uncompressed) block regardless of its
// cost relative to a Huffman encoding, per spec.md §4.3. Used directly by
// level 0 and as flushBlock's chosen fallback.
func (h *huffmanCoder) flushStoredBlock(pb *pendingBuffer, window []byte, blockStart, length int, isLast bool) {
	pb.writeBits(blockHeader(isLast, btypeStored), 3)
	pb.alignToByte()
	pb.writeShortLSB(uint16(length))
	pb.writeShortLSB(^uint16(length))
	for i := 0; i < length; i++ {
		pb.writeByte(window[blockStart+i])
	}
	h.reset()
}
