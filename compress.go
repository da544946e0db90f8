package deflate

import "log/slog"

// Tags for the three compression functions. A closed set, dispatched by
// switch; an unknown tag means the Engine struct itself has been corrupted
// and is raised via invariantPanic.
const (
	comprStored = iota
	comprFast
	comprSlow
)

// levelParams is the zlib configuration table: per-level tuning for the
// match finder plus the compression function the level selects. Level 0
// stores, 1-3 use the greedy matcher, 4-9 the lazy one.
var levelParams = [10]struct {
	goodLength int // shorten the chain walk once a match this long is held
	maxLazy    int // fast: insertion-per-byte threshold; slow: unused here
	niceLength int // stop searching outright at a match this long
	maxChain   int // chain links to walk per position
	fn         int
}{
	{0, 0, 0, 0, comprStored},
	{4, 4, 8, 4, comprFast},
	{4, 5, 16, 8, comprFast},
	{4, 6, 32, 32, comprFast},
	{4, 4, 16, 16, comprSlow},
	{8, 16, 32, 32, comprSlow},
	{8, 16, 128, 128, comprSlow},
	{8, 32, 128, 256, comprSlow},
	{32, 128, 258, 1024, comprSlow},
	{32, 258, 258, 4096, comprSlow},
}

// deflateStored passes input through in stored blocks. A block is closed
// when it reaches maxBlockSize, when its start could slide out of the
// window, or on flush. The final-block flag requires finish, fully consumed
// input, and an untruncated length: a block that had to be cut at
// maxBlockSize leaves the true final block for a subsequent Deflate call
// (see the note on Deflate).
func (e *Engine) deflateStored(flush, finish bool) bool {
	if !flush && e.lookahead == 0 {
		return false
	}

	e.strstart += e.lookahead
	e.lookahead = 0

	storedLen := e.strstart - e.blockStart

	if storedLen >= maxBlockSize ||
		(e.blockStart < wSize && storedLen >= maxDist) ||
		flush {
		lastBlock := finish && e.inputOff == e.inputEnd
		if storedLen > maxBlockSize {
			storedLen = maxBlockSize
			if lastBlock {
				lastBlock = false
				if !e.warnedStoredFinish {
					e.warnedStoredFinish = true
					slog.Warn("storedFinishDeferred", "truncatedTo", storedLen)
				}
			}
		}
		e.huffman.flushStoredBlock(e.pending, e.window[:], e.blockStart, storedLen, lastBlock)
		e.blockStart += storedLen
		return !lastBlock
	}
	return true
}

// deflateFast is the greedy matcher for levels 1-3: every match found is
// emitted immediately, with no one-byte deferral.
func (e *Engine) deflateFast(flush, finish bool) bool {
	if e.lookahead < minLookahead && !flush {
		return false
	}

	for e.lookahead >= minLookahead || flush {
		if e.lookahead == 0 {
			// Everything tallied; close out the block.
			e.huffman.flushBlock(e.pending, e.window[:], e.blockStart, e.strstart-e.blockStart, finish)
			e.blockStart = e.strstart
			return false
		}

		if e.strstart > 2*wSize-minLookahead {
			e.slideWindow()
		}

		matched := false
		if e.lookahead >= minMatch {
			if head := int(e.insertString(e.strstart)); head != 0 &&
				e.strategy != StrategyHuffmanOnly &&
				e.strstart-head <= maxDist {
				matched = e.findLongestMatch(head)
			}
		}

		if matched {
			e.huffman.tallyDist(e.strstart-e.matchStart, e.matchLen)
			e.lookahead -= e.matchLen
			if e.matchLen <= e.maxLazy && e.lookahead >= minMatch {
				// Short match with room to spare: thread every covered
				// position onto the hash chain.
				for n := e.matchLen - 1; n > 0; n-- {
					e.strstart++
					e.insertString(e.strstart)
				}
				e.strstart++
			} else {
				e.strstart += e.matchLen
				if e.lookahead >= minMatch-1 {
					e.updateHash(e.strstart)
				}
			}
			e.matchLen = minMatch - 1
		} else {
			e.huffman.tallyLit(e.window[e.strstart])
			e.strstart++
			e.lookahead--
		}

		if e.huffman.isFull() {
			lastBlock := finish && e.lookahead == 0
			e.huffman.flushBlock(e.pending, e.window[:], e.blockStart, e.strstart-e.blockStart, lastBlock)
			e.blockStart = e.strstart
			return !lastBlock
		}
	}
	return true
}

// deflateSlow is the lazy matcher for levels 4-9: each match is held back
// one position to see whether a strictly longer match starts at the next
// byte, in which case the held byte is emitted as a literal instead.
func (e *Engine) deflateSlow(flush, finish bool) bool {
	if e.lookahead < minLookahead && !flush {
		return false
	}

	for e.lookahead >= minLookahead || flush {
		if e.lookahead == 0 {
			if e.prevAvailable {
				e.huffman.tallyLit(e.window[e.strstart-1])
			}
			e.prevAvailable = false
			e.huffman.flushBlock(e.pending, e.window[:], e.blockStart, e.strstart-e.blockStart, finish)
			e.blockStart = e.strstart
			return false
		}

		if e.strstart >= 2*wSize-minLookahead {
			e.slideWindow()
		}

		prevMatch := e.matchStart
		prevLen := e.matchLen

		if e.lookahead >= minMatch {
			if head := int(e.insertString(e.strstart)); head != 0 &&
				e.strategy != StrategyHuffmanOnly &&
				e.strstart-head <= maxDist &&
				e.findLongestMatch(head) {
				// Discard barely-worthwhile matches: anything short under
				// the Filtered strategy, and minimum-length matches whose
				// distance extra bits would cost more than three literals.
				if e.matchLen <= 5 && (e.strategy == StrategyFiltered ||
					(e.matchLen == minMatch && e.strstart-e.matchStart > tooFar)) {
					e.matchLen = minMatch - 1
				}
			}
		}

		if prevLen >= minMatch && e.matchLen <= prevLen {
			// The deferred match wins; the byte at strstart-1 was its start.
			e.huffman.tallyDist(e.strstart-1-prevMatch, prevLen)
			for n := prevLen - 2; n > 0; n-- {
				e.strstart++
				e.lookahead--
				if e.lookahead >= minMatch {
					e.insertString(e.strstart)
				}
			}
			e.strstart++
			e.lookahead--
			e.prevAvailable = false
			e.matchLen = minMatch - 1
		} else {
			if e.prevAvailable {
				e.huffman.tallyLit(e.window[e.strstart-1])
			}
			e.prevAvailable = true
			e.strstart++
			e.lookahead--
		}

		if e.huffman.isFull() {
			length := e.strstart - e.blockStart
			if e.prevAvailable {
				length--
			}
			lastBlock := finish && e.lookahead == 0 && !e.prevAvailable
			e.huffman.flushBlock(e.pending, e.window[:], e.blockStart, length, lastBlock)
			e.blockStart += length
			return !lastBlock
		}
	}
	return true
}
