package deflate

import (
	"fmt"
	"log/slog"
)

// Strategy selects how the matcher trades matches against literals.
type Strategy int

const (
	// StrategyDefault uses every match the finder turns up.
	StrategyDefault Strategy = iota
	// StrategyFiltered discards short matches, for data where runs of
	// small values (filtered PNG scanlines, sensor deltas) make short
	// back-references a net loss.
	StrategyFiltered
	// StrategyHuffmanOnly never emits a back-reference at all.
	StrategyHuffmanOnly
)

// DefaultLevel is the compression level a freshly constructed Engine uses.
const DefaultLevel = 6

// Engine is a DEFLATE compressor: a 32 KiB sliding window with a hash-chain
// match finder feeding a Huffman coder. Bytes go in via SetInput, the state
// machine is driven with Deflate, and compressed bytes come back out via
// Flush. An Engine is not safe for concurrent use; exclusive ownership is
// the contract.
//
// The engine emits raw DEFLATE blocks only. The zlib header and trailing
// checksum belong to the wrapper a level up; Adler exposes the running
// checksum so such a wrapper can append it.
type Engine struct {
	window [2 * wSize]byte
	head   [hashSize]uint16
	prev   [wSize]uint16

	strstart   int // position in window under consideration
	blockStart int // start of the unflushed block; may go negative after a slide
	lookahead  int // valid bytes at window[strstart:]
	matchStart int
	matchLen   int
	insertHash uint32

	prevAvailable bool // lazy matcher holds a deferred literal at strstart-1

	goodLength int
	maxLazy    int
	niceLength int
	maxChain   int
	comprFunc  int
	level      int
	strategy   Strategy

	inputBuf []byte
	inputOff int
	inputEnd int
	totalIn  uint64

	adler   adlerChecksum
	huffman huffmanCoder
	pending *pendingBuffer

	warnedStoredFinish bool
}

// NewEngine returns an Engine bound to a fresh pending buffer, at
// DefaultLevel with StrategyDefault.
func NewEngine() *Engine {
	e := &Engine{pending: new(pendingBuffer)}
	e.Reset()
	if err := e.SetLevel(DefaultLevel); err != nil {
		invariantPanic("default level rejected")
	}
	return e
}

// Reset returns the engine to its just-constructed state, keeping the bound
// pending buffer (emptied) and the current level and strategy.
func (e *Engine) Reset() {
	e.huffman.reset()
	e.adler.reset()
	e.pending.reset()
	clear(e.head[:])
	clear(e.prev[:])
	// Position 0 is the hash-chain "no entry" sentinel, so the stream
	// starts at window position 1.
	e.blockStart = 1
	e.strstart = 1
	e.lookahead = 0
	e.matchStart = 0
	e.matchLen = minMatch - 1
	e.insertHash = 0
	e.prevAvailable = false
	e.inputBuf = nil
	e.inputOff = 0
	e.inputEnd = 0
	e.totalIn = 0
	e.warnedStoredFinish = false
}

// SetInput hands the engine its next slice of input. The previous slice
// must be fully consumed first (NeedsInput reports true).
func (e *Engine) SetInput(buf []byte, off, count int) error {
	if e.inputOff < e.inputEnd {
		return fmt.Errorf("%w: previous input not completely consumed", ErrInvalidState)
	}
	end := off + count
	if off < 0 || count < 0 || off > end || end > len(buf) {
		return fmt.Errorf("%w: input range [%d:+%d) outside buffer of %d bytes",
			ErrInvalidArgument, off, count, len(buf))
	}
	e.inputBuf = buf
	e.inputOff = off
	e.inputEnd = end
	return nil
}

// NeedsInput reports whether the current input slice has been fully
// consumed.
func (e *Engine) NeedsInput() bool {
	return e.inputOff == e.inputEnd
}

// SetDictionary preloads the window with history the first back-references
// may reach into. Only the last maxDist bytes are kept. It must be called
// before any input has been compressed; the dictionary bytes enter the
// Adler-32 checksum exactly as input bytes would.
func (e *Engine) SetDictionary(buf []byte, off, length int) error {
	end := off + length
	if off < 0 || length < 0 || off > end || end > len(buf) {
		return fmt.Errorf("%w: dictionary range [%d:+%d) outside buffer of %d bytes",
			ErrInvalidArgument, off, length, len(buf))
	}
	if e.totalIn > 0 || e.lookahead > 0 {
		return fmt.Errorf("%w: dictionary after input", ErrInvalidState)
	}

	e.adler.update(buf[off:end])
	if length < minMatch {
		return nil
	}
	if length > maxDist {
		off += length - maxDist
		length = maxDist
	}

	copy(e.window[e.strstart:], buf[off:off+length])
	e.updateHash(e.strstart)
	// Every position with a full three bytes behind it goes on the chain;
	// the final two have no complete trigram and are skipped past.
	for n := length - 2; n > 0; n-- {
		e.insertString(e.strstart)
		e.strstart++
	}
	e.strstart += 2
	e.blockStart = e.strstart
	return nil
}

// SetLevel selects a compression level in 0..9. When the new level selects
// a different compression function, the block tallied so far is flushed
// (non-final) under the outgoing function first, so a mid-stream switch
// never mixes strategies inside one block. That flush writes to the
// pending buffer, so a switch requires the buffer drained, like Deflate
// itself; changing level within the same compression function does not.
func (e *Engine) SetLevel(level int) error {
	if level < 0 || level > 9 {
		return fmt.Errorf("%w: compression level %d outside 0..9", ErrInvalidArgument, level)
	}
	p := levelParams[level]
	if p.fn != e.comprFunc {
		if !e.pending.isFlushed() {
			return fmt.Errorf("%w: pending output not drained before level change", ErrInvalidState)
		}
		switch e.comprFunc {
		case comprStored:
			if e.strstart > e.blockStart {
				e.huffman.flushStoredBlock(e.pending, e.window[:], e.blockStart, e.strstart-e.blockStart, false)
				e.blockStart = e.strstart
			}
			if e.lookahead >= minMatch {
				e.updateHash(e.strstart)
			}
		case comprFast:
			if e.strstart > e.blockStart {
				e.huffman.flushBlock(e.pending, e.window[:], e.blockStart, e.strstart-e.blockStart, false)
				e.blockStart = e.strstart
			}
		case comprSlow:
			if e.prevAvailable {
				e.huffman.tallyLit(e.window[e.strstart-1])
			}
			if e.strstart > e.blockStart {
				e.huffman.flushBlock(e.pending, e.window[:], e.blockStart, e.strstart-e.blockStart, false)
				e.blockStart = e.strstart
			}
			e.prevAvailable = false
			e.matchLen = minMatch - 1
		default:
			invariantPanic("unknown compression function tag")
		}
		slog.Debug("comprFuncSwitch", "from", e.level, "to", level)
		e.comprFunc = p.fn
	}
	e.level = level
	e.goodLength = p.goodLength
	e.maxLazy = p.maxLazy
	e.niceLength = p.niceLength
	e.maxChain = p.maxChain
	return nil
}

// SetStrategy selects the matching strategy for subsequent input.
func (e *Engine) SetStrategy(s Strategy) error {
	switch s {
	case StrategyDefault, StrategyFiltered, StrategyHuffmanOnly:
		e.strategy = s
		return nil
	}
	return fmt.Errorf("%w: unknown strategy %d", ErrInvalidArgument, s)
}

// Adler returns the running Adler-32 over every byte that has entered the
// window, dictionary bytes included.
func (e *Engine) Adler() uint32 {
	return e.adler.value()
}

// ResetAdler restarts the checksum at its initial value without touching
// any other state.
func (e *Engine) ResetAdler() {
	e.adler.reset()
}

// TotalIn returns the number of input bytes consumed so far.
func (e *Engine) TotalIn() uint64 {
	return e.totalIn
}

// Flush drains up to len(out) compressed bytes from the pending buffer and
// returns how many were copied.
func (e *Engine) Flush(out []byte) int {
	return e.pending.flush(out)
}

// Flushed reports whether the pending buffer has been fully drained. Up to
// seven trailing bits may still sit in the bit accumulator mid-stream; they
// become a byte once the stream finishes or enough further bits arrive.
func (e *Engine) Flushed() bool {
	return e.pending.isFlushed()
}

// Deflate runs the compressor until it can make no further progress
// without the caller either draining the pending buffer or supplying more
// input. With flush set, all buffered input is forced out in completed
// blocks; with finish set as well, the last of those blocks is marked
// final. It returns true while further progress remains possible.
//
// Termination under level 0 can take one call more than expected: a stored
// block that would exceed the maximum block size is truncated and emitted
// non-final even when finish was requested, leaving the true final block
// to the next call. Callers looping "Deflate, drain" until Deflate returns
// false handle this without special casing.
func (e *Engine) Deflate(flush, finish bool) bool {
	if !e.pending.isFlushed() {
		// No room for another block until the caller drains.
		return true
	}

	var progress bool
	for {
		e.fillWindow()
		canFlush := flush && e.inputOff == e.inputEnd
		switch e.comprFunc {
		case comprStored:
			progress = e.deflateStored(canFlush, finish)
		case comprFast:
			progress = e.deflateFast(canFlush, finish)
		case comprSlow:
			progress = e.deflateSlow(canFlush, finish)
		default:
			invariantPanic("unknown compression function tag")
		}
		if !e.pending.isFlushed() || !progress {
			break
		}
	}

	if flush && finish && !progress && e.lookahead == 0 && e.inputOff == e.inputEnd {
		// The final block has been written; pad the last partial byte.
		e.pending.alignToByte()
	}
	return progress
}

// fillWindow tops the lookahead up from the caller's input, sliding the
// window first if the write position has reached its ceiling. Every byte
// copied in is folded into the checksum and counted toward TotalIn.
func (e *Engine) fillWindow() {
	if e.strstart >= wSize+maxDist {
		e.slideWindow()
	}

	for e.lookahead < minLookahead && e.inputOff < e.inputEnd {
		more := 2*wSize - e.lookahead - e.strstart
		if more > e.inputEnd-e.inputOff {
			more = e.inputEnd - e.inputOff
		}
		copy(e.window[e.strstart+e.lookahead:], e.inputBuf[e.inputOff:e.inputOff+more])
		e.adler.update(e.inputBuf[e.inputOff : e.inputOff+more])
		e.inputOff += more
		e.totalIn += uint64(more)
		e.lookahead += more
	}

	if e.lookahead >= minMatch {
		e.updateHash(e.strstart)
	}
}
