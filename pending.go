package deflate

// pendingBufferSize is the size of the byte array backing a pendingBuffer.
// A stored block of maxBlockSize bytes plus its aligned header and LEN/NLEN
// words fills it exactly; Huffman blocks are smaller still, because
// flushBlock never picks an encoding costlier than the static one, whose
// worst symbol is 31 bits against litBufSize tallied symbols.
const pendingBufferSize = 1 << 16

// maxBlockSize is the largest number of bytes a single block may cover.
// Keeping it strictly below the 65535 ceiling of the stored-block LEN field
// is what makes the truncation path in deflateStored reachable: a window's
// worth of raw bytes does not fit in one block, so a finishing stored flush
// can be forced to defer its final block to a second call.
const maxBlockSize = min(65535, pendingBufferSize-5)

// pendingBuffer accumulates output bits in LSB-first order within each byte
// (RFC 1951 §3.1.1) and exposes whole bytes to the caller via flush. No
// byte is ever written into it twice: callers only add bytes after
// observing isFlushed, the same "reserve space, then write" discipline the
// teacher's internal/flate decoder uses in reverse when draining its own
// bit accumulator.
type pendingBuffer struct {
	buf      [pendingBufferSize]byte
	start    int // buf[start:end] holds bytes not yet drained by flush
	end      int
	bitBuf   uint32 // pending bits, LSB-first, not yet byte-aligned
	bitCount uint   // number of valid low-order bits in bitBuf
}

func (p *pendingBuffer) reset() {
	p.start = 0
	p.end = 0
	p.bitBuf = 0
	p.bitCount = 0
}

// isFlushed reports whether the byte array is empty. The bit accumulator
// may still hold fewer than 8 pending bits; that is not observable to a
// caller until alignToByte or enough writeBits calls push it over a byte
// boundary.
func (p *pendingBuffer) isFlushed() bool {
	return p.start == p.end
}

func (p *pendingBuffer) appendByte(b byte) {
	p.buf[p.end] = b
	p.end++
}

// writeBits appends the nbits low-order bits of value to the accumulator,
// LSB-first, draining whole bytes to the byte array as they fill.
func (p *pendingBuffer) writeBits(value uint32, nbits uint) {
	p.bitBuf |= (value & ((1 << nbits) - 1)) << p.bitCount
	p.bitCount += nbits
	for p.bitCount >= 8 {
		p.appendByte(byte(p.bitBuf))
		p.bitBuf >>= 8
		p.bitCount -= 8
	}
}

// alignToByte pads zero bits up to the next byte boundary and flushes it.
func (p *pendingBuffer) alignToByte() {
	if p.bitCount > 0 {
		p.appendByte(byte(p.bitBuf))
	}
	p.bitBuf = 0
	p.bitCount = 0
}

func (p *pendingBuffer) writeByte(b byte) {
	p.appendByte(b)
}

func (p *pendingBuffer) writeShortMSB(v uint16) {
	p.writeByte(byte(v >> 8))
	p.writeByte(byte(v))
}

func (p *pendingBuffer) writeShortLSB(v uint16) {
	p.writeByte(byte(v))
	p.writeByte(byte(v >> 8))
}

// flush copies up to len(out) bytes from the head of the byte array into
// out and returns the number copied. Undrained bytes stay where they are;
// the read and write positions rewind to index 0 once all are drained.
func (p *pendingBuffer) flush(out []byte) int {
	n := p.end - p.start
	if n > len(out) {
		n = len(out)
	}
	if n == 0 {
		return 0
	}
	copy(out, p.buf[p.start:p.start+n])
	p.start += n
	if p.start == p.end {
		p.start = 0
		p.end = 0
	}
	return n
}

// pending reports the number of undrained bytes.
func (p *pendingBuffer) pending() int {
	return p.end - p.start
}
