package deflate

// adler32Base is the modulus RFC 1950 §3 specifies for Adler-32, the
// largest prime smaller than 65536.
const adler32Base = 65521

// adler32NMAX is the largest number of single-byte accumulations that can
// happen between modulo reductions without overflowing a uint32 sum,
// NMAX is the largest n with 255*n*(n+1)/2 + (n+1)*(adler32Base-1) <=
// 2^32-1, as in the reference algorithm.
const adler32NMAX = 5552

// adlerChecksum is the running Adler-32 accumulator, held directly as two
// sums rather than behind hash.Hash32: spec.md models it as mutable engine
// state fed incrementally by whatever fillWindow happens to copy per call,
// with a reset_adler() accessor mid-stream, which the stdlib hash/adler32
// API (construct once, Write, Sum) doesn't fit as directly.
type adlerChecksum struct {
	s1, s2 uint32
}

func (a *adlerChecksum) reset() {
	a.s1 = 1
	a.s2 = 0
}

func (a *adlerChecksum) value() uint32 {
	return a.s2<<16 | a.s1
}

// update folds b into the checksum in the order the bytes enter the window,
// per spec.md §4.2.
func (a *adlerChecksum) update(b []byte) {
	s1, s2 := a.s1, a.s2
	for len(b) > 0 {
		n := len(b)
		if n > adler32NMAX {
			n = adler32NMAX
		}
		chunk := b[:n]
		b = b[n:]
		for _, c := range chunk {
			s1 += uint32(c)
			s2 += s1
		}
		s1 %= adler32Base
		s2 %= adler32Base
	}
	a.s1, a.s2 = s1, s2
}
