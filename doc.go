// Package deflate implements the DEFLATE compressed data format described in
// RFC 1951: a 32 KiB sliding-window LZ77 matcher feeding a Huffman coder,
// packed into bit-oriented blocks. It is the engine that sits underneath
// zlib (RFC 1950) and, in turn, underneath formats like PNG's IDAT stream.
//
// This package is a byte-in/byte-out compressor only. It has no file I/O,
// no framing for any container format, and no decompressor: callers feed it
// bytes with SetInput, drive it with Deflate, and drain compressed bytes
// with Flush. Any compliant DEFLATE inflater,
// including the standard library's compress/flate, can reverse its output
// exactly.
package deflate
