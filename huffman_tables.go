package deflate

// Alphabet sizes and limits, RFC 1951 §3.2.5-3.2.7. maxNumLit covers the
// 256 literal bytes, the 29 length codes (257-285), and the end-of-block
// marker (256); maxNumDist covers the 30 distance codes 0-29 (the RFC's
// codes 30 and 31 never occur in compressed data, hence the alphabet
// stopping at 30 rather than 32).
const (
	maxNumLit  = 286
	maxNumDist = 30
	numCLCodes = 19 // code-length alphabet, RFC 1951 §3.2.7

	maxBLBits     = 15 // literal/length and distance codes
	maxCLBits     = 7  // code-length alphabet
	endOfBlock    = 256
	minMatch      = 3
	maxMatch      = 258
	repeat3_6     = 16 // copy previous code length 3-6 times
	repeatZ3_10   = 17 // repeat a zero length 3-10 times
	repeatZ11_138 = 18 // repeat a zero length 11-138 times

	// fixedLitAlphabetSize is the size of the static literal/length code
	// table RFC 1951 §3.2.6 defines: 288 entries, though only 286 are ever
	// assigned to real symbols (286 and 287 are unused padding the RFC
	// still specifies lengths for).
	fixedLitAlphabetSize = 288
)

// codeOrder is the fixed transmission order of code-length-alphabet code
// lengths, RFC 1951 §3.2.7. Copied verbatim from the teacher's
// internal/flate/inflate.go package-level var of the same name: this is an
// RFC-mandated constant, not a design choice, so an identical literal is
// expected.
var codeOrder = [numCLCodes]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// lengthCodeTable maps a match length (3..258) to its length-code symbol.
// Together with lengthExtraBitsTable/lengthBaseTable they implement RFC
// 1951 §3.2.5's length table. Index is length-3.
var lengthCodeTable [maxMatch - minMatch + 1]uint16
var lengthExtraBitsTable [maxMatch - minMatch + 1]uint8
var lengthBaseTable [maxMatch - minMatch + 1]uint16 // base length encoded by this symbol

// distExtraBits/distBase give the extra-bit count and base distance for
// each of the 30 distance symbols; distSymbol maps a distance (1..32768)
// to its symbol through them.
var distExtraBits [maxNumDist]uint8
var distBase [maxNumDist]uint16

// The length table from RFC 1951 §3.2.5: each entry is (extra bits, base
// length) for consecutive length codes starting at 257.
var lengthCodeDefs = [29]struct {
	extra uint8
	base  uint16
}{
	{0, 3}, {0, 4}, {0, 5}, {0, 6}, {0, 7}, {0, 8}, {0, 9}, {0, 10},
	{1, 11}, {1, 13}, {1, 15}, {1, 17},
	{2, 19}, {2, 23}, {2, 27}, {2, 31},
	{3, 35}, {3, 43}, {3, 51}, {3, 59},
	{4, 67}, {4, 83}, {4, 99}, {4, 115},
	{5, 131}, {5, 163}, {5, 195}, {5, 227},
	{0, 258},
}

// The distance table from RFC 1951 §3.2.5: (extra bits, base distance) for
// the 30 distance codes.
var distCodeDefs = [maxNumDist]struct {
	extra uint8
	base  uint16
}{
	{0, 1}, {0, 2}, {0, 3}, {0, 4},
	{1, 5}, {1, 7},
	{2, 9}, {2, 13},
	{3, 17}, {3, 25},
	{4, 33}, {4, 49},
	{5, 65}, {5, 97},
	{6, 129}, {6, 193},
	{7, 257}, {7, 385},
	{8, 513}, {8, 769},
	{9, 1025}, {9, 1537},
	{10, 2049}, {10, 3073},
	{11, 4097}, {11, 6145},
	{12, 8193}, {12, 12289},
	{13, 16385}, {13, 24577},
}

func init() {
	for code, def := range lengthCodeDefs {
		count := 1 << def.extra
		for i := 0; i < count; i++ {
			idx := int(def.base) - minMatch + i
			if idx > maxMatch-minMatch {
				break
			}
			lengthCodeTable[idx] = uint16(257 + code)
			lengthExtraBitsTable[idx] = def.extra
			lengthBaseTable[idx] = def.base
		}
	}

	for i, def := range distCodeDefs {
		distExtraBits[i] = def.extra
		distBase[i] = def.base
	}
}

// lengthSymbol returns the length-code symbol (257..285) and extra-bit
// count/value for a match of the given length (3..258).
func lengthSymbol(length int) (sym uint16, extraBits uint8, extraVal uint16) {
	idx := length - minMatch
	sym = lengthCodeTable[idx]
	extraBits = lengthExtraBitsTable[idx]
	extraVal = uint16(length) - lengthBaseTable[idx]
	return
}

// distSymbol returns the distance-code symbol (0..29) and extra-bit
// count/value for a back-reference distance (1..32768).
func distSymbol(dist int) (sym uint8, extraBits uint8, extraVal uint16) {
	d := uint16(dist - 1)
	// Linear scan from the top of the 30-entry base table; larger
	// distances are no less common in natural data, and the table is small
	// enough that a second indirection table isn't worth building.
	for i := maxNumDist - 1; i >= 0; i-- {
		if d >= distBase[i]-1 {
			sym = uint8(i)
			extraBits = distExtraBits[i]
			extraVal = d - (distBase[i] - 1)
			return
		}
	}
	return 0, distExtraBits[0], d
}

// fixedLiteralLengths and fixedDistLengths are the static Huffman code
// lengths of RFC 1951 §3.2.6, copied verbatim from the teacher's
// fixedHuffmanDecoderInit (internal/flate/inflate.go): 8 bits for literals
// 0-143, 9 bits for 144-255, 7 bits for the length codes 256-279, and 8
// bits for 280-287. Distances all use 5 bits.
func fixedLiteralLengths() [fixedLitAlphabetSize]int {
	var bits [fixedLitAlphabetSize]int
	for i := 0; i < 144; i++ {
		bits[i] = 8
	}
	for i := 144; i < 256; i++ {
		bits[i] = 9
	}
	for i := 256; i < 280; i++ {
		bits[i] = 7
	}
	for i := 280; i < 288; i++ {
		bits[i] = 8
	}
	return bits
}

func fixedDistLengths() [maxNumDist]int {
	var bits [maxNumDist]int
	for i := range bits {
		bits[i] = 5
	}
	return bits
}
