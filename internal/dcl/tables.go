package dcl

// Stream limits fixed by the DCL implode format.
const (
	// maxBits is the longest Huffman code used by any of the three
	// fixed code tables.
	maxBits = 13

	// windowSize is the largest dictionary the format supports. Smaller
	// dictionaries (1 and 2 KiB) still decode through a 4 KiB window;
	// they just never produce distances that reach past their own size.
	windowSize = 4096

	// minDictBits and maxDictBits bound the dictionary-size header byte,
	// expressed as the number of raw distance bits (4 = 1 KiB, 5 = 2 KiB,
	// 6 = 4 KiB).
	minDictBits = 4
	maxDictBits = 6

	// endOfStream is the copy length that terminates a stream. It is the
	// largest value the length code can express (264 + 255) and never
	// describes a real copy.
	endOfStream = 519
)

// The three Huffman code tables are fixed by the format and shipped in a
// packed run-length form: in each byte the low nibble is a code length in
// bits and the high nibble is a repeat count minus one. Symbols are
// implicitly numbered 0..n-1 in the order the runs appear.
//
// Reference: blast.c construct(), PKWARE Data Compression Library

// literalCodeLengths packs the code lengths for the 256 literal symbols,
// used only when the header selects coded literals. The lengths mirror
// ASCII frequency: common letters get 5-6 bits, high bytes up to 13.
var literalCodeLengths = [...]byte{
	11, 124, 8, 7, 28, 7, 188, 13, 76, 4, 10, 8, 12, 10, 12, 10, 8, 23, 8,
	9, 7, 6, 7, 8, 7, 6, 55, 8, 23, 24, 12, 11, 7, 9, 11, 12, 6, 7, 22, 5,
	7, 24, 6, 11, 9, 6, 7, 22, 7, 11, 38, 7, 9, 8, 25, 11, 8, 11, 9, 12,
	8, 12, 5, 38, 5, 38, 5, 11, 7, 5, 6, 21, 6, 10, 53, 8, 7, 24, 10, 27,
	44, 253, 253, 253, 252, 252, 252, 13, 12, 45, 12, 45, 12, 61, 12, 45,
	44, 173,
}

// lengthCodeLengths packs the code lengths for the 16 copy-length symbols.
var lengthCodeLengths = [...]byte{2, 35, 36, 53, 38, 23}

// distanceCodeLengths packs the code lengths for the 64 distance symbols.
var distanceCodeLengths = [...]byte{2, 20, 53, 230, 247, 151, 248}

// lengthBase and lengthExtraBits map a decoded length symbol to its copy
// length: base value plus that many raw bits from the stream. Symbol 0
// decodes to 3 and symbol 1 to 2; the most frequent length gets the
// shortest code, so the two smallest lengths sit out of order.
var (
	lengthBase      = [16]int{3, 2, 4, 5, 6, 7, 8, 9, 10, 12, 16, 24, 40, 72, 136, 264}
	lengthExtraBits = [16]uint{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8}
)
