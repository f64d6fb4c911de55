package dcl

// huffmanTable decodes one family of canonical Huffman codes (literals,
// copy lengths or copy distances).
//
// Only the number of codes per bit length and the symbols sorted by
// (length, symbol value) are stored; the codes themselves are implied.
// Canonical ordering means codes of the same length are consecutive
// integers and each length's first code follows from the previous
// length's last code shifted up one bit.
//
// Reference: blast.c struct huffman
type huffmanTable struct {
	count  [maxBits + 1]int // codes per bit length, count[0] unused
	symbol []int            // symbols ordered by (code length, symbol value)
}

// newHuffmanTable builds a decoding table from a packed run-length code
// specification (see the table definitions for the byte layout).
//
// Construction:
//  1. Expand the packed runs into one code length per symbol.
//  2. Count the codes of each length.
//  3. Turn the counts into offsets into the sorted symbol list.
//  4. Drop each symbol into its slot; length 0 symbols are unused codes
//     and get no slot.
//
// The fixed tables are known to be complete, so no over/under-subscription
// check is performed.
//
// Reference: blast.c construct()
func newHuffmanTable(packed []byte) *huffmanTable {
	lengths := make([]int, 0, 256)
	for _, b := range packed {
		repeat := int(b>>4) + 1
		length := int(b & 15)
		for ; repeat > 0; repeat-- {
			lengths = append(lengths, length)
		}
	}

	t := &huffmanTable{symbol: make([]int, len(lengths))}
	for _, length := range lengths {
		t.count[length]++
	}

	var offs [maxBits + 1]int
	for length := 1; length < maxBits; length++ {
		offs[length+1] = offs[length] + t.count[length]
	}

	for sym, length := range lengths {
		if length != 0 {
			t.symbol[offs[length]] = sym
			offs[length]++
		}
	}

	return t
}

// decode reads bits from r until they form a complete code and returns
// its symbol.
//
// The stream stores each code bit inverted, so every bit is XORed with 1
// as it is shifted in. code, first and index walk the canonical code
// space one bit length at a time: first is the first code of the current
// length, index the position of that length's first symbol.
//
// Reference: blast.c decode()
func (t *huffmanTable) decode(r *bitReader) (int, error) {
	code, first, index := 0, 0, 0
	for length := 1; length <= maxBits; length++ {
		b, err := r.bits(1)
		if err != nil {
			return 0, err
		}
		code |= int(b) ^ 1 // stream bits are inverted

		count := t.count[length]
		if code < first+count {
			return t.symbol[index+code-first], nil
		}
		index += count
		first = (first + count) << 1
		code <<= 1
	}
	return 0, ErrInvalidHuffmanCode
}
