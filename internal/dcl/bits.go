package dcl

// bitReader draws bits from a byte buffer, least significant bit first.
//
// Whole bytes are pulled into an accumulator as needed and stacked above
// the bits already buffered, so a multi-bit read returns a value whose
// low bits arrived earliest in the stream.
//
// Reference: blast.c bits()
type bitReader struct {
	data   []byte
	pos    int    // next unread byte in data
	bitbuf uint32 // buffered bits, earliest bit lowest
	bitcnt uint   // number of valid bits in bitbuf
}

// bits returns the next need bits of the stream, up to 16 per call.
// Reading need == 0 bits is allowed and returns 0. Once the buffer is
// exhausted it fails with ErrUnexpectedEOF.
func (r *bitReader) bits(need uint) (uint32, error) {
	val := r.bitbuf
	for r.bitcnt < need {
		if r.pos >= len(r.data) {
			return 0, ErrUnexpectedEOF
		}
		val |= uint32(r.data[r.pos]) << r.bitcnt
		r.pos++
		r.bitcnt += 8
	}

	// drop the consumed bits, keep the rest for the next call
	r.bitbuf = val >> need
	r.bitcnt -= need

	return val & (1<<need - 1), nil
}
