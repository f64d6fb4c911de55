package is3

import (
	"bytes"
	"encoding/binary"
	"iter"
)

// Scan finds every archive in buf and yields one Header per hit, in
// ascending offset order. The sequence is lazy and can be ranged over
// more than once.
//
// Scanning resumes right after each signature instead of skipping the
// declared archive length; declared lengths in shipped installers are
// not reliable enough to step by. A signature too close to the buffer
// end to hold the header fields is skipped silently.
func Scan(buf []byte) iter.Seq[Header] {
	return func(yield func(Header) bool) {
		pos := 0
		for {
			i := bytes.Index(buf[pos:], Signature)
			if i < 0 {
				return
			}
			start := pos + i
			pos = start + len(Signature)

			if start+headerSpan > len(buf) {
				continue
			}
			if !yield(readHeader(buf, start)) {
				return
			}
		}
	}
}

// readHeader extracts the header fields at a signature position already
// validated to have headerSpan bytes of room.
func readHeader(buf []byte, start int) Header {
	return Header{
		Offset:     uint64(start),
		FileCount:  binary.LittleEndian.Uint16(buf[start+offFileCount:]),
		ArchiveLen: binary.LittleEndian.Uint32(buf[start+offArchiveLen:]),
		NameOffset: binary.LittleEndian.Uint32(buf[start+offNameOffset:]),
		DirCount:   binary.LittleEndian.Uint16(buf[start+offDirCount:]),
	}
}
