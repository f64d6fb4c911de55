// Package dcl decompresses the PKWARE Data Compression Library "implode"
// format, the codec InstallShield 3.x uses for every file payload.
//
// A stream is two header bytes followed by a bit stream. The header
// selects raw or Huffman-coded literals and the dictionary size; the bit
// stream is a sequence of items, each flagged by one bit: 0 for a single
// literal byte, 1 for a length/distance copy from a sliding window of
// earlier output. A copy length of 519 marks the end of the stream.
//
// Reference: blast.c (Mark Adler's public decompressor for this format)
package dcl

import (
	"errors"
	"fmt"
)

// Decode failures. Any of them means the stream cannot be decompressed;
// none are recoverable mid-stream.
var (
	// ErrInvalidHeader is returned when the two header bytes do not
	// describe a valid stream (literal mode above 1, or a dictionary
	// size outside 4-6).
	ErrInvalidHeader = errors.New("dcl: invalid stream header")

	// ErrInvalidHuffmanCode is returned when maxBits stream bits fail to
	// form a code. The fixed tables are complete, so with inverted bits
	// this only happens on garbage input.
	ErrInvalidHuffmanCode = errors.New("dcl: invalid huffman code")

	// ErrUnexpectedEOF is returned when the stream runs out of bytes
	// before the end-of-stream length code.
	ErrUnexpectedEOF = errors.New("dcl: unexpected end of input")

	// ErrDistanceTooFar is returned when a copy reaches further back
	// than the output produced so far.
	ErrDistanceTooFar = errors.New("dcl: back-reference distance too far")
)

// decoder holds the state of one whole-stream decompression. Every call
// to Explode builds a fresh decoder, so decoders are never shared and
// concurrent Explode calls are independent.
type decoder struct {
	br  bitReader
	win slidingWindow
	out []byte

	coded    bool // literals are Huffman coded (header byte 0)
	dictBits uint // raw distance bits for copies longer than 2 (header byte 1)

	literals  *huffmanTable // built only when coded
	lengths   *huffmanTable
	distances *huffmanTable
}

// Explode decompresses one complete implode stream and returns the
// decoded bytes. The input must contain exactly one stream; trailing
// bytes after the end-of-stream code are ignored.
func Explode(data []byte) ([]byte, error) {
	d := &decoder{br: bitReader{data: data}}
	if err := d.readHeader(); err != nil {
		return nil, err
	}
	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.out, nil
}

// readHeader consumes the two header bytes and builds the code tables
// the stream will need.
func (d *decoder) readHeader() error {
	lit, err := d.br.bits(8)
	if err != nil {
		return fmt.Errorf("failed to read literal mode: %w", err)
	}
	if lit > 1 {
		return fmt.Errorf("%w: literal mode %d", ErrInvalidHeader, lit)
	}
	d.coded = lit == 1

	dict, err := d.br.bits(8)
	if err != nil {
		return fmt.Errorf("failed to read dictionary size: %w", err)
	}
	if dict < minDictBits || dict > maxDictBits {
		return fmt.Errorf("%w: dictionary size %d", ErrInvalidHeader, dict)
	}
	d.dictBits = uint(dict)

	if d.coded {
		d.literals = newHuffmanTable(literalCodeLengths[:])
	}
	d.lengths = newHuffmanTable(lengthCodeLengths[:])
	d.distances = newHuffmanTable(distanceCodeLengths[:])

	return nil
}

// decode runs the literal/copy loop until the end-of-stream code.
func (d *decoder) decode() error {
	for {
		flag, err := d.br.bits(1)
		if err != nil {
			return err
		}

		if flag == 0 {
			b, err := d.literal()
			if err != nil {
				return err
			}
			d.emit(b)
			continue
		}

		length, err := d.matchLength()
		if err != nil {
			return err
		}
		if length == endOfStream {
			return nil
		}

		dist, err := d.matchDistance(length)
		if err != nil {
			return err
		}

		// copy one byte at a time so a copy may overlap its own output
		// (dist 1, length n repeats the last byte n times)
		for ; length > 0; length-- {
			b, err := d.win.readBack(dist)
			if err != nil {
				return fmt.Errorf("corrupt stream: %w", err)
			}
			d.emit(b)
		}
	}
}

// literal decodes one literal byte in whichever mode the header selected.
func (d *decoder) literal() (byte, error) {
	if d.coded {
		sym, err := d.literals.decode(&d.br)
		if err != nil {
			return 0, err
		}
		return byte(sym), nil
	}
	raw, err := d.br.bits(8)
	if err != nil {
		return 0, err
	}
	return byte(raw), nil
}

// matchLength decodes one copy length: a base value selected by the
// length code plus 0-8 raw bits. The result may be endOfStream.
func (d *decoder) matchLength() (int, error) {
	sym, err := d.lengths.decode(&d.br)
	if err != nil {
		return 0, err
	}
	extra, err := d.br.bits(lengthExtraBits[sym])
	if err != nil {
		return 0, err
	}
	return lengthBase[sym] + int(extra), nil
}

// matchDistance decodes the distance for a copy of the given length: a
// distance code selecting the high bits plus raw low bits. Copies of
// length 2 always carry 2 raw bits; all others carry dictBits.
func (d *decoder) matchDistance(length int) (int, error) {
	sym, err := d.distances.decode(&d.br)
	if err != nil {
		return 0, err
	}

	extraBits := d.dictBits
	if length == 2 {
		extraBits = 2
	}
	extra, err := d.br.bits(extraBits)
	if err != nil {
		return 0, err
	}

	return (sym << extraBits) + int(extra) + 1, nil
}

// emit appends one decoded byte to both the output and the window.
func (d *decoder) emit(b byte) {
	d.win.push(b)
	d.out = append(d.out, b)
}
