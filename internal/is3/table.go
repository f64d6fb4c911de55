package is3

import (
	"encoding/binary"
	"strings"
)

// ParseFileTable walks the file table of one archive and returns the
// file records with their payload offsets resolved, plus the directory
// records in declaration order.
//
// The table is two passes over variable-stride records: DirCount
// directory records, then FileCount file records immediately after.
// Truncated tables are common in damaged installers, so a record that
// would read past the buffer end stops its pass early and the records
// parsed so far are returned; there is no error.
func ParseFileTable(buf []byte, hdr Header) ([]FileRecord, []DirEntry) {
	size := uint64(len(buf))
	pos := hdr.Offset + uint64(hdr.NameOffset)

	dirs := make([]DirEntry, 0, hdr.DirCount)
	for i := 0; i < int(hdr.DirCount); i++ {
		if pos+dirEntryFixedSize > size {
			break
		}
		p := int(pos)
		fileCount := binary.LittleEndian.Uint16(buf[p:])
		blockLen := binary.LittleEndian.Uint16(buf[p+2:])
		nameLen := binary.LittleEndian.Uint16(buf[p+4:])
		if pos+dirEntryFixedSize+uint64(nameLen) > size {
			break
		}
		name := asciiString(buf[p+dirEntryFixedSize : p+dirEntryFixedSize+int(nameLen)])
		dirs = append(dirs, DirEntry{
			Name:      strings.TrimRight(name, "\x00"),
			FileCount: fileCount,
		})
		pos += uint64(blockLen)
	}

	// each directory claims the next FileCount files in table order
	dirForFile := make([]string, 0, hdr.FileCount)
	for _, d := range dirs {
		for j := 0; j < int(d.FileCount); j++ {
			dirForFile = append(dirForFile, d.Name)
		}
	}

	files := make([]FileRecord, 0, hdr.FileCount)
	for i := 0; i < int(hdr.FileCount); i++ {
		if pos+fileEntryFixedSize > size {
			break
		}
		p := int(pos)
		rec := FileRecord{
			CompressedSize: binary.LittleEndian.Uint32(buf[p+offCompressedSize:]),
			Date:           binary.LittleEndian.Uint16(buf[p+offFileDate:]),
			Time:           binary.LittleEndian.Uint16(buf[p+offFileTime:]),
		}
		blockLen := binary.LittleEndian.Uint16(buf[p+offFileBlockLen:])
		nameLen := int(buf[p+offFileNameLen])
		if pos+fileEntryFixedSize+uint64(nameLen) > size {
			break
		}
		name := asciiString(buf[p+fileEntryFixedSize : p+fileEntryFixedSize+nameLen])

		if i < len(dirForFile) && dirForFile[i] != "" {
			rec.Path = dirForFile[i] + "/" + name
		} else {
			rec.Path = name
		}
		files = append(files, rec)
		pos += uint64(blockLen)
	}

	// payloads sit back to back after the fixed table header
	offset := hdr.Offset + TableHeaderSize
	for i := range files {
		files[i].CompressedOffset = offset
		offset += uint64(files[i].CompressedSize)
	}

	return files, dirs
}

// asciiString interprets raw name bytes the way the installers wrote
// them: 7-bit ASCII, with anything above 0x7F dropped.
func asciiString(b []byte) string {
	s := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x80 {
			s = append(s, c)
		}
	}
	return string(s)
}
