package is3

import "time"

// Header describes one archive found inside a self-extracting
// installer. An installer may carry several archives back to back
// (setup bootstrap files in one, product files in another).
type Header struct {
	Offset     uint64 // absolute position of the signature in the scanned buffer
	FileCount  uint16 // number of file records in the file table
	ArchiveLen uint32 // declared archive length; informational only, never used for layout
	NameOffset uint32 // archive-relative position of the file table
	DirCount   uint16 // number of directory records ahead of the file records
}

// DirEntry is one directory record from the file table. Directories
// claim files by count, not by reference: the first FileCount unclaimed
// files in table order belong to this directory.
type DirEntry struct {
	Name      string
	FileCount uint16
}

// FileRecord describes one stored file and where its compressed payload
// lives in the scanned buffer.
type FileRecord struct {
	Path             string // directory-qualified path, '/' separated
	CompressedSize   uint32
	Date             uint16 // MS-DOS packed date
	Time             uint16 // MS-DOS packed time
	CompressedOffset uint64 // absolute position of the payload in the scanned buffer
}

// ModTime decodes the record's MS-DOS timestamp:
//
//	date: bits 15-9 years since 1980, bits 8-5 month, bits 4-0 day
//	time: bits 15-11 hour, bits 10-5 minute, bits 4-0 seconds/2
//
// Month and day are 1-based; a record with either at zero, or a month
// past December, carries no usable timestamp and decodes to the zero
// time. The all-zero date of an unstamped record falls under the same
// rule.
func (r FileRecord) ModTime() time.Time {
	month := time.Month((r.Date >> 5) & 0x0F)
	day := int(r.Date & 0x1F)
	if month < time.January || month > time.December || day == 0 {
		return time.Time{}
	}
	return time.Date(
		1980+int(r.Date>>9),
		month,
		day,
		int(r.Time>>11),
		int((r.Time>>5)&0x3F),
		2*int(r.Time&0x1F),
		0,
		time.UTC,
	)
}
