package is3

// Signature marks the start of an InstallShield 3.x archive inside a
// self-extracting installer executable.
var Signature = []byte{0x13, 0x5D, 0x65, 0x8C}

// Archive header fields, little endian at fixed offsets from the
// signature:
//
//	+0x0C  file_count   u16
//	+0x12  archive_len  u32
//	+0x29  name_offset  u32
//	+0x31  dir_count    u16
//
// headerSpan covers through the last field; a signature match without
// that much buffer left is not an archive.
const (
	offFileCount  = 0x0C
	offArchiveLen = 0x12
	offNameOffset = 0x29
	offDirCount   = 0x31
	headerSpan    = 0x33
)

// TableHeaderSize is the fixed distance from the archive base to the
// first compressed payload. Payloads are stored back to back from there
// in file-table order, so each file's offset is the running sum of the
// compressed sizes before it.
const TableHeaderSize = 0xFF

// Directory records at the file table start: u16 file_count, u16
// block_len, u16 name_len, then name_len name bytes. block_len is the
// full record stride.
const dirEntryFixedSize = 6

// File records follow the directory records, little endian at fixed
// offsets from the record start:
//
//	+0x07  compressed_size  u32
//	+0x0F  date             u16 (MS-DOS packed)
//	+0x11  time             u16 (MS-DOS packed)
//	+0x17  block_len        u16 (full record stride)
//	+0x1D  name_len         u8
//	+0x1E  name bytes
const (
	fileEntryFixedSize = 0x1E
	offCompressedSize  = 0x07
	offFileDate        = 0x0F
	offFileTime        = 0x11
	offFileBlockLen    = 0x17
	offFileNameLen     = 0x1D
)
