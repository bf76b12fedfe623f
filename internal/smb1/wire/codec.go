package wire

import (
	"encoding/binary"
	"time"
	"unicode/utf16"
)

// readU8 reads a single byte at off.
func readU8(buf []byte, off int) uint8 { return buf[off] }

func readU16LE(buf []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(buf[off : off+2])
}

func readU32LE(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

func readU64LE(buf []byte, off int) uint64 {
	return binary.LittleEndian.Uint64(buf[off : off+8])
}

func putU16LE(buf []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(buf[off:off+2], v)
}

func putU32LE(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

func putU64LE(buf []byte, off int, v uint64) {
	binary.LittleEndian.PutUint64(buf[off:off+8], v)
}

// ReadU16LE, ReadU32LE and ReadU64LE are the exported forms used by command
// handlers to parse request parameter blocks.
func ReadU16LE(buf []byte, off int) uint16 { return readU16LE(buf, off) }
func ReadU32LE(buf []byte, off int) uint32 { return readU32LE(buf, off) }
func ReadU64LE(buf []byte, off int) uint64 { return readU64LE(buf, off) }

// PutU16LE, PutU32LE and PutU64LE are the exported little-endian writers.
func PutU16LE(buf []byte, off int, v uint16) { putU16LE(buf, off, v) }
func PutU32LE(buf []byte, off int, v uint32) { putU32LE(buf, off, v) }
func PutU64LE(buf []byte, off int, v uint64) { putU64LE(buf, off, v) }

// ExtractUnicodeString reads a null-terminated UTF-16LE string starting at
// off, returning the raw code-unit bytes (excluding the two-byte
// terminator) and the offset just past the terminator.
func ExtractUnicodeString(buf []byte, off int) (raw []byte, next int) {
	start := off
	for off+1 < len(buf) {
		if buf[off] == 0 && buf[off+1] == 0 {
			return buf[start:off], off + 2
		}
		off += 2
	}
	return buf[start:], len(buf)
}

// DecodeUTF16LE converts raw UTF-16LE bytes (as returned by
// ExtractUnicodeString) into a Go string.
func DecodeUTF16LE(raw []byte) string {
	u16 := make([]uint16, len(raw)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(raw[i*2 : i*2+2])
	}
	return string(utf16.Decode(u16))
}

// EncodeUTF16LE converts a Go string into null-terminated UTF-16LE bytes
// suitable for embedding in a response.
func EncodeUTF16LE(s string) []byte {
	u16 := utf16.Encode([]rune(s))
	out := make([]byte, len(u16)*2+2)
	for i, v := range u16 {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], v)
	}
	return out
}

// PadToAlign returns the number of padding bytes needed so that
// absoluteOffset+return is a multiple of alignment (default use: 2-byte
// UTF-16LE alignment relative to the start of the SMB header).
func PadToAlign(absoluteOffset int, alignment int) int {
	rem := absoluteOffset % alignment
	if rem == 0 {
		return 0
	}
	return alignment - rem
}

// smbEpoch is 1601-01-01 00:00:00 UTC, the origin of SMB's 100-ns tick clock.
var smbEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

// SystemToSMBTime converts epoch milliseconds (Unix ms) to SMB time: 64-bit
// 100-ns ticks since 1601-01-01 UTC. The conversion is plain integer
// arithmetic on milliseconds, since the span back to 1601 is longer than a
// time.Duration can hold.
func SystemToSMBTime(epochMs int64) uint64 {
	return uint64(epochMs-smbEpoch.UnixMilli()) * 10000
}

// SMBToSystemTime inverts SystemToSMBTime, returning epoch milliseconds.
func SMBToSystemTime(ticks uint64) int64 {
	return int64(ticks/10000) + smbEpoch.UnixMilli()
}
