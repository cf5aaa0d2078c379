package packets

import "encoding/binary"

// decodeUint32 extracts a little-endian uint32. The caller guarantees
// len(buf) >= 4.
func decodeUint32(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}

// decodeUint64 extracts a little-endian uint64. The caller guarantees
// len(buf) >= 8.
func decodeUint64(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf)
}

// putUint32 writes a little-endian uint32.
func putUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

// putUint64 writes a little-endian uint64.
func putUint64(buf []byte, v uint64) {
	binary.LittleEndian.PutUint64(buf, v)
}
