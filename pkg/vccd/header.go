package vccd

import "encoding/binary"

// FirstBlockOffset returns where block payloads start for a directory of
// entryCount records. The result always moves past the next 512-byte
// boundary, even when header and directory already end on one; the engine
// loader expects that layout.
func FirstBlockOffset(entryCount int) int32 {
	raw := HeaderSize + entryCount*DirectoryRecordSize
	return int32((raw/BlockAlign + 1) * BlockAlign)
}

func (h *Header) Valid() bool {
	return string(h.Magic[:]) == Magic
}

func (h *Header) Compatible() bool {
	return h.Version == Version && h.BlockSize == BlockSize
}

func encodeHeader(dst []byte, h Header) bool {
	if len(dst) < HeaderSize {
		return false
	}
	copy(dst[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(dst[4:8], uint32(h.Version))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(h.BlockCount))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(h.BlockSize))
	binary.LittleEndian.PutUint32(dst[16:20], uint32(h.DirectoryCount))
	binary.LittleEndian.PutUint32(dst[20:24], uint32(h.FirstBlockOffset))
	return true
}

func decodeHeader(src []byte) (Header, bool) {
	if len(src) < HeaderSize {
		return Header{}, false
	}
	var h Header
	copy(h.Magic[:], src[0:4])
	h.Version = int32(binary.LittleEndian.Uint32(src[4:8]))
	h.BlockCount = int32(binary.LittleEndian.Uint32(src[8:12]))
	h.BlockSize = int32(binary.LittleEndian.Uint32(src[12:16]))
	h.DirectoryCount = int32(binary.LittleEndian.Uint32(src[16:20]))
	h.FirstBlockOffset = int32(binary.LittleEndian.Uint32(src[20:24]))
	return h, true
}
