package vccd

import "encoding/binary"

// BuildDirectory emits one record per placement, in block order and then
// placement order within each block. The directory is deliberately not
// sorted by hash.
func BuildDirectory(blocks []Block) []DirectoryRecord {
	n := 0
	for i := range blocks {
		n += len(blocks[i].Placements)
	}
	records := make([]DirectoryRecord, 0, n)
	for i := range blocks {
		for _, p := range blocks[i].Placements {
			records = append(records, DirectoryRecord{
				Hash:   p.Hash,
				Block:  uint32(i),
				Offset: p.Offset,
				Length: p.Length,
			})
		}
	}
	return records
}

// EncodeDirectory serializes records using explicit little-endian encoding.
func EncodeDirectory(records []DirectoryRecord) []byte {
	out := make([]byte, len(records)*DirectoryRecordSize)
	for i, r := range records {
		encodeRecord(out[i*DirectoryRecordSize:], r)
	}
	return out
}

func encodeRecord(dst []byte, r DirectoryRecord) bool {
	if len(dst) < DirectoryRecordSize {
		return false
	}
	binary.LittleEndian.PutUint32(dst[0:4], r.Hash)
	binary.LittleEndian.PutUint32(dst[4:8], r.Block)
	binary.LittleEndian.PutUint16(dst[8:10], r.Offset)
	binary.LittleEndian.PutUint16(dst[10:12], r.Length)
	return true
}

func decodeRecord(src []byte) (DirectoryRecord, bool) {
	if len(src) < DirectoryRecordSize {
		return DirectoryRecord{}, false
	}
	return DirectoryRecord{
		Hash:   binary.LittleEndian.Uint32(src[0:4]),
		Block:  binary.LittleEndian.Uint32(src[4:8]),
		Offset: binary.LittleEndian.Uint16(src[8:10]),
		Length: binary.LittleEndian.Uint16(src[10:12]),
	}, true
}
