// Package vccd implements the compiled closed-caption archive format.
//
// A VCCD archive is a fixed 24-byte header, a flat directory of 12-byte
// lookup records, zero padding up to a 512-byte boundary, and a run of
// fixed-size blocks holding UTF-16LE caption payloads. All integers are
// little-endian.
package vccd

// VCCD global constants must never change.
const (
	// Magic is the file magic for all caption archives.
	Magic = "VCCD"

	// Version is the only archive version the engine loader accepts.
	Version int32 = 1

	// BlockSize is the fixed size of every payload block.
	BlockSize = 8192

	// HeaderSize covers magic, version, block count, block size,
	// directory count and first block offset.
	HeaderSize = 24

	// DirectoryRecordSize is the on-disk size of one DirectoryRecord.
	DirectoryRecordSize = 12

	// BlockAlign is the boundary the first block is rounded up to.
	BlockAlign = 512
)

// Header is the decoded fixed header of an archive.
type Header struct {
	Magic            [4]byte
	Version          int32
	BlockCount       int32
	BlockSize        int32
	DirectoryCount   int32
	FirstBlockOffset int32
}

// Entry is one encoded caption ready for packing.
type Entry struct {
	Hash    uint32
	Name    string
	Payload []byte
}

// Placement records where an entry's payload landed inside a block.
type Placement struct {
	Hash   uint32
	Offset uint16
	Length uint16
}

// Block is a fixed-size payload buffer plus the placements written into it,
// in write order.
type Block struct {
	Data       []byte
	Placements []Placement
}

// DirectoryRecord locates one caption payload inside the archive.
type DirectoryRecord struct {
	Hash   uint32
	Block  uint32
	Offset uint16
	Length uint16
}

// End returns the first byte after the payload, relative to its block.
func (r DirectoryRecord) End() int {
	return int(r.Offset) + int(r.Length)
}

// Collision describes a name dropped because another name hashed identically.
type Collision struct {
	Hash    uint32
	Kept    string
	Dropped string
}
