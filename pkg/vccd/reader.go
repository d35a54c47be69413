package vccd

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Archive is a parsed, read-only view over a serialized archive.
type Archive struct {
	Data      []byte
	Header    *Header
	Directory []DirectoryRecord

	index   map[uint32]int
	mmapped bool
}

// Open maps an archive read-only and validates its structure.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned archive must be closed to release any mapping.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < HeaderSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		a, parseErr := parse(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return a, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parse(data, false)
}

// OpenReaderAt loads and validates an archive from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*Archive, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parse(data, false)
}

// Parse validates an in-memory archive. The archive keeps a reference to data.
func Parse(data []byte) (*Archive, error) {
	return parse(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrCorruptFile
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parse(data []byte, mmapped bool) (*Archive, error) {
	hdr, ok := decodeHeader(data)
	if !ok {
		return nil, ErrCorruptFile
	}
	if !hdr.Valid() {
		return nil, ErrInvalidMagic
	}
	if !hdr.Compatible() {
		return nil, fmt.Errorf("%w: version %d, block size %d", ErrUnsupportedVersion, hdr.Version, hdr.BlockSize)
	}
	if hdr.BlockCount < 0 || hdr.DirectoryCount < 0 || hdr.FirstBlockOffset < 0 {
		return nil, fmt.Errorf("%w: negative header field", ErrCorruptFile)
	}

	dirEnd := int64(HeaderSize) + int64(hdr.DirectoryCount)*DirectoryRecordSize
	if dirEnd > int64(hdr.FirstBlockOffset) {
		return nil, fmt.Errorf("%w: directory overlaps first block", ErrCorruptFile)
	}
	want := int64(hdr.FirstBlockOffset) + int64(hdr.BlockCount)*BlockSize
	if want != int64(len(data)) {
		return nil, fmt.Errorf("%w: file is %d bytes, header describes %d", ErrCorruptFile, len(data), want)
	}

	records := make([]DirectoryRecord, hdr.DirectoryCount)
	index := make(map[uint32]int, len(records))
	for i := range records {
		start := HeaderSize + i*DirectoryRecordSize
		rec, ok := decodeRecord(data[start : start+DirectoryRecordSize])
		if !ok {
			return nil, ErrCorruptFile
		}
		if int64(rec.Block) >= int64(hdr.BlockCount) {
			return nil, fmt.Errorf("%w: record %d block %d out of range", ErrCorruptFile, i, rec.Block)
		}
		if rec.End() > BlockSize {
			return nil, fmt.Errorf("%w: record %d overruns its block", ErrCorruptFile, i)
		}
		if _, dup := index[rec.Hash]; !dup {
			index[rec.Hash] = i
		}
		records[i] = rec
	}

	return &Archive{
		Data:      data,
		Header:    &hdr,
		Directory: records,
		index:     index,
		mmapped:   mmapped,
	}, nil
}

// Close releases any mmap backing.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	var err error
	if a.Data != nil && a.mmapped {
		err = unix.Munmap(a.Data)
	}
	a.Data = nil
	a.Header = nil
	a.Directory = nil
	a.index = nil
	a.mmapped = false
	return err
}

// Find returns the directory record for hash.
func (a *Archive) Find(hash uint32) (DirectoryRecord, bool) {
	if a == nil {
		return DirectoryRecord{}, false
	}
	i, ok := a.index[hash]
	if !ok {
		return DirectoryRecord{}, false
	}
	return a.Directory[i], true
}

// Block returns a zero-copy slice over block i.
func (a *Archive) Block(i int) []byte {
	if a == nil || a.Header == nil || i < 0 || i >= int(a.Header.BlockCount) {
		return nil
	}
	start := int(a.Header.FirstBlockOffset) + i*BlockSize
	return a.Data[start : start+BlockSize]
}

// Payload returns a zero-copy slice over the record's payload, terminator included.
// The caller must not retain this slice after Close.
func (a *Archive) Payload(rec DirectoryRecord) []byte {
	blk := a.Block(int(rec.Block))
	if blk == nil || rec.End() > len(blk) {
		return nil
	}
	return blk[rec.Offset:rec.End()]
}
