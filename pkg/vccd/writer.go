package vccd

import (
	"bytes"
	"errors"
	"io"
)

// File is a fully built archive held in memory.
type File struct {
	Header    Header
	Directory []DirectoryRecord
	Blocks    []Block
}

// Build runs the whole pipeline: encode, pack, build the directory and
// assemble the header. Collisions tolerated via opts are returned alongside.
func Build(captions map[string]string, opts EncodeOptions) (*File, []Collision, error) {
	entries, collisions, err := Encode(captions, opts)
	if err != nil {
		return nil, nil, err
	}
	blocks, err := PackBlocks(entries)
	if err != nil {
		return nil, nil, err
	}
	return Assemble(blocks, BuildDirectory(blocks)), collisions, nil
}

// Assemble computes the header for an already packed set of blocks.
func Assemble(blocks []Block, directory []DirectoryRecord) *File {
	f := &File{
		Directory: directory,
		Blocks:    blocks,
	}
	copy(f.Header.Magic[:], Magic)
	f.Header.Version = Version
	f.Header.BlockCount = int32(len(blocks))
	f.Header.BlockSize = BlockSize
	f.Header.DirectoryCount = int32(len(directory))
	f.Header.FirstBlockOffset = FirstBlockOffset(len(directory))
	return f
}

// Size returns the serialized length in bytes.
func (f *File) Size() int64 {
	return int64(f.Header.FirstBlockOffset) + int64(len(f.Blocks))*BlockSize
}

// MarshalBinary serializes the archive.
func (f *File) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(f.Size()))
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo streams the archive to w: header, directory, zero padding up to
// the first block offset, then every block.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	dir := EncodeDirectory(f.Directory)
	pad := int(f.Header.FirstBlockOffset) - HeaderSize - len(dir)
	if pad < 0 {
		return 0, errors.New("vccd: first block offset overlaps directory")
	}

	cw := &countingWriter{w: w}

	var hdr [HeaderSize]byte
	if !encodeHeader(hdr[:], f.Header) {
		return 0, errors.New("vccd: encode header failed")
	}
	if err := writeFull(cw, hdr[:]); err != nil {
		return cw.n, err
	}
	if err := writeFull(cw, dir); err != nil {
		return cw.n, err
	}
	if err := writeZeros(cw, pad); err != nil {
		return cw.n, err
	}
	for i := range f.Blocks {
		data := f.Blocks[i].Data
		if len(data) != BlockSize {
			return cw.n, errors.New("vccd: block not padded to block size")
		}
		if err := writeFull(cw, data); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

var zeroPad [BlockAlign]byte

func writeZeros(w io.Writer, n int) error {
	for n > 0 {
		toWrite := min(n, len(zeroPad))
		if err := writeFull(w, zeroPad[:toWrite]); err != nil {
			return err
		}
		n -= toWrite
	}
	return nil
}
