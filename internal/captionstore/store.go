package captionstore

import (
	"encoding/hex"
	"errors"

	"github.com/zeebo/blake3"

	"github.com/samcharles93/vccd/pkg/vccd"
)

var ErrCaptionNotFound = errors.New("captionstore: caption not found")

// Store is a name-based view over a compiled caption archive.
type Store struct {
	archive *vccd.Archive
}

type EntryInfo struct {
	Hash   uint32
	Block  uint32
	Offset uint16
	Length uint16
}

func Open(path string) (*Store, error) {
	a, err := vccd.Open(path)
	if err != nil {
		return nil, err
	}
	return &Store{archive: a}, nil
}

// FromBytes wraps an in-memory archive.
func FromBytes(data []byte) (*Store, error) {
	a, err := vccd.Parse(data)
	if err != nil {
		return nil, err
	}
	return &Store{archive: a}, nil
}

func (s *Store) Close() error {
	if s == nil || s.archive == nil {
		return nil
	}
	err := s.archive.Close()
	s.archive = nil
	return err
}

func (s *Store) Header() vccd.Header {
	if s == nil || s.archive == nil {
		return vccd.Header{}
	}
	return *s.archive.Header
}

// Lookup returns the caption text stored for name. Names are case-insensitive.
func (s *Store) Lookup(name string) (string, error) {
	return s.LookupHash(vccd.HashName(name))
}

func (s *Store) LookupHash(hash uint32) (string, error) {
	if s == nil || s.archive == nil {
		return "", ErrCaptionNotFound
	}
	rec, ok := s.archive.Find(hash)
	if !ok {
		return "", ErrCaptionNotFound
	}
	return vccd.DecodeText(s.archive.Payload(rec))
}

// Entries lists the directory in on-disk order.
func (s *Store) Entries() []EntryInfo {
	if s == nil || s.archive == nil {
		return nil
	}
	out := make([]EntryInfo, len(s.archive.Directory))
	for i, r := range s.archive.Directory {
		out[i] = EntryInfo{Hash: r.Hash, Block: r.Block, Offset: r.Offset, Length: r.Length}
	}
	return out
}

// BlockUsage returns the payload bytes used in each block.
func (s *Store) BlockUsage() []int {
	if s == nil || s.archive == nil {
		return nil
	}
	used := make([]int, s.archive.Header.BlockCount)
	for _, r := range s.archive.Directory {
		used[r.Block] += int(r.Length)
	}
	return used
}

// Size returns the archive length in bytes.
func (s *Store) Size() int {
	if s == nil || s.archive == nil {
		return 0
	}
	return len(s.archive.Data)
}

// Raw exposes the archive bytes. The slice must not be retained after Close.
func (s *Store) Raw() []byte {
	if s == nil || s.archive == nil {
		return nil
	}
	return s.archive.Data
}

// Digest returns the hex BLAKE3-256 of the archive bytes.
func (s *Store) Digest() string {
	sum := blake3.Sum256(s.Raw())
	return hex.EncodeToString(sum[:])
}
