package vccd

import (
	"fmt"
	"hash/crc32"
	"sort"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// EncodeOptions controls how caption pairs are turned into entries.
type EncodeOptions struct {
	// AllowCollisions keeps going when two names share a hash. The
	// lexicographically later name wins and the loss is reported as a Collision.
	AllowCollisions bool
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// HashName returns the lookup hash the engine computes for a caption name.
func HashName(name string) uint32 {
	return crc32.ChecksumIEEE([]byte(strings.ToLower(name)))
}

// EncodeText encodes text as UTF-16LE followed by a 16-bit zero terminator.
func EncodeText(text string) ([]byte, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("vccd: encode utf-16: %w", err)
	}
	return append(b, 0, 0), nil
}

// DecodeText is the inverse of EncodeText. A missing terminator is tolerated.
func DecodeText(payload []byte) (string, error) {
	if n := len(payload); n >= 2 && payload[n-2] == 0 && payload[n-1] == 0 {
		payload = payload[:n-2]
	}
	b, err := utf16le.NewDecoder().Bytes(payload)
	if err != nil {
		return "", fmt.Errorf("vccd: decode utf-16: %w", err)
	}
	return string(b), nil
}

// Encode hashes every caption name and encodes every caption text.
// Entries are returned sorted by hash.
func Encode(captions map[string]string, opts EncodeOptions) ([]Entry, []Collision, error) {
	names := make([]string, 0, len(captions))
	for name := range captions {
		names = append(names, name)
	}
	sort.Strings(names)

	byHash := make(map[uint32]int, len(names))
	entries := make([]Entry, 0, len(names))
	var collisions []Collision

	for _, name := range names {
		payload, err := EncodeText(captions[name])
		if err != nil {
			return nil, nil, fmt.Errorf("%w (caption %q)", err, name)
		}
		e := Entry{Hash: HashName(name), Name: name, Payload: payload}

		idx, dup := byHash[e.Hash]
		if !dup {
			byHash[e.Hash] = len(entries)
			entries = append(entries, e)
			continue
		}

		prev := entries[idx].Name
		if !opts.AllowCollisions {
			return nil, nil, fmt.Errorf("%w: %q and %q both hash to %08x", ErrHashCollision, prev, name, e.Hash)
		}
		collisions = append(collisions, Collision{Hash: e.Hash, Kept: name, Dropped: prev})
		entries[idx] = e
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Hash < entries[j].Hash
	})
	return entries, collisions, nil
}
