package captionstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/samcharles93/vccd/pkg/vccd"
)

func buildArchive(t *testing.T, captions map[string]string) []byte {
	t.Helper()
	f, _, err := vccd.Build(captions, vccd.EncodeOptions{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := f.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestStoreLookup(t *testing.T) {
	t.Parallel()

	captions := map[string]string{
		"Caption.hello": "Hi",
		"NPC.Greeting":  "<clr:255,200,0>Welcome, traveller.",
		"Narrator.Long": "Ünïcödé \U0001F600 text",
	}
	path := filepath.Join(t.TempDir(), "closecaption_english.dat")
	if err := os.WriteFile(path, buildArchive(t, captions), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = s.Close() }()

	for name, want := range captions {
		got, err := s.Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", name, err)
		}
		if got != want {
			t.Fatalf("Lookup(%q): got %q want %q", name, got, want)
		}
	}

	got, err := s.Lookup("CAPTION.HELLO")
	if err != nil || got != "Hi" {
		t.Fatalf("lookup should ignore case: %q, %v", got, err)
	}
	if _, err := s.Lookup("missing"); !errors.Is(err, ErrCaptionNotFound) {
		t.Fatalf("expected ErrCaptionNotFound, got %v", err)
	}
}

func TestStoreEntriesAndUsage(t *testing.T) {
	t.Parallel()

	s, err := FromBytes(buildArchive(t, map[string]string{"a": "xx", "b": "yyyy"}))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	defer func() { _ = s.Close() }()

	entries := s.Entries()
	if len(entries) != 2 {
		t.Fatalf("entries: %+v", entries)
	}
	if entries[0].Hash != vccd.HashName("b") || entries[0].Length != 10 {
		t.Fatalf("first entry should be the longer caption: %+v", entries[0])
	}
	if entries[1].Offset != 10 || entries[1].Length != 6 {
		t.Fatalf("second entry: %+v", entries[1])
	}
	usage := s.BlockUsage()
	if len(usage) != 1 || usage[0] != 16 {
		t.Fatalf("usage: %v", usage)
	}
	if s.Size() != 512+vccd.BlockSize || len(s.Raw()) != s.Size() {
		t.Fatalf("size: %d", s.Size())
	}
	if h := s.Header(); h.DirectoryCount != 2 || h.BlockCount != 1 {
		t.Fatalf("header: %+v", h)
	}
}

func TestClosedStore(t *testing.T) {
	t.Parallel()

	s, err := FromBytes(buildArchive(t, nil))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Lookup("a"); !errors.Is(err, ErrCaptionNotFound) {
		t.Fatalf("expected ErrCaptionNotFound after close, got %v", err)
	}
	if s.Entries() != nil || s.Size() != 0 {
		t.Fatalf("closed store should be empty")
	}
}

func TestStoreDigest(t *testing.T) {
	t.Parallel()

	data := buildArchive(t, map[string]string{"a": "Alpha"})
	s1, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	s2, err := FromBytes(append([]byte(nil), data...))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if s1.Digest() != s2.Digest() || len(s1.Digest()) != 64 {
		t.Fatalf("digest mismatch: %q vs %q", s1.Digest(), s2.Digest())
	}

	other, err := FromBytes(buildArchive(t, map[string]string{"a": "Alpha!"}))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if other.Digest() == s1.Digest() {
		t.Fatalf("different archives share a digest")
	}
}
