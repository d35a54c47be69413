package captions

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/unicode"

	"github.com/samcharles93/vccd/internal/logger"
)

const englishSource = `"lang"
{
	"Language" "English"
	"Tokens"
	{
		"Caption.hello"   "Hi"
		"NPC.Greeting"    "<clr:255,200,0>Welcome, traveller."
	}
}
`

func utf16LE(t *testing.T, s string, bom bool) []byte {
	t.Helper()
	policy := unicode.IgnoreBOM
	if bom {
		policy = unicode.UseBOM
	}
	b, err := unicode.UTF16(unicode.LittleEndian, policy).NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode utf-16: %v", err)
	}
	return b
}

func TestFromBytesUTF16(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	src, err := FromBytes(utf16LE(t, englishSource, true), logger.JSON(&logs, slog.LevelDebug))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if src.Language != "English" {
		t.Fatalf("language: got %q", src.Language)
	}
	if src.Encoding != EncodingUTF16LE {
		t.Fatalf("encoding: got %q", src.Encoding)
	}
	if len(src.Captions) != 2 || src.Captions["Caption.hello"] != "Hi" {
		t.Fatalf("captions: %+v", src.Captions)
	}
	if logs.Len() != 0 {
		t.Fatalf("expected no warnings for UTF-16 input, got: %s", logs.String())
	}
}

func TestFromBytesUTF8Warns(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	src, err := FromBytes([]byte(englishSource), logger.JSON(&logs, slog.LevelDebug))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if src.Encoding != EncodingUTF8 {
		t.Fatalf("encoding: got %q", src.Encoding)
	}
	if !strings.Contains(logs.String(), `"level":"WARN"`) || !strings.Contains(logs.String(), `"encoding":"utf-8"`) {
		t.Fatalf("expected encoding warning, got: %s", logs.String())
	}
}

func TestFromBytesMissingKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"no lang", `"other" { }`},
		{"no language", `"lang" { "Tokens" { } }`},
		{"no tokens", `"lang" { "Language" "English" }`},
		{"tokens not a block", `"lang" { "Language" "English" "Tokens" "x" }`},
	}
	for _, tc := range tests {
		_, err := FromBytes([]byte(tc.src), logger.Discard())
		if !errors.Is(err, ErrMissingKey) {
			t.Errorf("%s: expected ErrMissingKey, got %v", tc.name, err)
		}
	}
}

func TestFromBytesNestedToken(t *testing.T) {
	t.Parallel()

	_, err := FromBytes([]byte(`"lang" { "Language" "English" "Tokens" { "a" { } } }`), logger.Discard())
	if !errors.Is(err, ErrBadToken) {
		t.Fatalf("expected ErrBadToken, got %v", err)
	}
}

func TestFromBytesDuplicates(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	src, err := FromBytes([]byte(`"lang" { "Language" "English" "Tokens" {
		"npc.a" "first"
		"npc.b" "other"
		"NPC.A" "second"
	} }`), logger.JSON(&logs, slog.LevelDebug))
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if len(src.Captions) != 2 {
		t.Fatalf("captions: %+v", src.Captions)
	}
	if src.Captions["NPC.A"] != "second" {
		t.Fatalf("last duplicate should win: %+v", src.Captions)
	}
	if _, ok := src.Captions["npc.a"]; ok {
		t.Fatalf("earlier duplicate should be dropped")
	}
	if len(src.Duplicates) != 1 || src.Duplicates[0] != "NPC.A" {
		t.Fatalf("duplicates: %v", src.Duplicates)
	}
	if !strings.Contains(logs.String(), "duplicate caption token") {
		t.Fatalf("expected duplicate warning, got: %s", logs.String())
	}
}

func TestFromPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "closecaption_english.txt")
	if err := os.WriteFile(path, utf16LE(t, englishSource, true), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := FromPath(path, logger.Discard())
	if err != nil {
		t.Fatalf("FromPath: %v", err)
	}
	if src.Captions["NPC.Greeting"] != "<clr:255,200,0>Welcome, traveller." {
		t.Fatalf("captions: %+v", src.Captions)
	}

	if _, err := FromPath(filepath.Join(t.TempDir(), "missing.txt"), logger.Discard()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"utf-16le bom", []byte{0xff, 0xfe, 'a', 0}, EncodingUTF16LE},
		{"utf-16be bom", []byte{0xfe, 0xff, 0, 'a'}, EncodingUTF16BE},
		{"utf-8 bom", []byte{0xef, 0xbb, 0xbf, 'a'}, EncodingUTF8},
		{"utf-16le no bom", utf16LE(t, `"lang" { }`, false), EncodingUTF16LE},
		{"utf-16be no bom", []byte{0, '"', 0, 'a', 0, '"'}, EncodingUTF16BE},
		{"plain ascii", []byte(`"lang" { }`), EncodingUTF8},
		{"empty", nil, EncodingUTF8},
	}
	for _, tc := range tests {
		if got := Detect(tc.raw); got != tc.want {
			t.Errorf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	t.Parallel()

	for _, raw := range [][]byte{
		utf16LE(t, "abc", true),
		append([]byte{0xef, 0xbb, 0xbf}, "abc"...),
		{0xfe, 0xff, 0, 'a', 0, 'b', 0, 'c'},
	} {
		text, _, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if text != "abc" {
			t.Fatalf("Decode(% x): got %q", raw, text)
		}
	}
}
