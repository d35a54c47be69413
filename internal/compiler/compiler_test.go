package compiler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/vccd/internal/captions"
	"github.com/samcharles93/vccd/internal/captionstore"
	"github.com/samcharles93/vccd/internal/logger"
	"github.com/samcharles93/vccd/pkg/vccd"
)

const source = `"lang"
{
	"Language" "English"
	"Tokens"
	{
		"Caption.hello"   "Hi"
		"NPC.Greeting"    "<clr:255,200,0>Welcome, traveller."
	}
}
`

func TestCompileFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "closecaption_english.txt")
	if err := os.WriteFile(in, []byte(source), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	var logs bytes.Buffer
	c := New(logger.JSON(&logs, slog.LevelDebug), Options{})
	res, out, err := c.CompileFile(context.Background(), in, "")
	if err != nil {
		t.Fatalf("CompileFile: %v", err)
	}
	if out != filepath.Join(dir, "closecaption_english.dat") {
		t.Fatalf("output path: %s", out)
	}
	if res.Language != "English" || res.Entries != 2 || res.Blocks != 1 {
		t.Fatalf("result: %+v", res)
	}
	if res.Digest != Digest(res.Data) || len(res.Digest) != 64 {
		t.Fatalf("digest: %s", res.Digest)
	}

	s, err := captionstore.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer func() { _ = s.Close() }()
	got, err := s.Lookup("npc.greeting")
	if err != nil || got != "<clr:255,200,0>Welcome, traveller." {
		t.Fatalf("lookup: %q, %v", got, err)
	}

	if !strings.Contains(logs.String(), "wrote caption archive") {
		t.Fatalf("expected completion log, got: %s", logs.String())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestCompileEmptySource(t *testing.T) {
	t.Parallel()

	src := &captions.Source{Language: "English", Captions: map[string]string{}}
	res, err := New(nil, Options{}).Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(res.Data) != 512 || res.Entries != 0 || res.Blocks != 0 {
		t.Fatalf("empty result: entries=%d blocks=%d len=%d", res.Entries, res.Blocks, len(res.Data))
	}
}

func TestCompileReproducible(t *testing.T) {
	t.Parallel()

	caps := make(map[string]string)
	for i := range 500 {
		caps["line."+strings.Repeat("x", i%13)+string(rune('a'+i%26))+strings.Repeat("y", i%7)] = strings.Repeat("z", 1+i%300)
	}
	src := &captions.Source{Language: "English", Captions: caps}

	c := New(logger.Discard(), Options{})
	first, err := c.Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for range 3 {
		again, err := c.Compile(context.Background(), src)
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if again.Digest != first.Digest || !bytes.Equal(again.Data, first.Data) {
			t.Fatalf("compile is not reproducible")
		}
	}
}

func TestCompileEntryTooLarge(t *testing.T) {
	t.Parallel()

	src := &captions.Source{Language: "English", Captions: map[string]string{"huge": strings.Repeat("x", 5000)}}
	_, err := New(logger.Discard(), Options{}).Compile(context.Background(), src)
	if !errors.Is(err, vccd.ErrEntryTooLarge) {
		t.Fatalf("expected ErrEntryTooLarge, got %v", err)
	}
}

func TestCompileCollisionPolicy(t *testing.T) {
	t.Parallel()

	if vccd.HashName("plumless") != vccd.HashName("buckeroo") {
		t.Skip("collision pair does not collide under this CRC table")
	}
	src := &captions.Source{Language: "English", Captions: map[string]string{"plumless": "a", "buckeroo": "b"}}

	_, err := New(logger.Discard(), Options{}).Compile(context.Background(), src)
	if !errors.Is(err, vccd.ErrHashCollision) {
		t.Fatalf("expected ErrHashCollision, got %v", err)
	}

	var logs bytes.Buffer
	res, err := New(logger.JSON(&logs, slog.LevelInfo), Options{AllowCollisions: true}).Compile(context.Background(), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Entries != 1 || len(res.Collisions) != 1 {
		t.Fatalf("result: %+v", res)
	}
	if !strings.Contains(logs.String(), `"dropped":"buckeroo"`) {
		t.Fatalf("expected collision warning, got: %s", logs.String())
	}
}

func TestCompileCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil, Options{}).Compile(ctx, &captions.Source{Captions: map[string]string{"a": "b"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"closecaption_english.txt":     "closecaption_english.dat",
		"dir/subtitles_french.txt":     "dir/subtitles_french.dat",
		"noext":                        "noext.dat",
		"archive.v2/closecaption.utf8": "archive.v2/closecaption.dat",
	}
	for in, want := range tests {
		if got := DefaultOutputPath(in); got != want {
			t.Errorf("DefaultOutputPath(%q): got %q want %q", in, got, want)
		}
	}
}
