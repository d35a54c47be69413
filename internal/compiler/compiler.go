// Package compiler drives a caption source through the archive pipeline and
// writes the result.
package compiler

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/samcharles93/vccd/internal/captions"
	"github.com/samcharles93/vccd/internal/logger"
	"github.com/samcharles93/vccd/pkg/vccd"
)

type Options struct {
	// AllowCollisions downgrades a caption name hash collision from an error
	// to a warning. The later name (in sorted order) is kept.
	AllowCollisions bool
}

// Compiler holds the injected logger and options for a series of conversions.
// It has no other state, so one Compiler may be shared across goroutines.
type Compiler struct {
	log  logger.Logger
	opts Options
}

type Result struct {
	Language   string
	Data       []byte
	Entries    int
	Blocks     int
	Digest     string
	Collisions []vccd.Collision
}

func New(log logger.Logger, opts Options) *Compiler {
	if log == nil {
		log = logger.Discard()
	}
	return &Compiler{log: log, opts: opts}
}

// Compile builds the archive for src.
func (c *Compiler) Compile(ctx context.Context, src *captions.Source) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := c.log.With("language", src.Language)
	log.Debug("begin serializing", "captions", len(src.Captions))

	f, collisions, err := vccd.Build(src.Captions, vccd.EncodeOptions{AllowCollisions: c.opts.AllowCollisions})
	if err != nil {
		return nil, fmt.Errorf("compile %s captions: %w", src.Language, err)
	}
	for _, col := range collisions {
		log.Warn("caption hash collision, dropping caption",
			"hash", fmt.Sprintf("%08x", col.Hash), "kept", col.Kept, "dropped", col.Dropped)
	}

	data, err := f.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("serialize %s captions: %w", src.Language, err)
	}

	res := &Result{
		Language:   src.Language,
		Data:       data,
		Entries:    len(f.Directory),
		Blocks:     len(f.Blocks),
		Digest:     Digest(data),
		Collisions: collisions,
	}
	log.Debug("packed blocks",
		"entries", res.Entries,
		"blocks", res.Blocks,
		"first_block_offset", f.Header.FirstBlockOffset)
	return res, nil
}

// CompileFile compiles the source at inPath and writes the archive to outPath
// atomically. An empty outPath means DefaultOutputPath(inPath).
func (c *Compiler) CompileFile(ctx context.Context, inPath, outPath string) (*Result, string, error) {
	if outPath == "" {
		outPath = DefaultOutputPath(inPath)
	}

	src, err := captions.FromPath(inPath, c.log)
	if err != nil {
		return nil, "", err
	}
	res, err := c.Compile(ctx, src)
	if err != nil {
		return nil, "", err
	}
	if err := WriteFileAtomic(outPath, res.Data); err != nil {
		return nil, "", fmt.Errorf("write %s: %w", outPath, err)
	}

	c.log.Info("wrote caption archive",
		"input", inPath,
		"output", outPath,
		"language", res.Language,
		"entries", res.Entries,
		"blocks", res.Blocks,
		"bytes", len(res.Data),
		"blake3", res.Digest)
	return res, outPath, nil
}

// DefaultOutputPath replaces the source extension with .dat.
func DefaultOutputPath(inPath string) string {
	ext := filepath.Ext(inPath)
	return strings.TrimSuffix(inPath, ext) + ".dat"
}

// Digest returns the hex BLAKE3-256 of an archive. Identical sources must
// always produce identical digests.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// WriteFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partial archive.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
