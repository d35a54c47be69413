// Package captions turns caption source files into name/text pairs.
package captions

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samcharles93/vccd/internal/keyvalues"
	"github.com/samcharles93/vccd/internal/logger"
)

var (
	// ErrMissingKey means the source lacks the lang block, its Language
	// value, or its Tokens block.
	ErrMissingKey = errors.New("captions: missing required key")

	// ErrBadToken means an entry inside Tokens is a block instead of a string.
	ErrBadToken = errors.New("captions: token is not a string")
)

// Source is a parsed caption source.
type Source struct {
	Language string
	Captions map[string]string

	// Encoding is the text encoding the source was decoded from, when known.
	Encoding string

	// Duplicates lists token names that appeared more than once (compared
	// case-insensitively). The last occurrence wins.
	Duplicates []string
}

// FromKeyValues extracts captions from a parsed KeyValues document.
func FromKeyValues(root *keyvalues.Node) (*Source, error) {
	lang, ok := root.FindBlock("lang")
	if !ok {
		return nil, fmt.Errorf("%w: \"lang\"", ErrMissingKey)
	}
	language, ok := lang.Value("Language")
	if !ok {
		return nil, fmt.Errorf("%w: \"lang/Language\"", ErrMissingKey)
	}
	tokens, ok := lang.FindBlock("Tokens")
	if !ok {
		return nil, fmt.Errorf("%w: \"lang/Tokens\"", ErrMissingKey)
	}

	src := &Source{
		Language: language,
		Captions: make(map[string]string, len(tokens.Children)),
	}
	seen := make(map[string]string, len(tokens.Children))
	for _, tok := range tokens.Children {
		if tok.Block {
			return nil, fmt.Errorf("%w: %q (line %d)", ErrBadToken, tok.Name, tok.Line)
		}
		folded := strings.ToLower(tok.Name)
		if prev, dup := seen[folded]; dup {
			delete(src.Captions, prev)
			src.Duplicates = append(src.Duplicates, tok.Name)
		}
		seen[folded] = tok.Name
		src.Captions[tok.Name] = tok.Value
	}
	return src, nil
}

// FromReader decodes, parses and extracts a caption source.
// Encoding problems and duplicate tokens are logged, not returned.
func FromReader(r io.Reader, log logger.Logger) (*Source, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromBytes(raw, log)
}

// FromBytes is FromReader over an in-memory source.
func FromBytes(raw []byte, log logger.Logger) (*Source, error) {
	if log == nil {
		log = logger.Discard()
	}
	text, enc, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	if !IsUTF16(enc) {
		log.Warn("caption source is not UTF-16, UTF-16LE is recommended", "encoding", enc)
	}

	root, err := keyvalues.ParseString(text)
	if err != nil {
		return nil, err
	}
	src, err := FromKeyValues(root)
	if err != nil {
		return nil, err
	}
	src.Encoding = enc
	for _, name := range src.Duplicates {
		log.Warn("duplicate caption token, keeping the last one", "name", name)
	}
	return src, nil
}

// FromPath reads a caption source file.
func FromPath(path string, log logger.Logger) (*Source, error) {
	if log == nil {
		log = logger.Discard()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	src, err := FromReader(f, log.With("file", path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}
