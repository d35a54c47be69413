package captions

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

const (
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
	EncodingUTF8    = "utf-8"
)

// sniffLen bounds how much of a BOM-less file is inspected for UTF-16.
const sniffLen = 4096

// IsUTF16 reports whether enc is one of the UTF-16 encodings.
func IsUTF16(enc string) bool {
	return enc == EncodingUTF16LE || enc == EncodingUTF16BE
}

// Detect guesses the text encoding of a caption source. A byte order mark
// decides; otherwise the placement of zero bytes in the leading ASCII-heavy
// text tells UTF-16 from UTF-8.
func Detect(raw []byte) string {
	switch {
	case bytes.HasPrefix(raw, []byte{0xff, 0xfe}):
		return EncodingUTF16LE
	case bytes.HasPrefix(raw, []byte{0xfe, 0xff}):
		return EncodingUTF16BE
	case bytes.HasPrefix(raw, []byte{0xef, 0xbb, 0xbf}):
		return EncodingUTF8
	}

	sample := raw[:min(len(raw), sniffLen)]
	if len(sample) < 2 {
		return EncodingUTF8
	}
	var evenZeros, oddZeros int
	for i, b := range sample {
		if b != 0 {
			continue
		}
		if i%2 == 0 {
			evenZeros++
		} else {
			oddZeros++
		}
	}
	pairs := len(sample) / 2
	switch {
	case oddZeros*2 > pairs && evenZeros*4 < pairs:
		return EncodingUTF16LE
	case evenZeros*2 > pairs && oddZeros*4 < pairs:
		return EncodingUTF16BE
	default:
		return EncodingUTF8
	}
}

// Decode detects the encoding of raw and returns its text with any BOM removed.
func Decode(raw []byte) (string, string, error) {
	enc := Detect(raw)

	var dec encoding.Encoding
	switch enc {
	case EncodingUTF16LE:
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case EncodingUTF16BE:
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	default:
		dec = unicode.UTF8BOM
	}

	out, err := dec.NewDecoder().Bytes(raw)
	if err != nil {
		return "", enc, fmt.Errorf("captions: decode %s: %w", enc, err)
	}
	return string(out), enc, nil
}
