package keyvalues

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokString
	tokOpen
	tokClose
	tokCond
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of file"
	case tokOpen:
		return "'{'"
	case tokClose:
		return "'}'"
	case tokCond:
		return fmt.Sprintf("conditional [%s]", t.text)
	default:
		return fmt.Sprintf("%q", t.text)
	}
}

type lexer struct {
	src    string
	pos    int
	line   int
	peeked *token
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1}
}

func (l *lexer) peek() (token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.scan()
	if err != nil {
		return token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.scan()
}

func (l *lexer) scan() (token, error) {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, line: l.line}, nil
	}

	line := l.line
	switch c := l.src[l.pos]; c {
	case '{':
		l.pos++
		return token{kind: tokOpen, line: line}, nil
	case '}':
		l.pos++
		return token{kind: tokClose, line: line}, nil
	case '"':
		text, err := l.quoted()
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: text, line: line}, nil
	case '[':
		end := strings.IndexAny(l.src[l.pos:], "]\n")
		if end < 0 || l.src[l.pos+end] != ']' {
			return token{}, &SyntaxError{Line: line, Msg: "unterminated conditional"}
		}
		text := l.src[l.pos+1 : l.pos+end]
		l.pos += end + 1
		return token{kind: tokCond, text: strings.TrimSpace(text), line: line}, nil
	default:
		return token{kind: tokString, text: l.bare(), line: line}, nil
	}
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		switch {
		case r == '\n':
			l.line++
			l.pos += size
		case unicode.IsSpace(r):
			l.pos += size
		case strings.HasPrefix(l.src[l.pos:], "//"):
			if nl := strings.IndexByte(l.src[l.pos:], '\n'); nl >= 0 {
				l.pos += nl
			} else {
				l.pos = len(l.src)
			}
		default:
			return
		}
	}
}

func (l *lexer) quoted() (string, error) {
	start := l.line
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '"':
			l.pos++
			return sb.String(), nil
		case '\n':
			l.line++
			sb.WriteByte(c)
			l.pos++
		case '\\':
			if l.pos+1 >= len(l.src) {
				sb.WriteByte(c)
				l.pos++
				continue
			}
			switch esc := l.src[l.pos+1]; esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\', '"':
				sb.WriteByte(esc)
			default:
				// Unknown escapes are kept verbatim.
				sb.WriteByte('\\')
				sb.WriteByte(esc)
			}
			l.pos += 2
		default:
			sb.WriteByte(c)
			l.pos++
		}
	}
	return "", &SyntaxError{Line: start, Msg: "unterminated string"}
}

func (l *lexer) bare() string {
	start := l.pos
	for l.pos < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if unicode.IsSpace(r) || r == '{' || r == '}' || r == '"' || r == '[' {
			break
		}
		if strings.HasPrefix(l.src[l.pos:], "//") {
			break
		}
		l.pos += size
	}
	return l.src[start:l.pos]
}
