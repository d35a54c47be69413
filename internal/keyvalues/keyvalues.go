// Package keyvalues parses the KeyValues text format used by Source engine
// resource files, caption sources among them.
//
//	"lang"
//	{
//		"Language" "English"
//		"Tokens"
//		{
//			"npc.hello"	"<clr:255,255,255>Hello there." [$WIN32]
//		}
//	}
package keyvalues

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("keyvalues: syntax error")

// SyntaxError reports where parsing stopped.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("keyvalues: line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }

// Node is either a key/value pair or a named block of child nodes.
type Node struct {
	Name     string
	Value    string
	Children []*Node
	Block    bool

	// Cond holds a trailing conditional such as "$WIN32" or "!$X360".
	// It is recorded, never evaluated.
	Cond string

	Line int
}

// Parse reads all of r and parses it. The returned root is an unnamed block
// holding the top-level nodes.
func Parse(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseString(string(data))
}

// ParseString parses an already decoded document.
func ParseString(src string) (*Node, error) {
	p := &parser{lex: newLexer(strings.TrimPrefix(src, "\ufeff"))}
	root := &Node{Block: true, Line: 1}
	children, err := p.parseBlock(false)
	if err != nil {
		return nil, err
	}
	root.Children = children
	return root, nil
}

// FindKey returns the last direct child called name, compared case-insensitively.
func (n *Node) FindKey(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for i := len(n.Children) - 1; i >= 0; i-- {
		if strings.EqualFold(n.Children[i].Name, name) {
			return n.Children[i], true
		}
	}
	return nil, false
}

// FindBlock is FindKey restricted to block children.
func (n *Node) FindBlock(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for i := len(n.Children) - 1; i >= 0; i-- {
		c := n.Children[i]
		if c.Block && strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// Value returns the value of the last non-block child called name.
func (n *Node) Value(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for i := len(n.Children) - 1; i >= 0; i-- {
		c := n.Children[i]
		if !c.Block && strings.EqualFold(c.Name, name) {
			return c.Value, true
		}
	}
	return "", false
}

type parser struct {
	lex *lexer
}

func (p *parser) parseBlock(nested bool) ([]*Node, error) {
	var nodes []*Node
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case tokEOF:
			if nested {
				return nil, &SyntaxError{Line: tok.line, Msg: "unterminated block"}
			}
			return nodes, nil
		case tokClose:
			if !nested {
				return nil, &SyntaxError{Line: tok.line, Msg: "unexpected '}'"}
			}
			return nodes, nil
		case tokString:
			node, err := p.parseEntry(tok)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		default:
			return nil, &SyntaxError{Line: tok.line, Msg: fmt.Sprintf("expected key, got %s", tok)}
		}
	}
}

func (p *parser) parseEntry(key token) (*Node, error) {
	node := &Node{Name: key.text, Line: key.line}

	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	if tok.kind == tokCond {
		node.Cond = tok.text
		if tok, err = p.lex.next(); err != nil {
			return nil, err
		}
	}

	switch tok.kind {
	case tokString:
		node.Value = tok.text
	case tokOpen:
		node.Block = true
		children, err := p.parseBlock(true)
		if err != nil {
			return nil, err
		}
		node.Children = children
	default:
		return nil, &SyntaxError{Line: tok.line, Msg: fmt.Sprintf("key %q: expected value or '{', got %s", key.text, tok)}
	}

	next, err := p.lex.peek()
	if err != nil {
		return nil, err
	}
	if next.kind == tokCond {
		_, _ = p.lex.next()
		node.Cond = next.text
	}
	return node, nil
}
