package tree

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNewick is wrapped by every bracket-notation parse error.
var ErrNewick = errors.New("invalid newick")

// NewickNode is one node of a parsed bracket tree. It carries only what the
// text says; it is not tied to tip IDs.
type NewickNode struct {
	Children []*NewickNode
	Label    string
	Length   *float64 // nil when the text gives no length
}

// Leaves returns the labels of all leaves, left to right.
func (n *NewickNode) Leaves() []string {
	if len(n.Children) == 0 {
		return []string{n.Label}
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// ParseNewick parses a single tree terminated by ';'. Whitespace between
// tokens is ignored. Labels may not contain any of "(),:;".
func ParseNewick(s string) (*NewickNode, error) {
	p := &newickParser{src: s, line: 1}
	p.skipSpace()
	root, err := p.subtree()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.accept(';') {
		return nil, p.errorf("expected ';'")
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected text after ';'")
	}
	return root, nil
}

// ReadNewick reads all of r and parses it with [ParseNewick].
func ReadNewick(r io.Reader) (*NewickNode, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return ParseNewick(string(data))
}

// ReadNewickLabels returns the leaf labels of the tree in r.
func ReadNewickLabels(r io.Reader) ([]string, error) {
	root, err := ReadNewick(r)
	if err != nil {
		return nil, err
	}
	return root.Leaves(), nil
}

type newickParser struct {
	src  string
	pos  int
	line int
}

func (p *newickParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d, offset %d: %s", ErrNewick, p.line, p.pos, fmt.Sprintf(format, args...))
}

func (p *newickParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *newickParser) accept(c byte) bool {
	if p.peek() == c && p.pos < len(p.src) {
		p.pos++
		return true
	}
	return false
}

func (p *newickParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '\n':
			p.line++
		case ' ', '\t', '\r':
		default:
			return
		}
		p.pos++
	}
}

// subtree = "(" subtree { "," subtree } ")" [label] [":" length]
//
//	| label [":" length]
func (p *newickParser) subtree() (*NewickNode, error) {
	n := &NewickNode{}
	if p.accept('(') {
		for {
			p.skipSpace()
			child, err := p.subtree()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			p.skipSpace()
			if p.accept(',') {
				continue
			}
			if p.accept(')') {
				break
			}
			return nil, p.errorf("expected ',' or ')'")
		}
	}

	n.Label = p.label()
	if len(n.Children) == 0 && n.Label == "" {
		return nil, p.errorf("expected a label or '('")
	}
	p.skipSpace()
	if p.accept(':') {
		p.skipSpace()
		start := p.pos
		for p.pos < len(p.src) && !strings.ContainsRune("(),:; \t\r\n", rune(p.src[p.pos])) {
			p.pos++
		}
		v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
		if err != nil {
			return nil, p.errorf("invalid branch length %q", p.src[start:p.pos])
		}
		n.Length = &v
	}
	return n, nil
}

func (p *newickParser) label() string {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("(),:;", rune(p.src[p.pos])) {
		if p.src[p.pos] == '\n' {
			p.line++
		}
		p.pos++
	}
	return strings.TrimSpace(p.src[start:p.pos])
}
