package tree

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/njtree/pkg/format"
)

// Edges returns every edge in persisted order.
//
// The walk starts at the root and visits its children in reverse stored
// order, so the last-joined subtree comes first. It is pre-order: an edge is
// listed before the edges below it, and an internal child's own edges follow
// in stored (ascending child ID) order.
func (t *Tree) Edges() []Edge {
	out := make([]Edge, 0, t.EdgeCount())
	var walk func(e Edge)
	walk = func(e Edge) {
		out = append(out, e)
		if t.IsInternal(e.Child) {
			for _, c := range t.children(e.Child) {
				walk(c)
			}
		}
	}
	root := t.children(t.Root())
	for i := len(root) - 1; i >= 0; i-- {
		walk(root[i])
	}
	return out
}

// WriteEdges writes the edge list: one "parent\tchild\tlength" line per edge
// in [Tree.Edges] order.
func (t *Tree) WriteEdges(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range t.Edges() {
		fmt.Fprintf(bw, "%d\t%d\t%s\n", e.Parent, e.Child, format.Decimal(e.Length))
	}
	return bw.Flush()
}

// Newick renders the tree in bracket notation terminated by ';'.
//
// Leaves are written as "label:length" and internal nodes as
// "(child,...,child):length", with children in reverse stored order. The root
// has no length:
//
//	((1:0.1,2:0.2):0.05,3:0.3,4:0.4);
func (t *Tree) Newick() string {
	var b strings.Builder
	b.WriteByte('(')
	root := t.children(t.Root())
	for i := len(root) - 1; i >= 0; i-- {
		t.writeNewick(&b, root[i])
		if i > 0 {
			b.WriteByte(',')
		}
	}
	b.WriteString(");")
	return b.String()
}

func (t *Tree) writeNewick(b *strings.Builder, e Edge) {
	if t.IsInternal(e.Child) {
		kids := t.children(e.Child)
		b.WriteByte('(')
		for i := len(kids) - 1; i >= 0; i-- {
			t.writeNewick(b, kids[i])
			if i > 0 {
				b.WriteByte(',')
			}
		}
		b.WriteByte(')')
	} else {
		b.WriteString(t.Label(e.Child))
	}
	b.WriteByte(':')
	b.WriteString(format.Decimal(e.Length))
}

// WriteNewick writes [Tree.Newick] to w without a trailing newline.
func (t *Tree) WriteNewick(w io.Writer) error {
	_, err := io.WriteString(w, t.Newick())
	return err
}

// ExportEdges writes the edge list to a file at path.
func (t *Tree) ExportEdges(path string) error {
	return writeFile(path, t.WriteEdges)
}

// ExportNewick writes the bracket tree to a file at path.
func (t *Tree) ExportNewick(path string) error {
	return writeFile(path, t.WriteNewick)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
