package bootstrap

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/njtree/pkg/format"
	"github.com/matzehuels/njtree/pkg/tree"
)

// Order returns ref's internal nodes in the order they first appear as a
// parent in the persisted edge list.
func Order(ref *tree.Tree) []tree.NodeID {
	seen := make(map[tree.NodeID]bool, ref.Tips())
	var out []tree.NodeID
	for _, e := range ref.Edges() {
		if !seen[e.Parent] {
			seen[e.Parent] = true
			out = append(out, e.Parent)
		}
	}
	return out
}

// WriteConfidences writes one confidence per line for each internal node of
// ref, in [Order]. Exact 0 and 1 are written as "0" and "1".
func WriteConfidences(w io.Writer, ref *tree.Tree, s *Support) error {
	bw := bufio.NewWriter(w)
	for _, id := range Order(ref) {
		fmt.Fprintln(bw, format.Proportion(s.Confidence(id)))
	}
	return bw.Flush()
}

// ExportConfidences writes [WriteConfidences] output to a file at path.
func ExportConfidences(path string, ref *tree.Tree, s *Support) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteConfidences(f, ref, s); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
