// Package tree stores unrooted binary phylogenies and writes them out.
//
// A [Tree] over n tips has 2n-2 nodes. Tips are numbered 1..n in input order
// and internal nodes n+1..2n-2, with n+1 the trifurcation that anchors the
// unrooted topology. Internal nodes live in a fixed arena, so a finished tree
// is immutable and can be shared across goroutines without copying.
//
// # Building
//
// Trees are assembled bottom-up with [Tree.Join] and checked with
// [Tree.Validate]:
//
//	t, _ := tree.New([]string{"A", "B", "C", "D"})
//	t.Join(6, tree.Edge{Child: 1, Length: 1}, tree.Edge{Child: 2, Length: 1})
//	t.Join(5, tree.Edge{Child: 3, Length: 1}, tree.Edge{Child: 4, Length: 1}, tree.Edge{Child: 6, Length: 2})
//
// # Comparing
//
// [Tree.Partitions] gives each internal node's [Partition], the tip sets under
// its children. Nodes from two trees over the same tips are structurally
// equivalent when their partitions are equal.
//
// # Output
//
// [Tree.WriteEdges] writes the tab-separated edge list and [Tree.WriteNewick]
// the bracket notation. [ParseNewick] reads bracket notation back as a generic
// [NewickNode].
package tree
