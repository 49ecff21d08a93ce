package tree

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrTooFewTips is returned by [New] for fewer than three tips. An
	// unrooted binary tree needs at least three leaves to have a root.
	ErrTooFewTips = errors.New("tree needs at least 3 tips")

	// ErrUnknownNode is returned when a node ID is outside 1..2n-2.
	ErrUnknownNode = errors.New("unknown node")

	// ErrNotInternal is returned by [Tree.Join] when the parent is a tip.
	ErrNotInternal = errors.New("node is not an internal node")

	// ErrAlreadyJoined is returned by [Tree.Join] when the parent already has
	// children.
	ErrAlreadyJoined = errors.New("node already has children")

	// ErrArity is returned by [Tree.Join] and [Tree.Validate] when a node has
	// the wrong number of children: three for the root, two otherwise.
	ErrArity = errors.New("wrong number of children")

	// ErrMalformed is returned by [Tree.Validate] when the edges do not form a
	// single tree rooted at [Tree.Root].
	ErrMalformed = errors.New("malformed tree")
)

// NodeID identifies a node. Tips are 1..n, internal nodes n+1..2n-2, and
// n+1 is the root trifurcation.
type NodeID int

// Edge connects a parent to one child. Length may be negative on degenerate
// input; it is never clamped.
type Edge struct {
	Parent NodeID  `json:"parent"`
	Child  NodeID  `json:"child"`
	Length float64 `json:"length"`
}

// node is one arena slot. Only the first n entries of edges are used.
type node struct {
	edges [3]Edge
	n     int
}

// Tree is an unrooted binary tree stored as an arena of internal nodes.
//
// Each internal node owns two child edges, except the root which owns three.
// Children are kept sorted by child ID. There are no parent pointers, so a
// finished Tree is a plain value that any number of goroutines may read.
//
// The zero value is not usable; create trees with [New].
type Tree struct {
	labels []string
	nodes  []node // nodes[i] holds internal node n+1+i
}

// New creates a tree with len(labels) tips and no edges. Tip i+1 carries
// labels[i].
func New(labels []string) (*Tree, error) {
	n := len(labels)
	if n < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewTips, n)
	}
	return &Tree{
		labels: append([]string(nil), labels...),
		nodes:  make([]node, n-2),
	}, nil
}

// Tips returns the number of tips n.
func (t *Tree) Tips() int { return len(t.labels) }

// Size returns the total number of nodes, 2n-2.
func (t *Tree) Size() int { return len(t.labels) + len(t.nodes) }

// Root returns the trifurcation node n+1.
func (t *Tree) Root() NodeID { return NodeID(len(t.labels) + 1) }

// IsTip reports whether id is a tip (1..n).
func (t *Tree) IsTip(id NodeID) bool { return id >= 1 && int(id) <= len(t.labels) }

// IsInternal reports whether id is an internal node (n+1..2n-2).
func (t *Tree) IsInternal(id NodeID) bool {
	return int(id) > len(t.labels) && int(id) <= t.Size()
}

// Label returns the label of a tip, or "" for any other ID.
func (t *Tree) Label(id NodeID) string {
	if !t.IsTip(id) {
		return ""
	}
	return t.labels[id-1]
}

// Labels returns a copy of the tip labels, indexed by tip ID - 1.
func (t *Tree) Labels() []string { return append([]string(nil), t.labels...) }

// slot returns the arena entry for an internal node.
func (t *Tree) slot(id NodeID) *node { return &t.nodes[int(id)-len(t.labels)-1] }

// Join attaches children to an internal node. The root takes exactly three
// children and every other internal node exactly two. Each edge's Parent is
// set to parent, and the edges are stored sorted by child ID.
func (t *Tree) Join(parent NodeID, children ...Edge) error {
	if !t.IsInternal(parent) {
		if t.IsTip(parent) {
			return fmt.Errorf("%w: %d", ErrNotInternal, parent)
		}
		return fmt.Errorf("%w: %d", ErrUnknownNode, parent)
	}
	want := 2
	if parent == t.Root() {
		want = 3
	}
	if len(children) != want {
		return fmt.Errorf("%w: node %d got %d, want %d", ErrArity, parent, len(children), want)
	}
	s := t.slot(parent)
	if s.n != 0 {
		return fmt.Errorf("%w: %d", ErrAlreadyJoined, parent)
	}
	for _, e := range children {
		if !t.IsTip(e.Child) && !t.IsInternal(e.Child) {
			return fmt.Errorf("%w: child %d of %d", ErrUnknownNode, e.Child, parent)
		}
	}

	for i, e := range children {
		e.Parent = parent
		s.edges[i] = e
	}
	s.n = len(children)
	slices.SortFunc(s.edges[:s.n], func(a, b Edge) int { return int(a.Child) - int(b.Child) })
	return nil
}

// Children returns a copy of the child edges of id, sorted by child ID.
// Tips and unjoined nodes have none.
func (t *Tree) Children(id NodeID) []Edge {
	if !t.IsInternal(id) {
		return nil
	}
	s := t.slot(id)
	return append([]Edge(nil), s.edges[:s.n]...)
}

// children is the allocation-free form of Children for internal use.
func (t *Tree) children(id NodeID) []Edge {
	s := t.slot(id)
	return s.edges[:s.n]
}

// Internal returns the internal node IDs in ascending order.
func (t *Tree) Internal() []NodeID {
	ids := make([]NodeID, len(t.nodes))
	for i := range ids {
		ids[i] = NodeID(len(t.labels) + 1 + i)
	}
	return ids
}

// EdgeCount returns the number of stored edges. A complete tree has 2n-3.
func (t *Tree) EdgeCount() int {
	count := 0
	for _, s := range t.nodes {
		count += s.n
	}
	return count
}

// Validate checks that the tree is complete and well formed: every internal
// node has its required arity, every node other than the root is the child of
// exactly one edge, and every node is reachable from the root.
func (t *Tree) Validate() error {
	parents := make([]int, t.Size()+1)
	for _, id := range t.Internal() {
		s := t.slot(id)
		want := 2
		if id == t.Root() {
			want = 3
		}
		if s.n != want {
			return fmt.Errorf("%w: node %d has %d, want %d", ErrArity, id, s.n, want)
		}
		for _, e := range s.edges[:s.n] {
			parents[e.Child]++
		}
	}
	for id := 1; id <= t.Size(); id++ {
		want := 1
		if NodeID(id) == t.Root() {
			want = 0
		}
		if parents[id] != want {
			return fmt.Errorf("%w: node %d is a child of %d edges, want %d", ErrMalformed, id, parents[id], want)
		}
	}

	// With one parent per non-root node, reaching every node from the root
	// rules out cycles.
	seen := make([]bool, t.Size()+1)
	stack := []NodeID{t.Root()}
	reached := 0
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			return fmt.Errorf("%w: node %d reached twice", ErrMalformed, id)
		}
		seen[id] = true
		reached++
		if t.IsInternal(id) {
			for _, e := range t.children(id) {
				stack = append(stack, e.Child)
			}
		}
	}
	if reached != t.Size() {
		return fmt.Errorf("%w: %d of %d nodes reachable from root", ErrMalformed, reached, t.Size())
	}
	return nil
}
