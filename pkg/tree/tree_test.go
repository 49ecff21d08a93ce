package tree

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quartet is the neighbor-joining tree of A,B,C,D with d(A,B)=d(C,D)=2 and
// every other pair at 4.
func quartet(t *testing.T) *Tree {
	t.Helper()
	tr, err := New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	require.NoError(t, tr.Join(6, Edge{Child: 2, Length: 1}, Edge{Child: 1, Length: 1}))
	require.NoError(t, tr.Join(5, Edge{Child: 6, Length: 2}, Edge{Child: 3, Length: 1}, Edge{Child: 4, Length: 1}))
	require.NoError(t, tr.Validate())
	return tr
}

func TestNew(t *testing.T) {
	_, err := New([]string{"a", "b"})
	assert.ErrorIs(t, err, ErrTooFewTips)

	tr, err := New([]string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)
	assert.Equal(t, 5, tr.Tips())
	assert.Equal(t, 8, tr.Size())
	assert.Equal(t, NodeID(6), tr.Root())
	assert.Equal(t, []NodeID{6, 7, 8}, tr.Internal())
	assert.True(t, tr.IsTip(5))
	assert.False(t, tr.IsTip(6))
	assert.True(t, tr.IsInternal(8))
	assert.False(t, tr.IsInternal(9))
	assert.Equal(t, "c", tr.Label(3))
	assert.Equal(t, "", tr.Label(7))
}

func TestJoin(t *testing.T) {
	tr := quartet(t)

	kids := tr.Children(6)
	require.Len(t, kids, 2)
	assert.Equal(t, Edge{Parent: 6, Child: 1, Length: 1}, kids[0], "children are sorted by ID")
	assert.Equal(t, Edge{Parent: 6, Child: 2, Length: 1}, kids[1])
	assert.Equal(t, 5, tr.EdgeCount())
	assert.Nil(t, tr.Children(1))

	kids[0].Length = 99
	assert.Equal(t, 1.0, tr.Children(6)[0].Length, "Children returns a copy")
}

func TestJoinErrors(t *testing.T) {
	tr, err := New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		parent NodeID
		kids   []Edge
		want   error
	}{
		{"tip parent", 2, []Edge{{Child: 1}, {Child: 3}}, ErrNotInternal},
		{"unknown parent", 9, []Edge{{Child: 1}, {Child: 3}}, ErrUnknownNode},
		{"root needs three", 5, []Edge{{Child: 1}, {Child: 3}}, ErrArity},
		{"inner needs two", 6, []Edge{{Child: 1}, {Child: 2}, {Child: 3}}, ErrArity},
		{"unknown child", 6, []Edge{{Child: 1}, {Child: 12}}, ErrUnknownNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tr.Join(tt.parent, tt.kids...), tt.want)
		})
	}

	require.NoError(t, tr.Join(6, Edge{Child: 1}, Edge{Child: 2}))
	assert.ErrorIs(t, tr.Join(6, Edge{Child: 1}, Edge{Child: 2}), ErrAlreadyJoined)
}

func TestValidate(t *testing.T) {
	tr, err := New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	assert.ErrorIs(t, tr.Validate(), ErrArity, "incomplete tree")

	// Tip 1 used twice, tip 2 never.
	require.NoError(t, tr.Join(6, Edge{Child: 1}, Edge{Child: 3}))
	require.NoError(t, tr.Join(5, Edge{Child: 1}, Edge{Child: 4}, Edge{Child: 6}))
	assert.ErrorIs(t, tr.Validate(), ErrMalformed)

	// Cycle: the root is its own descendant.
	tr, err = New([]string{"A", "B", "C", "D"})
	require.NoError(t, err)
	require.NoError(t, tr.Join(6, Edge{Child: 1}, Edge{Child: 5}))
	require.NoError(t, tr.Join(5, Edge{Child: 2}, Edge{Child: 3}, Edge{Child: 4}))
	assert.ErrorIs(t, tr.Validate(), ErrMalformed)
}

func TestPartitions(t *testing.T) {
	tr := quartet(t)

	parts := tr.Partitions()
	require.Len(t, parts, 2)
	assert.Equal(t, Partition{{1}, {2}}, parts[6])
	assert.Equal(t, Partition{{1, 2}, {3}, {4}}, parts[5])
	assert.Equal(t, "1|2", parts[6].Key())
	assert.Equal(t, "1,2|3|4", parts[5].Key())

	for id, p := range parts {
		assert.True(t, p.Equal(tr.Partition(id)), "node %d", id)
	}
	assert.Equal(t, []NodeID{1, 2}, tr.TipsUnder(6))
	assert.Equal(t, []NodeID{3}, tr.TipsUnder(3))
}

func TestPartitionKeyDistinguishesSplits(t *testing.T) {
	a := Partition{{1, 2}, {3}}
	b := Partition{{1}, {2, 3}}
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Key(), b.Key())

	c := Partition{{12}, {3}}
	d := Partition{{1}, {23}}
	assert.NotEqual(t, c.Key(), d.Key())
}

func TestEdges(t *testing.T) {
	tr := quartet(t)

	var buf bytes.Buffer
	require.NoError(t, tr.WriteEdges(&buf))
	want := "5\t6\t2.0\n" +
		"6\t1\t1.0\n" +
		"6\t2\t1.0\n" +
		"5\t4\t1.0\n" +
		"5\t3\t1.0\n"
	assert.Equal(t, want, buf.String())
	assert.Len(t, tr.Edges(), 2*tr.Tips()-3)
}

func TestNewick(t *testing.T) {
	tr := quartet(t)
	assert.Equal(t, "((B:1.0,A:1.0):2.0,D:1.0,C:1.0);", tr.Newick())

	var buf bytes.Buffer
	require.NoError(t, tr.WriteNewick(&buf))
	assert.Equal(t, tr.Newick(), buf.String())
}

func TestNewickRoundTrip(t *testing.T) {
	tr := quartet(t)

	root, err := ParseNewick(tr.Newick())
	require.NoError(t, err)
	require.Len(t, root.Children, 3)
	assert.Nil(t, root.Length)
	assert.ElementsMatch(t, tr.Labels(), root.Leaves())

	inner := root.Children[0]
	require.NotNil(t, inner.Length)
	assert.Equal(t, 2.0, *inner.Length)
	assert.Equal(t, []string{"B", "A"}, inner.Leaves())
}

func TestParseNewick(t *testing.T) {
	root, err := ParseNewick("(\n  (a:0.1, b:1e-05)x:0.5,\n  c\n);\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, root.Leaves())
	assert.Equal(t, "x", root.Children[0].Label)
	assert.Equal(t, 1e-05, *root.Children[0].Children[1].Length)
	assert.Nil(t, root.Children[1].Length)

	labels, err := ReadNewickLabels(strings.NewReader("(taxon one:1,taxon two:2,three:3);"))
	require.NoError(t, err)
	assert.Equal(t, []string{"taxon one", "taxon two", "three"}, labels)
}

func TestParseNewickErrors(t *testing.T) {
	for _, in := range []string{
		"",
		"(a,b)",
		"(a,b;",
		"(a,,b);",
		"(a:x,b);",
		"(a,b); extra",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseNewick(in)
			assert.ErrorIs(t, err, ErrNewick)
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	tr := quartet(t)

	data, err := json.Marshal(tr)
	require.NoError(t, err)

	var back Tree
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tr.Labels(), back.Labels())
	assert.Equal(t, tr.Edges(), back.Edges())
	assert.Equal(t, tr.Newick(), back.Newick())
}

func TestJSONRejectsMalformed(t *testing.T) {
	var back Tree
	err := json.Unmarshal([]byte(`{"labels":["A","B","C","D"],"edges":[{"parent":5,"child":1,"length":1}]}`), &back)
	assert.ErrorIs(t, err, ErrArity)

	err = json.Unmarshal([]byte(`{"labels":["A","B"],"edges":[]}`), &back)
	assert.ErrorIs(t, err, ErrTooFewTips)
}

func TestExport(t *testing.T) {
	tr := quartet(t)
	dir := t.TempDir()

	require.NoError(t, tr.ExportNewick(filepath.Join(dir, "tree.txt")))
	data, err := os.ReadFile(filepath.Join(dir, "tree.txt"))
	require.NoError(t, err)
	assert.Equal(t, tr.Newick(), string(data))

	require.NoError(t, tr.ExportEdges(filepath.Join(dir, "edges.txt")))
	data, err = os.ReadFile(filepath.Join(dir, "edges.txt"))
	require.NoError(t, err)
	assert.Equal(t, 5, strings.Count(string(data), "\n"))

	assert.Error(t, tr.ExportEdges(filepath.Join(dir, "missing", "edges.txt")))
}
