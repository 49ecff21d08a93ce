package nj

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/njtree/pkg/distance"
	"github.com/matzehuels/njtree/pkg/tree"
)

func matrix(t *testing.T, labels []string, rows [][]float64) *distance.Matrix {
	t.Helper()
	m, err := distance.New(labels, rows)
	require.NoError(t, err)
	return m
}

func randomMatrix(t *testing.T, r *rand.Rand, n int) *distance.Matrix {
	t.Helper()
	labels := make([]string, n)
	rows := make([][]float64, n)
	for i := range rows {
		labels[i] = fmt.Sprintf("t%d", i+1)
		rows[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := float64(r.IntN(20)) / 20
			rows[i][j], rows[j][i] = d, d
		}
	}
	return matrix(t, labels, rows)
}

func TestBuildQuartet(t *testing.T) {
	m := matrix(t, []string{"A", "B", "C", "D"}, [][]float64{
		{0, 2, 4, 4},
		{2, 0, 4, 4},
		{4, 4, 0, 2},
		{4, 4, 2, 0},
	})

	tr, err := Build(m)
	require.NoError(t, err)
	assert.Equal(t, []tree.Edge{
		{Parent: 6, Child: 1, Length: 1},
		{Parent: 6, Child: 2, Length: 1},
	}, tr.Children(6))
	assert.Equal(t, []tree.Edge{
		{Parent: 5, Child: 3, Length: 1},
		{Parent: 5, Child: 4, Length: 1},
		{Parent: 5, Child: 6, Length: 2},
	}, tr.Children(5))
}

func TestBuildThreeTaxa(t *testing.T) {
	m := matrix(t, []string{"a", "b", "c"}, [][]float64{
		{0, 3, 4},
		{3, 0, 5},
		{4, 5, 0},
	})

	tr, err := Build(m)
	require.NoError(t, err)
	assert.Equal(t, tree.NodeID(4), tr.Root())
	assert.Equal(t, []tree.Edge{
		{Parent: 4, Child: 1, Length: 1},
		{Parent: 4, Child: 2, Length: 2},
		{Parent: 4, Child: 3, Length: 3},
	}, tr.Children(4))
}

func TestBuildAdditive(t *testing.T) {
	// ((a:1,b:2):1.5,c:3,(d:0.5,e:4):2), distances summed along the paths.
	m := matrix(t, []string{"a", "b", "c", "d", "e"}, [][]float64{
		{0, 3, 5.5, 5, 8.5},
		{3, 0, 6.5, 6, 9.5},
		{5.5, 6.5, 0, 5.5, 9},
		{5, 6, 5.5, 0, 4.5},
		{8.5, 9.5, 9, 4.5, 0},
	})

	tr, err := Build(m)
	require.NoError(t, err)

	// Every tip's pendant length is recovered exactly.
	want := map[tree.NodeID]float64{1: 1, 2: 2, 3: 3, 4: 0.5, 5: 4}
	for _, e := range tr.Edges() {
		if tr.IsTip(e.Child) {
			assert.InDelta(t, want[e.Child], e.Length, 1e-9, "tip %s", tr.Label(e.Child))
		}
	}
	parts := tr.Partitions()
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		keys = append(keys, p.Key())
	}
	assert.ElementsMatch(t, []string{"4|5", "3|4,5", "1|2|3,4,5"}, keys)
}

func TestBuildShape(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{3, 4, 5, 8, 17, 40} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			tr, err := Build(randomMatrix(t, r, n))
			require.NoError(t, err)
			require.NoError(t, tr.Validate())

			edges := tr.Edges()
			assert.Len(t, edges, 2*n-3)
			seen := make(map[tree.NodeID]int)
			for _, e := range edges {
				seen[e.Child]++
			}
			for id := tree.NodeID(1); int(id) <= n; id++ {
				assert.Equal(t, 1, seen[id], "tip %d", id)
			}
			assert.Len(t, tr.Children(tr.Root()), 3)
		})
	}
}

func TestBuildDeterministic(t *testing.T) {
	m := randomMatrix(t, rand.New(rand.NewPCG(7, 7)), 30)

	first, err := Build(m)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Build(m)
		require.NoError(t, err)
		assert.Equal(t, first.Edges(), again.Edges())
	}
}

func TestBuildWorkersMatchSequential(t *testing.T) {
	// Coarse distances produce many Q ties, which exercises the merge order.
	m := randomMatrix(t, rand.New(rand.NewPCG(5, 3)), parallelThreshold+20)

	want, err := Build(m)
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 7} {
		got, err := BuildWithOptions(m, Options{Workers: workers})
		require.NoError(t, err)
		assert.Equal(t, want.Edges(), got.Edges(), "workers=%d", workers)
	}
}

func TestBuildTooFewTaxa(t *testing.T) {
	m := matrix(t, []string{"a", "b"}, [][]float64{{0, 1}, {1, 0}})
	_, err := Build(m)
	assert.ErrorIs(t, err, ErrTooFewTaxa)
}
