package nj

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/matzehuels/njtree/pkg/distance"
	"github.com/matzehuels/njtree/pkg/tree"
)

var (
	// ErrTooFewTaxa is returned when the matrix has fewer than three rows.
	ErrTooFewTaxa = errors.New("neighbor joining needs at least 3 taxa")

	// ErrInvariant is returned if the active set ever drops below three
	// nodes before a join. It indicates a bug, not bad input.
	ErrInvariant = errors.New("neighbor joining invariant violated")
)

// parallelThreshold is the active-set size below which the Q scan stays on
// one goroutine regardless of Options.Workers.
const parallelThreshold = 128

// Options tunes [BuildWithOptions].
type Options struct {
	// Workers splits each Q scan across this many goroutines. Values <= 1
	// scan sequentially. The result does not depend on Workers.
	Workers int
}

// Build runs neighbor joining on m and returns the unrooted tree.
//
// Tips are numbered 1..n in matrix order and carry the matrix labels.
// Internal nodes are allocated downward from 2n-2; the last join creates the
// trifurcation n+1 over the final three active nodes.
func Build(m *distance.Matrix) (*tree.Tree, error) {
	return BuildWithOptions(m, Options{})
}

// BuildWithOptions is [Build] with tuning options.
func BuildWithOptions(m *distance.Matrix, opts Options) (*tree.Tree, error) {
	n := m.N()
	if n < 3 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewTaxa, n)
	}
	t, err := tree.New(m.Labels())
	if err != nil {
		return nil, err
	}

	j := &joiner{
		d:       m.Rows(),
		active:  make([]tree.NodeID, n),
		next:    tree.NodeID(2*n - 2),
		workers: opts.Workers,
	}
	for i := range j.active {
		j.active[i] = tree.NodeID(i + 1)
	}

	for {
		done, err := j.step(t)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	return t, nil
}

// joiner holds the shrinking working state. d is rebuilt on every join with
// the new node in row 0 and the survivors after it in their previous order.
type joiner struct {
	d       [][]float64
	active  []tree.NodeID
	next    tree.NodeID
	workers int
}

// step performs one join and reports whether the tree is complete.
func (j *joiner) step(t *tree.Tree) (bool, error) {
	m := len(j.active)
	if m < 3 {
		return false, fmt.Errorf("%w: %d active nodes", ErrInvariant, m)
	}

	r := make([]float64, m)
	for i, row := range j.d {
		r[i] = floats.Sum(row)
	}
	a, b := j.minPair(r)

	dab := j.d[a][b]
	lenA := 0.5*dab + (r[a]-r[b])/(2*float64(m-2))
	lenB := dab - lenA
	u := j.next
	ea := tree.Edge{Child: j.active[a], Length: lenA}
	eb := tree.Edge{Child: j.active[b], Length: lenB}

	if m == 3 {
		k := 3 - a - b
		lenK := 0.5 * (j.d[a][k] + j.d[b][k] - dab)
		if u != t.Root() {
			return false, fmt.Errorf("%w: final node %d, want %d", ErrInvariant, u, t.Root())
		}
		if err := t.Join(u, ea, eb, tree.Edge{Child: j.active[k], Length: lenK}); err != nil {
			return false, fmt.Errorf("%w: %v", ErrInvariant, err)
		}
		return true, nil
	}

	if err := t.Join(u, ea, eb); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvariant, err)
	}
	j.merge(a, b, u)
	return false, nil
}

// merge replaces a and b with u at the front of the active set.
func (j *joiner) merge(a, b int, u tree.NodeID) {
	m := len(j.active)
	keep := make([]int, 0, m-2)
	for k := 0; k < m; k++ {
		if k != a && k != b {
			keep = append(keep, k)
		}
	}

	dab := j.d[a][b]
	next := make([][]float64, m-1)
	for i := range next {
		next[i] = make([]float64, m-1)
	}
	for x, k := range keep {
		du := 0.5 * (j.d[a][k] + j.d[b][k] - dab)
		next[0][x+1] = du
		next[x+1][0] = du
		for y, l := range keep {
			next[x+1][y+1] = j.d[k][l]
		}
	}

	active := make([]tree.NodeID, 0, m-1)
	active = append(active, u)
	for _, k := range keep {
		active = append(active, j.active[k])
	}

	j.d = next
	j.active = active
	j.next--
}

// minPair returns the pair minimizing Q over the upper triangle. The scan
// runs in row-major order with strict comparison, so the first minimum wins.
func (j *joiner) minPair(r []float64) (int, int) {
	m := len(j.active)
	workers := j.workers
	if workers <= 1 || m < parallelThreshold {
		c := j.scan(r, 0, m)
		return c.a, c.b
	}
	if workers > m {
		workers = m
	}

	// Rows have unequal lengths in the upper triangle; contiguous ranges
	// keep the merge in row-major order.
	best := make([]candidate, workers)
	per := (m + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start, end := w*per, min((w+1)*per, m)
		if start >= end {
			best[w] = candidate{q: math.Inf(1)}
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			best[w] = j.scan(r, start, end)
		}(w, start, end)
	}
	wg.Wait()

	out := candidate{q: math.Inf(1)}
	for _, c := range best {
		if c.q < out.q {
			out = c
		}
	}
	return out.a, out.b
}

type candidate struct {
	q    float64
	a, b int
}

// scan finds the first Q minimum among rows [start, end).
func (j *joiner) scan(r []float64, start, end int) candidate {
	m := len(j.active)
	scale := float64(m - 2)
	best := candidate{q: math.Inf(1), a: 0, b: 1}
	for a := start; a < end; a++ {
		row := j.d[a]
		for b := a + 1; b < m; b++ {
			q := scale*row[b] - r[a] - r[b]
			if q < best.q {
				best = candidate{q: q, a: a, b: b}
			}
		}
	}
	return best
}
