package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/njtree/pkg/distance"
	"github.com/matzehuels/njtree/pkg/nj"
	"github.com/matzehuels/njtree/pkg/seq"
	"github.com/matzehuels/njtree/pkg/tree"
)

func randomAlignment(seed uint64, n, length int) seq.Alignment {
	r := rand.New(rand.NewPCG(seed, 0))
	const bases = "ACGT"

	// Mutate a common ancestor so the taxa are related.
	root := make([]byte, length)
	for k := range root {
		root[k] = bases[r.IntN(4)]
	}
	aln := make(seq.Alignment, n)
	for i := range aln {
		res := append([]byte(nil), root...)
		for k := range res {
			if r.IntN(4) == 0 {
				res[k] = bases[r.IntN(4)]
			}
		}
		aln[i] = seq.Sequence{Label: fmt.Sprint(i + 1), Residues: res}
	}
	return aln
}

func reference(t *testing.T, aln seq.Alignment) *tree.Tree {
	t.Helper()
	m, err := distance.Compute(aln)
	require.NoError(t, err)
	ref, err := nj.Build(m)
	require.NoError(t, err)
	return ref
}

func TestEstimateIdentityIsFullySupported(t *testing.T) {
	aln := randomAlignment(1, 10, 60)
	ref := reference(t, aln)

	s, err := Estimate(context.Background(), ref, aln, Options{
		Replicates: 12,
		Workers:    3,
		Sampler:    seq.Identity{},
	})
	require.NoError(t, err)
	assert.Equal(t, 12, s.Replicates)
	require.Len(t, s.Hits, ref.Tips()-2)
	for _, id := range ref.Internal() {
		assert.Equal(t, 1.0, s.Confidence(id), "node %d", id)
	}
	assert.Equal(t, 1.0, s.Mean())
}

func TestEstimateRange(t *testing.T) {
	aln := randomAlignment(2, 12, 40)
	ref := reference(t, aln)

	s, err := Estimate(context.Background(), ref, aln, Options{Replicates: 30})
	require.NoError(t, err)
	for id, c := range s.Confidences() {
		assert.True(t, ref.IsInternal(id))
		assert.GreaterOrEqual(t, c, 0.0)
		assert.LessOrEqual(t, c, 1.0)
	}
	mean := s.Mean()
	assert.GreaterOrEqual(t, mean, 0.0)
	assert.LessOrEqual(t, mean, 1.0)
}

func TestEstimateIndependentOfWorkers(t *testing.T) {
	aln := randomAlignment(3, 9, 50)
	ref := reference(t, aln)

	want, err := Estimate(context.Background(), ref, aln, Options{Replicates: 25, Workers: 1, Seed: 7})
	require.NoError(t, err)
	for _, workers := range []int{2, 5, 25, 64} {
		got, err := Estimate(context.Background(), ref, aln, Options{Replicates: 25, Workers: workers, Seed: 7})
		require.NoError(t, err)
		assert.Equal(t, want.Hits, got.Hits, "workers=%d", workers)
	}
}

func TestEstimateRepeatable(t *testing.T) {
	aln := randomAlignment(4, 14, 30)
	ref := reference(t, aln)

	a, err := Estimate(context.Background(), ref, aln, Options{Replicates: 20, Seed: 1})
	require.NoError(t, err)
	b, err := Estimate(context.Background(), ref, aln, Options{Replicates: 20, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, a.Hits, b.Hits)
}

func TestEstimateProgress(t *testing.T) {
	aln := randomAlignment(5, 6, 20)
	ref := reference(t, aln)

	var calls, last atomic.Int64
	_, err := Estimate(context.Background(), ref, aln, Options{
		Replicates: 17,
		Workers:    4,
		OnReplicate: func(done, total int) {
			calls.Add(1)
			assert.Equal(t, 17, total)
			for {
				cur := last.Load()
				if int64(done) <= cur || last.CompareAndSwap(cur, int64(done)) {
					break
				}
			}
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(17), calls.Load())
	assert.Equal(t, int64(17), last.Load())
}

func TestEstimateThreeTaxa(t *testing.T) {
	aln := randomAlignment(6, 3, 20)
	ref := reference(t, aln)

	s, err := Estimate(context.Background(), ref, aln, Options{Replicates: 5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Confidence(ref.Root()), "three tips have a single topology")
}

func TestEstimateErrors(t *testing.T) {
	aln := randomAlignment(7, 5, 20)
	ref := reference(t, aln)
	ctx := context.Background()

	empty := make(seq.Alignment, len(aln))
	for i, s := range aln {
		empty[i] = seq.Sequence{Label: s.Label}
	}
	_, err := Estimate(ctx, ref, empty, Options{})
	assert.ErrorIs(t, err, ErrEmptyAlignment)

	_, err = Estimate(ctx, ref, aln[:4], Options{})
	assert.ErrorIs(t, err, ErrTaxaMismatch)

	_, err = Estimate(ctx, ref, aln, Options{
		Replicates: 8,
		Sampler:    seq.SamplerFunc(func(*rand.Rand, int) []int { return nil }),
	})
	assert.ErrorIs(t, err, distance.ErrEmptySequences, "a failing replicate fails the estimate")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Estimate(canceled, ref, aln, Options{Replicates: 50})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteConfidences(t *testing.T) {
	ref, err := tree.New([]string{"A", "B", "C", "D", "E"})
	require.NoError(t, err)
	require.NoError(t, ref.Join(8, tree.Edge{Child: 1, Length: 1}, tree.Edge{Child: 2, Length: 1}))
	require.NoError(t, ref.Join(7, tree.Edge{Child: 3, Length: 1}, tree.Edge{Child: 8, Length: 1}))
	require.NoError(t, ref.Join(6, tree.Edge{Child: 4, Length: 1}, tree.Edge{Child: 5, Length: 1}, tree.Edge{Child: 7, Length: 1}))

	assert.Equal(t, []tree.NodeID{6, 7, 8}, Order(ref))

	s := &Support{Replicates: 100, Hits: map[tree.NodeID]int{6: 100, 7: 0, 8: 37}}
	var buf bytes.Buffer
	require.NoError(t, WriteConfidences(&buf, ref, s))
	assert.Equal(t, "1\n0\n0.37\n", buf.String())

	path := filepath.Join(t.TempDir(), "bootstrap.txt")
	require.NoError(t, ExportConfidences(path, ref, s))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(data))
}

func TestSupportZeroReplicates(t *testing.T) {
	s := &Support{}
	assert.Equal(t, 0.0, s.Confidence(4))
	assert.Equal(t, 0.0, s.Mean())
}
