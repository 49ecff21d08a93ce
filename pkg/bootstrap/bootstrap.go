package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/njtree/pkg/distance"
	"github.com/matzehuels/njtree/pkg/nj"
	"github.com/matzehuels/njtree/pkg/seq"
	"github.com/matzehuels/njtree/pkg/tree"
)

const (
	// DefaultReplicates is the number of resampled trees when
	// Options.Replicates is zero.
	DefaultReplicates = 100

	// DefaultSeed seeds the replicate streams when Options.Seed is zero.
	DefaultSeed uint64 = 42
)

var (
	// ErrEmptyAlignment is returned when the alignment has no columns to
	// resample.
	ErrEmptyAlignment = errors.New("alignment has no columns")

	// ErrTaxaMismatch is returned when the alignment's labels differ from the
	// reference tree's tips.
	ErrTaxaMismatch = errors.New("alignment does not match reference tree")
)

// Options configures [Estimate]. The zero value is usable.
type Options struct {
	// Replicates is the number of resampled trees. Zero means
	// DefaultReplicates.
	Replicates int

	// Workers bounds how many replicates run at once. Zero means
	// runtime.NumCPU().
	Workers int

	// Seed selects the random streams. Replicate r draws from a PCG stream
	// seeded with (Seed, r), so results depend on Seed and Replicates but not
	// on Workers or scheduling. Zero means DefaultSeed.
	Seed uint64

	// Sampler draws each replicate's columns. Nil means seq.Uniform.
	Sampler seq.Sampler

	// OnReplicate, if set, is called after each replicate finishes with the
	// number finished so far. It is called from worker goroutines and must
	// be safe for concurrent use.
	OnReplicate func(done, total int)
}

func (o Options) withDefaults() Options {
	if o.Replicates <= 0 {
		o.Replicates = DefaultReplicates
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Sampler == nil {
		o.Sampler = seq.Uniform{}
	}
	return o
}

// Support is the outcome of [Estimate]: for each internal node of the
// reference tree, how many replicate nodes had the same partition.
type Support struct {
	Replicates int                 `json:"replicates"`
	Hits       map[tree.NodeID]int `json:"hits"`
}

// Confidence returns Hits[id] / Replicates, or 0 for unknown nodes.
//
// A replicate can hold more than one node with a given partition only in
// degenerate trees, so in practice the value lies in [0, 1]. Every match is
// counted.
func (s *Support) Confidence(id tree.NodeID) float64 {
	if s.Replicates == 0 {
		return 0
	}
	return float64(s.Hits[id]) / float64(s.Replicates)
}

// Confidences returns the confidence of every node in s, keyed by node ID.
func (s *Support) Confidences() map[tree.NodeID]float64 {
	out := make(map[tree.NodeID]float64, len(s.Hits))
	for id := range s.Hits {
		out[id] = s.Confidence(id)
	}
	return out
}

// Mean returns the average confidence over all nodes.
func (s *Support) Mean() float64 {
	if len(s.Hits) == 0 {
		return 0
	}
	ids := make([]tree.NodeID, 0, len(s.Hits))
	for id := range s.Hits {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	vals := make([]float64, len(ids))
	for i, id := range ids {
		vals[i] = s.Confidence(id)
	}
	return stat.Mean(vals, nil)
}

// Estimate computes bootstrap support for every internal node of ref.
//
// Each replicate resamples the alignment's columns with the configured
// Sampler, recomputes distances, rebuilds a tree by neighbor joining and
// counts, for every replicate node, the reference nodes with the same
// [tree.Partition]. Replicates run on a bounded pool of workers. The first
// failing replicate cancels the rest and its error is returned.
//
// aln must list the same taxa in the same order as ref's tips.
func Estimate(ctx context.Context, ref *tree.Tree, aln seq.Alignment, opts Options) (*Support, error) {
	opts = opts.withDefaults()
	if err := aln.Validate(); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	if aln.Length() == 0 {
		return nil, ErrEmptyAlignment
	}
	if !slices.Equal(aln.Labels(), ref.Labels()) {
		return nil, fmt.Errorf("%w: %d sequences, %d tips", ErrTaxaMismatch, len(aln), ref.Tips())
	}

	internal := ref.Internal()
	parts := ref.Partitions()
	catalog := make(map[string][]int, len(internal))
	for i, id := range internal {
		key := parts[id].Key()
		catalog[key] = append(catalog[key], i)
	}

	workers := min(opts.Workers, opts.Replicates)
	jobs := make(chan int)
	counts := make([][]int, workers)
	var finished atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for r := 0; r < opts.Replicates; r++ {
			select {
			case jobs <- r:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		hits := make([]int, len(internal))
		counts[w] = hits
		g.Go(func() error {
			for r := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := replicate(aln, r, opts, catalog, hits); err != nil {
					return fmt.Errorf("replicate %d: %w", r, err)
				}
				done := int(finished.Add(1))
				if opts.OnReplicate != nil {
					opts.OnReplicate(done, opts.Replicates)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	support := &Support{
		Replicates: opts.Replicates,
		Hits:       make(map[tree.NodeID]int, len(internal)),
	}
	for i, id := range internal {
		for _, hits := range counts {
			support.Hits[id] += hits[i]
		}
	}
	return support, nil
}

// replicate runs one resample and adds its matches to hits, which is indexed
// like ref.Internal().
func replicate(aln seq.Alignment, r int, opts Options, catalog map[string][]int, hits []int) error {
	rng := rand.New(rand.NewPCG(opts.Seed, uint64(r)))
	sample, err := aln.Columns(opts.Sampler.Sample(rng, aln.Length()))
	if err != nil {
		return err
	}
	m, err := distance.Compute(sample)
	if err != nil {
		return err
	}
	t, err := nj.Build(m)
	if err != nil {
		return err
	}
	for _, p := range t.Partitions() {
		for _, i := range catalog[p.Key()] {
			hits[i]++
		}
	}
	return nil
}
