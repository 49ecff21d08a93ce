package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/njtree/pkg/bootstrap"
	"github.com/matzehuels/njtree/pkg/cache"
	"github.com/matzehuels/njtree/pkg/distance"
	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/nj"
	"github.com/matzehuels/njtree/pkg/observability"
	"github.com/matzehuels/njtree/pkg/seq"
	"github.com/matzehuels/njtree/pkg/tree"
)

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner may serve concurrent runs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// means cache.DefaultKeyer and a nil logger means log.Default().
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs distances → tree → bootstrap → artifacts for an alignment.
func (r *Runner) Execute(ctx context.Context, aln seq.Alignment, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	if err := ValidateAlignment(aln); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:         uuid.NewString(),
		AlignmentHash: HashAlignment(aln),
		Artifacts:     make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.RunID[:8])
	result.Stats.Taxa = len(aln)
	result.Stats.Columns = aln.Length()

	// Stage 1: distances and tree
	treeStart := time.Now()
	m, t, treeHit, err := r.BuildTreeWithCacheInfo(ctx, aln, opts)
	if err != nil {
		return nil, err
	}
	result.Matrix, result.Tree = m, t
	result.Stats.TreeTime = time.Since(treeStart)
	result.CacheInfo.TreeHit = treeHit
	logger.Info("built tree",
		"taxa", len(aln),
		"columns", aln.Length(),
		"cached", treeHit,
		"duration", result.Stats.TreeTime)

	// Stage 2: bootstrap
	if !opts.SkipBootstrap {
		bootStart := time.Now()
		support, bootHit, err := r.BootstrapWithCacheInfo(ctx, t, aln, opts)
		if err != nil {
			return nil, err
		}
		result.Support = support
		result.Stats.BootstrapTime = time.Since(bootStart)
		result.Stats.Replicates = support.Replicates
		result.Stats.MeanSupport = support.Mean()
		result.CacheInfo.BootstrapHit = bootHit
		logger.Info("estimated support",
			"replicates", support.Replicates,
			"mean", result.Stats.MeanSupport,
			"cached", bootHit,
			"duration", result.Stats.BootstrapTime)
	}

	// Stage 3: artifacts
	text, err := TextArtifacts(m, t, result.Support)
	if err != nil {
		return nil, Classify(err, "write artifacts")
	}
	for k, v := range text {
		result.Artifacts[k] = v
	}
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		drawings, renderHit, err := r.RenderWithCacheInfo(ctx, t, result.Support, opts)
		if err != nil {
			return nil, err
		}
		for k, v := range drawings {
			result.Artifacts[k] = v
		}
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = renderHit
		logger.Info("rendered tree",
			"formats", opts.Formats,
			"cached", renderHit,
			"duration", result.Stats.RenderTime)
	}
	return result, nil
}

// BuildFromMatrix builds a tree from a precomputed distance matrix. There is
// no alignment to resample, so the result carries no support and only the
// distances, edges and tree artifacts.
func (r *Runner) BuildFromMatrix(ctx context.Context, m *distance.Matrix, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)
	for _, label := range m.Labels() {
		if err := nterrors.ValidateLabel(label); err != nil {
			return nil, err
		}
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Matrix:    m,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.Taxa = m.N()

	start := time.Now()
	observability.Pipeline().OnTreeStart(ctx, m.N())
	t, err := nj.BuildWithOptions(m, nj.Options{Workers: workers(opts)})
	observability.Pipeline().OnTreeComplete(ctx, m.N(), time.Since(start), err)
	if err != nil {
		return nil, Classify(err, "build tree")
	}
	result.Tree = t
	result.Stats.TreeTime = time.Since(start)
	opts.Logger.Info("built tree from matrix", "taxa", m.N(), "duration", result.Stats.TreeTime)

	text, err := TextArtifacts(m, t, nil)
	if err != nil {
		return nil, Classify(err, "write artifacts")
	}
	result.Artifacts = text
	return result, nil
}

// BuildTreeWithCacheInfo computes the distance matrix and the
// neighbor-joining tree, reusing a cached tree when one exists. The matrix is
// always recomputed; it is cheap next to the join.
func (r *Runner) BuildTreeWithCacheInfo(ctx context.Context, aln seq.Alignment, opts Options) (*distance.Matrix, *tree.Tree, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnTreeStart(ctx, len(aln))
	m, t, hit, err := r.buildTree(ctx, aln, opts)
	observability.Pipeline().OnTreeComplete(ctx, len(aln), time.Since(start), err)
	if err != nil {
		return nil, nil, false, err
	}
	return m, t, hit, nil
}

func (r *Runner) buildTree(ctx context.Context, aln seq.Alignment, opts Options) (*distance.Matrix, *tree.Tree, bool, error) {
	m, err := distance.ComputeParallel(aln, workers(opts))
	if err != nil {
		return nil, nil, false, Classify(err, "compute distances")
	}

	key := r.Keyer.TreeKey(HashAlignment(aln))
	if !opts.Refresh {
		if data, ok := r.lookup(ctx, opts.Logger, "tree", key); ok {
			var t tree.Tree
			if err := json.Unmarshal(data, &t); err == nil && slices.Equal(t.Labels(), aln.Labels()) {
				return m, &t, true, nil
			}
			opts.Logger.Debug("discarding unusable cached tree", "key", key)
		}
	}

	t, err := nj.BuildWithOptions(m, nj.Options{Workers: workers(opts)})
	if err != nil {
		return nil, nil, false, Classify(err, "build tree")
	}
	if data, err := json.Marshal(t); err == nil {
		r.store(ctx, opts.Logger, "tree", key, data, cache.TTLTree)
	}
	return m, t, false, nil
}

// BootstrapWithCacheInfo estimates support for t, reusing a cached estimate
// for the same alignment, replicate count and seed.
func (r *Runner) BootstrapWithCacheInfo(ctx context.Context, t *tree.Tree, aln seq.Alignment, opts Options) (*bootstrap.Support, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	observability.Pipeline().OnBootstrapStart(ctx, opts.Replicates)
	s, hit, err := r.bootstrap(ctx, t, aln, opts)
	observability.Pipeline().OnBootstrapComplete(ctx, opts.Replicates, time.Since(start), err)
	return s, hit, err
}

func (r *Runner) bootstrap(ctx context.Context, t *tree.Tree, aln seq.Alignment, opts Options) (*bootstrap.Support, bool, error) {
	key := r.Keyer.BootstrapKey(HashAlignment(aln), cache.BootstrapKeyOpts{
		Replicates: opts.Replicates,
		Seed:       opts.Seed,
	})
	if !opts.Refresh {
		if data, ok := r.lookup(ctx, opts.Logger, "bootstrap", key); ok {
			var s bootstrap.Support
			if err := json.Unmarshal(data, &s); err == nil && supportMatches(&s, t, opts.Replicates) {
				return &s, true, nil
			}
			opts.Logger.Debug("discarding unusable cached support", "key", key)
		}
	}

	s, err := bootstrap.Estimate(ctx, t, aln, bootstrap.Options{
		Replicates:  opts.Replicates,
		Workers:     opts.Workers,
		Seed:        opts.Seed,
		OnReplicate: opts.OnReplicate,
	})
	if err != nil {
		return nil, false, Classify(err, "bootstrap")
	}
	if data, err := json.Marshal(s); err == nil {
		r.store(ctx, opts.Logger, "bootstrap", key, data, cache.TTLBootstrap)
	}
	return s, false, nil
}

// supportMatches reports whether a cached estimate fits t.
func supportMatches(s *bootstrap.Support, t *tree.Tree, replicates int) bool {
	if s.Replicates != replicates || len(s.Hits) != len(t.Internal()) {
		return false
	}
	for id := range s.Hits {
		if !t.IsInternal(id) {
			return false
		}
	}
	return true
}

// lookup reads key from the cache and reports the outcome to the cache
// hooks. Backend errors are logged and treated as misses.
func (r *Runner) lookup(ctx context.Context, logger *log.Logger, keyType, key string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "type", keyType, "err", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// store writes to the cache. Failures are logged, never returned.
func (r *Runner) store(ctx context.Context, logger *log.Logger, keyType, key string, data []byte, ttl time.Duration) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func workers(opts Options) int {
	if opts.Workers > 0 {
		return opts.Workers
	}
	return runtime.NumCPU()
}

// HashAlignment returns the content hash of an alignment: labels and
// residues in order.
func HashAlignment(aln seq.Alignment) string {
	var buf bytes.Buffer
	_ = seq.WriteFASTA(&buf, aln)
	return cache.Hash(buf.Bytes())
}

// ValidateAlignment checks an alignment before any computation: consistent
// lengths, unique labels that are safe to write, at least one column and at
// least three taxa.
func ValidateAlignment(aln seq.Alignment) error {
	if err := aln.Validate(); err != nil {
		return Classify(err, "invalid alignment")
	}
	for _, s := range aln {
		if err := nterrors.ValidateLabel(s.Label); err != nil {
			return err
		}
	}
	if aln.Length() == 0 {
		return nterrors.New(nterrors.ErrCodeInvalidAlignment, "sequences have no residues")
	}
	if len(aln) < 3 {
		return nterrors.New(nterrors.ErrCodeTooFewTaxa, "need at least 3 sequences, got %d", len(aln))
	}
	return nil
}
