// Package pipeline runs the complete alignment → distances → tree →
// bootstrap → artifacts chain used by both the CLI and the API server.
//
// A [Runner] owns the cache and logger; [Options] describe one run. Each
// stage can also be run alone through the *WithCacheInfo methods.
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, aln, pipeline.Options{Replicates: 100})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("tree.txt", result.Artifacts[pipeline.ArtifactTree], 0o644)
//
// Errors returned by the Runner carry a code from
// [github.com/matzehuels/njtree/pkg/errors].
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/njtree/pkg/bootstrap"
	"github.com/matzehuels/njtree/pkg/distance"
	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/render"
	"github.com/matzehuels/njtree/pkg/tree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultReplicates is the bootstrap replicate count.
	DefaultReplicates = bootstrap.DefaultReplicates

	// DefaultSeed seeds the bootstrap streams.
	DefaultSeed = bootstrap.DefaultSeed

	// DefaultLayout is the Graphviz engine for drawings.
	DefaultLayout = render.DefaultLayout
)

// Artifact keys in Result.Artifacts for the plain-text outputs.
const (
	ArtifactDistances = "distances"
	ArtifactEdges     = "edges"
	ArtifactTree      = "tree"
	ArtifactBootstrap = "bootstrap"
)

// Drawing formats, also used as artifact keys.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
	FormatPDF = "pdf"
	FormatPNG = "png"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. It supports JSON for API requests.
type Options struct {
	// Bootstrap options
	Replicates    int    `json:"replicates,omitempty"`
	Seed          uint64 `json:"seed,omitempty"`
	Workers       int    `json:"-"`
	SkipBootstrap bool   `json:"skip_bootstrap,omitempty"`

	// Drawing options. No formats means no drawing.
	Formats []string `json:"formats,omitempty"`
	Layout  string   `json:"layout,omitempty"`
	Lengths bool     `json:"lengths,omitempty"`

	// Refresh ignores cached results but still stores fresh ones.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger      *log.Logger           `json:"-"`
	OnReplicate func(done, total int) `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks the options and fills in zero values. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Replicates == 0 {
		o.Replicates = DefaultReplicates
	}
	if err := nterrors.ValidateReplicates(o.Replicates); err != nil {
		return err
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	if o.Workers < 0 {
		return nterrors.New(nterrors.ErrCodeInvalidInput, "workers cannot be negative, got %d", o.Workers)
	}
	if o.Layout == "" {
		o.Layout = DefaultLayout
	}
	if err := ValidateLayout(o.Layout); err != nil {
		return err
	}
	for _, f := range o.Formats {
		if err := nterrors.ValidateRenderFormat(f); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// ValidLayouts lists the Graphviz engines accepted for drawings.
var ValidLayouts = map[string]bool{
	"neato": true,
	"twopi": true,
	"circo": true,
	"fdp":   true,
	"sfdp":  true,
	"dot":   true,
}

// ValidateLayout checks a Graphviz engine name.
func ValidateLayout(layout string) error {
	if !ValidLayouts[layout] {
		return nterrors.New(nterrors.ErrCodeInvalidInput, "unsupported layout %q", layout)
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result holds the outputs of a run.
type Result struct {
	// RunID identifies this run in logs and API responses.
	RunID string

	// AlignmentHash is the content hash used in cache keys.
	AlignmentHash string

	Matrix  *distance.Matrix
	Tree    *tree.Tree
	Support *bootstrap.Support // nil when bootstrap was skipped

	// Artifacts maps artifact keys and drawing formats to file contents.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records sizes and stage timings.
type Stats struct {
	Taxa          int
	Columns       int
	Replicates    int
	MeanSupport   float64
	TreeTime      time.Duration
	BootstrapTime time.Duration
	RenderTime    time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	TreeHit      bool
	BootstrapHit bool
	RenderHit    bool
}
