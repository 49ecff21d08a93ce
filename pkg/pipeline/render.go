package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/njtree/pkg/bootstrap"
	"github.com/matzehuels/njtree/pkg/cache"
	"github.com/matzehuels/njtree/pkg/distance"
	"github.com/matzehuels/njtree/pkg/observability"
	"github.com/matzehuels/njtree/pkg/render"
	"github.com/matzehuels/njtree/pkg/tree"
)

// TextArtifacts renders the plain-text outputs: the distance matrix, the edge
// list, the bracket tree and, when support is non-nil, the confidence list.
func TextArtifacts(m *distance.Matrix, t *tree.Tree, support *bootstrap.Support) (map[string][]byte, error) {
	out := make(map[string][]byte, 4)

	var buf bytes.Buffer
	if m != nil {
		if err := m.WriteTSV(&buf); err != nil {
			return nil, err
		}
		out[ArtifactDistances] = bytes.Clone(buf.Bytes())
		buf.Reset()
	}
	if err := t.WriteEdges(&buf); err != nil {
		return nil, err
	}
	out[ArtifactEdges] = bytes.Clone(buf.Bytes())
	out[ArtifactTree] = []byte(t.Newick())

	if support != nil {
		buf.Reset()
		if err := bootstrap.WriteConfidences(&buf, t, support); err != nil {
			return nil, err
		}
		out[ArtifactBootstrap] = bytes.Clone(buf.Bytes())
	}
	return out, nil
}

// RenderWithCacheInfo draws t in every format in opts.Formats. The set is
// served from the cache only when every format is cached.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, t *tree.Tree, support *bootstrap.Support, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	treeData, err := json.Marshal(t)
	if err != nil {
		return nil, false, Classify(err, "serialize tree for cache key")
	}
	keyOpts := cache.RenderKeyOpts{Layout: opts.Layout, Lengths: opts.Lengths}
	if support != nil {
		if data, err := json.Marshal(support); err == nil {
			keyOpts.Support = cache.Hash(data)
		}
	}
	treeHash := cache.Hash(treeData)
	keyFor := func(format string) string {
		o := keyOpts
		o.Format = format
		return r.Keyer.RenderKey(treeHash, o)
	}

	if !opts.Refresh {
		cached := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, ok := r.lookup(ctx, opts.Logger, "render", keyFor(format))
			if !ok {
				break
			}
			cached[format] = data
		}
		if len(cached) == len(opts.Formats) {
			return cached, true, nil
		}
	}

	drawings, err := Draw(ctx, t, support, opts)
	if err != nil {
		return nil, false, err
	}
	for format, data := range drawings {
		r.store(ctx, opts.Logger, "render", keyFor(format), data, cache.TTLRender)
	}
	return drawings, false, nil
}

// Draw renders t in every format in opts.Formats without caching.
func Draw(ctx context.Context, t *tree.Tree, support *bootstrap.Support, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	ro := render.Options{Layout: opts.Layout, Lengths: opts.Lengths}
	if support != nil {
		ro.Support = support.Confidences()
	}
	dot := render.ToDOT(t, ro)

	out := make(map[string][]byte, len(opts.Formats))
	var svg []byte
	for _, format := range opts.Formats {
		start := time.Now()
		observability.Pipeline().OnRenderStart(ctx, format)
		data, err := func() ([]byte, error) {
			if format == FormatDOT {
				return []byte(dot), nil
			}
			if svg == nil {
				var err error
				if svg, err = render.RenderSVG(ctx, dot); err != nil {
					return nil, err
				}
			}
			switch format {
			case FormatSVG:
				return svg, nil
			case FormatPDF:
				return render.ToPDF(ctx, svg)
			case FormatPNG:
				return render.ToPNG(ctx, svg, 2)
			}
			return nil, fmt.Errorf("unsupported format %q", format)
		}()
		observability.Pipeline().OnRenderComplete(ctx, format, time.Since(start), err)
		if err != nil {
			return nil, Classify(err, "render "+format)
		}
		out[format] = data
	}
	return out, nil
}
