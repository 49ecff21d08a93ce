package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/njtree/pkg/format"
	"github.com/matzehuels/njtree/pkg/tree"
)

// DefaultLayout is the Graphviz engine used when Options.Layout is empty.
// neato places nodes by edge length, which suits unrooted trees.
const DefaultLayout = "neato"

// minEdgeLen keeps zero and negative branch lengths drawable.
const minEdgeLen = 0.05

// Options configures tree rendering.
type Options struct {
	// Support maps internal nodes to bootstrap confidence. Nodes present in
	// the map are labelled with their value.
	Support map[tree.NodeID]float64

	// Layout names the Graphviz engine. Empty means DefaultLayout.
	Layout string

	// Lengths labels every edge with its branch length.
	Lengths bool

	// Scale multiplies branch lengths into neato edge lengths. Zero means 10.
	Scale float64
}

// ToDOT converts a tree to an undirected Graphviz graph.
//
// Tips are drawn as their labels and internal nodes as small points, with
// confidences attached as external labels. Edges are emitted in persisted
// edge-list order so the output is stable.
func ToDOT(t *tree.Tree, opts Options) string {
	layout := opts.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 10
	}

	var buf bytes.Buffer
	buf.WriteString("graph T {\n")
	fmt.Fprintf(&buf, "  layout=%s;\n", layout)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  overlap=false;\n")
	buf.WriteString("  node [shape=plaintext, fontsize=14];\n")
	buf.WriteString("  edge [fontsize=10];\n")
	buf.WriteString("\n")

	for id := tree.NodeID(1); int(id) <= t.Size(); id++ {
		fmt.Fprintf(&buf, "  %s [%s];\n", nodeName(id), nodeAttrs(t, id, opts.Support))
	}

	buf.WriteString("\n")
	for _, e := range t.Edges() {
		l := math.Max(e.Length*scale, minEdgeLen)
		attrs := "len=" + strconv.FormatFloat(l, 'f', 4, 64)
		if opts.Lengths {
			attrs += fmt.Sprintf(", label=%q", format.Decimal(e.Length))
		}
		fmt.Fprintf(&buf, "  %s -- %s [%s];\n", nodeName(e.Parent), nodeName(e.Child), attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeName(id tree.NodeID) string {
	return "n" + strconv.Itoa(int(id))
}

func nodeAttrs(t *tree.Tree, id tree.NodeID, support map[tree.NodeID]float64) string {
	if t.IsTip(id) {
		return fmt.Sprintf("label=%q", t.Label(id))
	}
	attrs := "shape=point, width=0.06"
	if c, ok := support[id]; ok {
		attrs += fmt.Sprintf(", xlabel=%q, fontcolor=\"#555555\"", format.Proportion(c))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized root element with one
// that scales to its container.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
