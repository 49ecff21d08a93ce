// Package render draws phylogenetic trees.
//
// [ToDOT] turns a [tree.Tree] into Graphviz source with tips labelled by
// taxon and internal nodes optionally labelled by bootstrap confidence.
// [RenderSVG] lays it out in process with the neato engine:
//
//	dot := render.ToDOT(t, render.Options{Support: support.Confidences()})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [ToPDF] and [ToPNG] convert the SVG with the external rsvg-convert tool
// (brew install librsvg, apt install librsvg2-bin).
package render
