// Package pkg holds the njtree libraries.
//
// Data flows through the packages in this order:
//
//	FASTA alignment          [seq]
//	     ↓
//	p-distance matrix        [distance]
//	     ↓
//	neighbor-joining tree    [nj], stored as a [tree.Tree]
//	     ↓
//	bootstrap support        [bootstrap]
//	     ↓
//	edges.txt, tree.txt, bootstrap.txt, drawings   [tree], [bootstrap], [render]
//
// [pipeline] runs the whole chain with caching ([cache]) and emits events
// through [observability]. [errors] carries the coded errors shared by the
// CLI and the API.
//
// A minimal run without the pipeline:
//
//	aln, _ := seq.ImportFASTA("hw3.fna")
//	m, _ := distance.Compute(aln)
//	t, _ := nj.Build(m)
//	support, _ := bootstrap.Estimate(ctx, t, aln, bootstrap.Options{})
//	t.WriteNewick(os.Stdout)
package pkg
