// Package bootstrap estimates how well the alignment supports each internal
// node of a neighbor-joining tree.
//
// [Estimate] draws replicate alignments by resampling columns with
// replacement, rebuilds a tree for each and counts how often every reference
// node's [tree.Partition] reappears. The resulting [Support] is deterministic
// for a given seed and replicate count:
//
//	support, err := bootstrap.Estimate(ctx, ref, aln, bootstrap.Options{
//	    Replicates: 100,
//	    Seed:       42,
//	})
//	if err != nil {
//	    return err
//	}
//	bootstrap.WriteConfidences(os.Stdout, ref, support)
package bootstrap
