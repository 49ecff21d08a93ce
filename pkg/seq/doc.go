// Package seq holds aligned sequence sets and the column resampling used by
// bootstrap replicates.
//
// Read an alignment with [ReadFASTA] or [ImportFASTA] and check it with
// [Alignment.Validate] before computing distances:
//
//	aln, err := seq.ImportFASTA("hw3.fna")
//	if err != nil {
//	    return err
//	}
//	if err := aln.Validate(); err != nil {
//	    return err
//	}
//
// A bootstrap replicate draws column indices with a [Sampler] and applies the
// same draw to every taxon with [Alignment.Columns].
package seq
