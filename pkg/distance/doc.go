// Package distance computes and stores pairwise genetic distances between
// aligned sequences.
//
// [Compute] turns an alignment into a [Matrix] of p-distances (the fraction of
// differing sites). The same function is used for the original alignment and
// for every bootstrap replicate. [New] accepts a precomputed table and
// rejects anything that is not square, symmetric and zero on the diagonal,
// before any tree construction starts.
//
// The optional diagnostic artifact is written with [Matrix.WriteTSV] and read
// back with [ReadTSV].
package distance
