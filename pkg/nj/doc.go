// Package nj builds unrooted binary trees from distance matrices by neighbor
// joining.
//
// Each round picks the pair of active nodes minimizing
//
//	Q(i, j) = (m-2) d(i, j) - R(i) - R(j)
//
// where m is the number of active nodes and R(x) the sum of x's distances,
// joins them under a new internal node and replaces them with that node in a
// smaller matrix. Ties go to the first pair in row-major order over the upper
// triangle, so a given matrix always yields the same tree. That is what lets
// bootstrap replicates be compared node by node.
package nj
