package distance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/matzehuels/njtree/pkg/seq"
)

// ErrEmptySequences is returned by [Compute] when the sequences have no
// residues, which would make every distance a division by zero.
var ErrEmptySequences = errors.New("sequences have zero length")

// Compute returns the p-distance matrix of an alignment:
//
//	d[i][j] = 1 - same(i, j) / L
//
// where same counts the columns at which sequences i and j carry the same
// residue and L is the alignment length. The diagonal is zero.
//
// Compute is pure. It fails with [seq.ErrLengthMismatch] if the sequences
// differ in length and with [ErrEmptySequences] if L is zero.
func Compute(aln seq.Alignment) (*Matrix, error) {
	return ComputeParallel(aln, 1)
}

// ComputeParallel is [Compute] with rows split across numWorkers goroutines.
// Each worker owns a contiguous range of source rows and fills d[i][j] for
// j > i, so no two workers write the same cell. The result is identical to
// Compute. numWorkers <= 1 runs sequentially.
func ComputeParallel(aln seq.Alignment, numWorkers int) (*Matrix, error) {
	if err := aln.Validate(); err != nil {
		return nil, fmt.Errorf("compute distances: %w", err)
	}
	length := aln.Length()
	if length == 0 {
		return nil, ErrEmptySequences
	}

	n := len(aln)
	m := newMatrix(aln.Labels())
	fill := func(start, end int) {
		for i := start; i < end; i++ {
			for j := i + 1; j < n; j++ {
				m.sym.SetSym(i, j, pDistance(aln[i].Residues, aln[j].Residues))
			}
		}
	}

	if numWorkers <= 1 || n <= 1 {
		fill(0, n)
		return m, nil
	}

	var wg sync.WaitGroup
	rowsPerWorker := (n + numWorkers - 1) / numWorkers
	for w := 0; w < numWorkers; w++ {
		start := w * rowsPerWorker
		if start >= n {
			break
		}
		end := min(start+rowsPerWorker, n)

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fill(start, end)
		}(start, end)
	}
	wg.Wait()
	return m, nil
}

// pDistance is the fraction of differing columns. a and b have equal,
// non-zero length.
func pDistance(a, b []byte) float64 {
	same := 0
	for k := range a {
		if a[k] == b[k] {
			same++
		}
	}
	return 1 - float64(same)/float64(len(a))
}
