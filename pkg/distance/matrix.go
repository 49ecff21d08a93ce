package distance

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SymmetryTolerance is the largest |d[i][j] - d[j][i]| accepted by [New].
const SymmetryTolerance = 1e-9

var (
	// ErrEmpty is returned when a matrix would have no rows.
	ErrEmpty = errors.New("distance matrix is empty")

	// ErrNotSquare is returned by [New] when a row's length differs from the
	// number of rows.
	ErrNotSquare = errors.New("distance matrix is not square")

	// ErrAsymmetric is returned by [New] when d[i][j] and d[j][i] differ by
	// more than [SymmetryTolerance].
	ErrAsymmetric = errors.New("distance matrix is not symmetric")

	// ErrNonZeroDiagonal is returned by [New] when d[i][i] != 0.
	ErrNonZeroDiagonal = errors.New("distance matrix has a non-zero diagonal")

	// ErrLabelCount is returned by [New] when the number of labels does not
	// match the number of rows.
	ErrLabelCount = errors.New("label count does not match matrix size")

	// ErrNotFinite is returned by [New] for NaN or infinite entries.
	ErrNotFinite = errors.New("distance matrix has a non-finite entry")
)

// Matrix is a labelled, symmetric, zero-diagonal distance matrix.
//
// Storage is a gonum [mat.SymDense], so symmetry holds by construction once a
// Matrix exists; [New] checks it on the way in. A Matrix is read-only after
// construction and safe for concurrent reads.
type Matrix struct {
	labels []string
	sym    *mat.SymDense
}

// New builds a Matrix from labels and a full row-major table. The table must
// be square, symmetric within [SymmetryTolerance], zero on the diagonal and
// finite everywhere. The upper triangle is what gets stored.
func New(labels []string, rows [][]float64) (*Matrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, ErrEmpty
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d labels, %d rows", ErrLabelCount, len(labels), n)
	}
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotSquare, i, len(row), n)
		}
	}

	m := newMatrix(labels)
	for i := 0; i < n; i++ {
		if rows[i][i] != 0 {
			return nil, fmt.Errorf("%w: d[%d][%d] = %v", ErrNonZeroDiagonal, i, i, rows[i][i])
		}
		for j := i + 1; j < n; j++ {
			a, b := rows[i][j], rows[j][i]
			if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
				return nil, fmt.Errorf("%w: d[%d][%d]", ErrNotFinite, i, j)
			}
			if math.Abs(a-b) > SymmetryTolerance {
				return nil, fmt.Errorf("%w: d[%d][%d] = %v, d[%d][%d] = %v", ErrAsymmetric, i, j, a, j, i, b)
			}
			m.sym.SetSym(i, j, a)
		}
	}
	return m, nil
}

// newMatrix allocates a zero matrix. labels must be non-empty.
func newMatrix(labels []string) *Matrix {
	return &Matrix{
		labels: append([]string(nil), labels...),
		sym:    mat.NewSymDense(len(labels), nil),
	}
}

// N returns the number of rows (taxa).
func (m *Matrix) N() int { return len(m.labels) }

// At returns d[i][j].
func (m *Matrix) At(i, j int) float64 { return m.sym.At(i, j) }

// Labels returns a copy of the row labels.
func (m *Matrix) Labels() []string { return append([]string(nil), m.labels...) }

// Label returns the label of row i.
func (m *Matrix) Label(i int) string { return m.labels[i] }

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	row := make([]float64, m.N())
	for j := range row {
		row[j] = m.sym.At(i, j)
	}
	return row
}

// Rows returns the full table as row slices.
func (m *Matrix) Rows() [][]float64 {
	rows := make([][]float64, m.N())
	for i := range rows {
		rows[i] = m.Row(i)
	}
	return rows
}

// Symmetric exposes the underlying storage for gonum consumers.
func (m *Matrix) Symmetric() mat.Symmetric { return m.sym }
