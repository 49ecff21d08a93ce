package distance

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/njtree/pkg/seq"
)

func alignment(rows ...string) seq.Alignment {
	aln := make(seq.Alignment, len(rows))
	for i, r := range rows {
		aln[i] = seq.Sequence{Label: fmt.Sprint(i + 1), Residues: []byte(r)}
	}
	return aln
}

func randomAlignment(r *rand.Rand, n, length int) seq.Alignment {
	const bases = "ACGT"
	aln := make(seq.Alignment, n)
	for i := range aln {
		res := make([]byte, length)
		for k := range res {
			res[k] = bases[r.IntN(len(bases))]
		}
		aln[i] = seq.Sequence{Label: fmt.Sprintf("t%d", i), Residues: res}
	}
	return aln
}

func TestCompute(t *testing.T) {
	m, err := Compute(alignment("AAAA", "AAAT", "TTTT"))
	require.NoError(t, err)
	require.Equal(t, 3, m.N())

	assert.Equal(t, 0.0, m.At(0, 0))
	assert.InDelta(t, 0.25, m.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, m.At(0, 2), 1e-12)
	assert.InDelta(t, 0.75, m.At(1, 2), 1e-12)
	assert.Equal(t, []string{"1", "2", "3"}, m.Labels())
}

func TestComputeSymmetricZeroDiagonal(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 9))
	for trial := 0; trial < 20; trial++ {
		aln := randomAlignment(r, 2+r.IntN(12), 1+r.IntN(40))
		m, err := Compute(aln)
		require.NoError(t, err)
		for i := 0; i < m.N(); i++ {
			assert.Equal(t, 0.0, m.At(i, i))
			for j := 0; j < m.N(); j++ {
				assert.Equal(t, m.At(i, j), m.At(j, i))
				assert.GreaterOrEqual(t, m.At(i, j), 0.0)
				assert.LessOrEqual(t, m.At(i, j), 1.0)
			}
		}
	}
}

func TestComputeParallelMatchesSequential(t *testing.T) {
	aln := randomAlignment(rand.New(rand.NewPCG(11, 4)), 37, 120)

	seqM, err := Compute(aln)
	require.NoError(t, err)
	for _, workers := range []int{2, 3, 8, 64} {
		parM, err := ComputeParallel(aln, workers)
		require.NoError(t, err)
		assert.Equal(t, seqM.Rows(), parM.Rows(), "workers=%d", workers)
	}
}

func TestComputeErrors(t *testing.T) {
	_, err := Compute(alignment("ACGT", "ACG"))
	assert.ErrorIs(t, err, seq.ErrLengthMismatch)

	_, err = Compute(alignment("", ""))
	assert.ErrorIs(t, err, ErrEmptySequences)

	_, err = Compute(nil)
	assert.ErrorIs(t, err, seq.ErrNoSequences)
}

func TestComputeIsCaseSensitive(t *testing.T) {
	m, err := Compute(alignment("ACGT", "acGT", "ACGT"))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, m.At(0, 1), 1e-12)
	assert.Equal(t, 0.0, m.At(0, 2))
}

func TestNewValidation(t *testing.T) {
	labels := []string{"a", "b", "c"}
	tests := []struct {
		name   string
		labels []string
		rows   [][]float64
		want   error
	}{
		{"empty", nil, nil, ErrEmpty},
		{"label count", []string{"a"}, [][]float64{{0, 1}, {1, 0}}, ErrLabelCount},
		{"not square", labels, [][]float64{{0, 1, 2}, {1, 0}, {2, 1, 0}}, ErrNotSquare},
		{"asymmetric", labels, [][]float64{{0, 1, 2}, {1, 0, 3}, {2, 3.5, 0}}, ErrAsymmetric},
		{"diagonal", labels, [][]float64{{0, 1, 2}, {1, 0.1, 3}, {2, 3, 0}}, ErrNonZeroDiagonal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.labels, tt.rows)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	m, err := New(labels, [][]float64{{0, 1, 2}, {1, 0, 3}, {2, 3 + 1e-12, 0}})
	require.NoError(t, err, "differences within tolerance are accepted")
	assert.Equal(t, 3.0, m.At(1, 2))
}

func TestTSVRoundTrip(t *testing.T) {
	m, err := Compute(alignment("AAAAAAAA", "AAAATTAA", "TTAACCAA", "GGGGAAAA"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.WriteTSV(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "\t1\t2\t3\t4", lines[0])
	assert.Equal(t, "1\t0\t0.25\t0.5\t0.5", lines[1])

	back, err := ReadTSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, m.Labels(), back.Labels())
	assert.Equal(t, m.Rows(), back.Rows())
}

func TestReadTSVErrors(t *testing.T) {
	_, err := ReadTSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = ReadTSV(strings.NewReader("a\tb\n"))
	assert.Error(t, err)

	_, err = ReadTSV(strings.NewReader("\ta\tb\nb\t0\t1\na\t1\t0\n"))
	assert.ErrorContains(t, err, "row label")

	_, err = ReadTSV(strings.NewReader("\ta\tb\na\t0\t1\nb\t2\t0\n"))
	assert.ErrorIs(t, err, ErrAsymmetric)
}
