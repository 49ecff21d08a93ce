package seq

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFASTA(t *testing.T) {
	in := `
>1
ACGT
>2
acgt
>taxon three
AC
GT

`
	aln, err := ReadFASTA(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, aln, 3)

	assert.Equal(t, []string{"1", "2", "taxon three"}, aln.Labels())
	assert.Equal(t, "acgt", string(aln[1].Residues), "residue case is preserved")
	assert.Equal(t, "ACGT", string(aln[2].Residues), "wrapped lines are joined")
	assert.Equal(t, 4, aln.Length())
	require.NoError(t, aln.Validate())
}

func TestReadFASTAErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"sequence before header", "ACGT\n>1\nACGT\n"},
		{"empty header", ">\nACGT\n"},
		{"entry without residues", ">1\n>2\nACGT\n"},
		{"trailing entry without residues", ">1\nACGT\n>2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFASTA(strings.NewReader(tt.in))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestWriteFASTARoundTrip(t *testing.T) {
	aln := Alignment{
		{Label: "a", Residues: []byte("ACGT")},
		{Label: "b", Residues: []byte("TTGA")},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFASTA(&buf, aln))

	got, err := ReadFASTA(&buf)
	require.NoError(t, err)
	assert.Equal(t, aln, got)
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, Alignment{}.Validate(), ErrNoSequences)

	uneven := Alignment{
		{Label: "a", Residues: []byte("ACGT")},
		{Label: "b", Residues: []byte("ACG")},
	}
	assert.ErrorIs(t, uneven.Validate(), ErrLengthMismatch)

	dup := Alignment{
		{Label: "a", Residues: []byte("ACGT")},
		{Label: "a", Residues: []byte("ACGA")},
	}
	assert.ErrorIs(t, dup.Validate(), ErrDuplicateLabel)
}

func TestColumns(t *testing.T) {
	aln := Alignment{
		{Label: "a", Residues: []byte("ACGT")},
		{Label: "b", Residues: []byte("TGCA")},
	}

	got, err := aln.Columns([]int{3, 0, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, "TAAG", string(got[0].Residues))
	assert.Equal(t, "ATTC", string(got[1].Residues))
	assert.Equal(t, aln.Labels(), got.Labels())

	// the source alignment is untouched
	assert.Equal(t, "ACGT", string(aln[0].Residues))

	_, err = aln.Columns([]int{4})
	assert.ErrorIs(t, err, ErrColumnOutOfRange)
}

func TestSamplers(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	idx := Uniform{}.Sample(r, 50)
	require.Len(t, idx, 50)
	for _, c := range idx {
		assert.GreaterOrEqual(t, c, 0)
		assert.Less(t, c, 50)
	}

	// same stream, same draw
	a := Uniform{}.Sample(rand.New(rand.NewPCG(7, 0)), 20)
	b := Uniform{}.Sample(rand.New(rand.NewPCG(7, 0)), 20)
	assert.Equal(t, a, b)

	assert.Equal(t, []int{0, 1, 2, 3}, Identity{}.Sample(nil, 4))

	f := SamplerFunc(func(_ *rand.Rand, n int) []int { return make([]int, n) })
	assert.Equal(t, []int{0, 0}, f.Sample(nil, 2))
}
