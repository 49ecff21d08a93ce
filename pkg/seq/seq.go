package seq

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSequences is returned by [Alignment.Validate] for an empty alignment.
	ErrNoSequences = errors.New("alignment has no sequences")

	// ErrLengthMismatch is returned by [Alignment.Validate] when two sequences
	// have different lengths. Every distance and resampling step assumes the
	// columns line up, so this is always fatal.
	ErrLengthMismatch = errors.New("sequences differ in length")

	// ErrDuplicateLabel is returned by [Alignment.Validate] when two sequences
	// share a label. Labels are how tips are written back out.
	ErrDuplicateLabel = errors.New("duplicate sequence label")

	// ErrColumnOutOfRange is returned by [Alignment.Columns] for an index
	// outside [0, Length()).
	ErrColumnOutOfRange = errors.New("column index out of range")
)

// Sequence is one aligned taxon: a label and its residues.
type Sequence struct {
	Label    string
	Residues []byte
}

// Len returns the number of residues.
func (s Sequence) Len() int { return len(s.Residues) }

// Alignment is an ordered set of aligned sequences. Position i in the slice
// becomes tip i+1 in a tree built from it.
type Alignment []Sequence

// Validate checks that the alignment is non-empty, that all sequences have the
// same length and that labels are unique.
func (a Alignment) Validate() error {
	if len(a) == 0 {
		return ErrNoSequences
	}
	want := a[0].Len()
	seen := make(map[string]struct{}, len(a))
	for i, s := range a {
		if s.Len() != want {
			return fmt.Errorf("%w: %q has %d residues, %q has %d",
				ErrLengthMismatch, s.Label, s.Len(), a[0].Label, want)
		}
		if _, dup := seen[s.Label]; dup {
			return fmt.Errorf("%w: %q (sequence %d)", ErrDuplicateLabel, s.Label, i+1)
		}
		seen[s.Label] = struct{}{}
	}
	return nil
}

// Length returns the number of columns, taken from the first sequence.
// Call Validate first if the lengths might differ.
func (a Alignment) Length() int {
	if len(a) == 0 {
		return 0
	}
	return a[0].Len()
}

// Labels returns the sequence labels in order.
func (a Alignment) Labels() []string {
	labels := make([]string, len(a))
	for i, s := range a {
		labels[i] = s.Label
	}
	return labels
}

// Columns builds a new alignment from the given column indices, in the order
// given. The same indices are applied to every sequence so sites stay paired
// across taxa. Indices may repeat.
func (a Alignment) Columns(idx []int) (Alignment, error) {
	n := a.Length()
	for _, c := range idx {
		if c < 0 || c >= n {
			return nil, fmt.Errorf("%w: %d (length %d)", ErrColumnOutOfRange, c, n)
		}
	}
	out := make(Alignment, len(a))
	for i, s := range a {
		res := make([]byte, len(idx))
		for k, c := range idx {
			res[k] = s.Residues[c]
		}
		out[i] = Sequence{Label: s.Label, Residues: res}
	}
	return out, nil
}
