package seq

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrFormat is wrapped by every FASTA parse error.
var ErrFormat = errors.New("invalid FASTA")

// ReadFASTA reads every entry from r.
//
// A header line starts with '>' and the rest of the line, trimmed, is the
// label. All following non-blank lines up to the next header are concatenated
// into the residues. Leading and trailing whitespace and blank lines are
// ignored. Residues are kept byte for byte: case is significant, so a
// soft-masked "a" differs from "A", and gaps and ambiguity codes are not
// checked against an alphabet.
//
// ReadFASTA does not validate the alignment; see [Alignment.Validate].
func ReadFASTA(r io.Reader) (Alignment, error) {
	var (
		aln     Alignment
		cur     *Sequence
		lineNum int
	)
	flush := func() error {
		if cur == nil {
			return nil
		}
		if len(cur.Residues) == 0 {
			return fmt.Errorf("%w: line %d: entry %q has no residues", ErrFormat, lineNum, cur.Label)
		}
		aln = append(aln, *cur)
		cur = nil
		return nil
	}

	buf := bufio.NewReader(r)
	for {
		line, err := buf.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if len(line) > 0 {
			lineNum++
			line = bytes.TrimSpace(line)
			switch {
			case len(line) == 0:
			case line[0] == '>':
				if ferr := flush(); ferr != nil {
					return nil, ferr
				}
				cur = &Sequence{Label: strings.TrimSpace(string(line[1:]))}
				if cur.Label == "" {
					return nil, fmt.Errorf("%w: line %d: empty header", ErrFormat, lineNum)
				}
			default:
				if cur == nil {
					return nil, fmt.Errorf("%w: line %d: expected '>', got %q", ErrFormat, lineNum, line[0])
				}
				cur.Residues = append(cur.Residues, line...)
			}
		}
		if err == io.EOF {
			break
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return aln, nil
}

// ImportFASTA reads a FASTA file at path.
// This is a convenience wrapper around [ReadFASTA].
func ImportFASTA(path string) (Alignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	aln, err := ReadFASTA(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return aln, nil
}

// WriteFASTA writes the alignment with one unwrapped sequence line per entry.
func WriteFASTA(w io.Writer, a Alignment) error {
	bw := bufio.NewWriter(w)
	for _, s := range a {
		if _, err := fmt.Fprintf(bw, ">%s\n%s\n", s.Label, s.Residues); err != nil {
			return err
		}
	}
	return bw.Flush()
}
