package distance

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/njtree/pkg/format"
)

// WriteTSV writes the matrix as tab-separated text: a header row of labels
// preceded by an empty cell, then one row per taxon starting with its label.
// Diagonal cells are written as "0"; other cells use [format.Decimal].
func (m *Matrix) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "\t%s\n", strings.Join(m.labels, "\t"))

	cells := make([]string, m.N())
	for i, label := range m.labels {
		for j := range cells {
			if i == j {
				cells[j] = "0"
				continue
			}
			cells[j] = format.Decimal(m.At(i, j))
		}
		fmt.Fprintf(bw, "%s\t%s\n", label, strings.Join(cells, "\t"))
	}
	return bw.Flush()
}

// ExportTSV writes the matrix to a file at path.
// This is a convenience wrapper around [Matrix.WriteTSV].
func (m *Matrix) ExportTSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := m.WriteTSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadTSV parses the format written by [Matrix.WriteTSV] and validates the
// result with [New]. Row labels must repeat the header labels in order.
func ReadTSV(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var (
		labels []string
		rows   [][]float64
		line   int
	)
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")

		if labels == nil {
			if fields[0] != "" {
				return nil, fmt.Errorf("line %d: header must start with an empty cell", line)
			}
			labels = fields[1:]
			continue
		}

		i := len(rows)
		if i >= len(labels) {
			return nil, fmt.Errorf("line %d: %w: more rows than labels", line, ErrNotSquare)
		}
		if fields[0] != labels[i] {
			return nil, fmt.Errorf("line %d: row label %q, want %q", line, fields[0], labels[i])
		}
		row := make([]float64, len(fields)-1)
		for j, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %d: %w", line, j+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if labels == nil {
		return nil, ErrEmpty
	}
	return New(labels, rows)
}

// ImportTSV reads a matrix file at path.
func ImportTSV(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := ReadTSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
