package pipeline

import (
	"os"
	"path/filepath"

	nterrors "github.com/matzehuels/njtree/pkg/errors"
)

// FileNames maps text artifacts to output file names.
type FileNames struct {
	Distances string `toml:"distances"`
	Edges     string `toml:"edges"`
	Tree      string `toml:"tree"`
	Bootstrap string `toml:"bootstrap"`
}

// DefaultFileNames are the conventional artifact names.
var DefaultFileNames = FileNames{
	Distances: "genetic-distances.txt",
	Edges:     "edges.txt",
	Tree:      "tree.txt",
	Bootstrap: "bootstrap.txt",
}

// Validate checks that every name is a plain file name.
func (f FileNames) Validate() error {
	for _, name := range []string{f.Distances, f.Edges, f.Tree, f.Bootstrap} {
		if err := nterrors.ValidateFilename(name); err != nil {
			return err
		}
	}
	return nil
}

// byArtifact pairs artifact keys with their file names in write order.
func (f FileNames) byArtifact() [][2]string {
	return [][2]string{
		{ArtifactDistances, f.Distances},
		{ArtifactEdges, f.Edges},
		{ArtifactTree, f.Tree},
		{ArtifactBootstrap, f.Bootstrap},
	}
}

// WriteFiles writes the text artifacts present in r to dir, creating it if
// needed, and returns the written paths. Drawings are not written.
func (r *Result) WriteFiles(dir string, names FileNames) ([]string, error) {
	if err := names.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nterrors.Wrap(nterrors.ErrCodeInvalidPath, err, "create output directory")
	}

	var paths []string
	for _, pair := range names.byArtifact() {
		data, ok := r.Artifacts[pair[0]]
		if !ok {
			continue
		}
		path := filepath.Join(dir, pair[1])
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, nterrors.Wrap(nterrors.ErrCodeInternal, err, "write %s", path)
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, nterrors.New(nterrors.ErrCodeInternal, "no artifacts to write")
	}
	return paths, nil
}
