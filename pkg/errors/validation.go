package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// labelMeta are the characters that would corrupt the bracket tree or the
// tab-separated artifacts if they appeared in a taxon label.
const labelMeta = "(),:;\t[]"

// MaxReplicates bounds the replicate count accepted from users.
const MaxReplicates = 100_000

// ValidateLabel checks that a taxon label can be written to every artifact
// unchanged: non-empty, at most 256 bytes, no control characters and none
// of "(),:;[]" or tab.
func ValidateLabel(label string) error {
	if label == "" {
		return New(ErrCodeInvalidAlignment, "taxon label cannot be empty")
	}
	if len(label) > 256 {
		return New(ErrCodeInvalidAlignment, "taxon label too long (max 256 characters)")
	}
	for _, r := range label {
		if unicode.IsControl(r) && r != '\t' {
			return New(ErrCodeInvalidAlignment, "taxon label %q contains control characters", label)
		}
	}
	if i := strings.IndexAny(label, labelMeta); i >= 0 {
		return New(ErrCodeInvalidAlignment, "taxon label %q contains reserved character %q", label, label[i])
	}
	return nil
}

// ValidateFilename checks that name is a plain file name with no directory
// part, as required for the configured artifact names.
func ValidateFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "file name cannot be empty")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "file name %q contains invalid characters", name)
		}
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return New(ErrCodeInvalidPath, "file name %q cannot contain path separators", name)
	}
	if name == "." || name == ".." {
		return New(ErrCodeInvalidPath, "file name %q is not a file", name)
	}
	return nil
}

// ValidateReplicates checks a user-supplied replicate count.
func ValidateReplicates(n int) error {
	if n < 1 || n > MaxReplicates {
		return New(ErrCodeInvalidInput, "replicates must be between 1 and %d, got %d", MaxReplicates, n)
	}
	return nil
}

// ValidateSeed checks a seed given explicitly by a user. Zero is rejected
// because library options read it as "use the default seed".
func ValidateSeed(seed uint64) error {
	if seed == 0 {
		return New(ErrCodeInvalidInput, "seed must be a positive integer")
	}
	return nil
}

// ValidateRenderFormat checks an output format name for drawings.
func ValidateRenderFormat(format string) error {
	switch format {
	case "dot", "svg", "pdf", "png":
		return nil
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (want dot, svg, pdf or png)", format)
}
