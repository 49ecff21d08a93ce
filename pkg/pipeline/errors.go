package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"github.com/matzehuels/njtree/pkg/bootstrap"
	"github.com/matzehuels/njtree/pkg/cache"
	"github.com/matzehuels/njtree/pkg/distance"
	nterrors "github.com/matzehuels/njtree/pkg/errors"
	"github.com/matzehuels/njtree/pkg/nj"
	"github.com/matzehuels/njtree/pkg/seq"
	"github.com/matzehuels/njtree/pkg/tree"
)

// Classify wraps err in a coded error chosen by the sentinel it matches, with
// msg as the message. Errors that already carry a code are returned
// unchanged, and nil stays nil.
func Classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	if nterrors.GetCode(err) != "" {
		return err
	}
	return nterrors.Wrap(codeOf(err), err, "%s", msg)
}

func codeOf(err error) nterrors.Code {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nterrors.ErrCodeCanceled
	case errors.Is(err, nj.ErrTooFewTaxa), errors.Is(err, tree.ErrTooFewTips):
		return nterrors.ErrCodeTooFewTaxa
	case errors.Is(err, seq.ErrNoSequences),
		errors.Is(err, seq.ErrLengthMismatch),
		errors.Is(err, seq.ErrDuplicateLabel),
		errors.Is(err, seq.ErrFormat),
		errors.Is(err, distance.ErrEmptySequences),
		errors.Is(err, bootstrap.ErrEmptyAlignment),
		errors.Is(err, bootstrap.ErrTaxaMismatch):
		return nterrors.ErrCodeInvalidAlignment
	case errors.Is(err, distance.ErrEmpty),
		errors.Is(err, distance.ErrNotSquare),
		errors.Is(err, distance.ErrAsymmetric),
		errors.Is(err, distance.ErrNonZeroDiagonal),
		errors.Is(err, distance.ErrLabelCount),
		errors.Is(err, distance.ErrNotFinite):
		return nterrors.ErrCodeInvalidMatrix
	case errors.Is(err, fs.ErrNotExist):
		return nterrors.ErrCodeFileNotFound
	case errors.Is(err, cache.ErrUnavailable):
		return nterrors.ErrCodeCacheUnavailable
	default:
		return nterrors.ErrCodeInternal
	}
}
