// Package format renders floating-point values for the plain-text artifacts
// (edge list, bracket tree, bootstrap list, distance matrix).
//
// Values are written as the shortest decimal that parses back to the same
// float64. Integral values keep a trailing ".0" so a branch length is always
// recognisable as a real number, and magnitudes below 1e-4 or from 1e16 up
// switch to exponent notation.
package format

import (
	"math"
	"strconv"
	"strings"
)

// Decimal formats v as a round-trip decimal string.
//
//	Decimal(0.5)     == "0.5"
//	Decimal(2)       == "2.0"
//	Decimal(0.00001) == "1e-05"
func Decimal(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Proportion formats a value in [0, 1]. Exact 0 and 1 are written as the bare
// integers "0" and "1"; everything else uses [Decimal].
func Proportion(v float64) string {
	switch v {
	case 0:
		return "0"
	case 1:
		return "1"
	}
	return Decimal(v)
}
