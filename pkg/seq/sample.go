package seq

import "math/rand/v2"

// Sampler draws the column indices for one bootstrap replicate.
type Sampler interface {
	Sample(r *rand.Rand, length int) []int
}

// Uniform draws length indices independently and uniformly from [0, length),
// with replacement.
type Uniform struct{}

// Sample implements [Sampler].
func (Uniform) Sample(r *rand.Rand, length int) []int {
	idx := make([]int, length)
	for i := range idx {
		idx[i] = r.IntN(length)
	}
	return idx
}

// Identity returns 0..length-1 and ignores r. A replicate drawn with it
// reproduces the original alignment exactly.
type Identity struct{}

// Sample implements [Sampler].
func (Identity) Sample(_ *rand.Rand, length int) []int {
	idx := make([]int, length)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// SamplerFunc adapts a plain function to [Sampler].
type SamplerFunc func(r *rand.Rand, length int) []int

// Sample implements [Sampler].
func (f SamplerFunc) Sample(r *rand.Rand, length int) []int { return f(r, length) }
