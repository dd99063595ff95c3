package crf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ExpectedCounts accumulates a loss term and a dense feature-count vector
// over visited marginals. One accumulator covers one training pass or
// minibatch; the writer contract is single-owner, so a parallel driver
// holds one accumulator per worker and reduces with Add.
type ExpectedCounts struct {
	Loss   float64
	Counts []float64
}

// NewExpectedCounts returns a zero accumulator for the given feature
// index size.
func NewExpectedCounts(numFeatures int) *ExpectedCounts {
	return &ExpectedCounts{Counts: make([]float64, numFeatures)}
}

// Add folds another accumulator into this one.
func (c *ExpectedCounts) Add(o *ExpectedCounts) {
	c.Loss += o.Loss
	floats.Add(c.Counts, o.Counts)
}

// Scale multiplies loss and counts by s.
func (c *ExpectedCounts) Scale(s float64) {
	c.Loss *= s
	floats.Scale(s, c.Counts)
}

// Norm returns the L2 norm of the count vector.
func (c *ExpectedCounts) Norm() float64 {
	return floats.Norm(c.Counts, 2)
}

// FeatureSource resolves the sparse feature vector behind a transition.
// *ScoredAnchoring implements it.
type FeatureSource interface {
	Features(p, prev, cur int) []int32
}

// AccumulateCounts adds scale times the marginal's expected feature counts
// into the accumulator, and scale times its log-partition into the loss.
// Scale is +1 for model expectations and -1 for gold (observed) counts,
// which yields the log-likelihood gradient E_model[f] - f(x, y*).
//
// A visited transition with non-zero mass must have a feature vector; a
// nil vector means the feature cache disagrees with the constraints and
// fails with ErrMissingFeatures.
func AccumulateCounts(m Marginal, src FeatureSource, c *ExpectedCounts, scale float64) error {
	c.Loss += m.LogPartition() * scale
	return m.VisitTransitions(func(p, prev, cur int, prob float64) error {
		vec := src.Features(p, prev, cur)
		if vec == nil {
			return ErrMissingFeatures
		}
		w := scale * prob
		for _, f := range vec {
			c.Counts[f] += w
		}
		return nil
	})
}

// PositionArgmax returns, for every position, the tag maximizing the
// position marginal: posterior decoding. Ties break toward the lowest ID.
func PositionArgmax(m Marginal) []int {
	a := m.Anchoring()
	n := len(a.Words())
	out := make([]int, n)
	for p := range n {
		best := math.Inf(-1)
		bestCur := -1
		for _, cur := range a.ValidSymbols(p) {
			if q := m.PositionMarginal(p, cur); q > best {
				best = q
				bestCur = cur
			}
		}
		out[p] = bestCur
	}
	return out
}
