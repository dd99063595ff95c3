package crf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// TransitionVisitor receives every (position, prev tag, cur tag) triple
// carrying non-zero posterior mass, with its probability. Returning an
// error aborts the visit.
type TransitionVisitor func(p, prev, cur int, prob float64) error

// Marginal is the posterior over tag configurations of one anchored
// sentence. Two variants share the interface: the dense forward-backward
// posterior and the degenerate Dirac at a gold labeling, so that expected
// and observed feature counts run through one accumulator code path.
type Marginal interface {
	// Anchoring returns the anchoring the marginal was computed over.
	Anchoring() Anchoring
	// LogPartition is log Σ_y exp(score(y)); for a gold marginal it is the
	// linear score of the gold path.
	LogPartition() float64
	// TransitionMarginal is P(y_{p-1}=prev, y_p=cur | x), with the start
	// sentinel standing in for y_{-1}.
	TransitionMarginal(p, prev, cur int) float64
	// PositionMarginal is P(y_p=cur | x).
	PositionMarginal(p, cur int) float64
	// VisitTransitions streams every non-zero transition posterior.
	VisitTransitions(fn TransitionVisitor) error
}

// ComputeMarginal runs log-space forward-backward over the anchoring.
// Indices into the tables are fenceposts: fwd[i] holds the log-score of
// reaching the boundary before position i. It fails with ErrInfeasible if
// some column has no reachable tag.
func ComputeMarginal(a Anchoring) (Marginal, error) {
	n := len(a.Words())
	k := a.Labels().Size()

	fwd := newLogTable(n+1, k)
	fwd[0][a.Labels().Start] = 0

	scratch := make([]float64, 0, k)
	for i := range n {
		prevSet := a.ValidSymbols(i - 1)
		reachable := false
		for _, cur := range a.ValidSymbols(i) {
			scratch = scratch[:0]
			for _, prev := range prevSet {
				scratch = append(scratch, fwd[i][prev]+a.ScoreTransition(i, prev, cur))
			}
			v := floats.LogSumExp(scratch)
			if math.IsNaN(v) {
				panic("crf: NaN in forward table")
			}
			fwd[i+1][cur] = v
			if !math.IsInf(v, -1) {
				reachable = true
			}
		}
		if !reachable {
			return nil, ErrInfeasible
		}
	}

	bwd := newLogTable(n+1, k)
	for cur := range k {
		bwd[n][cur] = 0
	}
	for i := n - 1; i >= 1; i-- {
		nextSet := a.ValidSymbols(i)
		for _, cur := range a.ValidSymbols(i - 1) {
			scratch = scratch[:0]
			for _, next := range nextSet {
				scratch = append(scratch, a.ScoreTransition(i, cur, next)+bwd[i+1][next])
			}
			bwd[i][cur] = floats.LogSumExp(scratch)
		}
	}
	// bwd[0] stays -Inf: it is never read by the marginals.

	logZ := floats.LogSumExp(fwd[n])
	if math.IsInf(logZ, -1) {
		return nil, ErrInfeasible
	}

	return &denseMarginal{anch: a, fwd: fwd, bwd: bwd, logZ: logZ}, nil
}

func newLogTable(rows, cols int) [][]float64 {
	t := make([][]float64, rows)
	negInf := math.Inf(-1)
	for i := range t {
		row := make([]float64, cols)
		for j := range row {
			row[j] = negInf
		}
		t[i] = row
	}
	return t
}

type denseMarginal struct {
	anch Anchoring
	fwd  [][]float64
	bwd  [][]float64
	logZ float64
}

func (m *denseMarginal) Anchoring() Anchoring {
	return m.anch
}

func (m *denseMarginal) LogPartition() float64 {
	return m.logZ
}

func (m *denseMarginal) TransitionMarginal(p, prev, cur int) float64 {
	v := m.fwd[p][prev] + m.anch.ScoreTransition(p, prev, cur) + m.bwd[p+1][cur] - m.logZ
	if math.IsInf(v, -1) {
		return 0
	}
	return math.Exp(v)
}

func (m *denseMarginal) PositionMarginal(p, cur int) float64 {
	var sum float64
	for _, prev := range m.anch.ValidSymbols(p - 1) {
		sum += m.TransitionMarginal(p, prev, cur)
	}
	return sum
}

func (m *denseMarginal) VisitTransitions(fn TransitionVisitor) error {
	n := len(m.anch.Words())
	for p := range n {
		prevSet := m.anch.ValidSymbols(p - 1)
		for _, cur := range m.anch.ValidSymbols(p) {
			if math.IsInf(m.bwd[p+1][cur], -1) {
				continue
			}
			for _, prev := range prevSet {
				q := m.TransitionMarginal(p, prev, cur)
				if q == 0 {
					continue
				}
				if err := fn(p, prev, cur, q); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// NewGoldMarginal builds the Dirac marginal at the given gold tag IDs: the
// transition posterior is the indicator of the gold path and the log
// partition is the path's linear score. It fails with ErrInfeasible if the
// gold path is forbidden under the anchoring.
func NewGoldMarginal(a Anchoring, tags []int) (Marginal, error) {
	score := 0.0
	prev := a.Labels().Start
	for p, cur := range tags {
		score += a.ScoreTransition(p, prev, cur)
		prev = cur
	}
	if math.IsInf(score, -1) {
		return nil, ErrInfeasible
	}
	return &goldMarginal{anch: a, tags: tags, score: score}, nil
}

type goldMarginal struct {
	anch  Anchoring
	tags  []int
	score float64
}

func (m *goldMarginal) Anchoring() Anchoring {
	return m.anch
}

func (m *goldMarginal) LogPartition() float64 {
	return m.score
}

// goldAt returns the gold tag at p, with the start sentinel before the
// sentence.
func (m *goldMarginal) goldAt(p int) int {
	if p < 0 {
		return m.anch.Labels().Start
	}
	return m.tags[p]
}

func (m *goldMarginal) TransitionMarginal(p, prev, cur int) float64 {
	if prev == m.goldAt(p-1) && cur == m.goldAt(p) {
		return 1
	}
	return 0
}

func (m *goldMarginal) PositionMarginal(p, cur int) float64 {
	if cur == m.tags[p] {
		return 1
	}
	return 0
}

func (m *goldMarginal) VisitTransitions(fn TransitionVisitor) error {
	for p := range m.tags {
		if err := fn(p, m.goldAt(p-1), m.tags[p], 1); err != nil {
			return err
		}
	}
	return nil
}
