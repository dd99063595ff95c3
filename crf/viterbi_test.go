package crf

import (
	"math"
	"testing"
)

func TestViterbiDeterministic(t *testing.T) {
	// S3: one unary feature per (p, cur), weights pushing (B, I) to the
	// unique maximum.
	f, datum := bioFixture(t, 2, nil)
	labels := f.Labels
	b, i := labels.IndexOf("B"), labels.IndexOf("I")

	w := make([]float64, f.NumFeatures)
	w[f.UnaryFeature(0, b)] = 2
	w[f.UnaryFeature(1, i)] = 2

	a := anchorFixture(t, f, datum, w)
	path, score, err := Viterbi(a)
	if err != nil {
		t.Fatal(err)
	}
	if path[0] != b || path[1] != i {
		t.Errorf("path = %v, want [B I] = [%d %d]", path, b, i)
	}
	if math.Abs(score-4) > 1e-12 {
		t.Errorf("score = %v, want 4", score)
	}

	// The gold marginal of the decoded path reproduces its linear score.
	gold, err := NewGoldMarginal(a, path)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(gold.LogPartition()-score) > 1e-12 {
		t.Errorf("gold logZ = %v, viterbi score = %v", gold.LogPartition(), score)
	}
}

func TestViterbiDominatesAllPaths(t *testing.T) {
	f, datum := bioFixture(t, 3, nil)
	a := anchorFixture(t, f, datum, pseudoWeights(f.NumFeatures))

	path, score, err := Viterbi(a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-pathScore(a, path)) > 1e-9 {
		t.Errorf("reported score %v != path score %v", score, pathScore(a, path))
	}
	for _, p := range allPaths(a, 3) {
		if s := pathScore(a, p); s > score+1e-9 {
			t.Errorf("path %v scores %v > viterbi %v", p, s, score)
		}
	}
}

func TestViterbiSingleLabel(t *testing.T) {
	// K = 1: the unique legal sequence is returned.
	labels := NewLabelIndex("<S>", "X")
	x := labels.IndexOf("X")
	surf := stubSurface{std: [][]int{{0}, {0}}, min: [][]int{{0}, {0}}}
	datum := TaggedSequence{Words: []string{"a", "b"}}

	f, err := BuildIndexedFeaturizer([]TaggedSequence{datum}, labels, surf, UniformConstraints(labels))
	if err != nil {
		t.Fatal(err)
	}
	a := anchorFixture(t, f, datum, pseudoWeights(f.NumFeatures))
	path, _, err := Viterbi(a)
	if err != nil {
		t.Fatal(err)
	}
	for p, cur := range path {
		if cur != x {
			t.Errorf("path[%d] = %d, want %d", p, cur, x)
		}
	}
}

func TestViterbiRespectsConstraints(t *testing.T) {
	labels := NewLabelIndex("<S>", "B", "I", "O")
	b, i, o := labels.IndexOf("B"), labels.IndexOf("I"), labels.IndexOf("O")
	cons := stubConstraints{sets: [][]int{{b}, {i, o}, {o}}}
	surf := stubSurface{std: [][]int{{0}, {1}, {2}}, min: [][]int{{0}, {1}, {2}}}
	datum := TaggedSequence{Words: []string{"a", "b", "c"}}

	f, err := BuildIndexedFeaturizer([]TaggedSequence{datum}, labels, surf, cons)
	if err != nil {
		t.Fatal(err)
	}
	// A weight that prefers I at position 1; positions 0 and 2 admit a
	// single tag each.
	w := make([]float64, f.NumFeatures)
	if id := f.UnaryFeature(1, i); id >= 0 {
		w[id] = 5
	}
	a := anchorFixture(t, f, datum, w)

	path, _, err := Viterbi(a)
	if err != nil {
		t.Fatal(err)
	}
	if path[0] != b || path[2] != o {
		t.Errorf("path = %v violates constraints", path)
	}

	m, err := ComputeMarginal(a)
	if err != nil {
		t.Fatal(err)
	}
	for _, cur := range []int{i, o} {
		if q := m.PositionMarginal(0, cur); q != 0 {
			t.Errorf("P(0, %d) = %v, want 0 under constraint", cur, q)
		}
	}
	if q := m.PositionMarginal(2, b); q != 0 {
		t.Errorf("P(2, B) = %v, want 0 under constraint", q)
	}
}

func TestPosteriorDecodeDiffersFromViterbi(t *testing.T) {
	// S6: path probabilities AA=0.3, AB=0.3, BA=0.35, BB=0.05. The single
	// best path is BA, but position-wise argmax is A at both positions.
	labels := NewLabelIndex("<S>", "A", "B")
	ia, ib := labels.IndexOf("A"), labels.IndexOf("B")
	surf := stubSurface{std: [][]int{{0}, {1}}, min: [][]int{{0}, {1}}}
	datum := TaggedSequence{Words: []string{"x", "y"}}

	f, err := BuildIndexedFeaturizer([]TaggedSequence{datum}, labels, surf, UniformConstraints(labels))
	if err != nil {
		t.Fatal(err)
	}

	w := make([]float64, f.NumFeatures)
	set := func(prev, cur int, logp float64) {
		id := f.BigramFeature(1, prev, cur)
		if id < 0 {
			t.Fatalf("bigram (%d, %d) not indexed", prev, cur)
		}
		w[id] = logp
	}
	set(ia, ia, math.Log(0.30))
	set(ia, ib, math.Log(0.30))
	set(ib, ia, math.Log(0.35))
	set(ib, ib, math.Log(0.05))

	inf, err := NewInference(f, w)
	if err != nil {
		t.Fatal(err)
	}
	a, err := inf.Anchor(datum, nil)
	if err != nil {
		t.Fatal(err)
	}

	path, _, err := Viterbi(a)
	if err != nil {
		t.Fatal(err)
	}
	if path[0] != ib || path[1] != ia {
		t.Fatalf("viterbi path = %v, want [B A]", path)
	}

	m, err := ComputeMarginal(a)
	if err != nil {
		t.Fatal(err)
	}
	annotated := inf.Annotate(datum, m)
	if annotated[0] != "A" || annotated[1] != "A" {
		t.Errorf("posterior decode = %v, want [A A]", annotated)
	}
}
