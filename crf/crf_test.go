package crf

import (
	"math"
	"testing"
)

// stubSurface serves fixed per-position surface feature IDs for a sentence
// of known length.
type stubSurface struct {
	std [][]int
	min [][]int
}

func (s stubSurface) Anchor(words []string) SurfaceFeatures { return s }

func (s stubSurface) FeaturesForWord(p int, level FeatureLevel) []int {
	if level == LevelMinimal {
		return s.min[p]
	}
	return s.std[p]
}

// stubConstraints serves fixed per-position allowed-tag sets.
type stubConstraints struct {
	sets [][]int
}

func (c stubConstraints) Anchor(words []string) TagConstraints { return c }
func (c stubConstraints) AllowedTags(p int) []int              { return c.sets[p] }

// bioFixture builds a featurizer over a single sentence of length n with
// labels {B, I, O}, one surface feature per position (sf = p) at both
// levels, and the given constraints (uniform when nil).
func bioFixture(t *testing.T, n int, cons ConstraintsFactory) (*IndexedFeaturizer, TaggedSequence) {
	t.Helper()
	labels := NewLabelIndex("<S>", "B", "I", "O")
	words := make([]string, n)
	perPos := make([][]int, n)
	for p := range n {
		words[p] = string(rune('a' + p))
		perPos[p] = []int{p}
	}
	if cons == nil {
		cons = UniformConstraints(labels)
	}
	surf := stubSurface{std: perPos, min: perPos}
	datum := TaggedSequence{Words: words, ID: "fixture"}
	f, err := BuildIndexedFeaturizer([]TaggedSequence{datum}, labels, surf, cons)
	if err != nil {
		t.Fatalf("BuildIndexedFeaturizer: %v", err)
	}
	return f, datum
}

// pseudoWeights fills a deterministic, non-trivial weight vector.
func pseudoWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range n {
		w[i] = 0.5 * math.Sin(1.7*float64(i)+0.3)
	}
	return w
}

func TestAlphabet(t *testing.T) {
	a := NewAlphabet()
	id0 := a.Add("hello")
	id1 := a.Add("world")
	id2 := a.Add("hello") // duplicate

	if id0 != 0 || id1 != 1 || id2 != 0 {
		t.Errorf("IDs: %d, %d, %d; want 0, 1, 0", id0, id1, id2)
	}
	if a.Size() != 2 {
		t.Errorf("Size = %d, want 2", a.Size())
	}
	if a.Get("missing") != -1 {
		t.Error("Get missing should return -1")
	}
}

func TestLabelIndex(t *testing.T) {
	x := NewLabelIndex("<S>", "B", "I", "O", "B")

	if x.Size() != 4 {
		t.Fatalf("Size = %d, want 4", x.Size())
	}
	if x.Start != 0 {
		t.Errorf("Start = %d, want 0", x.Start)
	}
	if x.IndexOf("I") != 2 {
		t.Errorf("IndexOf(I) = %d, want 2", x.IndexOf("I"))
	}
	if x.Label(3) != "O" {
		t.Errorf("Label(3) = %q, want O", x.Label(3))
	}
	if got := x.NonStart(); len(got) != 3 || got[0] != 1 {
		t.Errorf("NonStart = %v, want [1 2 3]", got)
	}
}

func TestIndexAllUnknownLabel(t *testing.T) {
	x := NewLabelIndex("<S>", "B", "I")

	if _, err := x.IndexAll([]string{"B", "X"}); err == nil {
		t.Fatal("expected error for unknown label")
	} else if _, ok := err.(*UnknownLabelError); !ok {
		t.Fatalf("error = %T, want *UnknownLabelError", err)
	}

	// The start sentinel is not a sequence label.
	if _, err := x.IndexAll([]string{"<S>"}); err == nil {
		t.Fatal("expected error for start sentinel")
	}

	ids, err := x.IndexAll([]string{"I", "B"})
	if err != nil {
		t.Fatal(err)
	}
	if ids[0] != 2 || ids[1] != 1 {
		t.Errorf("ids = %v, want [2 1]", ids)
	}
}
