package crf

import "fmt"

// IndexedFeaturizer owns the global sparse feature index. It is built once
// over a training corpus and immutable afterwards; sharing it across
// goroutines is safe.
//
// Two families of features are indexed per surface feature:
//
//   - unary: (surface feature, cur tag), fired at every position;
//   - bigram: (surface feature, prev tag, cur tag), fired only at positions
//     with more than one allowed tag, and only for minimal-level surface
//     features. Unambiguous positions contribute no bigram parameters.
//
// Both tables are sparse in the tag dimension: most surface features are
// ever observed with a handful of tags.
type IndexedFeaturizer struct {
	Labels *LabelIndex `json:"labels"`
	// LabelWord[sf][cur] is the feature ID of the unary feature, keyed by
	// cur tag ID. Absent keys mean the pair was never indexed.
	LabelWord []map[int]int32 `json:"label_word"`
	// Label2Word[sf][prev*K+cur] is the feature ID of the bigram feature.
	Label2Word  []map[int]int32 `json:"label2_word"`
	NumFeatures int             `json:"num_features"`

	surface     SurfaceFeaturizer
	constraints ConstraintsFactory
}

// BuildIndexedFeaturizer scans the training corpus once and assigns dense
// feature IDs to every (surface feature, tag) pair the constrained trellis
// can realize.
func BuildIndexedFeaturizer(corpus []TaggedSequence, labels *LabelIndex, surface SurfaceFeaturizer, constraints ConstraintsFactory) (*IndexedFeaturizer, error) {
	f := &IndexedFeaturizer{
		Labels:      labels,
		surface:     surface,
		constraints: constraints,
	}
	k := labels.Size()
	for _, d := range corpus {
		n := d.Length()
		surf := surface.Anchor(d.Words)
		cons := constraints.Anchor(d.Words)
		allowed, err := allowedSets(cons, n, d.ID)
		if err != nil {
			return nil, err
		}
		for p := range n {
			cur := allowed[p]
			std := surf.FeaturesForWord(p, LevelStandard)
			for _, c := range cur {
				for _, sf := range std {
					f.indexUnary(sf, c)
				}
			}
			if len(cur) <= 1 {
				continue
			}
			prev := validAt(allowed, labels.Start, p-1)
			min := surf.FeaturesForWord(p, LevelMinimal)
			for _, c := range cur {
				for _, pr := range prev {
					for _, sf := range min {
						f.indexBigram(sf, pr*k+c)
					}
				}
			}
		}
	}
	return f, nil
}

// Bind attaches the runtime collaborators after deserialization. The
// featurizer state itself is unchanged.
func (f *IndexedFeaturizer) Bind(surface SurfaceFeaturizer, constraints ConstraintsFactory) {
	f.surface = surface
	f.constraints = constraints
}

func (f *IndexedFeaturizer) indexUnary(sf, cur int) {
	for len(f.LabelWord) <= sf {
		f.LabelWord = append(f.LabelWord, nil)
	}
	if f.LabelWord[sf] == nil {
		f.LabelWord[sf] = make(map[int]int32)
	}
	if _, ok := f.LabelWord[sf][cur]; !ok {
		f.LabelWord[sf][cur] = int32(f.NumFeatures)
		f.NumFeatures++
	}
}

func (f *IndexedFeaturizer) indexBigram(sf, key int) {
	for len(f.Label2Word) <= sf {
		f.Label2Word = append(f.Label2Word, nil)
	}
	if f.Label2Word[sf] == nil {
		f.Label2Word[sf] = make(map[int]int32)
	}
	if _, ok := f.Label2Word[sf][key]; !ok {
		f.Label2Word[sf][key] = int32(f.NumFeatures)
		f.NumFeatures++
	}
}

// UnaryFeature returns the ID of the (surface feature, cur) unary feature,
// or -1 if it was never indexed.
func (f *IndexedFeaturizer) UnaryFeature(sf, cur int) int {
	if sf < 0 || sf >= len(f.LabelWord) {
		return -1
	}
	if id, ok := f.LabelWord[sf][cur]; ok {
		return int(id)
	}
	return -1
}

// BigramFeature returns the ID of the (surface feature, prev, cur) bigram
// feature, or -1 if it was never indexed.
func (f *IndexedFeaturizer) BigramFeature(sf, prev, cur int) int {
	if sf < 0 || sf >= len(f.Label2Word) {
		return -1
	}
	if id, ok := f.Label2Word[sf][prev*f.Labels.Size()+cur]; ok {
		return int(id)
	}
	return -1
}

// AnchoredFeatures is the per-sentence feature table: a sparse feature
// vector for every realizable (position, prev tag, cur tag) transition.
// A nil vector marks a forbidden transition.
type AnchoredFeatures struct {
	words   []string
	labels  *LabelIndex
	allowed [][]int
	// feats[p][prev][cur] is the list of fired feature IDs, or nil.
	feats [][][][]int32
}

// Anchor materializes the feature table for one sentence. It fails with
// ErrEmptyConstraint if any in-range position admits no tags.
func (f *IndexedFeaturizer) Anchor(words []string) (*AnchoredFeatures, error) {
	n := len(words)
	k := f.Labels.Size()
	surf := f.surface.Anchor(words)
	cons := f.constraints.Anchor(words)
	allowed, err := allowedSets(cons, n, "")
	if err != nil {
		return nil, err
	}

	a := &AnchoredFeatures{
		words:   words,
		labels:  f.Labels,
		allowed: allowed,
		feats:   make([][][][]int32, n),
	}
	for p := range n {
		a.feats[p] = make([][][]int32, k)
		for prev := range k {
			a.feats[p][prev] = make([][]int32, k)
		}
		cur := allowed[p]
		prev := validAt(allowed, f.Labels.Start, p-1)
		std := surf.FeaturesForWord(p, LevelStandard)
		ambiguous := len(cur) > 1
		var min []int
		if ambiguous {
			min = surf.FeaturesForWord(p, LevelMinimal)
		}
		for _, c := range cur {
			unary := make([]int32, 0, len(std))
			for _, sf := range std {
				if id := f.UnaryFeature(sf, c); id >= 0 {
					unary = append(unary, int32(id))
				}
			}
			for _, pr := range prev {
				vec := unary
				if ambiguous {
					vec = append(unary[:len(unary):len(unary)], bigramIDs(f, min, pr, c, k)...)
				}
				a.feats[p][pr][c] = vec
			}
		}
	}
	return a, nil
}

func bigramIDs(f *IndexedFeaturizer, min []int, prev, cur, k int) []int32 {
	ids := make([]int32, 0, len(min))
	for _, sf := range min {
		if sf < 0 || sf >= len(f.Label2Word) {
			continue
		}
		if id, ok := f.Label2Word[sf][prev*k+cur]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Words returns the anchored sentence.
func (a *AnchoredFeatures) Words() []string {
	return a.words
}

// Labels returns the label index.
func (a *AnchoredFeatures) Labels() *LabelIndex {
	return a.labels
}

// Features returns the sparse feature vector for a transition, or nil if
// the transition is forbidden.
func (a *AnchoredFeatures) Features(p, prev, cur int) []int32 {
	return a.feats[p][prev][cur]
}

// ValidSymbols returns the allowed tags at position p; out-of-range
// positions resolve to the start sentinel.
func (a *AnchoredFeatures) ValidSymbols(p int) []int {
	return validAt(a.allowed, a.labels.Start, p)
}

// allowedSets collects the per-position allowed-tag sets, rejecting empty
// in-range sets.
func allowedSets(cons TagConstraints, n int, id string) ([][]int, error) {
	allowed := make([][]int, n)
	for p := range n {
		allowed[p] = cons.AllowedTags(p)
		if len(allowed[p]) == 0 {
			if id != "" {
				return nil, fmt.Errorf("sentence %s position %d: %w", id, p, ErrEmptyConstraint)
			}
			return nil, fmt.Errorf("position %d: %w", p, ErrEmptyConstraint)
		}
	}
	return allowed, nil
}

// validAt resolves the allowed set at p, mapping out-of-range positions to
// the start sentinel. The same convention feeds the featurizer and the
// inference kernel, so the cache layout and the recurrences agree.
func validAt(allowed [][]int, start, p int) []int {
	if p < 0 || p >= len(allowed) {
		return []int{start}
	}
	return allowed[p]
}
