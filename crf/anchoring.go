package crf

import "math"

// Anchoring is a sentence-bound view over a transition scoring function.
// ScoreTransition(p, prev, cur) is the log-score of tagging position p with
// cur after prev; ValidSymbols(p) is the allowed tag set, resolving
// out-of-range positions to the start sentinel.
//
// Anchorings compose by delegation: a weight-parameterized scorer wraps an
// optional external "augment" anchoring and adds its scores, which is how
// constrained decoding and reranking hook in.
type Anchoring interface {
	Words() []string
	Labels() *LabelIndex
	ScoreTransition(p, prev, cur int) float64
	ValidSymbols(p int) []int
}

// IdentityAnchoring returns the neutral anchoring: every transition scores
// zero and every non-start tag is valid at every position. It is the
// default augment for plain inference.
func IdentityAnchoring(labels *LabelIndex, words []string) Anchoring {
	return identityAnchoring{
		words:  words,
		labels: labels,
		tags:   labels.NonStart(),
	}
}

type identityAnchoring struct {
	words  []string
	labels *LabelIndex
	tags   []int
}

func (a identityAnchoring) Words() []string { return a.words }

func (a identityAnchoring) Labels() *LabelIndex { return a.labels }

func (a identityAnchoring) ScoreTransition(p, prev, cur int) float64 {
	return 0
}

func (a identityAnchoring) ValidSymbols(p int) []int {
	if p < 0 || p >= len(a.words) {
		return []int{a.labels.Start}
	}
	return a.tags
}

// ScoredAnchoring binds one sentence to the current weights. Transition
// log-scores are materialized eagerly: inference visits every triple
// several times (forward, backward, Viterbi, expected counts), so the dot
// products are paid once. Memory is O(K²n) floats per sentence.
type ScoredAnchoring struct {
	augment Anchoring
	feats   *AnchoredFeatures
	// trans[prev][cur][p] is weights · features(p, prev, cur), or -Inf
	// where the feature vector is nil. Forbidden transitions must score
	// -Inf rather than 0 so that every inference pass skips them.
	trans [][][]float64
}

// NewScoredAnchoring materializes the transition score cache for one
// sentence under the given weights, decorated over the augment scorer.
func NewScoredAnchoring(feats *AnchoredFeatures, weights []float64, augment Anchoring) *ScoredAnchoring {
	k := feats.labels.Size()
	n := len(feats.words)
	negInf := math.Inf(-1)

	trans := make([][][]float64, k)
	for prev := range k {
		trans[prev] = make([][]float64, k)
		for cur := range k {
			col := make([]float64, n)
			for p := range n {
				col[p] = negInf
			}
			trans[prev][cur] = col
		}
	}
	for p := range n {
		for _, cur := range feats.allowed[p] {
			for _, prev := range feats.ValidSymbols(p - 1) {
				vec := feats.feats[p][prev][cur]
				if vec == nil {
					continue
				}
				var dot float64
				for _, f := range vec {
					dot += weights[f]
				}
				trans[prev][cur][p] = dot
			}
		}
	}
	return &ScoredAnchoring{augment: augment, feats: feats, trans: trans}
}

// Words returns the anchored sentence.
func (a *ScoredAnchoring) Words() []string {
	return a.feats.words
}

// Labels returns the label index.
func (a *ScoredAnchoring) Labels() *LabelIndex {
	return a.feats.labels
}

// ScoreTransition returns the cached weight score plus the augment score.
func (a *ScoredAnchoring) ScoreTransition(p, prev, cur int) float64 {
	w := a.trans[prev][cur][p]
	if math.IsInf(w, -1) {
		return w
	}
	return w + a.augment.ScoreTransition(p, prev, cur)
}

// ValidSymbols returns the constrained tag set at p.
func (a *ScoredAnchoring) ValidSymbols(p int) []int {
	return a.feats.ValidSymbols(p)
}

// Features returns the sparse feature vector behind a transition, or nil
// if the transition is forbidden.
func (a *ScoredAnchoring) Features(p, prev, cur int) []int32 {
	return a.feats.Features(p, prev, cur)
}
