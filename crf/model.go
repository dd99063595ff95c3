package crf

import (
	"encoding/json"
	"fmt"
	"os"
)

// Model is the serializable CRF artifact: the feature index state and the
// learned weights. The surface featurizer and constraints factory are
// runtime collaborators, re-attached with Bind after loading.
type Model struct {
	Featurizer *IndexedFeaturizer `json:"featurizer"`
	Weights    []float64          `json:"weights"`
}

// NewModel creates a model with zero weights sized to the featurizer.
func NewModel(f *IndexedFeaturizer) *Model {
	return &Model{
		Featurizer: f,
		Weights:    make([]float64, f.NumFeatures),
	}
}

// Labels returns the model's label index.
func (m *Model) Labels() *LabelIndex {
	return m.Featurizer.Labels
}

// Inference binds the model weights into an inference engine. It fails
// with ErrDimensionMismatch when the weight vector length differs from the
// feature index size.
func (m *Model) Inference() (*Inference, error) {
	return NewInference(m.Featurizer, m.Weights)
}

// NewInference binds an explicit weight vector to the featurizer. The
// trainer uses this to probe trial weights without mutating the model.
func NewInference(f *IndexedFeaturizer, weights []float64) (*Inference, error) {
	if len(weights) != f.NumFeatures {
		return nil, fmt.Errorf("%w: %d weights for %d features", ErrDimensionMismatch, len(weights), f.NumFeatures)
	}
	return &Inference{feats: f, weights: weights}, nil
}

// Inference is the weight-bound glue over the engine. It is immutable and
// safe to share; all per-sentence state lives in the anchorings it hands
// out.
type Inference struct {
	feats   *IndexedFeaturizer
	weights []float64
}

// BaseAugment returns the neutral anchoring for a datum: all scores zero,
// all non-start tags valid. Callers substitute their own anchoring for
// constrained decoding or reranking.
func (inf *Inference) BaseAugment(d TaggedSequence) Anchoring {
	return IdentityAnchoring(inf.feats.Labels, d.Words)
}

// EmptyCounts returns a zero accumulator sized to the feature index.
func (inf *Inference) EmptyCounts() *ExpectedCounts {
	return NewExpectedCounts(inf.feats.NumFeatures)
}

// Anchor materializes the scored anchoring of a datum over the augment.
func (inf *Inference) Anchor(d TaggedSequence, augment Anchoring) (*ScoredAnchoring, error) {
	feats, err := inf.feats.Anchor(d.Words)
	if err != nil {
		return nil, err
	}
	if augment == nil {
		augment = inf.BaseAugment(d)
	}
	return NewScoredAnchoring(feats, inf.weights, augment), nil
}

// Marginal runs forward-backward over the datum's scored anchoring.
func (inf *Inference) Marginal(d TaggedSequence, augment Anchoring) (Marginal, error) {
	a, err := inf.Anchor(d, augment)
	if err != nil {
		return nil, err
	}
	return ComputeMarginal(a)
}

// GoldMarginal builds the Dirac marginal at the datum's gold labels.
func (inf *Inference) GoldMarginal(d TaggedSequence, augment Anchoring) (Marginal, error) {
	a, err := inf.Anchor(d, augment)
	if err != nil {
		return nil, err
	}
	tags, err := inf.feats.Labels.IndexAll(d.Labels)
	if err != nil {
		return nil, err
	}
	return NewGoldMarginal(a, tags)
}

// Accumulate adds scale times the marginal's expected counts into the
// accumulator, resolving feature vectors through the marginal's own
// anchoring.
func (inf *Inference) Accumulate(m Marginal, c *ExpectedCounts, scale float64) error {
	src, ok := m.Anchoring().(FeatureSource)
	if !ok {
		return ErrMissingFeatures
	}
	return AccumulateCounts(m, src, c, scale)
}

// Decode returns the Viterbi labeling of a datum.
func (inf *Inference) Decode(d TaggedSequence, augment Anchoring) ([]string, float64, error) {
	a, err := inf.Anchor(d, augment)
	if err != nil {
		return nil, 0, err
	}
	return ViterbiLabels(a)
}

// Annotate decodes by position-wise posterior argmax over a previously
// computed marginal.
func (inf *Inference) Annotate(d TaggedSequence, m Marginal) []string {
	ids := PositionArgmax(m)
	labels := make([]string, len(ids))
	for i, id := range ids {
		labels[i] = inf.feats.Labels.Label(id)
	}
	return labels
}

// SaveModel serializes the model to JSON.
func SaveModel(model *Model, path string) error {
	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel deserializes a model from JSON. Bind the runtime collaborators
// on the featurizer before anchoring sentences.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalModel(data)
}

// MarshalModel serializes the model to JSON bytes.
func MarshalModel(model *Model) ([]byte, error) {
	return json.Marshal(model)
}

// UnmarshalModel deserializes a model from JSON bytes.
func UnmarshalModel(data []byte) (*Model, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}
	return &model, nil
}
