// Package chaintag tags token sequences with an anchored linear-chain CRF.
//
// A trained tagger couples three artifacts: the CRF model (feature index
// and weights), the surface featurizer vocabulary and the tag lexicon.
//
//	t, _ := chaintag.Load("model.json")
//	tags, _ := t.Tag([]string{"the", "dog", "runs"})
//	fmt.Println(tags) // [DT NN VB]
package chaintag

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/happyhackingspace/chaintag/crf"
	"github.com/happyhackingspace/chaintag/internal/lexicon"
	"github.com/happyhackingspace/chaintag/internal/wordfeat"
)

// Tagger is a trained sequence labeler.
type Tagger struct {
	model   *crf.Model
	surface *wordfeat.Featurizer
	lexicon *lexicon.Lexicon
}

// modelFile is the on-disk shape of a trained tagger.
type modelFile struct {
	CRF     *crf.Model           `json:"crf"`
	Surface *wordfeat.Featurizer `json:"surface"`
	Lexicon *lexicon.Lexicon     `json:"lexicon"`
}

// Load reads a trained tagger from a model file.
func Load(path string) (*Tagger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	if mf.CRF == nil || mf.CRF.Featurizer == nil || mf.Surface == nil || mf.Lexicon == nil {
		return nil, fmt.Errorf("chaintag: model file %s is incomplete", path)
	}
	mf.CRF.Featurizer.Bind(mf.Surface, mf.Lexicon)
	return &Tagger{model: mf.CRF, surface: mf.Surface, lexicon: mf.Lexicon}, nil
}

// Save writes the tagger to a model file.
func (t *Tagger) Save(path string) error {
	data, err := json.MarshalIndent(modelFile{
		CRF:     t.model,
		Surface: t.surface,
		Lexicon: t.lexicon,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("chaintag: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("chaintag: %w", err)
	}
	return nil
}

// Labels returns the tag set of the model, start sentinel excluded.
func (t *Tagger) Labels() []string {
	idx := t.model.Labels()
	out := make([]string, 0, idx.Size()-1)
	for _, id := range idx.NonStart() {
		out = append(out, idx.Label(id))
	}
	return out
}

// Tag returns the Viterbi labeling of the words.
func (t *Tagger) Tag(words []string) ([]string, error) {
	inf, err := t.model.Inference()
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	tags, _, err := inf.Decode(crf.TaggedSequence{Words: words}, nil)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return tags, nil
}

// TagPosterior labels each position with its posterior-argmax tag, which
// can differ from the Viterbi path.
func (t *Tagger) TagPosterior(words []string) ([]string, error) {
	inf, err := t.model.Inference()
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	d := crf.TaggedSequence{Words: words}
	m, err := inf.Marginal(d, nil)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	return inf.Annotate(d, m), nil
}

// TagMarginals returns, per position, the posterior probability of every
// tag.
func (t *Tagger) TagMarginals(words []string) ([]map[string]float64, error) {
	inf, err := t.model.Inference()
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	m, err := inf.Marginal(crf.TaggedSequence{Words: words}, nil)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	idx := t.model.Labels()
	out := make([]map[string]float64, len(words))
	for p := range words {
		out[p] = make(map[string]float64, idx.Size()-1)
		for _, id := range idx.NonStart() {
			out[p][idx.Label(id)] = m.PositionMarginal(p, id)
		}
	}
	return out, nil
}
