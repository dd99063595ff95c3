package chaintag

import (
	"fmt"
	"log/slog"

	"github.com/happyhackingspace/chaintag/crf"
	"github.com/happyhackingspace/chaintag/internal/config"
	"github.com/happyhackingspace/chaintag/internal/corpus"
	"github.com/happyhackingspace/chaintag/internal/lexicon"
	"github.com/happyhackingspace/chaintag/internal/wordfeat"
	"github.com/happyhackingspace/chaintag/trainer"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	Config *config.Config // nil means built-in defaults
	// InitialWeights seeds the weight vector by feature ID; nil starts
	// from zero.
	InitialWeights func(feat int) float64
}

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	Folds  int
	Config *config.Config
}

// EvalResult holds cross-validation evaluation results.
type EvalResult struct {
	TokenAccuracy    float64
	SequenceAccuracy float64
	TokenCorrect     int
	TokenTotal       int
	SequenceCorrect  int
	SequenceTotal    int
}

// Train trains a tagger on the sentence files in the given data folder.
func Train(dataDir string, tc *TrainConfig) (*Tagger, error) {
	cfg := config.Default()
	var initWeights func(int) float64
	if tc != nil {
		if tc.Config != nil {
			cfg = *tc.Config
		}
		initWeights = tc.InitialWeights
	}

	data, err := corpus.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("chaintag: no sentences found in %s", dataDir)
	}

	t, err := buildTagger(data, cfg, initWeights)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// buildTagger fits featurizer, lexicon, feature index and weights on the
// given sentences.
func buildTagger(data []crf.TaggedSequence, cfg config.Config, initWeights func(int) float64) (*Tagger, error) {
	tagset := corpus.LabelSet(data)
	for _, l := range tagset {
		if l == cfg.StartSymbol {
			return nil, fmt.Errorf("chaintag: corpus label %q collides with the start symbol", l)
		}
	}
	labels := crf.NewLabelIndex(cfg.StartSymbol, tagset...)

	featCfg := wordfeat.Config{
		AffixLen:      cfg.Featurizer.AffixLen,
		RareThreshold: cfg.Featurizer.RareThreshold,
	}
	if len(cfg.Featurizer.Gazetteers) > 0 {
		featCfg.Gazetteers = make(map[string][]string, len(cfg.Featurizer.Gazetteers))
		for _, g := range cfg.Featurizer.Gazetteers {
			entries, err := wordfeat.LoadGazetteer(g.Path)
			if err != nil {
				return nil, fmt.Errorf("chaintag: %w", err)
			}
			featCfg.Gazetteers[g.Name] = entries
		}
	}
	surface := wordfeat.Build(data, featCfg)

	lex, err := lexicon.Build(data, labels, cfg.Lexicon.MinCount)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}

	f, err := crf.BuildIndexedFeaturizer(data, labels, surface, lex)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	slog.Debug("feature index built",
		"labels", labels.Size()-1,
		"surface_features", surface.Index.Size(),
		"features", f.NumFeatures)

	model := crf.NewModel(f)
	if initWeights != nil {
		for i := range model.Weights {
			model.Weights[i] = initWeights(i)
		}
	}
	if err := trainer.Train(model, data, trainer.Config{
		C1:            cfg.Trainer.C1,
		C2:            cfg.Trainer.C2,
		MaxIterations: cfg.Trainer.MaxIterations,
		Epsilon:       cfg.Trainer.Epsilon,
		Workers:       cfg.Trainer.Workers,
	}); err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}

	return &Tagger{model: model, surface: surface, lexicon: lex}, nil
}

// Evaluate runs k-fold cross-validation over the data folder, reporting
// token and whole-sequence accuracy. Folds are assigned round-robin by
// sentence, so results are reproducible.
func Evaluate(dataDir string, ec *EvalConfig) (*EvalResult, error) {
	nFolds := 10
	cfg := config.Default()
	if ec != nil {
		if ec.Folds > 0 {
			nFolds = ec.Folds
		}
		if ec.Config != nil {
			cfg = *ec.Config
		}
	}

	data, err := corpus.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("chaintag: %w", err)
	}
	if nFolds > len(data) {
		nFolds = len(data)
	}
	if nFolds < 2 {
		return nil, fmt.Errorf("chaintag: need at least 2 sentences to cross-validate, have %d", len(data))
	}

	result := &EvalResult{}
	for fold := range nFolds {
		var trainSet, testSet []crf.TaggedSequence
		for i, d := range data {
			if i%nFolds == fold {
				testSet = append(testSet, d)
			} else {
				trainSet = append(trainSet, d)
			}
		}

		t, err := buildTagger(trainSet, cfg, nil)
		if err != nil {
			return nil, err
		}
		for _, d := range testSet {
			pred, err := t.Tag(d.Words)
			if err != nil {
				return nil, err
			}
			allCorrect := true
			for i := range d.Labels {
				if pred[i] == d.Labels[i] {
					result.TokenCorrect++
				} else {
					allCorrect = false
				}
				result.TokenTotal++
			}
			if allCorrect {
				result.SequenceCorrect++
			}
			result.SequenceTotal++
		}
		slog.Debug("fold evaluated", "fold", fold+1, "folds", nFolds)
	}

	if result.TokenTotal > 0 {
		result.TokenAccuracy = float64(result.TokenCorrect) / float64(result.TokenTotal)
	}
	if result.SequenceTotal > 0 {
		result.SequenceAccuracy = float64(result.SequenceCorrect) / float64(result.SequenceTotal)
	}
	return result, nil
}
