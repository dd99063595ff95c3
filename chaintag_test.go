package chaintag

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/happyhackingspace/chaintag/internal/config"
)

const trainingData = `# tiny tagging corpus
the	DT
dog	NN
runs	VB

the	DT
cat	NN
sleeps	VB

a	DT
dog	NN
sleeps	VB

a	DT
cat	NN
runs	VB
`

func trainedTagger(t *testing.T) (*Tagger, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "corpus.txt"), []byte(trainingData), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Trainer.MaxIterations = 30
	cfg.Featurizer.RareThreshold = 2
	cfg.Lexicon.MinCount = 1

	tagger, err := Train(dir, &TrainConfig{Config: &cfg})
	if err != nil {
		t.Fatal(err)
	}
	return tagger, dir
}

func TestTrainAndTag(t *testing.T) {
	tagger, _ := trainedTagger(t)

	tags, err := tagger.Tag([]string{"the", "dog", "runs"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"DT", "NN", "VB"}
	if !reflect.DeepEqual(tags, want) {
		t.Errorf("Tag = %v, want %v", tags, want)
	}

	if got := tagger.Labels(); !reflect.DeepEqual(got, []string{"DT", "NN", "VB"}) {
		t.Errorf("Labels = %v", got)
	}
}

func TestTagMarginals(t *testing.T) {
	tagger, _ := trainedTagger(t)

	marginals, err := tagger.TagMarginals([]string{"the", "cat", "runs"})
	if err != nil {
		t.Fatal(err)
	}
	if len(marginals) != 3 {
		t.Fatalf("got %d positions", len(marginals))
	}
	for p, dist := range marginals {
		var sum float64
		for _, q := range dist {
			sum += q
		}
		if sum < 0.999 || sum > 1.001 {
			t.Errorf("marginals at %d sum to %v", p, sum)
		}
	}
	// Every training token is closed-class under MinCount 1.
	if q := marginals[0]["DT"]; q < 0.999 {
		t.Errorf("P(DT | the) = %v, want 1", q)
	}

	posterior, err := tagger.TagPosterior([]string{"the", "cat", "runs"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(posterior, []string{"DT", "NN", "VB"}) {
		t.Errorf("TagPosterior = %v", posterior)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tagger, dir := trainedTagger(t)
	path := filepath.Join(dir, "model.json")
	if err := tagger.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	words := []string{"a", "dog", "runs"}
	want, err := tagger.Tag(words)
	if err != nil {
		t.Fatal(err)
	}
	got, err := loaded.Tag(words)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tags after reload = %v, want %v", got, want)
	}

	m1, err := tagger.TagMarginals(words)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := loaded.TagMarginals(words)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(m1, m2) {
		t.Error("marginals changed across save/load")
	}
}

func TestLoadIncompleteModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(`{"crf": null}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for incomplete model file")
	}
}

func TestEvaluate(t *testing.T) {
	_, dir := trainedTagger(t)

	cfg := config.Default()
	cfg.Trainer.MaxIterations = 10
	cfg.Lexicon.MinCount = 1
	result, err := Evaluate(dir, &EvalConfig{Folds: 2, Config: &cfg})
	if err != nil {
		t.Fatal(err)
	}
	if result.TokenTotal == 0 || result.SequenceTotal == 0 {
		t.Fatalf("empty evaluation: %+v", result)
	}
	if result.TokenAccuracy < 0 || result.TokenAccuracy > 1 {
		t.Errorf("token accuracy = %v", result.TokenAccuracy)
	}
}
