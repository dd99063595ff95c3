// Package wordfeat extracts per-token surface features for sequence
// labeling: word identity, shape, affixes, character flags, neighboring
// words and optional gazetteer membership.
//
// Features come in two granularities. Standard is the full set, used for
// unary label features. Minimal is a coarse subset (word identity for
// frequent words, shape otherwise), used for bigram label features to
// bound the parameter count.
package wordfeat

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/happyhackingspace/chaintag/crf"
	"github.com/happyhackingspace/chaintag/internal/textutil"
)

// Config holds featurizer options.
type Config struct {
	AffixLen      int                 // max prefix/suffix length
	RareThreshold int                 // words seen fewer times back off to shape at the minimal level
	Gazetteers    map[string][]string // gazetteer name -> entries
}

// DefaultConfig returns the default featurizer options.
func DefaultConfig() Config {
	return Config{
		AffixLen:      3,
		RareThreshold: 5,
	}
}

// Featurizer maps surface feature strings to dense IDs. It is built over
// the training corpus and frozen: unseen feature strings resolve to
// nothing at anchor time.
type Featurizer struct {
	Index      *crf.Alphabet              `json:"index"`
	Frequent   map[string]bool            `json:"frequent"`
	Gazetteers map[string]map[string]bool `json:"gazetteers,omitempty"`
	AffixLen   int                        `json:"affix_len"`
}

// Build scans the corpus, computes the frequent-word vocabulary and
// registers every surface feature string the corpus fires.
func Build(corpus []crf.TaggedSequence, cfg Config) *Featurizer {
	f := &Featurizer{
		Index:    crf.NewAlphabet(),
		Frequent: make(map[string]bool),
		AffixLen: cfg.AffixLen,
	}
	if len(cfg.Gazetteers) > 0 {
		f.Gazetteers = make(map[string]map[string]bool, len(cfg.Gazetteers))
		for name, entries := range cfg.Gazetteers {
			set := make(map[string]bool, len(entries))
			for _, e := range entries {
				set[strings.ToLower(e)] = true
			}
			f.Gazetteers[name] = set
		}
	}

	freq := make(map[string]int)
	for _, d := range corpus {
		for _, w := range d.Words {
			freq[strings.ToLower(w)]++
		}
	}
	for w, n := range freq {
		if n >= cfg.RareThreshold {
			f.Frequent[w] = true
		}
	}

	for _, d := range corpus {
		for p := range d.Words {
			for _, s := range f.standardStrings(d.Words, p) {
				f.Index.Add(s)
			}
			for _, s := range f.minimalStrings(d.Words, p) {
				f.Index.Add(s)
			}
		}
	}
	return f
}

// Anchor precomputes the feature ID lists for one sentence.
func (f *Featurizer) Anchor(words []string) crf.SurfaceFeatures {
	n := len(words)
	a := anchored{
		std: make([][]int, n),
		min: make([][]int, n),
	}
	for p := range n {
		a.std[p] = f.resolve(f.standardStrings(words, p))
		a.min[p] = f.resolve(f.minimalStrings(words, p))
	}
	return a
}

type anchored struct {
	std [][]int
	min [][]int
}

func (a anchored) FeaturesForWord(p int, level crf.FeatureLevel) []int {
	if level == crf.LevelMinimal {
		return a.min[p]
	}
	return a.std[p]
}

func (f *Featurizer) resolve(strs []string) []int {
	ids := make([]int, 0, len(strs))
	for _, s := range strs {
		if id := f.Index.Get(s); id >= 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *Featurizer) standardStrings(words []string, p int) []string {
	w := words[p]
	lower := strings.ToLower(w)
	feats := []string{
		"bias",
		"w=" + lower,
		"shape=" + textutil.Shape(w),
	}
	for _, pre := range textutil.Prefixes(lower, f.AffixLen) {
		feats = append(feats, "pre="+pre)
	}
	for _, suf := range textutil.Suffixes(lower, f.AffixLen) {
		feats = append(feats, "suf="+suf)
	}
	if textutil.HasDigit(w) {
		feats = append(feats, "hasdigit")
	}
	if textutil.HasHyphen(w) {
		feats = append(feats, "hashyphen")
	}
	if textutil.IsCapitalized(w) {
		feats = append(feats, "cap")
	}
	if textutil.IsAllCaps(w) {
		feats = append(feats, "allcaps")
	}
	if p > 0 {
		feats = append(feats, "w-1="+strings.ToLower(words[p-1]))
	} else {
		feats = append(feats, "w-1=<bos>")
	}
	if p+1 < len(words) {
		feats = append(feats, "w+1="+strings.ToLower(words[p+1]))
	} else {
		feats = append(feats, "w+1=<eos>")
	}
	for _, name := range f.gazetteerNames() {
		if f.Gazetteers[name][lower] {
			feats = append(feats, "gaz="+name)
		}
	}
	return feats
}

// gazetteerNames returns the gazetteer names in sorted order, so feature
// enumeration stays deterministic.
func (f *Featurizer) gazetteerNames() []string {
	if len(f.Gazetteers) == 0 {
		return nil
	}
	names := make([]string, 0, len(f.Gazetteers))
	for name := range f.Gazetteers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Featurizer) minimalStrings(words []string, p int) []string {
	w := words[p]
	lower := strings.ToLower(w)
	if f.Frequent[lower] {
		return []string{"bias", "w=" + lower}
	}
	return []string{"bias", "shape=" + textutil.Shape(w)}
}

// LoadGazetteer reads a gazetteer file: one entry per line, # comments
// and blank lines skipped.
func LoadGazetteer(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load gazetteer: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load gazetteer: %w", err)
	}
	return entries, nil
}
