// Package lexicon builds per-word tag dictionaries from training counts.
//
// Words observed at least MinCount times are treated as closed class: only
// their attested tags are allowed, which prunes most of the trellis. Rare
// and unseen words fall back to the full tag set. The resulting
// constraints never produce an empty in-range set.
package lexicon

import (
	"sort"
	"strings"

	"github.com/happyhackingspace/chaintag/crf"
)

// Lexicon maps lowercased words to their allowed tag IDs. It implements
// crf.ConstraintsFactory.
type Lexicon struct {
	Allowed  map[string][]int `json:"allowed"`
	Fallback []int            `json:"fallback"`
	MinCount int              `json:"min_count"`
}

// Build counts (word, tag) pairs over the corpus and closes the tag set of
// every word seen at least minCount times. Unknown labels in the corpus
// surface as errors.
func Build(corpus []crf.TaggedSequence, labels *crf.LabelIndex, minCount int) (*Lexicon, error) {
	wordFreq := make(map[string]int)
	tagSets := make(map[string]map[int]bool)
	for _, d := range corpus {
		tags, err := labels.IndexAll(d.Labels)
		if err != nil {
			return nil, err
		}
		for i, w := range d.Words {
			lower := strings.ToLower(w)
			wordFreq[lower]++
			if tagSets[lower] == nil {
				tagSets[lower] = make(map[int]bool)
			}
			tagSets[lower][tags[i]] = true
		}
	}

	lex := &Lexicon{
		Allowed:  make(map[string][]int),
		Fallback: labels.NonStart(),
		MinCount: minCount,
	}
	for w, n := range wordFreq {
		if n < minCount {
			continue
		}
		tags := make([]int, 0, len(tagSets[w]))
		for tag := range tagSets[w] {
			tags = append(tags, tag)
		}
		sort.Ints(tags)
		lex.Allowed[w] = tags
	}
	return lex, nil
}

// Anchor returns the per-sentence constraint view.
func (l *Lexicon) Anchor(words []string) crf.TagConstraints {
	sets := make([][]int, len(words))
	for p, w := range words {
		if tags, ok := l.Allowed[strings.ToLower(w)]; ok {
			sets[p] = tags
		} else {
			sets[p] = l.Fallback
		}
	}
	return constraints{sets: sets}
}

type constraints struct {
	sets [][]int
}

func (c constraints) AllowedTags(p int) []int {
	return c.sets[p]
}
