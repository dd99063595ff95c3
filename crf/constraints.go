package crf

// TagConstraints restricts the trellis of one sentence: AllowedTags(p)
// returns the tag IDs a position may take, in ascending ID order.
// Positions outside [0, n) are owned by the engine and resolve to the
// start sentinel; implementations are only consulted for in-range p.
type TagConstraints interface {
	AllowedTags(p int) []int
}

// ConstraintsFactory produces per-sentence tag constraints. Typical
// implementations consult a lexicon built from training counts so that
// most words admit only a few tags, which shrinks the trellis.
type ConstraintsFactory interface {
	Anchor(words []string) TagConstraints
}

// UniformConstraints allows every non-start tag at every position.
func UniformConstraints(labels *LabelIndex) ConstraintsFactory {
	return uniformFactory{tags: labels.NonStart()}
}

type uniformFactory struct {
	tags []int
}

func (f uniformFactory) Anchor(words []string) TagConstraints {
	return uniformConstraints{tags: f.tags}
}

type uniformConstraints struct {
	tags []int
}

func (c uniformConstraints) AllowedTags(p int) []int {
	return c.tags
}
