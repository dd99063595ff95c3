package crf

import "math"

// Viterbi finds the highest-scoring tag sequence under the anchoring using
// max-product dynamic programming over the constrained trellis. It returns
// the tag IDs and the path score, or ErrInfeasible when some column has no
// reachable tag. Ties break toward the lowest previous tag ID, so decoding
// is deterministic.
func Viterbi(a Anchoring) ([]int, float64, error) {
	n := len(a.Words())
	k := a.Labels().Size()
	if n == 0 {
		return nil, 0, nil
	}

	fwd := newLogTable(n+1, k)
	fwd[0][a.Labels().Start] = 0
	back := make([][]int, n)

	for i := range n {
		back[i] = make([]int, k)
		prevSet := a.ValidSymbols(i - 1)
		reachable := false
		for _, cur := range a.ValidSymbols(i) {
			best := math.Inf(-1)
			bestPrev := -1
			for _, prev := range prevSet {
				score := fwd[i][prev] + a.ScoreTransition(i, prev, cur)
				if math.IsNaN(score) {
					panic("crf: NaN in Viterbi cell")
				}
				if score > best {
					best = score
					bestPrev = prev
				}
			}
			fwd[i+1][cur] = best
			back[i][cur] = bestPrev
			if !math.IsInf(best, -1) {
				reachable = true
			}
		}
		if !reachable {
			return nil, 0, ErrInfeasible
		}
	}

	best := math.Inf(-1)
	bestCur := -1
	for _, cur := range a.ValidSymbols(n - 1) {
		if fwd[n][cur] > best {
			best = fwd[n][cur]
			bestCur = cur
		}
	}
	if bestCur < 0 {
		return nil, 0, ErrInfeasible
	}

	path := make([]int, n)
	path[n-1] = bestCur
	for i := n - 1; i >= 1; i-- {
		path[i-1] = back[i][path[i]]
	}
	return path, best, nil
}

// ViterbiLabels decodes and maps the path back to label strings.
func ViterbiLabels(a Anchoring) ([]string, float64, error) {
	path, score, err := Viterbi(a)
	if err != nil {
		return nil, 0, err
	}
	labels := make([]string, len(path))
	for i, id := range path {
		labels[i] = a.Labels().Label(id)
	}
	return labels, score, nil
}
