package trainer

import (
	"gonum.org/v1/gonum/floats"
)

// lbfgs implements the L-BFGS two-loop recursion over a bounded history of
// (s, y) curvature pairs.
type lbfgs struct {
	n    int // number of variables
	m    int // memory size
	s    [][]float64
	y    [][]float64
	rho  []float64
	k    int
	size int
}

func newLBFGS(n, m int) *lbfgs {
	return &lbfgs{
		n:   n,
		m:   m,
		s:   make([][]float64, m),
		y:   make([][]float64, m),
		rho: make([]float64, m),
	}
}

func (l *lbfgs) update(s, y []float64) {
	sy := floats.Dot(s, y)
	if sy <= 0 {
		return
	}
	idx := l.k % l.m
	l.s[idx] = append([]float64(nil), s...)
	l.y[idx] = append([]float64(nil), y...)
	l.rho[idx] = 1.0 / sy
	l.k++
	if l.size < l.m {
		l.size++
	}
}

func (l *lbfgs) computeDirection(pg []float64) []float64 {
	q := append([]float64(nil), pg...)

	if l.size == 0 {
		// Steepest descent until curvature pairs exist.
		floats.Scale(-1, q)
		return q
	}

	alpha := make([]float64, l.size)

	// First loop: newest to oldest.
	for i := l.size - 1; i >= 0; i-- {
		idx := (l.k - 1 - (l.size - 1 - i)) % l.m
		if idx < 0 {
			idx += l.m
		}
		alpha[i] = l.rho[idx] * floats.Dot(l.s[idx], q)
		floats.AddScaled(q, -alpha[i], l.y[idx])
	}

	// Scale by H_0 = (s_k^T y_k) / (y_k^T y_k).
	latest := (l.k - 1) % l.m
	if latest < 0 {
		latest += l.m
	}
	yy := floats.Dot(l.y[latest], l.y[latest])
	if yy > 0 {
		floats.Scale(floats.Dot(l.s[latest], l.y[latest])/yy, q)
	}

	// Second loop: oldest to newest.
	for i := range l.size {
		idx := (l.k - l.size + i) % l.m
		if idx < 0 {
			idx += l.m
		}
		beta := l.rho[idx] * floats.Dot(l.y[idx], q)
		floats.AddScaled(q, alpha[i]-beta, l.s[idx])
	}

	floats.Scale(-1, q)
	return q
}

// pseudoGradient is the OWL-QN subgradient of obj + c1*|w|_1: where w is at
// zero, the L1 term contributes only if the step would leave zero.
func pseudoGradient(w, grad []float64, c1 float64) []float64 {
	pg := make([]float64, len(w))
	for i := range w {
		switch {
		case w[i] > 0:
			pg[i] = grad[i] + c1
		case w[i] < 0:
			pg[i] = grad[i] - c1
		default:
			switch {
			case grad[i]+c1 < 0:
				pg[i] = grad[i] + c1
			case grad[i]-c1 > 0:
				pg[i] = grad[i] - c1
			default:
				pg[i] = 0
			}
		}
	}
	return pg
}

// owlqnLineSearch performs a backtracking Armijo line search with orthant
// projection, returning the accepted step size.
func owlqnLineSearch(w, dir []float64, fVal float64, pg []float64, objFunc func([]float64) (float64, error), c1 float64) (float64, error) {
	dirDeriv := floats.Dot(dir, pg)
	if dirDeriv >= 0 {
		return 0, nil
	}

	step := 1.0
	const c = 1e-4 // Armijo constant
	wNew := make([]float64, len(w))

	for range 20 {
		for i := range w {
			wNew[i] = w[i] + step*dir[i]
		}
		if c1 > 0 {
			projectOrthant(wNew, w)
		}

		fNew, err := objFunc(wNew)
		if err != nil {
			return 0, err
		}
		if fNew <= fVal+c*step*dirDeriv {
			return step, nil
		}
		step *= 0.5
	}
	return step, nil // half the last tried step, untried and without sufficient decrease
}

// projectOrthant zeroes coordinates that crossed the orthant of ref.
func projectOrthant(w, ref []float64) {
	for i := range w {
		if w[i]*ref[i] < 0 {
			w[i] = 0
		}
	}
}
