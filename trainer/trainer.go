// Package trainer fits CRF weights by penalized maximum likelihood.
//
// The optimizer is OWL-QN over L-BFGS directions, so both L1 and L2
// penalties are supported. Gradients are the engine's expected feature
// counts: model expectation minus gold counts per sentence, computed in
// parallel with one accumulator per worker.
package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/happyhackingspace/chaintag/crf"
)

// ErrEmptyCorpus reports a training call with no sentences.
var ErrEmptyCorpus = errors.New("trainer: empty corpus")

// Config holds training hyperparameters.
type Config struct {
	C1            float64 // L1 regularization
	C2            float64 // L2 regularization
	MaxIterations int
	Epsilon       float64 // convergence threshold on the pseudo-gradient
	Workers       int     // parallel sentence workers; 0 means GOMAXPROCS
}

// DefaultConfig returns the default training configuration.
func DefaultConfig() Config {
	return Config{
		C1:            0.1,
		C2:            0.01,
		MaxIterations: 100,
		Epsilon:       1e-5,
	}
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Train optimizes model.Weights in place over the corpus. Every sentence
// must carry gold labels known to the model's label index.
func Train(model *crf.Model, corpus []crf.TaggedSequence, cfg Config) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}
	n := model.Featurizer.NumFeatures
	w := model.Weights
	if len(w) != n {
		return fmt.Errorf("trainer: %w", crf.ErrDimensionMismatch)
	}

	opt := newLBFGS(n, 10)

	grad, loss, err := gradient(model.Featurizer, corpus, w, cfg)
	if err != nil {
		return err
	}

	for iter := range cfg.MaxIterations {
		obj := loss + l1Penalty(w, cfg.C1)
		slog.Debug("training iteration", "iteration", iter+1, "objective", obj)

		pg := pseudoGradient(w, grad, cfg.C1)
		if maxAbs(pg) < cfg.Epsilon {
			slog.Debug("converged", "iteration", iter+1)
			break
		}
		dir := opt.computeDirection(pg)
		// Constrain the direction to the orthant of the pseudo-gradient.
		for i := range dir {
			if dir[i]*pg[i] > 0 {
				dir[i] = 0
			}
		}

		step, err := owlqnLineSearch(w, dir, obj, pg, func(trial []float64) (float64, error) {
			l, err := objective(model.Featurizer, corpus, trial, cfg)
			if err != nil {
				return 0, err
			}
			return l + l1Penalty(trial, cfg.C1), nil
		}, cfg.C1)
		if err != nil {
			return err
		}
		if step == 0 {
			slog.Warn("line search failed, stopping")
			break
		}

		prevW := append([]float64(nil), w...)
		floats.AddScaled(w, step, dir)
		if cfg.C1 > 0 {
			projectOrthant(w, prevW)
		}

		grad, loss, err = gradient(model.Featurizer, corpus, w, cfg)
		if err != nil {
			return err
		}
		newPG := pseudoGradient(w, grad, cfg.C1)

		s := make([]float64, n)
		y := make([]float64, n)
		floats.SubTo(s, w, prevW)
		floats.SubTo(y, newPG, pg)
		opt.update(s, y)
	}
	return nil
}

func maxAbs(xs []float64) float64 {
	var m float64
	for _, x := range xs {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// gradient computes the regularized negative log-likelihood and its
// gradient at w: per sentence, expected counts under the model minus the
// gold counts, fanned out over workers with one accumulator each.
func gradient(f *crf.IndexedFeaturizer, corpus []crf.TaggedSequence, w []float64, cfg Config) ([]float64, float64, error) {
	total, err := reduceCounts(f, corpus, w, cfg, true)
	if err != nil {
		return nil, 0, err
	}

	grad := total.Counts
	loss := total.Loss
	if cfg.C2 > 0 {
		floats.AddScaled(grad, cfg.C2, w)
		loss += 0.5 * cfg.C2 * floats.Dot(w, w)
	}
	return grad, loss, nil
}

// objective computes only the regularized loss at w (for line search).
func objective(f *crf.IndexedFeaturizer, corpus []crf.TaggedSequence, w []float64, cfg Config) (float64, error) {
	total, err := reduceCounts(f, corpus, w, cfg, false)
	if err != nil {
		return 0, err
	}
	loss := total.Loss
	if cfg.C2 > 0 {
		loss += 0.5 * cfg.C2 * floats.Dot(w, w)
	}
	return loss, nil
}

// reduceCounts folds per-sentence losses (and, when withCounts, expected
// count vectors) across the corpus. The accumulators are single-writer:
// each worker owns one and they are added together at the end.
func reduceCounts(f *crf.IndexedFeaturizer, corpus []crf.TaggedSequence, w []float64, cfg Config, withCounts bool) (*crf.ExpectedCounts, error) {
	inf, err := crf.NewInference(f, w)
	if err != nil {
		return nil, err
	}

	workers := min(cfg.workers(), len(corpus))
	acc := make([]*crf.ExpectedCounts, workers)
	var g errgroup.Group
	for wi := range workers {
		g.Go(func() error {
			counts := inf.EmptyCounts()
			acc[wi] = counts
			for i := wi; i < len(corpus); i += workers {
				d := corpus[i]
				m, err := inf.Marginal(d, nil)
				if err != nil {
					return fmt.Errorf("sentence %s: %w", d.ID, err)
				}
				gold, err := inf.GoldMarginal(d, nil)
				if err != nil {
					return fmt.Errorf("sentence %s: %w", d.ID, err)
				}
				if withCounts {
					if err := inf.Accumulate(m, counts, 1); err != nil {
						return fmt.Errorf("sentence %s: %w", d.ID, err)
					}
					if err := inf.Accumulate(gold, counts, -1); err != nil {
						return fmt.Errorf("sentence %s: %w", d.ID, err)
					}
				} else {
					counts.Loss += m.LogPartition() - gold.LogPartition()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := acc[0]
	for _, c := range acc[1:] {
		total.Add(c)
	}
	return total, nil
}

func l1Penalty(w []float64, c1 float64) float64 {
	if c1 <= 0 {
		return 0
	}
	var sum float64
	for _, v := range w {
		sum += math.Abs(v)
	}
	return c1 * sum
}
