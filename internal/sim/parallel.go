package sim

import (
	"context"

	"github.com/san-kum/gasbox/internal/scene"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent copies of one scene with consecutive seeds.
type Ensemble struct {
	scene     *scene.Scene
	opts      Options
	numRuns   int
	seedStart int64
	metrics   func() []Metric
}

// NewEnsemble prepares numRuns runs seeded seedStart, seedStart+1, ... The
// metrics factory, if not nil, is called once per run so runs never share
// metric state.
func NewEnsemble(sc *scene.Scene, opts Options, numRuns int, seedStart int64, metrics func() []Metric) *Ensemble {
	return &Ensemble{scene: sc, opts: opts, numRuns: numRuns, seedStart: seedStart, metrics: metrics}
}

func (e *Ensemble) Run(ctx context.Context, steps int) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		opts := e.opts
		opts.Seed = e.seedStart + int64(i)
		eng, err := New(e.scene, opts)
		if err != nil {
			return nil, err
		}
		if e.metrics != nil {
			for _, m := range e.metrics() {
				eng.AddMetric(m)
			}
		}
		i := i
		g.Go(func() error {
			res, err := eng.Run(ctx, steps)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
