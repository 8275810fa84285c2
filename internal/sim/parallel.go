package sim

import (
	"context"
	"sync"

	"github.com/san-kum/orrery/internal/celestial"
)

// Builder prepares an independent registry for one ensemble member.
type Builder func(seed int64) (*celestial.System, error)

// Ensemble runs the same scene under consecutive seeds concurrently.
type Ensemble struct {
	build      Builder
	newMetrics func() []Metric
	numRuns    int
	seedStart  int64
}

func NewEnsemble(build Builder, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// WithMetrics sets a factory so every member gets its own metric instances.
func (e *Ensemble) WithMetrics(factory func() []Metric) *Ensemble {
	e.newMetrics = factory
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sys, err := e.build(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}

			r := New(sys)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					r.AddMetric(m)
				}
			}

			results[idx], errs[idx] = r.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
