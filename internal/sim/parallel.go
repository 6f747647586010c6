package sim

import (
	"context"
	"sync"
)

// Factory builds the i-th independent simulator of an ensemble. Each call
// must return a simulator over its own system; simulators share nothing.
type Factory func(i int) (*Simulator, error)

// Ensemble runs independent simulators concurrently, one goroutine each.
type Ensemble struct {
	factory Factory
	numRuns int
}

func NewEnsemble(factory Factory, numRuns int) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns}
}

// Run returns one result per run in index order. The first error in index
// order is returned; results of runs that succeeded are still filled in.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sim, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = sim.Run(ctx, cfg)
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
