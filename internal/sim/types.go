package sim

import (
	"errors"
	"time"

	"github.com/san-kum/femsim/internal/dynamo"
)

var (
	ErrInvalidTimestep = errors.New("sim: timestep must be positive")
	ErrInvalidDuration = errors.New("sim: duration must be positive")
	ErrInvalidConfig   = errors.New("sim: invalid run configuration")
)

type Config struct {
	Duration float64
	// RecordEvery keeps one snapshot per that many steps; values below 1
	// record every step. The final state is always recorded.
	RecordEvery   int
	ValidateState bool
	// MaxNorm stops the run with dynamo.ErrUnstable once the state's
	// Euclidean norm exceeds it. Zero disables the check.
	MaxNorm float64
}

type Result struct {
	States      []dynamo.State
	Times       []float64
	Metrics     map[string]float64
	StepsTaken  int
	EnergyDrift float64
	Wall        time.Duration
}

// Final returns the last recorded state, or nil for an empty result.
func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}

// Series extracts component i of every recorded state.
func (r *Result) Series(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, x := range r.States {
		if i < len(x) {
			out[k] = x[i]
		}
	}
	return out
}
