package integrators

import "github.com/san-kum/femsim/internal/dynamo"

// Euler is the explicit forward Euler step. It is only conditionally stable
// for stiff bodies and is kept for comparison runs.
type Euler struct {
	scratch dynamo.State
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(sys dynamo.System, dt float64) error {
	x := sys.State()
	dx := sys.Derive()
	if len(e.scratch) != len(x) {
		e.scratch = make(dynamo.State, len(x))
	}
	for i := range x {
		e.scratch[i] = x[i] + dt*dx[i]
	}
	return sys.SetState(e.scratch)
}
