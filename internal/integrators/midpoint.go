package integrators

import "github.com/san-kum/femsim/internal/dynamo"

// Midpoint is the explicit midpoint (RK2) method. Each step makes two
// derivative evaluations: one at the start of the step and one at the
// half-step state.
type Midpoint struct {
	s0, mid dynamo.State
}

func NewMidpoint() *Midpoint {
	return &Midpoint{}
}

func (m *Midpoint) ensureScratch(n int) {
	if len(m.s0) != n {
		m.s0 = make(dynamo.State, n)
		m.mid = make(dynamo.State, n)
	}
}

func (m *Midpoint) Step(sys dynamo.System, dt float64) error {
	n := sys.StateDim()
	m.ensureScratch(n)

	s0 := sys.State()
	if err := s0.CheckDim(n); err != nil {
		return err
	}
	copy(m.s0, s0)

	d0 := sys.Derive()
	half := dt * 0.5
	for i := 0; i < n; i++ {
		m.mid[i] = m.s0[i] + half*d0[i]
	}
	if err := sys.SetState(m.mid); err != nil {
		return err
	}

	dmid := sys.Derive()
	for i := 0; i < n; i++ {
		m.mid[i] = m.s0[i] + dt*dmid[i]
	}
	return sys.SetState(m.mid)
}
