package integrators

import "github.com/san-kum/femsim/internal/dynamo"

type RK4 struct {
	k1, k2, k3, k4 dynamo.State
	x0, scratch    dynamo.State
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.x0 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Step(sys dynamo.System, dt float64) error {
	n := sys.StateDim()
	r.ensureScratch(n)

	x := sys.State()
	if err := x.CheckDim(n); err != nil {
		return err
	}
	copy(r.x0, x)

	copy(r.k1, sys.Derive())

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt*0.5*r.k1[i]
	}
	if err := sys.SetState(r.scratch); err != nil {
		return err
	}
	copy(r.k2, sys.Derive())

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt*0.5*r.k2[i]
	}
	if err := sys.SetState(r.scratch); err != nil {
		return err
	}
	copy(r.k3, sys.Derive())

	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt*r.k3[i]
	}
	if err := sys.SetState(r.scratch); err != nil {
		return err
	}
	copy(r.k4, sys.Derive())

	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		r.scratch[i] = r.x0[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}
	return sys.SetState(r.scratch)
}
