package dynamo

import (
	"fmt"
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Add(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] + other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

func (s State) Scale(factor float64) State {
	result := make(State, len(s))
	for i := range s {
		result[i] = s[i] * factor
	}
	return result
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

// CheckDim returns ErrDimensionMismatch when len(s) != n.
func (s State) CheckDim(n int) error {
	if len(s) != n {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(s), n)
	}
	return nil
}

// System is a stateful dynamical system. The integrator pulls the current
// state, asks for the derivative at the installed state, and pushes states
// back; Derive always evaluates at whatever state was last installed.
type System interface {
	State() State
	SetState(x State) error
	Derive() State
	StateDim() int
}

type Integrator interface {
	Step(sys System, dt float64) error
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}

// StepHook is implemented by systems that need to run after each committed
// step, for example to move colliders that follow a body.
type StepHook interface {
	AfterStep() error
}

// EnergyComputer reports the mechanical energy at the installed state.
type EnergyComputer interface {
	Energy() float64
}
