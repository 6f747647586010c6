package fem

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/dynamo"
)

// Revertexer is a collider whose surface can be replaced wholesale.
type Revertexer interface {
	SetVertices(vertices []mgl64.Vec3) error
}

// System aggregates objects into one state vector. Object order is
// insertion order and defines the layout: object i occupies
// [Offset(i), Offset(i)+objects[i].StateDim()).
type System struct {
	objects   []*Object
	offsets   []int
	colliders []Collider
	stateSize int
}

func NewSystem() *System {
	return &System{}
}

func (s *System) AddObject(o *Object) {
	s.objects = append(s.objects, o)
	s.offsets = append(s.offsets, s.stateSize)
	s.stateSize += o.StateDim()
}

// AddCollider registers c with the system. Init distributes it to every object.
func (s *System) AddCollider(c Collider) {
	for _, existing := range s.colliders {
		if existing == c {
			return
		}
	}
	s.colliders = append(s.colliders, c)
}

// Init registers every system collider with every object. Calling it again
// after adding more objects or colliders is safe; registration is
// idempotent.
func (s *System) Init() {
	for _, c := range s.colliders {
		for _, o := range s.objects {
			o.RegisterCollider(c)
		}
	}
}

func (s *System) Objects() []*Object    { return s.objects }
func (s *System) Colliders() []Collider { return s.colliders }
func (s *System) StateDim() int         { return s.stateSize }
func (s *System) Offset(i int) int      { return s.offsets[i] }
func (s *System) Object(i int) *Object  { return s.objects[i] }
func (s *System) NumObjects() int       { return len(s.objects) }

func (s *System) State() dynamo.State {
	x := make(dynamo.State, s.stateSize)
	for i, o := range s.objects {
		o.stateInto(x[s.offsets[i] : s.offsets[i]+o.StateDim()])
	}
	return x
}

func (s *System) SetState(x dynamo.State) error {
	if err := x.CheckDim(s.stateSize); err != nil {
		return err
	}
	for i, o := range s.objects {
		o.setState(x[s.offsets[i] : s.offsets[i]+o.StateDim()])
	}
	return nil
}

func (s *System) Derive() dynamo.State {
	dx := make(dynamo.State, s.stateSize)
	for i, o := range s.objects {
		o.deriveInto(dx[s.offsets[i] : s.offsets[i]+o.StateDim()])
	}
	return dx
}

// AfterStep moves every surface collider built from an object onto that
// object's current node positions.
func (s *System) AfterStep() error {
	var errs []error
	for _, o := range s.objects {
		r, ok := o.self.(Revertexer)
		if !ok {
			continue
		}
		if err := r.SetVertices(o.Vertices()); err != nil {
			errs = append(errs, fmt.Errorf("object %q: %w", o.name, err))
		}
	}
	return errors.Join(errs...)
}

// ObjectState returns the segment of x that belongs to object i.
func (s *System) ObjectState(x dynamo.State, i int) dynamo.State {
	return x[s.offsets[i] : s.offsets[i]+s.objects[i].StateDim()]
}

func (s *System) TotalMass() float64 {
	total := 0.0
	for _, o := range s.objects {
		total += o.TotalMass()
	}
	return total
}

func (s *System) KineticEnergy() float64 {
	e := 0.0
	for _, o := range s.objects {
		e += o.KineticEnergy()
	}
	return e
}

func (s *System) PotentialEnergy() float64 {
	e := 0.0
	for _, o := range s.objects {
		e += o.PotentialEnergy()
	}
	return e
}

// GetParams implements dynamo.Configurable. Values are read from the first
// object; SetParam applies to all of them.
func (s *System) GetParams() map[string]float64 {
	if len(s.objects) == 0 {
		return map[string]float64{}
	}
	return s.objects[0].GetParams()
}

// SetParam implements dynamo.Configurable
func (s *System) SetParam(name string, value float64) error {
	for _, o := range s.objects {
		if err := o.SetParam(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Energy is kinetic plus gravitational energy. Elastic strain energy is not
// included.
func (s *System) Energy() float64 {
	return s.KineticEnergy() + s.PotentialEnergy()
}

// Contacts is the total of Object.Contacts over all objects.
func (s *System) Contacts() int {
	n := 0
	for _, o := range s.objects {
		n += o.Contacts()
	}
	return n
}
