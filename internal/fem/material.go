package fem

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/dynamo"
)

const (
	DefaultDensity           = 1200.0
	DefaultIncompressibility = 40000.0
	DefaultRigidity          = 40000.0
	DefaultViscosity         = 100.0
	DefaultGravity           = 1.0
)

// Material holds the constitutive and external-force parameters of a body.
// Gravity is a magnitude along -y. FloorPenalty is the stiffness of the
// analytic y<0 floor term; zero disables it.
type Material struct {
	Density           float64
	Incompressibility float64
	Rigidity          float64
	Viscosity1        float64
	Viscosity2        float64
	Gravity           float64
	FloorPenalty      float64
	InitialVelocity   mgl64.Vec3
}

func DefaultMaterial() Material {
	return Material{
		Density:           DefaultDensity,
		Incompressibility: DefaultIncompressibility,
		Rigidity:          DefaultRigidity,
		Viscosity1:        DefaultViscosity,
		Viscosity2:        DefaultViscosity,
		Gravity:           DefaultGravity,
	}
}

func (m Material) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"density", m.Density},
		{"incompressibility", m.Incompressibility},
		{"rigidity", m.Rigidity},
		{"viscosity1", m.Viscosity1},
		{"viscosity2", m.Viscosity2},
		{"floor_penalty", m.FloorPenalty},
	}
	for _, f := range fields {
		if f.value < 0 || math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s = %g", dynamo.ErrParameterBounds, f.name, f.value)
		}
	}
	if m.Density == 0 {
		return fmt.Errorf("%w: density must be positive", dynamo.ErrParameterBounds)
	}
	if math.IsNaN(m.Gravity) || math.IsInf(m.Gravity, 0) {
		return fmt.Errorf("%w: gravity = %g", dynamo.ErrParameterBounds, m.Gravity)
	}
	return nil
}

func (m Material) params() map[string]float64 {
	return map[string]float64{
		"incompressibility": m.Incompressibility,
		"rigidity":          m.Rigidity,
		"viscosity1":        m.Viscosity1,
		"viscosity2":        m.Viscosity2,
		"gravity":           m.Gravity,
		"floor_penalty":     m.FloorPenalty,
	}
}

func (m *Material) set(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: %s = %g", dynamo.ErrParameterBounds, name, value)
	}
	if name != "gravity" && value < 0 {
		return fmt.Errorf("%w: %s = %g", dynamo.ErrParameterBounds, name, value)
	}
	switch name {
	case "incompressibility":
		m.Incompressibility = value
	case "rigidity":
		m.Rigidity = value
	case "viscosity1":
		m.Viscosity1 = value
	case "viscosity2":
		m.Viscosity2 = value
	case "gravity":
		m.Gravity = value
	case "floor_penalty":
		m.FloorPenalty = value
	default:
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrParameterBounds, name)
	}
	return nil
}
