package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/san-kum/femsim/internal/collider"
	"github.com/san-kum/femsim/internal/fem"
	"github.com/san-kum/femsim/internal/integrators"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTimestep    = 3e-4
	DefaultDuration    = 5.0
	DefaultRecordEvery = 100
	DefaultGroundY     = 0.0
	DefaultGroundHalf  = 5.0
	DefaultBoxCells    = 2
	DefaultBoxSize     = 0.25
	MeshTet            = "tet"
	MeshBox            = "box"
)

var ErrInvalid = errors.New("config: invalid configuration")

// FieldError names the offending field by its YAML path, e.g.
// "bodies[1].initial_velocity".
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

type Config struct {
	Name         string          `yaml:"name,omitempty"`
	Integrator   string          `yaml:"integrator"`
	Timestep     float64         `yaml:"timestep"`
	Duration     float64         `yaml:"duration"`
	Seed         int64           `yaml:"seed"`
	Gravity      float64         `yaml:"gravity"`
	FloorPenalty float64         `yaml:"floor_penalty"`
	RecordEvery  int             `yaml:"record_every"`
	Collision    CollisionConfig `yaml:"collision"`
	Ground       GroundConfig    `yaml:"ground"`
	Bodies       []BodyConfig    `yaml:"bodies"`
}

type CollisionConfig struct {
	Gain      float64 `yaml:"gain"`
	Tolerance float64 `yaml:"tolerance"`
}

type GroundConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Y          float64 `yaml:"y"`
	HalfExtent float64 `yaml:"half_extent"`
}

type BoxConfig struct {
	NX   int     `yaml:"nx"`
	NY   int     `yaml:"ny"`
	NZ   int     `yaml:"nz"`
	Size float64 `yaml:"size"`
}

type BodyConfig struct {
	Name string `yaml:"name"`
	// Mesh is "tet", "box" or a path to a .mesh file.
	Mesh              string    `yaml:"mesh"`
	Box               BoxConfig `yaml:"box,omitempty"`
	Density           float64   `yaml:"density"`
	Incompressibility float64   `yaml:"incompressibility"`
	Rigidity          float64   `yaml:"rigidity"`
	Viscosity1        float64   `yaml:"viscosity1"`
	Viscosity2        float64   `yaml:"viscosity2"`
	InitialVelocity   []float64 `yaml:"initial_velocity,flow"`
	Translate         []float64 `yaml:"translate,flow,omitempty"`
	// Transform is a row-major 4x4 matrix applied after Translate.
	Transform []float64 `yaml:"transform,flow,omitempty"`
	// Jitter displaces every rest vertex by a seeded random offset of at
	// most this magnitude per axis.
	Jitter float64 `yaml:"jitter,omitempty"`
	// Collider builds a surface collider from this body for other bodies.
	Collider  bool `yaml:"collider"`
	Simulated bool `yaml:"simulated"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator:  integrators.DefaultName,
		Timestep:    DefaultTimestep,
		Duration:    DefaultDuration,
		Gravity:     fem.DefaultGravity,
		RecordEvery: DefaultRecordEvery,
		Collision: CollisionConfig{
			Gain:      collider.DefaultGain,
			Tolerance: collider.DefaultTolerance,
		},
		Ground: GroundConfig{
			Enabled:    true,
			Y:          DefaultGroundY,
			HalfExtent: DefaultGroundHalf,
		},
	}
}

func DefaultBody() BodyConfig {
	return BodyConfig{
		Mesh:              MeshTet,
		Box:               BoxConfig{NX: DefaultBoxCells, NY: DefaultBoxCells, NZ: DefaultBoxCells, Size: DefaultBoxSize},
		Density:           fem.DefaultDensity,
		Incompressibility: fem.DefaultIncompressibility,
		Rigidity:          fem.DefaultRigidity,
		Viscosity1:        fem.DefaultViscosity,
		Viscosity2:        fem.DefaultViscosity,
		InitialVelocity:   []float64{0, 0, 0},
		Simulated:         true,
	}
}

// UnmarshalYAML fills fields missing from the document with DefaultBody.
func (b *BodyConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain BodyConfig
	p := plain(DefaultBody())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*b = BodyConfig(p)
	return nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML document over DefaultConfig and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Bodies = make([]BodyConfig, len(c.Bodies))
	for i, b := range c.Bodies {
		b.InitialVelocity = append([]float64(nil), b.InitialVelocity...)
		b.Translate = append([]float64(nil), b.Translate...)
		b.Transform = append([]float64(nil), b.Transform...)
		out.Bodies[i] = b
	}
	return &out
}

// Validate checks every field and returns all problems joined; each is a
// *FieldError.
func (c *Config) Validate() error {
	var errs []error
	bad := func(field, format string, args ...any) {
		errs = append(errs, &FieldError{Field: field, Reason: fmt.Sprintf(format, args...)})
	}

	if _, err := integrators.New(c.Integrator); err != nil {
		bad("integrator", "unknown integrator %q (have %v)", c.Integrator, integrators.Names())
	}
	if !positive(c.Timestep) {
		bad("timestep", "must be positive, got %g", c.Timestep)
	}
	if !positive(c.Duration) {
		bad("duration", "must be positive, got %g", c.Duration)
	}
	if !finite(c.Gravity) {
		bad("gravity", "must be finite, got %g", c.Gravity)
	}
	if !nonNegative(c.FloorPenalty) {
		bad("floor_penalty", "must be non-negative, got %g", c.FloorPenalty)
	}
	if c.RecordEvery < 0 {
		bad("record_every", "must be non-negative, got %d", c.RecordEvery)
	}
	if !nonNegative(c.Collision.Gain) {
		bad("collision.gain", "must be non-negative, got %g", c.Collision.Gain)
	}
	if !nonNegative(c.Collision.Tolerance) {
		bad("collision.tolerance", "must be non-negative, got %g", c.Collision.Tolerance)
	}
	if c.Ground.Enabled && !positive(c.Ground.HalfExtent) {
		bad("ground.half_extent", "must be positive, got %g", c.Ground.HalfExtent)
	}
	if !finite(c.Ground.Y) {
		bad("ground.y", "must be finite, got %g", c.Ground.Y)
	}
	if len(c.Bodies) == 0 {
		bad("bodies", "at least one body is required")
	}

	names := make(map[string]int)
	for i, b := range c.Bodies {
		prefix := fmt.Sprintf("bodies[%d]", i)
		if b.Name != "" {
			if j, dup := names[b.Name]; dup {
				bad(prefix+".name", "duplicate of bodies[%d]", j)
			}
			names[b.Name] = i
		}
		if b.Mesh == "" {
			bad(prefix+".mesh", "must be %q, %q or a file path", MeshTet, MeshBox)
		}
		if b.Mesh == MeshBox {
			if b.Box.NX < 1 || b.Box.NY < 1 || b.Box.NZ < 1 {
				bad(prefix+".box", "resolution must be at least 1, got %dx%dx%d", b.Box.NX, b.Box.NY, b.Box.NZ)
			}
			if !positive(b.Box.Size) {
				bad(prefix+".box.size", "must be positive, got %g", b.Box.Size)
			}
		}
		if !positive(b.Density) {
			bad(prefix+".density", "must be positive, got %g", b.Density)
		}
		for _, f := range []struct {
			name  string
			value float64
		}{
			{"incompressibility", b.Incompressibility},
			{"rigidity", b.Rigidity},
			{"viscosity1", b.Viscosity1},
			{"viscosity2", b.Viscosity2},
			{"jitter", b.Jitter},
		} {
			if !nonNegative(f.value) {
				bad(prefix+"."+f.name, "must be non-negative, got %g", f.value)
			}
		}
		checkVector(bad, prefix+".initial_velocity", b.InitialVelocity, 3, false)
		checkVector(bad, prefix+".translate", b.Translate, 3, true)
		checkVector(bad, prefix+".transform", b.Transform, 16, true)
	}

	return errors.Join(errs...)
}

func checkVector(bad func(string, string, ...any), field string, v []float64, n int, optional bool) {
	if optional && len(v) == 0 {
		return
	}
	if len(v) != n {
		bad(field, "must have exactly %d values, got %d", n, len(v))
		return
	}
	for _, x := range v {
		if !finite(x) {
			bad(field, "must be finite, got %g", x)
			return
		}
	}
}

func positive(x float64) bool    { return x > 0 && !math.IsInf(x, 0) }
func nonNegative(x float64) bool { return x >= 0 && !math.IsInf(x, 0) }
func finite(x float64) bool      { return !math.IsNaN(x) && !math.IsInf(x, 0) }
