// Package scene turns a validated configuration into a simulation-ready
// fem.System: it loads or generates each body's mesh, places it, builds its
// material, and distributes the ground and body colliders.
package scene

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/collider"
	"github.com/san-kum/femsim/internal/config"
	"github.com/san-kum/femsim/internal/fem"
	"github.com/san-kum/femsim/internal/geom"
	"github.com/san-kum/femsim/internal/mesh"
)

// GroundID is the collider id of the ground quad. Body colliders use
// 1 + their index in the configuration.
const GroundID = 0

var ErrNoBodies = errors.New("scene: no simulated body could be built")

// Body is a simulated body in system order.
type Body struct {
	Index    int
	Name     string
	Object   *fem.Object
	Collider *collider.Collider
}

// Static is a body that does not move. It is drawn and may collide.
type Static struct {
	Index    int
	Name     string
	Surface  mesh.Surface
	Collider *collider.Collider
}

type Skipped struct {
	Index int
	Name  string
	Err   error
}

// Report lists what Build did with each configured body.
type Report struct {
	Built   []string
	Skipped []Skipped
}

type Scene struct {
	System *fem.System
	Bodies []Body
	Static []Static
	Ground *collider.Collider
	// GroundSurface is empty when the ground is disabled.
	GroundSurface mesh.Surface
	Report        Report
}

type options struct {
	baseDir string
}

type Option func(*options)

// WithBaseDir resolves relative mesh paths against dir.
func WithBaseDir(dir string) Option {
	return func(o *options) { o.baseDir = dir }
}

// Build constructs the scene described by cfg. A body whose mesh cannot be
// loaded or whose elements are degenerate is skipped, logged, and recorded
// in Report.Skipped; Build fails only when no simulated body remains.
func Build(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Scene, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Scene{System: fem.NewSystem()}
	colliderOpts := []collider.Option{
		collider.WithGain(cfg.Collision.Gain),
		collider.WithTolerance(cfg.Collision.Tolerance),
	}

	if cfg.Ground.Enabled {
		s.GroundSurface = mesh.Ground(cfg.Ground.HalfExtent, cfg.Ground.Y)
		g, err := collider.New(s.GroundSurface.Vertices, s.GroundSurface.Faces, GroundID, true, colliderOpts...)
		if err != nil {
			return nil, fmt.Errorf("scene: ground: %w", err)
		}
		s.Ground = g
		s.System.AddCollider(g)
	}

	for i, bc := range cfg.Bodies {
		name := bodyName(i, bc)
		log := logger.With("body", name, "index", i)

		skip := func(err error) {
			log.Warn("skipping body", "err", err)
			s.Report.Skipped = append(s.Report.Skipped, Skipped{Index: i, Name: name, Err: err})
		}

		m, err := loadMesh(bc, o.baseDir)
		if err != nil {
			skip(err)
			continue
		}
		m = place(m, bc, cfg.Seed+int64(i))

		if !bc.Simulated {
			st, err := buildStatic(i, name, m, bc, colliderOpts)
			if err != nil {
				skip(err)
				continue
			}
			if st.Collider != nil {
				s.System.AddCollider(st.Collider)
			}
			s.Static = append(s.Static, st)
			s.Report.Built = append(s.Report.Built, name)
			log.Debug("static body built", "faces", len(st.Surface.Faces))
			continue
		}

		obj, err := fem.FromMesh(name, m.Vertices, m.Tets, material(cfg, bc))
		if err != nil {
			skip(err)
			continue
		}

		body := Body{Index: i, Name: name, Object: obj}
		if bc.Collider {
			c, err := collider.New(obj.Vertices(), obj.BoundaryFaces(), GroundID+1+i, false, colliderOpts...)
			if err != nil {
				skip(err)
				continue
			}
			obj.SetSelfCollider(c)
			s.System.AddCollider(c)
			body.Collider = c
		}

		s.System.AddObject(obj)
		s.Bodies = append(s.Bodies, body)
		s.Report.Built = append(s.Report.Built, name)
		log.Debug("body built", "nodes", obj.NumNodes(), "tets", obj.NumTets(), "mass", obj.TotalMass())
	}

	if len(s.Bodies) == 0 {
		return nil, ErrNoBodies
	}

	s.System.Init()
	logger.Info("scene built",
		"bodies", len(s.Bodies), "static", len(s.Static), "skipped", len(s.Report.Skipped),
		"colliders", len(s.System.Colliders()), "dim", s.System.StateDim())
	return s, nil
}

func bodyName(i int, bc config.BodyConfig) string {
	if bc.Name != "" {
		return bc.Name
	}
	return fmt.Sprintf("body%d", i)
}

func loadMesh(bc config.BodyConfig, baseDir string) (mesh.Mesh, error) {
	switch bc.Mesh {
	case config.MeshTet:
		return mesh.SingleTet(), nil
	case config.MeshBox:
		return mesh.Box(bc.Box.NX, bc.Box.NY, bc.Box.NZ, bc.Box.Size)
	default:
		path := bc.Mesh
		if baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return mesh.Load(path)
	}
}

// place applies jitter, then translate, then the full transform.
func place(m mesh.Mesh, bc config.BodyConfig, seed int64) mesh.Mesh {
	if bc.Jitter > 0 {
		m = m.Clone()
		rng := rand.New(rand.NewSource(seed))
		for i := range m.Vertices {
			for k := 0; k < 3; k++ {
				m.Vertices[i][k] += (2*rng.Float64() - 1) * bc.Jitter
			}
		}
	}
	if len(bc.Translate) == 3 {
		m = m.Translate(mgl64.Vec3{bc.Translate[0], bc.Translate[1], bc.Translate[2]})
	}
	if len(bc.Transform) == 16 {
		t := bc.Transform
		m = m.Transform(mgl64.Mat4FromRows(
			mgl64.Vec4{t[0], t[1], t[2], t[3]},
			mgl64.Vec4{t[4], t[5], t[6], t[7]},
			mgl64.Vec4{t[8], t[9], t[10], t[11]},
			mgl64.Vec4{t[12], t[13], t[14], t[15]},
		))
	}
	return m
}

func material(cfg *config.Config, bc config.BodyConfig) fem.Material {
	return fem.Material{
		Density:           bc.Density,
		Incompressibility: bc.Incompressibility,
		Rigidity:          bc.Rigidity,
		Viscosity1:        bc.Viscosity1,
		Viscosity2:        bc.Viscosity2,
		Gravity:           cfg.Gravity,
		FloorPenalty:      cfg.FloorPenalty,
		InitialVelocity:   mgl64.Vec3{bc.InitialVelocity[0], bc.InitialVelocity[1], bc.InitialVelocity[2]},
	}
}

func buildStatic(i int, name string, m mesh.Mesh, bc config.BodyConfig, opts []collider.Option) (Static, error) {
	boundary, _, err := geom.ExtractFaces(m.Tets, m.Vertices)
	if err != nil {
		return Static{}, err
	}
	st := Static{
		Index:   i,
		Name:    name,
		Surface: mesh.Surface{Vertices: m.Vertices, Faces: boundary},
	}
	if bc.Collider {
		c, err := collider.New(m.Vertices, boundary, GroundID+1+i, false, opts...)
		if err != nil {
			return Static{}, err
		}
		st.Collider = c
	}
	return st, nil
}

// Body returns the simulated body with the given name.
func (s *Scene) Body(name string) (Body, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return Body{}, false
}

// Surfaces returns every drawable triangle mesh: simulated bodies at their
// current positions, then static bodies, then the ground.
func (s *Scene) Surfaces() []mesh.Surface {
	out := make([]mesh.Surface, 0, len(s.Bodies)+len(s.Static)+1)
	for _, b := range s.Bodies {
		out = append(out, mesh.Surface{Vertices: b.Object.Vertices(), Faces: b.Object.BoundaryFaces()})
	}
	for _, st := range s.Static {
		out = append(out, st.Surface)
	}
	if len(s.GroundSurface.Faces) > 0 {
		out = append(out, s.GroundSurface)
	}
	return out
}
