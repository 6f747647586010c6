package scene

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/femsim/internal/config"
	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/fem"
	"github.com/san-kum/femsim/internal/integrators"
	"github.com/san-kum/femsim/internal/mesh"
	"github.com/san-kum/femsim/internal/sim"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestBuildDrop(t *testing.T) {
	s, err := Build(config.GetPreset("drop"), quiet)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(s.Bodies) != 1 || s.Ground == nil {
		t.Fatalf("bodies = %d, ground = %v", len(s.Bodies), s.Ground)
	}
	obj := s.Bodies[0].Object
	if obj.NumTets() != 40 || obj.NumNodes() != 27 {
		t.Errorf("box mesh: %d tets, %d nodes", obj.NumTets(), obj.NumNodes())
	}
	if got := obj.Colliders(); len(got) != 1 || got[0].ID() != GroundID {
		t.Errorf("colliders = %v, want only the ground", got)
	}
	if s.System.StateDim() != obj.StateDim() {
		t.Errorf("system dim = %d, want %d", s.System.StateDim(), obj.StateDim())
	}

	c := obj.Centroid()
	if math.Abs(c[0]) > 1e-12 || math.Abs(c[1]-2.25) > 1e-12 || math.Abs(c[2]) > 1e-12 {
		t.Errorf("centroid = %v, want (0, 2.25, 0)", c)
	}
	if want := 1200 * 0.125; math.Abs(obj.TotalMass()-want) > 1e-9 {
		t.Errorf("mass = %v, want %v", obj.TotalMass(), want)
	}
	if len(s.Report.Built) != 1 || len(s.Report.Skipped) != 0 {
		t.Errorf("report = %+v", s.Report)
	}
	if got := len(s.Surfaces()); got != 2 {
		t.Errorf("surfaces = %d, want body + ground", got)
	}
}

func TestBuildMaterial(t *testing.T) {
	cfg := config.GetPreset("bounce")
	s, err := Build(cfg, quiet)
	if err != nil {
		t.Fatal(err)
	}
	if s.Ground != nil {
		t.Error("bounce has no ground")
	}
	m := s.Bodies[0].Object.Material()
	if m.FloorPenalty != 40000 || m.Gravity != cfg.Gravity || m.InitialVelocity[1] != 3 {
		t.Errorf("material = %+v", m)
	}
	if v := s.Bodies[0].Object.Node(0).Velocity; v[1] != 3 {
		t.Errorf("initial velocity = %v", v)
	}
}

func TestBuildStack(t *testing.T) {
	s, err := Build(config.GetPreset("stack"), quiet)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Static) != 1 || s.Static[0].Collider == nil {
		t.Fatalf("static = %+v", s.Static)
	}
	top, ok := s.Body("top")
	if !ok {
		t.Fatal("top body missing")
	}
	ids := map[int]bool{}
	for _, c := range top.Object.Colliders() {
		ids[c.ID()] = true
	}
	if !ids[GroundID] || !ids[s.Static[0].Collider.ID()] {
		t.Errorf("top colliders = %v", ids)
	}
	if _, ok := s.Body("base"); ok {
		t.Error("static body reported as simulated")
	}
}

func TestBuildBodyColliders(t *testing.T) {
	cfg := config.GetPreset("drop")
	a := config.DefaultBody()
	a.Name, a.Collider, a.Translate = "a", true, []float64{0, 1, 0}
	b := config.DefaultBody()
	b.Name, b.Collider, b.Translate = "b", true, []float64{0, 3, 0}
	cfg.Bodies = []config.BodyConfig{a, b}

	s, err := Build(cfg, quiet)
	if err != nil {
		t.Fatal(err)
	}
	for i, body := range s.Bodies {
		other := s.Bodies[1-i]
		found := false
		for _, c := range body.Object.Colliders() {
			if c == fem.Collider(body.Collider) {
				t.Errorf("%s registered its own collider", body.Name)
			}
			if c == fem.Collider(other.Collider) {
				found = true
			}
		}
		if !found {
			t.Errorf("%s misses %s's collider", body.Name, other.Name)
		}
	}
}

func TestBuildSkipsBadBodies(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	cfg := config.GetPreset("drop")
	missing := config.DefaultBody()
	missing.Name, missing.Mesh = "missing", "does-not-exist.mesh"
	flat := config.DefaultBody()
	flat.Name = "flat"
	flat.Transform = []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	cfg.Bodies = append(cfg.Bodies, missing, flat)

	s, err := Build(cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Bodies) != 1 || len(s.Report.Skipped) != 2 {
		t.Fatalf("bodies = %d, report = %+v", len(s.Bodies), s.Report)
	}
	if sk := s.Report.Skipped[0]; sk.Name != "missing" || !errors.Is(sk.Err, os.ErrNotExist) {
		t.Errorf("skipped[0] = %+v", sk)
	}
	if sk := s.Report.Skipped[1]; sk.Name != "flat" || !errors.Is(sk.Err, dynamo.ErrDegenerate) {
		t.Errorf("skipped[1] = %+v", sk)
	}
	if !strings.Contains(logs.String(), "skipping body") || !strings.Contains(logs.String(), "body=flat") {
		t.Errorf("log output = %q", logs.String())
	}
}

func TestBuildNoBodies(t *testing.T) {
	cfg := config.GetPreset("drop")
	cfg.Bodies[0].Mesh = "nope.mesh"
	if _, err := Build(cfg, quiet); !errors.Is(err, ErrNoBodies) {
		t.Errorf("error = %v, want ErrNoBodies", err)
	}
}

func TestBuildInvalidConfig(t *testing.T) {
	cfg := config.GetPreset("drop")
	cfg.Timestep = -1
	_, err := Build(cfg, quiet)
	var fe *config.FieldError
	if !errors.As(err, &fe) {
		t.Errorf("error = %v, want *config.FieldError", err)
	}
}

func TestBuildMeshFile(t *testing.T) {
	dir := t.TempDir()
	if err := mesh.Save(filepath.Join(dir, "tet.mesh"), mesh.SingleTet()); err != nil {
		t.Fatal(err)
	}
	cfg := config.GetPreset("drop")
	cfg.Bodies[0].Mesh = "tet.mesh"

	s, err := Build(cfg, quiet, WithBaseDir(dir))
	if err != nil {
		t.Fatal(err)
	}
	if s.Bodies[0].Object.NumTets() != 1 {
		t.Errorf("tets = %d", s.Bodies[0].Object.NumTets())
	}
}

func TestJitterIsSeeded(t *testing.T) {
	build := func(seed int64) *fem.Object {
		cfg := config.GetPreset("drop")
		cfg.Seed = seed
		cfg.Bodies[0].Jitter = 0.01
		s, err := Build(cfg, quiet)
		if err != nil {
			t.Fatal(err)
		}
		return s.Bodies[0].Object
	}

	a, b, c := build(7), build(7), build(8)
	if a.Node(5).Position != b.Node(5).Position {
		t.Error("same seed gave different positions")
	}
	if a.Node(5).Position == c.Node(5).Position {
		t.Error("different seeds gave the same positions")
	}
}

func TestDropFreeFall(t *testing.T) {
	cfg := config.GetPreset("drop")
	s, err := Build(cfg, quiet)
	if err != nil {
		t.Fatal(err)
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		t.Fatal(err)
	}
	simulator, err := sim.New(s.System, integ, cfg.Timestep, quiet)
	if err != nil {
		t.Fatal(err)
	}

	obj := s.Bodies[0].Object
	y0 := obj.Centroid()[1]
	if _, err := simulator.Run(context.Background(), sim.Config{Duration: 0.3, ValidateState: true}); err != nil {
		t.Fatal(err)
	}

	tEnd := simulator.Time()
	want := y0 - 0.5*cfg.Gravity*tEnd*tEnd
	if got := obj.Centroid()[1]; math.Abs(got-want) > 1e-6 {
		t.Errorf("centroid y = %v, want %v", got, want)
	}
}
