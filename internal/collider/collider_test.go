package collider

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/geom"
)

func ground(t *testing.T, opts ...Option) *Collider {
	t.Helper()
	verts := []mgl64.Vec3{{-5, 0, -5}, {-5, 0, 5}, {5, 0, 5}, {5, 0, -5}}
	faces := []geom.Face{{0, 1, 2}, {0, 2, 3}}
	c, err := New(verts, faces, 0, true, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func unitTriangle(t *testing.T, flat bool) *Collider {
	t.Helper()
	verts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	c, err := New(verts, []geom.Face{{0, 1, 2}}, 1, flat)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestResolve_GroundPenetration(t *testing.T) {
	const gain = 1e6
	c := ground(t, WithGain(gain), WithTolerance(0.005))

	f := c.Resolve(mgl64.Vec3{0, -0.001, 0})
	want := mgl64.Vec3{0, gain * 0.001, 0}
	if !f.ApproxEqualThreshold(want, 1e-6) {
		t.Errorf("Resolve = %v, want %v", f, want)
	}
}

func TestResolve_DefaultGain(t *testing.T) {
	c := ground(t)
	f := c.Resolve(mgl64.Vec3{1, -0.002, 1})
	if math.Abs(f.Y()-DefaultGain*0.002) > 1e-3 {
		t.Errorf("force y = %v, want %v", f.Y(), DefaultGain*0.002)
	}
	if f.X() != 0 || f.Z() != 0 {
		t.Errorf("force has tangential component: %v", f)
	}
}

func TestResolve_ForceColinearAndProportional(t *testing.T) {
	c := unitTriangle(t, true)
	n := c.Normal(0)

	f1 := c.Resolve(mgl64.Vec3{0.2, 0.2, -0.001})
	f2 := c.Resolve(mgl64.Vec3{0.2, 0.2, -0.002})

	if f1.Len() == 0 || f2.Len() == 0 {
		t.Fatalf("expected contact, got %v and %v", f1, f2)
	}
	if f1.Normalize().Sub(n).Len() > 1e-12 {
		t.Errorf("force %v not along normal %v", f1, n)
	}
	if ratio := f2.Len() / f1.Len(); math.Abs(ratio-2) > 1e-9 {
		t.Errorf("force ratio = %v, want 2", ratio)
	}
}

func TestResolve_NoContact(t *testing.T) {
	c := unitTriangle(t, true)

	tests := []struct {
		name  string
		point mgl64.Vec3
	}{
		{"outside footprint", mgl64.Vec3{1, 1, -0.001}},
		{"negative barycentric", mgl64.Vec3{-0.1, 0.2, -0.001}},
		{"in front of face", mgl64.Vec3{0.2, 0.2, 0.001}},
		{"beyond tolerance", mgl64.Vec3{0.2, 0.2, -0.01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f := c.Resolve(tt.point); f != (mgl64.Vec3{}) {
				t.Errorf("Resolve(%v) = %v, want zero", tt.point, f)
			}
		})
	}
}

func TestResolve_BoundingBoxCulling(t *testing.T) {
	flat := unitTriangle(t, true)
	solid := unitTriangle(t, false)
	p := mgl64.Vec3{0.2, 0.2, -0.001}

	if flat.Resolve(p) == (mgl64.Vec3{}) {
		t.Error("flat collider should test every face")
	}
	if solid.Resolve(p) != (mgl64.Vec3{}) {
		t.Error("non-flat collider should reject points outside its bounding box")
	}
}

func TestResolve_ClosedSurface(t *testing.T) {
	verts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	faces := geom.TetFaces(geom.Tet{0, 1, 2, 3}, verts)
	c, err := New(verts, faces[:], 2, false, WithGain(100))
	if err != nil {
		t.Fatal(err)
	}

	// just inside the bottom face, whose outward normal is -z
	f := c.Resolve(mgl64.Vec3{0.2, 0.2, 0.001})
	if !f.ApproxEqualThreshold(mgl64.Vec3{0, 0, -0.1}, 1e-12) {
		t.Errorf("Resolve = %v, want (0, 0, -0.1)", f)
	}

	if f := c.Resolve(mgl64.Vec3{2, 2, 2}); f != (mgl64.Vec3{}) {
		t.Errorf("far point got force %v", f)
	}
}

func TestResolve_EmptyCollider(t *testing.T) {
	for _, flat := range []bool{true, false} {
		c, err := New(nil, nil, 3, flat)
		if err != nil {
			t.Fatal(err)
		}
		if f := c.Resolve(mgl64.Vec3{}); f != (mgl64.Vec3{}) {
			t.Errorf("flat=%v: empty collider returned %v", flat, f)
		}
	}
}

func TestSetVertices(t *testing.T) {
	c := ground(t, WithGain(10))

	raised := []mgl64.Vec3{{-5, 1, -5}, {-5, 1, 5}, {5, 1, 5}, {5, 1, -5}}
	if err := c.SetVertices(raised); err != nil {
		t.Fatalf("SetVertices: %v", err)
	}
	if c.Bounds().Min.Y() != 1 || c.Bounds().Max.Y() != 1 {
		t.Errorf("bounds not recomputed: %+v", c.Bounds())
	}
	if f := c.Resolve(mgl64.Vec3{0, 0.999, 0}); math.Abs(f.Y()-0.01) > 1e-9 {
		t.Errorf("force after move = %v, want y=0.01", f)
	}
	if f := c.Resolve(mgl64.Vec3{0, -0.001, 0}); f != (mgl64.Vec3{}) {
		t.Errorf("old surface still collides: %v", f)
	}

	// flipping the surface upside down flips the normals
	flipped := []mgl64.Vec3{{-5, 1, -5}, {5, 1, -5}, {5, 1, 5}, {-5, 1, 5}}
	if err := c.SetVertices(flipped); err != nil {
		t.Fatal(err)
	}
	if n := c.Normal(0); n.Y() > 0 {
		t.Errorf("normal not recomputed: %v", n)
	}

	if err := c.SetVertices(raised[:3]); err == nil {
		t.Error("expected error for vertex count mismatch")
	}
}

func TestNew_Validation(t *testing.T) {
	verts := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

	if _, err := New(verts, []geom.Face{{0, 1, 3}}, 0, false); err == nil {
		t.Error("expected error for out-of-range face index")
	}
	if _, err := New(verts, []geom.Face{{0, 1, 2}}, 0, false, WithGain(-1)); err == nil {
		t.Error("expected error for negative gain")
	}
	if _, err := New(verts, []geom.Face{{0, 1, 2}}, 0, false, WithTolerance(-1)); err == nil {
		t.Error("expected error for negative tolerance")
	}

	c, err := New(verts, []geom.Face{{0, 1, 2}}, 7, false, WithGain(5), WithTolerance(0.1))
	if err != nil {
		t.Fatal(err)
	}
	if c.ID() != 7 || c.Gain() != 5 || c.Tolerance() != 0.1 || c.FaceCount() != 1 || c.Flat() {
		t.Errorf("unexpected collider configuration: id=%d gain=%v tol=%v faces=%d flat=%v",
			c.ID(), c.Gain(), c.Tolerance(), c.FaceCount(), c.Flat())
	}
}
