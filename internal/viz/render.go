package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/mesh"
)

// Camera orbits a target point. Yaw turns about +y, Pitch tilts toward
// the viewer.
type Camera struct {
	Target   mgl64.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	Zoom     float64
	FOV      float64
	Near     float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 3, Pitch: 0.35, Yaw: 0.6, Zoom: 1, FOV: math.Pi / 4, Near: 0.05}
}

func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -1.5, 1.5)
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// Frame points the camera at the center of the given surfaces and backs
// off far enough to see all of them.
func (c *Camera) Frame(surfaces []mesh.Surface) {
	var lo, hi mgl64.Vec3
	first := true
	for _, s := range surfaces {
		for _, v := range s.Vertices {
			if first {
				lo, hi, first = v, v, false
				continue
			}
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], v[k])
				hi[k] = math.Max(hi[k], v[k])
			}
		}
	}
	if first {
		return
	}
	c.Target = lo.Add(hi).Mul(0.5)
	radius := hi.Sub(lo).Len() / 2
	c.Distance = math.Max(radius/math.Tan(c.FOV/2), 1)
}

// View is the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	eye := mgl64.Vec3{
		math.Cos(c.Pitch) * math.Sin(c.Yaw),
		math.Sin(c.Pitch),
		math.Cos(c.Pitch) * math.Cos(c.Yaw),
	}.Mul(c.Distance / c.Zoom).Add(c.Target)
	return mgl64.LookAtV(eye, c.Target, mgl64.Vec3{0, 1, 0})
}

// Project maps p to pixel coordinates on a sw x sh canvas. The depth is the
// distance along the view direction; ok is false behind the near plane.
func (c *Camera) Project(view mgl64.Mat4, p mgl64.Vec3, sw, sh int) (x, y int, depth float64, ok bool) {
	q := mgl64.TransformCoordinate(p, view)
	depth = -q.Z()
	if depth < c.Near {
		return 0, 0, depth, false
	}
	// Braille dots are close to square; no aspect correction.
	f := float64(min(sw, sh)) / 2 / math.Tan(c.FOV/2)
	x = int(q.X()/depth*f) + sw/2
	y = int(-q.Y()/depth*f) + sh/2
	return x, y, depth, true
}

type Edge struct {
	Start, End mgl64.Vec3
}

// Wireframe is a set of unique edges.
type Wireframe struct {
	Edges []Edge
}

type edgeKey struct{ a, b int }

// AddSurface adds the triangle edges of s, each shared edge once.
func (w *Wireframe) AddSurface(s mesh.Surface) {
	seen := make(map[edgeKey]bool, len(s.Faces)*3/2)
	for _, f := range s.Faces {
		for k := 0; k < 3; k++ {
			a, b := f[k], f[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			if seen[edgeKey{a, b}] {
				continue
			}
			seen[edgeKey{a, b}] = true
			w.Edges = append(w.Edges, Edge{s.Vertices[a], s.Vertices[b]})
		}
	}
}

func (w *Wireframe) Clear() { w.Edges = w.Edges[:0] }

// WireframeOf builds one wireframe from all surfaces.
func WireframeOf(surfaces []mesh.Surface) *Wireframe {
	w := &Wireframe{}
	for _, s := range surfaces {
		w.AddSurface(s)
	}
	return w
}

// Segment is an edge projected to pixel coordinates.
type Segment struct {
	X1, Y1, X2, Y2 int
	Depth          float64
}

// ProjectEdges projects every edge of w onto a sw x sh pixel plane and
// orders the result far to near. Edges with an endpoint behind the camera
// are dropped.
func ProjectEdges(w *Wireframe, cam *Camera, sw, sh int) []Segment {
	view := cam.View()
	out := make([]Segment, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, ok1 := cam.Project(view, e.Start, sw, sh)
		x2, y2, d2, ok2 := cam.Project(view, e.End, sw, sh)
		if ok1 && ok2 {
			out = append(out, Segment{x1, y1, x2, y2, (d1 + d2) / 2})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth > out[j].Depth })
	return out
}

// Render draws the wireframe onto the canvas.
func Render(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	pw, ph := c.Pixels()
	for _, s := range ProjectEdges(w, cam, pw, ph) {
		c.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
	}
}
