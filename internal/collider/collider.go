// Package collider implements static triangle-mesh obstacles that answer
// point contact queries with a penalty force.
//
// A Collider is shared: the same instance may be registered with the system
// and with every body that should touch it. It is never deformed by the
// simulation, only replaced wholesale through [Collider.SetVertices].
package collider

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/geom"
)

const (
	DefaultGain      = 8e7
	DefaultTolerance = 0.005
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl64.Vec3
}

// Contains reports whether p lies inside the box, boundary included.
func (b AABB) Contains(p mgl64.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

type Collider struct {
	id        int
	flat      bool
	gain      float64
	tolerance float64

	vertices []mgl64.Vec3
	faces    []geom.Face
	normals  []mgl64.Vec3
	bounds   AABB
}

type Option func(*Collider)

// WithGain sets the penalty stiffness: force magnitude per unit penetration.
func WithGain(gain float64) Option {
	return func(c *Collider) { c.gain = gain }
}

// WithTolerance sets how far behind a face a point may be and still count as
// touching it.
func WithTolerance(tol float64) Option {
	return func(c *Collider) { c.tolerance = tol }
}

// New builds a collider from a triangle soup. Vertices and faces are copied.
// A flat collider (a ground plane) skips the bounding-box rejection, since
// points that sank below it are outside its zero-thickness box.
func New(vertices []mgl64.Vec3, faces []geom.Face, id int, flat bool, opts ...Option) (*Collider, error) {
	c := &Collider{
		id:        id,
		flat:      flat,
		gain:      DefaultGain,
		tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.gain < 0 || math.IsNaN(c.gain) {
		return nil, fmt.Errorf("collider %d: gain must be non-negative, got %g", id, c.gain)
	}
	if c.tolerance < 0 || math.IsNaN(c.tolerance) {
		return nil, fmt.Errorf("collider %d: tolerance must be non-negative, got %g", id, c.tolerance)
	}

	for i, f := range faces {
		for _, v := range f {
			if v < 0 || v >= len(vertices) {
				return nil, fmt.Errorf("collider %d: face %d references vertex %d of %d", id, i, v, len(vertices))
			}
		}
	}

	c.faces = append([]geom.Face(nil), faces...)
	c.rebuild(vertices)
	return c, nil
}

// SetVertices replaces the collider surface. The bounding box and face
// normals are recomputed from scratch. The vertex count must match the one
// the collider was built with.
func (c *Collider) SetVertices(vertices []mgl64.Vec3) error {
	if len(vertices) != len(c.vertices) {
		return fmt.Errorf("collider %d: got %d vertices, want %d", c.id, len(vertices), len(c.vertices))
	}
	c.rebuild(vertices)
	return nil
}

func (c *Collider) rebuild(vertices []mgl64.Vec3) {
	c.vertices = append(c.vertices[:0], vertices...)

	c.bounds = AABB{
		Min: mgl64.Vec3{math.MaxFloat64, math.MaxFloat64, math.MaxFloat64},
		Max: mgl64.Vec3{-math.MaxFloat64, -math.MaxFloat64, -math.MaxFloat64},
	}
	for _, v := range c.vertices {
		for k := 0; k < 3; k++ {
			c.bounds.Min[k] = math.Min(c.bounds.Min[k], v[k])
			c.bounds.Max[k] = math.Max(c.bounds.Max[k], v[k])
		}
	}

	c.normals = c.normals[:0]
	for _, f := range c.faces {
		n := geom.FaceNormal(f, c.vertices)
		if l := n.Len(); l > 0 {
			n = n.Mul(1 / l)
		}
		c.normals = append(c.normals, n)
	}
}

// Resolve returns the penalty force acting on point, or the zero vector when
// the point touches no face. The first face that contains the point wins.
func (c *Collider) Resolve(point mgl64.Vec3) mgl64.Vec3 {
	if !c.flat && !c.bounds.Contains(point) {
		return mgl64.Vec3{}
	}

	for i, f := range c.faces {
		n := c.normals[i]
		a := c.vertices[f[0]]

		d := point.Sub(a).Dot(n)
		if d > 0 || -d > c.tolerance {
			continue
		}

		u, v, ok := barycentric(point, a, c.vertices[f[1]], c.vertices[f[2]])
		if !ok || u < 0 || v < 0 || u+v > 1 {
			continue
		}

		return n.Mul(c.gain * math.Abs(d))
	}

	return mgl64.Vec3{}
}

// barycentric projects p onto the plane of triangle abc and returns the
// weights of c and b. ok is false for a zero-area triangle.
func barycentric(p, a, b, c mgl64.Vec3) (u, v float64, ok bool) {
	v0 := c.Sub(a)
	v1 := b.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if denom == 0 {
		return 0, 0, false
	}

	u = (d11*d20 - d01*d21) / denom
	v = (d00*d21 - d01*d20) / denom
	return u, v, true
}

func (c *Collider) ID() int                 { return c.id }
func (c *Collider) Flat() bool              { return c.flat }
func (c *Collider) Bounds() AABB            { return c.bounds }
func (c *Collider) FaceCount() int          { return len(c.faces) }
func (c *Collider) Gain() float64           { return c.gain }
func (c *Collider) Tolerance() float64      { return c.tolerance }
func (c *Collider) Faces() []geom.Face      { return c.faces }
func (c *Collider) Normal(i int) mgl64.Vec3 { return c.normals[i] }
