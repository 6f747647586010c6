package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

var ErrInvalid = errors.New("mesh: invalid mesh")

// Mesh is a volumetric tetrahedral mesh.
type Mesh struct {
	Vertices []mgl64.Vec3
	Tets     []geom.Tet
}

// Surface is a triangle mesh, used for rigid colliders.
type Surface struct {
	Vertices []mgl64.Vec3
	Faces    []geom.Face
}

// SingleTet returns the unit right-corner tetrahedron.
func SingleTet() Mesh {
	return Mesh{
		Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Tets:     []geom.Tet{{0, 1, 2, 3}},
	}
}

// Box returns an nx×ny×nz lattice of cubic cells with edge length size,
// with its minimum corner at the origin. Each cell is split into five
// tetrahedra; the split alternates with cell parity so that neighbouring
// cells share face diagonals and the mesh is conforming.
func Box(nx, ny, nz int, size float64) (Mesh, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return Mesh{}, fmt.Errorf("%w: box resolution %dx%dx%d", ErrInvalid, nx, ny, nz)
	}
	if !(size > 0) {
		return Mesh{}, fmt.Errorf("%w: box cell size %g", ErrInvalid, size)
	}

	idx := func(i, j, k int) int { return (i*(ny+1)+j)*(nz+1) + k }

	m := Mesh{
		Vertices: make([]mgl64.Vec3, 0, (nx+1)*(ny+1)*(nz+1)),
		Tets:     make([]geom.Tet, 0, 5*nx*ny*nz),
	}
	for i := 0; i <= nx; i++ {
		for j := 0; j <= ny; j++ {
			for k := 0; k <= nz; k++ {
				p := r3.Scale(size, r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)})
				m.Vertices = append(m.Vertices, fromR3(p))
			}
		}
	}

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				// bottom ring (y=j) then top ring (y=j+1)
				c := [8]int{
					idx(i, j, k), idx(i+1, j, k), idx(i+1, j, k+1), idx(i, j, k+1),
					idx(i, j+1, k), idx(i+1, j+1, k), idx(i+1, j+1, k+1), idx(i, j+1, k+1),
				}
				m.Tets = append(m.Tets, cellTets(c, (i+j+k)%2 == 1)...)
			}
		}
	}
	return m, nil
}

func cellTets(c [8]int, odd bool) []geom.Tet {
	if odd {
		return []geom.Tet{
			{c[0], c[1], c[2], c[5]},
			{c[0], c[2], c[3], c[7]},
			{c[0], c[4], c[5], c[7]},
			{c[2], c[5], c[6], c[7]},
			{c[0], c[2], c[5], c[7]},
		}
	}
	return []geom.Tet{
		{c[0], c[1], c[3], c[4]},
		{c[1], c[2], c[3], c[6]},
		{c[1], c[4], c[5], c[6]},
		{c[3], c[4], c[6], c[7]},
		{c[1], c[3], c[4], c[6]},
	}
}

// Ground returns a square at height y spanning [-halfExtent, halfExtent] in
// x and z, wound so that its normal points along +y.
func Ground(halfExtent, y float64) Surface {
	h := halfExtent
	return Surface{
		Vertices: []mgl64.Vec3{{-h, y, -h}, {-h, y, h}, {h, y, h}, {h, y, -h}},
		Faces:    []geom.Face{{0, 1, 2}, {0, 2, 3}},
	}
}

// Clone returns a deep copy of m.
func (m Mesh) Clone() Mesh {
	return Mesh{
		Vertices: append([]mgl64.Vec3(nil), m.Vertices...),
		Tets:     append([]geom.Tet(nil), m.Tets...),
	}
}

// Transform returns a copy of m with every vertex mapped through the
// homogeneous transform t.
func (m Mesh) Transform(t mgl64.Mat4) Mesh {
	out := m.Clone()
	for i, v := range out.Vertices {
		out.Vertices[i] = mgl64.TransformCoordinate(v, t)
	}
	return out
}

func (m Mesh) Translate(d mgl64.Vec3) Mesh {
	return m.Transform(mgl64.Translate3D(d[0], d[1], d[2]))
}

// Bounds returns the axis-aligned bounding box of the vertices.
func (m Mesh) Bounds() r3.Box {
	if len(m.Vertices) == 0 {
		return r3.Box{}
	}
	b := r3.Box{Min: toR3(m.Vertices[0]), Max: toR3(m.Vertices[0])}
	for _, v := range m.Vertices[1:] {
		p := toR3(v)
		b.Min = r3.Vec{X: min(b.Min.X, p.X), Y: min(b.Min.Y, p.Y), Z: min(b.Min.Z, p.Z)}
		b.Max = r3.Vec{X: max(b.Max.X, p.X), Y: max(b.Max.Y, p.Y), Z: max(b.Max.Z, p.Z)}
	}
	return b
}

// Volume is the sum of unsigned tetrahedron volumes.
func (m Mesh) Volume() float64 {
	total := 0.0
	for _, t := range m.Tets {
		v := geom.SignedVolume(t, m.Vertices)
		if v < 0 {
			v = -v
		}
		total += v
	}
	return total
}

func toR3(v mgl64.Vec3) r3.Vec   { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }
func fromR3(v r3.Vec) mgl64.Vec3 { return mgl64.Vec3{v.X, v.Y, v.Z} }
