package geom

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Face is an ordered triple of node indices. Winding is counter-clockwise
// when seen from outside the owning tetrahedron.
type Face [3]int

// Tet is the four node indices of a tetrahedron.
type Tet [4]int

// key is the winding-independent identity of a face.
type key [3]int

func (f Face) key() key {
	a, b, c := f[0], f[1], f[2]
	if a > b {
		a, b = b, a
	}
	if b > c {
		b, c = c, b
	}
	if a > b {
		a, b = b, a
	}
	return key{a, b, c}
}

// Reversed returns the face with opposite winding.
func (f Face) Reversed() Face {
	return Face{f[2], f[1], f[0]}
}

// Contains reports whether node is one of the face's vertices.
func (f Face) Contains(node int) bool {
	return f[0] == node || f[1] == node || f[2] == node
}

// FaceNormal returns the unnormalized normal (v1-v0)x(v2-v0) of the face.
func FaceNormal(f Face, verts []mgl64.Vec3) mgl64.Vec3 {
	v0 := verts[f[0]]
	e1 := verts[f[1]].Sub(v0)
	e2 := verts[f[2]].Sub(v0)
	return e1.Cross(e2)
}

// TetFaces returns the four faces of tet, face i omitting vertex i, each
// wound so that its normal points away from the omitted vertex.
func TetFaces(tet Tet, verts []mgl64.Vec3) [4]Face {
	faces := [4]Face{
		{tet[1], tet[2], tet[3]},
		{tet[0], tet[2], tet[3]},
		{tet[0], tet[1], tet[3]},
		{tet[0], tet[1], tet[2]},
	}

	for i := range faces {
		n := FaceNormal(faces[i], verts)
		toOpposite := verts[tet[i]].Sub(verts[faces[i][0]])
		if n.Dot(toOpposite) >= 0 {
			faces[i] = faces[i].Reversed()
		}
	}

	return faces
}

// ExtractFaces returns the boundary surface of a tetrahedral mesh together
// with the four outward faces of every tetrahedron.
//
// A face that appears in two tetrahedra is interior and cancels out; a face
// that appears once is on the boundary. Boundary faces are returned in the
// order they were first seen, so the result is deterministic.
func ExtractFaces(tets []Tet, verts []mgl64.Vec3) ([]Face, [][4]Face, error) {
	type entry struct {
		face  Face
		count int
	}

	seen := make(map[key]*entry, len(tets)*2)
	ordered := make([]*entry, 0, len(tets)*2)
	perTet := make([][4]Face, len(tets))

	for ti, tet := range tets {
		if err := checkTet(ti, tet, len(verts)); err != nil {
			return nil, nil, err
		}

		perTet[ti] = TetFaces(tet, verts)
		for _, f := range perTet[ti] {
			k := f.key()
			e, ok := seen[k]
			if !ok {
				e = &entry{face: f, count: 1}
				seen[k] = e
				ordered = append(ordered, e)
				continue
			}
			e.count++
			if e.count > 2 {
				return nil, nil, &MeshTopologyError{Tet: ti, Face: f, Count: e.count, Reason: "non-manifold face"}
			}
		}
	}

	out := make([]Face, 0, len(ordered))
	for _, e := range ordered {
		if e.count == 1 {
			out = append(out, e.face)
		}
	}

	return out, perTet, nil
}

func checkTet(ti int, tet Tet, numVerts int) error {
	for i, v := range tet {
		if v < 0 || v >= numVerts {
			return &MeshTopologyError{Tet: ti, Reason: "node index out of range"}
		}
		for j := i + 1; j < 4; j++ {
			if tet[j] == v {
				return &MeshTopologyError{Tet: ti, Reason: "repeated node index"}
			}
		}
	}
	return nil
}

// Centroid returns the mean of the tetrahedron's four vertices.
func Centroid(tet Tet, verts []mgl64.Vec3) mgl64.Vec3 {
	sum := verts[tet[0]].Add(verts[tet[1]]).Add(verts[tet[2]]).Add(verts[tet[3]])
	return sum.Mul(0.25)
}

// SignedVolume returns the scalar triple product of the edges from vertex 0
// divided by six.
func SignedVolume(tet Tet, verts []mgl64.Vec3) float64 {
	v0 := verts[tet[0]]
	a := verts[tet[1]].Sub(v0)
	b := verts[tet[2]].Sub(v0)
	c := verts[tet[3]].Sub(v0)
	return a.Dot(b.Cross(c)) / 6.0
}
