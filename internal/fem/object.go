package fem

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/geom"
	"gonum.org/v1/gonum/mat"
)

// NodeStateDim is the number of state entries per node: position then velocity.
const NodeStateDim = 6

// degenerateRatio bounds |volume| / maxEdge³ below which a tetrahedron is
// treated as flat. A regular tetrahedron sits near 0.118.
const degenerateRatio = 1e-10

// Collider answers point contact queries with a penalty force.
type Collider interface {
	Resolve(point mgl64.Vec3) mgl64.Vec3
	ID() int
}

type Node struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Mass     float64
	InvMass  mgl64.Mat3
	Force    mgl64.Vec3
}

type Tetrahedron struct {
	Vertices [4]int
	Faces    [4]geom.Face
	// Beta is the inverse of the homogeneous rest-position matrix. Immutable.
	Beta mgl64.Mat4
	// Normals[i] is the area-weighted outward normal of the faces touching vertex i.
	Normals [4]mgl64.Vec3
	Volume  float64

	betaLin mgl64.Mat4x3
}

// Object is one deformable tetrahedral body.
type Object struct {
	name      string
	material  Material
	nodes     []Node
	tets      []Tetrahedron
	boundary  []geom.Face
	surface   []int
	colliders []Collider
	self      Collider
}

// FromMesh extracts the boundary and per-tetrahedron faces of the mesh and
// builds an Object from them.
func FromMesh(name string, verts []mgl64.Vec3, tets []geom.Tet, m Material) (*Object, error) {
	boundary, tetFaces, err := geom.ExtractFaces(tets, verts)
	if err != nil {
		return nil, err
	}
	return NewObject(name, verts, tets, tetFaces, boundary, m)
}

// NewObject builds a body from rest positions and oriented tetrahedron faces.
// Masses are lumped from tetrahedron volumes and beta is precomputed for
// every element. Construction fails on a degenerate element or a node that
// no element touches.
func NewObject(name string, verts []mgl64.Vec3, tets []geom.Tet, tetFaces [][4]geom.Face, boundary []geom.Face, m Material) (*Object, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("object %q: %w", name, err)
	}
	if len(tetFaces) != len(tets) {
		return nil, fmt.Errorf("object %q: %w: %d tetrahedra but %d face sets",
			name, dynamo.ErrDimensionMismatch, len(tets), len(tetFaces))
	}

	o := &Object{
		name:     name,
		material: m,
		nodes:    make([]Node, len(verts)),
		tets:     make([]Tetrahedron, 0, len(tets)),
		boundary: append([]geom.Face(nil), boundary...),
	}

	for i, v := range verts {
		o.nodes[i] = Node{Position: v, Velocity: m.InitialVelocity}
	}

	for ti, tet := range tets {
		for _, v := range tet {
			if v < 0 || v >= len(verts) {
				return nil, &geom.MeshTopologyError{Tet: ti, Reason: "node index out of range"}
			}
		}

		t, err := o.newTetrahedron(ti, tet, tetFaces[ti])
		if err != nil {
			return nil, err
		}

		share := m.Density * t.Volume / 4
		for _, v := range tet {
			o.nodes[v].Mass += share
		}
		o.tets = append(o.tets, t)
	}

	for i := range o.nodes {
		mass := o.nodes[i].Mass
		if !(mass > 0) {
			return nil, &DegenerateMassError{Node: i, Mass: mass}
		}
		o.nodes[i].InvMass = mgl64.Ident3().Mul(1 / mass)
	}

	seen := make(map[int]bool)
	for _, f := range o.boundary {
		for _, v := range f {
			if v < 0 || v >= len(verts) {
				return nil, fmt.Errorf("object %q: boundary face %v out of range", name, f)
			}
			if !seen[v] {
				seen[v] = true
				o.surface = append(o.surface, v)
			}
		}
	}

	return o, nil
}

func (o *Object) newTetrahedron(ti int, tet geom.Tet, faces [4]geom.Face) (Tetrahedron, error) {
	var p [4]mgl64.Vec3
	for i, v := range tet {
		p[i] = o.nodes[v].Position
	}

	a, b, c := p[1].Sub(p[0]), p[2].Sub(p[0]), p[3].Sub(p[0])
	volume := math.Abs(a.Dot(b.Cross(c))) / 6
	maxEdge := 0.0
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			maxEdge = math.Max(maxEdge, p[j].Sub(p[i]).Len())
		}
	}
	if maxEdge == 0 || volume <= degenerateRatio*maxEdge*maxEdge*maxEdge {
		return Tetrahedron{}, &DegenerateElementError{Tet: ti, Volume: volume}
	}

	beta, err := restInverse(p)
	if err != nil {
		return Tetrahedron{}, &DegenerateElementError{Tet: ti, Volume: volume, Cause: err}
	}

	t := Tetrahedron{
		Vertices: tet,
		Faces:    faces,
		Beta:     beta,
		Volume:   volume,
		betaLin:  mgl64.Mat4x3FromCols(beta.Col(0), beta.Col(1), beta.Col(2)),
	}

	for i, v := range tet {
		var n mgl64.Vec3
		for _, f := range faces {
			if f.Contains(v) {
				e1 := o.nodes[f[1]].Position.Sub(o.nodes[f[0]].Position)
				e2 := o.nodes[f[2]].Position.Sub(o.nodes[f[0]].Position)
				n = n.Add(e1.Cross(e2).Mul(0.5))
			}
		}
		t.Normals[i] = n
	}

	return t, nil
}

// restInverse inverts the matrix whose columns are the homogeneous rest
// positions (x, y, z, 1) of the four vertices.
func restInverse(p [4]mgl64.Vec3) (mgl64.Mat4, error) {
	a := mat.NewDense(4, 4, []float64{
		p[0][0], p[1][0], p[2][0], p[3][0],
		p[0][1], p[1][1], p[2][1], p[3][1],
		p[0][2], p[1][2], p[2][2], p[3][2],
		1, 1, 1, 1,
	})

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return mgl64.Mat4{}, err
	}

	var beta mgl64.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			beta.Set(r, c, inv.At(r, c))
		}
	}
	return beta, nil
}

func positions(nodes []Node) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(nodes))
	for i := range nodes {
		out[i] = nodes[i].Position
	}
	return out
}

func (o *Object) Name() string               { return o.name }
func (o *Object) Material() Material         { return o.material }
func (o *Object) NumNodes() int              { return len(o.nodes) }
func (o *Object) NumTets() int               { return len(o.tets) }
func (o *Object) StateDim() int              { return len(o.nodes) * NodeStateDim }
func (o *Object) Node(i int) Node            { return o.nodes[i] }
func (o *Object) Tet(i int) Tetrahedron      { return o.tets[i] }
func (o *Object) BoundaryFaces() []geom.Face { return o.boundary }
func (o *Object) SurfaceNodes() []int        { return o.surface }
func (o *Object) Colliders() []Collider      { return o.colliders }
func (o *Object) SelfCollider() Collider     { return o.self }

// Nodes returns a copy of every node.
func (o *Object) Nodes() []Node {
	out := make([]Node, len(o.nodes))
	copy(out, o.nodes)
	return out
}

// Vertices returns the current node positions, for renderers and for
// re-vertexing a collider built from this body's surface.
func (o *Object) Vertices() []mgl64.Vec3 {
	return positions(o.nodes)
}

// RegisterCollider adds c to the colliders queried for this body's boundary
// nodes. Registering the same collider twice, or the body's own surface
// collider, is a no-op.
func (o *Object) RegisterCollider(c Collider) {
	if c == nil || c == o.self {
		return
	}
	for _, existing := range o.colliders {
		if existing == c {
			return
		}
	}
	o.colliders = append(o.colliders, c)
}

// SetSelfCollider marks c as the collider built from this body's own
// surface. It is never queried for this body's nodes.
func (o *Object) SetSelfCollider(c Collider) {
	o.self = c
	for i, existing := range o.colliders {
		if existing == c {
			o.colliders = append(o.colliders[:i], o.colliders[i+1:]...)
			break
		}
	}
}

func (o *Object) State() dynamo.State {
	x := make(dynamo.State, o.StateDim())
	o.stateInto(x)
	return x
}

func (o *Object) stateInto(x dynamo.State) {
	idx := 0
	for i := range o.nodes {
		n := &o.nodes[i]
		copy(x[idx:idx+3], n.Position[:])
		copy(x[idx+3:idx+6], n.Velocity[:])
		idx += NodeStateDim
	}
}

func (o *Object) SetState(x dynamo.State) error {
	if err := x.CheckDim(o.StateDim()); err != nil {
		return fmt.Errorf("object %q: %w", o.name, err)
	}
	o.setState(x)
	return nil
}

func (o *Object) setState(x dynamo.State) {
	idx := 0
	for i := range o.nodes {
		n := &o.nodes[i]
		copy(n.Position[:], x[idx:idx+3])
		copy(n.Velocity[:], x[idx+3:idx+6])
		idx += NodeStateDim
	}
}

// Derive evaluates the time derivative at the installed state.
func (o *Object) Derive() dynamo.State {
	dx := make(dynamo.State, o.StateDim())
	o.deriveInto(dx)
	return dx
}

func (o *Object) deriveInto(dx dynamo.State) {
	o.accumulateForces()

	gravity := mgl64.Vec3{0, o.material.Gravity, 0}
	idx := 0
	for i := range o.nodes {
		n := &o.nodes[i]
		acc := n.InvMass.Mul3x1(n.Force).Sub(gravity)
		copy(dx[idx:idx+3], n.Velocity[:])
		copy(dx[idx+3:idx+6], acc[:])
		idx += NodeStateDim
	}
}

func (o *Object) accumulateForces() {
	k := o.material.FloorPenalty
	for i := range o.nodes {
		n := &o.nodes[i]
		n.Force = mgl64.Vec3{}
		if k > 0 && n.Position[1] < 0 {
			n.Force[1] -= k * n.Position[1]
		}
	}

	for ti := range o.tets {
		o.addElementForces(&o.tets[ti])
	}

	if len(o.colliders) == 0 {
		return
	}
	for _, v := range o.surface {
		n := &o.nodes[v]
		for _, c := range o.colliders {
			n.Force = n.Force.Add(c.Resolve(n.Position))
		}
	}
}

func (o *Object) addElementForces(t *Tetrahedron) {
	var p, v [4]mgl64.Vec3
	for i, idx := range t.Vertices {
		p[i] = o.nodes[idx].Position
		v[i] = o.nodes[idx].Velocity
	}

	P := mgl64.Mat3x4FromCols(p[0], p[1], p[2], p[3])
	V := mgl64.Mat3x4FromCols(v[0], v[1], v[2], v[3])

	F := P.Mul4x3(t.betaLin)
	Fdot := V.Mul4x3(t.betaLin)
	Ft := F.Transpose()

	ident := mgl64.Ident3()
	strain := Ft.Mul3(F).Sub(ident)
	strainRate := Ft.Mul3(Fdot).Add(Fdot.Transpose().Mul3(F))

	m := &o.material
	elastic := ident.Mul(m.Incompressibility * strain.Trace()).Add(strain.Mul(2 * m.Rigidity))
	viscous := ident.Mul(m.Viscosity1 * strainRate.Trace()).Add(strainRate.Mul(2 * m.Viscosity2))
	FS := F.Mul3(elastic.Add(viscous))

	for i, idx := range t.Vertices {
		f := FS.Mul3x1(t.Normals[i]).Mul(-1.0 / 3.0)
		o.nodes[idx].Force = o.nodes[idx].Force.Add(f)
	}
}

// TotalMass is the sum of lumped node masses.
func (o *Object) TotalMass() float64 {
	total := 0.0
	for i := range o.nodes {
		total += o.nodes[i].Mass
	}
	return total
}

// RestVolume is the sum of tetrahedron rest volumes.
func (o *Object) RestVolume() float64 {
	total := 0.0
	for i := range o.tets {
		total += o.tets[i].Volume
	}
	return total
}

// Centroid returns the mass-weighted mean node position.
func (o *Object) Centroid() mgl64.Vec3 {
	var sum mgl64.Vec3
	total := 0.0
	for i := range o.nodes {
		n := &o.nodes[i]
		sum = sum.Add(n.Position.Mul(n.Mass))
		total += n.Mass
	}
	if total == 0 {
		return sum
	}
	return sum.Mul(1 / total)
}

func (o *Object) KineticEnergy() float64 {
	e := 0.0
	for i := range o.nodes {
		n := &o.nodes[i]
		e += 0.5 * n.Mass * n.Velocity.Dot(n.Velocity)
	}
	return e
}

// PotentialEnergy is the gravitational energy relative to y = 0.
func (o *Object) PotentialEnergy() float64 {
	e := 0.0
	for i := range o.nodes {
		n := &o.nodes[i]
		e += n.Mass * o.material.Gravity * n.Position[1]
	}
	return e
}

// Contacts counts surface nodes that receive a non-zero collider force at
// the installed state.
func (o *Object) Contacts() int {
	count := 0
	for _, v := range o.surface {
		p := o.nodes[v].Position
		for _, c := range o.colliders {
			if c.Resolve(p) != (mgl64.Vec3{}) {
				count++
				break
			}
		}
	}
	return count
}

// GetParams implements dynamo.Configurable
func (o *Object) GetParams() map[string]float64 {
	return o.material.params()
}

// SetParam implements dynamo.Configurable. Density is not adjustable since
// masses are lumped once at construction.
func (o *Object) SetParam(name string, value float64) error {
	return o.material.set(name, value)
}
