package fem_test

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/femsim/internal/collider"
	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/fem"
	"github.com/san-kum/femsim/internal/geom"
)

var unitVerts = []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

func translated(verts []mgl64.Vec3, d mgl64.Vec3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(verts))
	for i, v := range verts {
		out[i] = v.Add(d)
	}
	return out
}

func quietMaterial() fem.Material {
	m := fem.DefaultMaterial()
	m.Density = 1
	m.Gravity = 0
	return m
}

func mustObject(name string, verts []mgl64.Vec3, tets []geom.Tet, m fem.Material) *fem.Object {
	o, err := fem.FromMesh(name, verts, tets, m)
	Expect(err).NotTo(HaveOccurred())
	return o
}

func groundCollider(id int, gain float64) *collider.Collider {
	verts := []mgl64.Vec3{{-5, 0, -5}, {-5, 0, 5}, {5, 0, 5}, {5, 0, -5}}
	c, err := collider.New(verts, []geom.Face{{0, 1, 2}, {0, 2, 3}}, id, true, collider.WithGain(gain))
	Expect(err).NotTo(HaveOccurred())
	return c
}

var _ = Describe("Object", func() {
	var tets []geom.Tet

	BeforeEach(func() {
		tets = []geom.Tet{{0, 1, 2, 3}}
	})

	Describe("construction", func() {
		It("lumps a quarter of the element mass onto each node", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			Expect(o.NumNodes()).To(Equal(4))
			Expect(o.NumTets()).To(Equal(1))
			for i := 0; i < 4; i++ {
				Expect(o.Node(i).Mass).To(BeNumerically("~", 1.0/24, 1e-12))
			}
			Expect(o.Tet(0).Volume).To(BeNumerically("~", 1.0/6, 1e-12))
		})

		It("stores beta as the inverse of the homogeneous rest matrix", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			h := mgl64.Mat4FromCols(
				unitVerts[0].Vec4(1), unitVerts[1].Vec4(1),
				unitVerts[2].Vec4(1), unitVerts[3].Vec4(1),
			)
			Expect(o.Tet(0).Beta.Mul4(h).ApproxEqualThreshold(mgl64.Ident4(), 1e-9)).To(BeTrue())
		})

		It("scales total mass with density and volume", func() {
			verts := []mgl64.Vec3{
				{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1},
				{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1},
			}
			cube := []geom.Tet{{0, 1, 3, 4}, {1, 2, 3, 6}, {1, 4, 5, 6}, {3, 4, 6, 7}, {1, 3, 4, 6}}
			m := quietMaterial()
			m.Density = 1200
			o := mustObject("cube", verts, cube, m)
			Expect(o.RestVolume()).To(BeNumerically("~", 1, 1e-9))
			Expect(o.TotalMass()).To(BeNumerically("~", 1200, 1e-6))
			Expect(o.BoundaryFaces()).To(HaveLen(12))
			Expect(o.SurfaceNodes()).To(HaveLen(8))
		})

		It("starts every node at the material's initial velocity", func() {
			m := quietMaterial()
			m.InitialVelocity = mgl64.Vec3{0, -2, 0}
			o := mustObject("tet", unitVerts, tets, m)
			for i := 0; i < o.NumNodes(); i++ {
				Expect(o.Node(i).Velocity).To(Equal(mgl64.Vec3{0, -2, 0}))
			}
		})

		It("rejects a flat tetrahedron", func() {
			flat := []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}}
			_, err := fem.FromMesh("flat", flat, tets, quietMaterial())
			Expect(err).To(MatchError(dynamo.ErrDegenerate))
			var de *fem.DegenerateElementError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Tet).To(Equal(0))
		})

		It("rejects a node no element touches", func() {
			verts := append(append([]mgl64.Vec3{}, unitVerts...), mgl64.Vec3{3, 3, 3})
			_, err := fem.FromMesh("orphan", verts, tets, quietMaterial())
			var me *fem.DegenerateMassError
			Expect(errors.As(err, &me)).To(BeTrue())
			Expect(me.Node).To(Equal(4))
			Expect(err).To(MatchError(dynamo.ErrDegenerate))
		})

		It("rejects invalid topology", func() {
			_, err := fem.FromMesh("bad", unitVerts, []geom.Tet{{0, 1, 2, 9}}, quietMaterial())
			Expect(err).To(MatchError(geom.ErrMeshTopology))
		})

		It("rejects an invalid material", func() {
			m := quietMaterial()
			m.Rigidity = -1
			_, err := fem.FromMesh("tet", unitVerts, tets, m)
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("state", func() {
		It("lays out position then velocity per node", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			x := o.State()
			Expect(x).To(HaveLen(24))
			Expect([]float64(x[6:12])).To(Equal([]float64{1, 0, 0, 0, 0, 0}))
		})

		It("round-trips through SetState", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			before := o.State()
			Expect(o.SetState(before)).To(Succeed())
			Expect(o.State()).To(Equal(before))
		})

		It("hands out node copies", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			nodes := o.Nodes()
			Expect(nodes).To(HaveLen(4))
			Expect(nodes[1].Position).To(Equal(mgl64.Vec3{1, 0, 0}))
			Expect(nodes[1].InvMass.At(0, 0)).To(BeNumerically("~", 24, 1e-9))

			nodes[1].Position = mgl64.Vec3{9, 9, 9}
			Expect(o.Node(1).Position).To(Equal(mgl64.Vec3{1, 0, 0}))
		})

		It("rejects a state of the wrong length", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			err := o.SetState(make(dynamo.State, 5))
			Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
			Expect(o.State()).To(HaveLen(24))
		})
	})

	Describe("derivative", func() {
		It("is zero at rest without gravity", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			for _, v := range o.Derive() {
				Expect(v).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("accelerates every node by -g along y at rest", func() {
			m := quietMaterial()
			m.Gravity = 9.81
			o := mustObject("tet", unitVerts, tets, m)
			dx := o.Derive()
			for i := 0; i < o.NumNodes(); i++ {
				base := i * fem.NodeStateDim
				Expect(dx[base+3]).To(BeNumerically("~", 0, 1e-9))
				Expect(dx[base+4]).To(BeNumerically("~", -9.81, 1e-9))
				Expect(dx[base+5]).To(BeNumerically("~", 0, 1e-9))
			}
		})

		It("copies velocity into the position rate", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			x := o.State()
			x[3], x[4], x[5] = 0.5, -0.25, 2
			Expect(o.SetState(x)).To(Succeed())
			dx := o.Derive()
			Expect([]float64(dx[0:3])).To(Equal([]float64{0.5, -0.25, 2}))
		})

		It("pulls a stretched node back without net force", func() {
			m := quietMaterial()
			m.Viscosity1, m.Viscosity2 = 0, 0
			o := mustObject("tet", unitVerts, tets, m)
			x := o.State()
			x[6] = 1.1
			Expect(o.SetState(x)).To(Succeed())
			dx := o.Derive()

			Expect(dx[6+3]).To(BeNumerically("<", 0))

			// F = diag(1.1, 1, 1) and n_1 = (0.5, 0, 0)
			e := 1.1*1.1 - 1
			sigma := m.Incompressibility*e + 2*m.Rigidity*e
			want := -1.0 / 3 * 1.1 * sigma * 0.5
			Expect(dx[6+3] * o.Node(1).Mass).To(BeNumerically("~", want, 1e-6))

			var net mgl64.Vec3
			for i := 0; i < o.NumNodes(); i++ {
				base := i*fem.NodeStateDim + 3
				net = net.Add(mgl64.Vec3{dx[base], dx[base+1], dx[base+2]}.Mul(o.Node(i).Mass))
			}
			Expect(net.Len()).To(BeNumerically("~", 0, 1e-6))
		})

		It("damps a uniformly expanding element", func() {
			m := quietMaterial()
			m.Incompressibility, m.Rigidity = 0, 0
			o := mustObject("tet", unitVerts, tets, m)
			x := o.State()
			for i := 0; i < 4; i++ {
				base := i * fem.NodeStateDim
				x[base+3], x[base+4], x[base+5] = x[base], x[base+1], x[base+2]
			}
			Expect(o.SetState(x)).To(Succeed())
			dx := o.Derive()
			// node 1 moves along +x, viscosity opposes it
			Expect(dx[6+3]).To(BeNumerically("<", 0))
		})

		It("adds the floor penalty below y = 0", func() {
			m := quietMaterial()
			m.FloorPenalty = 1000
			o := mustObject("tet", translated(unitVerts, mgl64.Vec3{0, -0.01, 0}), tets, m)
			dx := o.Derive()
			Expect(dx[4]).To(BeNumerically("~", 1000*0.01*24, 1e-6))
			Expect(dx[2*fem.NodeStateDim+4]).To(BeNumerically("~", 0, 1e-9))
		})

		It("ignores the floor when the penalty is zero", func() {
			o := mustObject("tet", translated(unitVerts, mgl64.Vec3{0, -0.01, 0}), tets, quietMaterial())
			Expect(o.Derive()[4]).To(BeNumerically("~", 0, 1e-9))
		})
	})

	Describe("colliders", func() {
		It("pushes surface nodes out of a registered ground", func() {
			o := mustObject("tet", translated(unitVerts, mgl64.Vec3{0.3, -0.001, 0.6}), tets, quietMaterial())
			o.RegisterCollider(groundCollider(0, 100))
			dx := o.Derive()
			Expect(dx[4]).To(BeNumerically("~", 100*0.001*24, 1e-6))
			Expect(dx[2*fem.NodeStateDim+4]).To(BeNumerically("~", 0, 1e-9))
			Expect(o.Contacts()).To(Equal(3))
		})

		It("registers each collider once", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			g := groundCollider(0, 100)
			o.RegisterCollider(g)
			o.RegisterCollider(g)
			Expect(o.Colliders()).To(HaveLen(1))
		})

		It("never queries its own surface collider", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			self, err := collider.New(o.Vertices(), o.BoundaryFaces(), 1, false)
			Expect(err).NotTo(HaveOccurred())
			o.RegisterCollider(self)
			o.SetSelfCollider(self)
			Expect(o.Colliders()).To(BeEmpty())
			o.RegisterCollider(self)
			Expect(o.Colliders()).To(BeEmpty())
			Expect(o.SelfCollider()).To(BeIdenticalTo(self))
		})
	})

	Describe("parameters", func() {
		It("exposes and updates material parameters", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			Expect(o.GetParams()).To(HaveKeyWithValue("rigidity", fem.DefaultRigidity))
			Expect(o.SetParam("rigidity", 10)).To(Succeed())
			Expect(o.Material().Rigidity).To(Equal(10.0))
		})

		It("rejects unknown and negative parameters", func() {
			o := mustObject("tet", unitVerts, tets, quietMaterial())
			Expect(o.SetParam("density", 5)).To(MatchError(dynamo.ErrParameterBounds))
			Expect(o.SetParam("viscosity1", -1)).To(MatchError(dynamo.ErrParameterBounds))
		})
	})

	Describe("diagnostics", func() {
		It("reports energies and the mass-weighted centroid", func() {
			m := quietMaterial()
			m.Gravity = 2
			o := mustObject("tet", unitVerts, tets, m)
			Expect(o.Centroid().ApproxEqualThreshold(mgl64.Vec3{0.25, 0.25, 0.25}, 1e-12)).To(BeTrue())
			Expect(o.KineticEnergy()).To(Equal(0.0))
			// only node 2 sits above y = 0
			Expect(o.PotentialEnergy()).To(BeNumerically("~", 2.0/24, 1e-12))
		})
	})
})
