package fem_test

import (
	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/femsim/internal/collider"
	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/fem"
	"github.com/san-kum/femsim/internal/geom"
)

var _ = Describe("System", func() {
	var (
		sys    *fem.System
		lower  *fem.Object
		upper  *fem.Object
		single = []geom.Tet{{0, 1, 2, 3}}
	)

	BeforeEach(func() {
		m := quietMaterial()
		m.Gravity = 1
		lower = mustObject("lower", unitVerts, single, m)
		upper = mustObject("upper", translated(unitVerts, mgl64.Vec3{0, 3, 0}), single, m)
		sys = fem.NewSystem()
		sys.AddObject(lower)
		sys.AddObject(upper)
	})

	It("concatenates object states in insertion order", func() {
		Expect(sys.StateDim()).To(Equal(48))
		Expect(sys.Offset(0)).To(Equal(0))
		Expect(sys.Offset(1)).To(Equal(24))

		x := sys.State()
		Expect(x).To(HaveLen(48))
		Expect(sys.ObjectState(x, 0)).To(Equal(lower.State()))
		Expect(sys.ObjectState(x, 1)).To(Equal(upper.State()))
	})

	It("distributes SetState to each object", func() {
		x := sys.State()
		x[24+1] = 10
		Expect(sys.SetState(x)).To(Succeed())
		Expect(upper.Node(0).Position[1]).To(Equal(10.0))
		Expect(lower.Node(0).Position[1]).To(Equal(0.0))
	})

	It("rejects a state of the wrong length", func() {
		Expect(sys.SetState(make(dynamo.State, 47))).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("derives each segment from its object", func() {
		dx := sys.Derive()
		Expect(sys.ObjectState(dx, 0)).To(Equal(lower.Derive()))
		Expect(sys.ObjectState(dx, 1)).To(Equal(upper.Derive()))
	})

	It("registers system colliders with every object once", func() {
		g := groundCollider(0, 100)
		sys.AddCollider(g)
		sys.AddCollider(g)
		sys.Init()
		sys.Init()
		Expect(sys.Colliders()).To(HaveLen(1))
		Expect(lower.Colliders()).To(HaveLen(1))
		Expect(upper.Colliders()).To(HaveLen(1))
	})

	It("keeps a body's own surface collider away from it", func() {
		surf, err := collider.New(lower.Vertices(), lower.BoundaryFaces(), 1, false)
		Expect(err).NotTo(HaveOccurred())
		lower.SetSelfCollider(surf)
		sys.AddCollider(surf)
		sys.Init()
		Expect(lower.Colliders()).To(BeEmpty())
		Expect(upper.Colliders()).To(ConsistOf(surf))
	})

	It("moves surface colliders with their bodies after a step", func() {
		surf, err := collider.New(lower.Vertices(), lower.BoundaryFaces(), 1, false)
		Expect(err).NotTo(HaveOccurred())
		lower.SetSelfCollider(surf)

		x := sys.State()
		for i := 0; i < lower.NumNodes(); i++ {
			x[i*fem.NodeStateDim+1] += 2
		}
		Expect(sys.SetState(x)).To(Succeed())
		Expect(sys.AfterStep()).To(Succeed())
		Expect(surf.Bounds().Min[1]).To(BeNumerically("~", 2, 1e-12))
		Expect(surf.Bounds().Max[1]).To(BeNumerically("~", 3, 1e-12))
	})

	It("sums mass and energy over objects", func() {
		Expect(sys.TotalMass()).To(BeNumerically("~", 2.0/6, 1e-12))
		Expect(sys.KineticEnergy()).To(Equal(0.0))
		Expect(sys.PotentialEnergy()).To(BeNumerically("~", lower.PotentialEnergy()+upper.PotentialEnergy(), 1e-12))
	})

	It("applies parameters to every object", func() {
		Expect(sys.SetParam("gravity", 3)).To(Succeed())
		Expect(lower.Material().Gravity).To(Equal(3.0))
		Expect(upper.Material().Gravity).To(Equal(3.0))
		Expect(sys.GetParams()).To(HaveKeyWithValue("gravity", 3.0))
	})

	It("reports empty parameters without objects", func() {
		Expect(fem.NewSystem().GetParams()).To(BeEmpty())
	})
})
