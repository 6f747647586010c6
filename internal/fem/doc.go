// Package fem implements deformable tetrahedral bodies and the system that
// aggregates them into one flat state vector.
//
// An [Object] owns its nodes and tetrahedra. Each tetrahedron keeps the
// inverse of its homogeneous rest-shape matrix (beta), computed once at
// construction, and derives the deformation gradient from it at every
// evaluation. Stress follows a linear elastic plus viscous model on the
// Green strain:
//
//	E     = FᵀF − I
//	Ė     = FᵀḞ + ḞᵀF
//	σ     = λ·tr(E)·I + 2μ·E + φ·tr(Ė)·I + 2ψ·Ė
//	f_i  += −⅓ · F · σ · n_i
//
// where n_i is the area-weighted normal of the faces incident to vertex i.
//
// A [System] concatenates object states in insertion order and fans state
// installation and derivative evaluation out to each object. Both types
// satisfy [dynamo.System], so any integrator can drive either one.
package fem
