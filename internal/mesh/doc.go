// Package mesh provides tetrahedral mesh sources: procedural single-tet and
// box meshes, a ground quad for colliders, rigid transforms, and a reader
// for the plain-text .mesh format.
//
// The text format has one record per line:
//
//	# comment
//	v x y z
//	t a b c d
//
// Tetrahedron indices are 0-based and refer to vertices in file order.
package mesh
