// Package geom provides the mesh topology utilities used to prepare a
// tetrahedral mesh for simulation: face normals, outward-oriented faces for
// each tetrahedron, and extraction of the boundary surface.
//
// Boundary extraction relies on a manifold mesh: every interior face is shared
// by exactly two tetrahedra. [ExtractFaces] verifies that precondition and
// reports violations as a [MeshTopologyError] rather than emitting a wrong
// surface.
package geom
