package geom

import (
	"errors"
	"fmt"
)

// ErrMeshTopology is wrapped by every MeshTopologyError.
var ErrMeshTopology = errors.New("geom: invalid mesh topology")

// MeshTopologyError reports a tetrahedral mesh that breaks the manifold
// precondition of boundary extraction.
type MeshTopologyError struct {
	Tet    int
	Face   Face
	Count  int
	Reason string
}

func (e *MeshTopologyError) Error() string {
	if e.Count > 0 {
		return fmt.Sprintf("geom: face %v shared by %d tetrahedra (tet %d): %s", e.Face, e.Count, e.Tet, e.Reason)
	}
	return fmt.Sprintf("geom: tetrahedron %d: %s", e.Tet, e.Reason)
}

func (e *MeshTopologyError) Unwrap() error {
	return ErrMeshTopology
}
