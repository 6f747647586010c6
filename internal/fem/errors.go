package fem

import (
	"fmt"

	"github.com/san-kum/femsim/internal/dynamo"
)

// DegenerateElementError reports a tetrahedron whose rest shape has (near)
// zero volume, so its rest-shape matrix cannot be inverted.
type DegenerateElementError struct {
	Tet    int
	Volume float64
	Cause  error
}

func (e *DegenerateElementError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fem: tetrahedron %d is degenerate (volume %g): %v", e.Tet, e.Volume, e.Cause)
	}
	return fmt.Sprintf("fem: tetrahedron %d is degenerate (volume %g)", e.Tet, e.Volume)
}

func (e *DegenerateElementError) Unwrap() error {
	return dynamo.ErrDegenerate
}

// DegenerateMassError reports a node that belongs to no tetrahedron and so
// has no mass to invert.
type DegenerateMassError struct {
	Node int
	Mass float64
}

func (e *DegenerateMassError) Error() string {
	return fmt.Sprintf("fem: node %d has non-positive mass %g", e.Node, e.Mass)
}

func (e *DegenerateMassError) Unwrap() error {
	return dynamo.ErrDegenerate
}
