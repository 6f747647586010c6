package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/femsim/internal/dynamo"
)

type centroidSource interface {
	Centroid() mgl64.Vec3
}

// CentroidTrace records one body's centroid height over time. It is an
// observer, so it sees every step regardless of the run's record interval.
type CentroidTrace struct {
	src   centroidSource
	every int
	n     int
	Times []float64
	Y     []float64
}

// NewCentroidTrace samples src every given number of steps (at least 1).
func NewCentroidTrace(src centroidSource, every int) *CentroidTrace {
	if every < 1 {
		every = 1
	}
	return &CentroidTrace{src: src, every: every}
}

func (c *CentroidTrace) OnStep(x dynamo.State, t float64) {
	c.n++
	if c.n%c.every != 0 {
		return
	}
	c.Times = append(c.Times, t)
	c.Y = append(c.Y, c.src.Centroid()[1])
}

// SampleRate is the number of samples per unit of simulated time.
func (c *CentroidTrace) SampleRate() float64 {
	if len(c.Times) < 2 {
		return 0
	}
	span := c.Times[len(c.Times)-1] - c.Times[0]
	if span <= 0 {
		return 0
	}
	return float64(len(c.Times)-1) / span
}

// Default returns the standard metric set for a FEM system.
func Default(sys fullSource) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(sys),
		NewEnergyDrift(sys),
		NewPeakKinetic(sys),
		NewPeakContacts(sys),
		NewMinHeight(),
		NewMaxSpeed(),
		NewStability(1e6),
	}
}

type fullSource interface {
	dynamo.EnergyComputer
	kineticSource
	contactSource
}
